// Package geometry assembles a core description into a single root cell: a
// stringer lattice clipped by the core boundary.
//
// Build is a pure function of its inputs. Every call constructs fresh
// surfaces, universes and lattice, and a returned Geometry is never touched
// again by this package.
package geometry

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/msbr/pkg/boundary"
	"github.com/chazu/msbr/pkg/config"
	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/lattice"
	"github.com/chazu/msbr/pkg/material"
	"github.com/chazu/msbr/pkg/stringer"
	"github.com/chazu/msbr/pkg/universe"
)

// Namespace seeds the name-based geometry IDs.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/chazu/msbr/geometry"))

// RootCell is the top of the geometry tree: the boundary region filled
// with the lattice.
type RootCell struct {
	Name   string
	Region csg.Region
	Fill   *lattice.Lattice
}

// Geometry is an immutable, fully assembled core.
type Geometry struct {
	ID        uuid.UUID
	Name      string
	Root      RootCell
	Lattice   *lattice.Lattice
	Materials *material.Library
	Boundary  boundary.Config // in centimetres
	Warnings  []Issue
}

// Build assembles the geometry described by cfg with materials from p.
func Build(cfg config.Config, p material.Provider) (*Geometry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Resolve every material before any cell exists.
	lib, err := material.Load(p)
	if err != nil {
		return nil, err
	}
	mats, err := stringer.LookupMaterials(lib)
	if err != nil {
		return nil, err
	}

	names, err := universeNames(cfg)
	if err != nil {
		return nil, err
	}

	params := stringer.Params{
		Scale:     cfg.Scale,
		Length:    cfg.Stringer.Length,
		Side:      cfg.Stringer.Side,
		DotRadius: cfg.Stringer.DotRadius,
	}
	units := make(map[string]*universe.Universe, len(names))
	for _, name := range names {
		u, err := buildUniverse(name, params, mats)
		if err != nil {
			return nil, err
		}
		units[name] = u
	}

	lat, err := assembleLattice(cfg, units)
	if err != nil {
		return nil, err
	}

	top, bottom := cfg.AxialBounds()
	bcfg := boundary.Config{
		Style:    boundary.Style(cfg.Boundary.Style),
		Top:      top * cfg.Scale,
		Bottom:   bottom * cfg.Scale,
		Radius:   cfg.Boundary.Radius * cfg.Scale,
		Diagonal: cfg.Boundary.Diagonal * cfg.Scale,
		Straight: cfg.Boundary.Straight * cfg.Scale,
	}
	region, err := boundary.Compose(bcfg)
	if err != nil {
		return nil, fmt.Errorf("core boundary: %w", err)
	}

	id, err := identify(cfg, lib)
	if err != nil {
		return nil, err
	}

	g := &Geometry{
		ID:   id,
		Name: cfg.Name,
		Root: RootCell{
			Name:   cfg.Name + " core",
			Region: region,
			Fill:   lat,
		},
		Lattice:   lat,
		Materials: lib,
		Boundary:  bcfg,
	}

	res := Validate(g)
	if len(res.Errors) > 0 {
		return nil, errors.Wrap(errors.ErrCodeIncompleteRegion, res.Errors[0], "geometry %s has %d validation errors", cfg.Name, len(res.Errors))
	}
	g.Warnings = res.Warnings
	return g, nil
}

// universeNames checks every universe the config refers to and returns the
// lattice universes in order of first use. Extension zones fail here, before
// any cell is built.
func universeNames(cfg config.Config) ([]string, error) {
	for _, z := range cfg.Zones {
		switch z {
		case config.ZoneIIB, config.ZoneIAIIB:
			return nil, errors.NotImplemented("moderation zone %s", z)
		default:
			return nil, errors.New(errors.ErrCodeConfiguration, "unknown moderation zone %q", z)
		}
	}

	refs := []string{cfg.Lattice.Default}
	for _, o := range cfg.Lattice.Overrides {
		refs = append(refs, o.Universe)
	}
	if cfg.Lattice.Outer != "" {
		refs = append(refs, cfg.Lattice.Outer)
	}

	var names []string
	seen := make(map[string]bool, len(refs))
	for _, name := range refs {
		if seen[name] {
			continue
		}
		seen[name] = true
		switch name {
		case config.ZoneIA, config.ZoneIIA:
			names = append(names, name)
		case config.ZoneIIB, config.ZoneIAIIB:
			return nil, errors.NotImplemented("universe %s", name)
		default:
			return nil, errors.New(errors.ErrCodeConfiguration, "unknown universe %q", name)
		}
	}
	return names, nil
}

func buildUniverse(name string, p stringer.Params, m stringer.Materials) (*universe.Universe, error) {
	switch name {
	case config.ZoneIA:
		return stringer.NewZoneIA(p, m)
	case config.ZoneIIA:
		return stringer.NewZoneIIA(p, m)
	}
	return nil, errors.New(errors.ErrCodeConfiguration, "unknown universe %q", name)
}

func assembleLattice(cfg config.Config, units map[string]*universe.Universe) (*lattice.Lattice, error) {
	lc := cfg.Lattice
	origin := [2]float64{lc.Origin[0] * cfg.Scale, lc.Origin[1] * cfg.Scale}
	pitch := [2]float64{lc.Pitch[0] * cfg.Scale, lc.Pitch[1] * cfg.Scale}

	lat, err := lattice.New(origin, pitch, lc.Rows, lc.Cols, units[lc.Default])
	if err != nil {
		return nil, err
	}
	lat.Name = cfg.Name + " lattice"
	for _, o := range lc.Overrides {
		if err := lat.Override(o.Row, o.Col, units[o.Universe]); err != nil {
			return nil, err
		}
	}
	if lc.Outer != "" {
		lat.Outer = units[lc.Outer]
	}
	lat.Freeze()
	return lat, nil
}

// identify derives the geometry ID from everything the build depends on, so
// rebuilding the same inputs yields the same ID.
func identify(cfg config.Config, lib *material.Library) (uuid.UUID, error) {
	data, err := json.Marshal(struct {
		Config    config.Config        `json:"config"`
		Materials []*material.Material `json:"materials"`
	}{cfg, lib.All()})
	if err != nil {
		return uuid.Nil, errors.Wrap(errors.ErrCodeInternal, err, "hash geometry inputs")
	}
	return uuid.NewSHA1(Namespace, data), nil
}

// Universes returns every universe the geometry places, lattice arena first
// and then the outer universe when it is not already in the grid.
func (g *Geometry) Universes() []*universe.Universe {
	us := g.Lattice.Universes()
	if g.Lattice.Outer == nil {
		return us
	}
	for _, u := range us {
		if u == g.Lattice.Outer {
			return us
		}
	}
	return append(us, g.Lattice.Outer)
}

// Hit is the result of a point query.
type Hit struct {
	Universe *universe.Universe
	Cell     *universe.Cell
	Slot     lattice.Index
	InGrid   bool
}

// Material returns the material at the hit point.
func (h Hit) Material() *material.Material {
	return h.Cell.Material
}

// Find returns the cell containing the global point p. Points outside the
// boundary, in void or on a surface report false.
func (g *Geometry) Find(p csg.Vec3) (Hit, bool) {
	if !g.Root.Region.Contains(p) {
		return Hit{}, false
	}
	idx, local, inGrid := g.Lattice.Locate(p)
	u := g.Lattice.Outer
	if inGrid {
		u = g.Lattice.UnitAt(idx.Row, idx.Col)
	} else {
		local = p
	}
	if u == nil {
		return Hit{}, false
	}
	c, ok := u.Find(local)
	if !ok {
		return Hit{}, false
	}
	return Hit{Universe: u, Cell: c, Slot: idx, InGrid: inGrid}, true
}
