// Package stringer builds the repeating graphite stringer unit of the core
// lattice: a square graphite prism with rounded corners, pierced by a
// central fuel-salt bore and surrounded by fuel-salt channel.
//
// All lengths are given in input units (inches for the reference design) and
// multiplied by Params.Scale to get centimetres.
package stringer

import (
	"fmt"

	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/material"
	"github.com/chazu/msbr/pkg/universe"
)

// InchToCM converts inches to centimetres.
const InchToCM = 2.54

// Bore radii of the named stringer variants, in input units.
const (
	ZoneIABore  = 1.34 / 2.0
	ZoneIIABore = 2.6 / 2.0
)

// Universe names of the named variants.
const (
	ZoneIA  = "zoneIA"
	ZoneIIA = "zoneIIA"
)

// Cell indices within a stringer.
const (
	CellBody = iota
	CellFuelBore
	CellFuelOutside
)

// Params are the stringer dimensions shared by every variant.
type Params struct {
	Scale     float64 // centimetres per input unit
	Length    float64 // axial length
	Side      float64 // side of the square cross-section
	DotRadius float64 // radius of the four corner-rounding disks
}

// DefaultParams returns the reference zone I stringer dimensions in inches.
func DefaultParams() Params {
	return Params{
		Scale:     InchToCM,
		Length:    171,
		Side:      3.9,
		DotRadius: 0.1,
	}
}

// Materials are the two fills of a stringer.
type Materials struct {
	Structure *material.Material // graphite body
	Fuel      *material.Material // salt in the bore and the channel
}

// LookupMaterials resolves the stringer materials by name.
func LookupMaterials(lib *material.Library) (Materials, error) {
	g, err := lib.Lookup(material.Graphite)
	if err != nil {
		return Materials{}, err
	}
	s, err := lib.Lookup(material.Salt)
	if err != nil {
		return Materials{}, err
	}
	return Materials{Structure: g, Fuel: s}, nil
}

func (p Params) validate(boreRadius float64) error {
	switch {
	case p.Scale <= 0:
		return errors.New(errors.ErrCodeConfiguration, "stringer scale must be positive, got %g", p.Scale)
	case p.Length <= 0:
		return errors.New(errors.ErrCodeConfiguration, "stringer length must be positive, got %g", p.Length)
	case p.Side <= 0:
		return errors.New(errors.ErrCodeConfiguration, "stringer side must be positive, got %g", p.Side)
	case p.DotRadius <= 0 || 2*p.DotRadius >= p.Side:
		return errors.New(errors.ErrCodeConfiguration, "stringer corner radius %g does not fit side %g", p.DotRadius, p.Side)
	case boreRadius <= 0:
		return errors.New(errors.ErrCodeConfiguration, "bore radius must be positive, got %g", boreRadius)
	case boreRadius >= p.Side/2:
		return errors.New(errors.ErrCodeConfiguration, "bore radius %g does not fit inside side %g", boreRadius, p.Side)
	}
	return nil
}

// Build returns the three cells of a stringer with the given bore radius:
// graphite body, fuel bore and fuel outside, in that order.
func Build(p Params, m Materials, boreRadius float64) ([]universe.Cell, error) {
	return build("stringer", p, m, boreRadius)
}

func build(name string, p Params, m Materials, boreRadius float64) ([]universe.Cell, error) {
	if err := p.validate(boreRadius); err != nil {
		return nil, err
	}
	if m.Structure == nil || m.Fuel == nil {
		return nil, errors.New(errors.ErrCodeMissingMaterial, "stringer %s needs structure and fuel materials", name)
	}

	half := p.Length * p.Scale / 2
	s := p.Side * p.Scale / 2
	r := p.DotRadius * p.Scale
	bore := boreRadius * p.Scale

	sb := surfaceBuilder{prefix: name}
	top := sb.axisPlane("top", csg.AxisZ, half)
	bot := sb.axisPlane("bottom", csg.AxisZ, -half)
	left := sb.axisPlane("left", csg.AxisX, -s)
	right := sb.axisPlane("right", csg.AxisX, s)
	front := sb.axisPlane("front", csg.AxisY, -s)
	back := sb.axisPlane("back", csg.AxisY, s)

	dotL := sb.zCylinder("dot left", -s, -s+r, r)
	dotR := sb.zCylinder("dot right", s, s-r, r)
	dotF := sb.zCylinder("dot front", s-r, -s, r)
	dotB := sb.zCylinder("dot back", -s+r, s, r)

	boreCyl := sb.zCylinder("bore", 0, 0, bore)
	if sb.err != nil {
		return nil, sb.err
	}

	axial := csg.Intersect(top.Negative(), bot.Positive())
	square := csg.Intersect(left.Positive(), right.Negative(), front.Positive(), back.Negative())
	footprint := csg.Unite(square, dotL.Inside(), dotR.Inside(), dotF.Inside(), dotB.Inside())

	// The channel is derived from the body's own footprint test so the
	// two can never disagree.
	outside := csg.Negate(csg.Intersect(axial, footprint))

	return []universe.Cell{
		CellBody: {
			Name:     name + " body",
			Region:   csg.Intersect(axial, footprint, boreCyl.Outside()),
			Material: m.Structure,
		},
		CellFuelBore: {
			Name:     name + " fuel bore",
			Region:   csg.Intersect(axial, boreCyl.Inside()),
			Material: m.Fuel,
		},
		CellFuelOutside: {
			Name:     name + " fuel outside",
			Region:   outside,
			Material: m.Fuel,
		},
	}, nil
}

// New builds a named stringer universe that can be placed at many lattice
// positions.
func New(name string, p Params, m Materials, boreRadius float64) (*universe.Universe, error) {
	cells, err := build(name, p, m, boreRadius)
	if err != nil {
		return nil, fmt.Errorf("stringer %s: %w", name, err)
	}
	return universe.New(name, cells), nil
}

// NewZoneIA builds the small-bore zone IA stringer.
func NewZoneIA(p Params, m Materials) (*universe.Universe, error) {
	return New(ZoneIA, p, m, ZoneIABore)
}

// NewZoneIIA builds the large-bore zone IIA stringer.
func NewZoneIIA(p Params, m Materials) (*universe.Universe, error) {
	return New(ZoneIIA, p, m, ZoneIIABore)
}

// ZoneIACells returns the zone IA cells without wrapping them in a universe.
func ZoneIACells(p Params, m Materials) ([]universe.Cell, error) {
	return build(ZoneIA, p, m, ZoneIABore)
}

// ZoneIIACells returns the zone IIA cells without wrapping them in a universe.
func ZoneIIACells(p Params, m Materials) ([]universe.Cell, error) {
	return build(ZoneIIA, p, m, ZoneIIABore)
}

// surfaceBuilder names surfaces and keeps the first construction error.
type surfaceBuilder struct {
	prefix string
	err    error
}

func (b *surfaceBuilder) axisPlane(name string, axis csg.Axis, offset float64) *csg.Surface {
	if b.err != nil {
		return nil
	}
	s, err := csg.AxisPlane(axis, offset)
	if err != nil {
		b.err = err
		return nil
	}
	return s.WithName(b.prefix + " " + name)
}

func (b *surfaceBuilder) zCylinder(name string, x0, y0, r float64) *csg.Surface {
	if b.err != nil {
		return nil
	}
	s, err := csg.Cylinder(csg.AxisZ, [2]float64{x0, y0}, r)
	if err != nil {
		b.err = err
		return nil
	}
	return s.WithName(b.prefix + " " + name)
}
