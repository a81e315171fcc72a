// Package export serializes a built geometry to the transport solver's
// native geometry.xml input.
//
// IDs are assigned in traversal order, so exporting the same geometry twice
// yields byte-identical output. The solver writes cylinders as
// dist²−r², the opposite sign of csg.Surface.Eval, so cylinder half-space
// senses are flipped on the way out; planes keep their sign.
package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/geometry"
	"github.com/chazu/msbr/pkg/universe"
)

// Exporter writes a geometry in some persisted format.
type Exporter interface {
	Export(w io.Writer, g *geometry.Geometry) error
}

// XML writes the solver's geometry.xml.
type XML struct {
	Indent string // element indent; empty writes the document on one line
}

// Document is the geometry.xml root element.
type Document struct {
	XMLName  xml.Name  `xml:"geometry"`
	Comment  string    `xml:",comment"`
	Surfaces []Surface `xml:"surface"`
	Cells    []Cell    `xml:"cell"`
	Lattices []Lattice `xml:"lattice"`
}

type Surface struct {
	ID       int    `xml:"id,attr"`
	Name     string `xml:"name,attr,omitempty"`
	Type     string `xml:"type,attr"`
	Coeffs   string `xml:"coeffs,attr"`
	Boundary string `xml:"boundary,attr,omitempty"`
}

type Cell struct {
	ID       int    `xml:"id,attr"`
	Name     string `xml:"name,attr,omitempty"`
	Universe int    `xml:"universe,attr"`
	Material string `xml:"material,attr,omitempty"`
	Fill     int    `xml:"fill,attr,omitempty"`
	Region   string `xml:"region,attr,omitempty"`
}

type Lattice struct {
	ID        int    `xml:"id,attr"`
	Name      string `xml:"name,attr,omitempty"`
	Dimension string `xml:"dimension"`
	LowerLeft string `xml:"lower_left"`
	Pitch     string `xml:"pitch"`
	Outer     int    `xml:"outer,omitempty"`
	Universes string `xml:"universes"`
}

// Export writes g as geometry.xml.
func (x XML) Export(w io.Writer, g *geometry.Geometry) error {
	doc, err := NewDocument(g)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write geometry")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", x.Indent)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "encode geometry")
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write geometry")
	}
	return nil
}

// ids hands out sequential IDs per kind.
type ids struct {
	surfaces  map[*csg.Surface]int
	order     []*csg.Surface
	universes map[*universe.Universe]int
	materials map[string]int
}

func (s *ids) surface(sf *csg.Surface) int {
	if id, ok := s.surfaces[sf]; ok {
		return id
	}
	s.order = append(s.order, sf)
	id := len(s.order)
	s.surfaces[sf] = id
	return id
}

// NewDocument lays out g with sequential IDs. Universe 0 is the root;
// material IDs follow the material library order.
func NewDocument(g *geometry.Geometry) (*Document, error) {
	if g == nil || g.Lattice == nil || g.Root.Region == nil {
		return nil, errors.New(errors.ErrCodeExport, "geometry is not assembled")
	}
	reg := &ids{
		surfaces:  make(map[*csg.Surface]int),
		universes: make(map[*universe.Universe]int),
		materials: make(map[string]int),
	}
	for i, m := range g.Materials.All() {
		reg.materials[m.Name] = i + 1
	}

	name := strings.ReplaceAll(g.Name, "--", "-")
	doc := &Document{Comment: fmt.Sprintf(" %s %s ", name, g.ID)}

	us := g.Universes()
	for i, u := range us {
		reg.universes[u] = i + 1
	}
	latticeID := len(us) + 1

	for _, u := range us {
		for _, c := range u.Cells {
			region, err := regionExpr(c.Region, reg, true)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", c.Name, err)
			}
			mid, ok := reg.materials[c.Material.Name]
			if !ok {
				return nil, errors.New(errors.ErrCodeExport, "cell %s uses material %q outside the library", c.Name, c.Material.Name)
			}
			doc.Cells = append(doc.Cells, Cell{
				ID:       len(doc.Cells) + 1,
				Name:     c.Name,
				Universe: reg.universes[u],
				Material: strconv.Itoa(mid),
				Region:   region,
			})
		}
	}

	rootRegion, err := regionExpr(g.Root.Region, reg, true)
	if err != nil {
		return nil, fmt.Errorf("root cell: %w", err)
	}
	doc.Cells = append(doc.Cells, Cell{
		ID:       len(doc.Cells) + 1,
		Name:     g.Root.Name,
		Universe: 0,
		Fill:     latticeID,
		Region:   rootRegion,
	})

	lat := g.Lattice
	doc.Lattices = []Lattice{{
		ID:        latticeID,
		Name:      lat.Name,
		Dimension: fmt.Sprintf("%d %d", lat.Cols, lat.Rows),
		LowerLeft: floats(lat.Origin[0], lat.Origin[1]),
		Pitch:     floats(lat.Pitch[0], lat.Pitch[1]),
		Outer:     reg.universes[lat.Outer],
		Universes: latticeUniverses(g, reg),
	}}

	for i, s := range reg.order {
		typ, coeffs := surfaceCoeffs(s)
		sf := Surface{ID: i + 1, Name: s.Name(), Type: typ, Coeffs: coeffs}
		if s.Boundary() != csg.Transmission {
			sf.Boundary = string(s.Boundary())
		}
		doc.Surfaces = append(doc.Surfaces, sf)
	}
	return doc, nil
}

// latticeUniverses lists universe IDs with the top row first.
func latticeUniverses(g *geometry.Geometry, reg *ids) string {
	us := g.Lattice.Universes()
	idx := g.Lattice.Indices()
	var b strings.Builder
	b.WriteString("\n")
	for r := 0; r < g.Lattice.Rows; r++ {
		row := make([]string, g.Lattice.Cols)
		for c := range row {
			row[c] = strconv.Itoa(reg.universes[us[idx[r*g.Lattice.Cols+c]]])
		}
		b.WriteString(strings.Join(row, " "))
		b.WriteString("\n")
	}
	return b.String()
}

// regionExpr renders r in the solver's region syntax: implicit
// intersection, "|" for union and "~" for complement.
func regionExpr(r csg.Region, reg *ids, top bool) (string, error) {
	switch n := r.(type) {
	case *csg.Halfspace:
		if n == nil || n.Surface == nil {
			return "", errors.New(errors.ErrCodeExport, "half-space without surface")
		}
		id := reg.surface(n.Surface)
		if solverSense(n) == csg.SenseNegative {
			return "-" + strconv.Itoa(id), nil
		}
		return strconv.Itoa(id), nil
	case *csg.Intersection:
		return join(n.Operands, " ", reg, top)
	case *csg.Union:
		return join(n.Operands, " | ", reg, top)
	case *csg.Complement:
		inner, err := regionExpr(n.Operand, reg, true)
		if err != nil {
			return "", err
		}
		return "~(" + inner + ")", nil
	}
	return "", errors.New(errors.ErrCodeExport, "unsupported region %T", r)
}

func join(ops []csg.Region, sep string, reg *ids, top bool) (string, error) {
	if len(ops) == 0 {
		return "", errors.New(errors.ErrCodeExport, "empty region operator")
	}
	parts := make([]string, len(ops))
	for i, op := range ops {
		s, err := regionExpr(op, reg, false)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	out := strings.Join(parts, sep)
	if top || len(ops) == 1 {
		return out, nil
	}
	return "(" + out + ")", nil
}

// solverSense maps a half-space to the solver's sign convention.
func solverSense(h *csg.Halfspace) csg.Sense {
	if h.Surface.Kind() == csg.KindCylinder {
		return h.Sense.Flip()
	}
	return h.Sense
}

// surfaceCoeffs returns the solver type and coefficients of s. Planes with
// a unit axis normal become axis planes.
func surfaceCoeffs(s *csg.Surface) (string, string) {
	if s.Kind() == csg.KindCylinder {
		c := s.Center()
		return s.Axis().String() + "-cylinder", floats(c[0], c[1], s.Radius())
	}
	n := s.Normal()
	switch n {
	case csg.Vec3{X: 1}:
		return "x-plane", floats(s.Offset())
	case csg.Vec3{Y: 1}:
		return "y-plane", floats(s.Offset())
	case csg.Vec3{Z: 1}:
		return "z-plane", floats(s.Offset())
	}
	return "plane", floats(n.X, n.Y, n.Z, s.Offset())
}

// floats formats coefficients to 12 significant digits, dropping the
// rounding noise of the inch to centimetre conversion.
func floats(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', 12, 64)
	}
	return strings.Join(parts, " ")
}

// WriteFile exports g to path, creating parent directories.
func WriteFile(e Exporter, path string, g *geometry.Geometry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeExport, err, "create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "create %s", path)
	}
	if err := e.Export(f, g); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "close %s", path)
	}
	return nil
}
