// Package boundary composes the clipping region of the whole core: axial
// top and bottom planes intersected with a radial outline.
//
// Every boundary surface carries the vacuum condition, so particles that
// leave the core are lost.
package boundary

import (
	"math"

	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/errors"
)

// Style selects the radial outline.
type Style string

const (
	// Circular clips with a single radial vacuum cylinder.
	Circular Style = "circular"
	// Faceted intersects an optional cylinder with diagonal and straight
	// cuts, giving a polygonal prism.
	Faceted Style = "faceted"
	// Stepped follows the stepped outline of the core graphite. Its step
	// tables have never been defined, so composing it fails.
	Stepped Style = "stepped"
)

// Styles lists the named styles in a stable order.
func Styles() []Style {
	return []Style{Circular, Faceted, Stepped}
}

// Config describes the outline in centimetres. A zero Radius, Diagonal or
// Straight omits that part of a faceted outline.
type Config struct {
	Style  Style
	Top    float64
	Bottom float64

	Radius   float64 // vacuum cylinder radius
	Diagonal float64 // distance of the four 45° cuts from the axis
	Straight float64 // distance of the four axis-aligned cuts from the axis
}

// Compose returns the boundary region for cfg.
func Compose(cfg Config) (csg.Region, error) {
	if cfg.Style == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "boundary style must be set (one of %v)", Styles())
	}
	if !finite(cfg.Top, cfg.Bottom, cfg.Radius, cfg.Diagonal, cfg.Straight) {
		return nil, errors.New(errors.ErrCodeConfiguration, "boundary dimensions must be finite")
	}
	if cfg.Top <= cfg.Bottom {
		return nil, errors.New(errors.ErrCodeConfiguration, "boundary top %g must be above bottom %g", cfg.Top, cfg.Bottom)
	}
	if cfg.Radius < 0 || cfg.Diagonal < 0 || cfg.Straight < 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "boundary distances must not be negative")
	}

	var radial []csg.Region
	var err error
	switch cfg.Style {
	case Circular:
		radial, err = circular(cfg)
	case Faceted:
		radial, err = faceted(cfg)
	case Stepped:
		return nil, errors.NotImplemented("stepped core boundary")
	default:
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown boundary style %q", cfg.Style)
	}
	if err != nil {
		return nil, err
	}

	top, err := vacuumAxisPlane("core top", csg.AxisZ, cfg.Top)
	if err != nil {
		return nil, err
	}
	bot, err := vacuumAxisPlane("core bottom", csg.AxisZ, cfg.Bottom)
	if err != nil {
		return nil, err
	}
	operands := append([]csg.Region{top.Negative(), bot.Positive()}, radial...)
	return csg.Intersect(operands...), nil
}

func circular(cfg Config) ([]csg.Region, error) {
	if cfg.Radius <= 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "circular boundary needs a positive radius")
	}
	if cfg.Diagonal != 0 || cfg.Straight != 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "circular boundary takes no diagonal or straight cuts")
	}
	cyl, err := vacuumCylinder(cfg.Radius)
	if err != nil {
		return nil, err
	}
	return []csg.Region{cyl.Inside()}, nil
}

func faceted(cfg Config) ([]csg.Region, error) {
	if cfg.Radius == 0 && cfg.Diagonal == 0 && cfg.Straight == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "faceted boundary needs a radius, diagonal or straight cut")
	}
	var out []csg.Region
	if cfg.Radius > 0 {
		cyl, err := vacuumCylinder(cfg.Radius)
		if err != nil {
			return nil, err
		}
		out = append(out, cyl.Inside())
	}
	if cfg.Diagonal > 0 {
		cs, err := cuts("diagonal", cfg.Diagonal, [][2]float64{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}})
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	if cfg.Straight > 0 {
		cs, err := cuts("straight", cfg.Straight, [][2]float64{{1, 0}, {0, 1}, {-1, 0}, {0, -1}})
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	return out, nil
}

// cuts returns the inner half-spaces of planes at distance dist from the z
// axis with the given outward xy normals.
func cuts(kind string, dist float64, normals [][2]float64) ([]csg.Region, error) {
	out := make([]csg.Region, 0, len(normals))
	for i, n := range normals {
		l := math.Hypot(n[0], n[1])
		p, err := csg.Plane(n[0]/l, n[1]/l, 0, dist)
		if err != nil {
			return nil, err
		}
		p = p.WithName(facetName(kind, i)).WithBoundary(csg.Vacuum)
		out = append(out, p.Negative())
	}
	return out, nil
}

func facetName(kind string, i int) string {
	return "core " + kind + " " + [...]string{"a", "b", "c", "d"}[i]
}

func vacuumAxisPlane(name string, axis csg.Axis, offset float64) (*csg.Surface, error) {
	s, err := csg.AxisPlane(axis, offset)
	if err != nil {
		return nil, err
	}
	return s.WithName(name).WithBoundary(csg.Vacuum), nil
}

func vacuumCylinder(r float64) (*csg.Surface, error) {
	s, err := csg.Cylinder(csg.AxisZ, [2]float64{}, r)
	if err != nil {
		return nil, err
	}
	return s.WithName("core vessel").WithBoundary(csg.Vacuum), nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Reach returns an upper bound on the distance from the z axis of any point
// inside the outline.
func Reach(cfg Config) float64 {
	reach := math.Inf(1)
	if cfg.Radius > 0 {
		reach = cfg.Radius
	}
	if cfg.Style == Faceted {
		// A square of half-width Straight has corners at Straight·√2.
		if cfg.Straight > 0 {
			reach = math.Min(reach, cfg.Straight*math.Sqrt2)
		}
		if cfg.Diagonal > 0 {
			reach = math.Min(reach, cfg.Diagonal*math.Sqrt2)
		}
	}
	return reach
}
