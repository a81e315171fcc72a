// Package csg implements the constructive-solid-geometry algebra used to
// describe the core: implicit surfaces, the two half-spaces each surface
// splits space into, and boolean regions built from those half-spaces.
//
// Surfaces are immutable values. Regions are expression trees that only
// reference surfaces; evaluating a region against a point never mutates it.
package csg

import (
	"fmt"
	"math"

	"github.com/chazu/msbr/pkg/errors"
)

// Vec3 is a point or direction in 3D space. Lengths are in centimetres.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Axis selects one of the three coordinate axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis converts "x", "y" or "z" to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return 0, errors.New(errors.ErrCodeConfiguration, "invalid axis %q, expected x, y, or z", s)
}

// unit returns the unit vector along the axis.
func (a Axis) unit() Vec3 {
	switch a {
	case AxisX:
		return Vec3{X: 1}
	case AxisY:
		return Vec3{Y: 1}
	default:
		return Vec3{Z: 1}
	}
}

// SurfaceKind distinguishes the primitive surface shapes.
type SurfaceKind int

const (
	KindPlane    SurfaceKind = iota // a·x + b·y + c·z = d
	KindCylinder                    // infinite cylinder parallel to an axis
)

func (k SurfaceKind) String() string {
	switch k {
	case KindPlane:
		return "plane"
	case KindCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// BoundaryCondition tells the transport solver what happens to particles
// crossing a surface.
type BoundaryCondition string

const (
	Transmission BoundaryCondition = "transmission"
	Vacuum       BoundaryCondition = "vacuum" // particles crossing are lost
)

// Surface is an implicit primitive surface. The zero value is not usable;
// construct surfaces with Plane, AxisPlane or Cylinder.
type Surface struct {
	kind     SurfaceKind
	name     string
	boundary BoundaryCondition

	// plane
	normal Vec3
	d      float64

	// cylinder
	axis   Axis
	center [2]float64 // the two coordinates perpendicular to axis, in x,y,z order
	radius float64
}

// Plane returns the plane a·x + b·y + c·z = d.
func Plane(a, b, c, d float64) (*Surface, error) {
	for _, v := range []float64{a, b, c, d} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New(errors.ErrCodeConfiguration, "plane coefficients must be finite, got (%g, %g, %g, %g)", a, b, c, d)
		}
	}
	n := Vec3{X: a, Y: b, Z: c}
	if n.Length() == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "plane normal must be non-zero")
	}
	return &Surface{kind: KindPlane, boundary: Transmission, normal: n, d: d}, nil
}

// AxisPlane returns the plane perpendicular to axis at the given offset,
// with a unit normal pointing along the positive axis.
func AxisPlane(axis Axis, offset float64) (*Surface, error) {
	if axis < AxisX || axis > AxisZ {
		return nil, errors.New(errors.ErrCodeConfiguration, "invalid axis %d", int(axis))
	}
	n := axis.unit()
	return Plane(n.X, n.Y, n.Z, offset)
}

// Cylinder returns the infinite cylinder parallel to axis. center holds the
// two remaining coordinates in x, y, z order (for a z-cylinder: x0, y0).
func Cylinder(axis Axis, center [2]float64, radius float64) (*Surface, error) {
	if axis < AxisX || axis > AxisZ {
		return nil, errors.New(errors.ErrCodeConfiguration, "invalid axis %d", int(axis))
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "cylinder radius must be positive and finite, got %g", radius)
	}
	for _, c := range center {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.New(errors.ErrCodeConfiguration, "cylinder center must be finite, got %v", center)
		}
	}
	return &Surface{kind: KindCylinder, boundary: Transmission, axis: axis, center: center, radius: radius}, nil
}

// WithName returns a copy of s carrying a descriptive name.
func (s *Surface) WithName(name string) *Surface {
	c := *s
	c.name = name
	return &c
}

// WithBoundary returns a copy of s with the given boundary condition.
func (s *Surface) WithBoundary(bc BoundaryCondition) *Surface {
	c := *s
	c.boundary = bc
	return &c
}

func (s *Surface) Kind() SurfaceKind           { return s.kind }
func (s *Surface) Name() string                { return s.name }
func (s *Surface) Boundary() BoundaryCondition { return s.boundary }
func (s *Surface) Normal() Vec3                { return s.normal }
func (s *Surface) Offset() float64             { return s.d }
func (s *Surface) Axis() Axis                  { return s.axis }
func (s *Surface) Center() [2]float64          { return s.center }
func (s *Surface) Radius() float64             { return s.radius }

// Eval returns the signed surface function at p: a·x+b·y+c·z−d for planes
// and r²−dist² for cylinders, so a cylinder's positive side is its interior.
func (s *Surface) Eval(p Vec3) float64 {
	switch s.kind {
	case KindPlane:
		return s.normal.Dot(p) - s.d
	case KindCylinder:
		u, v := s.perpendicular(p)
		du, dv := u-s.center[0], v-s.center[1]
		return s.radius*s.radius - (du*du + dv*dv)
	}
	return math.NaN()
}

// perpendicular projects p onto the two coordinates orthogonal to the
// cylinder axis.
func (s *Surface) perpendicular(p Vec3) (float64, float64) {
	switch s.axis {
	case AxisX:
		return p.Y, p.Z
	case AxisY:
		return p.X, p.Z
	default:
		return p.X, p.Y
	}
}

// distance returns the signed Euclidean distance from p to the surface,
// positive on the Positive side.
func (s *Surface) distance(p Vec3) float64 {
	switch s.kind {
	case KindPlane:
		return s.Eval(p) / s.normal.Length()
	case KindCylinder:
		u, v := s.perpendicular(p)
		return s.radius - math.Hypot(u-s.center[0], v-s.center[1])
	}
	return math.NaN()
}

// Positive is the half-space where Eval > 0.
func (s *Surface) Positive() *Halfspace {
	return &Halfspace{Surface: s, Sense: SensePositive}
}

// Negative is the half-space where Eval < 0.
func (s *Surface) Negative() *Halfspace {
	return &Halfspace{Surface: s, Sense: SenseNegative}
}

// Inside is the interior of a cylinder (its Positive half-space).
func (s *Surface) Inside() *Halfspace { return s.Positive() }

// Outside is the exterior of a cylinder (its Negative half-space).
func (s *Surface) Outside() *Halfspace { return s.Negative() }

func (s *Surface) String() string {
	label := s.name
	if label == "" {
		label = s.kind.String()
	}
	switch s.kind {
	case KindPlane:
		return fmt.Sprintf("%s(%g,%g,%g;%g)", label, s.normal.X, s.normal.Y, s.normal.Z, s.d)
	case KindCylinder:
		return fmt.Sprintf("%s(%s;%g,%g;r=%g)", label, s.axis, s.center[0], s.center[1], s.radius)
	}
	return label
}
