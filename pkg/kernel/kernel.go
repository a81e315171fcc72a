// Package kernel defines the meshing kernel used to turn CSG regions into
// triangle meshes for inspection. Implementations (sdfx) evaluate regions as
// signed distance fields behind this interface, so the rest of the system
// never depends on a particular backend.
package kernel

import "github.com/chazu/msbr/pkg/csg"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box. Unclipped regions
	// report infinite bounds.
	BoundingBox() (min, max [3]float64)
}

// Kernel turns regions into meshable solids.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid // centred on the origin
	Region(r csg.Region) Solid // unbounded until clipped

	// Boolean operations
	Union(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output. The solid must be bounded.
	ToMesh(s Solid) (*Mesh, error)
}

// Clip bounds a region by the box [min, max].
func Clip(k Kernel, r csg.Region, min, max [3]float64) Solid {
	box := k.Box(max[0]-min[0], max[1]-min[1], max[2]-min[2])
	box = k.Translate(box, (min[0]+max[0])/2, (min[1]+max[1])/2, (min[2]+max[2])/2)
	return k.Intersection(box, k.Region(r))
}
