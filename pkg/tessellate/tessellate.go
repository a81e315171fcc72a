// Package tessellate walks an assembled core and produces triangle meshes
// using a geometry kernel. One mesh is produced per cell.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/msbr/pkg/boundary"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/geometry"
	"github.com/chazu/msbr/pkg/kernel"
	"github.com/chazu/msbr/pkg/universe"
)

// Options control what Tessellate emits.
type Options struct {
	// Slots places a copy of each universe's meshes at every lattice slot
	// that uses it. Otherwise each universe is meshed once about its own
	// origin.
	Slots bool

	// Envelope adds a mesh of the core boundary region.
	Envelope bool

	// Slab limits the axial extent to [Slab[0], Slab[1]]. The zero value
	// uses the boundary's top and bottom planes.
	Slab [2]float64
}

// placement is the translation applied to a universe's local meshes.
type placement struct {
	x, y, z float64
	label   string
}

// Tessellate walks the geometry and produces triangle meshes using the
// provided kernel. Cells whose clipped region is empty are skipped. The
// tessellator is read-only and never mutates the geometry.
func Tessellate(g *geometry.Geometry, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}
	if g.Lattice == nil || g.Root.Region == nil {
		return nil, errors.New(errors.ErrCodeIncompleteRegion, "geometry is not assembled")
	}
	zmin, zmax := g.Boundary.Bottom, g.Boundary.Top
	if opts.Slab != ([2]float64{}) {
		zmin, zmax = opts.Slab[0], opts.Slab[1]
	}
	if !(zmax > zmin) {
		return nil, errors.New(errors.ErrCodeConfiguration, "tessellate: empty axial slab [%g, %g]", zmin, zmax)
	}

	var meshes []*kernel.Mesh
	local := make(map[*universe.Universe][]*kernel.Mesh)
	meshUniverse := func(u *universe.Universe) ([]*kernel.Mesh, error) {
		if ms, ok := local[u]; ok {
			return ms, nil
		}
		ms, err := handleUniverse(g, k, u, zmin, zmax)
		if err != nil {
			return nil, err
		}
		local[u] = ms
		return ms, nil
	}

	if opts.Slots {
		lat := g.Lattice
		for row := 0; row < lat.Rows; row++ {
			for col := 0; col < lat.Cols; col++ {
				u := lat.UnitAt(row, col)
				ms, err := meshUniverse(u)
				if err != nil {
					return nil, err
				}
				c := lat.SlotCentre(row, col)
				meshes = append(meshes, place(ms, placement{x: c[0], y: c[1], label: fmt.Sprintf("[%d,%d]", row, col)})...)
			}
		}
	} else {
		for _, u := range g.Universes() {
			ms, err := meshUniverse(u)
			if err != nil {
				return nil, err
			}
			meshes = append(meshes, ms...)
		}
	}

	if opts.Envelope {
		m, err := handleEnvelope(g, k, zmin, zmax)
		if err != nil {
			return nil, err
		}
		if m != nil {
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}

// handleUniverse meshes every cell of u within one lattice pitch of its
// origin.
func handleUniverse(g *geometry.Geometry, k kernel.Kernel, u *universe.Universe, zmin, zmax float64) ([]*kernel.Mesh, error) {
	hx, hy := g.Lattice.Pitch[0]/2, g.Lattice.Pitch[1]/2
	var meshes []*kernel.Mesh
	for _, c := range u.Cells {
		solid := kernel.Clip(k, c.Region, [3]float64{-hx, -hy, zmin}, [3]float64{hx, hy, zmax})
		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for cell %s: %w", c.Name, err)
		}
		if mesh.IsEmpty() {
			continue
		}
		mesh.Name = c.Name
		if c.Material != nil {
			mesh.Material = c.Material.Name
			mesh.Color = c.Material.Color
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// handleEnvelope meshes the root cell's region clipped to the boundary's
// reach.
func handleEnvelope(g *geometry.Geometry, k kernel.Kernel, zmin, zmax float64) (*kernel.Mesh, error) {
	reach := boundary.Reach(g.Boundary)
	if math.IsInf(reach, 0) {
		lo, hi := g.Lattice.Extent()
		reach = math.Max(math.Max(math.Abs(lo[0]), math.Abs(lo[1])), math.Max(math.Abs(hi[0]), math.Abs(hi[1])))
	}
	solid := kernel.Clip(k, g.Root.Region, [3]float64{-reach, -reach, zmin}, [3]float64{reach, reach, zmax})
	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", g.Root.Name, err)
	}
	if mesh.IsEmpty() {
		return nil, nil
	}
	mesh.Name = g.Root.Name
	return mesh, nil
}

func place(ms []*kernel.Mesh, p placement) []*kernel.Mesh {
	out := make([]*kernel.Mesh, len(ms))
	for i, m := range ms {
		placed := m.Translated(float32(p.x), float32(p.y), float32(p.z))
		placed.Name = m.Name + " " + p.label
		out[i] = placed
	}
	return out
}
