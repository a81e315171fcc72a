// Package universe holds the (region, material) cells that make up a
// repeating unit and the named universes that group them for placement.
package universe

import (
	"fmt"

	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/material"
)

// Cell pairs a region with the material that fills it.
type Cell struct {
	Name     string
	Region   csg.Region
	Material *material.Material
}

// Universe is a named, ordered set of cells defined in local coordinates.
// One universe may be placed at many lattice positions; placements share the
// definition rather than copying its geometry.
type Universe struct {
	Name  string
	Cells []Cell
}

// New returns a universe over cells.
func New(name string, cells []Cell) *Universe {
	return &Universe{Name: name, Cells: cells}
}

// Find returns the first cell whose region contains the local point p.
func (u *Universe) Find(p csg.Vec3) (*Cell, bool) {
	for i := range u.Cells {
		if u.Cells[i].Region.Contains(p) {
			return &u.Cells[i], true
		}
	}
	return nil, false
}

// Validate checks every cell region and material.
func (u *Universe) Validate() error {
	if len(u.Cells) == 0 {
		return fmt.Errorf("universe %q has no cells", u.Name)
	}
	for _, c := range u.Cells {
		if err := csg.Validate(c.Region); err != nil {
			return fmt.Errorf("universe %q cell %q: %w", u.Name, c.Name, err)
		}
		if c.Material == nil {
			return fmt.Errorf("universe %q cell %q has no material", u.Name, c.Name)
		}
	}
	return nil
}

func (u *Universe) String() string {
	return fmt.Sprintf("universe %s (%d cells)", u.Name, len(u.Cells))
}
