// Package lattice tiles universes over a rectangular grid in the xy plane.
//
// A lattice keeps an arena of distinct universe definitions and an index
// grid into that arena, so every slot references a shared, immutable unit
// definition and no slot can alias another slot's storage.
//
// Row 0 is the top row (largest y) and column 0 the left column (smallest
// x), which is the ordering the transport solver expects universes in.
package lattice

import (
	"math"

	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/universe"
)

// Index addresses one grid slot.
type Index struct {
	Row int
	Col int
}

// Lattice is a rows×cols grid of universe references.
type Lattice struct {
	Name   string
	Origin [2]float64 // lower-left corner (x, y)
	Pitch  [2]float64 // slot size (x, y)
	Rows   int
	Cols   int

	// Outer fills points inside the root cell but outside the grid. Nil
	// means void.
	Outer *universe.Universe

	arena  []*universe.Universe
	grid   []int
	frozen bool
}

// New returns a lattice with every slot filled by def.
func New(origin, pitch [2]float64, rows, cols int, def *universe.Universe) (*Lattice, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "lattice dimensions must be positive, got %dx%d", rows, cols)
	}
	for _, p := range pitch {
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, errors.New(errors.ErrCodeConfiguration, "lattice pitch must be positive, got %v", pitch)
		}
	}
	for _, o := range origin {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			return nil, errors.New(errors.ErrCodeConfiguration, "lattice origin must be finite, got %v", origin)
		}
	}
	if def == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "lattice needs a default universe")
	}
	return &Lattice{
		Origin: origin,
		Pitch:  pitch,
		Rows:   rows,
		Cols:   cols,
		arena:  []*universe.Universe{def},
		grid:   make([]int, rows*cols), // zero index is def
	}, nil
}

// Override places u at (row, col). Later overrides of the same slot win.
func (l *Lattice) Override(row, col int, u *universe.Universe) error {
	if l.frozen {
		return errors.New(errors.ErrCodeConfiguration, "lattice %q is frozen", l.Name)
	}
	if u == nil {
		return errors.New(errors.ErrCodeConfiguration, "override at (%d,%d) has no universe", row, col)
	}
	if !l.inRange(row, col) {
		return errors.New(errors.ErrCodeConfiguration, "override at (%d,%d) outside %dx%d lattice", row, col, l.Rows, l.Cols)
	}
	l.grid[row*l.Cols+col] = l.intern(u)
	return nil
}

// OverrideAll applies Override for every index in order.
func (l *Lattice) OverrideAll(idx []Index, u *universe.Universe) error {
	for _, i := range idx {
		if err := l.Override(i.Row, i.Col, u); err != nil {
			return err
		}
	}
	return nil
}

// Freeze forbids further overrides.
func (l *Lattice) Freeze() {
	l.frozen = true
}

// Frozen reports whether the lattice accepts overrides.
func (l *Lattice) Frozen() bool {
	return l.frozen
}

// intern returns the arena index of u, adding it if needed.
func (l *Lattice) intern(u *universe.Universe) int {
	for i, a := range l.arena {
		if a == u {
			return i
		}
	}
	l.arena = append(l.arena, u)
	return len(l.arena) - 1
}

func (l *Lattice) inRange(row, col int) bool {
	return row >= 0 && row < l.Rows && col >= 0 && col < l.Cols
}

// UnitAt returns the universe at (row, col), or nil when out of range.
func (l *Lattice) UnitAt(row, col int) *universe.Universe {
	if !l.inRange(row, col) {
		return nil
	}
	return l.arena[l.grid[row*l.Cols+col]]
}

// Universes returns the distinct universes in the order they were first
// placed; the default universe is first.
func (l *Lattice) Universes() []*universe.Universe {
	out := make([]*universe.Universe, len(l.arena))
	copy(out, l.arena)
	return out
}

// Indices returns the arena index of every slot in row-major order.
func (l *Lattice) Indices() []int {
	out := make([]int, len(l.grid))
	copy(out, l.grid)
	return out
}

// Count returns how many slots reference u.
func (l *Lattice) Count(u *universe.Universe) int {
	n := 0
	for _, i := range l.grid {
		if l.arena[i] == u {
			n++
		}
	}
	return n
}

// Extent returns the lower-left and upper-right corners of the grid.
func (l *Lattice) Extent() (min, max [2]float64) {
	min = l.Origin
	max = [2]float64{
		l.Origin[0] + float64(l.Cols)*l.Pitch[0],
		l.Origin[1] + float64(l.Rows)*l.Pitch[1],
	}
	return min, max
}

// SlotCentre returns the global xy centre of slot (row, col).
func (l *Lattice) SlotCentre(row, col int) [2]float64 {
	return [2]float64{
		l.Origin[0] + (float64(col)+0.5)*l.Pitch[0],
		l.Origin[1] + (float64(l.Rows-1-row)+0.5)*l.Pitch[1],
	}
}

// Locate maps the global point p to the slot containing it and to the
// point's coordinates relative to that slot's centre.
func (l *Lattice) Locate(p csg.Vec3) (Index, csg.Vec3, bool) {
	fx := (p.X - l.Origin[0]) / l.Pitch[0]
	fy := (p.Y - l.Origin[1]) / l.Pitch[1]
	col := int(math.Floor(fx))
	rowFromBottom := int(math.Floor(fy))
	row := l.Rows - 1 - rowFromBottom
	if !l.inRange(row, col) {
		return Index{}, csg.Vec3{}, false
	}
	local := csg.Vec3{
		X: p.X - (l.Origin[0] + (float64(col)+0.5)*l.Pitch[0]),
		Y: p.Y - (l.Origin[1] + (float64(rowFromBottom)+0.5)*l.Pitch[1]),
		Z: p.Z,
	}
	return Index{Row: row, Col: col}, local, true
}

// Find returns the universe and local point for a global point. Points
// outside the grid fall to the outer universe when one is set.
func (l *Lattice) Find(p csg.Vec3) (*universe.Universe, csg.Vec3, bool) {
	idx, local, ok := l.Locate(p)
	if !ok {
		if l.Outer != nil {
			return l.Outer, p, true
		}
		return nil, csg.Vec3{}, false
	}
	return l.UnitAt(idx.Row, idx.Col), local, true
}

// Centre returns the index of the central slot.
func Centre(rows, cols int) Index {
	return Index{Row: rows / 2, Col: cols / 2}
}

// Plus returns the centre slot and its four direct neighbours, clipped to
// the grid.
func Plus(rows, cols int) []Index {
	c := Centre(rows, cols)
	candidates := []Index{
		c,
		{Row: c.Row - 1, Col: c.Col},
		{Row: c.Row, Col: c.Col - 1},
		{Row: c.Row + 1, Col: c.Col},
		{Row: c.Row, Col: c.Col + 1},
	}
	out := candidates[:0]
	for _, i := range candidates {
		if i.Row >= 0 && i.Row < rows && i.Col >= 0 && i.Col < cols {
			out = append(out, i)
		}
	}
	return out
}
