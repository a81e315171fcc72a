package csg

import (
	"math"
	"strings"
)

// Region is a boolean expression over surface half-spaces. Every region
// answers point-membership queries.
type Region interface {
	// Contains reports whether p lies in the region. Points exactly on a
	// bounding surface belong to neither of its half-spaces.
	Contains(p Vec3) bool
	String() string
	region() // marker method restricting implementations to this package
}

// Sense selects one side of a surface.
type Sense int

const (
	SensePositive Sense = iota // Eval > 0
	SenseNegative              // Eval < 0
)

func (s Sense) String() string {
	if s == SenseNegative {
		return "-"
	}
	return "+"
}

// Flip returns the opposite sense.
func (s Sense) Flip() Sense {
	if s == SenseNegative {
		return SensePositive
	}
	return SenseNegative
}

// Halfspace is one side of a surface.
type Halfspace struct {
	Surface *Surface
	Sense   Sense
}

// Intersection holds when every operand holds.
type Intersection struct {
	Operands []Region
}

// Union holds when any operand holds.
type Union struct {
	Operands []Region
}

// Complement holds when its operand does not.
type Complement struct {
	Operand Region
}

func (*Halfspace) region()    {}
func (*Intersection) region() {}
func (*Union) region()        {}
func (*Complement) region()   {}

// Intersect returns the intersection of rs.
func Intersect(rs ...Region) *Intersection {
	return &Intersection{Operands: rs}
}

// Unite returns the union of rs.
func Unite(rs ...Region) *Union {
	return &Union{Operands: rs}
}

// Not returns the complement of r.
func Not(r Region) *Complement {
	return &Complement{Operand: r}
}

func (h *Halfspace) Contains(p Vec3) bool {
	f := h.Surface.Eval(p)
	if h.Sense == SenseNegative {
		return f < 0
	}
	return f > 0
}

func (n *Intersection) Contains(p Vec3) bool {
	for _, r := range n.Operands {
		if !r.Contains(p) {
			return false
		}
	}
	return true
}

func (n *Union) Contains(p Vec3) bool {
	for _, r := range n.Operands {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

func (n *Complement) Contains(p Vec3) bool {
	return !n.Operand.Contains(p)
}

func (h *Halfspace) String() string {
	return h.Sense.String() + h.Surface.String()
}

func (n *Intersection) String() string {
	return "(" + joinRegions(n.Operands, " & ") + ")"
}

func (n *Union) String() string {
	return "(" + joinRegions(n.Operands, " | ") + ")"
}

func (n *Complement) String() string {
	return "~" + n.Operand.String()
}

func joinRegions(rs []Region, sep string) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		if r == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = r.String()
	}
	return strings.Join(parts, sep)
}

// Negate returns the complement of r with the negation pushed down to the
// half-spaces (De Morgan), so the result contains no Complement nodes that
// were not already doubly negated. It agrees with Not(r) everywhere except
// on the bounding surfaces themselves.
func Negate(r Region) Region {
	switch n := r.(type) {
	case *Halfspace:
		return &Halfspace{Surface: n.Surface, Sense: n.Sense.Flip()}
	case *Intersection:
		return &Union{Operands: negateAll(n.Operands)}
	case *Union:
		return &Intersection{Operands: negateAll(n.Operands)}
	case *Complement:
		return n.Operand
	}
	return Not(r)
}

func negateAll(rs []Region) []Region {
	out := make([]Region, len(rs))
	for i, r := range rs {
		out[i] = Negate(r)
	}
	return out
}

// Distance returns a signed distance estimate from p to the boundary of r:
// negative inside, positive outside. Intersections take the maximum and
// unions the minimum of their operands, so the value is a bound rather than
// an exact distance for composite regions.
func Distance(r Region, p Vec3) float64 {
	switch n := r.(type) {
	case *Halfspace:
		d := n.Surface.distance(p)
		if n.Sense == SensePositive {
			return -d
		}
		return d
	case *Intersection:
		d := math.Inf(-1)
		for _, op := range n.Operands {
			d = math.Max(d, Distance(op, p))
		}
		return d
	case *Union:
		d := math.Inf(1)
		for _, op := range n.Operands {
			d = math.Min(d, Distance(op, p))
		}
		return d
	case *Complement:
		return -Distance(n.Operand, p)
	}
	return math.NaN()
}

// Surfaces returns the distinct surfaces referenced by r in depth-first,
// first-appearance order.
func Surfaces(r Region) []*Surface {
	var out []*Surface
	seen := make(map[*Surface]bool)
	var walk func(Region)
	walk = func(r Region) {
		switch n := r.(type) {
		case *Halfspace:
			if n.Surface != nil && !seen[n.Surface] {
				seen[n.Surface] = true
				out = append(out, n.Surface)
			}
		case *Intersection:
			for _, op := range n.Operands {
				walk(op)
			}
		case *Union:
			for _, op := range n.Operands {
				walk(op)
			}
		case *Complement:
			walk(n.Operand)
		}
	}
	walk(r)
	return out
}
