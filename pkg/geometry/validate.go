package geometry

import (
	"fmt"
	"math"

	"github.com/chazu/msbr/pkg/boundary"
	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/universe"
)

// Severity indicates whether a finding blocks a build or is advisory.
type Severity int

const (
	SeverityError   Severity = iota // blocks the build
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Issue describes a single validation finding.
type Issue struct {
	Subject  string // cell, universe or surface name; empty for the whole geometry
	Message  string
	Severity Severity
}

func (e Issue) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Subject, e.Message)
}

// Result bundles blocking errors and advisory warnings.
type Result struct {
	Errors   []Issue
	Warnings []Issue
}

// coverageTolerance absorbs rounding in lattice extents, in centimetres.
const coverageTolerance = 1e-9

// overlapSamples is the per-axis sample count of the sibling overlap check.
const overlapSamples = 21

// Validate checks a geometry without mutating it.
func Validate(g *Geometry) Result {
	var all []Issue
	all = append(all, validateRoot(g)...)
	all = append(all, validateUniverses(g)...)
	all = append(all, validateBoundary(g)...)
	all = append(all, validateCoverage(g)...)

	var res Result
	for _, i := range all {
		if i.Severity == SeverityError {
			res.Errors = append(res.Errors, i)
		} else {
			res.Warnings = append(res.Warnings, i)
		}
	}
	return res
}

func validateRoot(g *Geometry) []Issue {
	var out []Issue
	if g.Root.Region == nil {
		return []Issue{{Subject: g.Root.Name, Message: "root cell has no region", Severity: SeverityError}}
	}
	if err := csg.Validate(g.Root.Region); err != nil {
		out = append(out, Issue{Subject: g.Root.Name, Message: err.Error(), Severity: SeverityError})
	}
	if g.Root.Fill == nil {
		out = append(out, Issue{Subject: g.Root.Name, Message: "root cell has no lattice fill", Severity: SeverityError})
	} else if !g.Root.Fill.Frozen() {
		out = append(out, Issue{Subject: g.Root.Fill.Name, Message: "lattice was not frozen", Severity: SeverityError})
	}
	return out
}

func validateUniverses(g *Geometry) []Issue {
	if g.Lattice == nil {
		return nil
	}
	var out []Issue
	for _, u := range g.Universes() {
		if err := u.Validate(); err != nil {
			out = append(out, Issue{Subject: u.Name, Message: err.Error(), Severity: SeverityError})
			continue
		}
		for _, c := range u.Cells {
			if m, err := g.Materials.Lookup(c.Material.Name); err != nil || m != c.Material {
				out = append(out, Issue{Subject: c.Name, Message: fmt.Sprintf("material %q is not from this build's library", c.Material.Name), Severity: SeverityError})
			}
		}
		out = append(out, overlaps(u, g.Lattice.Pitch)...)
	}
	return out
}

// overlaps samples the slot cross-section at mid-height and reports points
// claimed by more than one sibling cell.
func overlaps(u *universe.Universe, pitch [2]float64) []Issue {
	var out []Issue
	reported := make(map[[2]int]bool)
	for i := 0; i < overlapSamples; i++ {
		for j := 0; j < overlapSamples; j++ {
			p := csg.Vec3{
				X: (float64(i)/float64(overlapSamples-1) - 0.5) * pitch[0] * 0.999,
				Y: (float64(j)/float64(overlapSamples-1) - 0.5) * pitch[1] * 0.999,
			}
			var owners []int
			for k, c := range u.Cells {
				if c.Region.Contains(p) {
					owners = append(owners, k)
				}
			}
			if len(owners) < 2 {
				continue
			}
			key := [2]int{owners[0], owners[1]}
			if reported[key] {
				continue
			}
			reported[key] = true
			out = append(out, Issue{
				Subject:  u.Name,
				Message:  fmt.Sprintf("cells %q and %q overlap near (%.3g, %.3g)", u.Cells[owners[0]].Name, u.Cells[owners[1]].Name, p.X, p.Y),
				Severity: SeverityWarning,
			})
		}
	}
	return out
}

func validateBoundary(g *Geometry) []Issue {
	if g.Root.Region == nil {
		return nil
	}
	var out []Issue
	for _, s := range csg.Surfaces(g.Root.Region) {
		if s.Boundary() != csg.Vacuum {
			out = append(out, Issue{Subject: s.Name(), Message: "core boundary surface is not vacuum", Severity: SeverityWarning})
		}
	}
	return out
}

// validateCoverage warns when the boundary reaches past the lattice with
// nothing to fill the gap.
func validateCoverage(g *Geometry) []Issue {
	if g.Lattice == nil || g.Lattice.Outer != nil {
		return nil
	}
	min, max := g.Lattice.Extent()
	inner := math.Min(math.Min(-min[0], max[0]), math.Min(-min[1], max[1])) + coverageTolerance

	b := g.Boundary
	contained := boundary.Reach(b) <= inner
	if b.Style == boundary.Faceted && b.Straight > 0 && b.Straight <= inner {
		contained = true
	}
	if contained {
		return nil
	}
	return []Issue{{
		Subject:  g.Root.Name,
		Message:  fmt.Sprintf("boundary extends beyond the %dx%d lattice; the gap is void", g.Lattice.Rows, g.Lattice.Cols),
		Severity: SeverityWarning,
	}}
}
