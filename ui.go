package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chazu/msbr/pkg/geometry"
	"github.com/chazu/msbr/pkg/plot"
	"github.com/chazu/msbr/pkg/universe"
)

var (
	colorCyan   = lipgloss.Color("36")  // headings
	colorYellow = lipgloss.Color("220") // warnings
	colorDim    = lipgloss.Color("240") // secondary text
)

const (
	iconWarning = "!"
	glyphVoid   = "·"
)

// styles are bound to one renderer so colour output follows the
// destination terminal.
type styles struct {
	r       *lipgloss.Renderer
	title   lipgloss.Style
	dim     lipgloss.Style
	warning lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		r:       r,
		title:   r.NewStyle().Bold(true).Foreground(colorCyan),
		dim:     r.NewStyle().Foreground(colorDim),
		warning: r.NewStyle().Foreground(colorYellow),
	}
}

// glyphs letters universes in arena order, coloured with the plot palette.
func (s styles) glyphs(us []*universe.Universe) map[*universe.Universe]string {
	out := make(map[*universe.Universe]string, len(us))
	for i, u := range us {
		c := lipgloss.Color(plot.Palette[i%len(plot.Palette)])
		out[u] = s.r.NewStyle().Bold(true).Foreground(c).Render(string(rune('A' + i%26)))
	}
	return out
}

// renderLattice draws one glyph per slot with the top row first, followed
// by a legend.
func renderLattice(s styles, g *geometry.Geometry) string {
	lat := g.Lattice
	us := g.Universes()
	glyph := s.glyphs(us)

	var b strings.Builder
	b.WriteString(s.title.Render(lat.Name))
	b.WriteString(s.dim.Render(fmt.Sprintf("  %dx%d, pitch %g cm", lat.Rows, lat.Cols, lat.Pitch[0])))
	b.WriteString("\n")
	for row := 0; row < lat.Rows; row++ {
		cells := make([]string, lat.Cols)
		for col := range cells {
			cells[col] = glyph[lat.UnitAt(row, col)]
		}
		b.WriteString("  " + strings.Join(cells, " ") + "\n")
	}
	for _, u := range lat.Universes() {
		fmt.Fprintf(&b, "  %s %s %s\n", glyph[u], u.Name, s.dim.Render(fmt.Sprintf("(%d slots)", lat.Count(u))))
	}
	if lat.Outer != nil {
		fmt.Fprintf(&b, "  %s %s %s\n", glyph[lat.Outer], lat.Outer.Name, s.dim.Render("(outer)"))
	} else {
		fmt.Fprintf(&b, "  %s %s\n", glyphVoid, s.dim.Render("void outside the grid"))
	}
	return b.String()
}

// renderSummary describes g: identity, boundary, materials and warnings.
func renderSummary(s styles, g *geometry.Geometry) string {
	var b strings.Builder
	b.WriteString(s.title.Render(g.Name) + " " + s.dim.Render(g.ID.String()) + "\n")

	bc := g.Boundary
	fmt.Fprintf(&b, "  boundary %s, z %g..%g cm", bc.Style, bc.Bottom, bc.Top)
	if bc.Radius > 0 {
		fmt.Fprintf(&b, ", radius %g", bc.Radius)
	}
	if bc.Diagonal > 0 {
		fmt.Fprintf(&b, ", diagonal %g", bc.Diagonal)
	}
	if bc.Straight > 0 {
		fmt.Fprintf(&b, ", straight %g", bc.Straight)
	}
	b.WriteString("\n")

	legend, err := plot.Legend(g)
	if err != nil {
		legend = []string{err.Error()}
	}
	b.WriteString("  materials " + strings.Join(legend, ", ") + "\n")

	for _, w := range g.Warnings {
		b.WriteString(s.warning.Render(iconWarning+" "+w.Subject+": "+w.Message) + "\n")
	}
	return b.String()
}
