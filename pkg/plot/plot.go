// Package plot rasterizes a cross-section of a built geometry, colouring
// each pixel by the material or the cell found at its centre.
package plot

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/geometry"
	"github.com/chazu/msbr/pkg/universe"
)

// ColorBy selects what distinguishes pixel colours.
type ColorBy string

const (
	ByMaterial ColorBy = "material"
	ByCell     ColorBy = "cell"
)

// Palette is used for cells, and for materials without a colour.
var Palette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Background fills pixels outside the core or in void.
var Background = color.White

// Config describes an xy slice. Width and Origin are in centimetres; Origin
// is the centre of the image and its z picks the slice.
type Config struct {
	Width   [2]float64
	Pixels  [2]int
	Origin  csg.Vec3
	ColorBy ColorBy
	Outline bool // darken pixels where the cell changes
}

// DefaultConfig is a 100 cm square slice at z=0, 512 pixels a side,
// coloured by material.
func DefaultConfig() Config {
	return Config{
		Width:   [2]float64{100, 100},
		Pixels:  [2]int{512, 512},
		ColorBy: ByMaterial,
	}
}

func (c Config) validate() error {
	for _, w := range c.Width {
		if !(w > 0) || math.IsInf(w, 0) {
			return errors.New(errors.ErrCodeConfiguration, "plot width must be positive, got %v", c.Width)
		}
	}
	for _, p := range c.Pixels {
		if p <= 0 {
			return errors.New(errors.ErrCodeConfiguration, "plot pixels must be positive, got %v", c.Pixels)
		}
	}
	switch c.ColorBy {
	case ByMaterial, ByCell:
	default:
		return errors.New(errors.ErrCodeConfiguration, "unknown plot colouring %q", c.ColorBy)
	}
	return nil
}

// Plotter draws a geometry to w.
type Plotter interface {
	Plot(w io.Writer, g *geometry.Geometry) error
}

// PNG renders a slice and encodes it as PNG.
type PNG struct {
	Config Config
}

// Plot implements Plotter.
func (p PNG) Plot(w io.Writer, g *geometry.Geometry) error {
	dc, err := render(g, p.Config)
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return errors.Wrap(errors.ErrCodePlot, err, "encode plot")
	}
	return nil
}

// Render returns the raster for g.
func Render(g *geometry.Geometry, cfg Config) (image.Image, error) {
	dc, err := render(g, cfg)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func render(g *geometry.Geometry, cfg Config) (*gg.Context, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if g == nil || g.Lattice == nil || g.Root.Region == nil {
		return nil, errors.New(errors.ErrCodePlot, "geometry is not assembled")
	}
	colors, err := colorTable(g, cfg.ColorBy)
	if err != nil {
		return nil, err
	}

	w, h := cfg.Pixels[0], cfg.Pixels[1]
	dc := gg.NewContext(w, h)
	dc.SetColor(Background)
	dc.Clear()

	dx := cfg.Width[0] / float64(w)
	dy := cfg.Width[1] / float64(h)
	x0 := cfg.Origin.X - cfg.Width[0]/2
	y0 := cfg.Origin.Y + cfg.Width[1]/2

	// Only the previous row is kept for outlines.
	prev := make([]*universe.Cell, w)
	cur := make([]*universe.Cell, w)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			p := csg.Vec3{
				X: x0 + (float64(i)+0.5)*dx,
				Y: y0 - (float64(j)+0.5)*dy, // image rows run downwards
				Z: cfg.Origin.Z,
			}
			cur[i] = nil
			hit, ok := g.Find(p)
			if !ok {
				continue
			}
			cur[i] = hit.Cell
			c := colors.of(hit.Cell)
			if cfg.Outline && edge(cur, prev, i, j) {
				c = c.BlendLab(colorful.Color{}, 0.6)
			}
			dc.SetColor(c)
			dc.SetPixel(i, j)
		}
		prev, cur = cur, prev
	}
	return dc, nil
}

func edge(cur, prev []*universe.Cell, i, j int) bool {
	if i > 0 && cur[i-1] != cur[i] {
		return true
	}
	return j > 0 && prev[i] != cur[i]
}

// colors maps cells to pixel colours.
type colors map[*universe.Cell]colorful.Color

func (c colors) of(cell *universe.Cell) colorful.Color {
	return c[cell]
}

// colorTable assigns a colour to every cell the geometry places. Cells take
// palette entries in placement order; materials use their own colour when
// they have one.
func colorTable(g *geometry.Geometry, by ColorBy) (colors, error) {
	palette := make([]colorful.Color, len(Palette))
	for i, hex := range Palette {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "palette entry %d", i)
		}
		palette[i] = c
	}

	byMaterial := make(map[string]colorful.Color)
	for i, m := range g.Materials.All() {
		c := palette[i%len(palette)]
		if m.Color != "" {
			parsed, err := colorful.Hex(m.Color)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "material %s colour %q", m.Name, m.Color)
			}
			c = parsed
		}
		byMaterial[m.Name] = c
	}

	out := make(colors)
	n := 0
	for _, u := range g.Universes() {
		for k := range u.Cells {
			cell := &u.Cells[k]
			if by == ByCell {
				out[cell] = palette[n%len(palette)]
			} else {
				out[cell] = byMaterial[cell.Material.Name]
			}
			n++
		}
	}
	return out, nil
}

// WriteFile plots g to path, creating parent directories.
func WriteFile(p Plotter, path string, g *geometry.Geometry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodePlot, err, "create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodePlot, err, "create %s", path)
	}
	if err := p.Plot(f, g); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodePlot, err, "close %s", path)
	}
	return nil
}

// Legend lists the colour of every placed material, in placement order.
func Legend(g *geometry.Geometry) ([]string, error) {
	table, err := colorTable(g, ByMaterial)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, u := range g.Universes() {
		for k := range u.Cells {
			cell := &u.Cells[k]
			if seen[cell.Material.Name] {
				continue
			}
			seen[cell.Material.Name] = true
			out = append(out, fmt.Sprintf("%s %s", cell.Material.Name, table.of(cell).Hex()))
		}
	}
	return out, nil
}
