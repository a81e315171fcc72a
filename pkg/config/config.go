// Package config holds the description of one core build: stringer
// dimensions, lattice layout, boundary outline, materials and the export and
// plot settings.
//
// Lengths are in input units and converted to centimetres with Scale when
// the geometry is assembled. Configs load from TOML or YAML files, or are
// produced by a core script (see pkg/engine).
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/material"
)

// Config describes one core build.
type Config struct {
	Name  string  `toml:"name" yaml:"name" json:"name" validate:"required"`
	Scale float64 `toml:"scale" yaml:"scale" json:"scale" validate:"gt=0"` // centimetres per input unit

	Stringer Stringer `toml:"stringer" yaml:"stringer" json:"stringer"`
	Lattice  Lattice  `toml:"lattice" yaml:"lattice" json:"lattice"`
	Boundary Boundary `toml:"boundary" yaml:"boundary" json:"boundary"`

	// Zones lists extra moderation zones to compose around the lattice.
	Zones []string `toml:"zones" yaml:"zones" json:"zones,omitempty" validate:"dive,required"`

	// Materials replaces the built-in graphite and salt definitions when set.
	Materials []material.Material `toml:"materials" yaml:"materials" json:"materials,omitempty" validate:"dive"`

	Plot   Plot   `toml:"plot" yaml:"plot" json:"plot"`
	Output Output `toml:"output" yaml:"output" json:"output"`
}

// Stringer holds the shared stringer dimensions.
type Stringer struct {
	Length    float64 `toml:"length" yaml:"length" json:"length" validate:"gt=0"`
	Side      float64 `toml:"side" yaml:"side" json:"side" validate:"gt=0"`
	DotRadius float64 `toml:"dot_radius" yaml:"dot_radius" json:"dot_radius" validate:"gt=0,ltfield=Side"`
}

// Override places a named universe at one lattice slot.
type Override struct {
	Row      int    `toml:"row" yaml:"row" json:"row" validate:"gte=0"`
	Col      int    `toml:"col" yaml:"col" json:"col" validate:"gte=0"`
	Universe string `toml:"universe" yaml:"universe" json:"universe" validate:"required"`
}

// Lattice describes the stringer grid. Row 0 is the top row.
type Lattice struct {
	Origin    [2]float64 `toml:"origin" yaml:"origin" json:"origin"` // lower-left corner
	Pitch     [2]float64 `toml:"pitch" yaml:"pitch" json:"pitch" validate:"dive,gt=0"`
	Rows      int        `toml:"rows" yaml:"rows" json:"rows" validate:"gt=0"`
	Cols      int        `toml:"cols" yaml:"cols" json:"cols" validate:"gt=0"`
	Default   string     `toml:"default" yaml:"default" json:"default" validate:"required"`
	Overrides []Override `toml:"overrides" yaml:"overrides" json:"overrides,omitempty" validate:"dive"`

	// Outer fills the space inside the boundary but outside the grid.
	// Empty means void.
	Outer string `toml:"outer" yaml:"outer" json:"outer,omitempty"`
}

// Boundary describes the core outline. Top and Bottom default to the
// stringer ends when both are zero.
type Boundary struct {
	Style    string  `toml:"style" yaml:"style" json:"style" validate:"required,oneof=circular faceted stepped"`
	Top      float64 `toml:"top" yaml:"top" json:"top,omitempty"`
	Bottom   float64 `toml:"bottom" yaml:"bottom" json:"bottom,omitempty"`
	Radius   float64 `toml:"radius" yaml:"radius" json:"radius,omitempty" validate:"gte=0"`
	Diagonal float64 `toml:"diagonal" yaml:"diagonal" json:"diagonal,omitempty" validate:"gte=0"`
	Straight float64 `toml:"straight" yaml:"straight" json:"straight,omitempty" validate:"gte=0"`
}

// Plot configures the cross-section raster. Width and Origin are in
// centimetres.
type Plot struct {
	Width   [2]float64 `toml:"width" yaml:"width" json:"width" validate:"dive,gt=0"`
	Pixels  [2]int     `toml:"pixels" yaml:"pixels" json:"pixels" validate:"dive,gt=0,lte=8192"`
	Origin  [3]float64 `toml:"origin" yaml:"origin" json:"origin"`
	ColorBy string     `toml:"color_by" yaml:"color_by" json:"color_by" validate:"oneof=material cell"`
}

// Output names the files written by build-and-plot.
type Output struct {
	Dir      string `toml:"dir" yaml:"dir" json:"dir"`
	Geometry string `toml:"geometry" yaml:"geometry" json:"geometry" validate:"required"`
	Plot     string `toml:"plot" yaml:"plot" json:"plot" validate:"required"`
}

// GeometryPath returns the export destination.
func (o Output) GeometryPath() string {
	return filepath.Join(o.Dir, o.Geometry)
}

// PlotPath returns the plot destination.
func (o Output) PlotPath() string {
	return filepath.Join(o.Dir, o.Plot)
}

// Universe names understood by the geometry builder.
const (
	ZoneIA  = "zoneIA"
	ZoneIIA = "zoneIIA"
	// Radially graded moderation zones with no geometry yet.
	ZoneIIB   = "zoneIIB"
	ZoneIAIIB = "zoneIA-IIB"
)

// Default returns the reference core: an 11×11 lattice of zone IA stringers
// with a plus of zone IIA stringers at the centre, clipped by a 50 inch
// vacuum cylinder.
func Default() Config {
	return Config{
		Name:  "msbr",
		Scale: 2.54,
		Stringer: Stringer{
			Length:    171,
			Side:      3.9,
			DotRadius: 0.1,
		},
		Lattice: Lattice{
			Origin:  [2]float64{-4 * 5.5, -4 * 5.5},
			Pitch:   [2]float64{4, 4},
			Rows:    11,
			Cols:    11,
			Default: ZoneIA,
			Overrides: []Override{
				{Row: 5, Col: 5, Universe: ZoneIIA},
				{Row: 4, Col: 5, Universe: ZoneIIA},
				{Row: 5, Col: 4, Universe: ZoneIIA},
				{Row: 6, Col: 5, Universe: ZoneIIA},
				{Row: 5, Col: 6, Universe: ZoneIIA},
			},
		},
		Boundary: Boundary{
			Style:  "circular",
			Radius: 50,
		},
		Plot: Plot{
			Width:   [2]float64{100, 100},
			Pixels:  [2]int{512, 512},
			ColorBy: "material",
		},
		Output: Output{
			Dir:      ".",
			Geometry: "geometry.xml",
			Plot:     "plot.png",
		},
	}
}

// Circular is the reference core with the circular boundary.
func Circular() Config {
	return Default()
}

// Faceted is the reference core clipped by a faceted outline: the vessel
// cylinder plus diagonal and straight cuts around the lattice.
func Faceted() Config {
	c := Default()
	c.Name = "msbr-faceted"
	c.Boundary = Boundary{
		Style:    "faceted",
		Radius:   50,
		Diagonal: 28,
		Straight: 22,
	}
	return c
}

// Preset returns a named preset.
func Preset(name string) (Config, error) {
	switch name {
	case "", "default", "circular":
		return Circular(), nil
	case "faceted":
		return Faceted(), nil
	}
	return Config{}, errors.New(errors.ErrCodeConfiguration, "unknown preset %q", name)
}

// MaterialProvider returns the provider for the configured materials, or the
// built-in one when none are listed.
func (c Config) MaterialProvider() material.Provider {
	if len(c.Materials) == 0 {
		return material.MSBR()
	}
	return material.Static(c.Materials)
}

// AxialBounds returns the boundary's top and bottom in input units.
func (c Config) AxialBounds() (top, bottom float64) {
	if c.Boundary.Top == 0 && c.Boundary.Bottom == 0 {
		return c.Stringer.Length / 2, -c.Stringer.Length / 2
	}
	return c.Boundary.Top, c.Boundary.Bottom
}

var validate = validator.New()

// Validate checks field constraints and returns a ConfigurationError
// naming every failing field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeConfiguration, err, "invalid config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s%s", fe.Namespace(), fe.Tag(), param(fe.Param())))
	}
	return errors.New(errors.ErrCodeConfiguration, "invalid config: %s", strings.Join(msgs, "; "))
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

// Load reads a config file. The format follows the extension: .toml, .yaml,
// .yml or .json. Fields absent from the file keep their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfiguration, err, "read config")
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext over the defaults.
func Parse(data []byte, ext string) (Config, error) {
	cfg := Default()
	// Lists replace the defaults rather than merging into them.
	var probe map[string]any
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(data, &probe)
		if err == nil {
			clearListed(&cfg, probe)
			err = toml.Unmarshal(data, &cfg)
		}
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &probe)
		if err == nil {
			clearListed(&cfg, probe)
			err = yaml.Unmarshal(data, &cfg)
		}
	case ".json":
		err = json.Unmarshal(data, &probe)
		if err == nil {
			clearListed(&cfg, probe)
			err = json.Unmarshal(data, &cfg)
		}
	default:
		return Config{}, errors.New(errors.ErrCodeConfiguration, "unsupported config format %q", ext)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfiguration, err, "decode config")
	}
	return cfg, nil
}

// clearListed drops default overrides when the document sets its own.
func clearListed(cfg *Config, doc map[string]any) {
	lat, ok := doc["lattice"].(map[string]any)
	if !ok {
		return
	}
	if _, ok := lat["overrides"]; ok {
		cfg.Lattice.Overrides = nil
	}
}

// Marshal encodes cfg in the format named by ext.
func Marshal(cfg Config, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "encode config")
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	case ".json":
		return json.MarshalIndent(cfg, "", "  ")
	}
	return nil, errors.New(errors.ErrCodeConfiguration, "unsupported config format %q", ext)
}
