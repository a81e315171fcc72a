package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/material"
)

func TestPresetsValidate(t *testing.T) {
	for _, name := range []string{"default", "circular", "faceted", ""} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Preset(name)
			require.NoError(t, err)
			assert.NoError(t, cfg.Validate())
		})
	}

	_, err := Preset("hexagonal")
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

func TestDefaultMatchesReferenceCore(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 11, cfg.Lattice.Rows)
	assert.Equal(t, 11, cfg.Lattice.Cols)
	assert.InDelta(t, -4*2.54*5.5, cfg.Lattice.Origin[0]*cfg.Scale, 1e-9)
	assert.Len(t, cfg.Lattice.Overrides, 5)
	assert.Equal(t, "circular", cfg.Boundary.Style)
	assert.InDelta(t, 127.0, cfg.Boundary.Radius*cfg.Scale, 1e-9)
	assert.Equal(t, [2]int{512, 512}, cfg.Plot.Pixels)

	top, bottom := cfg.AxialBounds()
	assert.Equal(t, 85.5, top)
	assert.Equal(t, -85.5, bottom)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing style", func(c *Config) { c.Boundary.Style = "" }, "Boundary.Style"},
		{"unknown style", func(c *Config) { c.Boundary.Style = "round" }, "Boundary.Style"},
		{"zero pitch", func(c *Config) { c.Lattice.Pitch[1] = 0 }, "Lattice.Pitch[1]"},
		{"zero rows", func(c *Config) { c.Lattice.Rows = 0 }, "Lattice.Rows"},
		{"negative override row", func(c *Config) { c.Lattice.Overrides[0].Row = -1 }, "Lattice.Overrides[0].Row"},
		{"zero scale", func(c *Config) { c.Scale = 0 }, "Config.Scale"},
		{"dot wider than side", func(c *Config) { c.Stringer.DotRadius = 4 }, "Stringer.DotRadius"},
		{"colour by density", func(c *Config) { c.Plot.ColorBy = "density" }, "Plot.ColorBy"},
		{"empty zone", func(c *Config) { c.Zones = []string{""} }, "Zones[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestMaterialProvider(t *testing.T) {
	cfg := Default()
	lib, err := material.Load(cfg.MaterialProvider())
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())

	cfg.Materials = []material.Material{{Name: material.Salt}}
	lib, err = material.Load(cfg.MaterialProvider())
	require.NoError(t, err)
	_, err = lib.Lookup(material.Graphite)
	assert.True(t, errors.Is(err, errors.ErrCodeMissingMaterial))
}

const tomlDoc = `
name = "small"

[lattice]
rows = 3
cols = 3
default = "zoneIIA"

[[lattice.overrides]]
row = 1
col = 1
universe = "zoneIA"

[boundary]
style = "faceted"
radius = 0
straight = 6
`

const yamlDoc = `
name: small
lattice:
  rows: 3
  cols: 3
  default: zoneIIA
  overrides:
    - row: 1
      col: 1
      universe: zoneIA
boundary:
  style: faceted
  radius: 0
  straight: 6
`

func TestParseOverDefaults(t *testing.T) {
	for _, tt := range []struct {
		ext, doc string
	}{
		{".toml", tomlDoc},
		{".yaml", yamlDoc},
		{".yml", yamlDoc},
	} {
		t.Run(tt.ext, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.doc), tt.ext)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())

			assert.Equal(t, "small", cfg.Name)
			assert.Equal(t, 3, cfg.Lattice.Rows)
			assert.Equal(t, []Override{{Row: 1, Col: 1, Universe: ZoneIA}}, cfg.Lattice.Overrides)
			assert.Equal(t, "faceted", cfg.Boundary.Style)
			assert.Zero(t, cfg.Boundary.Radius)
			assert.Equal(t, 6.0, cfg.Boundary.Straight)

			// untouched sections keep the defaults
			assert.Equal(t, 2.54, cfg.Scale)
			assert.Equal(t, [2]float64{4, 4}, cfg.Lattice.Pitch)
			assert.Equal(t, "geometry.xml", cfg.Output.Geometry)
		})
	}
}

func TestParseKeepsDefaultOverridesWhenAbsent(t *testing.T) {
	cfg, err := Parse([]byte("name = \"x\"\n"), ".toml")
	require.NoError(t, err)
	assert.Len(t, cfg.Lattice.Overrides, 5)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("name = "), ".toml")
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))

	_, err = Parse([]byte("{}"), ".ini")
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "core.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "small", cfg.Name)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

func TestMarshalParse(t *testing.T) {
	for _, ext := range []string{".toml", ".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			data, err := Marshal(Faceted(), ext)
			require.NoError(t, err)
			cfg, err := Parse(data, ext)
			require.NoError(t, err)
			assert.Equal(t, Faceted(), cfg)
		})
	}
}

func TestOutputPaths(t *testing.T) {
	o := Output{Dir: "out", Geometry: "geometry.xml", Plot: "plot.png"}
	assert.Equal(t, filepath.Join("out", "geometry.xml"), o.GeometryPath())
	assert.Equal(t, filepath.Join("out", "plot.png"), o.PlotPath())
}
