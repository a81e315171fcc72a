package export

import (
	"bytes"
	"encoding/xml"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/msbr/pkg/config"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/geometry"
)

func buildCore(t *testing.T, cfg config.Config) *geometry.Geometry {
	t.Helper()
	g, err := geometry.Build(cfg, cfg.MaterialProvider())
	require.NoError(t, err)
	return g
}

func exportDoc(t *testing.T, g *geometry.Geometry) (*Document, []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, XML{Indent: "  "}.Export(&buf, g))
	var doc Document
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	return &doc, buf.Bytes()
}

func TestExportReferenceCore(t *testing.T) {
	g := buildCore(t, config.Default())
	doc, raw := exportDoc(t, g)

	assert.True(t, bytes.HasPrefix(raw, []byte(xml.Header)))
	assert.Contains(t, doc.Comment, g.ID.String())

	// two stringer universes of three cells, plus the root cell
	require.Len(t, doc.Cells, 7)
	for i, c := range doc.Cells {
		assert.Equal(t, i+1, c.ID)
	}
	root := doc.Cells[6]
	assert.Equal(t, 0, root.Universe)
	assert.Equal(t, 3, root.Fill)
	assert.Empty(t, root.Material)

	// 11 surfaces per stringer and three on the boundary
	require.Len(t, doc.Surfaces, 25)
	for i, s := range doc.Surfaces {
		assert.Equal(t, i+1, s.ID)
	}

	require.Len(t, doc.Lattices, 1)
	lat := doc.Lattices[0]
	assert.Equal(t, 3, lat.ID)
	assert.Equal(t, "11 11", lat.Dimension)
	assert.Equal(t, "-55.88 -55.88", lat.LowerLeft)
	assert.Equal(t, "10.16 10.16", lat.Pitch)
	assert.Zero(t, lat.Outer)
}

func TestExportRegionSyntax(t *testing.T) {
	doc, _ := exportDoc(t, buildCore(t, config.Default()))

	body := doc.Cells[0]
	assert.Equal(t, "zoneIA body", body.Name)
	assert.Equal(t, "1", body.Material) // graphite is first in the library
	// Cylinder interiors are the solver's negative side.
	assert.Equal(t, "(-1 2) ((3 -4 5 -6) | -7 | -8 | -9 | -10) 11", body.Region)

	bore := doc.Cells[1]
	assert.Equal(t, "2", bore.Material)
	assert.Equal(t, "(-1 2) -11", bore.Region)

	assert.Equal(t, "-23 24 -25", doc.Cells[6].Region)
}

func TestExportSurfaces(t *testing.T) {
	doc, _ := exportDoc(t, buildCore(t, config.Default()))

	byName := make(map[string]Surface)
	for _, s := range doc.Surfaces {
		byName[s.Name] = s
	}

	top := byName["zoneIA top"]
	assert.Equal(t, "z-plane", top.Type)
	assert.Equal(t, "217.17", top.Coeffs)
	assert.Empty(t, top.Boundary)

	left := byName["zoneIA left"]
	assert.Equal(t, "x-plane", left.Type)

	bore := byName["zoneIIA bore"]
	assert.Equal(t, "z-cylinder", bore.Type)
	assert.Equal(t, "0 0 3.302", bore.Coeffs)

	vessel := byName["core vessel"]
	assert.Equal(t, "z-cylinder", vessel.Type)
	assert.Equal(t, "0 0 127", vessel.Coeffs)
	assert.Equal(t, "vacuum", vessel.Boundary)
	assert.Equal(t, "vacuum", byName["core top"].Boundary)
}

func TestExportFacetedPlanes(t *testing.T) {
	doc, _ := exportDoc(t, buildCore(t, config.Faceted()))

	var general int
	for _, s := range doc.Surfaces {
		if s.Type == "plane" {
			general++
			assert.Equal(t, "vacuum", s.Boundary)
			assert.Len(t, strings.Fields(s.Coeffs), 4)
		}
	}
	// The four diagonal cuts are general planes. The straight cuts with a
	// positive unit normal collapse to axis planes.
	assert.Equal(t, 6, general)
}

func TestExportLatticeRows(t *testing.T) {
	doc, _ := exportDoc(t, buildCore(t, config.Default()))

	rows := strings.Split(strings.TrimSpace(doc.Lattices[0].Universes), "\n")
	require.Len(t, rows, 11)
	for r, row := range rows {
		ids := strings.Fields(row)
		require.Len(t, ids, 11)
		for c, id := range ids {
			plus := (r == 5 && c >= 4 && c <= 6) || (c == 5 && (r == 4 || r == 6))
			if plus {
				assert.Equal(t, "2", id, "slot (%d,%d)", r, c)
			} else {
				assert.Equal(t, "1", id, "slot (%d,%d)", r, c)
			}
		}
	}
}

func TestExportOuterUniverse(t *testing.T) {
	cfg := config.Default()
	cfg.Lattice.Outer = config.ZoneIIA
	doc, _ := exportDoc(t, buildCore(t, cfg))
	assert.Equal(t, 2, doc.Lattices[0].Outer)
}

func TestExportIsDeterministic(t *testing.T) {
	cfg := config.Faceted()
	_, a := exportDoc(t, buildCore(t, cfg))
	_, b := exportDoc(t, buildCore(t, cfg))
	assert.Equal(t, string(a), string(b))
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, stderrors.New("disk full")
}

func TestExportFailures(t *testing.T) {
	err := XML{}.Export(failWriter{}, buildCore(t, config.Default()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeExport))
	assert.Contains(t, err.Error(), "disk full")

	err = XML{}.Export(&bytes.Buffer{}, &geometry.Geometry{})
	assert.True(t, errors.Is(err, errors.ErrCodeExport))
}

func TestWriteFile(t *testing.T) {
	g := buildCore(t, config.Default())
	path := filepath.Join(t.TempDir(), "out", "geometry.xml")
	require.NoError(t, WriteFile(XML{Indent: "  "}, path, g))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<geometry>")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	err = WriteFile(XML{}, filepath.Join(blocker, "geometry.xml"), g)
	assert.True(t, errors.Is(err, errors.ErrCodeExport))
}
