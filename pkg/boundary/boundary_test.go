package boundary

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/errors"
)

const (
	top    = 217.17
	bottom = -217.17
	radius = 127.0
)

func TestCircularMatchesFacetedWithOnlyCylinder(t *testing.T) {
	circ, err := Compose(Config{Style: Circular, Top: top, Bottom: bottom, Radius: radius})
	require.NoError(t, err)
	fac, err := Compose(Config{Style: Faceted, Top: top, Bottom: bottom, Radius: radius})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50000; i++ {
		p := csg.Vec3{
			X: (rng.Float64() - 0.5) * 3 * radius,
			Y: (rng.Float64() - 0.5) * 3 * radius,
			Z: (rng.Float64() - 0.5) * 3 * top,
		}
		require.Equal(t, circ.Contains(p), fac.Contains(p), "point %v", p)
	}
}

func TestCircularRegion(t *testing.T) {
	r, err := Compose(Config{Style: Circular, Top: top, Bottom: bottom, Radius: radius})
	require.NoError(t, err)

	tests := []struct {
		name string
		pt   csg.Vec3
		want bool
	}{
		{"centre", csg.Vec3{}, true},
		{"near rim", csg.Vec3{X: 126, Z: 100}, true},
		{"beyond rim", csg.Vec3{X: 90, Y: 90}, false},
		{"above top", csg.Vec3{Z: top + 1}, false},
		{"below bottom", csg.Vec3{Z: bottom - 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(tt.pt))
		})
	}
}

func TestFacetedCuts(t *testing.T) {
	r, err := Compose(Config{Style: Faceted, Top: top, Bottom: bottom, Radius: radius, Diagonal: 100, Straight: 80})
	require.NoError(t, err)

	tests := []struct {
		name string
		pt   csg.Vec3
		want bool
	}{
		{"centre", csg.Vec3{}, true},
		{"inside straight cut", csg.Vec3{X: 79}, true},
		{"outside straight cut", csg.Vec3{X: 81}, false},
		{"outside negative straight cut", csg.Vec3{Y: -81}, false},
		{"inside diagonal cut", csg.Vec3{X: 70, Y: 70}, true},
		{"outside diagonal cut", csg.Vec3{X: 72, Y: 72}, false},
		{"outside opposite diagonal", csg.Vec3{X: -72, Y: -72}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(tt.pt))
		})
	}
}

func TestSurfacesAreVacuum(t *testing.T) {
	for _, cfg := range []Config{
		{Style: Circular, Top: top, Bottom: bottom, Radius: radius},
		{Style: Faceted, Top: top, Bottom: bottom, Radius: radius, Diagonal: 100, Straight: 80},
	} {
		r, err := Compose(cfg)
		require.NoError(t, err)
		surfaces := csg.Surfaces(r)
		assert.NotEmpty(t, surfaces)
		for _, s := range surfaces {
			assert.Equal(t, csg.Vacuum, s.Boundary(), s.Name())
			assert.NotEmpty(t, s.Name())
		}
	}
}

func TestFacetedSurfaceCount(t *testing.T) {
	r, err := Compose(Config{Style: Faceted, Top: top, Bottom: bottom, Diagonal: 100})
	require.NoError(t, err)
	// two axial planes and four diagonal cuts
	assert.Len(t, csg.Surfaces(r), 6)

	r, err = Compose(Config{Style: Faceted, Top: top, Bottom: bottom, Radius: radius, Diagonal: 100, Straight: 80})
	require.NoError(t, err)
	assert.Len(t, csg.Surfaces(r), 11)
}

func TestComposeErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code errors.Code
	}{
		{"empty style", Config{Top: top, Bottom: bottom, Radius: radius}, errors.ErrCodeConfiguration},
		{"unknown style", Config{Style: "hexagonal", Top: top, Bottom: bottom, Radius: radius}, errors.ErrCodeConfiguration},
		{"inverted axial bounds", Config{Style: Circular, Top: bottom, Bottom: top, Radius: radius}, errors.ErrCodeConfiguration},
		{"circular without radius", Config{Style: Circular, Top: top, Bottom: bottom}, errors.ErrCodeConfiguration},
		{"circular with cuts", Config{Style: Circular, Top: top, Bottom: bottom, Radius: radius, Straight: 10}, errors.ErrCodeConfiguration},
		{"faceted with nothing", Config{Style: Faceted, Top: top, Bottom: bottom}, errors.ErrCodeConfiguration},
		{"negative diagonal", Config{Style: Faceted, Top: top, Bottom: bottom, Diagonal: -1}, errors.ErrCodeConfiguration},
		{"non-finite radius", Config{Style: Circular, Top: top, Bottom: bottom, Radius: math.Inf(1)}, errors.ErrCodeConfiguration},
		{"stepped", Config{Style: Stepped, Top: top, Bottom: bottom, Radius: radius}, errors.ErrCodeIncompleteRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compose(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.Equal(t, tt.code, errors.GetCode(err), "got %v", err)
		})
	}
}

func TestSteppedIsNotImplemented(t *testing.T) {
	_, err := Compose(Config{Style: Stepped, Top: top, Bottom: bottom})
	assert.ErrorIs(t, err, errors.ErrNotImplemented)
}

func TestReach(t *testing.T) {
	assert.Equal(t, radius, Reach(Config{Style: Circular, Radius: radius}))
	assert.InDelta(t, 80*math.Sqrt2, Reach(Config{Style: Faceted, Radius: radius, Straight: 80}), 1e-9)
	assert.True(t, math.IsInf(Reach(Config{Style: Stepped}), 1))
}
