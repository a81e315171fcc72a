package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/material"
)

func TestFindFirstMatch(t *testing.T) {
	cyl, err := csg.Cylinder(csg.AxisZ, [2]float64{}, 1)
	require.NoError(t, err)
	salt := &material.Material{Name: material.Salt}
	graphite := &material.Material{Name: material.Graphite}

	u := New("pin", []Cell{
		{Name: "fuel", Region: cyl.Inside(), Material: salt},
		{Name: "moderator", Region: cyl.Outside(), Material: graphite},
	})

	c, ok := u.Find(csg.Vec3{X: 0.5})
	require.True(t, ok)
	assert.Equal(t, "fuel", c.Name)

	c, ok = u.Find(csg.Vec3{X: 3})
	require.True(t, ok)
	assert.Same(t, graphite, c.Material)

	_, ok = u.Find(csg.Vec3{X: 1})
	assert.False(t, ok, "point on the surface belongs to no cell")
}

func TestValidate(t *testing.T) {
	cyl, err := csg.Cylinder(csg.AxisZ, [2]float64{}, 1)
	require.NoError(t, err)
	salt := &material.Material{Name: material.Salt}

	assert.NoError(t, New("ok", []Cell{{Name: "c", Region: cyl.Inside(), Material: salt}}).Validate())
	assert.Error(t, New("empty", nil).Validate())
	assert.Error(t, New("nomat", []Cell{{Name: "c", Region: cyl.Inside()}}).Validate())

	err = New("bad", []Cell{{Name: "c", Region: csg.Intersect(), Material: salt}}).Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeIncompleteRegion))
}
