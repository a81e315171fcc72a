package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/kernel"
)

// coarse keeps marching cubes cheap in tests.
func coarse() *SdfxKernel {
	return &SdfxKernel{MeshCells: 24}
}

func TestBox(t *testing.T) {
	k := coarse()
	box := k.Box(100, 50, 25)
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestBoundingBox(t *testing.T) {
	k := New()
	box := k.Box(100, 50, 25)
	min, max := box.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{-50, -25, -12.5}
	expectMax := [3]float64{50, 25, 12.5}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	box := k.Box(10, 10, 10)
	translated := k.Translate(box, 100, 200, 300)

	min, max := translated.BoundingBox()

	// Translated box(10,10,10) by (100,200,300) should be centered at (100,200,300).
	const tol = 0.5
	expectMin := [3]float64{95, 195, 295}
	expectMax := [3]float64{105, 205, 305}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestUnion(t *testing.T) {
	k := coarse()
	box1 := k.Box(50, 50, 50)
	box2 := k.Translate(k.Box(50, 50, 50), 30, 0, 0)
	u := k.Union(box1, box2)
	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}

func TestIntersectionBoundsOverlap(t *testing.T) {
	k := coarse()
	box1 := k.Box(100, 100, 100)
	box2 := k.Translate(k.Box(100, 100, 100), 50, 0, 0)
	inter := k.Intersection(box1, box2)

	min, max := inter.BoundingBox()
	if math.Abs(min[0]-0) > 0.01 || math.Abs(max[0]-50) > 0.01 {
		t.Errorf("intersection x extent = [%f, %f], want [0, 50]", min[0], max[0])
	}

	mesh, err := k.ToMesh(inter)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("intersection mesh is empty")
	}
}

func TestRegionIsUnbounded(t *testing.T) {
	k := coarse()
	cyl, err := csg.Cylinder(csg.AxisZ, [2]float64{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	r := k.Region(cyl.Inside())
	min, max := r.BoundingBox()
	if !math.IsInf(min[0], -1) || !math.IsInf(max[2], 1) {
		t.Errorf("region bounds = %v %v, want infinite", min, max)
	}

	_, err = k.ToMesh(r)
	if !errors.Is(err, errors.ErrCodeIncompleteRegion) {
		t.Fatalf("ToMesh(unbounded) error = %v, want IncompleteRegion", err)
	}
}

func TestClippedCylinder(t *testing.T) {
	k := coarse()
	cyl, err := csg.Cylinder(csg.AxisZ, [2]float64{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	s := kernel.Clip(k, cyl.Inside(), [3]float64{-12, -12, -20}, [3]float64{12, 12, 20})
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("cylinder mesh is empty")
	}

	// Every vertex lies within the clip box and no further than the radius
	// plus one marching cubes cell from the axis.
	const cell = 40.0 / 24
	for i := 0; i < len(mesh.Vertices); i += 3 {
		x, y, z := float64(mesh.Vertices[i]), float64(mesh.Vertices[i+1]), float64(mesh.Vertices[i+2])
		if r := math.Hypot(x, y); r > 10+cell {
			t.Fatalf("vertex %d at radius %f, want <= %f", i/3, r, 10+cell)
		}
		if math.Abs(z) > 20+cell {
			t.Fatalf("vertex %d at z %f, outside clip box", i/3, z)
		}
	}
}

func TestDisjointIntersectionIsEmpty(t *testing.T) {
	k := coarse()
	a := k.Box(10, 10, 10)
	b := k.Translate(k.Box(10, 10, 10), 100, 0, 0)
	mesh, err := k.ToMesh(k.Intersection(a, b))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if !mesh.IsEmpty() {
		t.Fatalf("disjoint intersection has %d triangles", mesh.TriangleCount())
	}
}
