package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/gany/pkg/kernel"
)

func mustSolid(t *testing.T) func(kernel.Solid, error) kernel.Solid {
	return func(s kernel.Solid, err error) kernel.Solid {
		t.Helper()
		if err != nil {
			t.Fatalf("primitive failed: %v", err)
		}
		return s
	}
}

func TestBox(t *testing.T) {
	k := New(WithMeshCells(32))
	box := mustSolid(t)(k.Box(100, 50, 25))
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
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestSphere(t *testing.T) {
	k := New(WithMeshCells(24))
	sphere := mustSolid(t)(k.Sphere(10))
	min, max := sphere.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]+10) > 0.01 || math.Abs(max[i]-10) > 0.01 {
			t.Errorf("axis %d bounds = [%f, %f], want [-10, 10]", i, min[i], max[i])
		}
	}
	mesh, err := k.ToMesh(sphere)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	for i := 0; i < mesh.VertexCount(); i++ {
		x, y, z := mesh.Vertices[3*i], mesh.Vertices[3*i+1], mesh.Vertices[3*i+2]
		r := math.Sqrt(float64(x*x + y*y + z*z))
		if math.Abs(r-10) > 1 {
			t.Fatalf("vertex %d at radius %f, want ~10", i, r)
		}
	}
}

func TestInvalidPrimitives(t *testing.T) {
	k := New()
	if _, err := k.Sphere(-1); err == nil {
		t.Error("Sphere(-1) should fail")
	}
	if _, err := k.Box(-1, 1, 1); err == nil {
		t.Error("Box(-1, 1, 1) should fail")
	}
	if _, err := k.Cylinder(10, -2); err == nil {
		t.Error("Cylinder(10, -2) should fail")
	}
}

func TestMeshCellsOption(t *testing.T) {
	if got := New().MeshCells(); got != DefaultMeshCells {
		t.Errorf("default MeshCells() = %d, want %d", got, DefaultMeshCells)
	}
	if got := New(WithMeshCells(0)).MeshCells(); got != DefaultMeshCells {
		t.Errorf("WithMeshCells(0) MeshCells() = %d, want %d", got, DefaultMeshCells)
	}
	if got := New(WithMeshCells(10)).MeshCells(); got != 10 {
		t.Errorf("WithMeshCells(10) MeshCells() = %d, want 10", got)
	}
}

func TestDifference(t *testing.T) {
	k := New(WithMeshCells(48))
	box := mustSolid(t)(k.Box(100, 100, 100))
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}

	cyl := mustSolid(t)(k.Cylinder(120, 20))
	diffMesh, err := k.ToMesh(k.Difference(box, cyl))
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	if diffMesh.IsEmpty() {
		t.Fatal("difference mesh is empty")
	}
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
}

func TestUnion(t *testing.T) {
	k := New(WithMeshCells(32))
	box1 := mustSolid(t)(k.Box(50, 50, 50))
	box2 := k.Translate(mustSolid(t)(k.Box(50, 50, 50)), 30, 0, 0)
	u := k.Union(box1, box2)

	min, max := u.BoundingBox()
	if math.Abs(min[0]+25) > 0.5 || math.Abs(max[0]-55) > 0.5 {
		t.Errorf("union X bounds = [%f, %f], want [-25, 55]", min[0], max[0])
	}
	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(10, 10, 10))
	translated := k.Translate(box, 100, 200, 300)

	min, max := translated.BoundingBox()

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

func TestBoundingBox(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(100, 50, 25))
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

func TestIntersection(t *testing.T) {
	k := New(WithMeshCells(32))
	box1 := mustSolid(t)(k.Box(100, 100, 100))
	box2 := k.Translate(mustSolid(t)(k.Box(100, 100, 100)), 50, 0, 0)
	mesh, err := k.ToMesh(k.Intersection(box1, box2))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("intersection mesh is empty")
	}
}

func TestRotate(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(100, 10, 10))

	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	rotated := k.Rotate(box, 0, 0, 90)
	min, max := rotated.BoundingBox()

	xExtent := max[0] - min[0]
	yExtent := max[1] - min[1]

	const tol = 1.0
	if math.Abs(xExtent-10) > tol {
		t.Errorf("rotated X extent = %f, expected ~10", xExtent)
	}
	if math.Abs(yExtent-100) > tol {
		t.Errorf("rotated Y extent = %f, expected ~100", yExtent)
	}
}

func TestEnvironmentMesh(t *testing.T) {
	k := New(WithMeshCells(16))
	floor := mustSolid(t)(k.Box(20, 20, 1))
	mesh, err := k.ToMesh(floor)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	pm, err := mesh.ToPolyMesh()
	if err != nil {
		t.Fatalf("ToPolyMesh failed: %v", err)
	}
	if pm.VertexCount() != mesh.VertexCount() {
		t.Errorf("PolyMesh has %d vertices, mesh has %d", pm.VertexCount(), mesh.VertexCount())
	}
	if _, err := pm.DataNamed(kernel.NormalsData); err != nil {
		t.Errorf("normals data missing: %v", err)
	}
}
