//go:build manifold

package manifold

import (
	"math"
	"testing"
)

func TestVertexNormals(t *testing.T) {
	// Two triangles of the z=0 plane sharing an edge.
	vertices := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0}
	indices := []uint32{0, 1, 2, 1, 3, 2}
	n := vertexNormals(vertices, indices)
	for i := 0; i < 4; i++ {
		if math.Abs(float64(n[i*3+2])-1) > 1e-6 {
			t.Errorf("normal %d = %v, want +Z", i, n[i*3:i*3+3])
		}
	}
}
