package kernel

import (
	"github.com/chazu/gany/pkg/array"
	"github.com/chazu/gany/pkg/errors"
	"github.com/chazu/gany/pkg/model"
)

// NormalsData is the name of the Data carrying per-vertex normals on
// meshes built by ToPolyMesh.
const NormalsData = "normals"

// Mesh is a triangle mesh as produced by a kernel.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// ToPolyMesh converts m into a PolyMesh widget. When the mesh carries one
// normal per vertex they are attached as a three component Data named
// "normals" (nx, ny, nz), ahead of any Data passed through opts.
func (m *Mesh) ToPolyMesh(opts ...model.Option) (*model.PolyMesh, error) {
	if m.IsEmpty() {
		return nil, errors.New(errors.KindNoVertices).
			Op("kernel.polymesh").
			Path(m.Name).
			Detail("solid produced an empty mesh").
			Build()
	}
	if len(m.Normals) == len(m.Vertices) {
		opts = append([]model.Option{model.WithData(m.normals())}, opts...)
	}
	return model.NewPolyMesh(array.Inline(array.New(m.Vertices)), m.Indices, opts...)
}

func (m *Mesh) normals() *model.Data {
	n := m.VertexCount()
	nx := make([]float32, n)
	ny := make([]float32, n)
	nz := make([]float32, n)
	for i := 0; i < n; i++ {
		nx[i] = m.Normals[3*i]
		ny[i] = m.Normals[3*i+1]
		nz[i] = m.Normals[3*i+2]
	}
	return model.NewData(NormalsData,
		model.NewComponentValues("nx", nx),
		model.NewComponentValues("ny", ny),
		model.NewComponentValues("nz", nz),
	)
}
