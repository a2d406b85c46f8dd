package model

import (
	"sort"

	"github.com/chazu/gany/pkg/array"
	"github.com/chazu/gany/pkg/errors"
)

// Compile-time interface checks.
var (
	_ Patchable = (*PolyMesh)(nil)
	_ Patchable = (*TetraMesh)(nil)
	_ Patchable = (*PointCloud)(nil)
)

// PolyMesh is a triangle mesh.
type PolyMesh struct {
	Block
	triangles []uint32
}

// NewPolyMesh creates a triangle mesh. With no triangle indices the
// vertices are taken to be listed triangle by triangle.
func NewPolyMesh(vertices array.Source, triangles []uint32, opts ...Option) (*PolyMesh, error) {
	m := &PolyMesh{}
	m.init(m, vertices, opts)
	if len(triangles) == 0 {
		triangles = sequentialTriangles(m.VertexCount())
	}
	if err := checkIndices("model.polymesh", "triangle_indices", triangles, 3); err != nil {
		return nil, err
	}
	m.triangles = triangles
	return m, nil
}

// sequentialTriangles returns 0..n-1, dropping a trailing partial
// triangle.
func sequentialTriangles(n int) []uint32 {
	n -= n % 3
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

func checkIndices(op, attr string, idx []uint32, group int) error {
	if len(idx)%group != 0 {
		return errors.New(errors.KindInvalidInput).
			Op(op).
			Path(attr).
			Value(len(idx)).
			Detail("length %d is not a multiple of %d", len(idx), group).
			Build()
	}
	return nil
}

// Spec implements Widget.
func (m *PolyMesh) Spec() Spec { return ganySpec("PolyMeshModel") }

// TriangleIndices returns the flat triangle index list.
func (m *PolyMesh) TriangleIndices() []uint32 { return m.triangles }

// SetTriangleIndices replaces the triangle indices.
func (m *PolyMesh) SetTriangleIndices(idx []uint32) error {
	if err := checkIndices("model.polymesh", "triangle_indices", idx, 3); err != nil {
		return err
	}
	m.triangles = idx
	m.notify("triangle_indices")
	return nil
}

// WireState implements Widget.
func (m *PolyMesh) WireState(enc Encoder) (map[string]any, error) {
	state, err := m.wireState(enc, true)
	if err != nil {
		return nil, err
	}
	if state["triangle_indices"], err = indexWire(m.triangles); err != nil {
		return nil, err
	}
	return state, nil
}

// Refs implements Widget.
func (m *PolyMesh) Refs() []Widget { return m.refs(true) }

// ApplyWire implements Patchable.
func (m *PolyMesh) ApplyWire(attr string, value any) error {
	return applyBlockWire(&m.Block, "model.polymesh", attr, value)
}

func indexWire(idx []uint32) (any, error) {
	return array.Inline(array.New(idx)).Wire()
}

// applyBlockWire handles peer updates of attributes every block shares.
func applyBlockWire(b *Block, op, attr string, value any) error {
	switch attr {
	case "default_color":
		s, ok := value.(string)
		if !ok {
			return errors.InvalidInput(op, value, "default_color must be a string")
		}
		return b.SetDefaultColor(s)
	}
	return errors.InvalidInput(op, attr, "attribute %q is not writable by the peer", attr)
}

// TetraMesh is a tetrahedral mesh. Its triangle indices describe the
// outer skin.
type TetraMesh struct {
	PolyMesh
	tetrahedra []uint32
}

// NewTetraMesh creates a tetrahedral mesh. With no triangle indices the
// skin is derived from the tetrahedra.
func NewTetraMesh(vertices array.Source, triangles, tetrahedra []uint32, opts ...Option) (*TetraMesh, error) {
	if err := checkIndices("model.tetramesh", "tetrahedron_indices", tetrahedra, 4); err != nil {
		return nil, err
	}
	if len(triangles) == 0 {
		triangles = Skin(tetrahedra)
	}
	if err := checkIndices("model.tetramesh", "triangle_indices", triangles, 3); err != nil {
		return nil, err
	}
	m := &TetraMesh{tetrahedra: tetrahedra}
	m.init(m, vertices, opts)
	m.triangles = triangles
	return m, nil
}

// tetraFaces lists the corners of each tetrahedron face, oriented
// outwards for a positively oriented tetrahedron.
var tetraFaces = [4][3]int{{2, 1, 0}, {0, 3, 2}, {1, 3, 0}, {2, 3, 1}}

// Skin returns the boundary triangles of a tetrahedral mesh: the faces
// that belong to exactly one tetrahedron. Faces are ordered by their
// sorted vertex triple and keep the orientation they have in their
// tetrahedron.
func Skin(tetrahedra []uint32) []uint32 {
	type face struct {
		tri   [3]uint32
		count int
	}
	faces := make(map[[3]uint32]*face)
	for t := 0; t+4 <= len(tetrahedra); t += 4 {
		tet := tetrahedra[t : t+4]
		for _, f := range tetraFaces {
			tri := [3]uint32{tet[f[0]], tet[f[1]], tet[f[2]]}
			key := sortedTriple(tri)
			if e, ok := faces[key]; ok {
				e.count++
				continue
			}
			faces[key] = &face{tri: tri, count: 1}
		}
	}

	keys := make([][3]uint32, 0, len(faces))
	for k, f := range faces {
		if f.count == 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})

	out := make([]uint32, 0, len(keys)*3)
	for _, k := range keys {
		out = append(out, faces[k].tri[:]...)
	}
	return out
}

func sortedTriple(t [3]uint32) [3]uint32 {
	if t[0] > t[1] {
		t[0], t[1] = t[1], t[0]
	}
	if t[1] > t[2] {
		t[1], t[2] = t[2], t[1]
	}
	if t[0] > t[1] {
		t[0], t[1] = t[1], t[0]
	}
	return t
}

// Spec implements Widget.
func (m *TetraMesh) Spec() Spec { return ganySpec("TetraMeshModel") }

// TetrahedronIndices returns the flat tetrahedron index list.
func (m *TetraMesh) TetrahedronIndices() []uint32 { return m.tetrahedra }

// SetTetrahedronIndices replaces the tetrahedron indices. The skin is left
// untouched.
func (m *TetraMesh) SetTetrahedronIndices(idx []uint32) error {
	if err := checkIndices("model.tetramesh", "tetrahedron_indices", idx, 4); err != nil {
		return err
	}
	m.tetrahedra = idx
	m.notify("tetrahedron_indices")
	return nil
}

// WireState implements Widget.
func (m *TetraMesh) WireState(enc Encoder) (map[string]any, error) {
	state, err := m.PolyMesh.WireState(enc)
	if err != nil {
		return nil, err
	}
	if state["tetrahedron_indices"], err = indexWire(m.tetrahedra); err != nil {
		return nil, err
	}
	return state, nil
}

// PointCloud is a set of independent points.
type PointCloud struct {
	Block
}

// NewPointCloud creates a point cloud.
func NewPointCloud(vertices array.Source, opts ...Option) *PointCloud {
	p := &PointCloud{}
	p.init(p, vertices, opts)
	return p
}

// Spec implements Widget.
func (p *PointCloud) Spec() Spec { return ganySpec("PointCloudModel") }

// WireState implements Widget.
func (p *PointCloud) WireState(enc Encoder) (map[string]any, error) {
	return p.wireState(enc, true)
}

// Refs implements Widget.
func (p *PointCloud) Refs() []Widget { return p.refs(true) }

// ApplyWire implements Patchable.
func (p *PointCloud) ApplyWire(attr string, value any) error {
	return applyBlockWire(&p.Block, "model.pointcloud", attr, value)
}
