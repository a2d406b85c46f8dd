package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/gany/pkg/array"
	"github.com/chazu/gany/pkg/errors"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func vertices() array.Source {
	return array.Inline(array.New([]float64{
		0, 0, 0,
		0, 0, 0,
		0, 0, 0,
	}))
}

func data1D() *Data {
	return NewData("1d", NewComponentValues("x", []float64{0, 0, 0}))
}

func data3D() *Data {
	return NewData("3d",
		NewComponentValues("x", []float64{1, 1, 1}),
		NewComponentValues("y", []float64{2, 2, 2}),
		NewComponentValues("z", []float64{3, 3, 3}),
	)
}

func newMesh(t *testing.T, data ...*Data) *PolyMesh {
	t.Helper()
	m, err := NewPolyMesh(vertices(), []uint32{0, 1, 2}, WithData(data...))
	require.NoError(t, err)
	return m
}

// refEncoder hands out sequential references.
type refEncoder struct {
	ids map[Widget]string
}

func (e *refEncoder) Ref(w Widget) (string, error) {
	if e.ids == nil {
		e.ids = make(map[Widget]string)
	}
	if id, ok := e.ids[w]; ok {
		return id, nil
	}
	id := fmt.Sprintf("IPY_MODEL_%d", len(e.ids))
	e.ids[w] = id
	return id, nil
}

type change struct {
	model string
	attrs []string
}

// recordingObserver records changes and counts flushes.
type recordingObserver struct {
	changes []change
	holds   int
}

func (o *recordingObserver) Changed(w Widget, attrs ...string) {
	o.changes = append(o.changes, change{w.Spec().ModelName, attrs})
}

func (o *recordingObserver) Hold(fn func() error) error {
	o.holds++
	return fn()
}

// ---------------------------------------------------------------------------
// Component / Data
// ---------------------------------------------------------------------------

func TestComponentRange(t *testing.T) {
	c := NewComponentValues("z", []float64{1, 2, 3})
	assert.Equal(t, "z", c.Name())
	assert.Equal(t, 1.0, c.Min())
	assert.Equal(t, 3.0, c.Max())

	w := NewArrayWidget(array.New([]float64{1, 2, 3}))
	c = NewComponentRef("z", w)
	assert.Equal(t, 1.0, c.Min())
	assert.Equal(t, 3.0, c.Max())
	assert.Equal(t, []Widget{w}, c.Refs())
}

func TestComponentPinnedRange(t *testing.T) {
	c := NewComponentValues("z", []float64{1, 2, 3}, WithRange(-10, 10))
	assert.Equal(t, -10.0, c.Min())

	c.SetValues(array.Inline(array.New([]float64{5})))
	assert.Equal(t, -10.0, c.Min(), "pinned range survives new values")

	c.SetValuesWithRange(array.Inline(array.New([]float64{5})), 5, 5)
	assert.Equal(t, 5.0, c.Max())
}

func TestComponentEmptyValues(t *testing.T) {
	c := NewComponentValues("e", []float32{})
	assert.Equal(t, 0.0, c.Min())
	assert.Equal(t, 0.0, c.Max())
}

func TestComponentWireUsesArrayWidgetReference(t *testing.T) {
	w := NewArrayWidget(array.New([]float64{1, 2}))
	c := NewComponentRef("x", w)
	enc := &refEncoder{}

	state, err := c.WireState(enc)
	require.NoError(t, err)
	ref, _ := enc.Ref(w)
	assert.Equal(t, ref, state["array"])

	inline := NewComponentValues("x", []float64{1, 2})
	state, err = inline.WireState(enc)
	require.NoError(t, err)
	wire := state["array"].(map[string]any)
	assert.Equal(t, "float32", fmt.Sprint(wire["dtype"]))
}

func TestDataLookup(t *testing.T) {
	d := data3D()
	assert.Equal(t, 3, d.Dim())

	c, err := d.Component("y")
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Min())

	c, err = d.ComponentAt(2)
	require.NoError(t, err)
	assert.Equal(t, "z", c.Name())

	_, err = d.Component("w")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = d.ComponentAt(3)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	assert.Equal(t, []Pair{{"3d", "x"}, {"3d", "y"}, {"3d", "z"}}, d.Pairs())
}

func TestDataFromMappings(t *testing.T) {
	data := DataFromArrays(map[string]map[string]*array.Array{
		"2d": {"y": array.New([]float64{2, 2, 2}), "x": array.New([]float64{1, 1, 1})},
		"1d": {"x": array.New([]float64{0, 0, 0})},
	})
	m := newMesh(t, data...)

	require.Len(t, m.Data(), 2)
	assert.Equal(t, "1d", m.Data()[0].Name())
	assert.Equal(t, []Pair{{"2d", "x"}, {"2d", "y"}}, m.Data()[1].Pairs())

	c, err := m.Lookup("2d", "y")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2}, c.Array().Float64s())

	data = DataFromComponents(map[string][]*Component{
		"2d": {NewComponentValues("y", []float64{2}), NewComponentValues("x", []float64{1})},
	})
	assert.Equal(t, []Pair{{"2d", "y"}, {"2d", "x"}}, data[0].Pairs(), "component order is kept")
}

// ---------------------------------------------------------------------------
// Blocks and meshes
// ---------------------------------------------------------------------------

func TestBlockLookup(t *testing.T) {
	m := newMesh(t, data1D(), data3D())

	c, err := m.Lookup("1d", "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, c.Array().Float64s())

	c, err = m.Lookup("3d", "y")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2}, c.Array().Float64s())

	_, err = m.Lookup("4d", "x")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = m.Lookup("3d", "w")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestEffectLooksUpThroughParent(t *testing.T) {
	m := newMesh(t, data1D())
	w, err := NewWarp(m)
	require.NoError(t, err)
	ww, err := NewWarp(w)
	require.NoError(t, err)

	c, err := ww.Lookup("1d", "x")
	require.NoError(t, err)
	assert.Equal(t, "x", c.Name())
	assert.Empty(t, ww.OwnData())
}

func TestBlockWithDataDoesNotFallThrough(t *testing.T) {
	parent := newMesh(t, data1D())
	w, err := NewWarp(parent)
	require.NoError(t, err)

	// A block with its own data never consults its parent.
	w.Block.data = []*Data{data3D()}
	_, err = w.Lookup("1d", "x")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestEffectDataIsReadOnly(t *testing.T) {
	w, err := NewWarp(newMesh(t, data1D()))
	require.NoError(t, err)

	assert.True(t, errors.Is(w.SetData(data3D()), errors.ErrInvalidInput))
	assert.True(t, errors.Is(w.AddData(data3D()), errors.ErrInvalidInput))
	assert.Len(t, w.Data(), 1)
}

func TestEffectNeedsParent(t *testing.T) {
	_, err := NewIsoColor(nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestPolyMeshDefaultTriangles(t *testing.T) {
	verts := array.Inline(array.New(make([]float32, 18)))
	m, err := NewPolyMesh(verts, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, m.TriangleIndices())
	assert.Equal(t, DefaultBlockColor, m.DefaultColor())
}

func TestPolyMeshFlattensVertices(t *testing.T) {
	a, err := array.New([]float64{0, 0, 0, 1, 0, 0, 0, 1, 0}).Reshape(3, 3)
	require.NoError(t, err)

	m, err := NewPolyMesh(array.Inline(a), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{9}, m.Vertices().Array().Shape())
	assert.Equal(t, []int{3, 3}, a.Shape(), "caller array untouched")
	assert.Equal(t, []uint32{0, 1, 2}, m.TriangleIndices())
}

func TestPolyMeshRejectsPartialTriangles(t *testing.T) {
	_, err := NewPolyMesh(vertices(), []uint32{0, 1})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	m := newMesh(t)
	assert.Error(t, m.SetTriangleIndices([]uint32{0}))
	assert.Equal(t, []uint32{0, 1, 2}, m.TriangleIndices())
}

func TestSkinDropsSharedFaces(t *testing.T) {
	// Two tetrahedra sharing the face (1, 2, 3).
	tets := []uint32{0, 1, 2, 3, 1, 2, 3, 4}
	skin := Skin(tets)

	require.Len(t, skin, 18)
	faces := make(map[[3]uint32]bool)
	for i := 0; i < len(skin); i += 3 {
		faces[sortedTriple([3]uint32{skin[i], skin[i+1], skin[i+2]})] = true
	}
	assert.False(t, faces[[3]uint32{1, 2, 3}], "shared face is interior")
	for _, f := range [][3]uint32{{0, 1, 2}, {0, 2, 3}, {0, 1, 3}, {1, 2, 4}, {2, 3, 4}, {1, 3, 4}} {
		assert.True(t, faces[f], "boundary face %v", f)
	}

	// Ordered by sorted key, first occurrence orientation.
	assert.Equal(t, []uint32{2, 1, 0}, skin[:3])
}

func TestTetraMeshDerivesSkin(t *testing.T) {
	verts := array.Inline(array.New(make([]float32, 12)))
	m, err := NewTetraMesh(verts, nil, []uint32{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1, 0, 1, 3, 0, 0, 3, 2, 2, 3, 1}, m.TriangleIndices())

	_, err = NewTetraMesh(verts, nil, []uint32{0, 1, 2})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestMeshWireState(t *testing.T) {
	enc := &refEncoder{}
	d := data1D()
	m := newMesh(t, d)

	state, err := m.WireState(enc)
	require.NoError(t, err)
	assert.Equal(t, "#6395b0", state["default_color"])
	dref, _ := enc.Ref(d)
	assert.Equal(t, []string{dref}, state["data"])
	tri := state["triangle_indices"].(map[string]any)
	assert.Equal(t, "uint32", fmt.Sprint(tri["dtype"]))
	assert.Equal(t, []Widget{d}, m.Refs())
}

func TestSetDefaultColor(t *testing.T) {
	m := newMesh(t)
	require.NoError(t, m.SetDefaultColor("#F00"))
	assert.Equal(t, Color("#ff0000"), m.DefaultColor())

	require.NoError(t, m.SetDefaultColor("White"))
	assert.Equal(t, Color("white"), m.DefaultColor())

	assert.Error(t, m.SetDefaultColor("not a color"))
	assert.Equal(t, Color("white"), m.DefaultColor())
}

func TestSettersNotifyObserver(t *testing.T) {
	m := newMesh(t)
	obs := &recordingObserver{}
	m.Attach(obs)

	require.NoError(t, m.SetTriangleIndices([]uint32{2, 1, 0}))
	require.Len(t, obs.changes, 1)
	assert.Equal(t, change{"PolyMeshModel", []string{"triangle_indices"}}, obs.changes[0])
}

// ---------------------------------------------------------------------------
// Scene
// ---------------------------------------------------------------------------

func TestSceneChildren(t *testing.T) {
	a, b := newMesh(t), newMesh(t)
	s := NewScene(a)
	s.Add(b)
	assert.Len(t, s.Children(), 2)
	assert.True(t, s.Remove(a))
	assert.False(t, s.Remove(a))
	assert.Equal(t, []Node{b}, s.Children())
}

func TestSceneWireState(t *testing.T) {
	s := NewScene()
	state, err := s.WireState(&refEncoder{})
	require.NoError(t, err)
	assert.Equal(t, "white", state["background_color"])
	assert.Equal(t, 1.0, state["background_opacity"])
	assert.Nil(t, state["camera"])
	assert.Equal(t, "SceneView", s.Spec().ViewName)

	require.NoError(t, s.ApplyWire("camera", map[string]any{"position": []any{1.0, 2.0, 3.0}}))
	assert.NotNil(t, s.Camera())
	assert.Error(t, s.SetBackgroundOpacity(2))
	assert.Error(t, s.ApplyWire("children", nil))
}
