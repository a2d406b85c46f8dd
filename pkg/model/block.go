package model

import (
	"github.com/chazu/gany/pkg/array"
	"github.com/chazu/gany/pkg/errors"
)

// DefaultBlockColor is the color of blocks without data mapping.
const DefaultBlockColor Color = "#6395b0"

// Node is a renderable element of a scene: a mesh, a point cloud or an
// effect applied to another node.
type Node interface {
	Widget
	// Base returns the block state shared by every node.
	Base() *Block
}

// Block holds the state shared by meshes, point clouds and effects.
// It is embedded by every Node implementation.
type Block struct {
	syncState
	vertices          array.Source
	defaultColor      Color
	data              []*Data
	environmentMeshes []Node
	parent            Node
}

// Option configures the block part of a mesh or point cloud.
type Option func(*Block)

// WithData attaches data in the given order.
func WithData(data ...*Data) Option {
	return func(b *Block) { b.data = append(b.data, data...) }
}

// WithDefaultColor sets the color used when no effect maps data to color.
func WithDefaultColor(c Color) Option {
	return func(b *Block) { b.defaultColor = c }
}

// WithEnvironmentMeshes adds meshes rendered as surroundings of the block.
func WithEnvironmentMeshes(nodes ...Node) Option {
	return func(b *Block) { b.environmentMeshes = append(b.environmentMeshes, nodes...) }
}

func (b *Block) init(self Node, vertices array.Source, opts []Option) {
	b.self = self
	if vertices.IsZero() {
		vertices = array.Inline(array.New([]float32{}))
	}
	b.vertices = flatten(vertices)
	if b.defaultColor == "" {
		b.defaultColor = DefaultBlockColor
	}
	for _, opt := range opts {
		opt(b)
	}
}

// flatten turns an inline n-d vertex array into the packed 1-D form.
// References are left alone.
func flatten(src array.Source) array.Source {
	a := src.Array()
	if src.IsRef() || a == nil || a.Ndim() == 1 {
		return src
	}
	flat, err := a.Reshape(a.Size())
	if err != nil {
		return src
	}
	return array.Inline(flat)
}

// Base returns b.
func (b *Block) Base() *Block { return b }

// Vertices returns the packed vertex coordinates.
func (b *Block) Vertices() array.Source { return b.vertices }

// SetVertices replaces the vertex coordinates.
func (b *Block) SetVertices(src array.Source) {
	b.vertices = flatten(src)
	b.notify("vertices")
}

// VertexCount returns the number of vertices, or 0 when the vertex buffer
// is not available host-side.
func (b *Block) VertexCount() int { return b.vertices.Len() / 3 }

// DefaultColor returns the block color.
func (b *Block) DefaultColor() Color { return b.defaultColor }

// SetDefaultColor validates and sets the block color.
func (b *Block) SetDefaultColor(s string) error {
	c, err := ParseColor(s)
	if err != nil {
		return err
	}
	b.defaultColor = c
	b.notify("default_color")
	return nil
}

// Parent returns the node an effect is applied to, nil for meshes.
func (b *Block) Parent() Node { return b.parent }

// Data returns the data used for lookups: the block's own data or, when
// it has none, its parent's.
func (b *Block) Data() []*Data {
	if len(b.data) == 0 && b.parent != nil {
		return b.parent.Base().Data()
	}
	return b.data
}

// OwnData returns the data declared on this block only.
func (b *Block) OwnData() []*Data { return b.data }

// SetData replaces the block data.
func (b *Block) SetData(data ...*Data) error {
	b.data = data
	b.notify("data")
	return nil
}

// AddData appends data to the block.
func (b *Block) AddData(data ...*Data) error {
	b.data = append(b.data, data...)
	b.notify("data")
	return nil
}

// DataNamed returns the first Data called name.
func (b *Block) DataNamed(name string) (*Data, error) {
	for _, d := range b.Data() {
		if d.name == name {
			return d, nil
		}
	}
	return nil, errors.NotFound("model.lookup", name)
}

// Lookup resolves a (data, component) pair.
func (b *Block) Lookup(dataName, componentName string) (*Component, error) {
	d, err := b.DataNamed(dataName)
	if err != nil {
		return nil, err
	}
	return d.Component(componentName)
}

// EnvironmentMeshes returns the environment meshes.
func (b *Block) EnvironmentMeshes() []Node { return b.environmentMeshes }

// SetEnvironmentMeshes replaces the environment meshes.
func (b *Block) SetEnvironmentMeshes(nodes ...Node) {
	b.environmentMeshes = nodes
	b.notify("environment_meshes")
}

// wireState encodes the attributes every block shares. Effects skip
// their data since it aliases the parent's.
func (b *Block) wireState(enc Encoder, withData bool) (map[string]any, error) {
	verts, err := encodeSource(enc, b.vertices)
	if err != nil {
		return nil, err
	}
	env, err := encodeRefs(enc, b.environmentMeshes)
	if err != nil {
		return nil, err
	}
	state := map[string]any{
		"vertices":           verts,
		"default_color":      string(b.defaultColor),
		"environment_meshes": env,
	}
	if withData {
		data, err := encodeRefs(enc, b.data)
		if err != nil {
			return nil, err
		}
		state["data"] = data
	}
	return state, nil
}

func (b *Block) refs(withData bool) []Widget {
	out := sourceRefs(b.vertices)
	if withData {
		for _, d := range b.data {
			out = append(out, d)
		}
	}
	for _, n := range b.environmentMeshes {
		out = append(out, n)
	}
	return out
}
