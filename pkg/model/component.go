package model

import (
	"github.com/chazu/gany/pkg/array"
)

// Component is one named scalar field of a Data.
type Component struct {
	syncState
	name   string
	values array.Source
	min    float64
	max    float64
	pinned bool
}

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// WithRange pins the component range instead of deriving it from the
// values.
func WithRange(min, max float64) ComponentOption {
	return func(c *Component) {
		c.min, c.max = min, max
		c.pinned = true
	}
}

// NewComponent creates a component holding values inline.
func NewComponent(name string, values *array.Array, opts ...ComponentOption) *Component {
	return newComponent(name, array.Inline(values), opts)
}

// NewComponentRef creates a component whose values live in an external
// array resource.
func NewComponentRef(name string, ref array.Ref, opts ...ComponentOption) *Component {
	return newComponent(name, array.Reference(ref), opts)
}

// NewComponentValues creates a component from a plain slice.
func NewComponentValues[T array.Number](name string, values []T, opts ...ComponentOption) *Component {
	return NewComponent(name, array.New(values), opts...)
}

func newComponent(name string, src array.Source, opts []ComponentOption) *Component {
	c := &Component{name: name, values: src}
	c.self = c
	for _, opt := range opts {
		opt(c)
	}
	if !c.pinned {
		c.min, c.max = sourceRange(src)
	}
	return c
}

// sourceRange returns the min and max of src, or (0, 0) when it is empty
// or unavailable host-side.
func sourceRange(src array.Source) (float64, float64) {
	a := src.Array()
	if a == nil {
		return 0, 0
	}
	lo, hi, ok := a.MinMax()
	if !ok {
		return 0, 0
	}
	return lo, hi
}

// Spec implements Widget.
func (c *Component) Spec() Spec { return ganySpec("ComponentModel") }

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// Values returns the component values.
func (c *Component) Values() array.Source { return c.values }

// Array returns the values as an array, nil when held remotely.
func (c *Component) Array() *array.Array { return c.values.Array() }

// Len returns the number of values.
func (c *Component) Len() int { return c.values.Len() }

// Min returns the lower bound of the component range.
func (c *Component) Min() float64 { return c.min }

// Max returns the upper bound of the component range.
func (c *Component) Max() float64 { return c.max }

// SetValues replaces the values. The range is recomputed unless it was
// pinned at construction.
func (c *Component) SetValues(src array.Source) {
	c.values = src
	if !c.pinned {
		c.min, c.max = sourceRange(src)
	}
	c.notify("array")
}

// SetValuesWithRange replaces the values and the range together.
func (c *Component) SetValuesWithRange(src array.Source, min, max float64) {
	c.values = src
	c.min, c.max = min, max
	c.notify("array")
}

// WireState implements Widget.
func (c *Component) WireState(enc Encoder) (map[string]any, error) {
	arr, err := encodeSource(enc, c.values)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name":  c.name,
		"array": arr,
	}, nil
}

// Refs implements Widget.
func (c *Component) Refs() []Widget { return sourceRefs(c.values) }
