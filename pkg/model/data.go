package model

import (
	"fmt"
	"sort"

	"github.com/chazu/gany/pkg/array"
	"github.com/chazu/gany/pkg/errors"
)

// Data is a named field made of ordered components, e.g. a 3-D velocity
// with components x, y and z.
type Data struct {
	syncState
	name       string
	components []*Component
}

// NewData creates a Data. Component names are not checked for
// uniqueness; lookups return the first match.
func NewData(name string, components ...*Component) *Data {
	d := &Data{name: name, components: components}
	d.self = d
	return d
}

// NewDataFromArrays creates a Data with one component per entry of
// arrays, in ascending name order.
func NewDataFromArrays(name string, arrays map[string]*array.Array) *Data {
	names := sortedKeys(arrays)
	comps := make([]*Component, len(names))
	for i, n := range names {
		comps[i] = NewComponent(n, arrays[n])
	}
	return NewData(name, comps...)
}

// DataFromArrays builds one Data per entry of m, in ascending name order.
func DataFromArrays(m map[string]map[string]*array.Array) []*Data {
	names := sortedKeys(m)
	out := make([]*Data, len(names))
	for i, n := range names {
		out[i] = NewDataFromArrays(n, m[n])
	}
	return out
}

// DataFromComponents builds one Data per entry of m, in ascending name
// order. Component order is kept as given.
func DataFromComponents(m map[string][]*Component) []*Data {
	names := sortedKeys(m)
	out := make([]*Data, len(names))
	for i, n := range names {
		out[i] = NewData(n, m[n]...)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Spec implements Widget.
func (d *Data) Spec() Spec { return ganySpec("DataModel") }

// Name returns the data name.
func (d *Data) Name() string { return d.name }

// Dim returns the number of components.
func (d *Data) Dim() int { return len(d.components) }

// Components returns the components in order.
func (d *Data) Components() []*Component { return d.components }

// Component returns the first component called name.
func (d *Data) Component(name string) (*Component, error) {
	for _, c := range d.components {
		if c.name == name {
			return c, nil
		}
	}
	return nil, errors.NotFound("model.component", d.name, name)
}

// ComponentAt returns the i-th component.
func (d *Data) ComponentAt(i int) (*Component, error) {
	if i < 0 || i >= len(d.components) {
		return nil, errors.NotFound("model.component", d.name, fmt.Sprint(i))
	}
	return d.components[i], nil
}

// Pairs returns the (data, component) selector of every component.
func (d *Data) Pairs() []Pair {
	out := make([]Pair, len(d.components))
	for i, c := range d.components {
		out[i] = Pair{Data: d.name, Component: c.name}
	}
	return out
}

// WireState implements Widget.
func (d *Data) WireState(enc Encoder) (map[string]any, error) {
	comps, err := encodeRefs(enc, d.components)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name":       d.name,
		"components": comps,
	}, nil
}

// Refs implements Widget.
func (d *Data) Refs() []Widget {
	out := make([]Widget, len(d.components))
	for i, c := range d.components {
		out[i] = c
	}
	return out
}
