// Package model implements the gany data model: data components, meshes,
// point clouds, the effect chain and the scene. Every type here is a
// widget whose state can be mirrored to a browser renderer by package
// widget.
//
// Models are not safe for concurrent use.
package model

import (
	"github.com/chazu/gany/pkg/array"
)

// Frontend module coordinates written into every widget state.
const (
	ModuleName    = "ipygany"
	ModuleVersion = "^0.5.0"
)

// Spec identifies the frontend class pair of a widget.
type Spec struct {
	ModelName     string
	ViewName      string // empty for non-DOM widgets
	Module        string
	ModuleVersion string
}

func ganySpec(model string) Spec {
	return Spec{ModelName: model, Module: ModuleName, ModuleVersion: ModuleVersion}
}

func ganyDOMSpec(model, view string) Spec {
	s := ganySpec(model)
	s.ViewName = view
	return s
}

// Widget is a model mirrored to the peer.
type Widget interface {
	Spec() Spec
	// WireState returns every synchronized attribute in wire form.
	WireState(enc Encoder) (map[string]any, error)
	// Refs returns the widgets referenced by this widget's state.
	Refs() []Widget
	// Attach connects the widget to a change observer.
	Attach(o Observer)
}

// Patchable is implemented by widgets whose attributes the peer may set.
type Patchable interface {
	Widget
	// ApplyWire validates and commits a single attribute received from
	// the peer. On error the widget is unchanged.
	ApplyWire(attr string, value any) error
}

// Encoder converts widget references to their wire form.
type Encoder interface {
	Ref(w Widget) (string, error)
}

// Observer is notified of attribute changes.
type Observer interface {
	Changed(w Widget, attrs ...string)
	// Hold runs fn with change delivery batched until fn returns.
	Hold(fn func() error) error
}

// syncState is embedded by every widget.
type syncState struct {
	self     Widget
	observer Observer
}

// Attach connects the widget to o.
func (s *syncState) Attach(o Observer) { s.observer = o }

func (s *syncState) notify(attrs ...string) {
	if s.observer != nil && s.self != nil {
		s.observer.Changed(s.self, attrs...)
	}
}

// Hold batches every change made by fn into one delivery. Without an
// observer fn simply runs.
func (s *syncState) Hold(fn func() error) error {
	if s.observer == nil {
		return fn()
	}
	return s.observer.Hold(fn)
}

func encodeRefs[W Widget](enc Encoder, ws []W) ([]string, error) {
	out := make([]string, len(ws))
	for i, w := range ws {
		ref, err := enc.Ref(w)
		if err != nil {
			return nil, err
		}
		out[i] = ref
	}
	return out, nil
}

// encodeSource serializes an array attribute. Array widgets travel as
// references; everything else goes through the array codec.
func encodeSource(enc Encoder, s array.Source) (any, error) {
	if w, ok := s.Ref().(Widget); ok {
		return enc.Ref(w)
	}
	return s.Wire()
}

func sourceRefs(s array.Source) []Widget {
	if w, ok := s.Ref().(Widget); ok {
		return []Widget{w}
	}
	return nil
}

// ---------------------------------------------------------------------------
// ArrayWidget
// ---------------------------------------------------------------------------

// Compile-time interface checks.
var (
	_ array.Ref = (*ArrayWidget)(nil)
	_ Widget    = (*ArrayWidget)(nil)
)

// ArrayWidget is an array shared with the peer as a widget of its own so
// several attributes can reference one buffer.
type ArrayWidget struct {
	syncState
	values *array.Array
}

// NewArrayWidget wraps a.
func NewArrayWidget(a *array.Array) *ArrayWidget {
	w := &ArrayWidget{values: a}
	w.self = w
	return w
}

// Spec implements Widget.
func (w *ArrayWidget) Spec() Spec {
	return Spec{ModelName: "NDArrayModel", Module: "jupyter-datawidgets", ModuleVersion: "^5.5.0"}
}

// Array returns the wrapped values.
func (w *ArrayWidget) Array() *array.Array { return w.values }

// SetArray replaces the wrapped values.
func (w *ArrayWidget) SetArray(a *array.Array) {
	w.values = a
	w.notify("array")
}

// Wire encodes the wrapped array.
func (w *ArrayWidget) Wire() (any, error) {
	return array.Inline(w.values).Wire()
}

// WireState implements Widget.
func (w *ArrayWidget) WireState(Encoder) (map[string]any, error) {
	v, err := w.Wire()
	if err != nil {
		return nil, err
	}
	return map[string]any{"array": v}, nil
}

// Refs implements Widget.
func (w *ArrayWidget) Refs() []Widget { return nil }
