package model

import (
	"github.com/chazu/gany/pkg/errors"
)

var _ Patchable = (*Scene)(nil)

// Scene defaults.
const (
	DefaultBackgroundColor   Color = "white"
	DefaultBackgroundOpacity       = 1.0
)

// Scene is the root of a visualization. Each child is the head of an
// independent render chain.
type Scene struct {
	syncState
	children          []Node
	backgroundColor   Color
	backgroundOpacity float64
	camera            map[string]any
}

// NewScene creates a scene showing children.
func NewScene(children ...Node) *Scene {
	s := &Scene{
		children:          children,
		backgroundColor:   DefaultBackgroundColor,
		backgroundOpacity: DefaultBackgroundOpacity,
	}
	s.self = s
	return s
}

// Spec implements Widget.
func (s *Scene) Spec() Spec { return ganyDOMSpec("SceneModel", "SceneView") }

// Children returns the render chain heads.
func (s *Scene) Children() []Node { return s.children }

// Add appends children.
func (s *Scene) Add(nodes ...Node) {
	s.children = append(s.children, nodes...)
	s.notify("children")
}

// Remove drops n from the children. It reports whether n was present.
func (s *Scene) Remove(n Node) bool {
	for i, c := range s.children {
		if c == n {
			s.children = append(s.children[:i:i], s.children[i+1:]...)
			s.notify("children")
			return true
		}
	}
	return false
}

// BackgroundColor returns the background color.
func (s *Scene) BackgroundColor() Color { return s.backgroundColor }

// SetBackgroundColor validates and sets the background color.
func (s *Scene) SetBackgroundColor(c string) error {
	col, err := ParseColor(c)
	if err != nil {
		return err
	}
	s.backgroundColor = col
	s.notify("background_color")
	return nil
}

// BackgroundOpacity returns the background opacity.
func (s *Scene) BackgroundOpacity() float64 { return s.backgroundOpacity }

// SetBackgroundOpacity sets the background opacity, in [0, 1].
func (s *Scene) SetBackgroundOpacity(v float64) error {
	if v < 0 || v > 1 {
		return errors.InvalidInput("model.scene", v, "background_opacity must be within [0, 1]")
	}
	s.backgroundOpacity = v
	s.notify("background_opacity")
	return nil
}

// Camera returns the camera state last reported by the renderer, nil
// until then.
func (s *Scene) Camera() map[string]any { return s.camera }

// SetCamera replaces the camera state.
func (s *Scene) SetCamera(c map[string]any) {
	s.camera = c
	s.notify("camera")
}

// WireState implements Widget.
func (s *Scene) WireState(enc Encoder) (map[string]any, error) {
	children, err := encodeRefs(enc, s.children)
	if err != nil {
		return nil, err
	}
	var camera any
	if s.camera != nil {
		camera = s.camera
	}
	return map[string]any{
		"children":           children,
		"background_color":   string(s.backgroundColor),
		"background_opacity": s.backgroundOpacity,
		"camera":             camera,
	}, nil
}

// Refs implements Widget.
func (s *Scene) Refs() []Widget {
	out := make([]Widget, len(s.children))
	for i, c := range s.children {
		out[i] = c
	}
	return out
}

// ApplyWire implements Patchable.
func (s *Scene) ApplyWire(attr string, value any) error {
	const op = "model.scene"
	switch attr {
	case "camera":
		if value == nil {
			s.SetCamera(nil)
			return nil
		}
		m, ok := value.(map[string]any)
		if !ok {
			return errors.InvalidInput(op, value, "camera must be an object")
		}
		s.SetCamera(m)
		return nil
	case "background_color":
		c, ok := value.(string)
		if !ok {
			return errors.InvalidInput(op, value, "background_color must be a string")
		}
		return s.SetBackgroundColor(c)
	case "background_opacity":
		f, err := wireFloat(op, attr, value)
		if err != nil {
			return err
		}
		return s.SetBackgroundOpacity(f)
	}
	return errors.InvalidInput(op, attr, "attribute %q is not writable by the peer", attr)
}
