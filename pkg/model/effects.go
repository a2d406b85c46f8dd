package model

import (
	"github.com/chazu/gany/pkg/errors"
)

// Compile-time interface checks.
var (
	_ Patchable = (*Warp)(nil)
	_ Patchable = (*WarpByScalar)(nil)
	_ Patchable = (*Alpha)(nil)
	_ Patchable = (*RGB)(nil)
	_ Patchable = (*IsoColor)(nil)
	_ Patchable = (*IsoSurface)(nil)
	_ Patchable = (*Threshold)(nil)
	_ Patchable = (*UnderWater)(nil)
	_ Patchable = (*Water)(nil)
	_ Widget    = (*ColorBar)(nil)
)

// Axes is a per-axis parameter given either as one value for all axes or
// as one value per axis.
type Axes struct {
	values  [3]float64
	perAxis bool
}

// Uniform returns Axes with v on every axis.
func Uniform(v float64) Axes { return Axes{values: [3]float64{v, v, v}} }

// PerAxis returns Axes with one value per axis.
func PerAxis(x, y, z float64) Axes {
	return Axes{values: [3]float64{x, y, z}, perAxis: true}
}

// Values returns the value of each axis.
func (a Axes) Values() [3]float64 { return a.values }

// Wire returns a number for uniform axes, a 3-list otherwise.
func (a Axes) Wire() any {
	if !a.perAxis {
		return a.values[0]
	}
	return []any{a.values[0], a.values[1], a.values[2]}
}

// ParseAxes reads a number or a 3-list.
func ParseAxes(v any) (Axes, error) {
	if f, ok := toFloat(v); ok {
		return Uniform(f), nil
	}
	list, ok := toFloats(v)
	if !ok || len(list) != 3 {
		return Axes{}, errors.InvalidInput("model.axes", v, "expected a number or three numbers")
	}
	return PerAxis(list[0], list[1], list[2]), nil
}

// Warp displaces vertices by a 3-D data.
type Warp struct {
	Effect
	offset Axes
	factor Axes
}

// NewWarp creates a Warp on parent.
func NewWarp(parent Node, opts ...EffectOption) (*Warp, error) {
	w := &Warp{offset: Uniform(0), factor: Uniform(1)}
	if err := w.init(w, parent, 3, opts); err != nil {
		return nil, err
	}
	return w, nil
}

// Spec implements Widget.
func (w *Warp) Spec() Spec { return ganySpec("WarpModel") }

// Offset returns the displacement offset.
func (w *Warp) Offset() Axes { return w.offset }

// Factor returns the displacement factor.
func (w *Warp) Factor() Axes { return w.factor }

// SetOffset sets the displacement offset.
func (w *Warp) SetOffset(a Axes) {
	w.offset = a
	w.notify("offset")
}

// SetFactor sets the displacement factor.
func (w *Warp) SetFactor(a Axes) {
	w.factor = a
	w.notify("factor")
}

// WireState implements Widget.
func (w *Warp) WireState(enc Encoder) (map[string]any, error) {
	state, err := w.effectWireState(enc)
	if err != nil {
		return nil, err
	}
	state["offset"] = w.offset.Wire()
	state["factor"] = w.factor.Wire()
	return state, nil
}

// Refs implements Widget.
func (w *Warp) Refs() []Widget { return w.effectRefs() }

// ApplyWire implements Patchable.
func (w *Warp) ApplyWire(attr string, value any) error {
	switch attr {
	case "offset", "factor":
		a, err := ParseAxes(value)
		if err != nil {
			return err
		}
		if attr == "offset" {
			w.SetOffset(a)
		} else {
			w.SetFactor(a)
		}
		return nil
	}
	return w.applyEffectWire("model.warp", attr, value)
}

// WarpByScalar displaces vertices along their normals by a scalar data.
type WarpByScalar struct {
	Effect
	factor float64
}

// NewWarpByScalar creates a WarpByScalar on parent.
func NewWarpByScalar(parent Node, opts ...EffectOption) (*WarpByScalar, error) {
	w := &WarpByScalar{factor: 1}
	if err := w.init(w, parent, 1, opts); err != nil {
		return nil, err
	}
	return w, nil
}

// Spec implements Widget.
func (w *WarpByScalar) Spec() Spec { return ganySpec("WarpByScalarModel") }

// Factor returns the displacement factor.
func (w *WarpByScalar) Factor() float64 { return w.factor }

// SetFactor sets the displacement factor.
func (w *WarpByScalar) SetFactor(f float64) {
	w.factor = f
	w.notify("factor")
}

// WireState implements Widget.
func (w *WarpByScalar) WireState(enc Encoder) (map[string]any, error) {
	state, err := w.effectWireState(enc)
	if err != nil {
		return nil, err
	}
	state["factor"] = w.factor
	return state, nil
}

// Refs implements Widget.
func (w *WarpByScalar) Refs() []Widget { return w.effectRefs() }

// ApplyWire implements Patchable.
func (w *WarpByScalar) ApplyWire(attr string, value any) error {
	if attr == "factor" {
		f, err := wireFloat("model.warp_by_scalar", attr, value)
		if err != nil {
			return err
		}
		w.SetFactor(f)
		return nil
	}
	return w.applyEffectWire("model.warp_by_scalar", attr, value)
}

// DefaultAlpha is the opacity an Alpha effect uses without input.
const DefaultAlpha = 0.7

// Alpha makes the parent transparent.
type Alpha struct {
	Effect
}

// NewAlpha creates an Alpha on parent.
func NewAlpha(parent Node, opts ...EffectOption) (*Alpha, error) {
	a := &Alpha{}
	a.defaultInput = func() Input { return Scalar(DefaultAlpha) }
	if err := a.init(a, parent, 1, opts); err != nil {
		return nil, err
	}
	return a, nil
}

// Spec implements Widget.
func (a *Alpha) Spec() Spec { return ganySpec("AlphaModel") }

// WireState implements Widget.
func (a *Alpha) WireState(enc Encoder) (map[string]any, error) { return a.effectWireState(enc) }

// Refs implements Widget.
func (a *Alpha) Refs() []Widget { return a.effectRefs() }

// ApplyWire implements Patchable.
func (a *Alpha) ApplyWire(attr string, value any) error {
	return a.applyEffectWire("model.alpha", attr, value)
}

// RGB colors the parent from a 3-D data.
type RGB struct {
	Effect
}

// NewRGB creates an RGB on parent.
func NewRGB(parent Node, opts ...EffectOption) (*RGB, error) {
	r := &RGB{}
	if err := r.init(r, parent, 3, opts); err != nil {
		return nil, err
	}
	return r, nil
}

// Spec implements Widget.
func (r *RGB) Spec() Spec { return ganySpec("RGBModel") }

// WireState implements Widget.
func (r *RGB) WireState(enc Encoder) (map[string]any, error) { return r.effectWireState(enc) }

// Refs implements Widget.
func (r *RGB) Refs() []Widget { return r.effectRefs() }

// ApplyWire implements Patchable.
func (r *RGB) ApplyWire(attr string, value any) error {
	return r.applyEffectWire("model.rgb", attr, value)
}

// valueRange is a [min, max] window shared by IsoColor and Threshold.
// Setting either bound or the pair keeps the other view consistent.
type valueRange struct {
	min, max float64
}

func (r valueRange) wire(state map[string]any) {
	state["min"] = r.min
	state["max"] = r.max
	state["range"] = []any{r.min, r.max}
}

// apply handles peer updates of min, max and range. It reports whether
// attr was a range attribute.
func (r *valueRange) apply(op, attr string, value any) (bool, error) {
	switch attr {
	case "min", "max":
		f, err := wireFloat(op, attr, value)
		if err != nil {
			return true, err
		}
		if attr == "min" {
			r.min = f
		} else {
			r.max = f
		}
		return true, nil
	case "range":
		list, ok := toFloats(value)
		if !ok || len(list) != 2 {
			return true, errors.InvalidInput(op, value, "range must be two numbers")
		}
		r.min, r.max = list[0], list[1]
		return true, nil
	}
	return false, nil
}

// IsoColor maps a scalar data onto a colormap.
type IsoColor struct {
	Effect
	valueRange
	colormap  Colormap
	scaleType ScaleType
}

// NewIsoColor creates an IsoColor on parent.
func NewIsoColor(parent Node, opts ...EffectOption) (*IsoColor, error) {
	c := &IsoColor{colormap: Viridis, scaleType: Linear}
	if err := c.init(c, parent, 1, opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Spec implements Widget.
func (c *IsoColor) Spec() Spec { return ganySpec("IsoColorModel") }

// Min returns the value mapped to the start of the colormap.
func (c *IsoColor) Min() float64 { return c.min }

// Max returns the value mapped to the end of the colormap.
func (c *IsoColor) Max() float64 { return c.max }

// Range returns (Min, Max).
func (c *IsoColor) Range() (float64, float64) { return c.min, c.max }

// SetMin sets the lower bound.
func (c *IsoColor) SetMin(v float64) {
	c.min = v
	c.notify("min", "range")
}

// SetMax sets the upper bound.
func (c *IsoColor) SetMax(v float64) {
	c.max = v
	c.notify("max", "range")
}

// SetRange sets both bounds.
func (c *IsoColor) SetRange(min, max float64) {
	c.min, c.max = min, max
	c.notify("min", "max", "range")
}

// Colormap returns the colormap.
func (c *IsoColor) Colormap() Colormap { return c.colormap }

// SetColormap validates and sets the colormap.
func (c *IsoColor) SetColormap(name string) error {
	cm, err := ParseColormap(name)
	if err != nil {
		return err
	}
	c.colormap = cm
	c.notify("colormap")
	return nil
}

// ScaleType returns the value scale.
func (c *IsoColor) ScaleType() ScaleType { return c.scaleType }

// SetScaleType validates and sets the value scale.
func (c *IsoColor) SetScaleType(name string) error {
	st, err := ParseScaleType(name)
	if err != nil {
		return err
	}
	c.scaleType = st
	c.notify("type")
	return nil
}

// WireState implements Widget.
func (c *IsoColor) WireState(enc Encoder) (map[string]any, error) {
	state, err := c.effectWireState(enc)
	if err != nil {
		return nil, err
	}
	c.valueRange.wire(state)
	state["colormap"] = string(c.colormap)
	state["type"] = string(c.scaleType)
	return state, nil
}

// Refs implements Widget.
func (c *IsoColor) Refs() []Widget { return c.effectRefs() }

// ApplyWire implements Patchable.
func (c *IsoColor) ApplyWire(attr string, value any) error {
	const op = "model.iso_color"
	if ok, err := c.valueRange.apply(op, attr, value); ok {
		if err == nil {
			c.notify("min", "max", "range")
		}
		return err
	}
	switch attr {
	case "colormap":
		s, _ := value.(string)
		return c.SetColormap(s)
	case "type":
		s, _ := value.(string)
		return c.SetScaleType(s)
	}
	return c.applyEffectWire(op, attr, value)
}

// ColorBar displays the colormap of an IsoColor.
type ColorBar struct {
	syncState
	parent *IsoColor
}

// NewColorBar creates a ColorBar for parent.
func NewColorBar(parent *IsoColor) (*ColorBar, error) {
	if parent == nil {
		return nil, errors.InvalidInput("model.color_bar", nil, "a color bar needs an IsoColor parent")
	}
	b := &ColorBar{parent: parent}
	b.self = b
	return b, nil
}

// Spec implements Widget.
func (b *ColorBar) Spec() Spec { return ganyDOMSpec("ColorBarModel", "ColorBarView") }

// Parent returns the IsoColor displayed.
func (b *ColorBar) Parent() *IsoColor { return b.parent }

// WireState implements Widget.
func (b *ColorBar) WireState(enc Encoder) (map[string]any, error) {
	ref, err := enc.Ref(b.parent)
	if err != nil {
		return nil, err
	}
	return map[string]any{"parent": ref}, nil
}

// Refs implements Widget.
func (b *ColorBar) Refs() []Widget { return []Widget{b.parent} }

// IsoSurface extracts the surface where a scalar data equals a value.
type IsoSurface struct {
	Effect
	value   float64
	dynamic bool
}

// NewIsoSurface creates an IsoSurface on parent.
func NewIsoSurface(parent Node, opts ...EffectOption) (*IsoSurface, error) {
	s := &IsoSurface{}
	if err := s.init(s, parent, 1, opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Spec implements Widget.
func (s *IsoSurface) Spec() Spec { return ganySpec("IsoSurfaceModel") }

// Value returns the iso value.
func (s *IsoSurface) Value() float64 { return s.value }

// SetValue sets the iso value.
func (s *IsoSurface) SetValue(v float64) {
	s.value = v
	s.notify("value")
}

// Dynamic reports whether the surface follows value changes live.
func (s *IsoSurface) Dynamic() bool { return s.dynamic }

// SetDynamic sets the dynamic flag.
func (s *IsoSurface) SetDynamic(v bool) {
	s.dynamic = v
	s.notify("dynamic")
}

// WireState implements Widget.
func (s *IsoSurface) WireState(enc Encoder) (map[string]any, error) {
	state, err := s.effectWireState(enc)
	if err != nil {
		return nil, err
	}
	state["value"] = s.value
	state["dynamic"] = s.dynamic
	return state, nil
}

// Refs implements Widget.
func (s *IsoSurface) Refs() []Widget { return s.effectRefs() }

// ApplyWire implements Patchable.
func (s *IsoSurface) ApplyWire(attr string, value any) error {
	const op = "model.iso_surface"
	switch attr {
	case "value":
		f, err := wireFloat(op, attr, value)
		if err != nil {
			return err
		}
		s.SetValue(f)
		return nil
	case "dynamic":
		b, err := wireBool(op, attr, value)
		if err != nil {
			return err
		}
		s.SetDynamic(b)
		return nil
	}
	return s.applyEffectWire(op, attr, value)
}

// Threshold hides the parts of the parent outside a value window.
type Threshold struct {
	Effect
	valueRange
	dynamic   bool
	inclusive bool
}

// NewThreshold creates a Threshold on parent.
func NewThreshold(parent Node, opts ...EffectOption) (*Threshold, error) {
	t := &Threshold{inclusive: true}
	if err := t.init(t, parent, 1, opts); err != nil {
		return nil, err
	}
	return t, nil
}

// Spec implements Widget.
func (t *Threshold) Spec() Spec { return ganySpec("ThresholdModel") }

// Range returns the window bounds.
func (t *Threshold) Range() (float64, float64) { return t.min, t.max }

// SetMin sets the lower bound.
func (t *Threshold) SetMin(v float64) {
	t.min = v
	t.notify("min", "range")
}

// SetMax sets the upper bound.
func (t *Threshold) SetMax(v float64) {
	t.max = v
	t.notify("max", "range")
}

// SetRange sets both bounds.
func (t *Threshold) SetRange(min, max float64) {
	t.min, t.max = min, max
	t.notify("min", "max", "range")
}

// Dynamic reports whether the window follows value changes live.
func (t *Threshold) Dynamic() bool { return t.dynamic }

// SetDynamic sets the dynamic flag.
func (t *Threshold) SetDynamic(v bool) {
	t.dynamic = v
	t.notify("dynamic")
}

// Inclusive reports whether the bounds themselves are kept.
func (t *Threshold) Inclusive() bool { return t.inclusive }

// SetInclusive sets the inclusive flag.
func (t *Threshold) SetInclusive(v bool) {
	t.inclusive = v
	t.notify("inclusive")
}

// WireState implements Widget.
func (t *Threshold) WireState(enc Encoder) (map[string]any, error) {
	state, err := t.effectWireState(enc)
	if err != nil {
		return nil, err
	}
	t.valueRange.wire(state)
	state["dynamic"] = t.dynamic
	state["inclusive"] = t.inclusive
	return state, nil
}

// Refs implements Widget.
func (t *Threshold) Refs() []Widget { return t.effectRefs() }

// ApplyWire implements Patchable.
func (t *Threshold) ApplyWire(attr string, value any) error {
	const op = "model.threshold"
	if ok, err := t.valueRange.apply(op, attr, value); ok {
		if err == nil {
			t.notify("min", "max", "range")
		}
		return err
	}
	switch attr {
	case "dynamic", "inclusive":
		b, err := wireBool(op, attr, value)
		if err != nil {
			return err
		}
		if attr == "dynamic" {
			t.SetDynamic(b)
		} else {
			t.SetInclusive(b)
		}
		return nil
	}
	return t.applyEffectWire(op, attr, value)
}

// UnderWater defaults.
const (
	UnderWaterColor     Color = "#f2ffd2"
	DefaultTextureScale       = 2.0
)

// UnderWater renders the parent as a sea bed lit by caustics.
type UnderWater struct {
	Effect
	texture         *Image
	textureScale    float64
	texturePosition [3]float64
}

// NewUnderWater creates an UnderWater on parent.
func NewUnderWater(parent Node, opts ...EffectOption) (*UnderWater, error) {
	u := &UnderWater{textureScale: DefaultTextureScale, texturePosition: [3]float64{1, 1, 0}}
	opts = append([]EffectOption{WithEffectColor(UnderWaterColor)}, opts...)
	if err := u.init(u, parent, 1, opts); err != nil {
		return nil, err
	}
	return u, nil
}

// Spec implements Widget.
func (u *UnderWater) Spec() Spec { return ganySpec("UnderWaterModel") }

// Texture returns the sea bed texture, nil when unset.
func (u *UnderWater) Texture() *Image { return u.texture }

// SetTexture sets the sea bed texture; nil removes it.
func (u *UnderWater) SetTexture(img *Image) {
	u.texture = img
	u.notify("texture")
}

// TextureScale returns the texture scale.
func (u *UnderWater) TextureScale() float64 { return u.textureScale }

// SetTextureScale sets the texture scale.
func (u *UnderWater) SetTextureScale(v float64) {
	u.textureScale = v
	u.notify("texture_scale")
}

// TexturePosition returns the texture position.
func (u *UnderWater) TexturePosition() [3]float64 { return u.texturePosition }

// SetTexturePosition sets the texture position.
func (u *UnderWater) SetTexturePosition(p [3]float64) {
	u.texturePosition = p
	u.notify("texture_position")
}

// WireState implements Widget.
func (u *UnderWater) WireState(enc Encoder) (map[string]any, error) {
	state, err := u.effectWireState(enc)
	if err != nil {
		return nil, err
	}
	state["texture"] = nil
	if u.texture != nil {
		if state["texture"], err = enc.Ref(u.texture); err != nil {
			return nil, err
		}
	}
	state["texture_scale"] = u.textureScale
	p := u.texturePosition
	state["texture_position"] = []any{p[0], p[1], p[2]}
	return state, nil
}

// Refs implements Widget.
func (u *UnderWater) Refs() []Widget {
	refs := u.effectRefs()
	if u.texture != nil {
		refs = append(refs, u.texture)
	}
	return refs
}

// ApplyWire implements Patchable.
func (u *UnderWater) ApplyWire(attr string, value any) error {
	const op = "model.under_water"
	switch attr {
	case "texture_scale":
		f, err := wireFloat(op, attr, value)
		if err != nil {
			return err
		}
		u.SetTextureScale(f)
		return nil
	case "texture_position":
		list, ok := toFloats(value)
		if !ok || len(list) != 3 {
			return errors.InvalidInput(op, value, "texture_position must be three numbers")
		}
		u.SetTexturePosition([3]float64{list[0], list[1], list[2]})
		return nil
	}
	return u.applyEffectWire(op, attr, value)
}

// Water renders a water surface above a set of UnderWater blocks.
type Water struct {
	Effect
	underWater      []*UnderWater
	causticsEnabled bool
	causticsFactor  float64
}

// DefaultCausticsFactor is the caustics intensity of a new Water.
const DefaultCausticsFactor = 0.2

// NewWater creates a Water on parent lighting the given blocks.
func NewWater(parent Node, underWater []*UnderWater, opts ...EffectOption) (*Water, error) {
	w := &Water{underWater: underWater, causticsFactor: DefaultCausticsFactor}
	if err := w.init(w, parent, 0, opts); err != nil {
		return nil, err
	}
	return w, nil
}

// Spec implements Widget.
func (w *Water) Spec() Spec { return ganySpec("WaterModel") }

// UnderWaterBlocks returns the blocks lit by the water caustics.
func (w *Water) UnderWaterBlocks() []*UnderWater { return w.underWater }

// SetUnderWaterBlocks replaces the lit blocks.
func (w *Water) SetUnderWaterBlocks(blocks ...*UnderWater) {
	w.underWater = blocks
	w.notify("under_water_blocks")
}

// CausticsEnabled reports whether caustics are drawn.
func (w *Water) CausticsEnabled() bool { return w.causticsEnabled }

// SetCausticsEnabled toggles caustics.
func (w *Water) SetCausticsEnabled(v bool) {
	w.causticsEnabled = v
	w.notify("caustics_enabled")
}

// CausticsFactor returns the caustics intensity.
func (w *Water) CausticsFactor() float64 { return w.causticsFactor }

// SetCausticsFactor sets the caustics intensity.
func (w *Water) SetCausticsFactor(v float64) {
	w.causticsFactor = v
	w.notify("caustics_factor")
}

// WireState implements Widget.
func (w *Water) WireState(enc Encoder) (map[string]any, error) {
	state, err := w.effectWireState(enc)
	if err != nil {
		return nil, err
	}
	blocks, err := encodeRefs(enc, w.underWater)
	if err != nil {
		return nil, err
	}
	state["under_water_blocks"] = blocks
	state["caustics_enabled"] = w.causticsEnabled
	state["caustics_factor"] = w.causticsFactor
	return state, nil
}

// Refs implements Widget.
func (w *Water) Refs() []Widget {
	refs := w.effectRefs()
	for _, u := range w.underWater {
		refs = append(refs, u)
	}
	return refs
}

// ApplyWire implements Patchable.
func (w *Water) ApplyWire(attr string, value any) error {
	const op = "model.water"
	switch attr {
	case "caustics_enabled":
		b, err := wireBool(op, attr, value)
		if err != nil {
			return err
		}
		w.SetCausticsEnabled(b)
		return nil
	case "caustics_factor":
		f, err := wireFloat(op, attr, value)
		if err != nil {
			return err
		}
		w.SetCausticsFactor(f)
		return nil
	}
	return w.applyEffectWire(op, attr, value)
}

func wireFloat(op, attr string, v any) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, errors.InvalidInput(op, v, "%s must be a number", attr)
	}
	return f, nil
}

func wireBool(op, attr string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.InvalidInput(op, v, "%s must be a boolean", attr)
	}
	return b, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case Scalar:
		return float64(x), true
	}
	return 0, false
}

func toFloats(v any) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		return x, true
	case []any:
		out := make([]float64, len(x))
		for i, el := range x {
			f, ok := toFloat(el)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}
