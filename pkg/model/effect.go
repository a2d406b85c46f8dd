package model

import (
	"github.com/chazu/gany/pkg/array"
	"github.com/chazu/gany/pkg/errors"
)

// Effect is a visual transform applied to a parent node. It reads the
// parent's data through its input selector and is itself a node, so
// effects can be chained.
type Effect struct {
	Block
	inputDim     int
	input        Input
	defaultInput func() Input
}

// EffectOption configures an effect at construction.
type EffectOption func(*effectConfig)

type effectConfig struct {
	input Input
	color Color
}

// WithInput sets the initial input. It is resolved like SetInput.
func WithInput(in Input) EffectOption {
	return func(c *effectConfig) { c.input = in }
}

// WithEffectColor overrides the default color of the effect.
func WithEffectColor(col Color) EffectOption {
	return func(c *effectConfig) { c.color = col }
}

func (e *Effect) init(self Node, parent Node, inputDim int, opts []EffectOption) error {
	if parent == nil {
		return errors.InvalidInput("model.effect", nil, "an effect needs a parent")
	}
	var cfg effectConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	e.Block.init(self, array.Source{}, nil)
	e.parent = parent
	e.inputDim = inputDim
	if cfg.color != "" {
		e.defaultColor = cfg.color
	}
	if cfg.input != nil {
		in, err := e.Resolve(cfg.input)
		if err != nil {
			return err
		}
		e.input = in
	}
	return nil
}

// InputDim returns the number of values the effect reads per vertex.
func (e *Effect) InputDim() int { return e.inputDim }

// Input returns the resolved input, computing the default on first use.
func (e *Effect) Input() Input {
	if e.input == nil {
		e.input = e.computeDefault()
	}
	return e.input
}

func (e *Effect) computeDefault() Input {
	if e.defaultInput != nil {
		return e.defaultInput()
	}
	data := e.Data()
	if len(data) == 0 {
		return zeroInput(e.inputDim)
	}
	in, err := e.Resolve(Name(data[0].name))
	if err != nil {
		Logger().Warn("default input unresolvable, using zeros")
		return zeroInput(e.inputDim)
	}
	return in
}

func zeroInput(dim int) Input {
	if dim <= 1 {
		return Scalar(0)
	}
	return Zeros(dim)
}

// Resolve normalizes v against the data visible from the effect without
// changing the effect.
func (e *Effect) Resolve(v Input) (Input, error) {
	return resolver{block: &e.Block, inputDim: e.inputDim}.resolve(v)
}

// SetInput resolves v and commits it. On error the current input is kept.
func (e *Effect) SetInput(v Input) error {
	in, err := e.Resolve(v)
	if err != nil {
		return err
	}
	e.input = in
	e.notify("input")
	return nil
}

// CheckInput re-resolves the current input against the live parent data.
// An input still at its unset default always passes.
func (e *Effect) CheckInput() error {
	if e.input == nil {
		return nil
	}
	_, err := e.Resolve(e.input)
	return err
}

// SetData always fails: an effect reads its parent's data.
func (e *Effect) SetData(...*Data) error {
	return errors.InvalidInput("model.effect", "data", "effect data is read-only")
}

// AddData always fails: an effect reads its parent's data.
func (e *Effect) AddData(...*Data) error {
	return e.SetData()
}

func (e *Effect) effectWireState(enc Encoder) (map[string]any, error) {
	state, err := e.wireState(enc, false)
	if err != nil {
		return nil, err
	}
	parent, err := enc.Ref(e.parent)
	if err != nil {
		return nil, err
	}
	state["parent"] = parent
	state["input"] = e.Input().Wire()
	return state, nil
}

func (e *Effect) effectRefs() []Widget {
	return append([]Widget{e.parent}, e.refs(false)...)
}

func (e *Effect) applyEffectWire(op, attr string, value any) error {
	if attr == "input" {
		in, err := ParseInput(value)
		if err != nil {
			return err
		}
		return e.SetInput(in)
	}
	return applyBlockWire(&e.Block, op, attr, value)
}
