package model

import (
	"fmt"
	"strings"

	"github.com/chazu/gany/pkg/errors"
)

// Input selects what an effect reads: a data name, a literal, a
// (data, component) pair, or a tuple of those.
type Input interface {
	// Wire returns the plain representation sent to the peer.
	Wire() any
	String() string
	isInput()
}

// Name selects a whole Data by name.
type Name string

// Scalar is a literal value used instead of a data reference.
type Scalar float64

// Pair selects one component of one Data.
type Pair struct {
	Data      string
	Component string
}

// Tuple is an ordered selector with one element per input dimension.
type Tuple []Input

func (Name) isInput()   {}
func (Scalar) isInput() {}
func (Pair) isInput()   {}
func (Tuple) isInput()  {}

func (n Name) Wire() any   { return string(n) }
func (s Scalar) Wire() any { return float64(s) }
func (p Pair) Wire() any   { return []any{p.Data, p.Component} }
func (t Tuple) Wire() any {
	out := make([]any, len(t))
	for i, el := range t {
		out[i] = el.Wire()
	}
	return out
}

func (n Name) String() string   { return fmt.Sprintf("%q", string(n)) }
func (s Scalar) String() string { return fmt.Sprint(float64(s)) }
func (p Pair) String() string   { return fmt.Sprintf("(%q, %q)", p.Data, p.Component) }
func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, el := range t {
		parts[i] = el.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Zeros returns a tuple of n literal zeros.
func Zeros(n int) Tuple {
	t := make(Tuple, n)
	for i := range t {
		t[i] = Scalar(0)
	}
	return t
}

// ParseInput converts a plain value (as produced by Wire or decoded from
// JSON) into an Input. Nested two-string lists become pairs.
func ParseInput(v any) (Input, error) {
	return parseInput(v, false)
}

func parseInput(v any, nested bool) (Input, error) {
	switch x := v.(type) {
	case Input:
		return x, nil
	case string:
		return Name(x), nil
	case float64:
		return Scalar(x), nil
	case float32:
		return Scalar(x), nil
	case int:
		return Scalar(x), nil
	case int64:
		return Scalar(x), nil
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return parseInput(items, nested)
	case []any:
		if nested && len(x) == 2 {
			d, ok1 := x[0].(string)
			c, ok2 := x[1].(string)
			if ok1 && ok2 {
				return Pair{Data: d, Component: c}, nil
			}
		}
		t := make(Tuple, len(x))
		for i, el := range x {
			in, err := parseInput(el, true)
			if err != nil {
				return nil, err
			}
			t[i] = in
		}
		return t, nil
	}
	return nil, errors.InvalidInput("model.input", v, "%v is not a valid input", v)
}

// resolver normalizes inputs against the data visible from a block.
type resolver struct {
	block    *Block
	inputDim int
}

func (r resolver) resolve(v Input) (Input, error) {
	switch x := v.(type) {
	case Name:
		return r.resolveName(x)
	case Pair:
		return r.resolveTuple(Tuple{Name(x.Data), Name(x.Component)})
	case Tuple:
		return r.resolveTuple(x)
	case Scalar:
		// Water has input dimension 0 and falls back to zeroInput, which
		// is Scalar(0), so a scalar must resolve there too.
		if r.inputDim <= 1 {
			return x, nil
		}
	}
	return nil, errors.InvalidInput("model.input", v, "%v is not a valid input", v)
}

func (r resolver) resolveName(n Name) (Input, error) {
	d, err := r.block.DataNamed(string(n))
	if err != nil {
		return nil, err
	}
	pairs := d.Pairs()
	switch {
	case d.Dim() == r.inputDim:
		if r.inputDim == 1 {
			return Name(d.name), nil
		}
		return pairTuple(pairs), nil
	case d.Dim() < r.inputDim:
		t := pairTuple(pairs)
		for len(t) < r.inputDim {
			t = append(t, Scalar(0))
		}
		return t, nil
	default:
		return pairTuple(pairs[:r.inputDim]), nil
	}
}

func pairTuple(pairs []Pair) Tuple {
	t := make(Tuple, len(pairs))
	for i, p := range pairs {
		t[i] = p
	}
	return t
}

func (r resolver) resolveTuple(t Tuple) (Input, error) {
	// A two element tuple on a one dimensional effect is a single
	// component selector. This would clash with a two dimensional input,
	// which no effect has yet.
	if r.inputDim == 1 && len(t) == 2 {
		return r.resolveElement(t)
	}
	if len(t) != r.inputDim {
		return nil, errors.New(errors.KindDimensionMismatch).
			Op("model.input").
			Value(t.Wire()).
			Detail("input is of dimension %d but expected input dimension is %d", len(t), r.inputDim).
			Build()
	}
	out := make(Tuple, len(t))
	for i, el := range t {
		res, err := r.resolveElement(el)
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}

func (r resolver) resolveElement(el Input) (Input, error) {
	switch x := el.(type) {
	case Pair:
		if _, err := r.block.Lookup(x.Data, x.Component); err != nil {
			return nil, invalidComponent(x, err)
		}
		return x, nil
	case Tuple:
		if len(x) == 2 {
			d, ok1 := x[0].(Name)
			c, ok2 := x[1].(Name)
			if ok1 && ok2 {
				return r.resolveElement(Pair{Data: string(d), Component: string(c)})
			}
		}
		return nil, invalidComponent(x, nil)
	case Name:
		d, err := r.block.DataNamed(string(x))
		if err != nil {
			return nil, invalidComponent(x, err)
		}
		if d.Dim() != 1 {
			return nil, errors.New(errors.KindAmbiguousData).
				Op("model.input").
				Path(d.name).
				Detail("%s has %d components, please select one", x, d.Dim()).
				Build()
		}
		return Pair{Data: d.name, Component: d.components[0].name}, nil
	case Scalar:
		return x, nil
	}
	return nil, errors.InvalidInput("model.input", el, "%v is not a valid input", el)
}

func invalidComponent(el Input, cause error) error {
	return errors.New(errors.KindInvalidComponent).
		Op("model.input").
		Value(el.Wire()).
		Cause(cause).
		Detail("%s is not a valid component", el).
		Build()
}
