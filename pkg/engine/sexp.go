package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/gany/pkg/kernel"
	"github.com/chazu/gany/pkg/model"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpWidget wraps any model widget: components, data, meshes, effects,
// color bars and images.
type sexpWidget struct {
	w model.Widget
}

func (s *sexpWidget) SexpString(ps *zygo.PrintState) string {
	switch w := s.w.(type) {
	case *model.Component:
		return fmt.Sprintf("(component %q)", w.Name())
	case *model.Data:
		return fmt.Sprintf("(data %q)", w.Name())
	}
	return fmt.Sprintf("(%s)", s.w.Spec().ModelName)
}
func (s *sexpWidget) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel solid until it is tessellated.
type sexpSolid struct {
	s kernel.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	min, max := s.s.BoundingBox()
	return fmt.Sprintf("(solid %v %v)", min, max)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpInput carries an explicit input selector such as (pair "d" "c").
type sexpInput struct {
	in model.Input
}

func (s *sexpInput) SexpString(ps *zygo.PrintState) string { return s.in.String() }
func (s *sexpInput) Type() *zygo.RegisteredType          { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: a flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// arg returns positional argument i.
func (pa kwArgs) arg(i int, what string) (zygo.Sexp, error) {
	if i >= len(pa.positional) {
		return nil, fmt.Errorf("missing %s argument", what)
	}
	return pa.positional[i], nil
}

// float reads an optional numeric keyword.
func (pa kwArgs) float(name string) (float64, bool, error) {
	v, ok := pa.kw[name]
	if !ok {
		return 0, false, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", name, err)
	}
	return f, true, nil
}

// flag reads an optional boolean keyword. A bare flag counts as true.
func (pa kwArgs) flag(name string) (bool, bool, error) {
	v, ok := pa.kw[name]
	if !ok {
		return false, false, nil
	}
	if v == zygo.SexpNull {
		return true, true, nil
	}
	b, ok := v.(*zygo.SexpBool)
	if !ok {
		return false, true, fmt.Errorf("%s: expected boolean, got %s", name, v.SexpString(nil))
	}
	return b.Val, true, nil
}

// str reads an optional string or keyword valued keyword.
func (pa kwArgs) str(name string) (string, bool, error) {
	v, ok := pa.kw[name]
	if !ok {
		return "", false, nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return "", true, fmt.Errorf("%s: %w", name, err)
	}
	return s, true, nil
}

// unknown reports keywords outside of allowed, so typos do not pass
// silently.
func (pa kwArgs) unknown(allowed ...string) error {
	var bad []string
	for k := range pa.kw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			bad = append(bad, ":"+k)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return fmt.Errorf("unknown keyword %s", strings.Join(bad, ", "))
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// items returns the elements of a list, or s itself when it is a single
// value.
func items(s zygo.Sexp) []zygo.Sexp {
	if l, err := sexpListToSlice(s); err == nil {
		return l
	}
	return []zygo.Sexp{s}
}

// toFloats flattens a (possibly nested) list of numbers.
func toFloats(s zygo.Sexp) ([]float64, error) {
	var out []float64
	var walk func(zygo.Sexp) error
	walk = func(s zygo.Sexp) error {
		if l, err := sexpListToSlice(s); err == nil {
			for _, el := range l {
				if err := walk(el); err != nil {
					return err
				}
			}
			return nil
		}
		f, err := toFloat64(s)
		if err != nil {
			return err
		}
		out = append(out, f)
		return nil
	}
	if err := walk(s); err != nil {
		return nil, err
	}
	return out, nil
}

// toIndices reads a flat or nested list of vertex indices.
func toIndices(s zygo.Sexp) ([]uint32, error) {
	fs, err := toFloats(s)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(fs))
	for i, f := range fs {
		if f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
			return nil, fmt.Errorf("index %v is not a non-negative integer", f)
		}
		out[i] = uint32(f)
	}
	return out, nil
}

// toGo converts a Sexp into the plain values accepted by model.ParseInput
// and model.ParseAxes.
func toGo(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *sexpInput:
		return v.in, nil
	case *zygo.SexpStr:
		return strings.TrimPrefix(v.S, kwPrefix), nil
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	}
	l, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("unsupported value %s", s.SexpString(nil))
	}
	out := make([]any, len(l))
	for i, el := range l {
		if out[i], err = toGo(el); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// toInput reads an effect input: a data name, a number, (pair "d" "c") or
// a list of those.
func toInput(s zygo.Sexp) (model.Input, error) {
	v, err := toGo(s)
	if err != nil {
		return nil, err
	}
	return model.ParseInput(v)
}

func toWidget(s zygo.Sexp) (model.Widget, error) {
	if w, ok := s.(*sexpWidget); ok {
		return w.w, nil
	}
	return nil, fmt.Errorf("expected model, got %T (%s)", s, s.SexpString(nil))
}

// toNode extracts a mesh, point cloud or effect.
func toNode(s zygo.Sexp) (model.Node, error) {
	w, err := toWidget(s)
	if err != nil {
		return nil, err
	}
	n, ok := w.(model.Node)
	if !ok {
		return nil, fmt.Errorf("expected mesh or effect, got %s", w.Spec().ModelName)
	}
	return n, nil
}

func toNodes(s zygo.Sexp) ([]model.Node, error) {
	var out []model.Node
	for _, el := range items(s) {
		n, err := toNode(el)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func toData(s zygo.Sexp) ([]*model.Data, error) {
	var out []*model.Data
	for _, el := range items(s) {
		w, err := toWidget(el)
		if err != nil {
			return nil, err
		}
		d, ok := w.(*model.Data)
		if !ok {
			return nil, fmt.Errorf("expected data, got %s", w.Spec().ModelName)
		}
		out = append(out, d)
	}
	return out, nil
}

func toComponents(s zygo.Sexp) ([]*model.Component, error) {
	var out []*model.Component
	for _, el := range items(s) {
		w, err := toWidget(el)
		if err != nil {
			return nil, err
		}
		c, ok := w.(*model.Component)
		if !ok {
			return nil, fmt.Errorf("expected component, got %s", w.Spec().ModelName)
		}
		out = append(out, c)
	}
	return out, nil
}

func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.s, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 reads exactly three numbers.
func toVec3(s zygo.Sexp) ([3]float64, error) {
	fs, err := toFloats(s)
	if err != nil {
		return [3]float64{}, err
	}
	if len(fs) != 3 {
		return [3]float64{}, fmt.Errorf("expected 3 numbers, got %d", len(fs))
	}
	return [3]float64{fs[0], fs[1], fs[2]}, nil
}
