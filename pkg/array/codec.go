package array

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/chazu/gany/pkg/errors"
)

// Encoded is the wire form of an array: little-endian element bytes plus
// the dtype tag and shape needed to rebuild it.
type Encoded struct {
	Data  []byte
	DType DType
	Shape []int
}

// Wire returns the attribute value sent to the peer. The Data entry is
// split out into a binary buffer by the transport.
func (e *Encoded) Wire() map[string]any {
	return map[string]any{
		"data":  e.Data,
		"dtype": string(e.DType),
		"shape": append([]int(nil), e.Shape...),
	}
}

// Encode serializes a for the wire. A nil array encodes to nil.
//
// Only signed integer, unsigned integer and float arrays are accepted.
// float64 is narrowed to float32 and int64 to int32. A non-contiguous
// array is copied into row-major order first; a is never modified.
func Encode(a *Array) (*Encoded, error) {
	if a == nil {
		return nil, nil
	}
	if !a.dtype.Numeric() {
		return nil, errors.New(errors.KindUnsupportedDtype).
			Op("array.encode").
			Value(a.dtype).
			Detail("cannot serialize array with dtype %s", a.dtype).
			Build()
	}

	src := a.Contiguous()
	var payload any
	switch buf := src.data.(type) {
	case []float64:
		payload = narrow[float64, float32](contiguousSlice(buf, src))
	case []int64:
		payload = narrow[int64, int32](contiguousSlice(buf, src))
	case []int:
		payload = narrow[int, int32](contiguousSlice(buf, src))
	case []uint:
		payload = narrow[uint, uint64](contiguousSlice(buf, src))
	case []uintptr:
		payload = narrow[uintptr, uint64](contiguousSlice(buf, src))
	case []int8:
		payload = contiguousSlice(buf, src)
	case []int16:
		payload = contiguousSlice(buf, src)
	case []int32:
		payload = contiguousSlice(buf, src)
	case []uint8:
		payload = contiguousSlice(buf, src)
	case []uint16:
		payload = contiguousSlice(buf, src)
	case []uint32:
		payload = contiguousSlice(buf, src)
	case []uint64:
		payload = contiguousSlice(buf, src)
	case []float32:
		payload = contiguousSlice(buf, src)
	default:
		return nil, errors.New(errors.KindUnsupportedDtype).
			Op("array.encode").
			Value(fmt.Sprintf("%T", src.data)).
			Build()
	}

	var out bytes.Buffer
	out.Grow(src.Size() * src.dtype.wire().Size())
	if err := binary.Write(&out, binary.LittleEndian, payload); err != nil {
		return nil, fmt.Errorf("array: encode: %w", err)
	}
	return &Encoded{
		Data:  out.Bytes(),
		DType: a.dtype.wire(),
		Shape: a.Shape(),
	}, nil
}

// contiguousSlice returns the elements of a contiguous view.
func contiguousSlice[T any](buf []T, a *Array) []T {
	return buf[a.offset : a.offset+a.Size()]
}

func narrow[From Number, To Number](in []From) []To {
	out := make([]To, len(in))
	for i, v := range in {
		out[i] = To(v)
	}
	return out
}

// Decode rebuilds an array from its wire form. Accepted inputs are an
// *Encoded, a wire map with "data", "dtype" and "shape" entries (data as
// bytes or base64 text), or a plain nested sequence of numbers, which
// decodes to a float64 array.
func Decode(v any) (*Array, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *Array:
		return val, nil
	case *Encoded:
		return decodeBytes(val.Data, val.DType, val.Shape)
	case map[string]any:
		return decodeWireMap(val)
	}
	return decodeNested(v)
}

func decodeWireMap(m map[string]any) (*Array, error) {
	dt, ok := m["dtype"].(string)
	if !ok {
		return nil, errors.InvalidInput("array.decode", m["dtype"], "missing dtype")
	}
	var data []byte
	switch d := m["data"].(type) {
	case []byte:
		data = d
	case string:
		b, err := base64.StdEncoding.DecodeString(d)
		if err != nil {
			return nil, errors.New(errors.KindInvalidInput).Op("array.decode").Cause(err).Build()
		}
		data = b
	default:
		return nil, errors.InvalidInput("array.decode", m["data"], "data must be bytes, got %T", m["data"])
	}
	shape, err := intList(m["shape"])
	if err != nil {
		return nil, err
	}
	return decodeBytes(data, DType(dt), shape)
}

func intList(v any) ([]int, error) {
	switch s := v.(type) {
	case []int:
		return append([]int(nil), s...), nil
	case []any:
		out := make([]int, len(s))
		for i, e := range s {
			f, ok := toFloat(e)
			if !ok || f < 0 || f != float64(int(f)) {
				return nil, errors.InvalidInput("array.decode", e, "invalid shape entry")
			}
			out[i] = int(f)
		}
		return out, nil
	}
	return nil, errors.InvalidInput("array.decode", v, "shape must be a list, got %T", v)
}

func decodeBytes(data []byte, dt DType, shape []int) (*Array, error) {
	if !dt.Numeric() {
		return nil, errors.New(errors.KindUnsupportedDtype).Op("array.decode").Value(dt).Build()
	}
	n, err := shapeSize("array.decode", shape)
	if err != nil {
		return nil, err
	}
	if n > len(data)/dt.Size() || len(data) != n*dt.Size() {
		return nil, errors.InvalidInput("array.decode", len(data),
			"%d bytes cannot hold %d elements of %s", len(data), n, dt)
	}
	r := bytes.NewReader(data)
	var a *Array
	switch dt {
	case Int8:
		a = New(readAll[int8](r, n))
	case Int16:
		a = New(readAll[int16](r, n))
	case Int32:
		a = New(readAll[int32](r, n))
	case Int64:
		a = New(readAll[int64](r, n))
	case Uint8:
		a = New(readAll[uint8](r, n))
	case Uint16:
		a = New(readAll[uint16](r, n))
	case Uint32:
		a = New(readAll[uint32](r, n))
	case Uint64:
		a = New(readAll[uint64](r, n))
	case Float32:
		a = New(readAll[float32](r, n))
	case Float64:
		a = New(readAll[float64](r, n))
	}
	return a.Reshape(shape...)
}

// readAll reads n little-endian elements. The caller has checked the length.
func readAll[T Number](r *bytes.Reader, n int) []T {
	out := make([]T, n)
	_ = binary.Read(r, binary.LittleEndian, out)
	return out
}

func decodeNested(v any) (*Array, error) {
	var shape []int
	cur := v
	for {
		list, ok := asList(cur)
		if !ok {
			break
		}
		shape = append(shape, len(list))
		if len(list) == 0 {
			break
		}
		cur = list[0]
	}
	if len(shape) == 0 {
		f, ok := toFloat(v)
		if !ok {
			return nil, errors.InvalidInput("array.decode", v, "cannot decode %T as an array", v)
		}
		return New([]float64{f}).Reshape()
	}
	values := make([]float64, 0)
	if err := flatten(v, shape, &values); err != nil {
		return nil, err
	}
	return New(values).Reshape(shape...)
}

func flatten(v any, shape []int, out *[]float64) error {
	if len(shape) == 0 {
		f, ok := toFloat(v)
		if !ok {
			return errors.InvalidInput("array.decode", v, "non-numeric element %T", v)
		}
		*out = append(*out, f)
		return nil
	}
	list, ok := asList(v)
	if !ok || len(list) != shape[0] {
		return errors.InvalidInput("array.decode", v, "ragged nested sequence")
	}
	for _, e := range list {
		if err := flatten(e, shape[1:], out); err != nil {
			return err
		}
	}
	return nil
}

func asList(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []float64:
		out := make([]any, len(s))
		for i, f := range s {
			out[i] = f
		}
		return out, true
	case []float32:
		out := make([]any, len(s))
		for i, f := range s {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, f := range s {
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}
