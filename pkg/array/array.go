// Package array provides the strided numeric arrays carried by gany
// widgets and the binary codec that moves them to the browser peer.
package array

import (
	"fmt"
	"math"

	"github.com/chazu/gany/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Number is the set of element types an Array can be built from.
type Number interface {
	constraints.Integer | constraints.Float
}

// Array is an n-dimensional strided view over a typed Go slice.
// Views produced by Transpose and Reshape share the backing slice; none of
// the package functions ever write to it.
type Array struct {
	dtype   DType
	data    any // []int8 ... []float64, []bool, []complex128
	shape   []int
	strides []int // in elements
	offset  int
}

// New wraps values as a one-dimensional array without copying. Slices of
// named numeric types are copied into int64 or float64 storage.
func New[T Number](values []T) *Array {
	var data any = values
	dtype, ok := dtypeOf(values)
	if !ok {
		data, dtype = widen(values)
	}
	return &Array{
		dtype:   dtype,
		data:    data,
		shape:   []int{len(values)},
		strides: []int{1},
	}
}

func widen[T Number](values []T) (any, DType) {
	var one T = 1
	if one/2 == 0 {
		out := make([]int64, len(values))
		for i, v := range values {
			out[i] = int64(v)
		}
		return out, Int64
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, Float64
}

// NewBool wraps a boolean slice. Boolean arrays cannot be encoded.
func NewBool(values []bool) *Array {
	return &Array{dtype: Bool, data: values, shape: []int{len(values)}, strides: []int{1}}
}

// NewComplex128 wraps a complex slice. Complex arrays cannot be encoded.
func NewComplex128(values []complex128) *Array {
	return &Array{dtype: Complex128, data: values, shape: []int{len(values)}, strides: []int{1}}
}

func dtypeOf[T Number](values []T) (DType, bool) {
	switch any(values).(type) {
	case []int8:
		return Int8, true
	case []int16:
		return Int16, true
	case []int32:
		return Int32, true
	case []int64, []int:
		return Int64, true
	case []uint8:
		return Uint8, true
	case []uint16:
		return Uint16, true
	case []uint32:
		return Uint32, true
	case []uint64, []uint, []uintptr:
		return Uint64, true
	case []float32:
		return Float32, true
	case []float64:
		return Float64, true
	}
	return "", false
}

// DType returns the element type.
func (a *Array) DType() DType { return a.dtype }

// Shape returns a copy of the array shape.
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.shape) }

// Size returns the number of elements.
func (a *Array) Size() int {
	n := 1
	for _, s := range a.shape {
		n *= s
	}
	return n
}

// IsContiguous reports whether the view is laid out in row-major order
// with no gaps.
func (a *Array) IsContiguous() bool {
	expect := 1
	for i := len(a.shape) - 1; i >= 0; i-- {
		if a.shape[i] == 1 {
			continue
		}
		if a.strides[i] != expect {
			return false
		}
		expect *= a.shape[i]
	}
	return true
}

// Reshape returns a view with a new shape over the same elements.
// Non-contiguous arrays are copied first.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	n, err := shapeSize("array.reshape", shape)
	if err != nil {
		return nil, err
	}
	if n != a.Size() {
		return nil, errors.InvalidInput("array.reshape", shape,
			"cannot reshape %d elements into %v", a.Size(), shape)
	}
	src := a.Contiguous()
	return &Array{
		dtype:   src.dtype,
		data:    src.data,
		shape:   append([]int(nil), shape...),
		strides: rowMajorStrides(shape),
		offset:  src.offset,
	}, nil
}

// Transpose returns a view with the axis order reversed.
func (a *Array) Transpose() *Array {
	n := len(a.shape)
	t := &Array{
		dtype:   a.dtype,
		data:    a.data,
		shape:   make([]int, n),
		strides: make([]int, n),
		offset:  a.offset,
	}
	for i := 0; i < n; i++ {
		t.shape[i] = a.shape[n-1-i]
		t.strides[i] = a.strides[n-1-i]
	}
	return t
}

// Contiguous returns a row-major copy of the array, or the array itself
// if it is already contiguous.
func (a *Array) Contiguous() *Array {
	if a.IsContiguous() {
		return a
	}
	var data any
	switch buf := a.data.(type) {
	case []int8:
		data = gather(buf, a)
	case []int16:
		data = gather(buf, a)
	case []int32:
		data = gather(buf, a)
	case []int64:
		data = gather(buf, a)
	case []int:
		data = gather(buf, a)
	case []uint8:
		data = gather(buf, a)
	case []uint16:
		data = gather(buf, a)
	case []uint32:
		data = gather(buf, a)
	case []uint64:
		data = gather(buf, a)
	case []uint:
		data = gather(buf, a)
	case []uintptr:
		data = gather(buf, a)
	case []float32:
		data = gather(buf, a)
	case []float64:
		data = gather(buf, a)
	case []bool:
		data = gather(buf, a)
	case []complex128:
		data = gather(buf, a)
	}
	return &Array{
		dtype:   a.dtype,
		data:    data,
		shape:   a.Shape(),
		strides: rowMajorStrides(a.shape),
	}
}

// Float64s returns the elements in row-major order converted to float64.
// Boolean elements map to 0/1; complex elements to their real part.
func (a *Array) Float64s() []float64 {
	out := make([]float64, 0, a.Size())
	a.walk(func(pos int) {
		out = append(out, a.float64At(pos))
	})
	return out
}

// Float32s returns the elements in row-major order converted to float32.
func (a *Array) Float32s() []float32 {
	out := make([]float32, 0, a.Size())
	a.walk(func(pos int) {
		out = append(out, float32(a.float64At(pos)))
	})
	return out
}

// MinMax returns the smallest and largest element. ok is false for an
// empty array.
func (a *Array) MinMax() (lo, hi float64, ok bool) {
	first := true
	a.walk(func(pos int) {
		v := a.float64At(pos)
		if first {
			lo, hi, first = v, v, false
			return
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	})
	return lo, hi, !first
}

func (a *Array) String() string {
	return fmt.Sprintf("array(%s, shape=%v)", a.dtype, a.shape)
}

func (a *Array) float64At(pos int) float64 {
	switch buf := a.data.(type) {
	case []int8:
		return float64(buf[pos])
	case []int16:
		return float64(buf[pos])
	case []int32:
		return float64(buf[pos])
	case []int64:
		return float64(buf[pos])
	case []int:
		return float64(buf[pos])
	case []uint8:
		return float64(buf[pos])
	case []uint16:
		return float64(buf[pos])
	case []uint32:
		return float64(buf[pos])
	case []uint64:
		return float64(buf[pos])
	case []uint:
		return float64(buf[pos])
	case []uintptr:
		return float64(buf[pos])
	case []float32:
		return float64(buf[pos])
	case []float64:
		return buf[pos]
	case []bool:
		if buf[pos] {
			return 1
		}
		return 0
	case []complex128:
		return real(buf[pos])
	}
	return 0
}

// walk calls fn with the backing-slice position of every element in
// row-major order.
func (a *Array) walk(fn func(pos int)) {
	n := a.Size()
	if n == 0 {
		return
	}
	nd := len(a.shape)
	idx := make([]int, nd)
	pos := a.offset
	for k := 0; k < n; k++ {
		fn(pos)
		for d := nd - 1; d >= 0; d-- {
			idx[d]++
			pos += a.strides[d]
			if idx[d] < a.shape[d] {
				break
			}
			pos -= a.strides[d] * idx[d]
			idx[d] = 0
		}
	}
}

func gather[T any](buf []T, a *Array) []T {
	out := make([]T, 0, a.Size())
	a.walk(func(pos int) {
		out = append(out, buf[pos])
	})
	return out
}

// shapeSize returns the element count of shape, rejecting negative
// dimensions and products that overflow an int.
func shapeSize(op string, shape []int) (int, error) {
	n := 1
	for _, s := range shape {
		if s < 0 {
			return 0, errors.InvalidInput(op, shape, "negative dimension %d", s)
		}
		if s != 0 && n > math.MaxInt/s {
			return 0, errors.InvalidInput(op, shape, "shape %v overflows the element count", shape)
		}
		n *= s
	}
	return n, nil
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}
