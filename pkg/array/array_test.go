package array

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"

	"github.com/chazu/gany/pkg/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Array views
// ---------------------------------------------------------------------------

func TestReshapeSharesBuffer(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6}
	a, err := New(vals).Reshape(2, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.True(t, a.IsContiguous())
	assert.Equal(t, vals, a.Float64s())
}

func TestReshapeRejectsSizeMismatch(t *testing.T) {
	_, err := New([]int32{1, 2, 3}).Reshape(2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestTransposeIsNotContiguous(t *testing.T) {
	a, err := New([]float32{1, 2, 3, 4, 5, 6}).Reshape(2, 3)
	require.NoError(t, err)

	tr := a.Transpose()
	assert.Equal(t, []int{3, 2}, tr.Shape())
	assert.False(t, tr.IsContiguous())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, tr.Float64s())

	c := tr.Contiguous()
	assert.True(t, c.IsContiguous())
	assert.Equal(t, tr.Float64s(), c.Float64s())
}

func TestMinMax(t *testing.T) {
	lo, hi, ok := New([]int16{4, -2, 9, 0}).MinMax()
	require.True(t, ok)
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 9.0, hi)

	_, _, ok = New([]float64{}).MinMax()
	assert.False(t, ok)
}

type celsius float64

func TestNewWidensNamedTypes(t *testing.T) {
	a := New([]celsius{1.5, 2.5})
	assert.Equal(t, Float64, a.DType())
	assert.Equal(t, []float64{1.5, 2.5}, a.Float64s())
}

// ---------------------------------------------------------------------------
// Encode
// ---------------------------------------------------------------------------

func TestEncodeNil(t *testing.T) {
	enc, err := Encode(nil)
	require.NoError(t, err)
	assert.Nil(t, enc)
}

func TestEncodeNarrowsFloat64(t *testing.T) {
	enc, err := Encode(New([]float64{1.5, -2.25, 3}))
	require.NoError(t, err)

	assert.Equal(t, Float32, enc.DType)
	assert.Equal(t, []int{3}, enc.Shape)
	require.Len(t, enc.Data, 12)

	got := make([]float32, 3)
	for i := range got {
		got[i] = math.Float32frombits(binary.LittleEndian.Uint32(enc.Data[i*4:]))
	}
	assert.Equal(t, []float32{1.5, -2.25, 3}, got)
}

func TestEncodeNarrowsInt64(t *testing.T) {
	enc, err := Encode(New([]int64{7, -1}))
	require.NoError(t, err)

	assert.Equal(t, Int32, enc.DType)
	require.Len(t, enc.Data, 8)
	assert.Equal(t, int32(7), int32(binary.LittleEndian.Uint32(enc.Data[0:])))
	assert.Equal(t, int32(-1), int32(binary.LittleEndian.Uint32(enc.Data[4:])))
}

func TestEncodeKeepsOtherNumericTypes(t *testing.T) {
	tests := []struct {
		name string
		arr  *Array
		want DType
	}{
		{"uint8", New([]uint8{1, 2}), Uint8},
		{"int16", New([]int16{1, 2}), Int16},
		{"uint32", New([]uint32{1, 2}), Uint32},
		{"float32", New([]float32{1, 2}), Float32},
		{"uint64", New([]uint64{1, 2}), Uint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Encode(tt.arr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, enc.DType)
			assert.Len(t, enc.Data, 2*tt.want.Size())
		})
	}
}

func TestEncodeRejectsNonNumeric(t *testing.T) {
	for _, a := range []*Array{
		NewBool([]bool{true, false}),
		NewComplex128([]complex128{1 + 2i}),
	} {
		_, err := Encode(a)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrUnsupportedDtype), "dtype %s", a.DType())
	}
}

func TestEncodeTransposedDoesNotMutateInput(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6}
	orig := append([]float64(nil), vals...)
	a, err := New(vals).Reshape(2, 3)
	require.NoError(t, err)
	tr := a.Transpose()

	enc, err := Encode(tr)
	require.NoError(t, err)

	assert.Equal(t, orig, vals)
	assert.False(t, tr.IsContiguous())
	assert.Equal(t, []int{3, 2}, enc.Shape)

	back, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, back.Float64s())
}

// ---------------------------------------------------------------------------
// Decode
// ---------------------------------------------------------------------------

func TestDecodeNestedSequence(t *testing.T) {
	a, err := Decode([]any{
		[]any{1.0, 2.0, 3.0},
		[]any{4.0, 5.0, 6.0},
	})
	require.NoError(t, err)

	assert.Equal(t, Float64, a.DType())
	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, a.Float64s())
}

func TestDecodeRaggedSequence(t *testing.T) {
	_, err := Decode([]any{[]any{1.0, 2.0}, []any{3.0}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestDecodeWireMapBase64(t *testing.T) {
	enc, err := Encode(New([]uint16{10, 20, 30, 40}))
	require.NoError(t, err)

	a, err := Decode(map[string]any{
		"data":  base64.StdEncoding.EncodeToString(enc.Data),
		"dtype": "uint16",
		"shape": []any{2.0, 2.0},
	})
	require.NoError(t, err)

	if diff := cmp.Diff([]int{2, 2}, a.Shape()); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{10, 20, 30, 40}, a.Float64s())
}

func TestDecodeWireMapLengthMismatch(t *testing.T) {
	_, err := Decode(map[string]any{
		"data":  []byte{1, 2, 3},
		"dtype": "float32",
		"shape": []any{1.0},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestDecodeRejectsOverflowingShape(t *testing.T) {
	huge := []any{float64(1 << 62), 4.0}
	_, err := Decode(map[string]any{"data": []byte{}, "dtype": "float32", "shape": huge})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput), "got %v", err)

	_, err = Decode(&Encoded{DType: Uint8, Shape: []int{1 << 32, 1 << 32}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput), "got %v", err)

	_, err = New([]float64{}).Reshape(1<<62, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput), "got %v", err)
}

// ---------------------------------------------------------------------------
// Round trip
// ---------------------------------------------------------------------------

func TestEncodeDecodeRoundTrip(t *testing.T) {
	scalar, err := New([]float64{2.5}).Reshape()
	require.NoError(t, err)
	grid, err := New([]int16{1, -2, 3, -4, 5, -6}).Reshape(3, 2)
	require.NoError(t, err)

	tests := []struct {
		name string
		arr  *Array
		want DType
	}{
		{"int8", New([]int8{-128, 0, 127}), Int8},
		{"int16", New([]int16{-32768, 7, 32767}), Int16},
		{"int32", New([]int32{math.MinInt32, 0, math.MaxInt32}), Int32},
		{"int64 narrows", New([]int64{-5, 0, 1 << 30}), Int32},
		{"int narrows", New([]int{-1, 2, 3}), Int32},
		{"uint8", New([]uint8{0, 128, 255}), Uint8},
		{"uint16", New([]uint16{0, 65535}), Uint16},
		{"uint32", New([]uint32{0, math.MaxUint32}), Uint32},
		{"uint64", New([]uint64{0, 1 << 40}), Uint64},
		{"uint", New([]uint{3, 1 << 33}), Uint64},
		{"float32", New([]float32{-0.5, 1e-3, 3.25}), Float32},
		{"float64 narrows", New([]float64{1.5, -0.25, 1024}), Float32},
		{"zero-d", scalar, Float32},
		{"empty", New([]int32{}), Int32},
		{"two-d", grid, Int16},
		{"transposed", grid.Transpose(), Int16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Encode(tt.arr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, enc.DType)
			assert.Len(t, enc.Data, tt.arr.Size()*tt.want.Size())

			back, err := Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, back.DType())
			if tt.want != tt.arr.DType() {
				assert.NotEqual(t, tt.arr.DType(), back.DType(), "narrowing changes the dtype")
			}
			assert.Equal(t, tt.arr.Shape(), back.Shape())
			if diff := cmp.Diff(tt.arr.Float64s(), back.Float64s()); diff != "" {
				t.Errorf("values changed (-want +got):\n%s", diff)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Source
// ---------------------------------------------------------------------------

type stubRef struct{ a *Array }

func (r stubRef) Array() *Array       { return r.a }
func (r stubRef) Wire() (any, error) { return "IPY_MODEL_abc", nil }

func TestSourceWire(t *testing.T) {
	var empty Source
	assert.True(t, empty.IsZero())
	v, err := empty.Wire()
	require.NoError(t, err)
	assert.Nil(t, v)

	inline := Inline(New([]float64{1, 2}))
	v, err = inline.Wire()
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "float32", m["dtype"])
	assert.Equal(t, 2, inline.Len())

	ref := Reference(stubRef{a: New([]int32{1, 2, 3})})
	assert.True(t, ref.IsRef())
	v, err = ref.Wire()
	require.NoError(t, err)
	assert.Equal(t, "IPY_MODEL_abc", v)
	assert.Equal(t, 3, ref.Len())
}
