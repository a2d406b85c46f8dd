package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	err := New(KindAmbiguousData).
		Op("warp.input").
		Path("3d").
		Detail("data has %d components", 3).
		Build()

	assert.Equal(t, `warp.input: ambiguous_data at 3d: data has 3 components`, err.Error())
}

func TestErrorStringWithCause(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := MalformedGrid("vtk.load", cause)

	assert.Equal(t, "vtk.load: malformed_grid (caused by: unexpected EOF)", err.Error())
	assert.Same(t, cause, err.Unwrap())
}

func TestIsMatchesKindOnly(t *testing.T) {
	err := NotFound("block.lookup", "1d", "y")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrInvalidComponent))

	wrapped := fmt.Errorf("model: %w", err)
	assert.True(t, Is(wrapped, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestAsRecoversStructuredError(t *testing.T) {
	err := fmt.Errorf("outer: %w", InvalidInput("resolve", 42, "unexpected %T", 42))

	var e *Error
	require.True(t, As(err, &e))
	assert.Equal(t, KindInvalidInput, e.Kind)
	assert.Equal(t, 42, e.Value)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
}

func TestBuilderIsReusable(t *testing.T) {
	b := New(KindInvalidInput).Op("a")
	first := b.Build()
	b.Op("b")
	second := b.Build()

	assert.Equal(t, "a", first.Op)
	assert.Equal(t, "b", second.Op)
}
