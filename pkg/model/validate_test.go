package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/gany/pkg/array"
)

func messages(fs []Finding) string {
	var b strings.Builder
	for _, f := range fs {
		b.WriteString(f.Error())
		b.WriteByte('\n')
	}
	return b.String()
}

func TestValidateCleanScene(t *testing.T) {
	poly := newMesh(t, data1D(), data3D())
	c, err := NewIsoColor(poly)
	require.NoError(t, err)
	w, err := NewWarp(c, WithInput(Name("3d")))
	require.NoError(t, err)
	bar, err := NewColorBar(c)
	require.NoError(t, err)

	r := Validate(NewScene(w), bar)
	assert.True(t, r.OK(), messages(r.Errors))
	assert.Empty(t, r.Warnings)
}

func TestValidateDetectsCycles(t *testing.T) {
	a, b := newMesh(t), newMesh(t)
	a.environmentMeshes = []Node{b}
	b.environmentMeshes = []Node{a}

	r := Validate(NewScene(a))
	require.False(t, r.OK())
	assert.Contains(t, messages(r.Errors), "reference cycle")
}

func TestValidateIndexRanges(t *testing.T) {
	m := newMesh(t)
	m.triangles = []uint32{0, 1, 7, 0}

	r := Validate(NewScene(m))
	msg := messages(r.Errors)
	assert.Contains(t, msg, "not a multiple of 3")
	assert.Contains(t, msg, "references vertex 7")
}

func TestValidateComponentLength(t *testing.T) {
	short := NewData("short", NewComponentValues("x", []float64{1}))
	m := newMesh(t, short)

	r := Validate(NewScene(m))
	assert.Contains(t, messages(r.Errors), `component ("short", "x") has 1 values for 3 vertices`)
}

func TestValidateStaleInput(t *testing.T) {
	poly := newMesh(t, data1D(), data3D())
	c, err := NewIsoColor(poly, WithInput(Name("1d")))
	require.NoError(t, err)

	// The selected data disappears after the input was set.
	require.NoError(t, poly.SetData(data3D()))

	r := Validate(NewScene(c))
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "no longer resolves")
	assert.Equal(t, "IsoColorModel", r.Errors[0].Widget.Spec().ModelName)
}

func TestValidateWarnings(t *testing.T) {
	dup := NewData("1d",
		NewComponentValues("x", []float64{0, 0, 0}),
		NewComponentValues("x", []float64{1, 1, 1}),
	)
	poly := newMesh(t, data1D(), dup)
	c, err := NewIsoColor(newMesh(t, data1D()))
	require.NoError(t, err)
	bar, err := NewColorBar(c)
	require.NoError(t, err)

	r := Validate(NewScene(poly), bar)
	assert.True(t, r.OK())
	msg := messages(r.Warnings)
	assert.Contains(t, msg, `duplicate data name "1d"`)
	assert.Contains(t, msg, `duplicate component name "x"`)
	assert.Contains(t, msg, "not part of the scene")
}

func TestValidateSkipsRemoteVertices(t *testing.T) {
	verts := NewArrayWidget(nil)
	m, err := NewPolyMesh(array.Reference(verts), []uint32{0, 1, 2})
	require.NoError(t, err)

	r := Validate(NewScene(m))
	assert.True(t, r.OK(), messages(r.Errors))
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "Severity(7)", Severity(7).String())
}
