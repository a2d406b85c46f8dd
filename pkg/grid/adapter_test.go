package grid_test

import (
	"path/filepath"
	"testing"

	"github.com/chazu/gany/pkg/errors"
	"github.com/chazu/gany/pkg/grid"
	"github.com/chazu/gany/pkg/vtk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, name string) grid.Grid {
	t.Helper()
	g, err := vtk.Load(filepath.Join("..", "vtk", "testdata", name))
	require.NoError(t, err)
	return g
}

func TestVertices(t *testing.T) {
	v, err := grid.Vertices(load(t, "two_tets.vtk"))
	require.NoError(t, err)
	assert.Equal(t, []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		1, 1, 1,
	}, v)
}

func TestVerticesWithoutPointSet(t *testing.T) {
	g := vtk.NewUnstructuredGrid(nil, nil)
	_, err := grid.Vertices(g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoVertices))
}

func TestTrianglesOfTetraGrid(t *testing.T) {
	tri, err := grid.Triangles(load(t, "two_tets.vtk"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{
		0, 1, 3, 2, 0, 3, 0, 2, 1,
		1, 2, 4, 2, 3, 4, 3, 1, 4,
	}, tri)
}

func TestTrianglesFanQuads(t *testing.T) {
	tri, err := grid.Triangles(load(t, "quads.vtk"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{
		0, 1, 2, 0, 2, 3,
		1, 4, 2,
	}, tri)
}

func TestTrianglesOfHexahedron(t *testing.T) {
	tri, err := grid.Triangles(load(t, "hexahedron.vtk"))
	require.NoError(t, err)
	require.Len(t, tri, 36)
	assert.Equal(t, []uint32{0, 4, 7, 0, 7, 3}, tri[:6])
}

func TestTetrahedraSkipsLowerDimensionCells(t *testing.T) {
	pts := make([][3]float64, 5)
	g := vtk.NewUnstructuredGrid(pts, []grid.Cell{
		{Type: grid.CellTriangle, Points: []int{0, 1, 2}},
		{Type: grid.CellTetra, Points: []int{1, 2, 3, 4}},
		{Type: grid.CellLine, Points: []int{0, 4}},
	})

	tets, err := grid.Tetrahedra(g)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 4}, tets)
}

func TestTetrahedraOfHexahedron(t *testing.T) {
	tets, err := grid.Tetrahedra(load(t, "hexahedron.vtk"))
	require.NoError(t, err)
	assert.Len(t, tets, 20)
}

func TestPointData(t *testing.T) {
	data := grid.PointData(load(t, "two_tets.vtk"))
	require.Len(t, data, 2)

	temp := data[0]
	assert.Equal(t, "temperature", temp.Name)
	require.Len(t, temp.Components, 1)
	assert.Equal(t, "X1", temp.Components[0].Name)
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, temp.Components[0].Values)
	assert.Equal(t, 1.0, temp.Components[0].Min)
	assert.Equal(t, 5.0, temp.Components[0].Max)

	vel := data[1]
	require.Len(t, vel.Components, 3)
	assert.Equal(t, []string{"X1", "X2", "X3"}, []string{
		vel.Components[0].Name, vel.Components[1].Name, vel.Components[2].Name,
	})
	assert.Equal(t, []float32{0, 2, 0, 1, 0}, vel.Components[1].Values)
	assert.Equal(t, -1.0, vel.Components[0].Min)
	assert.Equal(t, 3.0, vel.MagnitudeMax)
}

func TestPointDataKeepsDeclaredComponentNames(t *testing.T) {
	data := grid.PointData(load(t, "two_tets.vtu"))
	require.Len(t, data, 2)

	vel := data[1]
	assert.Equal(t, "u", vel.Components[0].Name)
	assert.Equal(t, "X2", vel.Components[1].Name)
	assert.Equal(t, "w", vel.Components[2].Name)
}

func TestCellTypeDimension(t *testing.T) {
	assert.Equal(t, 0, grid.CellVertex.Dimension())
	assert.Equal(t, 1, grid.CellPolyLine.Dimension())
	assert.Equal(t, 2, grid.CellPixel.Dimension())
	assert.Equal(t, 3, grid.CellWedge.Dimension())
	assert.Equal(t, -1, grid.CellType(42).Dimension())
	assert.Equal(t, "hexahedron", grid.CellHexahedron.String())
}
