// Package vtk reads VTK grid files into unstructured grids and implements
// the geometry routines gany needs from a grid library: boundary surface
// extraction and tetrahedral decomposition of 3-D cells.
package vtk

import (
	"math"
	"slices"

	"github.com/chazu/gany/pkg/errors"
	"github.com/chazu/gany/pkg/grid"
)

// Compile-time interface checks.
var (
	_ grid.Grid      = (*UnstructuredGrid)(nil)
	_ grid.DataArray = (*DataArray)(nil)
)

// UnstructuredGrid is an in-memory grid of mixed cells.
type UnstructuredGrid struct {
	Points    [][3]float64
	Cells     []grid.Cell
	Arrays    []*DataArray
	hasPoints bool
}

// NewUnstructuredGrid returns a grid over the given points and cells.
// A nil points slice means the grid has no point set.
func NewUnstructuredGrid(points [][3]float64, cells []grid.Cell) *UnstructuredGrid {
	return &UnstructuredGrid{
		Points:    points,
		Cells:     cells,
		hasPoints: points != nil,
	}
}

// AddPointData appends a point array.
func (g *UnstructuredGrid) AddPointData(a *DataArray) {
	g.Arrays = append(g.Arrays, a)
}

func (g *UnstructuredGrid) HasPoints() bool        { return g.hasPoints }
func (g *UnstructuredGrid) NumberOfPoints() int    { return len(g.Points) }
func (g *UnstructuredGrid) Point(i int) [3]float64 { return g.Points[i] }
func (g *UnstructuredGrid) NumberOfCells() int     { return len(g.Cells) }
func (g *UnstructuredGrid) Cell(i int) grid.Cell   { return g.Cells[i] }

// PointData returns the point arrays in the order they were added.
func (g *UnstructuredGrid) PointData() []grid.DataArray {
	out := make([]grid.DataArray, len(g.Arrays))
	for i, a := range g.Arrays {
		out[i] = a
	}
	return out
}

// ---------------------------------------------------------------------------
// Geometry filter
// ---------------------------------------------------------------------------

// cellFaces lists the faces of each 3-D cell type in local point order,
// oriented outward.
var cellFaces = map[grid.CellType][][]int{
	grid.CellTetra: {
		{0, 1, 3}, {1, 2, 3}, {2, 0, 3}, {0, 2, 1},
	},
	grid.CellVoxel: {
		{0, 2, 6, 4}, {1, 5, 7, 3}, {0, 4, 5, 1}, {2, 3, 7, 6}, {0, 1, 3, 2}, {4, 6, 7, 5},
	},
	grid.CellHexahedron: {
		{0, 4, 7, 3}, {1, 2, 6, 5}, {0, 1, 5, 4}, {3, 7, 6, 2}, {0, 3, 2, 1}, {4, 5, 6, 7},
	},
	grid.CellWedge: {
		{0, 1, 2}, {3, 5, 4}, {0, 3, 4, 1}, {1, 4, 5, 2}, {2, 5, 3, 0},
	},
	grid.CellPyramid: {
		{0, 3, 2, 1}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4},
	},
}

type faceEntry struct {
	points []int
	count  int
}

// Surface returns the polygons on the boundary of the grid. 2-D cells are
// passed through (pixels reordered to quads, strips split into
// triangles); faces of 3-D cells are kept when no other 3-D cell shares
// them. 0-D and 1-D cells contribute nothing.
func (g *UnstructuredGrid) Surface() ([][]int, error) {
	var polys [][]int
	faces := make(map[string]*faceEntry)
	var order []string

	for i, c := range g.Cells {
		if err := g.checkCell(i, c); err != nil {
			return nil, err
		}
		switch c.Type {
		case grid.CellTriangle, grid.CellQuad, grid.CellPolygon:
			polys = append(polys, slices.Clone(c.Points))
		case grid.CellPixel:
			p := c.Points
			polys = append(polys, []int{p[0], p[1], p[3], p[2]})
		case grid.CellTriangleStrip:
			p := c.Points
			for k := 0; k+2 < len(p); k++ {
				if k%2 == 0 {
					polys = append(polys, []int{p[k], p[k+1], p[k+2]})
				} else {
					polys = append(polys, []int{p[k+1], p[k], p[k+2]})
				}
			}
		default:
			local, ok := cellFaces[c.Type]
			if !ok {
				continue
			}
			for _, f := range local {
				pts := make([]int, len(f))
				for j, li := range f {
					pts[j] = c.Points[li]
				}
				key := faceKey(pts)
				if e, seen := faces[key]; seen {
					e.count++
					continue
				}
				faces[key] = &faceEntry{points: pts, count: 1}
				order = append(order, key)
			}
		}
	}

	for _, key := range order {
		if e := faces[key]; e.count == 1 {
			polys = append(polys, e.points)
		}
	}
	return polys, nil
}

func faceKey(pts []int) string {
	sorted := slices.Clone(pts)
	slices.Sort(sorted)
	b := make([]byte, 0, len(sorted)*4)
	for _, p := range sorted {
		b = append(b, byte(p>>24), byte(p>>16), byte(p>>8), byte(p))
	}
	return string(b)
}

// ---------------------------------------------------------------------------
// Tetrahedral decomposition
// ---------------------------------------------------------------------------

// cellTetras decomposes each 3-D cell type into tetrahedra over local
// point indices.
var cellTetras = map[grid.CellType][][4]int{
	grid.CellTetra: {{0, 1, 2, 3}},
	grid.CellHexahedron: {
		{0, 1, 3, 4}, {1, 2, 3, 6}, {1, 4, 5, 6}, {3, 4, 6, 7}, {1, 3, 4, 6},
	},
	// voxel points in hexahedron order are 0,1,3,2,4,5,7,6
	grid.CellVoxel: {
		{0, 1, 2, 4}, {1, 3, 2, 7}, {1, 4, 5, 7}, {2, 4, 7, 6}, {1, 2, 4, 7},
	},
	grid.CellWedge: {
		{0, 1, 2, 3}, {1, 2, 3, 4}, {2, 3, 4, 5},
	},
	grid.CellPyramid: {
		{0, 1, 2, 4}, {0, 2, 3, 4},
	},
}

// Triangulate returns the point ids of the tetrahedra of a 3-D cell.
func (g *UnstructuredGrid) Triangulate(cellID int) ([]int, error) {
	if cellID < 0 || cellID >= len(g.Cells) {
		return nil, errors.InvalidInput("vtk.triangulate", cellID, "cell id out of range")
	}
	c := g.Cells[cellID]
	if err := g.checkCell(cellID, c); err != nil {
		return nil, err
	}
	tets, ok := cellTetras[c.Type]
	if !ok {
		return nil, errors.InvalidInput("vtk.triangulate", c.Type,
			"cannot triangulate %s cell", c.Type)
	}
	out := make([]int, 0, len(tets)*4)
	for _, tet := range tets {
		for _, li := range tet {
			out = append(out, c.Points[li])
		}
	}
	return out, nil
}

// validate checks every cell against the point set.
func (g *UnstructuredGrid) validate() error {
	for i, c := range g.Cells {
		if err := g.checkCell(i, c); err != nil {
			return err
		}
	}
	for _, a := range g.Arrays {
		if len(a.values)%a.components != 0 {
			return errors.New(errors.KindMalformedGrid).
				Op("vtk.point_data").
				Detail("array %q has %d values for %d components", a.name, len(a.values), a.components).
				Build()
		}
		if g.hasPoints && a.NumberOfTuples() != len(g.Points) {
			return errors.New(errors.KindMalformedGrid).
				Op("vtk.point_data").
				Detail("array %q has %d tuples for %d points", a.name, a.NumberOfTuples(), len(g.Points)).
				Build()
		}
	}
	return nil
}

// cellSizes is the fixed point count of each cell type; 0 means variable.
var cellSizes = map[grid.CellType]int{
	grid.CellVertex:     1,
	grid.CellLine:       2,
	grid.CellTriangle:   3,
	grid.CellPixel:      4,
	grid.CellQuad:       4,
	grid.CellTetra:      4,
	grid.CellVoxel:      8,
	grid.CellHexahedron: 8,
	grid.CellWedge:      6,
	grid.CellPyramid:    5,
}

func (g *UnstructuredGrid) checkCell(i int, c grid.Cell) error {
	if want, ok := cellSizes[c.Type]; ok && len(c.Points) != want {
		return errors.New(errors.KindMalformedGrid).
			Op("vtk.cell").
			Value(i).
			Detail("%s cell %d has %d points, want %d", c.Type, i, len(c.Points), want).
			Build()
	}
	for _, p := range c.Points {
		if p < 0 || p >= len(g.Points) {
			return errors.New(errors.KindMalformedGrid).
				Op("vtk.cell").
				Value(p).
				Detail("cell %d references point %d of %d", i, p, len(g.Points)).
				Build()
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Point data arrays
// ---------------------------------------------------------------------------

// DataArray is a tuple-major point array.
type DataArray struct {
	name           string
	components     int
	componentNames []string
	values         []float64
}

// NewDataArray creates an array of len(values)/components tuples.
// componentNames may be shorter than components or nil.
func NewDataArray(name string, components int, values []float64, componentNames ...string) *DataArray {
	if components < 1 {
		components = 1
	}
	return &DataArray{
		name:           name,
		components:     components,
		componentNames: componentNames,
		values:         values,
	}
}

func (a *DataArray) Name() string            { return a.name }
func (a *DataArray) NumberOfComponents() int { return a.components }
func (a *DataArray) NumberOfTuples() int     { return len(a.values) / a.components }

func (a *DataArray) Value(i, comp int) float64 {
	return a.values[i*a.components+comp]
}

func (a *DataArray) ComponentName(i int) (string, bool) {
	if i < len(a.componentNames) && a.componentNames[i] != "" {
		return a.componentNames[i], true
	}
	return "", false
}

// Range returns the min and max of a component, or of the tuple
// magnitude when comp is -1. An empty array has range (0, 0).
func (a *DataArray) Range(comp int) (float64, float64) {
	n := a.NumberOfTuples()
	if n == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		var v float64
		if comp < 0 {
			if a.components == 1 {
				v = math.Abs(a.Value(i, 0))
			} else {
				sum := 0.0
				for c := 0; c < a.components; c++ {
					x := a.Value(i, c)
					sum += x * x
				}
				v = math.Sqrt(sum)
			}
		} else {
			v = a.Value(i, comp)
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
