// Package grid converts unstructured grids into the flat vertex,
// connectivity and per-vertex attribute arrays that gany meshes carry.
//
// The grid itself is supplied by a grid library through the Grid
// interface; package vtk provides the file-backed implementation.
package grid

// CellType is a cell type code. Values follow the VTK numbering so that
// grids read from files need no translation.
type CellType int

const (
	CellEmpty         CellType = 0
	CellVertex        CellType = 1
	CellPolyVertex    CellType = 2
	CellLine          CellType = 3
	CellPolyLine      CellType = 4
	CellTriangle      CellType = 5
	CellTriangleStrip CellType = 6
	CellPolygon       CellType = 7
	CellPixel         CellType = 8
	CellQuad          CellType = 9
	CellTetra         CellType = 10
	CellVoxel         CellType = 11
	CellHexahedron    CellType = 12
	CellWedge         CellType = 13
	CellPyramid       CellType = 14
)

// String returns a human-readable name for the cell type.
func (c CellType) String() string {
	switch c {
	case CellEmpty:
		return "empty"
	case CellVertex:
		return "vertex"
	case CellPolyVertex:
		return "poly-vertex"
	case CellLine:
		return "line"
	case CellPolyLine:
		return "poly-line"
	case CellTriangle:
		return "triangle"
	case CellTriangleStrip:
		return "triangle-strip"
	case CellPolygon:
		return "polygon"
	case CellPixel:
		return "pixel"
	case CellQuad:
		return "quad"
	case CellTetra:
		return "tetra"
	case CellVoxel:
		return "voxel"
	case CellHexahedron:
		return "hexahedron"
	case CellWedge:
		return "wedge"
	case CellPyramid:
		return "pyramid"
	default:
		return "unknown"
	}
}

// Dimension returns the topological dimension of the cell type, or -1
// for unknown types.
func (c CellType) Dimension() int {
	switch c {
	case CellEmpty, CellVertex, CellPolyVertex:
		return 0
	case CellLine, CellPolyLine:
		return 1
	case CellTriangle, CellTriangleStrip, CellPolygon, CellPixel, CellQuad:
		return 2
	case CellTetra, CellVoxel, CellHexahedron, CellWedge, CellPyramid:
		return 3
	}
	return -1
}

// Cell is one cell of a grid: its type and the ids of its points.
type Cell struct {
	Type   CellType
	Points []int
}

// Dimension returns the topological dimension of the cell.
func (c Cell) Dimension() int { return c.Type.Dimension() }

// Grid is the query surface of a loaded unstructured grid.
type Grid interface {
	// HasPoints reports whether the grid carries a point set at all.
	HasPoints() bool
	NumberOfPoints() int
	Point(i int) [3]float64
	NumberOfCells() int
	Cell(i int) Cell
	// Surface runs the geometry filter and returns the boundary polygons
	// as point-id lists.
	Surface() ([][]int, error)
	// Triangulate splits a 3-D cell into tetrahedra and returns their
	// point ids, four per tetrahedron.
	Triangulate(cellID int) ([]int, error)
	// PointData returns the per-point arrays in file order.
	PointData() []DataArray
}

// DataArray is a per-point attribute array of a Grid.
type DataArray interface {
	Name() string
	NumberOfComponents() int
	// ComponentName returns the declared name of component i, if any.
	ComponentName(i int) (string, bool)
	NumberOfTuples() int
	// Value returns component comp of tuple i.
	Value(i, comp int) float64
	// Range returns the value range of component comp; comp == -1 selects
	// the vector magnitude.
	Range(comp int) (min, max float64)
}
