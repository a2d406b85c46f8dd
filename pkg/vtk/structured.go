package vtk

import (
	"fmt"

	"github.com/chazu/gany/pkg/errors"
	"github.com/chazu/gany/pkg/grid"
)

// StructuredGrid is a curvilinear grid: an i-j-k lattice of points with
// implicit connectivity.
type StructuredGrid struct {
	Dims   [3]int
	Points [][3]float64
}

// NewStructuredGrid checks that points fills the lattice.
func NewStructuredGrid(dims [3]int, points [][3]float64) (*StructuredGrid, error) {
	n := 1
	for _, d := range dims {
		if d < 1 {
			return nil, errors.MalformedGrid("vtk.structured", fmt.Errorf("invalid dimensions %v", dims))
		}
		if d > len(points)/n {
			return nil, errors.MalformedGrid("vtk.structured",
				fmt.Errorf("dimensions %v exceed the %d points given", dims, len(points)))
		}
		n *= d
	}
	if len(points) != n {
		return nil, errors.MalformedGrid("vtk.structured",
			fmt.Errorf("dimensions %v need %d points, got %d", dims, n, len(points)))
	}
	return &StructuredGrid{Dims: dims, Points: points}, nil
}

// AppendFilter converts a structured grid into an unstructured one. The
// lattice becomes hexahedra in 3-D, quads in 2-D and lines in 1-D.
func AppendFilter(s *StructuredGrid) *UnstructuredGrid {
	var axes []int
	for a, d := range s.Dims {
		if d > 1 {
			axes = append(axes, a)
		}
	}
	nx, ny := s.Dims[0], s.Dims[1]
	id := func(i, j, k int) int { return i + nx*(j+ny*k) }

	var cells []grid.Cell
	switch len(axes) {
	case 3:
		for k := 0; k < s.Dims[2]-1; k++ {
			for j := 0; j < ny-1; j++ {
				for i := 0; i < nx-1; i++ {
					cells = append(cells, grid.Cell{
						Type: grid.CellHexahedron,
						Points: []int{
							id(i, j, k), id(i+1, j, k), id(i+1, j+1, k), id(i, j+1, k),
							id(i, j, k+1), id(i+1, j, k+1), id(i+1, j+1, k+1), id(i, j+1, k+1),
						},
					})
				}
			}
		}
	case 2:
		a, b := axes[0], axes[1]
		step := func(base [3]int, axis int) [3]int {
			base[axis]++
			return base
		}
		for v := 0; v < s.Dims[b]-1; v++ {
			for u := 0; u < s.Dims[a]-1; u++ {
				var p0 [3]int
				p0[a], p0[b] = u, v
				p1 := step(p0, a)
				p2 := step(p1, b)
				p3 := step(p0, b)
				cells = append(cells, grid.Cell{
					Type: grid.CellQuad,
					Points: []int{
						id(p0[0], p0[1], p0[2]), id(p1[0], p1[1], p1[2]),
						id(p2[0], p2[1], p2[2]), id(p3[0], p3[1], p3[2]),
					},
				})
			}
		}
	case 1:
		for u := 0; u < s.Dims[axes[0]]-1; u++ {
			var p0 [3]int
			p0[axes[0]] = u
			p1 := p0
			p1[axes[0]]++
			cells = append(cells, grid.Cell{
				Type:   grid.CellLine,
				Points: []int{id(p0[0], p0[1], p0[2]), id(p1[0], p1[1], p1[2])},
			})
		}
	}

	return NewUnstructuredGrid(s.Points, cells)
}
