package grid

import (
	"fmt"

	"github.com/chazu/gany/pkg/errors"
)

// PointComponent is one scalar component of a point array.
type PointComponent struct {
	Name   string
	Values []float32
	Min    float64
	Max    float64
}

// PointArray is a named point-data array split into its components.
type PointArray struct {
	Name       string
	Components []PointComponent
	// Magnitude range over all components.
	MagnitudeMin float64
	MagnitudeMax float64
}

// Vertices returns the point coordinates as a flat float32 array
// (x0, y0, z0, x1, ...). It fails with ErrNoVertices if the grid has no
// point set.
func Vertices(g Grid) ([]float32, error) {
	if !g.HasPoints() {
		return nil, errors.New(errors.KindNoVertices).
			Op("grid.vertices").
			Detail("grid has no point set").
			Build()
	}
	n := g.NumberOfPoints()
	out := make([]float32, 0, n*3)
	for i := 0; i < n; i++ {
		p := g.Point(i)
		out = append(out, float32(p[0]), float32(p[1]), float32(p[2]))
	}
	return out, nil
}

// Triangles returns the surface connectivity of g. Quads are fanned into
// triangles (0,1,2) and (0,2,3); polygons of any other size are emitted
// as they come.
func Triangles(g Grid) ([]uint32, error) {
	polys, err := g.Surface()
	if err != nil {
		return nil, fmt.Errorf("grid: surface: %w", err)
	}
	out := make([]uint32, 0, len(polys)*3)
	for _, poly := range polys {
		if len(poly) == 4 {
			out = append(out,
				uint32(poly[0]), uint32(poly[1]), uint32(poly[2]),
				uint32(poly[0]), uint32(poly[2]), uint32(poly[3]),
			)
			continue
		}
		for _, id := range poly {
			out = append(out, uint32(id))
		}
	}
	return out, nil
}

// Tetrahedra returns the tetrahedral connectivity of the 3-D cells of g,
// four indices per tetrahedron. Cells of lower dimension are skipped.
func Tetrahedra(g Grid) ([]uint32, error) {
	var out []uint32
	for i := 0; i < g.NumberOfCells(); i++ {
		if g.Cell(i).Dimension() != 3 {
			continue
		}
		ids, err := g.Triangulate(i)
		if err != nil {
			return nil, fmt.Errorf("grid: triangulate cell %d: %w", i, err)
		}
		for _, id := range ids {
			out = append(out, uint32(id))
		}
	}
	return out, nil
}

// PointData splits every point array of g into named components. Unnamed
// component k is called "X<k+1>". Ranges come from the grid.
func PointData(g Grid) []PointArray {
	arrays := g.PointData()
	out := make([]PointArray, 0, len(arrays))
	for _, arr := range arrays {
		nc := arr.NumberOfComponents()
		nt := arr.NumberOfTuples()
		pa := PointArray{
			Name:       arr.Name(),
			Components: make([]PointComponent, 0, nc),
		}
		pa.MagnitudeMin, pa.MagnitudeMax = arr.Range(-1)

		for c := 0; c < nc; c++ {
			name, ok := arr.ComponentName(c)
			if !ok || name == "" {
				name = fmt.Sprintf("X%d", c+1)
			}
			values := make([]float32, nt)
			for i := 0; i < nt; i++ {
				values[i] = float32(arr.Value(i, c))
			}
			lo, hi := arr.Range(c)
			pa.Components = append(pa.Components, PointComponent{
				Name:   name,
				Values: values,
				Min:    lo,
				Max:    hi,
			})
		}
		out = append(out, pa)
	}
	return out
}
