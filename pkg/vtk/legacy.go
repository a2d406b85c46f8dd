package vtk

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/chazu/gany/pkg/errors"
	"github.com/chazu/gany/pkg/grid"
)

// Dataset type names of the legacy format.
const (
	datasetUnstructured = "UNSTRUCTURED_GRID"
	datasetPolyData     = "POLYDATA"
	datasetStructured   = "STRUCTURED_GRID"
	datasetPoints       = "STRUCTURED_POINTS"
	datasetRectilinear  = "RECTILINEAR_GRID"
)

// ReadLegacy parses an ASCII legacy .vtk file. Unstructured grids and
// polydata are returned as read; structured grids go through the append
// filter. Structured points, rectilinear grids and any other dataset type
// are rejected with ErrUnsupportedGridType.
func ReadLegacy(r io.Reader) (*UnstructuredGrid, error) {
	br := bufio.NewReader(r)

	version, err := br.ReadString('\n')
	if err != nil {
		return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("reading version line: %w", err))
	}
	if !strings.HasPrefix(strings.TrimSpace(version), "# vtk DataFile") {
		return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("not a legacy vtk file"))
	}
	if _, err := br.ReadString('\n'); err != nil {
		return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("reading title line: %w", err))
	}
	format, err := br.ReadString('\n')
	if err != nil {
		return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("reading format line: %w", err))
	}
	switch strings.ToUpper(strings.TrimSpace(format)) {
	case "ASCII":
	case "BINARY":
		return nil, errors.UnsupportedGridType("vtk.legacy", "binary legacy files are not supported")
	default:
		return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("unknown file format %q", strings.TrimSpace(format)))
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, errors.MalformedGrid("vtk.legacy", err)
	}
	lr := &legacyReader{toks: tokenize(body)}

	kw, err := lr.keyword()
	if err != nil {
		return nil, err
	}
	if kw != "DATASET" {
		return nil, errors.UnsupportedGridType("vtk.legacy", "file does not describe a dataset")
	}
	dataset, err := lr.next()
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(dataset) {
	case datasetUnstructured, datasetPolyData:
		return lr.readUnstructured()
	case datasetStructured:
		return lr.readStructured()
	case datasetPoints:
		return nil, errors.UnsupportedGridType("vtk.legacy", "StructuredPoints not supported")
	case datasetRectilinear:
		return nil, errors.UnsupportedGridType("vtk.legacy", "RectilinearGrid not supported")
	}
	return nil, errors.UnsupportedGridType("vtk.legacy", fmt.Sprintf("unrecognized data type %q", dataset))
}

// tokenize splits the body into whitespace-separated tokens, dropping
// comment lines.
func tokenize(body []byte) []string {
	var toks []string
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		toks = append(toks, strings.Fields(line)...)
	}
	return toks
}

type legacyReader struct {
	toks []string
	pos  int

	lastComponentNames []string
}

func (r *legacyReader) done() bool { return r.pos >= len(r.toks) }

func (r *legacyReader) peek() string {
	if r.done() {
		return ""
	}
	return r.toks[r.pos]
}

func (r *legacyReader) next() (string, error) {
	if r.done() {
		return "", errors.MalformedGrid("vtk.legacy", io.ErrUnexpectedEOF)
	}
	t := r.toks[r.pos]
	r.pos++
	return t, nil
}

func (r *legacyReader) keyword() (string, error) {
	t, err := r.next()
	return strings.ToUpper(t), err
}

func (r *legacyReader) int() (int, error) {
	t, err := r.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, errors.MalformedGrid("vtk.legacy", fmt.Errorf("expected integer, got %q", t))
	}
	return n, nil
}

// count returns n*per after checking that n items of per tokens each fit
// in what is left of the body.
func (r *legacyReader) count(n, per int) (int, error) {
	if n < 0 || per < 0 {
		return 0, errors.MalformedGrid("vtk.legacy", fmt.Errorf("negative count %d x %d", n, per))
	}
	left := len(r.toks) - r.pos
	if per > 0 && n > left/per {
		return 0, errors.MalformedGrid("vtk.legacy",
			fmt.Errorf("count %d x %d exceeds the %d values left", n, per, left))
	}
	return n * per, nil
}

func (r *legacyReader) floats(n int) ([]float64, error) {
	if _, err := r.count(n, 1); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		t, err := r.next()
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("expected number, got %q", t))
		}
		out[i] = f
	}
	return out, nil
}

func (r *legacyReader) ints(n int) ([]int, error) {
	if _, err := r.count(n, 1); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := range out {
		v, err := r.int()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *legacyReader) points() ([][3]float64, error) {
	n, err := r.int()
	if err != nil {
		return nil, err
	}
	if _, err := r.next(); err != nil { // data type
		return nil, err
	}
	total, err := r.count(n, 3)
	if err != nil {
		return nil, err
	}
	flat, err := r.floats(total)
	if err != nil {
		return nil, err
	}
	pts := make([][3]float64, n)
	for i := range pts {
		pts[i] = [3]float64{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return pts, nil
}

// cellLists reads a CELLS/POLYGONS/... section in either the classic
// "n size" counted layout or the OFFSETS/CONNECTIVITY layout.
func (r *legacyReader) cellLists() ([][]int, error) {
	n, err := r.int()
	if err != nil {
		return nil, err
	}
	size, err := r.int()
	if err != nil {
		return nil, err
	}

	if strings.ToUpper(r.peek()) == "OFFSETS" {
		r.pos += 2 // OFFSETS <type>
		offsets, err := r.ints(n)
		if err != nil {
			return nil, err
		}
		if kw, err := r.keyword(); err != nil || kw != "CONNECTIVITY" {
			return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("expected CONNECTIVITY section"))
		}
		r.pos++ // type
		conn, err := r.ints(size)
		if err != nil {
			return nil, err
		}
		lists := make([][]int, 0, max(n-1, 0))
		for i := 0; i+1 < len(offsets); i++ {
			lo, hi := offsets[i], offsets[i+1]
			if lo < 0 || hi < lo || hi > len(conn) {
				return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("bad cell offset %d..%d", lo, hi))
			}
			lists = append(lists, conn[lo:hi])
		}
		return lists, nil
	}

	if _, err := r.count(n, 1); err != nil {
		return nil, err
	}
	lists := make([][]int, 0, n)
	read := 0
	for i := 0; i < n; i++ {
		k, err := r.int()
		if err != nil {
			return nil, err
		}
		ids, err := r.ints(k)
		if err != nil {
			return nil, err
		}
		read += k + 1
		lists = append(lists, ids)
	}
	if read != size {
		return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("cell list size %d, declared %d", read, size))
	}
	return lists, nil
}

func (r *legacyReader) readUnstructured() (*UnstructuredGrid, error) {
	var (
		points    [][3]float64
		cellLists [][]int
		cellTypes []int
		cells     []grid.Cell
	)
	g := &UnstructuredGrid{}

	for !r.done() {
		kw, err := r.keyword()
		if err != nil {
			return nil, err
		}
		switch kw {
		case "POINTS":
			if points, err = r.points(); err != nil {
				return nil, err
			}
		case "CELLS":
			if cellLists, err = r.cellLists(); err != nil {
				return nil, err
			}
		case "CELL_TYPES":
			n, err := r.int()
			if err != nil {
				return nil, err
			}
			if cellTypes, err = r.ints(n); err != nil {
				return nil, err
			}
		case "VERTICES", "LINES", "POLYGONS", "TRIANGLE_STRIPS":
			lists, err := r.cellLists()
			if err != nil {
				return nil, err
			}
			cells = append(cells, polyCells(kw, lists)...)
		case "POINT_DATA":
			if err := r.attributes(g, true); err != nil {
				return nil, err
			}
		case "CELL_DATA":
			if err := r.attributes(g, false); err != nil {
				return nil, err
			}
		case "FIELD":
			// dataset-level field data is not point data
			if _, err := r.fieldArrays(); err != nil {
				return nil, err
			}
		case "METADATA":
			if err := r.skipMetadata(0); err != nil {
				return nil, err
			}
		default:
			return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("unexpected keyword %q", kw))
		}
	}

	if cellLists != nil {
		if len(cellTypes) != len(cellLists) {
			return nil, errors.MalformedGrid("vtk.legacy",
				fmt.Errorf("%d cells but %d cell types", len(cellLists), len(cellTypes)))
		}
		for i, ids := range cellLists {
			cells = append(cells, grid.Cell{Type: grid.CellType(cellTypes[i]), Points: ids})
		}
	}

	g.Points = points
	g.hasPoints = points != nil
	g.Cells = cells
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func polyCells(kw string, lists [][]int) []grid.Cell {
	cells := make([]grid.Cell, 0, len(lists))
	for _, ids := range lists {
		var t grid.CellType
		switch kw {
		case "VERTICES":
			t = grid.CellVertex
			if len(ids) > 1 {
				t = grid.CellPolyVertex
			}
		case "LINES":
			t = grid.CellLine
			if len(ids) > 2 {
				t = grid.CellPolyLine
			}
		case "POLYGONS":
			t = grid.CellPolygon
			if len(ids) == 3 {
				t = grid.CellTriangle
			}
		case "TRIANGLE_STRIPS":
			t = grid.CellTriangleStrip
		}
		cells = append(cells, grid.Cell{Type: t, Points: ids})
	}
	return cells
}

func (r *legacyReader) readStructured() (*UnstructuredGrid, error) {
	var (
		dims   [3]int
		points [][3]float64
	)
	g := &UnstructuredGrid{}

	for !r.done() {
		kw, err := r.keyword()
		if err != nil {
			return nil, err
		}
		switch kw {
		case "DIMENSIONS":
			for i := range dims {
				if dims[i], err = r.int(); err != nil {
					return nil, err
				}
			}
		case "POINTS":
			if points, err = r.points(); err != nil {
				return nil, err
			}
		case "POINT_DATA":
			if err := r.attributes(g, true); err != nil {
				return nil, err
			}
		case "CELL_DATA":
			if err := r.attributes(g, false); err != nil {
				return nil, err
			}
		case "FIELD":
			if _, err := r.fieldArrays(); err != nil {
				return nil, err
			}
		case "METADATA":
			if err := r.skipMetadata(0); err != nil {
				return nil, err
			}
		default:
			return nil, errors.MalformedGrid("vtk.legacy", fmt.Errorf("unexpected keyword %q", kw))
		}
	}

	sg, err := NewStructuredGrid(dims, points)
	if err != nil {
		return nil, err
	}
	out := AppendFilter(sg)
	out.Arrays = g.Arrays
	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// attributes reads a POINT_DATA or CELL_DATA block. Cell arrays are
// parsed and dropped.
func (r *legacyReader) attributes(g *UnstructuredGrid, keep bool) error {
	n, err := r.int()
	if err != nil {
		return err
	}
	for !r.done() {
		kw := strings.ToUpper(r.peek())
		var arr *DataArray
		switch kw {
		case "SCALARS":
			r.pos++
			name, _ := r.next()
			if _, err := r.next(); err != nil { // data type
				return err
			}
			nc := 1
			if v, err := strconv.Atoi(r.peek()); err == nil && r.pos+1 < len(r.toks) &&
				strings.ToUpper(r.toks[r.pos+1]) == "LOOKUP_TABLE" {
				nc = v
				r.pos++
			}
			if strings.ToUpper(r.peek()) == "LOOKUP_TABLE" {
				r.pos += 2
			}
			total, err := r.count(n, nc)
			if err != nil {
				return err
			}
			vals, err := r.floats(total)
			if err != nil {
				return err
			}
			arr = NewDataArray(name, nc, vals)
		case "VECTORS", "NORMALS":
			r.pos++
			name, _ := r.next()
			if _, err := r.next(); err != nil {
				return err
			}
			total, err := r.count(n, 3)
			if err != nil {
				return err
			}
			vals, err := r.floats(total)
			if err != nil {
				return err
			}
			arr = NewDataArray(name, 3, vals)
		case "TENSORS":
			r.pos++
			name, _ := r.next()
			if _, err := r.next(); err != nil {
				return err
			}
			total, err := r.count(n, 9)
			if err != nil {
				return err
			}
			vals, err := r.floats(total)
			if err != nil {
				return err
			}
			arr = NewDataArray(name, 9, vals)
		case "TEXTURE_COORDINATES":
			r.pos++
			name, _ := r.next()
			dim, err := r.int()
			if err != nil {
				return err
			}
			if _, err := r.next(); err != nil {
				return err
			}
			total, err := r.count(n, dim)
			if err != nil {
				return err
			}
			vals, err := r.floats(total)
			if err != nil {
				return err
			}
			arr = NewDataArray(name, dim, vals)
		case "COLOR_SCALARS":
			r.pos++
			name, _ := r.next()
			nc, err := r.int()
			if err != nil {
				return err
			}
			total, err := r.count(n, nc)
			if err != nil {
				return err
			}
			vals, err := r.floats(total)
			if err != nil {
				return err
			}
			arr = NewDataArray(name, nc, vals)
		case "LOOKUP_TABLE":
			r.pos += 2
			size, err := r.int()
			if err != nil {
				return err
			}
			total, err := r.count(size, 4)
			if err != nil {
				return err
			}
			if _, err := r.floats(total); err != nil {
				return err
			}
			continue
		case "FIELD":
			r.pos++
			arrays, err := r.fieldArrays()
			if err != nil {
				return err
			}
			if keep {
				for _, a := range arrays {
					g.AddPointData(a)
				}
			}
			continue
		case "METADATA":
			r.pos++
			nc := 0
			if arr := lastArray(g); arr != nil {
				nc = arr.components
			}
			if err := r.skipMetadata(nc); err != nil {
				return err
			}
			if arr := lastArray(g); keep && arr != nil && len(arr.componentNames) == 0 {
				arr.componentNames = r.lastComponentNames
			}
			continue
		default:
			return nil
		}
		if keep {
			g.AddPointData(arr)
		}
	}
	return nil
}

// fieldArrays reads "name narrays" followed by the arrays.
func (r *legacyReader) fieldArrays() ([]*DataArray, error) {
	if _, err := r.next(); err != nil { // field name
		return nil, err
	}
	count, err := r.int()
	if err != nil {
		return nil, err
	}
	if _, err := r.count(count, 1); err != nil {
		return nil, err
	}
	out := make([]*DataArray, 0, count)
	for i := 0; i < count; i++ {
		name, err := r.next()
		if err != nil {
			return nil, err
		}
		nc, err := r.int()
		if err != nil {
			return nil, err
		}
		nt, err := r.int()
		if err != nil {
			return nil, err
		}
		if _, err := r.next(); err != nil { // data type
			return nil, err
		}
		total, err := r.count(nt, nc)
		if err != nil {
			return nil, err
		}
		vals, err := r.floats(total)
		if err != nil {
			return nil, err
		}
		out = append(out, NewDataArray(name, nc, vals))
		if strings.ToUpper(r.peek()) == "METADATA" {
			r.pos++
			if err := r.skipMetadata(nc); err != nil {
				return nil, err
			}
			if len(r.lastComponentNames) > 0 {
				out[len(out)-1].componentNames = r.lastComponentNames
			}
		}
	}
	return out, nil
}

func lastArray(g *UnstructuredGrid) *DataArray {
	if len(g.Arrays) == 0 {
		return nil
	}
	return g.Arrays[len(g.Arrays)-1]
}

// sectionKeywords are the tokens that start a new section.
var sectionKeywords = map[string]bool{
	"POINTS": true, "CELLS": true, "CELL_TYPES": true, "VERTICES": true,
	"LINES": true, "POLYGONS": true, "TRIANGLE_STRIPS": true, "DIMENSIONS": true,
	"POINT_DATA": true, "CELL_DATA": true, "FIELD": true, "SCALARS": true,
	"VECTORS": true, "NORMALS": true, "TENSORS": true, "TEXTURE_COORDINATES": true,
	"COLOR_SCALARS": true, "LOOKUP_TABLE": true, "METADATA": true,
}

// skipMetadata consumes a METADATA block. Up to nc COMPONENT_NAMES are
// kept in lastComponentNames; INFORMATION entries are skipped.
func (r *legacyReader) skipMetadata(nc int) error {
	r.lastComponentNames = nil
	for !r.done() {
		switch strings.ToUpper(r.peek()) {
		case "COMPONENT_NAMES":
			r.pos++
			for i := 0; i < nc && !r.done(); i++ {
				name, err := url.PathUnescape(r.toks[r.pos])
				if err != nil {
					return errors.MalformedGrid("vtk.legacy", err)
				}
				r.lastComponentNames = append(r.lastComponentNames, name)
				r.pos++
			}
		case "INFORMATION":
			r.pos++
			for !r.done() && !sectionKeywords[strings.ToUpper(r.peek())] {
				r.pos++
			}
		default:
			return nil
		}
	}
	return nil
}
