package vtk

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/gany/pkg/errors"
	"github.com/chazu/gany/pkg/grid"
)

type xmlFile struct {
	XMLName    xml.Name  `xml:"VTKFile"`
	Type       string    `xml:"type,attr"`
	ByteOrder  string    `xml:"byte_order,attr"`
	HeaderType string    `xml:"header_type,attr"`
	Compressor string    `xml:"compressor,attr"`
	Grid       *xmlGrid  `xml:"UnstructuredGrid"`
	Appended   *struct{} `xml:"AppendedData"`
}

type xmlGrid struct {
	Pieces []xmlPiece `xml:"Piece"`
}

type xmlPiece struct {
	NumberOfPoints int       `xml:"NumberOfPoints,attr"`
	NumberOfCells  int       `xml:"NumberOfCells,attr"`
	Points         xmlArrays `xml:"Points"`
	Cells          xmlArrays `xml:"Cells"`
	PointData      xmlArrays `xml:"PointData"`
}

type xmlArrays struct {
	Arrays []xmlDataArray `xml:"DataArray"`
}

type xmlDataArray struct {
	Type               string     `xml:"type,attr"`
	Name               string     `xml:"Name,attr"`
	NumberOfComponents int        `xml:"NumberOfComponents,attr"`
	Format             string     `xml:"format,attr"`
	Extra              []xml.Attr `xml:",any,attr"`
	Text               string     `xml:",chardata"`
}

func (a *xmlDataArray) components() int {
	if a.NumberOfComponents < 1 {
		return 1
	}
	return a.NumberOfComponents
}

// componentNames collects the ComponentName<i> attributes.
func (a *xmlDataArray) componentNames() []string {
	names := make([]string, a.components())
	found := false
	for _, attr := range a.Extra {
		rest, ok := strings.CutPrefix(attr.Name.Local, "ComponentName")
		if !ok {
			continue
		}
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 || i >= len(names) {
			continue
		}
		names[i] = attr.Value
		found = true
	}
	if !found {
		return nil
	}
	return names
}

// ReadXML parses a .vtu XML unstructured grid. Inline ascii and
// uncompressed base64 binary arrays are supported; compressed and
// appended data are rejected with ErrUnsupportedGridType.
func ReadXML(r io.Reader) (*UnstructuredGrid, error) {
	var f xmlFile
	if err := xml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.MalformedGrid("vtk.xml", err)
	}
	if f.Type != "UnstructuredGrid" || f.Grid == nil {
		return nil, errors.UnsupportedGridType("vtk.xml", fmt.Sprintf("unrecognized data type %q", f.Type))
	}
	if f.Compressor != "" {
		return nil, errors.UnsupportedGridType("vtk.xml", "compressed data is not supported")
	}
	if f.Appended != nil {
		return nil, errors.UnsupportedGridType("vtk.xml", "appended data is not supported")
	}

	dec := xmlValueDecoder{order: binary.LittleEndian, header: 4}
	if f.ByteOrder == "BigEndian" {
		dec.order = binary.BigEndian
	}
	if f.HeaderType == "UInt64" {
		dec.header = 8
	}

	g := &UnstructuredGrid{}
	var arrays []*DataArray
	for pi, piece := range f.Grid.Pieces {
		if err := dec.readPiece(g, piece); err != nil {
			return nil, fmt.Errorf("vtk: piece %d: %w", pi, err)
		}
		for ai, xa := range piece.PointData.Arrays {
			vals, err := dec.values(&xa)
			if err != nil {
				return nil, fmt.Errorf("vtk: point data %q: %w", xa.Name, err)
			}
			if pi == 0 {
				arrays = append(arrays, NewDataArray(xa.Name, xa.components(), vals, xa.componentNames()...))
				continue
			}
			if ai >= len(arrays) || arrays[ai].name != xa.Name {
				return nil, errors.MalformedGrid("vtk.xml", fmt.Errorf("piece %d point data does not match piece 0", pi))
			}
			arrays[ai].values = append(arrays[ai].values, vals...)
		}
	}
	g.hasPoints = g.Points != nil
	g.Arrays = arrays
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

type xmlValueDecoder struct {
	order  binary.ByteOrder
	header int
}

func (d xmlValueDecoder) readPiece(g *UnstructuredGrid, p xmlPiece) error {
	base := len(g.Points)
	if len(p.Points.Arrays) > 0 {
		coords, err := d.values(&p.Points.Arrays[0])
		if err != nil {
			return fmt.Errorf("points: %w", err)
		}
		if len(coords) != p.NumberOfPoints*3 {
			return errors.MalformedGrid("vtk.xml",
				fmt.Errorf("%d coordinates for %d points", len(coords), p.NumberOfPoints))
		}
		if g.Points == nil {
			g.Points = make([][3]float64, 0, p.NumberOfPoints)
		}
		for i := 0; i < p.NumberOfPoints; i++ {
			g.Points = append(g.Points, [3]float64{coords[i*3], coords[i*3+1], coords[i*3+2]})
		}
	}

	var conn, offsets, types []float64
	for i := range p.Cells.Arrays {
		xa := &p.Cells.Arrays[i]
		vals, err := d.values(xa)
		if err != nil {
			return fmt.Errorf("cells %q: %w", xa.Name, err)
		}
		switch xa.Name {
		case "connectivity":
			conn = vals
		case "offsets":
			offsets = vals
		case "types":
			types = vals
		}
	}
	if len(offsets) != p.NumberOfCells || len(types) != p.NumberOfCells {
		return errors.MalformedGrid("vtk.xml",
			fmt.Errorf("%d cells declared, %d offsets, %d types", p.NumberOfCells, len(offsets), len(types)))
	}
	start := 0
	for i := 0; i < p.NumberOfCells; i++ {
		end := int(offsets[i])
		if end < start || end > len(conn) {
			return errors.MalformedGrid("vtk.xml", fmt.Errorf("bad offset %d for cell %d", end, i))
		}
		ids := make([]int, end-start)
		for j := range ids {
			ids[j] = base + int(conn[start+j])
		}
		g.Cells = append(g.Cells, grid.Cell{Type: grid.CellType(int(types[i])), Points: ids})
		start = end
	}
	return nil
}

// values decodes a DataArray's content into float64s.
func (d xmlValueDecoder) values(a *xmlDataArray) ([]float64, error) {
	switch a.Format {
	case "", "ascii":
		fields := strings.Fields(a.Text)
		out := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.MalformedGrid("vtk.xml", fmt.Errorf("bad value %q", s))
			}
			out[i] = v
		}
		return out, nil
	case "binary":
		raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(a.Text), ""))
		if err != nil {
			return nil, errors.MalformedGrid("vtk.xml", err)
		}
		if len(raw) < d.header {
			return nil, errors.MalformedGrid("vtk.xml", io.ErrUnexpectedEOF)
		}
		var n uint64
		if d.header == 8 {
			n = d.order.Uint64(raw)
		} else {
			n = uint64(d.order.Uint32(raw))
		}
		body := raw[d.header:]
		if uint64(len(body)) < n {
			return nil, errors.MalformedGrid("vtk.xml", io.ErrUnexpectedEOF)
		}
		return d.decodeBinary(body[:n], a.Type)
	}
	return nil, errors.UnsupportedGridType("vtk.xml", fmt.Sprintf("array format %q is not supported", a.Format))
}

func (d xmlValueDecoder) decodeBinary(b []byte, typ string) ([]float64, error) {
	size := map[string]int{
		"Int8": 1, "UInt8": 1, "Int16": 2, "UInt16": 2, "Int32": 4, "UInt32": 4,
		"Int64": 8, "UInt64": 8, "Float32": 4, "Float64": 8,
	}[typ]
	if size == 0 {
		return nil, errors.UnsupportedGridType("vtk.xml", fmt.Sprintf("array type %q is not supported", typ))
	}
	if len(b)%size != 0 {
		return nil, errors.MalformedGrid("vtk.xml", fmt.Errorf("%d bytes is not a multiple of %s", len(b), typ))
	}
	out := make([]float64, len(b)/size)
	for i := range out {
		p := b[i*size:]
		switch typ {
		case "Int8":
			out[i] = float64(int8(p[0]))
		case "UInt8":
			out[i] = float64(p[0])
		case "Int16":
			out[i] = float64(int16(d.order.Uint16(p)))
		case "UInt16":
			out[i] = float64(d.order.Uint16(p))
		case "Int32":
			out[i] = float64(int32(d.order.Uint32(p)))
		case "UInt32":
			out[i] = float64(d.order.Uint32(p))
		case "Int64":
			out[i] = float64(int64(d.order.Uint64(p)))
		case "UInt64":
			out[i] = float64(d.order.Uint64(p))
		case "Float32":
			out[i] = float64(math.Float32frombits(d.order.Uint32(p)))
		case "Float64":
			out[i] = math.Float64frombits(d.order.Uint64(p))
		}
	}
	return out, nil
}
