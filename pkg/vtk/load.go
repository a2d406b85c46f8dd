package vtk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/gany/pkg/errors"
	"github.com/chazu/gany/pkg/grid"
	"go.uber.org/zap"
)

// Load reads a grid file, choosing the reader by extension: .vtu files go
// to the XML reader and .vtk files to the legacy dataset reader. Any
// failure aborts the load; no partial grid is returned.
func Load(path string) (grid.Grid, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".vtu" && ext != ".vtk" {
		return nil, errors.UnsupportedGridType("vtk.load", fmt.Sprintf("unsupported file extension %q", ext))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.MalformedGrid("vtk.load", err)
	}
	defer f.Close()

	var g *UnstructuredGrid
	switch ext {
	case ".vtu":
		g, err = ReadXML(f)
	case ".vtk":
		g, err = ReadLegacy(f)
	}
	if err != nil {
		return nil, fmt.Errorf("vtk: load %s: %w", filepath.Base(path), err)
	}
	Logger().Debug("grid loaded",
		zap.String("path", path),
		zap.Int("points", g.NumberOfPoints()),
		zap.Int("cells", g.NumberOfCells()),
		zap.Int("arrays", len(g.Arrays)),
	)
	return g, nil
}
