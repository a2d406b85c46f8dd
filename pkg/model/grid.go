package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/gany/pkg/array"
	"github.com/chazu/gany/pkg/grid"
	"github.com/chazu/gany/pkg/vtk"
)

// DataFromGrid converts the point data of g into Data, keeping the grid's
// array order and per-component ranges.
func DataFromGrid(g grid.Grid) []*Data {
	arrays := grid.PointData(g)
	out := make([]*Data, len(arrays))
	for i, pa := range arrays {
		comps := make([]*Component, len(pa.Components))
		for j, pc := range pa.Components {
			comps[j] = NewComponent(pc.Name, array.New(pc.Values), WithRange(pc.Min, pc.Max))
		}
		out[i] = NewData(pa.Name, comps...)
	}
	return out
}

// PolyMeshFromGrid builds a triangle mesh from the surface of g.
func PolyMeshFromGrid(g grid.Grid, opts ...Option) (*PolyMesh, error) {
	verts, err := grid.Vertices(g)
	if err != nil {
		return nil, err
	}
	tris, err := grid.Triangles(g)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithData(DataFromGrid(g)...)}, opts...)
	return NewPolyMesh(array.Inline(array.New(verts)), tris, opts...)
}

// TetraMeshFromGrid builds a tetrahedral mesh from the 3-D cells of g.
func TetraMeshFromGrid(g grid.Grid, opts ...Option) (*TetraMesh, error) {
	verts, err := grid.Vertices(g)
	if err != nil {
		return nil, err
	}
	tris, err := grid.Triangles(g)
	if err != nil {
		return nil, err
	}
	tets, err := grid.Tetrahedra(g)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithData(DataFromGrid(g)...)}, opts...)
	return NewTetraMesh(array.Inline(array.New(verts)), tris, tets, opts...)
}

// PointCloudFromGrid builds a point cloud from the points of g.
func PointCloudFromGrid(g grid.Grid, opts ...Option) (*PointCloud, error) {
	verts, err := grid.Vertices(g)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithData(DataFromGrid(g)...)}, opts...)
	return NewPointCloud(array.Inline(array.New(verts)), opts...), nil
}

// LoadPolyMesh reads a grid file into a triangle mesh.
func LoadPolyMesh(path string, opts ...Option) (*PolyMesh, error) {
	g, err := vtk.Load(path)
	if err != nil {
		return nil, err
	}
	return PolyMeshFromGrid(g, opts...)
}

// LoadTetraMesh reads a grid file into a tetrahedral mesh.
func LoadTetraMesh(path string, opts ...Option) (*TetraMesh, error) {
	g, err := vtk.Load(path)
	if err != nil {
		return nil, err
	}
	return TetraMeshFromGrid(g, opts...)
}

// LoadPointCloud reads a grid file into a point cloud.
func LoadPointCloud(path string, opts ...Option) (*PointCloud, error) {
	g, err := vtk.Load(path)
	if err != nil {
		return nil, err
	}
	return PointCloudFromGrid(g, opts...)
}

// ReloadOptions selects what a reload refreshes. Data is refreshed unless
// SkipData is set.
type ReloadOptions struct {
	Vertices   bool
	Triangles  bool
	Tetrahedra bool
	SkipData   bool
}

type componentUpdate struct {
	component *Component
	values    []float32
	min, max  float64
}

// reloadPlan holds everything a reload commits, computed up front so a
// failure leaves the mesh untouched.
type reloadPlan struct {
	vertices   []float32
	triangles  []uint32
	tetrahedra []uint32
	updates    []componentUpdate
}

func planReload(b *Block, g grid.Grid, opts ReloadOptions, triangles, tetrahedra bool) (*reloadPlan, error) {
	var (
		p   reloadPlan
		err error
	)
	if opts.Vertices {
		if p.vertices, err = grid.Vertices(g); err != nil {
			return nil, err
		}
	}
	if opts.Triangles && triangles {
		if p.triangles, err = grid.Triangles(g); err != nil {
			return nil, err
		}
		if err = checkIndices("model.reload", "triangle_indices", p.triangles, 3); err != nil {
			return nil, err
		}
	}
	if opts.Tetrahedra && tetrahedra {
		if p.tetrahedra, err = grid.Tetrahedra(g); err != nil {
			return nil, err
		}
	}
	if !opts.SkipData {
		for _, pa := range grid.PointData(g) {
			for _, pc := range pa.Components {
				c, err := b.Lookup(pa.Name, pc.Name)
				if err != nil {
					return nil, fmt.Errorf("model: reload: %w", err)
				}
				p.updates = append(p.updates, componentUpdate{c, pc.Values, pc.Min, pc.Max})
			}
		}
	}
	return &p, nil
}

func (p *reloadPlan) commitBlock(b *Block) {
	if p.vertices != nil {
		b.SetVertices(array.Inline(array.New(p.vertices)))
	}
	for _, u := range p.updates {
		u.component.SetValuesWithRange(array.Inline(array.New(u.values)), u.min, u.max)
	}
	Logger().Debug("mesh reloaded",
		zap.Bool("vertices", p.vertices != nil),
		zap.Int("components", len(p.updates)),
	)
}

// Reload refreshes the mesh from g as one batch.
func (m *PolyMesh) Reload(g grid.Grid, opts ReloadOptions) error {
	p, err := planReload(&m.Block, g, opts, true, false)
	if err != nil {
		return err
	}
	return m.Hold(func() error {
		if p.triangles != nil {
			m.triangles = p.triangles
			m.notify("triangle_indices")
		}
		p.commitBlock(&m.Block)
		return nil
	})
}

// ReloadFile reads path and reloads the mesh from it.
func (m *PolyMesh) ReloadFile(path string, opts ReloadOptions) error {
	g, err := vtk.Load(path)
	if err != nil {
		return err
	}
	return m.Reload(g, opts)
}

// Reload refreshes the mesh from g as one batch.
func (m *TetraMesh) Reload(g grid.Grid, opts ReloadOptions) error {
	p, err := planReload(&m.Block, g, opts, true, true)
	if err != nil {
		return err
	}
	return m.Hold(func() error {
		if p.triangles != nil {
			m.triangles = p.triangles
			m.notify("triangle_indices")
		}
		if p.tetrahedra != nil {
			m.tetrahedra = p.tetrahedra
			m.notify("tetrahedron_indices")
		}
		p.commitBlock(&m.Block)
		return nil
	})
}

// ReloadFile reads path and reloads the mesh from it.
func (m *TetraMesh) ReloadFile(path string, opts ReloadOptions) error {
	g, err := vtk.Load(path)
	if err != nil {
		return err
	}
	return m.Reload(g, opts)
}

// Reload refreshes the point cloud from g as one batch.
func (p *PointCloud) Reload(g grid.Grid, opts ReloadOptions) error {
	plan, err := planReload(&p.Block, g, opts, false, false)
	if err != nil {
		return err
	}
	return p.Hold(func() error {
		plan.commitBlock(&p.Block)
		return nil
	})
}

// ReloadFile reads path and reloads the point cloud from it.
func (p *PointCloud) ReloadFile(path string, opts ReloadOptions) error {
	g, err := vtk.Load(path)
	if err != nil {
		return err
	}
	return p.Reload(g, opts)
}
