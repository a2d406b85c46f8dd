package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/gany/pkg/array"
	"github.com/chazu/gany/pkg/kernel"
	"github.com/chazu/gany/pkg/model"
)

// builtinFunc implements one DSL form on parsed arguments.
type builtinFunc func(pa kwArgs) (zygo.Sexp, error)

// register installs fn under name. Errors are prefixed with the form name
// as the user writes it (iso-color, not iso_color).
func register(env *zygo.Zlisp, name string, fn builtinFunc) {
	display := strings.ReplaceAll(name, "_", "-")
	env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		res, err := fn(parseArgs(args))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", display, err)
		}
		return res, nil
	})
}

// registerBuiltins installs all scene DSL builtins into a zygomys
// environment. The builtins record what they create in b.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	// Data
	register(env, "component", b.component)
	register(env, "data", b.data)
	register(env, "pair", pair)

	// Meshes
	register(env, "polymesh", b.polyMesh)
	register(env, "tetramesh", b.tetraMesh)
	register(env, "pointcloud", b.pointCloud)
	register(env, "load_mesh", b.loadMesh)

	// Solids
	register(env, "box", b.box)
	register(env, "sphere", b.sphere)
	register(env, "cylinder", b.cylinder)
	register(env, "union", b.boolean("union", b.kernel.Union))
	register(env, "difference", b.boolean("difference", b.kernel.Difference))
	register(env, "intersection", b.boolean("intersection", b.kernel.Intersection))
	register(env, "translate", b.transform(b.kernel.Translate))
	register(env, "rotate", b.transform(b.kernel.Rotate))
	register(env, "tessellate", b.tessellate)

	// Effects
	register(env, "warp", b.warp)
	register(env, "warp_by_scalar", b.warpByScalar)
	register(env, "alpha", b.alpha)
	register(env, "rgb", b.rgb)
	register(env, "iso_color", b.isoColor)
	register(env, "iso_surface", b.isoSurface)
	register(env, "threshold", b.threshold)
	register(env, "under_water", b.underWater)
	register(env, "water", b.water)
	register(env, "color_bar", b.colorBar)
	register(env, "image", b.image)

	register(env, "scene", b.sceneForm)
}

// ---------------------------------------------------------------------------
// (component "x" [1 2 3] :min 0 :max 10)
// ---------------------------------------------------------------------------

func (b *builder) component(pa kwArgs) (zygo.Sexp, error) {
	if err := pa.unknown("min", "max"); err != nil {
		return nil, err
	}
	nameArg, err := pa.arg(0, "name")
	if err != nil {
		return nil, err
	}
	name, err := toString(nameArg)
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	valuesArg, err := pa.arg(1, "values")
	if err != nil {
		return nil, err
	}
	values, err := toFloats(valuesArg)
	if err != nil {
		return nil, fmt.Errorf("values: %w", err)
	}

	min, hasMin, err := pa.float("min")
	if err != nil {
		return nil, err
	}
	max, hasMax, err := pa.float("max")
	if err != nil {
		return nil, err
	}
	var opts []model.ComponentOption
	switch {
	case hasMin && hasMax:
		opts = append(opts, model.WithRange(min, max))
	case hasMin || hasMax:
		return nil, fmt.Errorf(":min and :max must be given together")
	}
	return &sexpWidget{w: model.NewComponentValues(name, values, opts...)}, nil
}

// ---------------------------------------------------------------------------
// (data "velocity" (component "x" ...) (component "y" ...))
// ---------------------------------------------------------------------------

func (b *builder) data(pa kwArgs) (zygo.Sexp, error) {
	if err := pa.unknown(); err != nil {
		return nil, err
	}
	nameArg, err := pa.arg(0, "name")
	if err != nil {
		return nil, err
	}
	name, err := toString(nameArg)
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	var comps []*model.Component
	for _, arg := range pa.positional[1:] {
		cs, err := toComponents(arg)
		if err != nil {
			return nil, err
		}
		comps = append(comps, cs...)
	}
	return &sexpWidget{w: model.NewData(name, comps...)}, nil
}

// (pair "velocity" "x")
func pair(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 2 || len(pa.kw) != 0 {
		return nil, fmt.Errorf("expected a data name and a component name")
	}
	d, err := toString(pa.positional[0])
	if err != nil {
		return nil, err
	}
	c, err := toString(pa.positional[1])
	if err != nil {
		return nil, err
	}
	return &sexpInput{in: model.Pair{Data: d, Component: c}}, nil
}

// ---------------------------------------------------------------------------
// Meshes
// ---------------------------------------------------------------------------

var blockKeywords = []string{"data", "color", "environment"}

// blockOptions reads :data, :color and :environment.
func blockOptions(pa kwArgs) ([]model.Option, error) {
	var opts []model.Option
	if v, ok := pa.kw["data"]; ok {
		data, err := toData(v)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		opts = append(opts, model.WithData(data...))
	}
	if s, ok, err := pa.str("color"); err != nil {
		return nil, err
	} else if ok {
		c, err := model.ParseColor(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, model.WithDefaultColor(c))
	}
	if v, ok := pa.kw["environment"]; ok {
		nodes, err := toNodes(v)
		if err != nil {
			return nil, fmt.Errorf("environment: %w", err)
		}
		opts = append(opts, model.WithEnvironmentMeshes(nodes...))
	}
	return opts, nil
}

func (b *builder) vertices(pa kwArgs) (array.Source, error) {
	v, ok := pa.kw["vertices"]
	if !ok {
		return array.Source{}, fmt.Errorf("missing :vertices")
	}
	fs, err := toFloats(v)
	if err != nil {
		return array.Source{}, fmt.Errorf("vertices: %w", err)
	}
	if len(fs)%3 != 0 {
		return array.Source{}, fmt.Errorf("vertices: %d values is not a multiple of 3", len(fs))
	}
	return array.Inline(array.New(fs)), nil
}

func optionalIndices(pa kwArgs, name string) ([]uint32, error) {
	v, ok := pa.kw[name]
	if !ok {
		return nil, nil
	}
	idx, err := toIndices(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return idx, nil
}

// (polymesh :vertices [...] :triangles [...] :data (list ...) :color "red")
func (b *builder) polyMesh(pa kwArgs) (zygo.Sexp, error) {
	if err := pa.unknown(append(blockKeywords, "vertices", "triangles")...); err != nil {
		return nil, err
	}
	verts, err := b.vertices(pa)
	if err != nil {
		return nil, err
	}
	tris, err := optionalIndices(pa, "triangles")
	if err != nil {
		return nil, err
	}
	opts, err := blockOptions(pa)
	if err != nil {
		return nil, err
	}
	m, err := model.NewPolyMesh(verts, tris, opts...)
	if err != nil {
		return nil, err
	}
	b.add(m)
	return &sexpWidget{w: m}, nil
}

// (tetramesh :vertices [...] :tetrahedra [...])
func (b *builder) tetraMesh(pa kwArgs) (zygo.Sexp, error) {
	if err := pa.unknown(append(blockKeywords, "vertices", "triangles", "tetrahedra")...); err != nil {
		return nil, err
	}
	verts, err := b.vertices(pa)
	if err != nil {
		return nil, err
	}
	tris, err := optionalIndices(pa, "triangles")
	if err != nil {
		return nil, err
	}
	tets, err := optionalIndices(pa, "tetrahedra")
	if err != nil {
		return nil, err
	}
	opts, err := blockOptions(pa)
	if err != nil {
		return nil, err
	}
	m, err := model.NewTetraMesh(verts, tris, tets, opts...)
	if err != nil {
		return nil, err
	}
	b.add(m)
	return &sexpWidget{w: m}, nil
}

// (pointcloud :vertices [...])
func (b *builder) pointCloud(pa kwArgs) (zygo.Sexp, error) {
	if err := pa.unknown(append(blockKeywords, "vertices")...); err != nil {
		return nil, err
	}
	verts, err := b.vertices(pa)
	if err != nil {
		return nil, err
	}
	opts, err := blockOptions(pa)
	if err != nil {
		return nil, err
	}
	p := model.NewPointCloud(verts, opts...)
	b.add(p)
	return &sexpWidget{w: p}, nil
}

// (load-mesh "fluid.vtu" :kind :tetra)
func (b *builder) loadMesh(pa kwArgs) (zygo.Sexp, error) {
	if err := pa.unknown(append(blockKeywords, "kind")...); err != nil {
		return nil, err
	}
	pathArg, err := pa.arg(0, "path")
	if err != nil {
		return nil, err
	}
	rel, err := toString(pathArg)
	if err != nil {
		return nil, fmt.Errorf("path: %w", err)
	}
	path, err := b.resolve(rel)
	if err != nil {
		return nil, err
	}
	kind, _, err := pa.str("kind")
	if err != nil {
		return nil, err
	}
	opts, err := blockOptions(pa)
	if err != nil {
		return nil, err
	}

	var n model.Node
	switch kind {
	case "", "poly":
		n, err = model.LoadPolyMesh(path, opts...)
	case "tetra":
		n, err = model.LoadTetraMesh(path, opts...)
	case "points":
		n, err = model.LoadPointCloud(path, opts...)
	default:
		return nil, fmt.Errorf("invalid kind %q, expected poly, tetra or points", kind)
	}
	if err != nil {
		return nil, err
	}
	b.add(n)
	return &sexpWidget{w: n}, nil
}

// ---------------------------------------------------------------------------
// Solids
// ---------------------------------------------------------------------------

func numbers(pa kwArgs, n int) ([]float64, error) {
	if len(pa.positional) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d arguments", n, len(pa.positional))
	}
	out := make([]float64, n)
	for i, arg := range pa.positional {
		f, err := toFloat64(arg)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func solidResult(s kernel.Solid, err error) (zygo.Sexp, error) {
	if err != nil {
		return nil, err
	}
	return &sexpSolid{s: s}, nil
}

// (box 10 10 1)
func (b *builder) box(pa kwArgs) (zygo.Sexp, error) {
	v, err := numbers(pa, 3)
	if err != nil {
		return nil, err
	}
	return solidResult(b.kernel.Box(v[0], v[1], v[2]))
}

// (sphere 5)
func (b *builder) sphere(pa kwArgs) (zygo.Sexp, error) {
	v, err := numbers(pa, 1)
	if err != nil {
		return nil, err
	}
	return solidResult(b.kernel.Sphere(v[0]))
}

// (cylinder height radius)
func (b *builder) cylinder(pa kwArgs) (zygo.Sexp, error) {
	v, err := numbers(pa, 2)
	if err != nil {
		return nil, err
	}
	return solidResult(b.kernel.Cylinder(v[0], v[1]))
}

// boolean folds op over two or more solids: (union a b c).
func (b *builder) boolean(name string, op func(a, b kernel.Solid) kernel.Solid) builtinFunc {
	return func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) < 2 {
			return nil, fmt.Errorf("%s needs at least two solids", name)
		}
		acc, err := toSolid(pa.positional[0])
		if err != nil {
			return nil, err
		}
		for _, arg := range pa.positional[1:] {
			s, err := toSolid(arg)
			if err != nil {
				return nil, err
			}
			acc = op(acc, s)
		}
		return &sexpSolid{s: acc}, nil
	}
}

// transform wraps translate and rotate: (translate solid x y z).
func (b *builder) transform(op func(s kernel.Solid, x, y, z float64) kernel.Solid) builtinFunc {
	return func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 4 {
			return nil, fmt.Errorf("expected a solid and 3 numbers")
		}
		s, err := toSolid(pa.positional[0])
		if err != nil {
			return nil, err
		}
		v, err := numbers(kwArgs{positional: pa.positional[1:]}, 3)
		if err != nil {
			return nil, err
		}
		return &sexpSolid{s: op(s, v[0], v[1], v[2])}, nil
	}
}

// (tessellate (box 100 100 1) :color "sandybrown")
func (b *builder) tessellate(pa kwArgs) (zygo.Sexp, error) {
	if err := pa.unknown(blockKeywords...); err != nil {
		return nil, err
	}
	arg, err := pa.arg(0, "solid")
	if err != nil {
		return nil, err
	}
	s, err := toSolid(arg)
	if err != nil {
		return nil, err
	}
	mesh, err := b.kernel.ToMesh(s)
	if err != nil {
		return nil, err
	}
	opts, err := blockOptions(pa)
	if err != nil {
		return nil, err
	}
	m, err := mesh.ToPolyMesh(opts...)
	if err != nil {
		return nil, err
	}
	b.add(m)
	return &sexpWidget{w: m}, nil
}

// ---------------------------------------------------------------------------
// Effects
// ---------------------------------------------------------------------------

var effectKeywords = []string{"input", "color"}

// effectArgs reads the parent node and the :input and :color options.
func effectArgs(pa kwArgs, extra ...string) (model.Node, []model.EffectOption, error) {
	if err := pa.unknown(append(extra, effectKeywords...)...); err != nil {
		return nil, nil, err
	}
	arg, err := pa.arg(0, "parent")
	if err != nil {
		return nil, nil, err
	}
	parent, err := toNode(arg)
	if err != nil {
		return nil, nil, fmt.Errorf("parent: %w", err)
	}
	var opts []model.EffectOption
	if v, ok := pa.kw["input"]; ok {
		in, err := toInput(v)
		if err != nil {
			return nil, nil, fmt.Errorf("input: %w", err)
		}
		opts = append(opts, model.WithInput(in))
	}
	if s, ok, err := pa.str("color"); err != nil {
		return nil, nil, err
	} else if ok {
		c, err := model.ParseColor(s)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, model.WithEffectColor(c))
	}
	return parent, opts, nil
}

func (b *builder) effect(n model.Node, err error) (zygo.Sexp, error) {
	if err != nil {
		return nil, err
	}
	b.add(n)
	return &sexpWidget{w: n}, nil
}

// axes reads a keyword holding a number or three numbers.
func axes(pa kwArgs, name string) (model.Axes, bool, error) {
	v, ok := pa.kw[name]
	if !ok {
		return model.Axes{}, false, nil
	}
	g, err := toGo(v)
	if err != nil {
		return model.Axes{}, true, fmt.Errorf("%s: %w", name, err)
	}
	a, err := model.ParseAxes(g)
	if err != nil {
		return model.Axes{}, true, fmt.Errorf("%s: %w", name, err)
	}
	return a, true, nil
}

// (warp mesh :input "displacement" :factor 2 :offset [0 0 1])
func (b *builder) warp(pa kwArgs) (zygo.Sexp, error) {
	parent, opts, err := effectArgs(pa, "offset", "factor")
	if err != nil {
		return nil, err
	}
	offset, hasOffset, err := axes(pa, "offset")
	if err != nil {
		return nil, err
	}
	factor, hasFactor, err := axes(pa, "factor")
	if err != nil {
		return nil, err
	}
	w, err := model.NewWarp(parent, opts...)
	if err != nil {
		return nil, err
	}
	if hasOffset {
		w.SetOffset(offset)
	}
	if hasFactor {
		w.SetFactor(factor)
	}
	return b.effect(w, nil)
}

// (warp-by-scalar mesh :input "height" :factor 0.5)
func (b *builder) warpByScalar(pa kwArgs) (zygo.Sexp, error) {
	parent, opts, err := effectArgs(pa, "factor")
	if err != nil {
		return nil, err
	}
	factor, hasFactor, err := pa.float("factor")
	if err != nil {
		return nil, err
	}
	w, err := model.NewWarpByScalar(parent, opts...)
	if err != nil {
		return nil, err
	}
	if hasFactor {
		w.SetFactor(factor)
	}
	return b.effect(w, nil)
}

// (alpha mesh :input 0.3)
func (b *builder) alpha(pa kwArgs) (zygo.Sexp, error) {
	parent, opts, err := effectArgs(pa)
	if err != nil {
		return nil, err
	}
	return b.effect(model.NewAlpha(parent, opts...))
}

// (rgb mesh :input "color")
func (b *builder) rgb(pa kwArgs) (zygo.Sexp, error) {
	parent, opts, err := effectArgs(pa)
	if err != nil {
		return nil, err
	}
	return b.effect(model.NewRGB(parent, opts...))
}

// valueRange applies :min and :max.
func valueRange(pa kwArgs, min, max func(float64)) error {
	lo, ok, err := pa.float("min")
	if err != nil {
		return err
	}
	if ok {
		min(lo)
	}
	hi, ok, err := pa.float("max")
	if err != nil {
		return err
	}
	if ok {
		max(hi)
	}
	return nil
}

// (iso-color mesh :input "temperature" :min 0 :max 100 :colormap :magma :type :log)
func (b *builder) isoColor(pa kwArgs) (zygo.Sexp, error) {
	parent, opts, err := effectArgs(pa, "min", "max", "colormap", "type")
	if err != nil {
		return nil, err
	}
	c, err := model.NewIsoColor(parent, opts...)
	if err != nil {
		return nil, err
	}
	if err := valueRange(pa, c.SetMin, c.SetMax); err != nil {
		return nil, err
	}
	if s, ok, err := pa.str("colormap"); err != nil {
		return nil, err
	} else if ok {
		if err := c.SetColormap(s); err != nil {
			return nil, err
		}
	}
	if s, ok, err := pa.str("type"); err != nil {
		return nil, err
	} else if ok {
		if err := c.SetScaleType(s); err != nil {
			return nil, err
		}
	}
	return b.effect(c, nil)
}

// (iso-surface mesh :input "pressure" :value 0.5 :dynamic true)
func (b *builder) isoSurface(pa kwArgs) (zygo.Sexp, error) {
	parent, opts, err := effectArgs(pa, "value", "dynamic")
	if err != nil {
		return nil, err
	}
	s, err := model.NewIsoSurface(parent, opts...)
	if err != nil {
		return nil, err
	}
	if v, ok, err := pa.float("value"); err != nil {
		return nil, err
	} else if ok {
		s.SetValue(v)
	}
	if v, ok, err := pa.flag("dynamic"); err != nil {
		return nil, err
	} else if ok {
		s.SetDynamic(v)
	}
	return b.effect(s, nil)
}

// (threshold mesh :input "pressure" :min 0 :max 1 :inclusive false)
func (b *builder) threshold(pa kwArgs) (zygo.Sexp, error) {
	parent, opts, err := effectArgs(pa, "min", "max", "dynamic", "inclusive")
	if err != nil {
		return nil, err
	}
	t, err := model.NewThreshold(parent, opts...)
	if err != nil {
		return nil, err
	}
	if err := valueRange(pa, t.SetMin, t.SetMax); err != nil {
		return nil, err
	}
	if v, ok, err := pa.flag("dynamic"); err != nil {
		return nil, err
	} else if ok {
		t.SetDynamic(v)
	}
	if v, ok, err := pa.flag("inclusive"); err != nil {
		return nil, err
	} else if ok {
		t.SetInclusive(v)
	}
	return b.effect(t, nil)
}

// (under-water floor :texture "sand.png" :texture-scale 4 :texture-position [1 1 0])
func (b *builder) underWater(pa kwArgs) (zygo.Sexp, error) {
	parent, opts, err := effectArgs(pa, "texture", "texture-scale", "texture-position")
	if err != nil {
		return nil, err
	}
	u, err := model.NewUnderWater(parent, opts...)
	if err != nil {
		return nil, err
	}
	if v, ok := pa.kw["texture"]; ok {
		img, err := b.toImage(v)
		if err != nil {
			return nil, fmt.Errorf("texture: %w", err)
		}
		u.SetTexture(img)
	}
	if v, ok, err := pa.float("texture-scale"); err != nil {
		return nil, err
	} else if ok {
		u.SetTextureScale(v)
	}
	if v, ok := pa.kw["texture-position"]; ok {
		p, err := toVec3(v)
		if err != nil {
			return nil, fmt.Errorf("texture-position: %w", err)
		}
		u.SetTexturePosition(p)
	}
	return b.effect(u, nil)
}

// (water surface :under (list sea-bed) :caustics true :caustics-factor 0.3)
func (b *builder) water(pa kwArgs) (zygo.Sexp, error) {
	parent, opts, err := effectArgs(pa, "under", "caustics", "caustics-factor")
	if err != nil {
		return nil, err
	}
	var under []*model.UnderWater
	if v, ok := pa.kw["under"]; ok {
		nodes, err := toNodes(v)
		if err != nil {
			return nil, fmt.Errorf("under: %w", err)
		}
		for _, n := range nodes {
			u, ok := n.(*model.UnderWater)
			if !ok {
				return nil, fmt.Errorf("under: expected under-water, got %s", n.Spec().ModelName)
			}
			under = append(under, u)
		}
	}
	w, err := model.NewWater(parent, under, opts...)
	if err != nil {
		return nil, err
	}
	if v, ok, err := pa.flag("caustics"); err != nil {
		return nil, err
	} else if ok {
		w.SetCausticsEnabled(v)
	}
	if v, ok, err := pa.float("caustics-factor"); err != nil {
		return nil, err
	} else if ok {
		w.SetCausticsFactor(v)
	}
	return b.effect(w, nil)
}

// (color-bar iso)
func (b *builder) colorBar(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.arg(0, "iso-color")
	if err != nil {
		return nil, err
	}
	w, err := toWidget(arg)
	if err != nil {
		return nil, err
	}
	iso, ok := w.(*model.IsoColor)
	if !ok {
		return nil, fmt.Errorf("expected iso-color, got %s", w.Spec().ModelName)
	}
	bar, err := model.NewColorBar(iso)
	if err != nil {
		return nil, err
	}
	b.bars = append(b.bars, bar)
	return &sexpWidget{w: bar}, nil
}

// (image "sand.png")
func (b *builder) image(pa kwArgs) (zygo.Sexp, error) {
	arg, err := pa.arg(0, "path")
	if err != nil {
		return nil, err
	}
	img, err := b.toImage(arg)
	if err != nil {
		return nil, err
	}
	return &sexpWidget{w: img}, nil
}

// toImage accepts an (image ...) value or a path.
func (b *builder) toImage(s zygo.Sexp) (*model.Image, error) {
	if w, ok := s.(*sexpWidget); ok {
		img, ok := w.w.(*model.Image)
		if !ok {
			return nil, fmt.Errorf("expected image, got %s", w.w.Spec().ModelName)
		}
		return img, nil
	}
	rel, err := toString(s)
	if err != nil {
		return nil, err
	}
	path, err := b.resolve(rel)
	if err != nil {
		return nil, err
	}
	return model.LoadImage(path)
}

// ---------------------------------------------------------------------------
// (scene water-surface sea-bed :background "black" :opacity 0.8)
// ---------------------------------------------------------------------------

func (b *builder) sceneForm(pa kwArgs) (zygo.Sexp, error) {
	if err := pa.unknown("background", "opacity"); err != nil {
		return nil, err
	}
	if b.scene != nil {
		return nil, fmt.Errorf("a script declares at most one scene")
	}
	var children []model.Node
	for _, arg := range pa.positional {
		nodes, err := toNodes(arg)
		if err != nil {
			return nil, err
		}
		children = append(children, nodes...)
	}
	s := model.NewScene(children...)
	if v, ok, err := pa.str("background"); err != nil {
		return nil, err
	} else if ok {
		if err := s.SetBackgroundColor(v); err != nil {
			return nil, err
		}
	}
	if v, ok, err := pa.float("opacity"); err != nil {
		return nil, err
	} else if ok {
		if err := s.SetBackgroundOpacity(v); err != nil {
			return nil, err
		}
	}
	b.scene = s
	return &sexpWidget{w: s}, nil
}
