package model

import (
	"fmt"
)

// Severity indicates whether a validation finding blocks rendering or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks rendering
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding describes a single validation finding.
type Finding struct {
	Widget   Widget // offending widget, nil for scene-level findings
	Message  string
	Severity Severity
}

func (f Finding) Error() string {
	if f.Widget == nil {
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Widget.Spec().ModelName, f.Message)
}

// ValidationResult separates blocking errors from warnings.
type ValidationResult struct {
	Errors   []Finding
	Warnings []Finding
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

func (r *ValidationResult) add(f Finding) {
	if f.Severity == SeverityWarning {
		r.Warnings = append(r.Warnings, f)
		return
	}
	r.Errors = append(r.Errors, f)
}

// Validate checks a scene before it is shown: reference cycles, missing
// references, inputs that no longer resolve, out-of-range indices and
// components that do not match their vertex count. Color bars are checked
// for an IsoColor that the scene actually renders. Validate never mutates
// the scene.
func Validate(s *Scene, bars ...*ColorBar) ValidationResult {
	var r ValidationResult
	for _, f := range validateCycles(s) {
		r.add(f)
	}
	nodes := reachable(s)
	for _, n := range nodes {
		for _, f := range validateNode(n) {
			r.add(f)
		}
	}
	for _, f := range validateColorBars(nodes, bars) {
		r.add(f)
	}
	return r
}

// edges returns the nodes a node points at: its parent, environment
// meshes and under-water blocks. Nil entries are skipped.
func edges(n Node) []Node {
	var out []Node
	b := n.Base()
	if b.parent != nil {
		out = append(out, b.parent)
	}
	for _, e := range b.environmentMeshes {
		if e != nil {
			out = append(out, e)
		}
	}
	if w, ok := n.(*Water); ok {
		for _, u := range w.underWater {
			if u != nil {
				out = append(out, u)
			}
		}
	}
	return out
}

// validateCycles runs a DFS with 3-color marking from every child.
func validateCycles(s *Scene) []Finding {
	const (
		white = iota
		gray
		black
	)
	color := make(map[Node]int)
	var errs []Finding

	var visit func(n Node) bool
	visit = func(n Node) bool {
		switch color[n] {
		case black:
			return false
		case gray:
			errs = append(errs, Finding{
				Widget:   n,
				Message:  "reference cycle: the node is its own ancestor",
				Severity: SeverityError,
			})
			return true
		}
		color[n] = gray
		for _, next := range edges(n) {
			if visit(next) {
				return true
			}
		}
		color[n] = black
		return false
	}

	for _, c := range s.children {
		if c != nil && color[c] == white && visit(c) {
			break
		}
	}
	return errs
}

// reachable lists every node of the scene once, in depth-first order.
func reachable(s *Scene) []Node {
	seen := make(map[Node]bool)
	var out []Node
	var walk func(n Node)
	walk = func(n Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		out = append(out, n)
		for _, next := range edges(n) {
			walk(next)
		}
	}
	for _, c := range s.children {
		if c != nil {
			walk(c)
		}
	}
	return out
}

func validateNode(n Node) []Finding {
	var fs []Finding
	fs = append(fs, validateReferences(n)...)
	fs = append(fs, validateIndices(n)...)
	fs = append(fs, validateComponents(n)...)
	fs = append(fs, validateNames(n)...)
	if e, ok := effectOf(n); ok {
		if err := e.CheckInput(); err != nil {
			fs = append(fs, Finding{
				Widget:   n,
				Message:  fmt.Sprintf("input %s no longer resolves: %v", e.Input(), err),
				Severity: SeverityError,
			})
		}
	}
	return fs
}

type inputChecker interface {
	Input() Input
	CheckInput() error
}

func effectOf(n Node) (inputChecker, bool) {
	e, ok := n.(inputChecker)
	return e, ok
}

func validateReferences(n Node) []Finding {
	var fs []Finding
	b := n.Base()
	for i, e := range b.environmentMeshes {
		if e == nil {
			fs = append(fs, Finding{
				Widget:   n,
				Message:  fmt.Sprintf("environment mesh %d is nil", i),
				Severity: SeverityError,
			})
		}
	}
	if w, ok := n.(*Water); ok {
		for i, u := range w.underWater {
			if u == nil {
				fs = append(fs, Finding{
					Widget:   n,
					Message:  fmt.Sprintf("under-water block %d is nil", i),
					Severity: SeverityError,
				})
			}
		}
	}
	return fs
}

func validateIndices(n Node) []Finding {
	var fs []Finding
	verts := n.Base().VertexCount()
	if n.Base().vertices.Array() == nil {
		// Vertices live on the peer; ranges cannot be checked here.
		verts = -1
	}
	check := func(attr string, idx []uint32, group int) {
		if len(idx)%group != 0 {
			fs = append(fs, Finding{
				Widget:   n,
				Message:  fmt.Sprintf("%s length %d is not a multiple of %d", attr, len(idx), group),
				Severity: SeverityError,
			})
		}
		if verts < 0 {
			return
		}
		for _, i := range idx {
			if int(i) >= verts {
				fs = append(fs, Finding{
					Widget:   n,
					Message:  fmt.Sprintf("%s references vertex %d but the mesh has %d", attr, i, verts),
					Severity: SeverityError,
				})
				return
			}
		}
	}
	switch m := n.(type) {
	case *TetraMesh:
		check("triangle_indices", m.triangles, 3)
		check("tetrahedron_indices", m.tetrahedra, 4)
	case *PolyMesh:
		check("triangle_indices", m.triangles, 3)
	}
	return fs
}

func validateComponents(n Node) []Finding {
	b := n.Base()
	if len(b.data) == 0 || b.vertices.Array() == nil {
		return nil
	}
	verts := b.VertexCount()
	var fs []Finding
	for _, d := range b.data {
		for _, c := range d.components {
			if c.values.Array() == nil || c.Len() == verts {
				continue
			}
			fs = append(fs, Finding{
				Widget:   n,
				Message:  fmt.Sprintf("component (%q, %q) has %d values for %d vertices", d.name, c.name, c.Len(), verts),
				Severity: SeverityError,
			})
		}
	}
	return fs
}

// validateNames warns about duplicate names, which make lookups return
// only the first match.
func validateNames(n Node) []Finding {
	var fs []Finding
	seen := make(map[string]bool)
	for _, d := range n.Base().data {
		if seen[d.name] {
			fs = append(fs, Finding{
				Widget:   n,
				Message:  fmt.Sprintf("duplicate data name %q", d.name),
				Severity: SeverityWarning,
			})
		}
		seen[d.name] = true

		comps := make(map[string]bool)
		for _, c := range d.components {
			if comps[c.name] {
				fs = append(fs, Finding{
					Widget:   d,
					Message:  fmt.Sprintf("duplicate component name %q in %q", c.name, d.name),
					Severity: SeverityWarning,
				})
			}
			comps[c.name] = true
		}
	}
	return fs
}

func validateColorBars(nodes []Node, bars []*ColorBar) []Finding {
	shown := make(map[Node]bool, len(nodes))
	for _, n := range nodes {
		shown[n] = true
	}
	var fs []Finding
	for _, b := range bars {
		if b == nil || shown[b.parent] {
			continue
		}
		fs = append(fs, Finding{
			Widget:   b,
			Message:  "color bar shows an IsoColor that is not part of the scene",
			Severity: SeverityWarning,
		})
	}
	return fs
}
