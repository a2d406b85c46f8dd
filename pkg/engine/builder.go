package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chazu/gany/pkg/kernel"
	"github.com/chazu/gany/pkg/model"
)

// builder collects the models created by one script run.
type builder struct {
	kernel  kernel.Kernel
	baseDir string

	scene *model.Scene
	nodes []model.Node // creation order
	used  map[model.Node]bool
	bars  []*model.ColorBar
}

func newBuilder(k kernel.Kernel, baseDir string) *builder {
	return &builder{
		kernel:  k,
		baseDir: baseDir,
		used:    make(map[model.Node]bool),
	}
}

// add records a new node. Its parent and environment meshes are no longer
// scene roots.
func (b *builder) add(n model.Node) {
	b.nodes = append(b.nodes, n)
	base := n.Base()
	if p := base.Parent(); p != nil {
		b.used[p] = true
	}
	for _, env := range base.EnvironmentMeshes() {
		b.used[env] = true
	}
	if w, ok := n.(*model.Water); ok {
		for _, u := range w.UnderWaterBlocks() {
			b.used[u] = true
		}
	}
}

// finish returns the scene declared by the script. Without an explicit
// (scene ...) form, every node that is not the parent or surrounding of
// another node becomes a child, in creation order.
func (b *builder) finish() *model.Scene {
	if b.scene != nil {
		return b.scene
	}
	var roots []model.Node
	for _, n := range b.nodes {
		if !b.used[n] {
			roots = append(roots, n)
		}
	}
	return model.NewScene(roots...)
}

// resolve maps a script path into the base directory.
func (b *builder) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	base, err := filepath.Abs(b.baseDir)
	if err != nil {
		return "", err
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(base, path)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside of %s", path, base)
	}
	return full, nil
}
