package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/gany/pkg/engine"
	"github.com/chazu/gany/pkg/kernel/manifold"
	"github.com/chazu/gany/pkg/kernel/sdfx"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gany.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, DefaultTitle, c.Window.Title)
	assert.Equal(t, DefaultWidth, c.Window.Width)
	assert.Equal(t, DefaultHeight, c.Window.Height)
	assert.Equal(t, engine.EvalTimeout, c.EvalTimeout())
	assert.Equal(t, ".", c.Engine.BaseDir)
	assert.Equal(t, BackendSDFX, c.Kernel.Backend)
	assert.Equal(t, sdfx.DefaultMeshCells, c.Kernel.MeshCells)
	assert.Equal(t, manifold.DefaultSegments, c.Kernel.Segments)
	assert.Equal(t, "info", c.Logging.Level)
	_, ok := c.SceneOpacity()
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
window:
  title: Ocean
  width: 640
engine:
  timeout: 250ms
  script: scenes/ocean.lisp
kernel:
  backend: manifold
  mesh_cells: 40
  segments: 24
scene:
  background: black
  opacity: 0.5
logging:
  level: warn
`)
	c, err := Load(path)
	require.NoError(t, err)
	c.Resolve(Flags{})

	dir := filepath.Dir(path)
	assert.Equal(t, "Ocean", c.Window.Title)
	assert.Equal(t, 640, c.Window.Width)
	assert.Equal(t, DefaultHeight, c.Window.Height)
	assert.Equal(t, 250*time.Millisecond, c.EvalTimeout())
	assert.Equal(t, filepath.Join(dir, "scenes", "ocean.lisp"), c.Engine.Script)
	assert.Equal(t, filepath.Join(dir, "scenes"), c.Engine.BaseDir, "base dir follows the script")
	assert.Equal(t, BackendManifold, c.Kernel.Backend)
	assert.Equal(t, 40, c.Kernel.MeshCells)
	assert.Equal(t, 24, c.Kernel.Segments)
	assert.Equal(t, "black", c.Scene.Background)
	o, ok := c.SceneOpacity()
	assert.True(t, ok)
	assert.Equal(t, 0.5, o)
	assert.Equal(t, "warn", c.Logging.Level)
}

func TestLoadZeroOpacityIsSet(t *testing.T) {
	c, err := Load(writeConfig(t, "scene:\n  opacity: 0\n"))
	require.NoError(t, err)
	o, ok := c.SceneOpacity()
	assert.True(t, ok)
	assert.Zero(t, o)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "window: [", "config: parse"},
		{"timeout", "engine:\n  timeout: soon\n", "engine.timeout"},
		{"negative timeout", "engine:\n  timeout: -1s\n", "must be positive"},
		{"opacity", "scene:\n  opacity: 2\n", "scene.opacity"},
		{"size", "window:\n  width: -1\n", "negative size"},
		{"backend", "kernel:\n  backend: cgal\n", `unknown backend "cgal"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveFlagsOverride(t *testing.T) {
	c := Config{Engine: EngineConfig{Script: "a.lisp", BaseDir: "here"}}
	c.Resolve(Flags{Script: "b.lisp", BaseDir: "there", Development: true})
	assert.Equal(t, "b.lisp", c.Engine.Script)
	assert.Equal(t, "there", c.Engine.BaseDir)
	assert.True(t, c.Logging.Development)
	assert.Equal(t, "debug", c.Logging.Level)
}

func TestEvalTimeoutFallback(t *testing.T) {
	c := Config{Engine: EngineConfig{Timeout: "bogus"}}
	assert.Equal(t, engine.EvalTimeout, c.EvalTimeout())
}
