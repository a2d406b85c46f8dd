// Package config loads the desktop shell settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/gany/pkg/engine"
	"github.com/chazu/gany/pkg/kernel/manifold"
	"github.com/chazu/gany/pkg/kernel/sdfx"
)

// Config holds the shell settings. Zero fields are filled by Resolve.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Engine  EngineConfig  `yaml:"engine"`
	Kernel  KernelConfig  `yaml:"kernel"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig sizes the desktop window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// EngineConfig configures script evaluation.
type EngineConfig struct {
	Timeout string `yaml:"timeout"` // e.g. "5s"
	BaseDir string `yaml:"base_dir"`
	Script  string `yaml:"script"`
}

// KernelConfig selects and tunes the solid modeling backend.
type KernelConfig struct {
	Backend   string `yaml:"backend"`    // sdfx or manifold
	MeshCells int    `yaml:"mesh_cells"` // sdfx marching cubes resolution
	Segments  int    `yaml:"segments"`   // manifold circle segments
}

// Kernel backends.
const (
	BackendSDFX     = "sdfx"
	BackendManifold = "manifold"
)

// SceneConfig holds defaults applied to every evaluated scene.
type SceneConfig struct {
	Background string   `yaml:"background"`
	Opacity    *float64 `yaml:"opacity"`
}

// LoggingConfig selects the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Flags holds command line values that override the file.
type Flags struct {
	Script      string
	BaseDir     string
	Development bool
}

// Defaults.
const (
	DefaultTitle  = "gany"
	DefaultWidth  = 1280
	DefaultHeight = 800
	DefaultLevel  = "info"
)

// Default returns a resolved config with no file.
func Default() Config {
	var c Config
	c.Resolve(Flags{})
	return c
}

// Load reads a YAML config file. Fields not set in the file keep their
// zero values until Resolve.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	// Relative paths in the file are relative to the file.
	dir := filepath.Dir(path)
	if cfg.Engine.BaseDir != "" && !filepath.IsAbs(cfg.Engine.BaseDir) {
		cfg.Engine.BaseDir = filepath.Join(dir, cfg.Engine.BaseDir)
	}
	if cfg.Engine.Script != "" && !filepath.IsAbs(cfg.Engine.Script) {
		cfg.Engine.Script = filepath.Join(dir, cfg.Engine.Script)
	}
	return cfg, nil
}

// Validate checks the values that Resolve cannot repair.
func (c *Config) Validate() error {
	if c.Engine.Timeout != "" {
		d, err := time.ParseDuration(c.Engine.Timeout)
		if err != nil {
			return fmt.Errorf("engine.timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("engine.timeout: must be positive, got %s", c.Engine.Timeout)
		}
	}
	if o := c.Scene.Opacity; o != nil && (*o < 0 || *o > 1) {
		return fmt.Errorf("scene.opacity: %v is outside of [0, 1]", *o)
	}
	switch c.Kernel.Backend {
	case "", BackendSDFX, BackendManifold:
	default:
		return fmt.Errorf("kernel.backend: unknown backend %q", c.Kernel.Backend)
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("window: negative size %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

// Resolve fills empty fields with defaults. Flags take priority when set.
func (c *Config) Resolve(flags Flags) {
	if flags.Script != "" {
		c.Engine.Script = flags.Script
	}
	if flags.BaseDir != "" {
		c.Engine.BaseDir = flags.BaseDir
	}
	if flags.Development {
		c.Logging.Development = true
	}

	if c.Window.Title == "" {
		c.Window.Title = DefaultTitle
	}
	if c.Window.Width <= 0 {
		c.Window.Width = DefaultWidth
	}
	if c.Window.Height <= 0 {
		c.Window.Height = DefaultHeight
	}
	if c.Engine.Timeout == "" {
		c.Engine.Timeout = engine.EvalTimeout.String()
	}
	if c.Engine.BaseDir == "" {
		if c.Engine.Script != "" {
			c.Engine.BaseDir = filepath.Dir(c.Engine.Script)
		} else {
			c.Engine.BaseDir = "."
		}
	}
	if c.Kernel.Backend == "" {
		c.Kernel.Backend = BackendSDFX
	}
	if c.Kernel.MeshCells <= 0 {
		c.Kernel.MeshCells = sdfx.DefaultMeshCells
	}
	if c.Kernel.Segments < 3 {
		c.Kernel.Segments = manifold.DefaultSegments
	}
	if c.Logging.Level == "" {
		if c.Logging.Development {
			c.Logging.Level = "debug"
		} else {
			c.Logging.Level = DefaultLevel
		}
	}
}

// EvalTimeout returns the parsed evaluation timeout, falling back to the
// engine default when the value is missing or invalid.
func (c *Config) EvalTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil || d <= 0 {
		return engine.EvalTimeout
	}
	return d
}

// SceneOpacity returns the configured background opacity and whether one
// was set.
func (c *Config) SceneOpacity() (float64, bool) {
	if c.Scene.Opacity == nil {
		return 0, false
	}
	return *c.Scene.Opacity, true
}
