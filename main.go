package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chazu/gany/pkg/config"
	"github.com/chazu/gany/pkg/engine"
	"github.com/chazu/gany/pkg/model"
	"github.com/chazu/gany/pkg/vtk"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	configPath string
	flags      config.Flags
)

var rootCmd = &cobra.Command{
	Use:   "gany [script]",
	Short: "gany - interactive 3D scientific scene viewer",
	Long: `gany evaluates a scene script into meshes, data and effect chains
and displays them in a desktop window. Changes made in the window are
validated and echoed back to the scene.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			flags.Script = args[0]
		}
		cfg, err := loadConfig(configPath, flags)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		model.SetLogger(logger)
		engine.SetLogger(logger)
		vtk.SetLogger(logger)

		app, err := NewApp(cfg, logger)
		if err != nil {
			return err
		}
		return wails.Run(&options.App{
			Title:  cfg.Window.Title,
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			AssetServer: &assetserver.Options{
				Assets: assets,
			},
			OnStartup:  app.startup,
			OnDomReady: app.domReady,
			Bind: []interface{}{
				app,
			},
		})
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.Flags().StringVar(&flags.BaseDir, "base-dir", "", "directory scripts may load files from")
	rootCmd.Flags().BoolVar(&flags.Development, "dev", false, "development logging")
}

// loadConfig reads path when given and resolves defaults and flags.
func loadConfig(path string, flags config.Flags) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	cfg.Resolve(flags)
	return cfg, nil
}

// newLogger builds a production or development zap logger at the
// configured level.
func newLogger(c config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
