//go:build !manifold

package main

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/chazu/gany/pkg/config"
	"github.com/chazu/gany/pkg/kernel/manifold"
)

func TestManifoldBackendRequiresTag(t *testing.T) {
	cfg := config.Default()
	cfg.Kernel.Backend = config.BackendManifold
	_, err := NewApp(cfg, zap.NewNop())
	if !errors.Is(err, manifold.ErrUnavailable) {
		t.Errorf("NewApp error = %v, want ErrUnavailable", err)
	}
}
