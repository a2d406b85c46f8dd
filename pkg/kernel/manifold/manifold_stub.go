//go:build !manifold

// Package manifold is a geometry kernel backed by the Manifold C library.
// Without the "manifold" build tag New always fails with ErrUnavailable.
//
// Build with: go build -tags=manifold
package manifold

import "github.com/chazu/gany/pkg/kernel"

// New returns ErrUnavailable. Build with -tags=manifold to enable.
// The options are ignored.
func New(...Option) (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
