package manifold

import "errors"

// ErrUnavailable is returned by New when the binary was built without the
// manifold tag.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// DefaultSegments is the number of segments used to approximate circles.
const DefaultSegments = 48

type settings struct {
	segments int
}

// Option configures the kernel.
type Option func(*settings)

// WithSegments sets the circular segment count of spheres and cylinders.
// Values below 3 are ignored.
func WithSegments(n int) Option {
	return func(s *settings) {
		if n >= 3 {
			s.segments = n
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{segments: DefaultSegments}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
