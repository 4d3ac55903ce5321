package effect

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultShakeDuration is the shake length in seconds.
	DefaultShakeDuration = 0.5
	// DefaultShakeIntensity is the maximum per-axis offset.
	DefaultShakeIntensity = 0.1
)

// ShakerBuilderOption is a functional option for configuring a Shaker during construction.
type ShakerBuilderOption func(*shaker)

// NewShaker creates an idle Shaker at the origin that shakes on X and Y with uniform jitter.
//
// Parameters:
//   - name: the registry name
//   - options: functional options to configure the shaker
//
// Returns:
//   - Shaker: the newly created shaker
func NewShaker(name string, options ...ShakerBuilderOption) Shaker {
	s := &shaker{
		mu:        &sync.Mutex{},
		name:      name,
		duration:  DefaultShakeDuration,
		intensity: DefaultShakeIntensity,
		axes:      [3]bool{true, true, false},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.jitter == nil {
		s.jitter = NewUniformJitter(1)
	}
	s.position = s.origin
	return s
}

// WithShakeDuration sets the shake length. Values <= 0 keep the default.
func WithShakeDuration(seconds float32) ShakerBuilderOption {
	return func(s *shaker) {
		if seconds > 0 {
			s.duration = seconds
		}
	}
}

// WithIntensity sets the maximum per-axis offset. Negative values keep the default.
func WithIntensity(intensity float32) ShakerBuilderOption {
	return func(s *shaker) {
		if intensity >= 0 {
			s.intensity = intensity
		}
	}
}

// WithAxes selects which axes shake.
//
// Parameters:
//   - x, y, z: true to shake on that axis
//
// Returns:
//   - ShakerBuilderOption: option function to apply
func WithAxes(x, y, z bool) ShakerBuilderOption {
	return func(s *shaker) {
		s.axes = [3]bool{x, y, z}
	}
}

// WithJitter sets the sample source. The shaker takes ownership of it.
func WithJitter(j JitterSource) ShakerBuilderOption {
	return func(s *shaker) {
		if j != nil {
			s.jitter = j
		}
	}
}

// WithOrigin sets the initial resting position.
func WithOrigin(p mgl32.Vec3) ShakerBuilderOption {
	return func(s *shaker) {
		s.origin = p
	}
}
