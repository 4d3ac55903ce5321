// Package effect holds the small time-driven effects a rig runs alongside its hands: positional
// shake and screen fades.
package effect

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// shaker is the implementation of the Shaker interface.
type shaker struct {
	mu *sync.Mutex

	name      string
	duration  float32
	intensity float32
	axes      [3]bool
	jitter    JitterSource

	origin   mgl32.Vec3
	position mgl32.Vec3
	elapsed  float32
	active   bool
}

// Shaker jitters a position around its origin for a fixed duration, then puts it back exactly.
type Shaker interface {
	// Name returns the shaker's registry name.
	Name() string

	// Shake starts the effect, or restarts it from the beginning if it is already running.
	Shake()

	// Active reports whether a shake is in progress.
	Active() bool

	// Origin returns the resting position.
	Origin() mgl32.Vec3

	// SetOrigin moves the resting position. A running shake continues around the new origin.
	//
	// Parameters:
	//   - p: the new resting position
	SetOrigin(p mgl32.Vec3)

	// Tick advances the shake.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	//
	// Returns:
	//   - mgl32.Vec3: the shaken position, or the origin once the shake has finished
	Tick(deltaTime float32) mgl32.Vec3

	// Position returns the position computed by the last Tick.
	Position() mgl32.Vec3
}

var _ Shaker = &shaker{}

func (s *shaker) Name() string {
	return s.name
}

func (s *shaker) Shake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = 0
	s.active = true
}

func (s *shaker) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *shaker) Origin() mgl32.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

func (s *shaker) SetOrigin(p mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.origin = p
	if !s.active {
		s.position = p
	}
}

func (s *shaker) Tick(deltaTime float32) mgl32.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return s.position
	}
	if deltaTime > 0 {
		s.elapsed += deltaTime
	}
	if s.elapsed >= s.duration {
		s.active = false
		s.position = s.origin
		return s.position
	}

	var offset mgl32.Vec3
	for axis, on := range s.axes {
		if on {
			offset[axis] = s.jitter.Sample(axis, s.elapsed) * s.intensity
		}
	}
	s.position = s.origin.Add(offset)
	return s.position
}

func (s *shaker) Position() mgl32.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}
