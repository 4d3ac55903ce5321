package hand

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultShowGhostDistance is the drift, in metres, past which the non-physical ghost hand is shown.
const DefaultShowGhostDistance = 0.05

// Transform is a world-space position and rotation.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// follower is the implementation of the Follower interface.
type follower struct {
	mu *sync.Mutex

	rotationOffset    mgl32.Quat
	showGhostDistance float32

	grabbed          bool
	collidersEnabled bool
	enableIn         float32 // seconds until colliders re-enable, < 0 when nothing is pending
}

// Follower computes the velocities that drive a physics-simulated hand toward its tracked
// controller, decides when the non-physical ghost hand should be shown, and gates the hand's
// colliders around grabs. The host applies the results to its own rigid body and colliders.
type Follower interface {
	// Step returns the linear and angular velocity that move current onto controller in one
	// fixed step. Angular velocity is in radians per second about the world axes. Non-finite
	// results are replaced with zero vectors.
	//
	// Parameters:
	//   - current: the physical hand's transform
	//   - controller: the tracked controller's transform
	//   - fixedDeltaTime: the physics step in seconds (must be > 0, otherwise zero velocities are returned)
	//
	// Returns:
	//   - mgl32.Vec3: linear velocity
	//   - mgl32.Vec3: angular velocity
	Step(current, controller Transform, fixedDeltaTime float32) (mgl32.Vec3, mgl32.Vec3)

	// GhostVisible reports whether the physical hand has drifted far enough from the controller
	// that the non-physical hand should be drawn.
	//
	// Parameters:
	//   - current: the physical hand's position
	//   - controller: the tracked controller's position
	//
	// Returns:
	//   - bool: true if the distance exceeds the configured threshold
	GhostVisible(current, controller mgl32.Vec3) bool

	// DisableColliders turns the hand colliders off and marks the hand as grabbing.
	// Any pending delayed enable is cancelled.
	DisableColliders()

	// EnableCollidersAfter clears the grabbing mark and schedules the colliders to turn back
	// on after delay seconds of Tick. A zero or negative delay enables them immediately. If
	// the hand grabs again before the delay passes, the colliders stay off.
	//
	// Parameters:
	//   - delay: seconds to wait
	EnableCollidersAfter(delay float32)

	// CollidersEnabled reports whether the hand colliders are on.
	CollidersEnabled() bool

	// Tick advances the delayed collider enable.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	Tick(deltaTime float32)
}

var _ Follower = &follower{}

// FollowerBuilderOption is a functional option for configuring a Follower during construction.
type FollowerBuilderOption func(*follower)

// NewFollower creates a Follower with colliders enabled, a 90 degree roll offset between the
// controller frame and the hand model, and the default ghost distance.
//
// Parameters:
//   - options: functional options to configure the follower
//
// Returns:
//   - Follower: the newly created follower
func NewFollower(options ...FollowerBuilderOption) Follower {
	f := &follower{
		mu:                &sync.Mutex{},
		rotationOffset:    mgl32.AnglesToQuat(0, 0, mgl32.DegToRad(90), mgl32.XYZ),
		showGhostDistance: DefaultShowGhostDistance,
		collidersEnabled:  true,
		enableIn:          -1,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// WithRotationOffset sets the controller-to-hand rotation offset from Euler angles in degrees.
//
// Parameters:
//   - x, y, z: rotation about each axis in degrees
//
// Returns:
//   - FollowerBuilderOption: option function to apply
func WithRotationOffset(x, y, z float32) FollowerBuilderOption {
	return func(f *follower) {
		f.rotationOffset = mgl32.AnglesToQuat(mgl32.DegToRad(x), mgl32.DegToRad(y), mgl32.DegToRad(z), mgl32.XYZ)
	}
}

// WithShowGhostDistance sets the drift threshold for showing the ghost hand.
//
// Parameters:
//   - d: distance in metres (values <= 0 keep the default)
//
// Returns:
//   - FollowerBuilderOption: option function to apply
func WithShowGhostDistance(d float32) FollowerBuilderOption {
	return func(f *follower) {
		if d > 0 {
			f.showGhostDistance = d
		}
	}
}

func (f *follower) Step(current, controller Transform, fixedDeltaTime float32) (mgl32.Vec3, mgl32.Vec3) {
	if !(fixedDeltaTime > 0) {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	f.mu.Lock()
	offset := f.rotationOffset
	f.mu.Unlock()

	linear := controller.Position.Sub(current.Position).Mul(1 / fixedDeltaTime)
	if !finiteVec(linear) {
		linear = mgl32.Vec3{}
	}

	diff := controller.Rotation.Mul(offset).Mul(current.Rotation.Inverse())
	angle, axis := common.ToAngleAxis(diff)
	angular := axis.Mul(angle / fixedDeltaTime)
	if !finiteVec(angular) {
		angular = mgl32.Vec3{}
	}
	return linear, angular
}

func (f *follower) GhostVisible(current, controller mgl32.Vec3) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return current.Sub(controller).Len() > f.showGhostDistance
}

func (f *follower) DisableColliders() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grabbed = true
	f.collidersEnabled = false
	f.enableIn = -1
}

func (f *follower) EnableCollidersAfter(delay float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grabbed = false
	if delay <= 0 {
		f.collidersEnabled = true
		f.enableIn = -1
		return
	}
	f.enableIn = delay
}

func (f *follower) CollidersEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collidersEnabled
}

func (f *follower) Tick(deltaTime float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enableIn < 0 || deltaTime <= 0 {
		return
	}
	f.enableIn -= deltaTime
	if f.enableIn <= 0 {
		f.enableIn = -1
		if !f.grabbed {
			f.collidersEnabled = true
		}
	}
}

func finiteVec(v mgl32.Vec3) bool {
	return common.IsFinite(v[0], v[1], v[2])
}
