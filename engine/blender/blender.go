package blender

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
)

// ErrInvalidArgument is wrapped by every error BeginTransition and Snap return. A call that
// fails leaves the blender exactly as it was.
var ErrInvalidArgument = errors.New("invalid argument")

// completionTolerance is how many seconds short of the duration a transition may be and still
// complete. It absorbs float32 accumulation error when many deltas sum to the duration.
const completionTolerance = 1e-6

// State is the blender's lifecycle state.
type State int

const (
	// StateIdle means no transition is active. Ticks are no-ops.
	StateIdle State = iota

	// StateTransitioning means a transition is being advanced by Tick.
	StateTransitioning
)

// String returns a lowercase name for logs and scripts.
func (s State) String() string {
	if s == StateTransitioning {
		return "transitioning"
	}
	return "idle"
}

// transitionRequest is an immutable snapshot of one requested blend.
type transitionRequest struct {
	source, destination pose.ArticulatedPose
	duration            float32
}

// blendState tracks progress of the active request.
type blendState struct {
	elapsed  float32
	request  transitionRequest
	complete bool
}

// poseBlender is the implementation of the PoseBlender interface.
type poseBlender struct {
	name string

	live   pose.ArticulatedPose
	active *blendState

	onComplete func(pose.ArticulatedPose)
}

// PoseBlender interpolates a live articulated pose toward a target over a duration, advanced
// by an external per-frame tick.
//
// A PoseBlender performs no synchronization of its own. All calls on one instance must be
// serialized by the host, which normally means calling them from a single update loop.
type PoseBlender interface {
	// Name returns the label given with WithName.
	Name() string

	// BeginTransition starts blending from the currently applied pose toward target.
	// A transition already in progress is abandoned in place without firing its completion
	// callback, and the pose it had reached becomes the new source.
	//
	// Parameters:
	//   - target: the pose to blend toward (copied; later mutation by the caller has no effect)
	//   - duration: the blend length in seconds (must be > 0)
	//
	// Returns:
	//   - error: an error wrapping ErrInvalidArgument if duration is not positive, the target
	//     joint count differs from the live pose, or the target is not a valid pose
	BeginTransition(target pose.ArticulatedPose, duration float32) error

	// Tick advances the active transition by deltaTime seconds and applies the interpolated
	// pose. No-op when idle. Negative or non-finite deltas count as zero.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the previous tick in seconds
	Tick(deltaTime float32)

	// Snap replaces the live pose immediately and cancels any active transition.
	// The joint count may change.
	//
	// Parameters:
	//   - p: the new live pose (copied)
	//
	// Returns:
	//   - error: an error wrapping ErrInvalidArgument if p is not a valid pose
	Snap(p pose.ArticulatedPose) error

	// Cancel abandons the active transition, leaving the live pose where it is.
	// The completion callback does not fire.
	Cancel()

	// State returns whether a transition is active.
	State() State

	// Progress returns the interpolation factor of the active transition, or 0 when idle.
	Progress() float32

	// Pose returns a copy of the currently applied pose.
	Pose() pose.ArticulatedPose

	// PoseInto copies the currently applied pose into dst, reusing its joint storage.
	//
	// Parameters:
	//   - dst: the destination pose (must not be nil)
	PoseInto(dst *pose.ArticulatedPose)

	// JointCount returns the number of joints in the live pose.
	JointCount() int
}

var _ PoseBlender = &poseBlender{}

func (b *poseBlender) Name() string {
	return b.name
}

func (b *poseBlender) BeginTransition(target pose.ArticulatedPose, duration float32) error {
	if !(duration > 0) || !common.IsFinite(duration) {
		return fmt.Errorf("blender %q: duration %v must be a positive number of seconds: %w", b.name, duration, ErrInvalidArgument)
	}
	if target.JointCount() != b.live.JointCount() {
		return fmt.Errorf("blender %q: target %q has %d joints, live pose has %d: %w",
			b.name, target.Name, target.JointCount(), b.live.JointCount(), ErrInvalidArgument)
	}
	if err := target.Validate(); err != nil {
		return fmt.Errorf("blender %q: %v: %w", b.name, err, ErrInvalidArgument)
	}

	dst := target.Clone()
	dst.Normalize()
	b.active = &blendState{
		request: transitionRequest{
			source:      b.live.Clone(),
			destination: dst,
			duration:    duration,
		},
	}
	return nil
}

func (b *poseBlender) Tick(deltaTime float32) {
	st := b.active
	if st == nil || st.complete {
		return
	}
	if deltaTime > 0 && common.IsFinite(deltaTime) {
		st.elapsed += deltaTime
	}

	req := &st.request
	if st.elapsed >= req.duration-completionTolerance {
		req.destination.CopyInto(&b.live)
		st.complete = true
		b.active = nil
		if b.onComplete != nil {
			b.onComplete(b.live.Clone())
		}
		return
	}

	t := common.Clamp01(st.elapsed / req.duration)
	b.live.RootPosition = common.LerpVec3(req.source.RootPosition, req.destination.RootPosition, t)
	b.live.RootRotation = common.SlerpShortest(req.source.RootRotation, req.destination.RootRotation, t)
	for i := range b.live.Joints {
		b.live.Joints[i] = common.SlerpShortest(req.source.Joints[i], req.destination.Joints[i], t)
	}
}

func (b *poseBlender) Snap(p pose.ArticulatedPose) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("blender %q: %v: %w", b.name, err, ErrInvalidArgument)
	}
	b.active = nil
	b.live = p.Clone()
	b.live.Normalize()
	return nil
}

func (b *poseBlender) Cancel() {
	b.active = nil
}

func (b *poseBlender) State() State {
	if b.active == nil {
		return StateIdle
	}
	return StateTransitioning
}

func (b *poseBlender) Progress() float32 {
	if b.active == nil {
		return 0
	}
	return common.Clamp01(b.active.elapsed / b.active.request.duration)
}

func (b *poseBlender) Pose() pose.ArticulatedPose {
	return b.live.Clone()
}

func (b *poseBlender) PoseInto(dst *pose.ArticulatedPose) {
	b.live.CopyInto(dst)
}

func (b *poseBlender) JointCount() int {
	return b.live.JointCount()
}
