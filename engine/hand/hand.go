// Package hand models a tracked XR hand: its pose blender, animator input parameters,
// visibility and the physics-follow helper for physical hands.
package hand

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/blender"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
)

// hand is the implementation of the Hand interface.
type hand struct {
	mu *sync.Mutex

	handedness pose.Handedness
	blender    blender.PoseBlender

	animatorEnabled bool
	visible         bool

	speed                         float32
	gripTarget, gripCurrent       float32
	triggerTarget, triggerCurrent float32
}

// Hand is one tracked hand. It owns the PoseBlender that drives its articulated pose while an
// object is held, and the grip/trigger parameters that feed the host's hand animator otherwise.
//
// Hand serializes access to its blender, so its methods are safe to call from the host's
// event dispatch and from the frame loop concurrently.
type Hand interface {
	// Handedness returns which hand this is.
	Handedness() pose.Handedness

	// BeginTransition starts a pose transition on the hand's blender.
	//
	// Parameters:
	//   - target: the pose to blend toward
	//   - duration: the blend length in seconds
	//
	// Returns:
	//   - error: the blender's error, wrapping blender.ErrInvalidArgument on bad input
	BeginTransition(target pose.ArticulatedPose, duration float32) error

	// Snap replaces the live pose immediately, cancelling any transition.
	//
	// Parameters:
	//   - p: the new live pose
	//
	// Returns:
	//   - error: the blender's error, wrapping blender.ErrInvalidArgument on bad input
	Snap(p pose.ArticulatedPose) error

	// Pose returns a copy of the hand's live pose.
	Pose() pose.ArticulatedPose

	// PoseState returns the blender state.
	PoseState() blender.State

	// PoseProgress returns the blender's interpolation factor, or 0 when idle.
	PoseProgress() float32

	// AnimatorEnabled reports whether the host's hand animator should drive the hand.
	// Grabbing disables it so the pose blender has sole control.
	AnimatorEnabled() bool

	// SetAnimatorEnabled enables or disables the host animator.
	//
	// Parameters:
	//   - enabled: true to let the animator drive the hand
	SetAnimatorEnabled(enabled bool)

	// SetGrip sets the grip parameter target in [0, 1].
	//
	// Parameters:
	//   - v: the target grip value
	SetGrip(v float32)

	// SetTrigger sets the trigger parameter target in [0, 1].
	//
	// Parameters:
	//   - v: the target trigger value
	SetTrigger(v float32)

	// Grip returns the current smoothed grip value.
	Grip() float32

	// Trigger returns the current smoothed trigger value.
	Trigger() float32

	// Visible reports whether the hand mesh should be shown.
	Visible() bool

	// SetVisible shows or hides the hand mesh.
	//
	// Parameters:
	//   - visible: true to show the hand
	SetVisible(visible bool)

	// ToggleVisibility flips the hand mesh visibility.
	ToggleVisibility()

	// Tick advances the grip/trigger smoothing and the pose blender.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the previous tick in seconds
	Tick(deltaTime float32)
}

var _ Hand = &hand{}

func (h *hand) Handedness() pose.Handedness {
	return h.handedness
}

func (h *hand) BeginTransition(target pose.ArticulatedPose, duration float32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.blender.BeginTransition(target, duration)
}

func (h *hand) Snap(p pose.ArticulatedPose) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.blender.Snap(p)
}

func (h *hand) Pose() pose.ArticulatedPose {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.blender.Pose()
}

func (h *hand) PoseState() blender.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.blender.State()
}

func (h *hand) PoseProgress() float32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.blender.Progress()
}

func (h *hand) AnimatorEnabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.animatorEnabled
}

func (h *hand) SetAnimatorEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.animatorEnabled = enabled
}

func (h *hand) SetGrip(v float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gripTarget = common.Clamp01(v)
}

func (h *hand) SetTrigger(v float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.triggerTarget = common.Clamp01(v)
}

func (h *hand) Grip() float32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gripCurrent
}

func (h *hand) Trigger() float32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.triggerCurrent
}

func (h *hand) Visible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

func (h *hand) SetVisible(visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visible = visible
}

func (h *hand) ToggleVisibility() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visible = !h.visible
}

func (h *hand) Tick(deltaTime float32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	step := deltaTime * h.speed
	if h.gripCurrent != h.gripTarget {
		h.gripCurrent = common.MoveTowards(h.gripCurrent, h.gripTarget, step)
	}
	if h.triggerCurrent != h.triggerTarget {
		h.triggerCurrent = common.MoveTowards(h.triggerCurrent, h.triggerTarget, step)
	}
	h.blender.Tick(deltaTime)
}
