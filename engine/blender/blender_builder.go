package blender

import (
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
)

// PoseBlenderBuilderOption is a functional option for configuring a PoseBlender during construction.
type PoseBlenderBuilderOption func(*poseBlender)

// NewPoseBlender creates an idle PoseBlender whose live pose starts as a copy of initial.
// The initial pose fixes the joint count every later transition target must match.
//
// Parameters:
//   - initial: the starting live pose (copied and normalized)
//   - options: functional options to further configure the blender
//
// Returns:
//   - PoseBlender: the newly created blender
func NewPoseBlender(initial pose.ArticulatedPose, options ...PoseBlenderBuilderOption) PoseBlender {
	b := &poseBlender{
		name: initial.Name,
		live: initial.Clone(),
	}
	b.live.Normalize()

	for _, opt := range options {
		opt(b)
	}
	return b
}

// WithName sets the label used in error messages.
//
// Parameters:
//   - name: the blender label
//
// Returns:
//   - PoseBlenderBuilderOption: option function to apply
func WithName(name string) PoseBlenderBuilderOption {
	return func(b *poseBlender) {
		b.name = name
	}
}

// WithOnComplete registers a callback invoked once when a transition reaches its target.
// Abandoned or cancelled transitions never invoke it. The callback receives a copy of the
// final pose and runs synchronously inside Tick.
//
// Parameters:
//   - fn: the completion callback
//
// Returns:
//   - PoseBlenderBuilderOption: option function to apply
func WithOnComplete(fn func(final pose.ArticulatedPose)) PoseBlenderBuilderOption {
	return func(b *poseBlender) {
		b.onComplete = fn
	}
}
