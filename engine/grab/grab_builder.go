package grab

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// GrabbableBuilderOption is a functional option for configuring a Grabbable during construction.
type GrabbableBuilderOption func(*grabbable)

// NewGrabbable creates a Grabbable with a fresh ID, no hand poses and the default transition
// duration.
//
// Parameters:
//   - name: the display name, used in error messages
//   - options: functional options to configure the grabbable
//
// Returns:
//   - Grabbable: the newly created grabbable
func NewGrabbable(name string, options ...GrabbableBuilderOption) Grabbable {
	g := &grabbable{
		mu:       &sync.Mutex{},
		id:       uuid.New(),
		name:     name,
		duration: DefaultTransitionDuration,
		poses:    make(map[pose.Handedness]pose.ArticulatedPose),
		start:    make(map[pose.Handedness]pose.ArticulatedPose),

		highlightWidth: DefaultHighlightWidth,
		handColors:     map[pose.Handedness]mgl32.Vec4{
			pose.HandLeft:  DefaultLeftHandColor,
			pose.HandRight: DefaultRightHandColor,
		},
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// WithID sets the grabbable's identifier.
//
// Parameters:
//   - id: the identifier (uuid.Nil keeps the generated one)
//
// Returns:
//   - GrabbableBuilderOption: option function to apply
func WithID(id uuid.UUID) GrabbableBuilderOption {
	return func(g *grabbable) {
		if id != uuid.Nil {
			g.id = id
		}
	}
}

// WithDuration sets the pose transition length. Values <= 0 keep the default.
//
// Parameters:
//   - seconds: the transition length
//
// Returns:
//   - GrabbableBuilderOption: option function to apply
func WithDuration(seconds float32) GrabbableBuilderOption {
	return func(g *grabbable) {
		if seconds > 0 {
			g.duration = seconds
		}
	}
}

// WithRightPose sets the pose applied to a grabbing right hand.
func WithRightPose(p pose.ArticulatedPose) GrabbableBuilderOption {
	return func(g *grabbable) {
		g.poses[pose.HandRight] = p.Clone()
	}
}

// WithLeftPose sets the pose applied to a grabbing left hand.
func WithLeftPose(p pose.ArticulatedPose) GrabbableBuilderOption {
	return func(g *grabbable) {
		g.poses[pose.HandLeft] = p.Clone()
	}
}

// WithHighlight sets the hover outline width and the colour used for each hovering hand.
//
// Parameters:
//   - width: the outline width while hovered (negative values are treated as 0)
//   - left: the colour shown when the left hand hovers
//   - right: the colour shown when the right hand hovers
//
// Returns:
//   - GrabbableBuilderOption: option function to apply
func WithHighlight(width float32, left, right mgl32.Vec4) GrabbableBuilderOption {
	return func(g *grabbable) {
		g.highlightWidth = max(width, 0)
		g.handColors[pose.HandLeft] = left
		g.handColors[pose.HandRight] = right
	}
}
