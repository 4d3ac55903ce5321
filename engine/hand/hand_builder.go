package hand

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/engine/blender"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
)

// DefaultSpeed is the grip/trigger approach rate in units per second.
const DefaultSpeed = 5

// HandBuilderOption is a functional option for configuring a Hand during construction.
type HandBuilderOption func(*handConfig)

// handConfig collects options before the blender is built, since the blender needs the
// initial pose up front.
type handConfig struct {
	handedness  pose.Handedness
	speed       float32
	initialPose pose.ArticulatedPose
	blenderOpts []blender.PoseBlenderBuilderOption
}

// NewHand creates a visible hand with its animator enabled and an idle pose blender.
// Without WithInitialPose the hand starts from an identity pose with no joints.
//
// Parameters:
//   - options: functional options to configure the hand
//
// Returns:
//   - Hand: the newly created hand
func NewHand(options ...HandBuilderOption) Hand {
	cfg := &handConfig{
		speed:       DefaultSpeed,
		initialPose: pose.NewArticulatedPose("", 0),
	}
	for _, opt := range options {
		opt(cfg)
	}
	if cfg.initialPose.Name == "" {
		cfg.initialPose.Name = cfg.handedness.String() + "_rest"
	}

	bopts := append([]blender.PoseBlenderBuilderOption{blender.WithName(cfg.handedness.String())}, cfg.blenderOpts...)
	return &hand{
		mu:              &sync.Mutex{},
		handedness:      cfg.handedness,
		blender:         blender.NewPoseBlender(cfg.initialPose, bopts...),
		animatorEnabled: true,
		visible:         true,
		speed:           cfg.speed,
	}
}

// WithHandedness sets which hand this is. Defaults to the right hand.
//
// Parameters:
//   - h: the handedness
//
// Returns:
//   - HandBuilderOption: option function to apply
func WithHandedness(h pose.Handedness) HandBuilderOption {
	return func(c *handConfig) {
		c.handedness = h
	}
}

// WithSpeed sets the grip/trigger approach rate. Values <= 0 keep the default.
//
// Parameters:
//   - speed: units per second
//
// Returns:
//   - HandBuilderOption: option function to apply
func WithSpeed(speed float32) HandBuilderOption {
	return func(c *handConfig) {
		if speed > 0 {
			c.speed = speed
		}
	}
}

// WithInitialPose sets the hand's resting pose, which also fixes its joint count.
//
// Parameters:
//   - p: the initial live pose
//
// Returns:
//   - HandBuilderOption: option function to apply
func WithInitialPose(p pose.ArticulatedPose) HandBuilderOption {
	return func(c *handConfig) {
		c.initialPose = p.Clone()
	}
}

// WithBlenderOptions passes extra options through to the hand's PoseBlender.
// Callbacks such as blender.WithOnComplete run while the hand is locked and must not call
// back into the hand.
//
// Parameters:
//   - opts: blender options, applied after the hand's own
//
// Returns:
//   - HandBuilderOption: option function to apply
func WithBlenderOptions(opts ...blender.PoseBlenderBuilderOption) HandBuilderOption {
	return func(c *handConfig) {
		c.blenderOpts = append(c.blenderOpts, opts...)
	}
}
