package rig

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-xr/engine/effect"
	"github.com/Carmen-Shannon/oxy-xr/engine/grab"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/google/uuid"
)

// DefaultColliderDelay is how long, in seconds, a released hand waits before its colliders
// come back on.
const DefaultColliderDelay = 0.5

// RigBuilderOption is a functional option for configuring a Rig.
// Use the With* functions to create options.
type RigBuilderOption func(r *rig)

// NewRig creates an empty Rig with its tick worker pool running.
//
// Parameters:
//   - name: the rig's identifier
//   - options: functional options to configure the rig
//
// Returns:
//   - Rig: the newly created rig
func NewRig(name string, options ...RigBuilderOption) Rig {
	r := &rig{
		mu:            &sync.RWMutex{},
		name:          name,
		hands:         make(map[pose.Handedness]*rigHand),
		grabbables:    make(map[uuid.UUID]grab.Grabbable),
		byName:        make(map[string]uuid.UUID),
		held:          make(map[pose.Handedness]uuid.UUID),
		hovers:        make(map[pose.Handedness]*hoverDwell),
		shakers:       make(map[string]effect.Shaker),
		faders:        make(map[string]effect.Fader),
		colliderDelay: DefaultColliderDelay,
		dwellTime:     DefaultHoverDwell,
		tickWorkers:   max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(r)
	}

	// Created after options so WithWorkers can override the default.
	r.tickPool = worker.NewDynamicWorkerPool(r.tickWorkers, 256, 1*time.Second)
	return r
}

// WithWorkers sets the number of worker goroutines that tick hands in parallel.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithWorkers(n int) RigBuilderOption {
	return func(r *rig) {
		if n < 1 {
			n = 1
		}
		r.tickWorkers = n
	}
}

// WithColliderDelay sets how long a released hand waits before re-enabling its colliders.
//
// Parameters:
//   - seconds: the delay (negative values are treated as 0)
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithColliderDelay(seconds float32) RigBuilderOption {
	return func(r *rig) {
		r.colliderDelay = max(seconds, 0)
	}
}

// WithHoverDwell sets how long a hand must hover an object before the rig grabs it.
//
// Parameters:
//   - seconds: the dwell time (0 or less turns dwell grabbing off)
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithHoverDwell(seconds float32) RigBuilderOption {
	return func(r *rig) {
		r.dwellTime = max(seconds, 0)
	}
}

// WithHand registers a hand and its follower during construction.
//
// Parameters:
//   - h: the hand
//   - f: its follower, or nil for a default one
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithHand(h hand.Hand, f hand.Follower) RigBuilderOption {
	return func(r *rig) {
		if f == nil {
			f = hand.NewFollower()
		}
		r.hands[h.Handedness()] = &rigHand{hand: h, follower: f}
	}
}

// WithGrabbables registers grabbables during construction.
//
// Parameters:
//   - gs: the grabbables
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithGrabbables(gs ...grab.Grabbable) RigBuilderOption {
	return func(r *rig) {
		for _, g := range gs {
			r.grabbables[g.ID()] = g
			r.byName[g.Name()] = g.ID()
		}
	}
}

// WithEffects registers shakers and faders during construction.
//
// Parameters:
//   - shakers: the shakers, keyed by their names
//   - faders: the faders, keyed by their names
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithEffects(shakers []effect.Shaker, faders []effect.Fader) RigBuilderOption {
	return func(r *rig) {
		for _, s := range shakers {
			r.shakers[s.Name()] = s
		}
		for _, f := range faders {
			r.faders[f.Name()] = f
		}
	}
}
