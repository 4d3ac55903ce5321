package hand

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/blender"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/go-gl/mathgl/mgl32"
)

func TestHandGripTriggerSmoothing(t *testing.T) {
	cases := []struct {
		name        string
		speed       float32
		target      float32
		ticks       []float32
		wantGrip    float32
		wantTrigger float32
	}{
		{"partial", 2, 1, []float32{0.1}, 0.2, 0.2},
		{"reaches_target", 2, 1, []float32{0.3, 0.3}, 1, 1},
		{"no_overshoot", 5, 0.5, []float32{1}, 0.5, 0.5},
		{"clamped_target", 10, 3, []float32{1}, 1, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := NewHand(WithSpeed(c.speed))
			h.SetGrip(c.target)
			h.SetTrigger(c.target)
			for _, d := range c.ticks {
				h.Tick(d)
			}
			if !common.Near(h.Grip(), c.wantGrip, 1e-6) {
				t.Fatalf("grip: expected %v, got %v", c.wantGrip, h.Grip())
			}
			if !common.Near(h.Trigger(), c.wantTrigger, 1e-6) {
				t.Fatalf("trigger: expected %v, got %v", c.wantTrigger, h.Trigger())
			}
		})
	}
}

func TestHandVisibilityAndAnimator(t *testing.T) {
	h := NewHand(WithHandedness(pose.HandLeft))
	if h.Handedness() != pose.HandLeft {
		t.Fatalf("expected left hand")
	}
	if !h.Visible() || !h.AnimatorEnabled() {
		t.Fatalf("new hands start visible with the animator enabled")
	}
	h.ToggleVisibility()
	if h.Visible() {
		t.Fatalf("expected hidden after toggle")
	}
	h.SetVisible(true)
	if !h.Visible() {
		t.Fatalf("expected visible")
	}
	h.SetAnimatorEnabled(false)
	if h.AnimatorEnabled() {
		t.Fatalf("expected animator disabled")
	}
}

func TestHandDrivesBlender(t *testing.T) {
	rest := pose.NewArticulatedPose("rest", 3)
	grip := rest.Clone()
	grip.RootPosition = mgl32.Vec3{0, 0.1, 0}
	for i := range grip.Joints {
		grip.Joints[i] = mgl32.QuatRotate(1, mgl32.Vec3{1, 0, 0})
	}

	done := 0
	h := NewHand(WithInitialPose(rest), WithBlenderOptions(blender.WithOnComplete(func(pose.ArticulatedPose) { done++ })))
	if err := h.BeginTransition(grip, 0.2); err != nil {
		t.Fatalf("BeginTransition: %v", err)
	}
	h.Tick(0.1)
	if h.PoseState() != blender.StateTransitioning || !common.Near(h.PoseProgress(), 0.5, 1e-6) {
		t.Fatalf("unexpected state %v progress %v", h.PoseState(), h.PoseProgress())
	}
	h.Tick(0.1)
	if !h.Pose().ApproxEqual(grip, 1e-5) || done != 1 {
		t.Fatalf("hand did not settle on the grip pose (done=%d)", done)
	}

	if err := h.BeginTransition(pose.NewArticulatedPose("short", 1), 0.2); !errors.Is(err, blender.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for joint mismatch, got %v", err)
	}
	if err := h.Snap(rest); err != nil {
		t.Fatalf("Snap: %v", err)
	}
	if !h.Pose().ApproxEqual(rest, 0) {
		t.Fatalf("snap did not apply")
	}
}

func TestFollowerStep(t *testing.T) {
	f := NewFollower(WithRotationOffset(0, 0, 0))

	current := Transform{Position: mgl32.Vec3{0, 1, 0}, Rotation: mgl32.QuatIdent()}
	controller := Transform{
		Position: mgl32.Vec3{0.1, 1, -0.2},
		Rotation: mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0}),
	}
	lin, ang := f.Step(current, controller, 0.02)
	if !common.Vec3Near(lin, mgl32.Vec3{5, 0, -10}, 1e-3) {
		t.Fatalf("unexpected linear velocity %v", lin)
	}
	if !common.Vec3Near(ang, mgl32.Vec3{0, math.Pi / 2 / 0.02, 0}, 1e-2) {
		t.Fatalf("unexpected angular velocity %v", ang)
	}

	lin, ang = f.Step(current, current, 0.02)
	if lin != (mgl32.Vec3{}) || ang != (mgl32.Vec3{}) {
		t.Fatalf("expected zero velocity when already aligned, got %v %v", lin, ang)
	}

	lin, ang = f.Step(current, controller, 0)
	if lin != (mgl32.Vec3{}) || ang != (mgl32.Vec3{}) {
		t.Fatalf("expected zero velocity for a zero step")
	}
}

func TestFollowerDefaultOffset(t *testing.T) {
	f := NewFollower()
	ident := Transform{Rotation: mgl32.QuatIdent()}
	_, ang := f.Step(ident, ident, 1)
	if !common.Vec3Near(ang, mgl32.Vec3{0, 0, math.Pi / 2}, 1e-4) {
		t.Fatalf("expected a quarter turn about Z from the default offset, got %v", ang)
	}
}

func TestFollowerGhost(t *testing.T) {
	f := NewFollower(WithShowGhostDistance(0.1))
	if f.GhostVisible(mgl32.Vec3{}, mgl32.Vec3{0.05, 0, 0}) {
		t.Fatalf("ghost should be hidden inside the threshold")
	}
	if !f.GhostVisible(mgl32.Vec3{}, mgl32.Vec3{0, 0.2, 0}) {
		t.Fatalf("ghost should be visible past the threshold")
	}
}

func TestFollowerColliderGate(t *testing.T) {
	cases := []struct {
		name string
		run  func(f Follower)
		want bool
	}{
		{"default_on", func(f Follower) {}, true},
		{"disabled", func(f Follower) { f.DisableColliders() }, false},
		{"delay_not_elapsed", func(f Follower) {
			f.DisableColliders()
			f.EnableCollidersAfter(0.5)
			f.Tick(0.3)
		}, false},
		{"delay_elapsed", func(f Follower) {
			f.DisableColliders()
			f.EnableCollidersAfter(0.5)
			f.Tick(0.3)
			f.Tick(0.3)
		}, true},
		{"immediate", func(f Follower) {
			f.DisableColliders()
			f.EnableCollidersAfter(0)
		}, true},
		{"regrabbed_during_delay", func(f Follower) {
			f.DisableColliders()
			f.EnableCollidersAfter(0.5)
			f.Tick(0.2)
			f.DisableColliders()
			f.Tick(1)
		}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := NewFollower()
			c.run(f)
			if f.CollidersEnabled() != c.want {
				t.Fatalf("expected colliders enabled=%v", c.want)
			}
		})
	}
}
