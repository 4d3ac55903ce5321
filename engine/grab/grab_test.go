package grab

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-xr/engine/blender"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

func gripPose(name string, x float32) pose.ArticulatedPose {
	p := pose.NewArticulatedPose(name, 2)
	p.RootPosition = mgl32.Vec3{x, 0.1, 0}
	p.RootRotation = mgl32.QuatRotate(0.4, mgl32.Vec3{0, 1, 0})
	p.Joints[0] = mgl32.QuatRotate(0.8, mgl32.Vec3{1, 0, 0})
	p.Joints[1] = mgl32.QuatRotate(1.2, mgl32.Vec3{1, 0, 0})
	return p
}

func newHand(h pose.Handedness) hand.Hand {
	return hand.NewHand(hand.WithHandedness(h), hand.WithInitialPose(pose.NewArticulatedPose("rest", 2)))
}

func TestSelectEnteredAndExited(t *testing.T) {
	right := gripPose("mug_right", 0.02)
	g := NewGrabbable("mug", WithRightPose(right), WithDuration(0.2))
	h := newHand(pose.HandRight)
	rest := h.Pose()

	started, err := g.SelectEntered(Interactor{Kind: InteractorDirect, Hand: h})
	if err != nil || !started {
		t.Fatalf("SelectEntered: started=%v err=%v", started, err)
	}
	if h.AnimatorEnabled() {
		t.Fatalf("animator should be disabled while holding")
	}
	if !g.Holding(pose.HandRight) || h.PoseState() != blender.StateTransitioning {
		t.Fatalf("expected hand holding and transitioning")
	}
	h.Tick(0.1)
	h.Tick(0.1)
	if !h.Pose().ApproxEqual(right, 1e-5) {
		t.Fatalf("hand did not reach the grip pose: %+v", h.Pose())
	}

	started, err = g.SelectExited(Interactor{Kind: InteractorDirect, Hand: h})
	if err != nil || !started {
		t.Fatalf("SelectExited: started=%v err=%v", started, err)
	}
	if !h.AnimatorEnabled() || g.Holding(pose.HandRight) {
		t.Fatalf("release should re-enable the animator and clear holding")
	}
	h.Tick(0.25)
	if !h.Pose().ApproxEqual(rest, 1e-5) {
		t.Fatalf("hand did not return to the captured start pose")
	}
}

func TestSelectIgnoresRayInteractor(t *testing.T) {
	g := NewGrabbable("mug", WithRightPose(gripPose("r", 0)))
	h := newHand(pose.HandRight)
	for _, fn := range []func(Interactor) (bool, error){g.SelectEntered, g.SelectExited} {
		started, err := fn(Interactor{Kind: InteractorRay, Hand: h})
		if started || err != nil {
			t.Fatalf("ray interactor should be ignored, got started=%v err=%v", started, err)
		}
	}
	if !h.AnimatorEnabled() || h.PoseState() != blender.StateIdle {
		t.Fatalf("ray interactor changed the hand")
	}
}

func TestSelectEnteredErrors(t *testing.T) {
	cases := []struct {
		name    string
		g       Grabbable
		h       hand.Hand
		wantErr error
	}{
		{"no_pose_for_hand", NewGrabbable("mug", WithRightPose(gripPose("r", 0))), newHand(pose.HandLeft), ErrNoPose},
		{"joint_mismatch", NewGrabbable("mug", WithLeftPose(pose.NewArticulatedPose("l", 5))), newHand(pose.HandLeft), blender.ErrInvalidArgument},
		{"nil_hand", NewGrabbable("mug"), nil, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			started, err := c.g.SelectEntered(Interactor{Kind: InteractorDirect, Hand: c.h})
			if started || err == nil {
				t.Fatalf("expected an error, got started=%v err=%v", started, err)
			}
			if c.wantErr != nil && !errors.Is(err, c.wantErr) {
				t.Fatalf("expected %v, got %v", c.wantErr, err)
			}
			if c.h != nil && !c.h.AnimatorEnabled() {
				t.Fatalf("a failed grab must leave the animator enabled")
			}
		})
	}
}

func TestSelectExitedWithoutEnter(t *testing.T) {
	g := NewGrabbable("mug")
	h := newHand(pose.HandRight)
	h.SetAnimatorEnabled(false)
	started, err := g.SelectExited(Interactor{Kind: InteractorDirect, Hand: h})
	if started || err != nil {
		t.Fatalf("unexpected started=%v err=%v", started, err)
	}
	if !h.AnimatorEnabled() {
		t.Fatalf("release should always re-enable the animator")
	}
}

func TestMirrorPoses(t *testing.T) {
	right := gripPose("mug_right", 0.03)
	g := NewGrabbable("mug", WithRightPose(right))

	if err := g.MirrorLeftPose(); !errors.Is(err, ErrNoPose) {
		t.Fatalf("expected ErrNoPose mirroring a missing left pose, got %v", err)
	}
	if err := g.MirrorRightPose(); err != nil {
		t.Fatalf("MirrorRightPose: %v", err)
	}
	left, ok := g.HandPose(pose.HandLeft)
	if !ok {
		t.Fatalf("left pose missing after mirroring the right pose")
	}
	if left.Name != "mug_left" || !left.ApproxEqual(pose.Mirror(right), 0) {
		t.Fatalf("unexpected mirrored pose %+v", left)
	}

	if err := g.MirrorLeftPose(); err != nil {
		t.Fatalf("MirrorLeftPose: %v", err)
	}
	back, _ := g.HandPose(pose.HandRight)
	if back.Name != "mug_right" || !back.ApproxEqual(right, 1e-6) {
		t.Fatalf("mirroring twice should restore the right pose")
	}
}

func TestSelectEnteredFromCarriesStartPose(t *testing.T) {
	g := NewGrabbable("cup", WithRightPose(gripPose("cup_right", 0.05)), WithDuration(0.2))
	h := newHand(pose.HandRight)
	rest := pose.NewArticulatedPose("rest", 2)
	if err := h.Snap(gripPose("mug_right", 0.02)); err != nil {
		t.Fatalf("Snap: %v", err)
	}

	if _, err := g.SelectEnteredFrom(Interactor{Kind: InteractorDirect, Hand: h}, rest); err != nil {
		t.Fatalf("SelectEnteredFrom: %v", err)
	}
	if start, ok := g.StartPose(pose.HandRight); !ok || !start.ApproxEqual(rest, 0) {
		t.Fatalf("start pose should be the one passed in, got %+v", start)
	}
	h.Tick(0.2)
	if _, err := g.SelectExited(Interactor{Kind: InteractorDirect, Hand: h}); err != nil {
		t.Fatalf("SelectExited: %v", err)
	}
	h.Tick(0.2)
	if !h.Pose().ApproxEqual(rest, 1e-5) {
		t.Fatalf("release should return to the carried start pose, got %+v", h.Pose())
	}
	if _, ok := g.StartPose(pose.HandRight); ok {
		t.Fatalf("start pose should be cleared on release")
	}
}

func TestHoverHighlight(t *testing.T) {
	left := newHand(pose.HandLeft)
	right := newHand(pose.HandRight)

	cases := []struct {
		name      string
		setup     func(g Grabbable)
		hover     hand.Hand
		wantOn    bool
		wantColor mgl32.Vec4
	}{
		{"left_hand", func(Grabbable) {}, left, true, DefaultLeftHandColor},
		{"right_hand", func(Grabbable) {}, right, true, DefaultRightHandColor},
		{"held", func(g Grabbable) { g.SelectEntered(Interactor{Kind: InteractorRay, Hand: right}) }, left, false, mgl32.Vec4{}},
		{"attached", func(g Grabbable) { g.SelectEntered(Interactor{Kind: InteractorSocket}) }, left, false, mgl32.Vec4{}},
		{"socket_hover", func(Grabbable) {}, nil, false, mgl32.Vec4{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewGrabbable("mug")
			c.setup(g)
			if on := g.HoverEntered(Interactor{Kind: InteractorRay, Hand: c.hover}); on != c.wantOn {
				t.Fatalf("HoverEntered = %v, want %v", on, c.wantOn)
			}
			hl := g.Highlight()
			if !c.wantOn {
				if hl.Width != 0 {
					t.Fatalf("expected no outline, got %+v", hl)
				}
				return
			}
			if hl.Width != DefaultHighlightWidth || hl.Color != c.wantColor {
				t.Fatalf("unexpected outline %+v", hl)
			}
			g.HoverExited(Interactor{Kind: InteractorRay, Hand: c.hover})
			if g.Highlight().Width != 0 {
				t.Fatalf("hover exit should clear the outline")
			}
		})
	}
}

func TestHighlightClearedOnSelect(t *testing.T) {
	red := mgl32.Vec4{1, 0, 0, 1}
	g := NewGrabbable("mug", WithRightPose(gripPose("r", 0)), WithHighlight(4, red, red))
	h := newHand(pose.HandRight)

	g.HoverEntered(Interactor{Kind: InteractorDirect, Hand: h})
	if hl := g.Highlight(); hl.Width != 4 || hl.Color != red {
		t.Fatalf("unexpected outline %+v", hl)
	}
	if _, err := g.SelectEntered(Interactor{Kind: InteractorDirect, Hand: h}); err != nil {
		t.Fatalf("SelectEntered: %v", err)
	}
	if g.Highlight().Width != 0 {
		t.Fatalf("selecting should clear the outline")
	}
	if g.HoverEntered(Interactor{Kind: InteractorDirect, Hand: h}) {
		t.Fatalf("a held object must not be outlined")
	}
}

func TestHeldInHandAndDropObject(t *testing.T) {
	g := NewGrabbable("mug", WithLeftPose(gripPose("l", -0.02)))
	h := newHand(pose.HandLeft)

	if _, ok := g.HeldInHand(); ok {
		t.Fatalf("a new grabbable is not held")
	}
	if started, err := g.DropObject(); started || err != nil {
		t.Fatalf("dropping a free object should do nothing, got %v %v", started, err)
	}

	if _, err := g.SelectEntered(Interactor{Kind: InteractorDirect, Hand: h}); err != nil {
		t.Fatalf("SelectEntered: %v", err)
	}
	if got, ok := g.HeldInHand(); !ok || got != pose.HandLeft {
		t.Fatalf("expected the left hand to hold the mug, got %v %v", got, ok)
	}
	started, err := g.DropObject()
	if err != nil || !started {
		t.Fatalf("DropObject: started=%v err=%v", started, err)
	}
	if _, ok := g.HeldInHand(); ok || g.Holding(pose.HandLeft) || !h.AnimatorEnabled() {
		t.Fatalf("drop should release the holding hand")
	}

	if _, err := g.SelectEntered(Interactor{Kind: InteractorSocket}); err != nil {
		t.Fatalf("socket SelectEntered: %v", err)
	}
	if !g.Attached() {
		t.Fatalf("expected the mug to be attached")
	}
	if _, ok := g.HeldInHand(); ok {
		t.Fatalf("a socket is not a hand")
	}
	if _, err := g.DropObject(); err != nil || g.Attached() {
		t.Fatalf("drop should detach from the socket, err=%v", err)
	}
}

func TestBuilderDefaults(t *testing.T) {
	id := uuid.New()
	g := NewGrabbable("cup", WithID(id), WithDuration(-1))
	if g.ID() != id || g.Name() != "cup" || g.Duration() != DefaultTransitionDuration {
		t.Fatalf("unexpected grabbable %v %q %v", g.ID(), g.Name(), g.Duration())
	}
	if NewGrabbable("a").ID() == NewGrabbable("b").ID() {
		t.Fatalf("generated IDs should differ")
	}
	if _, ok := g.HandPose(pose.HandLeft); ok {
		t.Fatalf("no poses were configured")
	}
}
