package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/grab"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/Carmen-Shannon/oxy-xr/engine/rig"
	"github.com/go-gl/mathgl/mgl32"
)

func TestEngineRunTicksRigUntilQuit(t *testing.T) {
	grip := pose.NewArticulatedPose("mug_right", 2)
	grip.RootPosition = mgl32.Vec3{0, 0.1, 0}
	mug := grab.NewGrabbable("mug", grab.WithRightPose(grip), grab.WithDuration(0.05))
	r := rig.NewRig("player",
		rig.WithWorkers(1),
		rig.WithHand(hand.NewHand(hand.WithInitialPose(pose.NewArticulatedPose("rest", 2))), nil),
		rig.WithGrabbables(mug),
	)
	defer r.Close()

	var ticks atomic.Int64
	e := NewEngine(r, WithTickRate(200), WithProfiling(true), WithProfilerInterval(10*time.Millisecond))
	e.SetTickCallback(func(dt float32) {
		if ticks.Add(1) == 20 {
			e.Quit()
		}
	})
	if err := r.Grab(pose.HandRight, mug.ID()); err != nil {
		t.Fatalf("Grab: %v", err)
	}

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatalf("engine did not quit")
	}

	if ticks.Load() < 20 {
		t.Fatalf("expected at least 20 ticks, got %d", ticks.Load())
	}
	if r.Stats().Ticks < 20 {
		t.Fatalf("rig was not ticked by the engine")
	}
	h, _ := r.Hand(pose.HandRight)
	if !h.Pose().ApproxEqual(grip, 1e-5) {
		t.Fatalf("hand should have reached the grip pose after 20 ticks")
	}
	e.Quit()
}

func TestEngineRecoversFromPanic(t *testing.T) {
	r := rig.NewRig("player", rig.WithWorkers(1))
	defer r.Close()
	e := NewEngine(r, WithTickRate(500), WithTickCallback(func(float32) { panic("boom") }))

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("a panicking tick should stop the engine")
	}
}

func TestEngineTickRate(t *testing.T) {
	r := rig.NewRig("player", rig.WithWorkers(1))
	defer r.Close()

	cases := []struct {
		name string
		fps  float64
		want time.Duration
	}{
		{"default", 0, time.Second / 60},
		{"ninety", 90, time.Second / 90},
		{"negative", -5, time.Second / 60},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := NewEngine(r)
			e.SetTickRate(c.fps)
			if e.TickRate() != c.want {
				t.Fatalf("expected %v, got %v", c.want, e.TickRate())
			}
		})
	}
}

func TestNewEnginePanicsWithoutRig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	NewEngine(nil)
}
