package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/config"
	"github.com/Carmen-Shannon/oxy-xr/engine/loader"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/Carmen-Shannon/oxy-xr/engine/scenario"
	"github.com/go-gl/mathgl/mgl32"
)

func TestMirroredName(t *testing.T) {
	cases := []struct {
		name string
		from pose.Handedness
		want string
	}{
		{"mug_right", pose.HandRight, "mug_left"},
		{"mug_left", pose.HandLeft, "mug_right"},
		{"mug", pose.HandRight, "mug_left"},
		{"mug_left", pose.HandRight, "mug_left_left"},
	}
	for _, c := range cases {
		t.Run(c.name+"_"+c.from.String(), func(t *testing.T) {
			if got := mirroredName(c.name, c.from); got != c.want {
				t.Fatalf("mirroredName(%q, %s) = %q, want %q", c.name, c.from, got, c.want)
			}
		})
	}
}

func TestMirrorAsset(t *testing.T) {
	src := &loader.PoseAsset{
		Hand: pose.HandRight,
		Pose: pose.NewArticulatedPose("mug_right", 3),
	}
	src.Pose.RootPosition = mgl32.Vec3{0.2, 0.1, 0}

	m := mirrorAsset(src, "")
	if m.Hand != pose.HandLeft || m.Pose.Name != "mug_left" || m.ObjectName() != "mug" {
		t.Fatalf("unexpected mirrored asset %+v", m)
	}
	if m.Pose.RootPosition[0] != -0.2 || src.Pose.RootPosition[0] != 0.2 {
		t.Fatalf("expected x to flip on the copy only, got %v / %v", m.Pose.RootPosition, src.Pose.RootPosition)
	}

	named := mirrorAsset(src, "cup_grip")
	if named.Pose.Name != "cup_grip" || named.ObjectName() != "mug" {
		t.Fatalf("an explicit name must keep the source object, got %q / %q", named.Pose.Name, named.ObjectName())
	}
}

func TestBuildRig(t *testing.T) {
	dir := t.TempDir()
	assets := []*loader.PoseAsset{
		{Hand: pose.HandRight, Pose: pose.NewArticulatedPose("mug_right", 4)},
		{Hand: pose.HandLeft, Pose: pose.NewArticulatedPose("mug_left", 4)},
		{Hand: pose.HandRight, Object: "sword", Pose: pose.NewArticulatedPose("hilt", 4)},
		{Hand: pose.HandLeft, Pose: pose.NewArticulatedPose("left_rest", 4)},
	}
	for _, a := range assets {
		if err := loader.SavePose(filepath.Join(dir, a.Pose.Name+".yaml"), a); err != nil {
			t.Fatalf("SavePose: %v", err)
		}
	}

	cfg := config.Default()
	cfg.Workers = 1
	cfg.Hand.Joints = 2
	cfg.Shake.Source = config.SourceSimplex

	l, err := openLoader(dir)
	if err != nil {
		t.Fatalf("openLoader: %v", err)
	}
	r, err := buildRig(cfg, l)
	if err != nil {
		t.Fatalf("buildRig: %v", err)
	}
	defer r.Close()

	st := r.Stats()
	if st.Hands != 2 || st.Grabbables != 2 {
		t.Fatalf("expected 2 hands and 2 grabbables, got %+v", st)
	}
	left, _ := r.Hand(pose.HandLeft)
	right, _ := r.Hand(pose.HandRight)
	if left.Pose().Name != "left_rest" || left.Pose().JointCount() != 4 {
		t.Fatalf("left hand should start from its rest asset, got %q", left.Pose().Name)
	}
	if right.Pose().Name != "right_rest" || right.Pose().JointCount() != 2 {
		t.Fatalf("right hand should fall back to a %d-joint rest pose, got %q/%d", cfg.Hand.Joints, right.Pose().Name, right.Pose().JointCount())
	}
	if _, err := r.Shaker(cfg.Shake.Name); err != nil {
		t.Fatalf("Shaker: %v", err)
	}
	if _, err := r.Fader(cfg.Fade.Name); err != nil {
		t.Fatalf("Fader: %v", err)
	}
	sword, err := r.GrabbableByName("sword")
	if err != nil {
		t.Fatalf("GrabbableByName: %v", err)
	}
	if _, ok := sword.HandPose(pose.HandRight); !ok {
		t.Fatalf("sword should have a right-hand pose")
	}
}

func TestOpenLoaderMissingDir(t *testing.T) {
	l, err := openLoader(filepath.Join(t.TempDir(), "absent"))
	if err != nil || len(l.Names()) != 0 {
		t.Fatalf("expected an empty loader, got %v, %v", l, err)
	}
	if _, err := os.Stat(l.Dir()); !os.IsNotExist(err) {
		t.Fatalf("openLoader must not create the directory")
	}
}

func TestExampleScenario(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "examples", "oxyxr.yaml"))
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Workers = 1
	l, err := openLoader(filepath.Join("..", "..", cfg.PoseDir))
	if err != nil {
		t.Fatalf("openLoader: %v", err)
	}
	r, err := buildRig(cfg, l)
	if err != nil {
		t.Fatalf("buildRig: %v", err)
	}
	defer r.Close()

	s, err := scenario.LoadScenario(filepath.Join("..", "..", "examples", "grab_mug.tengo"), r,
		scenario.WithFadeDuration(cfg.Fade.Duration), scenario.WithLogf(t.Logf))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for name, want := range map[string]any{"right_state": "idle", "swapped": "sword", "teapot_missing": true} {
		if got, _ := s.Get(name); got != want {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}
	left, _ := r.Hand(pose.HandLeft)
	mug, _ := r.GrabbableByName("mug")
	want, _ := mug.HandPose(pose.HandLeft)
	if !left.Pose().ApproxEqual(want, 1e-5) {
		t.Fatalf("left hand should have settled on the mug pose")
	}
}
