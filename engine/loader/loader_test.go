package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

func gripAsset(name string) *PoseAsset {
	return &PoseAsset{
		Hand: pose.HandLeft,
		Pose: pose.ArticulatedPose{
			Name:         name,
			RootPosition: mgl32.Vec3{0.02, -0.04, 0.1},
			RootRotation: mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0}),
			Joints: []mgl32.Quat{
				mgl32.QuatRotate(0.3, mgl32.Vec3{1, 0, 0}),
				mgl32.QuatRotate(1.1, mgl32.Vec3{1, 0, 0}),
			},
		},
	}
}

func TestLoaderSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(WithDir(dir))

	asset := gripAsset("mug_left")
	path, err := l.Save(asset, "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join(dir, "mug_left.yaml") {
		t.Fatalf("unexpected default path %s", path)
	}
	if asset.ID == uuid.Nil {
		t.Fatalf("Save should assign an ID")
	}

	fresh := NewLoader(WithDir(dir))
	got, err := fresh.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != asset.ID || got.Hand != pose.HandLeft {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	if !got.Pose.ApproxEqual(asset.Pose, 1e-6) {
		t.Fatalf("pose mismatch: %+v vs %+v", got.Pose, asset.Pose)
	}

	cached, err := fresh.Get("mug_left")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	cached.Pose.Joints[0] = mgl32.QuatIdent()
	again, _ := fresh.Get("mug_left")
	if again.Pose.Joints[0] == mgl32.QuatIdent() {
		t.Fatalf("Get returned a pose aliasing the cache")
	}
}

func TestLoaderLoadReader(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		wantErr bool
		check   func(t *testing.T, a *PoseAsset)
	}{
		{
			name: "defaults",
			doc:  "name: open\njoints:\n  - [0, 0, 0, 1]\n",
			check: func(t *testing.T, a *PoseAsset) {
				if a.Hand != pose.HandRight {
					t.Fatalf("expected default right hand, got %v", a.Hand)
				}
				if a.Pose.RootRotation != mgl32.QuatIdent() {
					t.Fatalf("expected identity root rotation, got %v", a.Pose.RootRotation)
				}
				if a.ID == uuid.Nil {
					t.Fatalf("expected a derived ID")
				}
			},
		},
		{
			name: "xyzw_order",
			doc:  "name: twist\nhand: left\nposition: [1, 2, 3]\nrotation: [0, 0, 2, 0]\n",
			check: func(t *testing.T, a *PoseAsset) {
				want := mgl32.Quat{W: 0, V: mgl32.Vec3{0, 0, 1}}
				if a.Pose.RootRotation != want {
					t.Fatalf("expected normalized %v, got %v", want, a.Pose.RootRotation)
				}
				if a.Pose.RootPosition != (mgl32.Vec3{1, 2, 3}) {
					t.Fatalf("unexpected position %v", a.Pose.RootPosition)
				}
			},
		},
		{name: "missing_name", doc: "hand: left\n", wantErr: true},
		{name: "bad_hand", doc: "name: x\nhand: middle\n", wantErr: true},
		{name: "bad_id", doc: "name: x\nid: nope\n", wantErr: true},
		{name: "zero_joint", doc: "name: x\njoints:\n  - [0, 0, 0, 0]\n", wantErr: true},
		{name: "not_yaml", doc: "name: [unterminated\n", wantErr: true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := NewLoader()
			a, err := l.LoadReader(strings.NewReader(c.doc))
			if c.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", c.wantErr, err)
			}
			if c.check != nil && err == nil {
				c.check(t, a)
			}
		})
	}
}

func TestLoaderLoadDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(WithDir(dir))
	for _, name := range []string{"a", "b"} {
		if _, err := l.Save(gripAsset(name), ""); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("joints: {"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	fresh := NewLoader(WithDir(dir))
	n, err := fresh.LoadDir("")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 assets, got %d", n)
	}
	if names := fresh.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names %v", names)
	}
	if _, err := fresh.Get("broken"); !errors.Is(err, ErrPoseNotFound) {
		t.Fatalf("expected ErrPoseNotFound, got %v", err)
	}

	if name := fresh.Forget(filepath.Join(dir, "a.yaml")); name != "a" {
		t.Fatalf("expected to forget a, got %q", name)
	}
	if _, err := fresh.Get("a"); !errors.Is(err, ErrPoseNotFound) {
		t.Fatalf("expected a to be forgotten, got %v", err)
	}
}

func TestLoaderPutAndWithPose(t *testing.T) {
	seed := gripAsset("seed")
	seed.ID = uuid.New()
	l := NewLoader(WithPose(seed))
	if got, err := l.Get("seed"); err != nil || got.ID != seed.ID {
		t.Fatalf("WithPose not cached: %v %v", got, err)
	}

	extra := gripAsset("extra")
	l.Put(extra)
	if extra.ID == uuid.Nil {
		t.Fatalf("Put should assign an ID")
	}
	if _, err := l.Get("extra"); err != nil {
		t.Fatalf("Get extra: %v", err)
	}

	saved := gripAsset("extra")
	if _, err := l.Save(saved, filepath.Join(t.TempDir(), "extra.yaml")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID != extra.ID {
		t.Fatalf("Put and Save should derive the same ID for one name, got %v and %v", extra.ID, saved.ID)
	}
}

func TestLoaderReloadDropsRenamedPose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.yaml")
	l := NewLoader(WithDir(dir))

	if err := SavePose(path, gripAsset("mug_right")); err != nil {
		t.Fatalf("SavePose: %v", err)
	}
	if _, err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := SavePose(path, gripAsset("cup_right")); err != nil {
		t.Fatalf("SavePose: %v", err)
	}
	if _, err := l.Load(path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if names := l.Names(); len(names) != 1 || names[0] != "cup_right" {
		t.Fatalf("expected only the new name after a rename, got %v", names)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if name := l.Forget(path); name != "cup_right" {
		t.Fatalf("expected to forget cup_right, got %q", name)
	}
	if names := l.Names(); len(names) != 0 {
		t.Fatalf("expected an empty cache, got %v", names)
	}
}

func TestWatchReloadsChangedPose(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(WithDir(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := Watch(ctx, l)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writer := NewLoader(WithDir(dir))
	if _, err := writer.Save(gripAsset("hot"), ""); err != nil {
		t.Fatalf("Save: %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Err != nil || ev.Name != "hot" {
				continue
			}
			if _, err := l.Get("hot"); err != nil {
				t.Fatalf("reloaded pose not cached: %v", err)
			}
			return
		case <-timeout:
			t.Fatalf("no reload event received")
		}
	}
}

func TestSavePoseLoadPose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cup.yml")
	asset := gripAsset("cup_left")
	if err := SavePose(path, asset); err != nil {
		t.Fatalf("SavePose: %v", err)
	}
	got, err := LoadPose(path)
	if err != nil {
		t.Fatalf("LoadPose: %v", err)
	}
	if got.ID != asset.ID || !got.Pose.ApproxEqual(asset.Pose, 1e-6) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if _, err := LoadPose(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
