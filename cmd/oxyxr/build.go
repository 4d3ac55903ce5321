package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-xr/engine/config"
	"github.com/Carmen-Shannon/oxy-xr/engine/effect"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
	"github.com/Carmen-Shannon/oxy-xr/engine/loader"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/Carmen-Shannon/oxy-xr/engine/rig"
)

// buildRig assembles a two-handed rig from the config and the poses cached in l.
func buildRig(cfg config.Config, l loader.Loader) (rig.Rig, error) {
	opts := []rig.RigBuilderOption{
		rig.WithColliderDelay(*cfg.Follow.ColliderDelay),
		rig.WithHoverDwell(*cfg.Interact.HoverDwell),
	}
	if cfg.Workers > 0 {
		opts = append(opts, rig.WithWorkers(cfg.Workers))
	}

	for _, h := range []pose.Handedness{pose.HandLeft, pose.HandRight} {
		rest, ok := rig.RestPose(l, h)
		if !ok {
			rest = pose.NewArticulatedPose(rig.RestPoseName(h), cfg.Hand.Joints)
		}
		offset := *cfg.Follow.RotationOffset
		opts = append(opts, rig.WithHand(
			hand.NewHand(
				hand.WithHandedness(h),
				hand.WithSpeed(cfg.Hand.Speed),
				hand.WithInitialPose(rest),
			),
			hand.NewFollower(
				hand.WithRotationOffset(offset[0], offset[1], offset[2]),
				hand.WithShowGhostDistance(cfg.Follow.ShowGhostDistance),
			),
		))
	}

	var jitter effect.JitterSource
	switch cfg.Shake.Source {
	case config.SourceSimplex:
		jitter = effect.NewSimplexJitter(cfg.Shake.Seed)
	default:
		jitter = effect.NewUniformJitter(cfg.Shake.Seed)
	}
	shaker := effect.NewShaker(cfg.Shake.Name,
		effect.WithShakeDuration(cfg.Shake.Duration),
		effect.WithIntensity(cfg.Shake.Intensity),
		effect.WithAxes(*cfg.Shake.X, *cfg.Shake.Y, *cfg.Shake.Z),
		effect.WithJitter(jitter),
	)
	opts = append(opts, rig.WithEffects([]effect.Shaker{shaker}, []effect.Fader{effect.NewFader(cfg.Fade.Name)}))

	r := rig.NewRig("player", opts...)
	n, err := rig.SyncPoses(r, l, cfg.TransitionDuration)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("build rig: %w", err)
	}
	log.Printf("[Rig] %d grabbables from %d poses", n, len(l.Names()))
	return r, nil
}

// openLoader loads every pose in dir. A missing directory yields an empty loader.
func openLoader(dir string) (loader.Loader, error) {
	l := loader.NewLoader(loader.WithDir(dir))
	n, err := l.LoadDir("")
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("[Loader] pose directory %s does not exist", dir)
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[Loader] loaded %d poses from %s", n, dir)
	return l, nil
}

// mirroredName swaps a trailing _left/_right for the other hand, or appends the other hand.
func mirroredName(name string, from pose.Handedness) string {
	to := from.Opposite()
	if base, ok := strings.CutSuffix(name, "_"+from.String()); ok {
		return base + "_" + to.String()
	}
	return name + "_" + to.String()
}

// mirrorAsset builds the opposite-hand asset for a captured pose.
func mirrorAsset(src *loader.PoseAsset, name string) *loader.PoseAsset {
	m := pose.Mirror(src.Pose)
	m.Name = name
	if m.Name == "" {
		m.Name = mirroredName(src.Pose.Name, src.Hand)
	}
	return &loader.PoseAsset{
		Hand:   src.Hand.Opposite(),
		Object: src.ObjectName(),
		Pose:   m,
	}
}
