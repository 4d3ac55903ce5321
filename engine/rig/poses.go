package rig

import (
	"errors"
	"log"

	"github.com/Carmen-Shannon/oxy-xr/engine/grab"
	"github.com/Carmen-Shannon/oxy-xr/engine/loader"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/google/uuid"
)

// grabbableNamespace seeds the stable IDs given to grabbables built from pose assets.
var grabbableNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("oxy-xr/grabbable"))

// RestPoseName is the asset name of a hand's resting pose.
//
// Parameters:
//   - h: the handedness
//
// Returns:
//   - string: "<hand>_rest"
func RestPoseName(h pose.Handedness) string {
	return h.String() + "_rest"
}

// RestPose looks up a hand's resting pose in the loader.
//
// Parameters:
//   - l: the pose loader
//   - h: the handedness
//
// Returns:
//   - pose.ArticulatedPose: the resting pose
//   - bool: false if the loader has no rest pose for h
func RestPose(l loader.Loader, h pose.Handedness) (pose.ArticulatedPose, bool) {
	asset, err := l.Get(RestPoseName(h))
	if err != nil {
		return pose.ArticulatedPose{}, false
	}
	return asset.Pose, true
}

// SyncPoses creates or updates one grabbable per object named by the loader's pose assets.
// Existing grabbables get their hand poses replaced in place so held objects keep working
// across reloads. Rest poses are skipped.
//
// Parameters:
//   - r: the rig to update
//   - l: the pose loader
//   - duration: the transition duration for newly created grabbables
//
// Returns:
//   - int: the number of grabbables created or updated
//   - error: the first lookup error other than a missing pose
func SyncPoses(r Rig, l loader.Loader, duration float32) (int, error) {
	touched := make(map[string]bool)
	for _, name := range l.Names() {
		asset, err := l.Get(name)
		if errors.Is(err, loader.ErrPoseNotFound) {
			continue
		}
		if err != nil {
			return len(touched), err
		}
		if asset.Pose.Name == RestPoseName(asset.Hand) {
			continue
		}

		object := asset.ObjectName()
		if g, err := r.GrabbableByName(object); err == nil {
			g.SetHandPose(asset.Hand, asset.Pose)
		} else {
			g := grab.NewGrabbable(object,
				grab.WithID(uuid.NewSHA1(grabbableNamespace, []byte(object))),
				grab.WithDuration(duration),
			)
			g.SetHandPose(asset.Hand, asset.Pose)
			r.AddGrabbable(g)
			log.Printf("[Rig] added grabbable %q", object)
		}
		touched[object] = true
	}
	return len(touched), nil
}
