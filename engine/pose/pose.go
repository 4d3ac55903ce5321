// Package pose holds the articulated hand pose snapshot shared by the blender, the grab
// components and the pose asset loader.
package pose

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidPose is returned by Validate when a pose carries unusable values.
var ErrInvalidPose = errors.New("invalid pose")

// Handedness identifies which hand a pose or hand model belongs to.
type Handedness int

const (
	// HandRight is the right hand. It is the zero value since most captured poses are authored on it.
	HandRight Handedness = iota

	// HandLeft is the left hand.
	HandLeft
)

// String returns the lowercase name used in pose assets and scripts.
func (h Handedness) String() string {
	switch h {
	case HandLeft:
		return "left"
	default:
		return "right"
	}
}

// Opposite returns the other hand.
func (h Handedness) Opposite() Handedness {
	if h == HandLeft {
		return HandRight
	}
	return HandLeft
}

// ParseHandedness converts "left"/"right" (as written by String) into a Handedness.
//
// Parameters:
//   - s: the hand name
//
// Returns:
//   - Handedness: the parsed hand
//   - error: an error if s names neither hand
func ParseHandedness(s string) (Handedness, error) {
	switch s {
	case "left", "Left", "L", "l":
		return HandLeft, nil
	case "right", "Right", "R", "r":
		return HandRight, nil
	}
	return HandRight, fmt.Errorf("pose: unknown hand %q", s)
}

// ArticulatedPose is a root transform plus a fixed-order list of per-joint local rotations
// describing a hand's shape.
type ArticulatedPose struct {
	// Name identifies the pose (asset name or a descriptive label for captured poses).
	Name string

	// RootPosition is the local position of the hand root.
	RootPosition mgl32.Vec3

	// RootRotation is the local rotation of the hand root.
	RootRotation mgl32.Quat

	// Joints are the per-joint local rotations. Order is significant and must match between
	// any two poses that are blended together.
	Joints []mgl32.Quat
}

// NewArticulatedPose creates a pose at the origin with an identity root rotation and the given
// number of identity joints.
//
// Parameters:
//   - name: the pose name
//   - jointCount: the number of tracked joints
//
// Returns:
//   - ArticulatedPose: the new pose
func NewArticulatedPose(name string, jointCount int) ArticulatedPose {
	joints := make([]mgl32.Quat, jointCount)
	for i := range joints {
		joints[i] = mgl32.QuatIdent()
	}
	return ArticulatedPose{
		Name:         name,
		RootRotation: mgl32.QuatIdent(),
		Joints:       joints,
	}
}

// FromScaledRoot builds a pose from a captured root transform. The root position is divided
// component-wise by the root's local scale so poses captured on scaled hand models stay
// comparable. Zero scale components are treated as 1.
//
// Parameters:
//   - name: the pose name
//   - localPosition: the root local position as captured
//   - localScale: the root local scale
//   - rotation: the root local rotation
//   - joints: the joint local rotations (copied)
//
// Returns:
//   - ArticulatedPose: the captured pose
func FromScaledRoot(name string, localPosition, localScale mgl32.Vec3, rotation mgl32.Quat, joints []mgl32.Quat) ArticulatedPose {
	var pos mgl32.Vec3
	for i := 0; i < 3; i++ {
		s := localScale[i]
		if s == 0 {
			s = 1
		}
		pos[i] = localPosition[i] / s
	}
	p := ArticulatedPose{
		Name:         name,
		RootPosition: pos,
		RootRotation: rotation,
		Joints:       append([]mgl32.Quat(nil), joints...),
	}
	p.Normalize()
	return p
}

// JointCount returns the number of joints in the pose.
func (p ArticulatedPose) JointCount() int {
	return len(p.Joints)
}

// Clone returns a deep copy whose joint slice shares no memory with p.
func (p ArticulatedPose) Clone() ArticulatedPose {
	c := p
	if p.Joints != nil {
		c.Joints = make([]mgl32.Quat, len(p.Joints))
		copy(c.Joints, p.Joints)
	}
	return c
}

// CopyInto copies p into dst, reusing dst's joint storage when it is large enough.
//
// Parameters:
//   - dst: the destination pose (must not be nil)
func (p ArticulatedPose) CopyInto(dst *ArticulatedPose) {
	joints := dst.Joints
	if cap(joints) < len(p.Joints) {
		joints = make([]mgl32.Quat, len(p.Joints))
	}
	joints = joints[:len(p.Joints)]
	copy(joints, p.Joints)
	*dst = p
	dst.Joints = joints
}

// Normalize renormalizes the root and joint rotations in place.
func (p *ArticulatedPose) Normalize() {
	p.RootRotation = p.RootRotation.Normalize()
	for i := range p.Joints {
		p.Joints[i] = p.Joints[i].Normalize()
	}
}

// Validate checks that every component is finite and every rotation has a usable length.
//
// Returns:
//   - error: an error wrapping ErrInvalidPose describing the first bad value, or nil
func (p ArticulatedPose) Validate() error {
	if !common.IsFinite(p.RootPosition[0], p.RootPosition[1], p.RootPosition[2]) {
		return fmt.Errorf("pose %q: root position %v is not finite: %w", p.Name, p.RootPosition, ErrInvalidPose)
	}
	if err := validateQuat(p.RootRotation); err != nil {
		return fmt.Errorf("pose %q: root rotation: %v: %w", p.Name, err, ErrInvalidPose)
	}
	for i, j := range p.Joints {
		if err := validateQuat(j); err != nil {
			return fmt.Errorf("pose %q: joint %d: %v: %w", p.Name, i, err, ErrInvalidPose)
		}
	}
	return nil
}

func validateQuat(q mgl32.Quat) error {
	if !common.IsFinite(q.W, q.V[0], q.V[1], q.V[2]) {
		return fmt.Errorf("rotation %v is not finite", q)
	}
	if q.Len() < 1e-6 {
		return fmt.Errorf("rotation %v has zero length", q)
	}
	return nil
}

// ApproxEqual compares two poses within epsilon. Rotations are compared as orientations, so
// q and -q match. Names are ignored.
//
// Parameters:
//   - other: the pose to compare against
//   - epsilon: per-component tolerance
//
// Returns:
//   - bool: true if both poses describe the same hand shape
func (p ArticulatedPose) ApproxEqual(other ArticulatedPose, epsilon float32) bool {
	if len(p.Joints) != len(other.Joints) {
		return false
	}
	if !common.Vec3Near(p.RootPosition, other.RootPosition, epsilon) {
		return false
	}
	if !common.QuatSameOrientation(p.RootRotation, other.RootRotation, epsilon) {
		return false
	}
	for i := range p.Joints {
		if !common.QuatSameOrientation(p.Joints[i], other.Joints[i], epsilon) {
			return false
		}
	}
	return true
}

// Mirror produces the opposite-hand pose by reflecting across the lateral plane: the root X
// position is negated and the root rotation's Y and Z components are negated. Joint rotations
// are copied unchanged, which assumes the joint-local frames of both hand rigs are already
// laterally symmetric. The result shares no memory with source.
//
// Parameters:
//   - source: the captured pose to mirror
//
// Returns:
//   - ArticulatedPose: the mirrored pose
func Mirror(source ArticulatedPose) ArticulatedPose {
	m := source.Clone()
	m.RootPosition[0] = -m.RootPosition[0]
	m.RootRotation.V[1] = -m.RootRotation.V[1]
	m.RootRotation.V[2] = -m.RootRotation.V[2]
	return m
}
