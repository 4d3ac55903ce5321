package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// loaderBackend defines the generic interface for decoding and encoding pose assets.
// Concrete implementations (e.g., yamlLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Decode reads one pose asset from r.
	//
	// Parameters:
	//   - r: the reader providing asset data
	//
	// Returns:
	//   - *PoseAsset: the decoded asset
	//   - error: error if decoding fails
	Decode(r io.Reader) (*PoseAsset, error)

	// Encode writes one pose asset to w.
	//
	// Parameters:
	//   - w: the destination writer
	//   - asset: the asset to write
	//
	// Returns:
	//   - error: error if encoding fails
	Encode(w io.Writer, asset *PoseAsset) error
}

// PoseAsset is a named, hand-specific pose persisted on disk.
type PoseAsset struct {
	// ID is a stable identifier that survives renames.
	ID uuid.UUID

	// Hand is the hand the pose was authored for.
	Hand pose.Handedness

	// Object names the grabbable the pose belongs to. Empty means the pose name with its
	// _left/_right suffix removed.
	Object string

	// Pose is the pose itself. Pose.Name is the asset name.
	Pose pose.ArticulatedPose
}

// ObjectName returns the grabbable this pose belongs to.
func (a *PoseAsset) ObjectName() string {
	if a.Object != "" {
		return a.Object
	}
	name := a.Pose.Name
	for _, suffix := range []string{"_" + pose.HandLeft.String(), "_" + pose.HandRight.String()} {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok {
			return trimmed
		}
	}
	return name
}

// poseFile is the on-disk YAML layout of a PoseAsset.
// Rotations are stored in x, y, z, w order.
type poseFile struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Object   string       `yaml:"object,omitempty"`
	Hand     string       `yaml:"hand"`
	Position [3]float32   `yaml:"position,flow"`
	Rotation [4]float32   `yaml:"rotation,flow"`
	Joints   [][4]float32 `yaml:"joints"`
}

// yamlLoaderBackend reads and writes pose assets as YAML documents.
type yamlLoaderBackend struct{}

var _ loaderBackend = yamlLoaderBackend{}

func (yamlLoaderBackend) Decode(r io.Reader) (*PoseAsset, error) {
	var f poseFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("pose asset has no name")
	}

	id := uuid.Nil
	if f.ID != "" {
		parsed, err := uuid.Parse(f.ID)
		if err != nil {
			return nil, fmt.Errorf("pose %q: bad id %q: %w", f.Name, f.ID, err)
		}
		id = parsed
	}

	hand := pose.HandRight
	if f.Hand != "" {
		h, err := pose.ParseHandedness(f.Hand)
		if err != nil {
			return nil, err
		}
		hand = h
	}

	p := pose.ArticulatedPose{
		Name:         f.Name,
		RootPosition: mgl32.Vec3(f.Position),
		RootRotation: common.QuatFromXYZW(f.Rotation),
		Joints:       make([]mgl32.Quat, len(f.Joints)),
	}
	if f.Rotation == ([4]float32{}) {
		p.RootRotation = mgl32.QuatIdent()
	}
	for i, j := range f.Joints {
		p.Joints[i] = common.QuatFromXYZW(j)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Normalize()

	return &PoseAsset{ID: id, Hand: hand, Object: f.Object, Pose: p}, nil
}

func (yamlLoaderBackend) Encode(w io.Writer, asset *PoseAsset) error {
	if asset == nil {
		return fmt.Errorf("asset is nil")
	}
	f := poseFile{
		ID:       asset.ID.String(),
		Name:     asset.Pose.Name,
		Object:   asset.Object,
		Hand:     asset.Hand.String(),
		Position: [3]float32(asset.Pose.RootPosition),
		Rotation: common.QuatToXYZW(asset.Pose.RootRotation),
		Joints:   make([][4]float32, len(asset.Pose.Joints)),
	}
	for i, j := range asset.Pose.Joints {
		f.Joints[i] = common.QuatToXYZW(j)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
