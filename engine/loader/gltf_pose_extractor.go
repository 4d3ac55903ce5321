package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoSkin is returned when a glTF file has no skin to read a hand pose from.
var ErrNoSkin = errors.New("glTF document has no skin")

// gltfPoseExtractorImpl is the implementation of the gltfPoseExtractor interface.
type gltfPoseExtractorImpl struct {
	parser gltfParser
}

// gltfPoseExtractor reads articulated hand poses out of the skins of a parsed glTF document.
type gltfPoseExtractor interface {
	// FindSkin picks the skin that best matches a hand. A skin whose name or root joint name
	// mentions the hand wins; otherwise the first skin is used.
	//
	// Parameters:
	//   - h: the hand the pose is for
	//
	// Returns:
	//   - int: the skin index
	//   - error: ErrNoSkin if the document has none
	FindSkin(h pose.Handedness) (int, error)

	// ExtractPose builds a pose from a skin. The skin's skeleton root (or its first joint)
	// supplies the root transform; every other joint contributes its local rotation, in skin
	// order.
	//
	// Parameters:
	//   - skinIndex: the skin to read
	//   - name: the pose name
	//
	// Returns:
	//   - pose.ArticulatedPose: the extracted pose
	//   - error: error if the skin or one of its joints is malformed
	ExtractPose(skinIndex int, name string) (pose.ArticulatedPose, error)
}

var _ gltfPoseExtractor = &gltfPoseExtractorImpl{}

// newGLTFPoseExtractor creates a pose extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfPoseExtractor: the pose extractor
func newGLTFPoseExtractor(parser gltfParser) gltfPoseExtractor {
	return &gltfPoseExtractorImpl{parser: parser}
}

func (e *gltfPoseExtractorImpl) FindSkin(h pose.Handedness) (int, error) {
	doc := e.parser.Document()
	if doc == nil || len(doc.Skins) == 0 {
		return -1, ErrNoSkin
	}

	want := h.String()
	for i, skin := range doc.Skins {
		if strings.Contains(strings.ToLower(skin.Name), want) {
			return i, nil
		}
		if root, ok := gltfSkinRoot(&skin); ok && root < len(doc.Nodes) &&
			strings.Contains(strings.ToLower(doc.Nodes[root].Name), want) {
			return i, nil
		}
	}
	return 0, nil
}

func (e *gltfPoseExtractorImpl) ExtractPose(skinIndex int, name string) (pose.ArticulatedPose, error) {
	doc := e.parser.Document()
	if doc == nil {
		return pose.ArticulatedPose{}, fmt.Errorf("no document loaded")
	}
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return pose.ArticulatedPose{}, fmt.Errorf("skin index %d out of range", skinIndex)
	}

	skin := &doc.Skins[skinIndex]
	root, ok := gltfSkinRoot(skin)
	if !ok {
		return pose.ArticulatedPose{}, fmt.Errorf("skin %d: %w", skinIndex, ErrNoSkin)
	}
	if root < 0 || root >= len(doc.Nodes) {
		return pose.ArticulatedPose{}, fmt.Errorf("skin %d: root node %d out of range", skinIndex, root)
	}

	joints := make([]mgl32.Quat, 0, len(skin.Joints))
	for _, nodeIndex := range skin.Joints {
		if nodeIndex == root {
			continue
		}
		if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
			return pose.ArticulatedPose{}, fmt.Errorf("skin %d: joint node %d out of range", skinIndex, nodeIndex)
		}
		_, rotation, _ := gltfNodeTransform(&doc.Nodes[nodeIndex])
		joints = append(joints, rotation)
	}

	translation, rotation, scale := gltfNodeTransform(&doc.Nodes[root])
	p := pose.FromScaledRoot(name, translation, scale, rotation, joints)
	if err := p.Validate(); err != nil {
		return pose.ArticulatedPose{}, fmt.Errorf("skin %d: %w", skinIndex, err)
	}
	return p, nil
}

// ImportGLTFPose reads a hand pose from the skin of a .gltf or .glb file. The result is not
// cached; pass it to Put or Save to keep it.
//
// Parameters:
//   - path: the glTF or GLB file
//   - h: the hand the pose is for, used to pick a skin and stored on the asset
//   - name: the pose name (empty uses the file name without its extension)
//
// Returns:
//   - *PoseAsset: the imported asset
//   - error: error if the file cannot be parsed or has no usable skin
func ImportGLTFPose(path string, h pose.Handedness, name string) (*PoseAsset, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("loader: import %s: %w", path, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	asset, err := extractAsset(parser, h, name)
	if err != nil {
		return nil, fmt.Errorf("loader: import %s: %w", path, err)
	}
	return asset, nil
}

// ImportGLTFPoseReader is ImportGLTFPose for an in-memory document.
//
// Parameters:
//   - r: reader containing glTF JSON or GLB data
//   - isGLB: true if the data is in GLB format
//   - h: the hand the pose is for
//   - name: the pose name (must not be empty)
//
// Returns:
//   - *PoseAsset: the imported asset
//   - error: error if the data cannot be parsed or has no usable skin
func ImportGLTFPoseReader(r io.Reader, isGLB bool, h pose.Handedness, name string) (*PoseAsset, error) {
	if name == "" {
		return nil, fmt.Errorf("loader: import: pose name is required")
	}
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("loader: import: %w", err)
	}
	asset, err := extractAsset(parser, h, name)
	if err != nil {
		return nil, fmt.Errorf("loader: import: %w", err)
	}
	return asset, nil
}

func extractAsset(parser gltfParser, h pose.Handedness, name string) (*PoseAsset, error) {
	e := newGLTFPoseExtractor(parser)
	skin, err := e.FindSkin(h)
	if err != nil {
		return nil, err
	}
	p, err := e.ExtractPose(skin, name)
	if err != nil {
		return nil, err
	}
	return &PoseAsset{Hand: h, Pose: p}, nil
}

// gltfSkinRoot returns the skin's skeleton root, falling back to its first joint.
func gltfSkinRoot(skin *gltfSkin) (int, bool) {
	if skin.Skeleton != nil {
		return *skin.Skeleton, true
	}
	if len(skin.Joints) == 0 {
		return -1, false
	}
	return skin.Joints[0], true
}

// gltfNodeTransform extracts a node's local translation, rotation and scale.
func gltfNodeTransform(node *gltfNode) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	if node.Matrix != nil {
		return gltfDecomposeMatrix(mgl32.Mat4(*node.Matrix))
	}

	translation := mgl32.Vec3{}
	rotation := mgl32.QuatIdent()
	scale := mgl32.Vec3{1, 1, 1}
	if node.Translation != nil {
		translation = mgl32.Vec3(*node.Translation)
	}
	if node.Rotation != nil {
		rotation = common.QuatFromXYZW(*node.Rotation)
	}
	if node.Scale != nil {
		scale = mgl32.Vec3(*node.Scale)
	}
	return translation, rotation, scale
}

// gltfDecomposeMatrix splits a column-major matrix into translation, rotation and scale.
// Assumes no shear.
func gltfDecomposeMatrix(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	translation := m.Col(3).Vec3()

	cols := [3]mgl32.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	var scale mgl32.Vec3
	for i, c := range cols {
		scale[i] = c.Len()
		if scale[i] > 0.0001 {
			cols[i] = c.Mul(1 / scale[i])
		}
	}

	rotation := mgl32.Mat4ToQuat(mgl32.Mat3FromCols(cols[0], cols[1], cols[2]).Mat4()).Normalize()
	return translation, rotation, scale
}
