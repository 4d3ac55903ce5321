// gltf_types.go contains the subset of the glTF 2.0 JSON schema needed to read hand skins.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

// gltfDocument represents the root of a glTF JSON document. Meshes, materials and buffers
// are ignored; a pose only needs the node hierarchy and its skins.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-gltf
type gltfDocument struct {
	// Asset contains metadata about the glTF asset.
	Asset gltfAsset `json:"asset"`

	// Scene is the index of the default scene.
	Scene *int `json:"scene,omitempty"`

	// Scenes is an array of scenes.
	Scenes []gltfScene `json:"scenes,omitempty"`

	// Nodes is an array of nodes (transform hierarchy).
	Nodes []gltfNode `json:"nodes,omitempty"`

	// Skins is an array of skins.
	Skins []gltfSkin `json:"skins,omitempty"`
}

// gltfAsset contains metadata about the glTF asset.
type gltfAsset struct {
	// Version is the glTF version (required, must be "2.0").
	Version string `json:"version"`

	// Generator is the tool that generated this asset.
	Generator string `json:"generator,omitempty"`
}

// gltfScene is a set of root nodes.
type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode is a node in the node hierarchy.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-node
type gltfNode struct {
	// Name is an optional name for this node.
	Name string `json:"name,omitempty"`

	// Children are indices of child nodes.
	Children []int `json:"children,omitempty"`

	// Skin is the index of the skin bound to this node's mesh.
	Skin *int `json:"skin,omitempty"`

	// Matrix is a 4x4 transformation matrix (column-major). Mutually exclusive with TRS.
	Matrix *[16]float32 `json:"matrix,omitempty"`

	// Translation is the node's translation (x, y, z).
	Translation *[3]float32 `json:"translation,omitempty"`

	// Rotation is the node's rotation as a quaternion (x, y, z, w).
	Rotation *[4]float32 `json:"rotation,omitempty"`

	// Scale is the node's scale (x, y, z).
	Scale *[3]float32 `json:"scale,omitempty"`
}

// gltfSkin binds a joint hierarchy to a mesh.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-skin
type gltfSkin struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// Skeleton is the node index of the skeleton root (optional).
	Skeleton *int `json:"skeleton,omitempty"`

	// Joints are the node indices of the skeleton joints.
	Joints []int `json:"joints"`
}

// gltfGLBHeader is the header of a GLB file (12 bytes).
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
type gltfGLBHeader struct {
	Magic   uint32 // Must be 0x46546C67 ("glTF" in ASCII)
	Version uint32 // Must be 2
	Length  uint32 // Total file length
}

// gltfGLBChunkHeader is the header of a GLB chunk (8 bytes).
type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32 // 0x4E4F534A for JSON
}

// GLB magic number and chunk type constants
const (
	gltfGLBMagic     = 0x46546C67 // "glTF" in little-endian ASCII
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON" in little-endian ASCII
)
