package reemesh

import (
	"github.com/flywave/go3d/mat4"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/flywave/go3d/vec4"
)

type MeshHeader struct {
	Magic                       uint32 `json:"magic"`
	Version                     uint32 `json:"version"`
	FileSize                    uint32 `json:"fileSize"`
	LODGroupHash                uint32 `json:"lodGroupHash"`
	Flag                        uint8  `json:"flag"`
	SolvedOffset                uint8  `json:"solvedOffset"`
	NameTableCount              uint16 `json:"nameTableCount"`
	LODDescriptionsOffset       uint64 `json:"lodDescriptionsOffset"`
	ShadowLODDescriptionsOffset uint64 `json:"shadowLodDescriptionsOffset"`
	OccluderMeshOffset          uint64 `json:"occluderMeshOffset"`
	ArmatureOffset              uint64 `json:"armatureOffset"`
	TopologyOffset              uint64 `json:"topologyOffset"`
	BlendShapeHeaderOffset      uint64 `json:"blendShapeHeaderOffset"`
	BoundingBoxHeaderOffset     uint64 `json:"boundingBoxHeaderOffset"`
	VertexBufferHeaderOffset    uint64 `json:"vertexBufferHeaderOffset"`
	MaterialNameIndexOffset     uint64 `json:"materialNameIndexOffset"`
	BoneNameIndexOffset         uint64 `json:"boneNameIndexOffset"`
	BlendShapeIndexOffset       uint64 `json:"blendShapeIndexOffset"`
	NameTableOffset             uint64 `json:"nameTableOffset"`
}

// VertexElement locates one attribute stream inside the shared vertex buffer.
type VertexElement struct {
	Type   ElementType `json:"type"`
	Stride uint16      `json:"stride"`
	Offset uint32      `json:"offset"`
}

// GeometryBuffers describes the vertex and face buffers shared by every
// submesh. Elements[:MainElementCount] serve the main geometry; shadow
// geometry uses Elements[MainElementCount-1:].
type GeometryBuffers struct {
	ElementsOffset     uint64          `json:"elementsOffset"`
	VertexBufferOffset uint64          `json:"vertexBufferOffset"`
	FaceBufferOffset   uint64          `json:"faceBufferOffset"`
	VertexBufferSize   uint32          `json:"vertexBufferSize"`
	FaceBufferSize     uint32          `json:"faceBufferSize"`
	MainElementCount   uint16          `json:"mainElementCount"`
	TotalElementCount  uint16          `json:"totalElementCount"`
	BlendShapesOffset  int32           `json:"blendShapesOffset"`
	Elements           []VertexElement `json:"elements"`
}

// ElementRange returns the vertex elements used by main or shadow geometry.
func (g *GeometryBuffers) ElementRange(shadow bool) []VertexElement {
	if !shadow {
		return g.Elements[:g.MainElementCount]
	}
	if g.MainElementCount == 0 {
		return g.Elements
	}
	return g.Elements[g.MainElementCount-1:]
}

type NormalTangent struct {
	Normal  vec4.T `json:"normal"`
	Tangent vec4.T `json:"tangent"`
}

type SkinWeights struct {
	Indices [8]uint8   `json:"indices"`
	Weights [8]float32 `json:"weights"`
}

// SubmeshHeader is the on-disk submesh record. It carries no vertex count;
// that is derived from the neighbouring headers.
type SubmeshHeader struct {
	MaterialID        uint32 `json:"materialId"`
	FaceIndexCount    uint32 `json:"faceIndexCount"`
	FaceIndicesBefore uint32 `json:"faceIndicesBefore"`
	VerticesBefore    uint32 `json:"verticesBefore"`
}

type Submesh struct {
	SubmeshHeader
	VertexCount     uint32          `json:"vertexCount"`
	Positions       []vec3.T        `json:"positions"`
	NormalsTangents []NormalTangent `json:"normalsTangents,omitempty"`
	UV0             []vec2.T        `json:"uv0,omitempty"`
	UV1             []vec2.T        `json:"uv1,omitempty"`
	Skin            []SkinWeights   `json:"skin,omitempty"`
	Faces           [][3]uint16     `json:"faces"`
}

type Mainmesh struct {
	Offset         uint64     `json:"offset"`
	GroupID        uint8      `json:"groupId"`
	SubmeshCount   uint8      `json:"submeshCount"`
	VertexCount    uint32     `json:"vertexCount"`
	FaceIndexCount uint32     `json:"faceIndexCount"`
	Submeshes      []*Submesh `json:"submeshes"`
}

type LODGroup struct {
	Offset              uint64      `json:"offset"`
	MainmeshCount       uint8       `json:"mainmeshCount"`
	Distance            float32     `json:"distance"`
	MainmeshTableOffset uint64      `json:"mainmeshTableOffset"`
	MainmeshOffsets     []uint64    `json:"mainmeshOffsets"`
	Mainmeshes          []*Mainmesh `json:"mainmeshes"`
	// FaceBufferSize is the number of face-buffer bytes the group consumes.
	FaceBufferSize uint64 `json:"faceBufferSize"`
}

// ModelInfo is the root of the main or shadow geometry. LODGroupOffsets may
// repeat an offset; LODGroups holds each distinct group once, in first-seen
// order.
type ModelInfo struct {
	Offset          uint64      `json:"offset"`
	Shadow          bool        `json:"shadow"`
	LODGroupCount   uint8       `json:"lodGroupCount"`
	MaterialCount   uint8       `json:"materialCount"`
	UVLayerCount    uint8       `json:"uvLayerCount"`
	SkinWeightCount uint8       `json:"skinWeightCount"`
	TotalMeshCount  uint32      `json:"totalMeshCount"`
	BoundingSphere  vec4.T      `json:"boundingSphere"`
	BoundingBox     BoundingBox `json:"boundingBox"`
	LODGroupOffsets []uint64    `json:"lodGroupOffsets"`
	LODGroups       []*LODGroup `json:"lodGroups"`
	FaceBufferSize  uint64      `json:"faceBufferSize"`
}

func (m *ModelInfo) UniqueLODCount() int {
	return len(m.LODGroups)
}

// LOD returns the group referenced by the i-th LOD slot, resolving
// duplicate offsets to the shared group.
func (m *ModelInfo) LOD(i int) (*LODGroup, bool) {
	if i < 0 || i >= len(m.LODGroupOffsets) {
		return nil, false
	}
	for _, g := range m.LODGroups {
		if g.Offset == m.LODGroupOffsets[i] {
			return g, true
		}
	}
	return nil, false
}

// BoundingBox stores min and max as homogeneous vec4 corners.
type BoundingBox struct {
	Min vec4.T `json:"min"`
	Max vec4.T `json:"max"`
}

// Corners returns the eight box corners. Bit 0 of the index selects max x,
// bit 1 max y and bit 2 max z, so Corners()[0] is Min and Corners()[7] Max.
func (b *BoundingBox) Corners() [8]vec3.T {
	var c [8]vec3.T
	for i := range c {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				c[i][axis] = b.Max[axis]
			} else {
				c[i][axis] = b.Min[axis]
			}
		}
	}
	return c
}

func (b *BoundingBox) AABB() vec3.Box {
	return vec3.Box{
		Min: vec3.T{b.Min[0], b.Min[1], b.Min[2]},
		Max: vec3.T{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// BoneHierarchy links a bone to its relatives by index; -1 means none.
type BoneHierarchy struct {
	Index       int16    `json:"index"`
	Parent      int16    `json:"parent"`
	NextSibling int16    `json:"nextSibling"`
	NextChild   int16    `json:"nextChild"`
	Cousin      int16    `json:"cousin"`
	Reserved    [3]int16 `json:"-"`
}

type Armature struct {
	Offset                  uint64          `json:"offset"`
	BoneCount               uint32          `json:"boneCount"`
	SkinMapSize             uint32          `json:"skinMapSize"`
	HierarchyOffset         uint64          `json:"hierarchyOffset"`
	LocalOffset             uint64          `json:"localOffset"`
	GlobalOffset            uint64          `json:"globalOffset"`
	InverseGlobalOffset     uint64          `json:"inverseGlobalOffset"`
	SkinBoneMap             []uint16        `json:"skinBoneMap"`
	Hierarchy               []BoneHierarchy `json:"hierarchy"`
	LocalTransforms         []mat4.T        `json:"localTransforms"`
	GlobalTransforms        []mat4.T        `json:"globalTransforms"`
	InverseGlobalTransforms []mat4.T        `json:"inverseGlobalTransforms"`
}

// SkinBone maps a per-vertex skin index to its bone index.
func (a *Armature) SkinBone(skinIndex uint8) (int, bool) {
	if int(skinIndex) >= len(a.SkinBoneMap) {
		return 0, false
	}
	return int(a.SkinBoneMap[skinIndex]), true
}

type NameTable struct {
	Offsets []uint64 `json:"offsets"`
	Names   []string `json:"names"`
}

func (t *NameTable) Name(i int) (string, bool) {
	if t == nil || i < 0 || i >= len(t.Names) {
		return "", false
	}
	return t.Names[i], true
}

// Mesh is the decoded form of a mesh file. It is never modified after
// DecodeMesh returns.
type Mesh struct {
	Header              MeshHeader       `json:"header"`
	Geometry            *GeometryBuffers `json:"geometry"`
	Main                *ModelInfo       `json:"main"`
	Shadow              *ModelInfo       `json:"shadow,omitempty"`
	Armature            *Armature        `json:"armature,omitempty"`
	NameTable           *NameTable       `json:"nameTable"`
	MaterialNameIndices []uint16         `json:"materialNameIndices"`
	BoneNameIndices     []uint16         `json:"boneNameIndices"`
	BoundingBoxes       []BoundingBox    `json:"boundingBoxes,omitempty"`
}

func (m *Mesh) HasShadow() bool {
	return m.Shadow != nil
}

func (m *Mesh) MaterialCount() int {
	return len(m.MaterialNameIndices)
}

func (m *Mesh) BoneCount() int {
	if m.Armature == nil {
		return 0
	}
	return int(m.Armature.BoneCount)
}

// MaterialName resolves a submesh material id through the name table.
func (m *Mesh) MaterialName(materialID uint32) (string, bool) {
	if uint64(materialID) >= uint64(len(m.MaterialNameIndices)) {
		return "", false
	}
	return m.NameTable.Name(int(m.MaterialNameIndices[materialID]))
}

func (m *Mesh) BoneName(bone int) (string, bool) {
	if bone < 0 || bone >= len(m.BoneNameIndices) {
		return "", false
	}
	return m.NameTable.Name(int(m.BoneNameIndices[bone]))
}

func (m *Mesh) MaterialNames() []string {
	names := make([]string, len(m.MaterialNameIndices))
	for i := range names {
		names[i], _ = m.MaterialName(uint32(i))
	}
	return names
}

func (m *Mesh) BoneNames() []string {
	names := make([]string, len(m.BoneNameIndices))
	for i := range names {
		names[i], _ = m.BoneName(i)
	}
	return names
}

// Models returns the main geometry followed by the shadow geometry, if any.
func (m *Mesh) Models() []*ModelInfo {
	if m.Shadow == nil {
		return []*ModelInfo{m.Main}
	}
	return []*ModelInfo{m.Main, m.Shadow}
}
