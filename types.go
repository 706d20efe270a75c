package reemesh

import "fmt"

const (
	MESH_MAGIC uint32 = 0x4853454D // "MESH"
	MDF_MAGIC  uint32 = 0x0046444D // "MDF\0"

	MESHEXT = ".mesh"
	MDFEXT  = ".mdf2"
)

// Fixed record sizes in bytes.
const (
	MESH_HEADER_SIZE       = 128
	GEOMETRY_HEADER_SIZE   = 48
	VERTEX_ELEMENT_SIZE    = 8
	MODEL_INFO_SIZE        = 72
	LOD_GROUP_SIZE         = 16
	MAINMESH_SIZE          = 16
	SUBMESH_SIZE           = 16
	ARMATURE_HEADER_SIZE   = 48
	BONE_HIERARCHY_SIZE    = 16
	BONE_TRANSFORM_SIZE    = 64
	BOUNDING_BOX_SIZE      = 32
	BOUNDING_BOX_HDR_SIZE  = 16
	NORMAL_TANGENT_SIZE    = 8
	SKIN_WEIGHTS_SIZE      = 16
	POSITION_SIZE          = 12
	UV_SIZE                = 4
	MDF_HEADER_SIZE        = 16
	MDF_MATERIAL_SIZE      = 64
	MDF_TEXTURE_INFO_SIZE  = 24
	MDF_PROPERTY_INFO_SIZE = 24
)

// ElementType tags one vertex attribute stream of the geometry buffers.
type ElementType uint16

const (
	ELEMENT_POSITION ElementType = iota
	ELEMENT_NORMAL_TANGENT
	ELEMENT_UV0
	ELEMENT_UV1
	ELEMENT_BONE_INFO
)

func (t ElementType) Valid() bool {
	return t <= ELEMENT_BONE_INFO
}

func (t ElementType) String() string {
	switch t {
	case ELEMENT_POSITION:
		return "position"
	case ELEMENT_NORMAL_TANGENT:
		return "normal-tangent"
	case ELEMENT_UV0:
		return "uv0"
	case ELEMENT_UV1:
		return "uv1"
	case ELEMENT_BONE_INFO:
		return "bone-info"
	default:
		return fmt.Sprintf("ElementType(%d)", uint16(t))
	}
}

// width is the number of bytes one vertex of the stream occupies.
func (t ElementType) width() uint64 {
	switch t {
	case ELEMENT_POSITION:
		return POSITION_SIZE
	case ELEMENT_NORMAL_TANGENT:
		return NORMAL_TANGENT_SIZE
	case ELEMENT_UV0, ELEMENT_UV1:
		return UV_SIZE
	case ELEMENT_BONE_INFO:
		return SKIN_WEIGHTS_SIZE
	default:
		return 0
	}
}
