package reemesh

import (
	"fmt"
	"strings"
)

type ShaderType uint32

const (
	SHADER_STANDARD ShaderType = iota
	SHADER_DECAL
	SHADER_DECAL_WITH_METALLIC
	SHADER_DECAL_NRMR
	SHADER_TRANSPARENT
	SHADER_DISTORTION
	SHADER_PRIMITIVE_MESH
	SHADER_PRIMITIVE_SOLID_MESH
	SHADER_WATER
	SHADER_SPEED_TREE
	SHADER_GUI
	SHADER_GUI_MESH
	SHADER_GUI_MESH_TRANSPARENT
	SHADER_EXPENSIVE_TRANSPARENT
	SHADER_FORWARD
	SHADER_RENDER_TARGET
	SHADER_POST_PROCESS
	SHADER_PRIMITIVE_MATERIAL
	SHADER_PRIMITIVE_SOLID_MATERIAL
	SHADER_SPINE_MATERIAL
	SHADER_MAX
)

var shaderTypeNames = [...]string{
	"Standard",
	"Decal",
	"DecalWithMetallic",
	"DecalNRMR",
	"Transparent",
	"Distortion",
	"PrimitiveMesh",
	"PrimitiveSolidMesh",
	"Water",
	"SpeedTree",
	"GUI",
	"GUIMesh",
	"GUIMeshTransparent",
	"ExpensiveTransparent",
	"Forward",
	"RenderTarget",
	"PostProcess",
	"PrimitiveMaterial",
	"PrimitiveSolidMaterial",
	"SpineMaterial",
	"Max",
}

func (t ShaderType) Valid() bool {
	return t <= SHADER_MAX
}

func (t ShaderType) String() string {
	if t.Valid() {
		return shaderTypeNames[t]
	}
	return fmt.Sprintf("ShaderType(%d)", uint32(t))
}

func (t ShaderType) Transparent() bool {
	switch t {
	case SHADER_TRANSPARENT, SHADER_GUI_MESH_TRANSPARENT, SHADER_EXPENSIVE_TRANSPARENT:
		return true
	}
	return false
}

// MaterialFlags is the per-material render state bitmask.
type MaterialFlags uint32

const (
	FLAG_BASE_TWO_SIDE_ENABLE     MaterialFlags = 1 << 0
	FLAG_BASE_ALPHA_TEST_ENABLE   MaterialFlags = 1 << 1
	FLAG_SHADOW_CAST_DISABLE      MaterialFlags = 1 << 2
	FLAG_VERTEX_SHADER_USED       MaterialFlags = 1 << 3
	FLAG_EMISSIVE_USED            MaterialFlags = 1 << 4
	FLAG_TESSELLATION_ENABLE      MaterialFlags = 1 << 5
	FLAG_ENABLE_IGNORE_DEPTH      MaterialFlags = 1 << 6
	FLAG_ALPHA_MASK_USED          MaterialFlags = 1 << 7
	FLAG_FORCED_TWO_SIDE_ENABLE   MaterialFlags = 1 << 8
	FLAG_TWO_SIDE_ENABLE          MaterialFlags = 1 << 9
	FLAG_TESS_FACTOR              MaterialFlags = 1 << 10
	FLAG_PHONG_FACTOR             MaterialFlags = 1 << 16
	FLAG_ROUGH_TRANSPARENT_ENABLE MaterialFlags = 1 << 24
	FLAG_FORCED_ALPHA_TEST_ENABLE MaterialFlags = 1 << 25
	FLAG_ALPHA_TEST_ENABLE        MaterialFlags = 1 << 26
	FLAG_SSS_PROFILE_USED         MaterialFlags = 1 << 27
	FLAG_ENABLE_STENCIL_PRIORITY  MaterialFlags = 1 << 28
	FLAG_REQUIRE_DUAL_QUATERNION  MaterialFlags = 1 << 29
	FLAG_PIXEL_DEPTH_OFFSET_USED  MaterialFlags = 1 << 30
	FLAG_NO_RAY_TRACING           MaterialFlags = 1 << 31
)

const (
	flagTwoSidedMask = FLAG_BASE_TWO_SIDE_ENABLE | FLAG_FORCED_TWO_SIDE_ENABLE | FLAG_TWO_SIDE_ENABLE
	flagAlphaMask    = FLAG_BASE_ALPHA_TEST_ENABLE | FLAG_ALPHA_MASK_USED | FLAG_FORCED_ALPHA_TEST_ENABLE | FLAG_ALPHA_TEST_ENABLE
)

var materialFlagNames = []struct {
	flag MaterialFlags
	name string
}{
	{FLAG_BASE_TWO_SIDE_ENABLE, "BaseTwoSideEnable"},
	{FLAG_BASE_ALPHA_TEST_ENABLE, "BaseAlphaTestEnable"},
	{FLAG_SHADOW_CAST_DISABLE, "ShadowCastDisable"},
	{FLAG_VERTEX_SHADER_USED, "VertexShaderUsed"},
	{FLAG_EMISSIVE_USED, "EmissiveUsed"},
	{FLAG_TESSELLATION_ENABLE, "TessellationEnable"},
	{FLAG_ENABLE_IGNORE_DEPTH, "EnableIgnoreDepth"},
	{FLAG_ALPHA_MASK_USED, "AlphaMaskUsed"},
	{FLAG_FORCED_TWO_SIDE_ENABLE, "ForcedTwoSideEnable"},
	{FLAG_TWO_SIDE_ENABLE, "TwoSideEnable"},
	{FLAG_TESS_FACTOR, "TessFactor"},
	{FLAG_PHONG_FACTOR, "PhongFactor"},
	{FLAG_ROUGH_TRANSPARENT_ENABLE, "RoughTransparentEnable"},
	{FLAG_FORCED_ALPHA_TEST_ENABLE, "ForcedAlphaTestEnable"},
	{FLAG_ALPHA_TEST_ENABLE, "AlphaTestEnable"},
	{FLAG_SSS_PROFILE_USED, "SSSProfileUsed"},
	{FLAG_ENABLE_STENCIL_PRIORITY, "EnableStencilPriority"},
	{FLAG_REQUIRE_DUAL_QUATERNION, "RequireDualQuaternion"},
	{FLAG_PIXEL_DEPTH_OFFSET_USED, "PixelDepthOffsetUsed"},
	{FLAG_NO_RAY_TRACING, "NoRayTracing"},
}

func (f MaterialFlags) Has(flag MaterialFlags) bool {
	return f&flag == flag
}

// Names lists the set flags in bit order.
func (f MaterialFlags) Names() []string {
	var names []string
	for _, n := range materialFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return names
}

func (f MaterialFlags) String() string {
	if f == 0 {
		return "0"
	}
	return strings.Join(f.Names(), "|")
}

func (f MaterialFlags) TwoSided() bool {
	return f&flagTwoSidedMask != 0
}

func (f MaterialFlags) AlphaTested() bool {
	return f&flagAlphaMask != 0
}

func (f MaterialFlags) CastsShadow() bool {
	return !f.Has(FLAG_SHADOW_CAST_DISABLE)
}

type MDFHeader struct {
	Magic         uint32 `json:"magic"`
	Version       uint16 `json:"version"`
	MaterialCount uint16 `json:"materialCount"`
}

// TextureInfo binds a texture file to one shader slot.
type TextureInfo struct {
	TypeOffset    uint64 `json:"typeOffset"`
	UTF16TypeHash uint32 `json:"utf16TypeHash"`
	UTF8TypeHash  uint32 `json:"utf8TypeHash"`
	PathOffset    uint64 `json:"pathOffset"`
	Type          string `json:"type"`
	Path          string `json:"path"`
}

type PropertyInfo struct {
	NameOffset     uint64    `json:"nameOffset"`
	UTF16NameHash  uint32    `json:"utf16NameHash"`
	UTF8NameHash   uint32    `json:"utf8NameHash"`
	ParameterCount uint32    `json:"parameterCount"`
	BufferOffset   uint32    `json:"bufferOffset"`
	Name           string    `json:"name"`
	Parameters     []float32 `json:"parameters"`
}

type Material struct {
	NameOffset               uint64         `json:"nameOffset"`
	NameHash                 uint32         `json:"nameHash"`
	PropertyBufferSize       uint32         `json:"propertyBufferSize"`
	PropertyCount            uint32         `json:"propertyCount"`
	TextureCount             uint32         `json:"textureCount"`
	ShaderType               ShaderType     `json:"shaderType"`
	Flags                    MaterialFlags  `json:"flags"`
	PropertyInfoOffset       uint64         `json:"propertyInfoOffset"`
	TextureInfoOffset        uint64         `json:"textureInfoOffset"`
	PropertyBufferOffset     uint64         `json:"propertyBufferOffset"`
	MasterMaterialPathOffset uint64         `json:"masterMaterialPathOffset"`
	Name                     string         `json:"name"`
	MasterMaterialPath       string         `json:"masterMaterialPath"`
	Textures                 []TextureInfo  `json:"textures"`
	Properties               []PropertyInfo `json:"properties"`
}

func (m *Material) Transparent() bool {
	return m.ShaderType.Transparent() || m.Flags.AlphaTested()
}

func (m *Material) TwoSided() bool {
	return m.Flags.TwoSided()
}

// Property returns the first property called name.
func (m *Material) Property(name string) (*PropertyInfo, bool) {
	for i := range m.Properties {
		if m.Properties[i].Name == name {
			return &m.Properties[i], true
		}
	}
	return nil, false
}

// Texture returns the first texture bound to slotType.
func (m *Material) Texture(slotType string) (*TextureInfo, bool) {
	for i := range m.Textures {
		if m.Textures[i].Type == slotType {
			return &m.Textures[i], true
		}
	}
	return nil, false
}

// MaterialSet holds the materials of one MDF file in file order. When two
// materials share a name, Lookup returns the later one.
type MaterialSet struct {
	Header    MDFHeader
	materials []*Material
	byName    map[string]*Material
}

func newMaterialSet(h MDFHeader, materials []*Material) *MaterialSet {
	s := &MaterialSet{Header: h, materials: materials, byName: make(map[string]*Material, len(materials))}
	for _, m := range materials {
		s.byName[m.Name] = m
	}
	return s
}

func (s *MaterialSet) Len() int {
	return len(s.materials)
}

func (s *MaterialSet) At(i int) (*Material, bool) {
	if i < 0 || i >= len(s.materials) {
		return nil, false
	}
	return s.materials[i], true
}

func (s *MaterialSet) Lookup(name string) (*Material, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// Materials returns the materials in file order.
func (s *MaterialSet) Materials() []*Material {
	out := make([]*Material, len(s.materials))
	copy(out, s.materials)
	return out
}
