package reemesh

import (
	"encoding/binary"
	"math"
	"unicode/utf16"

	"github.com/flywave/go3d/vec4"
	"github.com/x448/float16"
)

// layout grows a little-endian buffer block by block, 16-byte aligned.
type layout struct {
	b []byte
}

func (l *layout) reserve(size int) int {
	off := (len(l.b) + 15) &^ 15
	l.b = append(l.b, make([]byte, off+size-len(l.b))...)
	return off
}

func (l *layout) u8(off int, v uint8)   { l.b[off] = v }
func (l *layout) u16(off int, v uint16) { binary.LittleEndian.PutUint16(l.b[off:], v) }
func (l *layout) u32(off int, v uint32) { binary.LittleEndian.PutUint32(l.b[off:], v) }
func (l *layout) u64(off int, v uint64) { binary.LittleEndian.PutUint64(l.b[off:], v) }
func (l *layout) f32(off int, v float32) {
	binary.LittleEndian.PutUint32(l.b[off:], math.Float32bits(v))
}

func (l *layout) cstring(s string) int {
	off := l.reserve(len(s) + 1)
	copy(l.b[off:], s)
	return off
}

func (l *layout) wstring(s string) int {
	units := utf16.Encode([]rune(s))
	off := l.reserve(2*len(units) + 2)
	for i, u := range units {
		l.u16(off+2*i, u)
	}
	return off
}

type fxSubmesh struct {
	material uint32
	vertices uint32
	// faces defaults to a fan over the submesh vertices.
	faces [][3]uint16
}

func (s fxSubmesh) triangles() [][3]uint16 {
	if s.faces != nil {
		return s.faces
	}
	var faces [][3]uint16
	for k := uint16(1); uint32(k)+1 < s.vertices; k++ {
		faces = append(faces, [3]uint16{0, k, k + 1})
	}
	return faces
}

type fxMainmesh struct {
	group     uint8
	submeshes []fxSubmesh
}

type fxModel struct {
	materials uint8
	lods      [][]fxMainmesh
	// slots lists the LOD group referenced by each LOD slot; nil means one
	// slot per group.
	slots []int
}

func (m *fxModel) slotList() []int {
	if m.slots != nil {
		return m.slots
	}
	s := make([]int, len(m.lods))
	for i := range s {
		s[i] = i
	}
	return s
}

type fxArmature struct {
	parents []int16
	skinMap []uint16
}

type fxMesh struct {
	main   fxModel
	shadow *fxModel
	// elements are the main vertex elements; shadowElements follow them.
	elements       []ElementType
	shadowElements []ElementType
	extraStride    uint16
	names          []string
	materialNames  []uint16
	boneNames      []uint16
	armature       *fxArmature
	boxes          []BoundingBox
}

func fxPosition(j int) [3]float32 {
	return [3]float32{float32(j), float32(j) + 0.5, -float32(j)}
}

func fxUV(j int) [2]float32 {
	return [2]float32{float32(j) / 4, 1 - float32(j)/8}
}

var (
	fxNormalBytes = [8]byte{0x80, 0x7F, 0x00, 0x7F, 0x7F, 0x00, 0x00, 0x81}
	fxSkinBytes   = [16]byte{0, 1, 2, 3, 0, 0, 0, 0, 255, 0, 0, 0, 0, 0, 0, 0}
)

func fxTranslation(i int) [16]float32 {
	return [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, float32(i), 0, 0, 1}
}

type fxModelLayout struct {
	vertices int
	faces    []uint16
}

// walk totals the vertices and face indices of the model's distinct LOD
// groups, in the order write lays them out.
func (m *fxModel) walk() fxModelLayout {
	var ml fxModelLayout
	for _, lod := range m.lods {
		for _, mm := range lod {
			for _, sm := range mm.submeshes {
				for _, f := range sm.triangles() {
					ml.faces = append(ml.faces, f[:]...)
				}
				ml.vertices += int(sm.vertices)
			}
		}
	}
	return ml
}

func (m *fxModel) write(l *layout) int {
	slots := m.slotList()
	pos := l.reserve(MODEL_INFO_SIZE + 8*len(slots))
	l.u8(pos, uint8(len(slots)))
	l.u8(pos+1, m.materials)
	l.u8(pos+2, 1)
	l.u8(pos+3, 4)
	l.u32(pos+4, uint32(len(m.lods)))
	for k, v := range []float32{0, 1, 0, 2, -1, -1, -1, 1, 1, 1, 1, 1} {
		l.f32(pos+16+4*k, v)
	}

	lodPos := make([]int, len(m.lods))
	vertices, faces := 0, 0
	for i, lod := range m.lods {
		lodPos[i] = l.reserve(LOD_GROUP_SIZE)
		l.u8(lodPos[i], uint8(len(lod)))
		l.f32(lodPos[i]+4, float32(i)*10)
		table := l.reserve(8 * len(lod))
		l.u64(lodPos[i]+8, uint64(table))
		for j, mm := range lod {
			mmPos := l.reserve(MAINMESH_SIZE + SUBMESH_SIZE*len(mm.submeshes))
			l.u64(table+8*j, uint64(mmPos))
			l.u8(mmPos, mm.group)
			l.u8(mmPos+1, uint8(len(mm.submeshes)))
			var mmVertices, mmIndices uint32
			for k, sm := range mm.submeshes {
				sp := mmPos + MAINMESH_SIZE + SUBMESH_SIZE*k
				n := uint32(len(sm.triangles()) * 3)
				l.u32(sp, sm.material)
				l.u32(sp+4, n)
				l.u32(sp+8, uint32(faces))
				l.u32(sp+12, uint32(vertices))
				faces += int(n)
				vertices += int(sm.vertices)
				mmVertices += sm.vertices
				mmIndices += n
			}
			l.u32(mmPos+8, mmVertices)
			l.u32(mmPos+12, mmIndices)
		}
	}
	for i, s := range slots {
		l.u64(pos+MODEL_INFO_SIZE+8*i, uint64(lodPos[s]))
	}
	return pos
}

// build lays out a complete mesh file for the fixture.
func (fx *fxMesh) build() []byte {
	l := &layout{}
	l.reserve(MESH_HEADER_SIZE)
	l.u32(0, MESH_MAGIC)
	l.u32(4, 2109148288)
	l.u16(18, uint16(len(fx.names)))

	mainLayout := fx.main.walk()
	var shadowLayout fxModelLayout
	if fx.shadow != nil {
		shadowLayout = fx.shadow.walk()
	}

	elements := append(append([]ElementType{}, fx.elements...), fx.shadowElements...)
	mainCount := len(fx.elements)
	streamLen := make([]int, len(elements))
	for i := range elements {
		if i < mainCount {
			streamLen[i] = mainLayout.vertices
		}
		if fx.shadow != nil && i >= mainCount-1 && shadowLayout.vertices > streamLen[i] {
			streamLen[i] = shadowLayout.vertices
		}
	}

	elemPos := l.reserve(VERTEX_ELEMENT_SIZE * len(elements))
	streamOff := make([]int, len(elements))
	strides := make([]uint16, len(elements))
	vbSize := 0
	for i, e := range elements {
		strides[i] = uint16(e.width()) + fx.extraStride
		streamOff[i] = vbSize
		vbSize += streamLen[i] * int(strides[i])
		vbSize = (vbSize + 15) &^ 15
		p := elemPos + VERTEX_ELEMENT_SIZE*i
		l.u16(p, uint16(e))
		l.u16(p+2, strides[i])
		l.u32(p+4, uint32(streamOff[i]))
	}
	vb := l.reserve(vbSize)
	for i, e := range elements {
		for j := 0; j < streamLen[i]; j++ {
			p := vb + streamOff[i] + j*int(strides[i])
			switch e {
			case ELEMENT_POSITION:
				for k, v := range fxPosition(j) {
					l.f32(p+4*k, v)
				}
			case ELEMENT_NORMAL_TANGENT:
				copy(l.b[p:], fxNormalBytes[:])
			case ELEMENT_UV0, ELEMENT_UV1:
				for k, v := range fxUV(j) {
					l.u16(p+2*k, float16.Fromfloat32(v).Bits())
				}
			case ELEMENT_BONE_INFO:
				copy(l.b[p:], fxSkinBytes[:])
				l.u8(p, uint8(j%2))
			}
		}
	}

	indices := append(append([]uint16{}, mainLayout.faces...), shadowLayout.faces...)
	fb := l.reserve(2 * len(indices))
	for i, v := range indices {
		l.u16(fb+2*i, v)
	}

	geo := l.reserve(GEOMETRY_HEADER_SIZE)
	l.u64(geo, uint64(elemPos))
	l.u64(geo+8, uint64(vb))
	l.u64(geo+16, uint64(fb))
	l.u32(geo+24, uint32(vbSize))
	l.u32(geo+28, uint32(2*len(indices)))
	l.u16(geo+32, uint16(mainCount))
	l.u16(geo+34, uint16(len(elements)))
	l.u64(80, uint64(geo))

	l.u64(24, uint64(fx.main.write(l)))
	if fx.shadow != nil {
		l.u64(32, uint64(fx.shadow.write(l)))
	}

	if a := fx.armature; a != nil {
		n := len(a.parents)
		ap := l.reserve(ARMATURE_HEADER_SIZE + 2*len(a.skinMap))
		l.u32(ap, uint32(n))
		l.u32(ap+4, uint32(len(a.skinMap)))
		for i, b := range a.skinMap {
			l.u16(ap+ARMATURE_HEADER_SIZE+2*i, b)
		}
		hier := l.reserve(BONE_HIERARCHY_SIZE * n)
		for i, parent := range a.parents {
			p := hier + BONE_HIERARCHY_SIZE*i
			l.u16(p, uint16(i))
			l.u16(p+2, uint16(parent))
			l.u16(p+4, 0xFFFF)
			l.u16(p+6, 0xFFFF)
			l.u16(p+8, 0xFFFF)
		}
		l.u64(ap+16, uint64(hier))
		for slot := 0; slot < 3; slot++ {
			mp := l.reserve(BONE_TRANSFORM_SIZE * n)
			for i := 0; i < n; i++ {
				m := fxTranslation(i)
				if slot == 2 {
					m[12] = -m[12]
				}
				for k, v := range m {
					l.f32(mp+BONE_TRANSFORM_SIZE*i+4*k, v)
				}
			}
			l.u64(ap+24+8*slot, uint64(mp))
		}
		l.u64(48, uint64(ap))
	}

	nameOffsets := make([]int, len(fx.names))
	for i, s := range fx.names {
		nameOffsets[i] = l.cstring(s)
	}
	table := l.reserve(8 * len(fx.names))
	for i, off := range nameOffsets {
		l.u64(table+8*i, uint64(off))
	}
	l.u64(120, uint64(table))

	mat := l.reserve(2 * len(fx.materialNames))
	for i, v := range fx.materialNames {
		l.u16(mat+2*i, v)
	}
	l.u64(96, uint64(mat))
	bone := l.reserve(2 * len(fx.boneNames))
	for i, v := range fx.boneNames {
		l.u16(bone+2*i, v)
	}
	l.u64(104, uint64(bone))

	if len(fx.boxes) > 0 {
		hdr := l.reserve(BOUNDING_BOX_HDR_SIZE)
		boxes := l.reserve(BOUNDING_BOX_SIZE * len(fx.boxes))
		l.u64(hdr, uint64(len(fx.boxes)))
		l.u64(hdr+8, uint64(boxes))
		for i, b := range fx.boxes {
			for k := 0; k < 4; k++ {
				l.f32(boxes+BOUNDING_BOX_SIZE*i+4*k, b.Min[k])
				l.f32(boxes+BOUNDING_BOX_SIZE*i+16+4*k, b.Max[k])
			}
		}
		l.u64(72, uint64(hdr))
	}

	l.u32(8, uint32(len(l.b)))
	return l.b
}

// fxSkinnedMesh is a two-LOD skinned mesh with shadow geometry.
func fxSkinnedMesh() *fxMesh {
	return &fxMesh{
		main: fxModel{
			materials: 2,
			lods: [][]fxMainmesh{
				{
					{group: 0, submeshes: []fxSubmesh{{material: 0, vertices: 3}, {material: 1, vertices: 4}}},
					{group: 1, submeshes: []fxSubmesh{{material: 1, vertices: 5}}},
				},
				{
					{group: 0, submeshes: []fxSubmesh{{material: 0, vertices: 3}, {material: 1, vertices: 3}}},
				},
			},
			slots: []int{0, 1, 1},
		},
		shadow: &fxModel{
			materials: 1,
			lods: [][]fxMainmesh{
				{{group: 0, submeshes: []fxSubmesh{{material: 0, vertices: 4}}}},
			},
		},
		elements:       []ElementType{ELEMENT_POSITION, ELEMENT_NORMAL_TANGENT, ELEMENT_UV0, ELEMENT_BONE_INFO},
		shadowElements: []ElementType{ELEMENT_POSITION},
		names:          []string{"Hip", "Spine", "Body", "Face"},
		materialNames:  []uint16{2, 3},
		boneNames:      []uint16{0, 1},
		armature:       &fxArmature{parents: []int16{-1, 0}, skinMap: []uint16{1, 0}},
		boxes: []BoundingBox{
			{Min: vec4.T{-1, -2, -3, 1}, Max: vec4.T{1, 2, 3, 1}},
		},
	}
}

type fxTexture struct {
	slot string
	path string
}

type fxProperty struct {
	name   string
	params []float32
}

type fxMaterial struct {
	name       string
	master     string
	shader     ShaderType
	flags      MaterialFlags
	textures   []fxTexture
	properties []fxProperty
}

// buildMDF lays out an MDF file holding materials.
func buildMDF(materials []fxMaterial) []byte {
	l := &layout{}
	l.reserve(MDF_HEADER_SIZE + MDF_MATERIAL_SIZE*len(materials))
	l.u32(0, MDF_MAGIC)
	l.u16(4, 1)
	l.u16(6, uint16(len(materials)))

	for i, m := range materials {
		mp := MDF_HEADER_SIZE + MDF_MATERIAL_SIZE*i
		l.u64(mp, uint64(l.wstring(m.name)))
		l.u32(mp+8, uint32(0x1000+i))
		l.u32(mp+16, uint32(len(m.properties)))
		l.u32(mp+20, uint32(len(m.textures)))
		l.u32(mp+24, uint32(m.shader))
		l.u32(mp+28, uint32(m.flags))
		l.u64(mp+56, uint64(l.wstring(m.master)))

		tex := l.reserve(MDF_TEXTURE_INFO_SIZE * len(m.textures))
		for k, t := range m.textures {
			p := tex + MDF_TEXTURE_INFO_SIZE*k
			l.u64(p, uint64(l.wstring(t.slot)))
			l.u64(p+16, uint64(l.wstring(t.path)))
		}
		l.u64(mp+40, uint64(tex))

		props := l.reserve(MDF_PROPERTY_INFO_SIZE * len(m.properties))
		var params []float32
		for k, p := range m.properties {
			pp := props + MDF_PROPERTY_INFO_SIZE*k
			l.u64(pp, uint64(l.wstring(p.name)))
			l.u32(pp+16, uint32(len(p.params)))
			l.u32(pp+20, uint32(4*len(params)))
			params = append(params, p.params...)
		}
		l.u64(mp+32, uint64(props))

		buf := l.reserve(4 * len(params))
		for k, v := range params {
			l.f32(buf+4*k, v)
		}
		l.u32(mp+12, uint32(4*len(params)))
		l.u64(mp+48, uint64(buf))
	}
	return l.b
}

func fxMaterials() []fxMaterial {
	return []fxMaterial{
		{
			name:   "Body",
			master: "systems/rendering/master.mmtr",
			shader: SHADER_STANDARD,
			flags:  FLAG_BASE_TWO_SIDE_ENABLE | FLAG_SSS_PROFILE_USED,
			textures: []fxTexture{
				{slot: "BaseDielectricMap", path: "Art/chara/body_ALBD.tex"},
				{slot: "NormalRoughnessMap", path: "Art/chara/body_NRMR.tex"},
			},
			properties: []fxProperty{
				{name: "BaseColor", params: []float32{0.5, 0.25, 1, 1}},
				{name: "Roughness", params: []float32{0.75}},
			},
		},
		{
			name:   "Face",
			shader: SHADER_TRANSPARENT,
			flags:  FLAG_SHADOW_CAST_DISABLE,
			properties: []fxProperty{
				{name: "Metallic", params: []float32{0.125}},
			},
		},
	}
}
