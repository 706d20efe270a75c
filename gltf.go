package reemesh

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/flywave/go3d/mat4"
	"github.com/qmuntal/gltf"
)

const (
	GLTFVersion = "2.0"
	PaddingChar = 0x20
)

// ExportOptions controls MeshToGltf.
type ExportOptions struct {
	// Materials styles exported materials by name when set.
	Materials *MaterialSet
	// IncludeShadow exports the shadow geometry next to the main geometry.
	IncludeShadow bool
	// HighestLODOnly exports only the first LOD group of each model.
	HighestLODOnly bool
	// SkipArmature drops joints, skin and skinning attributes.
	SkipArmature bool
}

// MeshToGltf builds a glTF document from a decoded mesh. Every LOD group
// becomes a node whose children hold one mesh per mainmesh, with one
// primitive per submesh.
func MeshToGltf(ms *Mesh, opts ExportOptions) (*gltf.Document, error) {
	if ms == nil || ms.Main == nil {
		return nil, fmt.Errorf("gltf: empty mesh")
	}
	b := &gltfBuilder{doc: CreateDoc(), mesh: ms, opts: opts}
	b.buildMaterials()
	if ms.Armature != nil && !opts.SkipArmature {
		if err := b.buildSkin(); err != nil {
			return nil, err
		}
	}
	for _, model := range ms.Models() {
		if model.Shadow && !opts.IncludeShadow {
			continue
		}
		if err := b.buildModel(model); err != nil {
			return nil, err
		}
	}
	return b.doc, nil
}

// CreateDoc returns an empty document with one scene and one buffer.
func CreateDoc() *gltf.Document {
	doc := &gltf.Document{
		Asset: gltf.Asset{
			Version: GLTFVersion,
		},
		Scenes:  []*gltf.Scene{{}},
		Buffers: []*gltf.Buffer{{}},
	}

	sceneIndex := uint32(0)
	doc.Scene = &sceneIndex

	return doc
}

type bufferWriter struct {
	writer io.Writer
	size   int
}

func (w *bufferWriter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	w.size += n
	return n, err
}

func (w *bufferWriter) Bytes() []byte {
	return w.writer.(*bytes.Buffer).Bytes()
}

func newBufferWriter() *bufferWriter {
	return &bufferWriter{writer: bytes.NewBuffer(nil)}
}

func calcPadding(offset, unit int) int {
	padding := offset % unit
	if padding != 0 {
		padding = unit - padding
	}
	return padding
}

// GetGltfBinary encodes doc as GLB, padded with spaces to paddingUnit.
func GetGltfBinary(doc *gltf.Document, paddingUnit int) ([]byte, error) {
	writer := newBufferWriter()

	encoder := gltf.NewEncoder(writer)
	encoder.AsBinary = true

	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("gltf: encode: %w", err)
	}

	padding := calcPadding(writer.size, paddingUnit)
	if padding == 0 {
		return writer.Bytes(), nil
	}

	if _, err := writer.Write(bytes.Repeat([]byte{PaddingChar}, padding)); err != nil {
		return nil, fmt.Errorf("gltf: pad: %w", err)
	}
	return writer.Bytes(), nil
}

type gltfBuilder struct {
	doc  *gltf.Document
	mesh *Mesh
	opts ExportOptions

	// materials maps a mesh material id to its glTF material.
	materials []uint32
	skin      *uint32
}

// addView appends data to the single buffer, 4-byte aligned.
func (b *gltfBuilder) addView(data interface{}, target gltf.Target) (uint32, error) {
	buf := bytes.NewBuffer(nil)
	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return 0, fmt.Errorf("buffer view: %w", err)
	}

	buffer := b.doc.Buffers[0]
	if pad := calcPadding(int(buffer.ByteLength), 4); pad != 0 {
		buffer.Data = append(buffer.Data, make([]byte, pad)...)
		buffer.ByteLength += uint32(pad)
	}

	view := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: buffer.ByteLength,
		ByteLength: uint32(buf.Len()),
		Target:     target,
	}
	buffer.ByteLength += uint32(buf.Len())
	buffer.Data = append(buffer.Data, buf.Bytes()...)

	b.doc.BufferViews = append(b.doc.BufferViews, view)
	return uint32(len(b.doc.BufferViews) - 1), nil
}

func (b *gltfBuilder) addAccessor(data interface{}, count int, ct gltf.ComponentType, at gltf.AccessorType, target gltf.Target) (*gltf.Accessor, error) {
	view, err := b.addView(data, target)
	if err != nil {
		return nil, err
	}
	acc := &gltf.Accessor{
		BufferView:    &view,
		ComponentType: ct,
		Type:          at,
		Count:         uint32(count),
	}
	b.doc.Accessors = append(b.doc.Accessors, acc)
	return acc, nil
}

func (b *gltfBuilder) lastAccessor() uint32 {
	return uint32(len(b.doc.Accessors) - 1)
}

func (b *gltfBuilder) buildMaterials() {
	names := b.mesh.MaterialNames()
	b.materials = make([]uint32, len(names))
	for i, name := range names {
		gm := &gltf.Material{
			Name:                 name,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float32{1, 1, 1, 1}},
		}
		if b.opts.Materials != nil {
			if mat, ok := b.opts.Materials.Lookup(name); ok {
				styleMaterial(gm, mat)
			}
		}
		b.materials[i] = uint32(len(b.doc.Materials))
		b.doc.Materials = append(b.doc.Materials, gm)
	}
}

func styleMaterial(gm *gltf.Material, mat *Material) {
	gm.DoubleSided = mat.TwoSided()
	if mat.Transparent() {
		gm.AlphaMode = gltf.AlphaMask
	}
	props := mat.PropertyMap()
	if params, ok := props.Map("params"); ok {
		if c, ok := params.Vector("BaseColor"); ok && len(c) >= 3 {
			factor := [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), 1}
			if len(c) >= 4 {
				factor[3] = float32(c[3])
			}
			gm.PBRMetallicRoughness.BaseColorFactor = &factor
		}
		if v, ok := params.Float("Metallic"); ok {
			mc := float32(v)
			gm.PBRMetallicRoughness.MetallicFactor = &mc
		}
		if v, ok := params.Float("Roughness"); ok {
			rs := float32(v)
			gm.PBRMetallicRoughness.RoughnessFactor = &rs
		}
	}
	gm.Extras = props.Plain()
}

func matrixArray(m *mat4.T) [16]float32 {
	var out [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col*4+row] = m[col][row]
		}
	}
	return out
}

// buildSkin adds one joint node per bone, parented by the hierarchy, and a
// skin over all of them in bone order.
func (b *gltfBuilder) buildSkin() error {
	arm := b.mesh.Armature
	if len(arm.Hierarchy) != int(arm.BoneCount) {
		return fmt.Errorf("gltf: %d hierarchy records for %d bones", len(arm.Hierarchy), arm.BoneCount)
	}
	for i, h := range arm.Hierarchy {
		if int(h.Parent) >= len(arm.Hierarchy) || h.Parent < -1 {
			return fmt.Errorf("gltf: bone %d parent %d out of range", i, h.Parent)
		}
	}
	if bone, ok := boneCycle(arm.Hierarchy); ok {
		return fmt.Errorf("gltf: bone %d is its own ancestor", bone)
	}
	first := uint32(len(b.doc.Nodes))
	joints := make([]uint32, arm.BoneCount)
	for i := range joints {
		name, ok := b.mesh.BoneName(i)
		if !ok {
			name = fmt.Sprintf("bone_%d", i)
		}
		nd := &gltf.Node{Name: name}
		if i < len(arm.LocalTransforms) {
			nd.Matrix = matrixArray(&arm.LocalTransforms[i])
		}
		joints[i] = first + uint32(i)
		b.doc.Nodes = append(b.doc.Nodes, nd)
	}
	for i, h := range arm.Hierarchy {
		if h.Parent < 0 {
			b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, joints[i])
			continue
		}
		parent := b.doc.Nodes[joints[h.Parent]]
		parent.Children = append(parent.Children, joints[i])
	}

	skin := &gltf.Skin{Name: "Armature", Joints: joints}
	if len(arm.InverseGlobalTransforms) > 0 {
		if _, err := b.addAccessor(arm.InverseGlobalTransforms, len(arm.InverseGlobalTransforms), gltf.ComponentFloat, gltf.AccessorMat4, 0); err != nil {
			return fmt.Errorf("gltf: inverse bind matrices: %w", err)
		}
		ibm := b.lastAccessor()
		skin.InverseBindMatrices = &ibm
	}
	idx := uint32(len(b.doc.Skins))
	b.doc.Skins = append(b.doc.Skins, skin)
	b.skin = &idx
	return nil
}

func (b *gltfBuilder) buildModel(model *ModelInfo) error {
	prefix := "LOD"
	if model.Shadow {
		prefix = "ShadowLOD"
	}
	for l, lod := range model.LODGroups {
		if b.opts.HighestLODOnly && l > 0 {
			break
		}
		lodNode := &gltf.Node{Name: fmt.Sprintf("%s%d", prefix, l)}
		lodIndex := uint32(len(b.doc.Nodes))
		b.doc.Nodes = append(b.doc.Nodes, lodNode)
		b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, lodIndex)

		for _, mm := range lod.Mainmeshes {
			name := fmt.Sprintf("%s%d_Group%d", prefix, l, mm.GroupID)
			mesh, skinned, err := b.buildMainmesh(name, mm)
			if err != nil {
				return fmt.Errorf("gltf: %s: %w", name, err)
			}
			if len(mesh.Primitives) == 0 {
				continue
			}
			meshIndex := uint32(len(b.doc.Meshes))
			b.doc.Meshes = append(b.doc.Meshes, mesh)
			nd := &gltf.Node{Name: name, Mesh: &meshIndex}
			if skinned {
				nd.Skin = b.skin
			}
			lodNode.Children = append(lodNode.Children, uint32(len(b.doc.Nodes)))
			b.doc.Nodes = append(b.doc.Nodes, nd)
		}
	}
	return nil
}

func (b *gltfBuilder) buildMainmesh(name string, mm *Mainmesh) (*gltf.Mesh, bool, error) {
	mesh := &gltf.Mesh{Name: name}
	skinned := false
	for i, sm := range mm.Submeshes {
		if len(sm.Positions) == 0 || len(sm.Faces) == 0 {
			continue
		}
		ps, err := b.buildPrimitive(sm)
		if err != nil {
			return nil, false, fmt.Errorf("submesh %d: %w", i, err)
		}
		if _, ok := ps.Attributes["JOINTS_0"]; ok {
			skinned = true
		}
		mesh.Primitives = append(mesh.Primitives, ps)
	}
	return mesh, skinned, nil
}

func (b *gltfBuilder) buildPrimitive(sm *Submesh) (*gltf.Primitive, error) {
	for _, f := range sm.Faces {
		for _, v := range f {
			if uint32(v) >= sm.VertexCount {
				return nil, fmt.Errorf("face index %d outside %d vertices", v, sm.VertexCount)
			}
		}
	}

	ps := &gltf.Primitive{Attributes: make(gltf.Attribute), Mode: gltf.PrimitiveTriangles}
	if int(sm.MaterialID) < len(b.materials) {
		mtl := b.materials[sm.MaterialID]
		ps.Material = &mtl
	}

	if _, err := b.addAccessor(sm.Faces, len(sm.Faces)*3, gltf.ComponentUshort, gltf.AccessorScalar, gltf.TargetElementArrayBuffer); err != nil {
		return nil, err
	}
	indices := b.lastAccessor()
	ps.Indices = &indices

	pos, err := b.addAccessor(sm.Positions, len(sm.Positions), gltf.ComponentFloat, gltf.AccessorVec3, gltf.TargetArrayBuffer)
	if err != nil {
		return nil, err
	}
	pos.Min, pos.Max = positionBounds(sm)
	ps.Attributes["POSITION"] = b.lastAccessor()

	if len(sm.NormalsTangents) > 0 {
		normals := make([][3]float32, len(sm.NormalsTangents))
		tangents := make([][4]float32, len(sm.NormalsTangents))
		for i, nt := range sm.NormalsTangents {
			normals[i] = [3]float32{nt.Normal[0], nt.Normal[1], nt.Normal[2]}
			w := float32(1)
			if nt.Tangent[3] < 0 {
				w = -1
			}
			tangents[i] = [4]float32{nt.Tangent[0], nt.Tangent[1], nt.Tangent[2], w}
		}
		if err := b.addAttribute(ps, "NORMAL", normals, len(normals), gltf.ComponentFloat, gltf.AccessorVec3); err != nil {
			return nil, err
		}
		if err := b.addAttribute(ps, "TANGENT", tangents, len(tangents), gltf.ComponentFloat, gltf.AccessorVec4); err != nil {
			return nil, err
		}
	}
	if len(sm.UV0) > 0 {
		if err := b.addAttribute(ps, "TEXCOORD_0", sm.UV0, len(sm.UV0), gltf.ComponentFloat, gltf.AccessorVec2); err != nil {
			return nil, err
		}
	}
	if len(sm.UV1) > 0 {
		if err := b.addAttribute(ps, "TEXCOORD_1", sm.UV1, len(sm.UV1), gltf.ComponentFloat, gltf.AccessorVec2); err != nil {
			return nil, err
		}
	}
	if len(sm.Skin) > 0 && b.skin != nil {
		if err := b.buildSkinAttributes(ps, sm.Skin); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// addAttribute stores data as a vertex attribute accessor of ps.
func (b *gltfBuilder) addAttribute(ps *gltf.Primitive, name string, data interface{}, count int, ct gltf.ComponentType, at gltf.AccessorType) error {
	if _, err := b.addAccessor(data, count, ct, at, gltf.TargetArrayBuffer); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	ps.Attributes[name] = b.lastAccessor()
	return nil
}

// buildSkinAttributes writes two JOINTS/WEIGHTS sets per vertex, with skin
// indices remapped to bone indices through the armature's skin map.
func (b *gltfBuilder) buildSkinAttributes(ps *gltf.Primitive, skin []SkinWeights) error {
	arm := b.mesh.Armature
	for set := 0; set < 2; set++ {
		joints := make([][4]uint16, len(skin))
		weights := make([][4]float32, len(skin))
		for i, sw := range skin {
			for k := 0; k < 4; k++ {
				src := set*4 + k
				if bone, ok := arm.SkinBone(sw.Indices[src]); ok {
					joints[i][k] = uint16(bone)
					weights[i][k] = sw.Weights[src]
				}
			}
		}
		if err := b.addAttribute(ps, fmt.Sprintf("JOINTS_%d", set), joints, len(joints), gltf.ComponentUshort, gltf.AccessorVec4); err != nil {
			return err
		}
		if err := b.addAttribute(ps, fmt.Sprintf("WEIGHTS_%d", set), weights, len(weights), gltf.ComponentFloat, gltf.AccessorVec4); err != nil {
			return err
		}
	}
	return nil
}

func positionBounds(sm *Submesh) ([]float32, []float32) {
	lo := []float32{sm.Positions[0][0], sm.Positions[0][1], sm.Positions[0][2]}
	hi := []float32{sm.Positions[0][0], sm.Positions[0][1], sm.Positions[0][2]}
	for _, p := range sm.Positions[1:] {
		for k := 0; k < 3; k++ {
			if p[k] < lo[k] {
				lo[k] = p[k]
			}
			if p[k] > hi[k] {
				hi[k] = p[k]
			}
		}
	}
	return lo, hi
}
