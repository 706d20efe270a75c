package reemesh

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/flywave/go3d/mat4"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/flywave/go3d/vec4"
	"github.com/x448/float16"
	"go.uber.org/zap"
)

// cursor reads fields of a fixed-layout record at base and keeps the first
// error, so a record decodes without a check per field.
type cursor struct {
	r    *Reader
	base uint64
	err  error
}

func newCursor(r *Reader, base uint64, deltas ...uint64) *cursor {
	c := &cursor{r: r}
	c.base, c.err = r.at(base, deltas...)
	return c
}

func (c *cursor) pos(off uint64) (uint64, bool) {
	if c.err != nil {
		return 0, false
	}
	p, err := c.r.at(c.base, off)
	if err != nil {
		c.err = err
		return 0, false
	}
	return p, true
}

func (c *cursor) u8(off uint64) uint8 {
	p, ok := c.pos(off)
	if !ok {
		return 0
	}
	v, err := c.r.Uint8(p)
	c.err = err
	return v
}

func (c *cursor) u16(off uint64) uint16 {
	p, ok := c.pos(off)
	if !ok {
		return 0
	}
	v, err := c.r.Uint16(p)
	c.err = err
	return v
}

func (c *cursor) u32(off uint64) uint32 {
	p, ok := c.pos(off)
	if !ok {
		return 0
	}
	v, err := c.r.Uint32(p)
	c.err = err
	return v
}

func (c *cursor) i32(off uint64) int32 {
	return int32(c.u32(off))
}

func (c *cursor) u64(off uint64) uint64 {
	p, ok := c.pos(off)
	if !ok {
		return 0
	}
	v, err := c.r.Uint64(p)
	c.err = err
	return v
}

func (c *cursor) f32(off uint64) float32 {
	p, ok := c.pos(off)
	if !ok {
		return 0
	}
	v, err := c.r.Float32(p)
	c.err = err
	return v
}

func (c *cursor) vec4(off uint64) vec4.T {
	p, ok := c.pos(off)
	if !ok {
		return vec4.T{}
	}
	v, err := c.r.Float32s(p, 4)
	if err != nil {
		c.err = err
		return vec4.T{}
	}
	return vec4.T{v[0], v[1], v[2], v[3]}
}

type meshDecoder struct {
	r      *Reader
	log    *zap.Logger
	header *MeshHeader
	geo    *GeometryBuffers
}

// DecodeMesh decodes a whole mesh file held in buf. Any malformed or
// truncated structure aborts the decode; no partial mesh is returned.
func DecodeMesh(buf []byte, opts ...Option) (*Mesh, error) {
	o := newDecodeOptions(opts)
	d := &meshDecoder{r: NewReader(buf), log: o.logger}
	ms, err := d.decode()
	if err != nil {
		return nil, err
	}
	return ms, nil
}

// DecodeMeshHeader decodes and validates only the 128-byte file header.
func DecodeMeshHeader(buf []byte) (*MeshHeader, error) {
	return readMeshHeader(NewReader(buf))
}

func MeshReadFrom(path string, opts ...Option) (*Mesh, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: read %s: %w", path, err)
	}
	ms, err := DecodeMesh(buf, opts...)
	if err != nil {
		return nil, fmt.Errorf("mesh: decode %s: %w", path, err)
	}
	return ms, nil
}

func readMeshHeader(r *Reader) (*MeshHeader, error) {
	magic, err := r.Uint32(0)
	if err != nil {
		return nil, fmt.Errorf("mesh header: %w", err)
	}
	if magic != MESH_MAGIC {
		return nil, formatErrorf("mesh header", 0, "magic 0x%08x, want 0x%08x", magic, MESH_MAGIC)
	}
	c := newCursor(r, 0)
	h := &MeshHeader{
		Magic:                       magic,
		Version:                     c.u32(4),
		FileSize:                    c.u32(8),
		LODGroupHash:                c.u32(12),
		Flag:                        c.u8(16),
		SolvedOffset:                c.u8(17),
		NameTableCount:              c.u16(18),
		LODDescriptionsOffset:       c.u64(24),
		ShadowLODDescriptionsOffset: c.u64(32),
		OccluderMeshOffset:          c.u64(40),
		ArmatureOffset:              c.u64(48),
		TopologyOffset:              c.u64(56),
		BlendShapeHeaderOffset:      c.u64(64),
		BoundingBoxHeaderOffset:     c.u64(72),
		VertexBufferHeaderOffset:    c.u64(80),
		MaterialNameIndexOffset:     c.u64(96),
		BoneNameIndexOffset:         c.u64(104),
		BlendShapeIndexOffset:       c.u64(112),
		NameTableOffset:             c.u64(120),
	}
	if c.err != nil {
		return nil, fmt.Errorf("mesh header: %w", c.err)
	}
	return h, nil
}

func (d *meshDecoder) decode() (*Mesh, error) {
	h, err := readMeshHeader(d.r)
	if err != nil {
		return nil, err
	}
	d.header = h
	d.log.Debug("mesh header", zap.Uint32("version", h.Version), zap.Uint32("fileSize", h.FileSize))

	if d.geo, err = d.readGeometry(h.VertexBufferHeaderOffset); err != nil {
		return nil, fmt.Errorf("geometry buffers: %w", err)
	}

	ms := &Mesh{Header: *h, Geometry: d.geo}
	if ms.Main, err = d.readModelInfo(h.LODDescriptionsOffset, 0, false); err != nil {
		return nil, fmt.Errorf("main model: %w", err)
	}
	if h.ShadowLODDescriptionsOffset != 0 {
		if ms.Shadow, err = d.readModelInfo(h.ShadowLODDescriptionsOffset, ms.Main.FaceBufferSize, true); err != nil {
			return nil, fmt.Errorf("shadow model: %w", err)
		}
	}

	if h.ArmatureOffset != 0 {
		if ms.Armature, err = d.readArmature(h.ArmatureOffset); err != nil {
			return nil, fmt.Errorf("armature: %w", err)
		}
	}

	if ms.NameTable, err = d.readNameTable(h.NameTableOffset, int(h.NameTableCount)); err != nil {
		return nil, fmt.Errorf("name table: %w", err)
	}

	materialCount := int(ms.Main.MaterialCount)
	if ms.Shadow != nil && int(ms.Shadow.MaterialCount) > materialCount {
		materialCount = int(ms.Shadow.MaterialCount)
	}
	if ms.MaterialNameIndices, err = d.readNameIndices("material", h.MaterialNameIndexOffset, materialCount); err != nil {
		return nil, err
	}
	if ms.BoneNameIndices, err = d.readNameIndices("bone", h.BoneNameIndexOffset, ms.BoneCount()); err != nil {
		return nil, err
	}

	if h.BoundingBoxHeaderOffset != 0 {
		if ms.BoundingBoxes, err = d.readBoundingBoxes(h.BoundingBoxHeaderOffset); err != nil {
			return nil, fmt.Errorf("bounding boxes: %w", err)
		}
	}

	d.log.Debug("mesh decoded",
		zap.Int("lodGroups", ms.Main.UniqueLODCount()),
		zap.Bool("shadow", ms.HasShadow()),
		zap.Int("bones", ms.BoneCount()),
		zap.Int("names", len(ms.NameTable.Names)))
	return ms, nil
}

func (d *meshDecoder) readGeometry(pos uint64) (*GeometryBuffers, error) {
	c := newCursor(d.r, pos)
	g := &GeometryBuffers{
		ElementsOffset:     c.u64(0),
		VertexBufferOffset: c.u64(8),
		FaceBufferOffset:   c.u64(16),
		VertexBufferSize:   c.u32(24),
		FaceBufferSize:     c.u32(28),
		MainElementCount:   c.u16(32),
		TotalElementCount:  c.u16(34),
		BlendShapesOffset:  c.i32(44),
	}
	if c.err != nil {
		return nil, c.err
	}
	if g.MainElementCount > g.TotalElementCount {
		return nil, formatErrorf("geometry buffers", pos, "main element count %d exceeds total %d",
			g.MainElementCount, g.TotalElementCount)
	}

	raw, err := d.r.Uint16s(g.ElementsOffset, int(g.TotalElementCount)*VERTEX_ELEMENT_SIZE/2)
	if err != nil {
		return nil, fmt.Errorf("vertex elements: %w", err)
	}
	g.Elements = make([]VertexElement, g.TotalElementCount)
	for i := range g.Elements {
		w := raw[i*4:]
		e := VertexElement{
			Type:   ElementType(w[0]),
			Stride: w[1],
			Offset: uint32(w[2]) | uint32(w[3])<<16,
		}
		if !e.Type.Valid() {
			return nil, formatErrorf("vertex element", g.ElementsOffset+uint64(i)*VERTEX_ELEMENT_SIZE,
				"unknown element type %d", uint16(e.Type))
		}
		if uint64(e.Stride) < e.Type.width() {
			return nil, formatErrorf("vertex element", g.ElementsOffset+uint64(i)*VERTEX_ELEMENT_SIZE,
				"%s stride %d below %d bytes", e.Type, e.Stride, e.Type.width())
		}
		g.Elements[i] = e
	}
	return g, nil
}

// uniqueOffsets drops repeated offsets, keeping first-seen order.
func uniqueOffsets(offsets []uint64) []uint64 {
	set := orderedmap.NewOrderedMap[uint64, struct{}]()
	for _, off := range offsets {
		set.Set(off, struct{}{})
	}
	unique := make([]uint64, 0, set.Len())
	for off := range set.Keys() {
		unique = append(unique, off)
	}
	return unique
}

func (d *meshDecoder) readModelInfo(pos, faceBase uint64, shadow bool) (*ModelInfo, error) {
	c := newCursor(d.r, pos)
	m := &ModelInfo{
		Offset:          pos,
		Shadow:          shadow,
		LODGroupCount:   c.u8(0),
		MaterialCount:   c.u8(1),
		UVLayerCount:    c.u8(2),
		SkinWeightCount: c.u8(3),
		TotalMeshCount:  c.u32(4),
		BoundingSphere:  c.vec4(16),
		BoundingBox:     BoundingBox{Min: c.vec4(32), Max: c.vec4(48)},
	}
	if c.err != nil {
		return nil, c.err
	}
	offsetsPos, err := d.r.at(pos, MODEL_INFO_SIZE)
	if err != nil {
		return nil, err
	}
	if m.LODGroupOffsets, err = d.r.Uint64s(offsetsPos, int(m.LODGroupCount)); err != nil {
		return nil, fmt.Errorf("lod group offsets: %w", err)
	}

	if shadow && d.geo.MainElementCount == 0 {
		return nil, formatErrorf("geometry buffers", d.header.VertexBufferHeaderOffset,
			"shadow geometry needs at least one main vertex element")
	}
	elements := d.geo.ElementRange(shadow)

	var verticesRead uint64
	for i, off := range uniqueOffsets(m.LODGroupOffsets) {
		lod, read, err := d.readLODGroup(off, faceBase, elements, verticesRead)
		if err != nil {
			return nil, fmt.Errorf("lod group %d: %w", i, err)
		}
		verticesRead = read
		m.LODGroups = append(m.LODGroups, lod)
		m.FaceBufferSize += lod.FaceBufferSize
	}
	d.log.Debug("model info",
		zap.Bool("shadow", shadow),
		zap.Uint8("lodSlots", m.LODGroupCount),
		zap.Int("uniqueLods", m.UniqueLODCount()),
		zap.Uint64("faceBufferSize", m.FaceBufferSize))
	return m, nil
}

// readLODGroup decodes a group whose first mainmesh starts verticesRead
// vertices into the model, and returns the running total after it.
func (d *meshDecoder) readLODGroup(pos, faceBase uint64, elements []VertexElement, verticesRead uint64) (*LODGroup, uint64, error) {
	c := newCursor(d.r, pos)
	lod := &LODGroup{
		Offset:              pos,
		MainmeshCount:       c.u8(0),
		Distance:            c.f32(4),
		MainmeshTableOffset: c.u64(8),
	}
	if c.err != nil {
		return nil, 0, c.err
	}
	var err error
	if lod.MainmeshOffsets, err = d.r.Uint64s(lod.MainmeshTableOffset, int(lod.MainmeshCount)); err != nil {
		return nil, 0, fmt.Errorf("mainmesh offsets: %w", err)
	}
	lod.Mainmeshes = make([]*Mainmesh, len(lod.MainmeshOffsets))
	for i, off := range lod.MainmeshOffsets {
		mm, err := d.readMainmesh(off, faceBase, elements, verticesRead)
		if err != nil {
			return nil, 0, fmt.Errorf("mainmesh %d: %w", i, err)
		}
		lod.Mainmeshes[i] = mm
		verticesRead += uint64(mm.VertexCount)
		lod.FaceBufferSize += uint64(mm.FaceIndexCount) * 2
	}
	return lod, verticesRead, nil
}

func (d *meshDecoder) readMainmesh(pos, faceBase uint64, elements []VertexElement, verticesRead uint64) (*Mainmesh, error) {
	c := newCursor(d.r, pos)
	mm := &Mainmesh{
		Offset:         pos,
		GroupID:        c.u8(0),
		SubmeshCount:   c.u8(1),
		VertexCount:    c.u32(8),
		FaceIndexCount: c.u32(12),
	}
	if c.err != nil {
		return nil, c.err
	}

	headers := make([]SubmeshHeader, mm.SubmeshCount)
	for i := range headers {
		hc := newCursor(d.r, pos, MAINMESH_SIZE+uint64(i)*SUBMESH_SIZE)
		headers[i] = SubmeshHeader{
			MaterialID:        hc.u32(0),
			FaceIndexCount:    hc.u32(4),
			FaceIndicesBefore: hc.u32(8),
			VerticesBefore:    hc.u32(12),
		}
		if hc.err != nil {
			return nil, fmt.Errorf("submesh %d header: %w", i, hc.err)
		}
	}

	counts, err := deriveVertexCounts(pos, headers, verticesRead+uint64(mm.VertexCount))
	if err != nil {
		return nil, err
	}

	mm.Submeshes = make([]*Submesh, len(headers))
	for i, h := range headers {
		sm, err := d.readSubmesh(pos+MAINMESH_SIZE+uint64(i)*SUBMESH_SIZE, h, counts[i], faceBase, elements)
		if err != nil {
			return nil, fmt.Errorf("submesh %d: %w", i, err)
		}
		mm.Submeshes[i] = sm
	}
	return mm, nil
}

// deriveVertexCounts computes each submesh's vertex count from the gap to
// the next submesh's VerticesBefore. The last submesh runs up to
// verticesEnd, the model's running vertex total after this mainmesh. pos
// is the mainmesh offset, used only for error reporting.
func deriveVertexCounts(pos uint64, headers []SubmeshHeader, verticesEnd uint64) ([]uint32, error) {
	counts := make([]uint32, len(headers))
	for i := range headers {
		start := uint64(headers[i].VerticesBefore)
		end := verticesEnd
		if i+1 < len(headers) {
			end = uint64(headers[i+1].VerticesBefore)
		}
		if end < start || end-start > uint64(^uint32(0)) {
			return nil, formatErrorf("submesh", pos+MAINMESH_SIZE+uint64(i)*SUBMESH_SIZE+12,
				"vertices before %d past next boundary %d", start, end)
		}
		counts[i] = uint32(end - start)
	}
	return counts, nil
}

// readSubmesh hydrates the submesh whose header record sits at pos.
func (d *meshDecoder) readSubmesh(pos uint64, h SubmeshHeader, vertexCount uint32, faceBase uint64, elements []VertexElement) (*Submesh, error) {
	sm := &Submesh{SubmeshHeader: h, VertexCount: vertexCount}

	if h.FaceIndexCount%3 != 0 {
		return nil, formatErrorf("submesh", pos+4, "face index count %d is not a multiple of 3", h.FaceIndexCount)
	}
	facePos, err := d.r.at(faceBase, d.geo.FaceBufferOffset, uint64(h.FaceIndicesBefore)*2)
	if err != nil {
		return nil, err
	}
	indices, err := d.r.Uint16s(facePos, int(h.FaceIndexCount))
	if err != nil {
		return nil, fmt.Errorf("faces: %w", err)
	}
	sm.Faces = make([][3]uint16, len(indices)/3)
	for i := range sm.Faces {
		sm.Faces[i] = [3]uint16{indices[3*i], indices[3*i+1], indices[3*i+2]}
	}

	n := int(vertexCount)
	for _, e := range elements {
		base, err := d.r.at(d.geo.VertexBufferOffset, uint64(e.Offset), uint64(h.VerticesBefore)*uint64(e.Stride))
		if err == nil {
			err = d.checkStream(e, base, n)
		}
		if err != nil {
			return nil, fmt.Errorf("%s stream: %w", e.Type, err)
		}
		stride := uint64(e.Stride)
		vertex := func(j int) []byte {
			p := base + uint64(j)*stride
			return d.r.buf[p : p+e.Type.width()]
		}
		switch e.Type {
		case ELEMENT_POSITION:
			sm.Positions = make([]vec3.T, n)
			for j := range sm.Positions {
				b := vertex(j)
				for k := 0; k < 3; k++ {
					sm.Positions[j][k] = math.Float32frombits(d.r.order.Uint32(b[4*k:]))
				}
			}
		case ELEMENT_NORMAL_TANGENT:
			sm.NormalsTangents = make([]NormalTangent, n)
			for j := range sm.NormalsTangents {
				sm.NormalsTangents[j] = decodeNormalTangent(vertex(j))
			}
		case ELEMENT_UV0:
			sm.UV0 = make([]vec2.T, n)
			for j := range sm.UV0 {
				sm.UV0[j] = decodeUV(d.r.order, vertex(j))
			}
		case ELEMENT_UV1:
			sm.UV1 = make([]vec2.T, n)
			for j := range sm.UV1 {
				sm.UV1[j] = decodeUV(d.r.order, vertex(j))
			}
		case ELEMENT_BONE_INFO:
			sm.Skin = make([]SkinWeights, n)
			for j := range sm.Skin {
				sm.Skin[j] = decodeSkinWeights(vertex(j))
			}
		}
	}
	return sm, nil
}

// checkStream verifies that count records spaced e.Stride apart from base
// lie inside the buffer. The last record only needs its element width.
func (d *meshDecoder) checkStream(e VertexElement, base uint64, count int) error {
	if count == 0 {
		return nil
	}
	if _, err := d.r.span(base, count, uint64(e.Stride)); err == nil {
		return nil
	}
	if uint64(count) > uint64(d.r.Len()) {
		return &BoundsError{Offset: base, Size: uint64(count) * uint64(e.Stride), Len: d.r.Len()}
	}
	last, err := d.r.at(base, uint64(count-1)*uint64(e.Stride))
	if err != nil {
		return err
	}
	_, err = d.r.slice(last, e.Type.width())
	return err
}

// NormalizeSignedByte maps a packed normal component onto [-1, 1]:
// negative values divide by 128, the rest by 127.
func NormalizeSignedByte(b int8) float32 {
	if b < 0 {
		return float32(b) / 128
	}
	return float32(b) / 127
}

func decodeNormalTangent(b []byte) NormalTangent {
	var nt NormalTangent
	for k := 0; k < 4; k++ {
		nt.Normal[k] = NormalizeSignedByte(int8(b[k]))
		nt.Tangent[k] = NormalizeSignedByte(int8(b[4+k]))
	}
	return nt
}

func decodeUV(order binary.ByteOrder, b []byte) vec2.T {
	return vec2.T{
		float16.Frombits(order.Uint16(b[0:])).Float32(),
		float16.Frombits(order.Uint16(b[2:])).Float32(),
	}
}

func decodeSkinWeights(b []byte) SkinWeights {
	var sw SkinWeights
	for k := 0; k < 8; k++ {
		sw.Indices[k] = b[k]
		sw.Weights[k] = float32(b[8+k]) / 255
	}
	return sw
}

func (d *meshDecoder) readArmature(pos uint64) (*Armature, error) {
	c := newCursor(d.r, pos)
	a := &Armature{
		Offset:              pos,
		BoneCount:           c.u32(0),
		SkinMapSize:         c.u32(4),
		HierarchyOffset:     c.u64(16),
		LocalOffset:         c.u64(24),
		GlobalOffset:        c.u64(32),
		InverseGlobalOffset: c.u64(40),
	}
	if c.err != nil {
		return nil, c.err
	}
	if uint64(a.BoneCount) > uint64(d.r.Len()) {
		return nil, &BoundsError{Offset: a.HierarchyOffset, Size: uint64(a.BoneCount) * BONE_HIERARCHY_SIZE, Len: d.r.Len()}
	}
	n := int(a.BoneCount)

	mapPos, err := d.r.at(pos, ARMATURE_HEADER_SIZE)
	if err != nil {
		return nil, err
	}
	if a.SkinBoneMap, err = d.r.Uint16s(mapPos, int(a.SkinMapSize)); err != nil {
		return nil, fmt.Errorf("skin bone map: %w", err)
	}
	for i, bone := range a.SkinBoneMap {
		if uint32(bone) >= a.BoneCount {
			return nil, formatErrorf("armature", pos, "skin map entry %d names bone %d of %d", i, bone, a.BoneCount)
		}
	}

	raw, err := d.r.Int16s(a.HierarchyOffset, n*BONE_HIERARCHY_SIZE/2)
	if err != nil {
		return nil, fmt.Errorf("bone hierarchy: %w", err)
	}
	a.Hierarchy = make([]BoneHierarchy, n)
	for i := range a.Hierarchy {
		w := raw[i*8:]
		a.Hierarchy[i] = BoneHierarchy{
			Index:       w[0],
			Parent:      w[1],
			NextSibling: w[2],
			NextChild:   w[3],
			Cousin:      w[4],
			Reserved:    [3]int16{w[5], w[6], w[7]},
		}
		if p := a.Hierarchy[i].Parent; p < -1 || int(p) >= n {
			return nil, formatErrorf("armature", a.HierarchyOffset+uint64(i)*BONE_HIERARCHY_SIZE,
				"bone %d parent %d out of range", i, p)
		}
	}

	if bone, ok := boneCycle(a.Hierarchy); ok {
		return nil, formatErrorf("armature", a.HierarchyOffset+uint64(bone)*BONE_HIERARCHY_SIZE,
			"bone %d is its own ancestor", bone)
	}

	if a.LocalTransforms, err = d.readMatrices(a.LocalOffset, n); err != nil {
		return nil, fmt.Errorf("local transforms: %w", err)
	}
	if a.GlobalTransforms, err = d.readMatrices(a.GlobalOffset, n); err != nil {
		return nil, fmt.Errorf("global transforms: %w", err)
	}
	if a.InverseGlobalTransforms, err = d.readMatrices(a.InverseGlobalOffset, n); err != nil {
		return nil, fmt.Errorf("inverse global transforms: %w", err)
	}
	return a, nil
}

// boneCycle returns a bone whose parent chain loops back on itself. Parents
// must already be in range.
func boneCycle(hier []BoneHierarchy) (int, bool) {
	const (
		unvisited = iota
		walking
		rooted
	)
	state := make([]uint8, len(hier))
	for i := range hier {
		b := i
		for b >= 0 && state[b] == unvisited {
			state[b] = walking
			b = int(hier[b].Parent)
		}
		if b >= 0 && state[b] == walking {
			return b, true
		}
		for j := i; j >= 0 && state[j] == walking; j = int(hier[j].Parent) {
			state[j] = rooted
		}
	}
	return 0, false
}

func (d *meshDecoder) readMatrices(pos uint64, count int) ([]mat4.T, error) {
	raw, err := d.r.Float32s(pos, count*16)
	if err != nil {
		return nil, err
	}
	ms := make([]mat4.T, count)
	for i := range ms {
		for col := 0; col < 4; col++ {
			copy(ms[i][col][:], raw[i*16+col*4:i*16+col*4+4])
		}
	}
	return ms, nil
}

func (d *meshDecoder) readNameTable(pos uint64, count int) (*NameTable, error) {
	offsets, err := d.r.Uint64s(pos, count)
	if err != nil {
		return nil, err
	}
	t := &NameTable{Offsets: offsets, Names: make([]string, count)}
	for i, off := range offsets {
		if t.Names[i], err = d.r.UTF8String(off, 0); err != nil {
			return nil, fmt.Errorf("name %d: %w", i, err)
		}
	}
	return t, nil
}

func (d *meshDecoder) readNameIndices(kind string, pos uint64, count int) ([]uint16, error) {
	indices, err := d.r.Uint16s(pos, count)
	if err != nil {
		return nil, fmt.Errorf("%s name indices: %w", kind, err)
	}
	for i, idx := range indices {
		if idx >= d.header.NameTableCount {
			return nil, formatErrorf(kind+" name indices", pos+uint64(i)*2,
				"name index %d outside table of %d", idx, d.header.NameTableCount)
		}
	}
	return indices, nil
}

func (d *meshDecoder) readBoundingBoxes(pos uint64) ([]BoundingBox, error) {
	c := newCursor(d.r, pos)
	count := c.u64(0)
	offset := c.u64(8)
	if c.err != nil {
		return nil, c.err
	}
	if count > uint64(d.r.Len())/BOUNDING_BOX_SIZE {
		return nil, &BoundsError{Offset: offset, Size: count * BOUNDING_BOX_SIZE, Len: d.r.Len()}
	}
	raw, err := d.r.Float32s(offset, int(count)*8)
	if err != nil {
		return nil, err
	}
	boxes := make([]BoundingBox, count)
	for i := range boxes {
		f := raw[i*8:]
		boxes[i] = BoundingBox{
			Min: vec4.T{f[0], f[1], f[2], f[3]},
			Max: vec4.T{f[4], f[5], f[6], f[7]},
		}
	}
	return boxes, nil
}
