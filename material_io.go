package reemesh

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

type mdfDecoder struct {
	r   *Reader
	log *zap.Logger
}

// DecodeMaterialDefinition decodes an MDF buffer into its material set.
func DecodeMaterialDefinition(buf []byte, opts ...Option) (*MaterialSet, error) {
	o := newDecodeOptions(opts)
	d := &mdfDecoder{r: NewReader(buf), log: o.logger}
	return d.decode()
}

// DecodeMDFHeader decodes and validates only the 16-byte MDF header.
func DecodeMDFHeader(buf []byte) (*MDFHeader, error) {
	return readMDFHeader(NewReader(buf))
}

func MaterialReadFrom(path string, opts ...Option) (*MaterialSet, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mdf: read %s: %w", path, err)
	}
	set, err := DecodeMaterialDefinition(buf, opts...)
	if err != nil {
		return nil, fmt.Errorf("mdf: decode %s: %w", path, err)
	}
	return set, nil
}

func readMDFHeader(r *Reader) (*MDFHeader, error) {
	magic, err := r.Uint32(0)
	if err != nil {
		return nil, fmt.Errorf("mdf header: %w", err)
	}
	if magic != MDF_MAGIC {
		return nil, formatErrorf("mdf header", 0, "magic 0x%08x, want 0x%08x", magic, MDF_MAGIC)
	}
	c := newCursor(r, 0)
	h := &MDFHeader{
		Magic:         magic,
		Version:       c.u16(4),
		MaterialCount: c.u16(6),
	}
	if c.err != nil {
		return nil, fmt.Errorf("mdf header: %w", c.err)
	}
	return h, nil
}

func (d *mdfDecoder) decode() (*MaterialSet, error) {
	h, err := readMDFHeader(d.r)
	if err != nil {
		return nil, err
	}
	d.log.Debug("mdf header", zap.Uint16("version", h.Version), zap.Uint16("materials", h.MaterialCount))

	materials := make([]*Material, h.MaterialCount)
	for i := range materials {
		if materials[i], err = d.readMaterial(MDF_HEADER_SIZE + uint64(i)*MDF_MATERIAL_SIZE); err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		d.log.Debug("material",
			zap.String("name", materials[i].Name),
			zap.Stringer("shader", materials[i].ShaderType),
			zap.Int("textures", len(materials[i].Textures)),
			zap.Int("properties", len(materials[i].Properties)))
	}
	return newMaterialSet(*h, materials), nil
}

func (d *mdfDecoder) readMaterial(pos uint64) (*Material, error) {
	c := newCursor(d.r, pos)
	m := &Material{
		NameOffset:               c.u64(0),
		NameHash:                 c.u32(8),
		PropertyBufferSize:       c.u32(12),
		PropertyCount:            c.u32(16),
		TextureCount:             c.u32(20),
		ShaderType:               ShaderType(c.u32(24)),
		Flags:                    MaterialFlags(c.u32(28)),
		PropertyInfoOffset:       c.u64(32),
		TextureInfoOffset:        c.u64(40),
		PropertyBufferOffset:     c.u64(48),
		MasterMaterialPathOffset: c.u64(56),
	}
	if c.err != nil {
		return nil, c.err
	}
	if !m.ShaderType.Valid() {
		return nil, formatErrorf("material", pos+24, "unknown shader type %d", uint32(m.ShaderType))
	}

	var err error
	if m.Name, err = d.r.UTF16String(m.NameOffset, 0); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if m.MasterMaterialPath, err = d.r.UTF16String(m.MasterMaterialPathOffset, 0); err != nil {
		return nil, fmt.Errorf("master material path: %w", err)
	}

	if err := d.checkRecords(m.TextureInfoOffset, m.TextureCount, MDF_TEXTURE_INFO_SIZE); err != nil {
		return nil, fmt.Errorf("textures: %w", err)
	}
	m.Textures = make([]TextureInfo, m.TextureCount)
	for i := range m.Textures {
		if err := d.readTexture(&m.Textures[i], m.TextureInfoOffset+uint64(i)*MDF_TEXTURE_INFO_SIZE); err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
	}

	if err := d.checkRecords(m.PropertyInfoOffset, m.PropertyCount, MDF_PROPERTY_INFO_SIZE); err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}
	m.Properties = make([]PropertyInfo, m.PropertyCount)
	for i := range m.Properties {
		if err := d.readProperty(&m.Properties[i], m.PropertyInfoOffset+uint64(i)*MDF_PROPERTY_INFO_SIZE, m.PropertyBufferOffset); err != nil {
			return nil, fmt.Errorf("property %d: %w", i, err)
		}
	}
	return m, nil
}

// checkRecords bounds checks a whole record array before anything is
// allocated for it.
func (d *mdfDecoder) checkRecords(pos uint64, count uint32, size uint64) error {
	if count == 0 {
		return nil
	}
	_, err := d.r.span(pos, int(count), size)
	return err
}

func (d *mdfDecoder) readTexture(t *TextureInfo, pos uint64) error {
	c := newCursor(d.r, pos)
	t.TypeOffset = c.u64(0)
	t.UTF16TypeHash = c.u32(8)
	t.UTF8TypeHash = c.u32(12)
	t.PathOffset = c.u64(16)
	if c.err != nil {
		return c.err
	}
	var err error
	if t.Type, err = d.r.UTF16String(t.TypeOffset, 0); err != nil {
		return fmt.Errorf("slot type: %w", err)
	}
	if t.Path, err = d.r.UTF16String(t.PathOffset, 0); err != nil {
		return fmt.Errorf("path: %w", err)
	}
	return nil
}

func (d *mdfDecoder) readProperty(p *PropertyInfo, pos, bufferBase uint64) error {
	c := newCursor(d.r, pos)
	p.NameOffset = c.u64(0)
	p.UTF16NameHash = c.u32(8)
	p.UTF8NameHash = c.u32(12)
	p.ParameterCount = c.u32(16)
	p.BufferOffset = c.u32(20)
	if c.err != nil {
		return c.err
	}
	var err error
	if p.Name, err = d.r.UTF16String(p.NameOffset, 0); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	paramPos, err := d.r.at(bufferBase, uint64(p.BufferOffset))
	if err != nil {
		return err
	}
	if p.Parameters, err = d.r.Float32s(paramPos, int(p.ParameterCount)); err != nil {
		return fmt.Errorf("%s parameters: %w", p.Name, err)
	}
	return nil
}
