package reemesh

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var headerOnlyMDF = []byte{
	0x4D, 0x44, 0x46, 0x00,
	0x01, 0x00,
	0x02, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

func decodeMaterials(t *testing.T, materials []fxMaterial) *MaterialSet {
	t.Helper()
	set, err := DecodeMaterialDefinition(buildMDF(materials))
	require.NoError(t, err)
	return set
}

func TestDecodeMDFHeader(t *testing.T) {
	h, err := DecodeMDFHeader(headerOnlyMDF)
	require.NoError(t, err)
	assert.Equal(t, MDF_MAGIC, h.Magic)
	assert.Equal(t, uint16(1), h.Version)
	assert.Equal(t, uint16(2), h.MaterialCount)

	set, err := DecodeMaterialDefinition(headerOnlyMDF)
	assert.Nil(t, set)
	assert.ErrorIs(t, err, ErrBounds)
}

func TestDecodeMDFBadMagic(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"mesh magic", []byte{'M', 'E', 'S', 'H', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"short", []byte{'M', 'D', 'X', 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMaterialDefinition(tt.buf)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}

	_, err := DecodeMDFHeader([]byte{'M', 'D'})
	assert.ErrorIs(t, err, ErrBounds)
}

func TestDecodeMaterialDefinition(t *testing.T) {
	set := decodeMaterials(t, fxMaterials())
	require.Equal(t, 2, set.Len())
	assert.Equal(t, uint16(2), set.Header.MaterialCount)

	body, ok := set.At(0)
	require.True(t, ok)
	assert.Equal(t, "Body", body.Name)
	assert.Equal(t, uint32(0x1000), body.NameHash)
	assert.Equal(t, "systems/rendering/master.mmtr", body.MasterMaterialPath)
	assert.Equal(t, SHADER_STANDARD, body.ShaderType)
	assert.Equal(t, uint32(20), body.PropertyBufferSize)

	require.Len(t, body.Textures, 2)
	assert.Equal(t, "BaseDielectricMap", body.Textures[0].Type)
	assert.Equal(t, "Art/chara/body_ALBD.tex", body.Textures[0].Path)
	assert.Equal(t, "NormalRoughnessMap", body.Textures[1].Type)

	require.Len(t, body.Properties, 2)
	assert.Equal(t, "BaseColor", body.Properties[0].Name)
	assert.Equal(t, []float32{0.5, 0.25, 1, 1}, body.Properties[0].Parameters)
	assert.Equal(t, uint32(16), body.Properties[1].BufferOffset)
	assert.Equal(t, []float32{0.75}, body.Properties[1].Parameters)

	face, ok := set.Lookup("Face")
	require.True(t, ok)
	assert.Equal(t, SHADER_TRANSPARENT, face.ShaderType)
	assert.Empty(t, face.Textures)
	assert.Equal(t, "", face.MasterMaterialPath)

	_, ok = set.At(2)
	assert.False(t, ok)
	_, ok = set.At(-1)
	assert.False(t, ok)
	_, ok = set.Lookup("Hair")
	assert.False(t, ok)

	all := set.Materials()
	assert.Equal(t, []*Material{body, face}, all)
	all[0] = nil
	first, _ := set.At(0)
	assert.Same(t, body, first)
}

func TestDecodeMaterialDefinitionDuplicateNames(t *testing.T) {
	fx := fxMaterials()
	fx[1].name = "Body"
	set := decodeMaterials(t, fx)

	assert.Equal(t, 2, set.Len())
	m, ok := set.Lookup("Body")
	require.True(t, ok)
	assert.Equal(t, SHADER_TRANSPARENT, m.ShaderType)
	assert.Equal(t, uint32(0x1001), m.NameHash)
}

func TestDecodeMaterialDefinitionEmpty(t *testing.T) {
	set := decodeMaterials(t, nil)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Materials())
}

func TestMaterialQueries(t *testing.T) {
	set := decodeMaterials(t, fxMaterials())
	body, _ := set.Lookup("Body")
	face, _ := set.Lookup("Face")

	p, ok := body.Property("Roughness")
	require.True(t, ok)
	assert.Equal(t, []float32{0.75}, p.Parameters)
	_, ok = body.Property("Metallic")
	assert.False(t, ok)

	tex, ok := body.Texture("NormalRoughnessMap")
	require.True(t, ok)
	assert.True(t, tex.IsNormalMap())
	_, ok = face.Texture("NormalRoughnessMap")
	assert.False(t, ok)

	assert.True(t, body.TwoSided())
	assert.False(t, body.Transparent())
	assert.True(t, body.Flags.CastsShadow())
	assert.False(t, face.TwoSided())
	assert.True(t, face.Transparent())
	assert.False(t, face.Flags.CastsShadow())
}

func TestMaterialFlags(t *testing.T) {
	f := FLAG_BASE_TWO_SIDE_ENABLE | FLAG_SSS_PROFILE_USED
	assert.Equal(t, "BaseTwoSideEnable|SSSProfileUsed", f.String())
	assert.Equal(t, "0", MaterialFlags(0).String())
	assert.True(t, f.Has(FLAG_SSS_PROFILE_USED))
	assert.False(t, f.Has(FLAG_SSS_PROFILE_USED|FLAG_EMISSIVE_USED))

	assert.True(t, FLAG_FORCED_TWO_SIDE_ENABLE.TwoSided())
	assert.True(t, FLAG_ALPHA_MASK_USED.AlphaTested())
	assert.False(t, FLAG_EMISSIVE_USED.AlphaTested())

	m := Material{Flags: FLAG_ALPHA_TEST_ENABLE}
	assert.True(t, m.Transparent())
}

func TestShaderType(t *testing.T) {
	assert.Equal(t, "Standard", SHADER_STANDARD.String())
	assert.Equal(t, "SpineMaterial", SHADER_SPINE_MATERIAL.String())
	assert.Equal(t, "Max", SHADER_MAX.String())
	assert.Equal(t, "ShaderType(99)", ShaderType(99).String())
	assert.True(t, SHADER_MAX.Valid())
	assert.False(t, ShaderType(21).Valid())

	assert.True(t, SHADER_GUI_MESH_TRANSPARENT.Transparent())
	assert.True(t, SHADER_EXPENSIVE_TRANSPARENT.Transparent())
	assert.False(t, SHADER_DECAL.Transparent())
}

func TestDecodeMaterialDefinitionCorrupt(t *testing.T) {
	buf := buildMDF(fxMaterials())
	set, err := DecodeMaterialDefinition(buf)
	require.NoError(t, err)
	body, _ := set.At(0)
	mp := uint64(MDF_HEADER_SIZE)
	roughness := body.PropertyInfoOffset + MDF_PROPERTY_INFO_SIZE

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"unknown shader type", patchU32(buf, mp+24, 99), ErrFormat},
		{"texture count", patchU32(buf, mp+20, 0xFFFFFF), ErrBounds},
		{"property count", patchU32(buf, mp+16, 0xFFFFFF), ErrBounds},
		{"texture table offset", patchU64(buf, mp+40, uint64(len(buf))), ErrBounds},
		{"name offset", patchU64(buf, mp, uint64(len(buf))+2), ErrBounds},
		{"parameter count", patchU32(buf, roughness+16, 1000), ErrBounds},
		{"parameter buffer offset", patchU32(buf, roughness+20, 0xFFFFFFF0), ErrBounds},
		{"property buffer overflow", patchU64(buf, mp+48, ^uint64(0)), ErrBounds},
		{"lone surrogate name", patchU16(buf, body.NameOffset, 0xD800), ErrEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := DecodeMaterialDefinition(tt.buf)
			assert.Nil(t, set)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecodeMaterialDefinitionTruncated(t *testing.T) {
	buf := buildMDF(fxMaterials())
	for n := 0; n < MDF_HEADER_SIZE+2*MDF_MATERIAL_SIZE; n++ {
		_, err := DecodeMaterialDefinition(buf[:n])
		require.Error(t, err, "length %d", n)
	}
}

func TestDecodeMaterialDefinitionLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	_, err := DecodeMaterialDefinition(buildMDF(fxMaterials()), WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("mdf header").Len())
	assert.Equal(t, 2, logs.FilterMessage("material").Len())
}

func TestMaterialReadFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pl0000"+MDFEXT)
	require.NoError(t, os.WriteFile(path, buildMDF(fxMaterials()), 0o644))

	set, err := MaterialReadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	_, err = MaterialReadFrom(filepath.Join(dir, "missing.mdf2"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, headerOnlyMDF, 0o644))
	_, err = MaterialReadFrom(path)
	assert.ErrorIs(t, err, ErrBounds)
}
