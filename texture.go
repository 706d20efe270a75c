package reemesh

import (
	"path/filepath"
	"strings"
)

const (
	TEXTURE_VERSION_SUFFIX = ".11"
	TEXTURE_STREAMING_DIR  = "Streaming"
	TEXTURE_ROOT_DIR       = "x64"
)

type TexturePathOptions struct {
	// Streaming selects the high resolution copies under Streaming/.
	Streaming bool
	// Suffix replaces TEXTURE_VERSION_SUFFIX when set.
	Suffix string
}

// MDFRoot returns the asset root for an MDF file: the path up to and
// including its x64 directory, or the file's own directory without one.
func MDFRoot(mdfPath string) string {
	elems := strings.Split(filepath.ToSlash(filepath.Clean(mdfPath)), "/")
	for i, e := range elems {
		if strings.EqualFold(e, TEXTURE_ROOT_DIR) {
			root := strings.Join(elems[:i+1], "/")
			if root == "" {
				root = "/"
			}
			return filepath.FromSlash(root)
		}
	}
	return filepath.Dir(mdfPath)
}

// ResolveTexturePath maps a texture path stored in an MDF onto the
// filesystem below root.
func ResolveTexturePath(root, texPath string, opts TexturePathOptions) string {
	suffix := opts.Suffix
	if suffix == "" {
		suffix = TEXTURE_VERSION_SUFFIX
	}
	rel := filepath.FromSlash(strings.ReplaceAll(texPath, `\`, "/"))
	if opts.Streaming {
		rel = filepath.Join(TEXTURE_STREAMING_DIR, rel)
	}
	return filepath.Join(root, rel+suffix)
}

// ResolvePath resolves t against the asset root of mdfPath, or assetRoot
// when it is not empty.
func (t *TextureInfo) ResolvePath(mdfPath, assetRoot string, opts TexturePathOptions) string {
	if assetRoot == "" {
		assetRoot = MDFRoot(mdfPath)
	}
	return ResolveTexturePath(assetRoot, t.Path, opts)
}

func (t *TextureInfo) IsNormalMap() bool {
	return IsNormalMap(t.Type)
}

var normalMapSlots = map[string]struct{}{}

func init() {
	for _, s := range []string{
		"NormalRoughnessMap", "AppearNormalRoughnessMap", "NormalMap", "FlowNormalRoughnessMap", "BlendNormalMap",
		"TransNormalNoiseMap", "ChestVortex_NormalNoiseMap", "Statue_NormalRoughnessMap", "Liquid_NormalRoughnessMap",
		"LocalNormalMap", "TransNormalRoughnessMap", "BlendNormalRoughnessMap", "MatA_NormalRoughnessMap",
		"MatB_NormalRoughnessMap", "CavityNormalAlphaMap", "NormalRoughness", "NormalRoughness_Gauge",
		"AshNormalRoughnessMap", "MaterialNormalRoughnessMap", "NormalRoughnessMapArray", "NormalAlphaMap_Small",
		"NormalAlphaMap_Middle", "NormalAlphaMap_Large", "WaterNormalRoughnessMap", "FlowMap_NormalRoughnessMap",
		"Ice_NormalRoughnessMap", "LimLight_FakeNormalMap", "WrinkleNormalMap1", "WrinkleNormalMap2",
		"WrinkleNormalMap3", "Rec_Injury_NormalMap", "Distortion_NormalMap", "Bike_NormalMap", "Mark_NormalMap",
		"Trans_NormalRoughnessMap", "Detail_NormalRoughnessMap", "TransMaterial_NormalRoughnessMap",
		"Blend_NormalRoughnessMap", "NormalAlphaMap", "NormalDisplacementMap",
	} {
		normalMapSlots[s] = struct{}{}
	}
}

// IsNormalMap reports whether a texture slot samples a normal map, which
// must be read as non-color data.
func IsNormalMap(slotType string) bool {
	_, ok := normalMapSlots[slotType]
	return ok
}
