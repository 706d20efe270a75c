package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the reemesh CLI settings.
type Config struct {
	// Textures
	AssetRoot         string `yaml:"asset_root"`
	StreamingTextures bool   `yaml:"streaming_textures"`
	TextureSuffix     string `yaml:"texture_suffix"`

	// Export
	IncludeShadow  bool `yaml:"include_shadow"`
	HighestLODOnly bool `yaml:"highest_lod_only"`
	SkipArmature   bool `yaml:"skip_armature"`
	PaddingUnit    int  `yaml:"padding_unit"`

	Log LogConfig `yaml:"log"`
}

// LogConfig selects the log level and an optional rotating log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads a YAML config file.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve applies flag overrides and fills in defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.LogLevel != "" {
		c.Log.Level = flags.LogLevel
	}
	if flags.LogFile != "" {
		c.Log.File = flags.LogFile
	}
	if flags.AssetRoot != "" {
		c.AssetRoot = flags.AssetRoot
	}
	if flags.Streaming {
		c.StreamingTextures = true
	}
	if flags.IncludeShadow {
		c.IncludeShadow = true
	}
	if flags.HighestLODOnly {
		c.HighestLODOnly = true
	}
	if flags.SkipArmature {
		c.SkipArmature = true
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSize <= 0 {
		c.Log.MaxSize = 10
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAge <= 0 {
		c.Log.MaxAge = 28
	}
	if c.PaddingUnit <= 0 {
		c.PaddingUnit = 4
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	LogLevel  string
	LogFile   string
	AssetRoot string
	Streaming bool

	IncludeShadow  bool
	HighestLODOnly bool
	SkipArmature   bool
}
