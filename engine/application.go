package engine

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-spine/engine/assets/loaders"
	"github.com/spaghettifunk/anima-spine/engine/bones"
	"github.com/spaghettifunk/anima-spine/engine/core"
	"gopkg.in/yaml.v3"
)

type ApplicationConfig struct {
	// The application name used in log lines.
	Name string `toml:"name" yaml:"name"`
	// Directory scanned for skeletons, atlases and page images.
	AssetsDir string `toml:"assets_dir" yaml:"assets_dir"`
	// One of debug, info, warn, error, fatal.
	LogLevel string `toml:"log_level" yaml:"log_level"`
	// Keep running and re-import skeletons when their files change.
	Watch bool `toml:"watch" yaml:"watch"`
	// Number of imports running at once.
	Workers int `toml:"workers" yaml:"workers"`
	// Capacity of the texture registry.
	MaxTextureCount uint32 `toml:"max_texture_count" yaml:"max_texture_count"`
	// single-pass or two-pass.
	ParentResolution  string `toml:"parent_resolution" yaml:"parent_resolution"`
	SkeletonExtension string `toml:"skeleton_extension" yaml:"skeleton_extension"`
	AtlasExtension    string `toml:"atlas_extension" yaml:"atlas_extension"`
	// Dump every imported skeleton at debug level.
	Dump bool `toml:"dump" yaml:"dump"`
}

// DefaultApplicationConfig is used for every field a config file leaves empty.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:              "Anima Spine Importer",
		AssetsDir:         "assets",
		LogLevel:          "info",
		Workers:           runtime.NumCPU(),
		MaxTextureCount:   1024,
		ParentResolution:  bones.SinglePass.String(),
		SkeletonExtension: loaders.SkeletonExtension,
		AtlasExtension:    loaders.AtlasExtension,
	}
}

// LoadApplicationConfig reads a TOML or YAML file, chosen by extension, on
// top of the defaults.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config '%s'", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, config)
	default:
		return nil, errors.Errorf("config '%s' must be .toml, .yaml or .yml", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config '%s'", path)
	}
	return config, config.Validate()
}

// ConfigOverrides carries command line values. Nil fields were not set.
type ConfigOverrides struct {
	AssetsDir        *string
	LogLevel         *string
	Watch            *bool
	Workers          *int
	ParentResolution *string
	Dump             *bool
}

// Resolve applies the overrides and validates the result.
func (c *ApplicationConfig) Resolve(o ConfigOverrides) error {
	if o.AssetsDir != nil {
		c.AssetsDir = *o.AssetsDir
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.Watch != nil {
		c.Watch = *o.Watch
	}
	if o.Workers != nil {
		c.Workers = *o.Workers
	}
	if o.ParentResolution != nil {
		c.ParentResolution = *o.ParentResolution
	}
	if o.Dump != nil {
		c.Dump = *o.Dump
	}
	return c.Validate()
}

func (c *ApplicationConfig) Validate() error {
	if c.AssetsDir == "" {
		return errors.New("assets_dir must be set")
	}
	if _, ok := core.ParseLogLevel(c.LogLevel); !ok {
		return errors.Errorf("unknown log_level '%s'", c.LogLevel)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxTextureCount == 0 {
		return errors.New("max_texture_count must be at least 1")
	}
	if _, ok := bones.ParseParentResolution(c.ParentResolution); !ok {
		return errors.Errorf("unknown parent_resolution '%s'", c.ParentResolution)
	}
	for _, ext := range []string{c.SkeletonExtension, c.AtlasExtension} {
		if !strings.HasPrefix(ext, ".") {
			return errors.Errorf("extension '%s' must start with a dot", ext)
		}
	}
	if strings.EqualFold(c.SkeletonExtension, c.AtlasExtension) {
		return errors.New("skeleton and atlas extensions must differ")
	}
	return nil
}

func (c *ApplicationConfig) logLevel() core.LogLevel {
	level, _ := core.ParseLogLevel(c.LogLevel)
	return level
}

func (c *ApplicationConfig) parentResolution() bones.ParentResolution {
	resolution, _ := bones.ParseParentResolution(c.ParentResolution)
	return resolution
}
