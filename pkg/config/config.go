// Package config loads the tuning shared by the linkgraph tools.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/ha1tch/linkgraph/pkg/geom"
)

// Config holds linkgraph settings.
type Config struct {
	Curve  geom.Params  `toml:"curve"`
	Branch BranchConfig `toml:"branch"`
	Drag   DragConfig   `toml:"drag"`
	Render RenderConfig `toml:"render"`
}

// BranchConfig controls branch anchoring.
type BranchConfig struct {
	OffsetLimit float64 `toml:"offset_limit" validate:"gt=0"` // per-axis clamp on anchor offsets
}

// DragConfig controls pointer interaction.
type DragConfig struct {
	Deadband     float64 `toml:"deadband" validate:"gte=0"`
	HitTolerance float64 `toml:"hit_tolerance" validate:"gt=0"`
}

// RenderConfig controls raster export.
type RenderConfig struct {
	Width   int `toml:"width" validate:"gte=16"`
	Height  int `toml:"height" validate:"gte=16"`
	Padding int `toml:"padding" validate:"gte=0"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Curve:  geom.DefaultParams(),
		Branch: BranchConfig{OffsetLimit: 100},
		Drag:   DragConfig{Deadband: 1, HitTolerance: 10},
		Render: RenderConfig{Width: 800, Height: 600, Padding: 40},
	}
}

var validate = validator.New()

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Dir returns the linkgraph config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".linkgraph"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "linkgraph")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the default config file. A missing file yields defaults.
func Load() (*Config, error) {
	cfg, err := LoadFile(Path())
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFile reads a config file over the defaults, so keys left out keep
// their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return Encode(f, cfg)
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
