// Package config loads tool settings from demoseq.yaml and merges CLI
// overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up next to the projects.
const FileName = "demoseq.yaml"

// Config holds the settings shared by every command.
type Config struct {
	FPS             int    `yaml:"fps" validate:"gt=0,lte=240"`
	Width           int    `yaml:"width" validate:"gt=0"`
	Height          int    `yaml:"height" validate:"gt=0"`
	Preset          string `yaml:"preset" validate:"omitempty,oneof=16:9 9:16 4:5"`
	Workers         int    `yaml:"workers" validate:"gt=0"`
	SnapThreshold   int    `yaml:"snap_threshold" validate:"gte=0"`
	MinClipDuration int    `yaml:"min_clip_duration" validate:"gt=0"`
	VideoEncoder    string `yaml:"video_encoder"`
	Quality         int    `yaml:"quality" validate:"gte=0"`
	LogLevel        string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat       string `yaml:"log_format" validate:"omitempty,oneof=auto text json"`
	ProjectsDir     string `yaml:"projects_dir"`
	ShowStats       bool   `yaml:"show_stats"`
}

// Flags carries command-line overrides. Zero values leave the config alone.
type Flags struct {
	FPS          int
	Width        int
	Height       int
	Preset       string
	Workers      int
	VideoEncoder string
	Quality      int
	LogLevel     string
	LogFormat    string
	ProjectsDir  string
	ShowStats    bool
}

var presets = map[string][2]int{
	"16:9": {1280, 720},
	"9:16": {720, 1280},
	"4:5":  {1080, 1350},
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		FPS:             60,
		Width:           1280,
		Height:          720,
		Workers:         runtime.NumCPU(),
		SnapThreshold:   8,
		MinClipDuration: 1,
		LogLevel:        "info",
		LogFormat:       "auto",
		ProjectsDir:     ".",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyPreset()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve applies non-zero flags and re-validates.
func (c *Config) Resolve(flags Flags) error {
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Preset != "" {
		c.Preset = flags.Preset
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.VideoEncoder != "" {
		c.VideoEncoder = flags.VideoEncoder
	}
	if flags.Quality > 0 {
		c.Quality = flags.Quality
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.LogFormat != "" {
		c.LogFormat = flags.LogFormat
	}
	if flags.ProjectsDir != "" {
		c.ProjectsDir = flags.ProjectsDir
	}
	if flags.ShowStats {
		c.ShowStats = true
	}
	c.applyPreset()

	if err := c.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// applyPreset replaces width and height with the preset's frame size.
func (c *Config) applyPreset() {
	if size, ok := presets[c.Preset]; ok {
		c.Width, c.Height = size[0], size[1]
	}
}

// EncoderQuality returns the configured quality, or the encoder's default
// when none is set.
func (c *Config) EncoderQuality(encoder string) int {
	if c.Quality > 0 {
		return c.Quality
	}
	return DefaultQuality(encoder)
}

// DefaultQuality picks a quality setting that suits the encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
