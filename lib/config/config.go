// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for reel.
type Config struct {
	// Output configures the encoded video.
	Output OutputConfig `yaml:"output"`

	// Logging configures diagnostic output.
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig configures the encoded video.
type OutputConfig struct {
	// Codec is the encoder name as known to the video library
	// (for example mpeg4, libx264, libvpx).
	// Default: mpeg4
	Codec string `yaml:"codec"`

	// Width is the output frame width in pixels.
	// Default: 640
	Width int `yaml:"width"`

	// Height is the output frame height in pixels.
	// Default: 480
	Height int `yaml:"height"`

	// Bitrate is the target bitrate in bits per second.
	// Default: 2000000
	Bitrate int `yaml:"bitrate"`

	// FrameRate is the output frame rate in frames per second.
	// Default: 25
	FrameRate int `yaml:"frame_rate"`

	// Fit selects how display content maps onto the output frame:
	// "letterbox" preserves aspect ratio with black bars, "stretch"
	// fills the frame.
	// Default: letterbox
	Fit string `yaml:"fit"`
}

// LoggingConfig configures diagnostic output.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Codec:     "mpeg4",
			Width:     640,
			Height:    480,
			Bitrate:   2_000_000,
			FrameRate: 25,
			Fit:       "letterbox",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by the REEL_CONFIG
// environment variable, over the built-in defaults. An unset variable
// yields the defaults unchanged.
func Load() (*Config, error) {
	path := os.Getenv("REEL_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from the given YAML file over the
// built-in defaults. Unknown keys are rejected so that typos fail
// loudly instead of silently keeping a default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Output.Codec == "" {
		errs = append(errs, fmt.Errorf("output.codec is required"))
	}
	if c.Output.Width <= 0 || c.Output.Width%2 != 0 {
		errs = append(errs, fmt.Errorf("output.width must be positive and even, got %d", c.Output.Width))
	}
	if c.Output.Height <= 0 || c.Output.Height%2 != 0 {
		errs = append(errs, fmt.Errorf("output.height must be positive and even, got %d", c.Output.Height))
	}
	if c.Output.Bitrate <= 0 {
		errs = append(errs, fmt.Errorf("output.bitrate must be positive, got %d", c.Output.Bitrate))
	}
	if c.Output.FrameRate <= 0 || c.Output.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("output.frame_rate must be in 1-240, got %d", c.Output.FrameRate))
	}
	if c.Output.Fit != "letterbox" && c.Output.Fit != "stretch" {
		errs = append(errs, fmt.Errorf("output.fit must be letterbox or stretch, got %q", c.Output.Fit))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
