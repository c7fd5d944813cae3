// Package config provides configuration loading and management.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/user/timelapse/pkg/orchestrator"
	"github.com/user/timelapse/pkg/ports"
	"gopkg.in/yaml.v3"
)

// EnvCodec names the environment variable holding the preferred codec.
const EnvCodec = "TIMELAPSE_CODEC"

var (
	// ErrInvalidRegion is returned when a region string cannot be parsed.
	ErrInvalidRegion = errors.New("config: invalid region")

	// ErrInvalidValue is returned by Validate for out-of-range settings.
	ErrInvalidValue = errors.New("config: invalid value")
)

// Config represents the full configuration for timelapse.
type Config struct {
	// Output
	OutputDir  string `yaml:"output_dir"`
	OutputName string `yaml:"output"`
	TempDir    string `yaml:"temp_dir"`

	// Capture
	Interval    float64 `yaml:"interval"` // seconds between captures
	Region      string  `yaml:"region"`   // JSON object or "x,y,w,h"; empty means full display
	TrackWindow bool    `yaml:"track_window"`

	// Encoding
	FPS       float64 `yaml:"fps"`
	Quality   int     `yaml:"quality"`
	Codec     string  `yaml:"codec"`
	NoUpscale bool    `yaml:"no_upscale"`

	// Reporting
	Summary    string `yaml:"summary"`
	Debug      bool   `yaml:"debug"`
	DebugDir   string `yaml:"debug_dir"`
	DebugEvery int    `yaml:"debug_every"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Output
		OutputDir:  ".",
		OutputName: "timelapse.mp4",

		// Capture
		Interval: 1.0,

		// Encoding
		FPS:     30.0,
		Quality: 85,

		// Reporting
		DebugDir:   "./debug",
		DebugEvery: 30,
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvCodec)); v != "" {
		c.Codec = v
	}
}

// Validate checks that all settings are usable.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %g", ErrInvalidValue, c.Interval)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %g", ErrInvalidValue, c.FPS)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: quality must be 1-100, got %d", ErrInvalidValue, c.Quality)
	}
	if c.OutputName == "" {
		return fmt.Errorf("%w: output name is empty", ErrInvalidValue)
	}
	if _, err := ParseRegion(c.Region); err != nil {
		return err
	}
	return nil
}

// FramesDir returns the directory holding captured frames and control markers.
func (c Config) FramesDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return filepath.Join(c.OutputDir, "temp")
}

// OutputPath returns the nominal video path.
func (c Config) OutputPath() string {
	if filepath.IsAbs(c.OutputName) {
		return c.OutputName
	}
	return filepath.Join(c.OutputDir, c.OutputName)
}

// FrameRate returns captures per second.
func (c Config) FrameRate() float64 {
	if c.Interval <= 0 {
		return 0
	}
	return 1 / c.Interval
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() (orchestrator.Config, error) {
	region, err := ParseRegion(c.Region)
	if err != nil {
		return orchestrator.Config{}, err
	}
	return orchestrator.Config{
		OutputPath: c.OutputPath(),

		FrameRate:   c.FrameRate(),
		Region:      region,
		TrackWindow: c.TrackWindow,

		VideoFPS:        c.FPS,
		Quality:         c.Quality,
		NoUpscale:       c.NoUpscale,
		CodecPreference: c.Codec,
	}, nil
}

type jsonRegion struct {
	X      *int `json:"x"`
	Y      *int `json:"y"`
	Width  *int `json:"width"`
	Height *int `json:"height"`
}

// ParseRegion parses a capture region given as a JSON object
// ({"x":0,"y":0,"width":800,"height":600}) or as "x,y,w,h".
// An empty string yields nil, meaning the full display.
func ParseRegion(s string) (*ports.Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var r ports.Region
	if strings.HasPrefix(s, "{") {
		var j jsonRegion
		if err := json.Unmarshal([]byte(s), &j); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRegion, err)
		}
		if j.X == nil || j.Y == nil || j.Width == nil || j.Height == nil {
			return nil, fmt.Errorf("%w: x, y, width and height are required", ErrInvalidRegion)
		}
		r = ports.Region{X: *j.X, Y: *j.Y, Width: *j.Width, Height: *j.Height}
	} else {
		parts := strings.Split(s, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: expected x,y,w,h, got %q", ErrInvalidRegion, s)
		}
		vals := make([]int, 4)
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidRegion, p)
			}
			vals[i] = v
		}
		r = ports.Region{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	}

	if !r.Valid() {
		return nil, fmt.Errorf("%w: width and height must be positive", ErrInvalidRegion)
	}
	return &r, nil
}
