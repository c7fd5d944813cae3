package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/timelapse/pkg/ports"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.FrameRate() != 1 {
		t.Errorf("expected 1 frame/s, got %g", cfg.FrameRate())
	}
	if cfg.FramesDir() != "temp" {
		t.Errorf("expected frames dir temp, got %q", cfg.FramesDir())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timelapse.yaml")
	data := []byte("output_dir: /tmp/out\ninterval: 2\nquality: 60\nregion: \"10,20,640,480\"\ntrack_window: true\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OutputDir != "/tmp/out" || cfg.Quality != 60 || !cfg.TrackWindow {
		t.Errorf("unexpected config: %+v", cfg)
	}
	// Unset keys keep their defaults
	if cfg.FPS != 30 {
		t.Errorf("expected default fps 30, got %g", cfg.FPS)
	}

	oc, err := cfg.ToOrchestratorConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oc.FrameRate != 0.5 {
		t.Errorf("expected frame rate 0.5, got %g", oc.FrameRate)
	}
	if oc.OutputPath != filepath.Join("/tmp/out", "timelapse.mp4") {
		t.Errorf("unexpected output path %q", oc.OutputPath)
	}
	want := ports.Region{X: 10, Y: 20, Width: 640, Height: 480}
	if oc.Region == nil || *oc.Region != want {
		t.Errorf("expected region %+v, got %+v", want, oc.Region)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	cfg.applyEnv(func(key string) string {
		if key == EnvCodec {
			return " ffv1 "
		}
		return ""
	})
	if cfg.Codec != "ffv1" {
		t.Errorf("expected codec ffv1, got %q", cfg.Codec)
	}

	cfg.applyEnv(func(string) string { return "" })
	if cfg.Codec != "ffv1" {
		t.Error("empty env should not clear the codec")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Interval = 0 }},
		{"negative fps", func(c *Config) { c.FPS = -1 }},
		{"quality too low", func(c *Config) { c.Quality = 0 }},
		{"quality too high", func(c *Config) { c.Quality = 101 }},
		{"empty output", func(c *Config) { c.OutputName = "" }},
		{"bad region", func(c *Config) { c.Region = "1,2,3" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    *ports.Region
		wantErr bool
	}{
		{"", nil, false},
		{"0,0,800,600", &ports.Region{Width: 800, Height: 600}, false},
		{" 5, 6 ,7,8 ", &ports.Region{X: 5, Y: 6, Width: 7, Height: 8}, false},
		{`{"x":-100,"y":20,"width":300,"height":200}`, &ports.Region{X: -100, Y: 20, Width: 300, Height: 200}, false},
		{`{"x":1,"y":2}`, nil, true},
		{`{"x":`, nil, true},
		{"a,b,c,d", nil, true},
		{"0,0,0,600", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRegion(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRegion) {
					t.Fatalf("expected ErrInvalidRegion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOutputPath_Absolute(t *testing.T) {
	cfg := Defaults()
	cfg.OutputDir = "out"
	abs := filepath.Join(t.TempDir(), "video.mp4")
	cfg.OutputName = abs
	if cfg.OutputPath() != abs {
		t.Errorf("expected %q, got %q", abs, cfg.OutputPath())
	}
	cfg.TempDir = "custom"
	if cfg.FramesDir() != "custom" {
		t.Errorf("expected custom frames dir, got %q", cfg.FramesDir())
	}
}
