package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestLoadWithoutPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Defaults() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[window]
title = "test"
width = 800

[renderer]
cadence = "fenced"
present_mode = "mailbox"
acquire_timeout = "250ms"
clear_color = [0.1, 0.2, 0.3, 1.0]

[scene]
name = "uniform"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Title != "test" || cfg.Window.Width != 800 {
		t.Errorf("window = %+v", cfg.Window)
	}
	if cfg.Window.Height != Defaults().Window.Height {
		t.Errorf("height = %d, want the default to survive", cfg.Window.Height)
	}
	if cfg.Renderer.AcquireTimeout.Duration != 250*time.Millisecond {
		t.Errorf("acquire timeout = %s", cfg.Renderer.AcquireTimeout)
	}
	if cfg.Scene.Name != "uniform" {
		t.Errorf("scene = %q", cfg.Scene.Name)
	}

	rc := cfg.RendererSettings()
	if rc.Cadence != renderer.CadenceFenced {
		t.Errorf("cadence = %s", rc.Cadence)
	}
	if rc.PresentMode != renderer.PresentModeMailbox {
		t.Errorf("present mode = %s", rc.PresentMode)
	}
	if rc.ClearColor != (renderer.ClearColor{0.1, 0.2, 0.3, 1.0}) {
		t.Errorf("clear color = %v", rc.ClearColor)
	}
	if rc.Extent != (renderer.Extent{Width: 800, Height: 720}) {
		t.Errorf("extent = %+v", rc.Extent)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := Defaults()
	err := Decode([]byte("[window]\nfullscreen = true\n"), &cfg)
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Fatalf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestDecodeRejectsBadDuration(t *testing.T) {
	cfg := Defaults()
	if err := Decode([]byte("[renderer]\nacquire_timeout = \"soon\"\n"), &cfg); err == nil {
		t.Fatal("expected an error for a malformed duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"zero height", func(c *Config) { c.Window.Height = 0 }},
		{"cadence", func(c *Config) { c.Renderer.Cadence = "sometimes" }},
		{"present mode", func(c *Config) { c.Renderer.PresentMode = "vsync" }},
		{"negative timeout", func(c *Config) { c.Renderer.AcquireTimeout = Duration{-time.Second} }},
		{"clear color", func(c *Config) { c.Renderer.ClearColor[2] = 1.5 }},
		{"vertex shader", func(c *Config) { c.Shaders.Vertex = "" }},
		{"fragment shader", func(c *Config) { c.Shaders.Fragment = "" }},
		{"scene", func(c *Config) { c.Scene.Name = "" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, core.ErrConfigInvalid) {
				t.Errorf("Validate() = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

func TestUnboundedTimeout(t *testing.T) {
	cfg := Defaults()
	if err := Decode([]byte("[renderer]\nacquire_timeout = \"0s\"\n"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.RendererSettings().AcquireTimeout != 0 {
		t.Errorf("timeout = %s, want 0", cfg.RendererSettings().AcquireTimeout)
	}
}
