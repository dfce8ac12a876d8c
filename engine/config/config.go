// Package config loads the engine settings from TOML. Every key has a
// default, so a file only needs the values it changes.
package config

import (
	"bytes"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Shaders  ShaderConfig   `toml:"shaders"`
	Scene    SceneConfig    `toml:"scene"`
	Log      LogConfig      `toml:"log"`
}

type WindowConfig struct {
	Title       string `toml:"title"`
	X           int32  `toml:"x"`
	Y           int32  `toml:"y"`
	Width       uint32 `toml:"width"`
	Height      uint32 `toml:"height"`
	Decorations bool   `toml:"decorations"`
}

type RendererConfig struct {
	// "semaphore" or "fenced".
	Cadence     string `toml:"cadence"`
	PresentMode string `toml:"present_mode"`
	// Zero waits forever.
	AcquireTimeout Duration   `toml:"acquire_timeout"`
	ClearColor     [4]float32 `toml:"clear_color"`
	Validation     bool       `toml:"validation"`
}

type ShaderConfig struct {
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
	// Reload the pipeline when a blob changes on disk.
	Watch bool `toml:"watch"`
}

type SceneConfig struct {
	Name string `toml:"name"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Duration reads Go duration strings such as "1s" or "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return errors.Wrapf(err, "duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Defaults() Config {
	return Config{
		Window: WindowConfig{
			Title:       "Anima Frames",
			X:           100,
			Y:           100,
			Width:       1280,
			Height:      720,
			Decorations: true,
		},
		Renderer: RendererConfig{
			Cadence:        "semaphore",
			PresentMode:    "fifo",
			AcquireTimeout: Duration{time.Second},
			ClearColor:     [4]float32{0.0, 0.0, 0.0, 1.0},
		},
		Shaders: ShaderConfig{
			Vertex:   "assets/gen/shaders/triangle.vert.spv",
			Fragment: "assets/gen/shaders/colour.frag.spv",
		},
		Scene: SceneConfig{Name: "triangle"},
		Log:   LogConfig{Level: "info"},
	}
}

// Load overlays the file at path on the defaults. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, cfg.Validate()
}

// Decode overlays TOML data on cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.Wrap(core.ErrConfigInvalid, strict.String())
		}
		return errors.Wrap(err, "decode toml")
	}
	return nil
}

func (c Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return errors.Wrapf(core.ErrConfigInvalid, "window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if _, err := renderer.ParseCadence(c.Renderer.Cadence); err != nil {
		return errors.Wrap(core.ErrConfigInvalid, err.Error())
	}
	if _, err := renderer.ParsePresentMode(c.Renderer.PresentMode); err != nil {
		return errors.Wrap(core.ErrConfigInvalid, err.Error())
	}
	if c.Renderer.AcquireTimeout.Duration < 0 {
		return errors.Wrapf(core.ErrConfigInvalid, "negative acquire timeout %s", c.Renderer.AcquireTimeout)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return errors.Wrapf(core.ErrConfigInvalid, "clear color component %d is %g", i, v)
		}
	}
	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		return errors.Wrap(core.ErrConfigInvalid, "shader paths must be set")
	}
	if c.Scene.Name == "" {
		return errors.Wrap(core.ErrConfigInvalid, "scene name must be set")
	}
	if _, err := core.ParseLogLevel(c.Log.Level); err != nil {
		return errors.Wrap(core.ErrConfigInvalid, err.Error())
	}
	return nil
}

// RendererSettings converts the settings for renderer.New. The window size
// seeds the swapchain extent. Call Validate first.
func (c Config) RendererSettings() renderer.Config {
	cadence, _ := renderer.ParseCadence(c.Renderer.Cadence)
	mode, _ := renderer.ParsePresentMode(c.Renderer.PresentMode)
	return renderer.Config{
		Cadence:        cadence,
		PresentMode:    mode,
		AcquireTimeout: c.Renderer.AcquireTimeout.Duration,
		ClearColor:     renderer.ClearColor(c.Renderer.ClearColor),
		Extent:         renderer.Extent{Width: c.Window.Width, Height: c.Window.Height},
	}
}
