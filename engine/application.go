package engine

import (
	"github.com/spaghettifunk/anima-frames/engine/config"
	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX int32
	// Window starting position y axis, if applicable.
	StartPosY int32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel core.LogLevel

	Renderer renderer.Config

	VertexShader   string
	FragmentShader string
	WatchShaders   bool
}

// NewApplicationConfig validates cfg and flattens it for the engine.
func NewApplicationConfig(cfg config.Config) (*ApplicationConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return &ApplicationConfig{
		StartPosX:      cfg.Window.X,
		StartPosY:      cfg.Window.Y,
		StartWidth:     cfg.Window.Width,
		StartHeight:    cfg.Window.Height,
		Name:           cfg.Window.Title,
		LogLevel:       level,
		Renderer:       cfg.RendererSettings(),
		VertexShader:   cfg.Shaders.Vertex,
		FragmentShader: cfg.Shaders.Fragment,
		WatchShaders:   cfg.Shaders.Watch,
	}, nil
}
