package engine

import (
	"github.com/spaghettifunk/anima-frames/engine/assets"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// Game is the application driven by the engine. Only FnRender is
// required; the other hooks may be nil.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnReload          Reload
	FnShutdown        Shutdown
}

// Initialize creates the game's GPU objects once the renderer exists.
type Initialize func(r *renderer.Renderer, shaders assets.ShaderPair) error
type Update func(deltaTime float64) error

// Render describes the frame to draw into a swapchain of the given extent.
type Render func(extent renderer.Extent, deltaTime float64) (*renderer.FrameScene, error)
type OnResize func(width uint32, height uint32) error

// Reload replaces the pipeline after the shader blobs changed. The device
// is idle when it runs.
type Reload func(shaders assets.ShaderPair) error

// Shutdown releases the game's GPU objects. The device is idle.
type Shutdown func() error
