package engine

import (
	"context"
	"iter"
	"time"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/assets"
	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything it created
	EngineStageStopped
)

// How long an iteration sleeps while there is nothing to draw into.
const suspendedPoll = 16 * time.Millisecond

// Seconds between two metrics reports.
const metricsInterval = 1.0

// Platform is the window system as seen by the loop.
type Platform interface {
	PollEvents() iter.Seq[core.Event]
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool
	isSuspended  bool
	platform     Platform
	backend      renderer.Backend
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
	keyboard     *core.KeyboardState
	metrics      *core.Metrics
	width        uint32
	height       uint32
	clock        *core.Clock
	lastTime     float64
	lastReport   float64
}

func New(g *Game, p Platform, backend renderer.Backend, am *assets.AssetManager) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.New("game has no application config")
	}
	if g.FnRender == nil {
		return nil, errors.New("game has no render function")
	}
	if am == nil {
		am = assets.NewAssetManager()
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		platform:     p,
		backend:      backend,
		assetManager: am,
		keyboard:     core.NewKeyboardState(),
		metrics:      core.NewMetrics(),
		clock:        core.NewClock(),
		isRunning:    true,
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Keyboard() *core.KeyboardState {
	return e.keyboard
}

// Initialize sets up the renderer, loads the shaders and hands both to
// the game.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return errors.Errorf("initialize in stage %d", e.currentStage)
	}
	e.currentStage = EngineStageInitializing
	cfg := e.gameInstance.ApplicationConfig

	rcfg := cfg.Renderer
	rcfg.Extent = renderer.Extent{Width: e.width, Height: e.height}
	r, err := renderer.New(e.backend, rcfg)
	if err != nil {
		return errors.Wrap(err, "create renderer")
	}
	e.renderer = r

	shaders, err := e.assetManager.LoadShaders(cfg.VertexShader, cfg.FragmentShader)
	if err != nil {
		return err
	}
	if cfg.WatchShaders {
		if err := e.assetManager.Watch(cfg.VertexShader, cfg.FragmentShader); err != nil {
			core.LogWarn("shader hot reload disabled: %s", err)
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(r, shaders); err != nil {
			return errors.Wrap(err, "initialize game")
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized: cadence %s, present mode %s", rcfg.Cadence, rcfg.PresentMode)
	return nil
}

// Run drives the frame loop until the window asks to close, ctx is done
// or a frame fails. The engine is shut down on return.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return errors.Errorf("run in stage %d", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()
	e.lastReport = e.lastTime

	var runErr error
	for e.isRunning {
		if ctx.Err() != nil {
			core.LogInfo("shutdown requested")
			break
		}

		for event := range e.platform.PollEvents() {
			e.onEvent(event)
		}
		if !e.isRunning {
			break
		}

		if err := e.checkShaderChanges(); err != nil {
			runErr = err
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		e.lastTime = currentTime
		core.LogDebug("frame delta %.3f ms", delta*1000)

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				runErr = errors.Wrap(err, "update game")
				break
			}
		}

		if err := e.frame(delta); err != nil {
			runErr = err
			break
		}
		e.keyboard.Update()
		e.metrics.Update(delta)
		e.report(currentTime)

		if e.isSuspended {
			time.Sleep(suspendedPoll)
		}
	}

	if err := e.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// frame draws one frame, or skips it when there is no swapchain to draw
// into.
func (e *Engine) frame(delta float64) error {
	if e.renderer.NeedsTeardown() {
		if err := e.renderer.Teardown(); err != nil {
			return errors.Wrap(err, "tear down swapchain")
		}
	}

	res, err := e.renderer.BeginFrame()
	if err != nil {
		return err
	}
	e.updateRebuilds()
	if res == nil {
		e.isSuspended = true
		e.metrics.Skipped++
		return nil
	}
	e.isSuspended = false

	scene, err := e.gameInstance.FnRender(res.Extent(), delta)
	if err != nil {
		return errors.Wrap(err, "render game")
	}

	status, err := e.renderer.EndFrame(scene)
	if err != nil {
		return err
	}
	switch status {
	case renderer.FramePresented, renderer.FrameSuboptimal:
		e.metrics.Presented++
	default:
		e.metrics.Skipped++
	}
	return nil
}

func (e *Engine) updateRebuilds() {
	if builds := e.renderer.Swapchains().Builds(); builds > 0 {
		e.metrics.Rebuilds = builds - 1
	}
}

func (e *Engine) report(now float64) {
	if now-e.lastReport < metricsInterval {
		return
	}
	e.lastReport = now
	fps, frameTime := e.metrics.Frame()
	core.LogInfo("fps %.0f, frame %.2f ms, presented %d, skipped %d, rebuilds %d",
		fps, frameTime, e.metrics.Presented, e.metrics.Skipped, e.metrics.Rebuilds)
}

func (e *Engine) checkShaderChanges() error {
	cfg := e.gameInstance.ApplicationConfig
	changed := false
	for {
		select {
		case path := <-e.assetManager.Changes():
			if assets.IsShaderChange(path, cfg.VertexShader, cfg.FragmentShader) {
				core.LogInfo("shader %s changed", path)
				changed = true
			}
			continue
		default:
		}
		break
	}
	if !changed {
		return nil
	}
	return e.ReloadShaders()
}

// ReloadShaders reads the shader blobs again and hands them to the game
// once the device is idle. A blob that fails to load keeps the current
// pipeline.
func (e *Engine) ReloadShaders() error {
	cfg := e.gameInstance.ApplicationConfig
	shaders, err := e.assetManager.LoadShaders(cfg.VertexShader, cfg.FragmentShader)
	if err != nil {
		core.LogWarn("shader reload skipped: %s", err)
		return nil
	}
	if e.gameInstance.FnReload == nil {
		return nil
	}
	if err := e.renderer.WaitIdle(); err != nil {
		return err
	}
	if err := e.gameInstance.FnReload(shaders); err != nil {
		return errors.Wrap(err, "reload shaders")
	}
	return nil
}

func (e *Engine) onEvent(event core.Event) {
	switch event.Kind {
	case core.EventResizeRequested:
		e.onResized(event.Width, event.Height)
	case core.EventKeyInput:
		e.keyboard.Process(event.Key, event.Pressed)
	}
	if event.IsQuit() {
		core.LogInfo("%s received, shutting down", event.Kind)
		e.isRunning = false
	}
}

func (e *Engine) onResized(width, height uint32) {
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height
	core.LogDebug("window resize: %d, %d", width, height)

	e.renderer.Resize(width, height)
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError("game resize failed: %s", err)
		}
	}
}

// Shutdown waits for the GPU, lets the game release its objects and
// destroys the renderer. The backend belongs to the caller. Calling it
// again has no effect.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown || e.currentStage == EngineStageStopped {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false
	e.clock.Stop()

	var err error
	if e.renderer != nil {
		if werr := e.renderer.WaitIdle(); werr != nil {
			core.LogError("wait idle failed: %s", werr)
		}
		if e.gameInstance.FnShutdown != nil {
			err = e.gameInstance.FnShutdown()
		}
		e.renderer.Destroy()
		e.renderer = nil
	}
	e.assetManager.Shutdown()

	e.currentStage = EngineStageStopped
	fps, frameTime := e.metrics.Frame()
	core.LogInfo("engine stopped: presented %d, skipped %d, rebuilds %d, last fps %.0f (%.2f ms)",
		e.metrics.Presented, e.metrics.Skipped, e.metrics.Rebuilds, fps, frameTime)
	return err
}
