/*
Runs one of the testbed scenes through the engine. The optional argument
is the path of a TOML config file; without it the defaults are used.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-frames/engine"
	"github.com/spaghettifunk/anima-frames/engine/config"
	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/platform"
	"github.com/spaghettifunk/anima-frames/engine/renderer/vulkan"
	"github.com/spaghettifunk/anima-frames/testbed"
)

func main() {
	if err := run(); err != nil {
		core.LogFatal("%s", err)
	}
}

func run() error {
	var path string
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	appConfig, err := engine.NewApplicationConfig(cfg)
	if err != nil {
		return err
	}
	core.SetLogLevel(appConfig.LogLevel)

	tb, err := testbed.NewTestGame(appConfig, cfg.Scene.Name)
	if err != nil {
		return err
	}

	p := platform.New()
	if err := p.Startup(platform.WindowConfig{
		Title:       appConfig.Name,
		X:           appConfig.StartPosX,
		Y:           appConfig.StartPosY,
		Width:       appConfig.StartWidth,
		Height:      appConfig.StartHeight,
		Decorations: cfg.Window.Decorations,
	}); err != nil {
		return err
	}
	defer p.Shutdown()

	// Start from the framebuffer size, which differs from the window size
	// on high density displays.
	if w, h := p.FramebufferSize(); w > 0 && h > 0 {
		appConfig.StartWidth, appConfig.StartHeight = w, h
	}

	backend, err := vulkan.New(p, vulkan.Options{
		AppName:    appConfig.Name,
		Validation: cfg.Renderer.Validation,
	})
	if err != nil {
		return err
	}
	defer backend.Destroy()

	e, err := engine.New(tb.Game, p, backend, nil)
	if err != nil {
		return err
	}
	tb.SetKeyboard(e.Keyboard())

	if err := e.Initialize(); err != nil {
		if serr := e.Shutdown(); serr != nil {
			core.LogError("shutdown after failed init: %s", serr)
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	return e.Run(ctx)
}
