package renderer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
)

type Config struct {
	Cadence        Cadence
	PresentMode    PresentMode
	AcquireTimeout time.Duration
	ClearColor     ClearColor
	// Initial framebuffer size of the window.
	Extent Extent
}

type FrameStatus uint8

const (
	// The frame was presented.
	FramePresented FrameStatus = iota
	// The frame was presented but the swapchain will be rebuilt.
	FrameSuboptimal
	// Nothing was presented, the swapchain is absent or out of date.
	FrameSkipped
)

func (s FrameStatus) String() string {
	switch s {
	case FramePresented:
		return "presented"
	case FrameSuboptimal:
		return "suboptimal"
	case FrameSkipped:
		return "skipped"
	}
	return "unknown"
}

// Renderer drives one frame at a time through a backend: swapchain
// lifecycle, synchronization and command recording.
type Renderer struct {
	backend    Backend
	format     SurfaceFormat
	renderPass RenderPass
	swapchains *SwapchainManager
	sync       *FrameSync
	recorder   *Recorder

	frame *SwapchainResources
}

func New(backend Backend, cfg Config) (*Renderer, error) {
	caps, err := backend.SurfaceCapabilities()
	if err != nil {
		return nil, errors.Wrap(err, "query surface capabilities")
	}
	format, err := ChooseSurfaceFormat(caps.Formats)
	if err != nil {
		return nil, errors.Wrap(err, "choose surface format")
	}
	core.LogInfo("surface format: %s", format)

	r := &Renderer{
		backend: backend,
		format:  format,
	}

	if r.renderPass, err = backend.NewRenderPass(format); err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	if r.recorder, err = NewRecorder(backend, cfg.ClearColor); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.sync, err = NewFrameSync(backend, cfg.Cadence, cfg.AcquireTimeout); err != nil {
		r.Destroy()
		return nil, err
	}
	r.swapchains = NewSwapchainManager(backend, format, r.renderPass, cfg.PresentMode, cfg.Extent)
	return r, nil
}

func (r *Renderer) Backend() Backend {
	return r.backend
}

func (r *Renderer) Format() SurfaceFormat {
	return r.format
}

func (r *Renderer) RenderPass() RenderPass {
	return r.renderPass
}

func (r *Renderer) Swapchains() *SwapchainManager {
	return r.swapchains
}

func (r *Renderer) Sync() *FrameSync {
	return r.sync
}

func (r *Renderer) Recorder() *Recorder {
	return r.recorder
}

// Resize schedules a rebuild for the new framebuffer size.
func (r *Renderer) Resize(width, height uint32) {
	core.LogDebug("resize requested: %dx%d", width, height)
	r.swapchains.Resize(Extent{Width: width, Height: height})
}

func (r *Renderer) Invalidate() {
	r.swapchains.Invalidate()
}

func (r *Renderer) NeedsTeardown() bool {
	return r.swapchains.NeedsTeardown()
}

// Teardown destroys the swapchain resources, if any.
func (r *Renderer) Teardown() error {
	return r.swapchains.Teardown(r.recorder)
}

// WaitIdle waits for all GPU work, including the pending submission.
func (r *Renderer) WaitIdle() error {
	if err := r.backend.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait device idle")
	}
	return nil
}

// BeginFrame makes sure a swapchain exists, waits for the previous
// submission and resets the command pool. It returns nil resources when
// the frame must be skipped. Resources used by the previous frame may be
// rewritten once it returns.
func (r *Renderer) BeginFrame() (*SwapchainResources, error) {
	r.frame = nil

	res, err := r.swapchains.Ensure()
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	if err := r.sync.WaitPrevious(); err != nil {
		if IsRecoverable(err) {
			core.LogDebug("previous frame wait: %s, rebuilding", err)
			r.swapchains.Invalidate()
			return nil, nil
		}
		return nil, errors.Wrap(err, "wait previous frame")
	}
	if err := r.recorder.Reset(); err != nil {
		return nil, err
	}

	r.frame = res
	return res, nil
}

// EndFrame acquires an image, records scene into it, submits and presents.
// Out of date, suboptimal and timed out swapchains schedule a rebuild and
// are not errors.
func (r *Renderer) EndFrame(scene *FrameScene) (FrameStatus, error) {
	res := r.frame
	r.frame = nil
	if res == nil {
		return FrameSkipped, nil
	}

	index, acquired, err := r.sync.Acquire(res.Swapchain)
	if err != nil {
		if IsRecoverable(err) {
			core.LogDebug("acquire: %s, rebuilding", err)
			r.swapchains.Invalidate()
			return FrameSkipped, nil
		}
		return FrameSkipped, errors.Wrap(err, "acquire image")
	}

	framebuffer, err := res.Framebuffer(index)
	if err != nil {
		return FrameSkipped, err
	}

	cb, err := r.recorder.Record(FrameTarget{
		RenderPass:  r.renderPass,
		Framebuffer: framebuffer,
		Extent:      res.Extent(),
	}, scene)
	if err != nil {
		return FrameSkipped, errors.Wrap(err, "record frame")
	}

	if err := r.sync.Submit(cb); err != nil {
		if IsRecoverable(err) {
			core.LogDebug("submit: %s, rebuilding", err)
			r.swapchains.Invalidate()
			return FrameSkipped, nil
		}
		return FrameSkipped, err
	}
	if err := r.recorder.MarkSubmitted(); err != nil {
		return FrameSkipped, err
	}

	presented, err := r.sync.Present(res.Swapchain, index)
	if err != nil {
		if IsRecoverable(err) {
			core.LogDebug("present: %s, rebuilding", err)
			r.swapchains.Invalidate()
			return FrameSkipped, nil
		}
		return FrameSkipped, errors.Wrap(err, "present image")
	}

	if acquired == SwapSuboptimal || presented == SwapSuboptimal {
		core.LogDebug("swapchain %s suboptimal, rebuilding", res.ID)
		r.swapchains.Invalidate()
		return FrameSuboptimal, nil
	}
	return FramePresented, nil
}

// DrawFrame runs BeginFrame and EndFrame back to back.
func (r *Renderer) DrawFrame(scene *FrameScene) (FrameStatus, error) {
	res, err := r.BeginFrame()
	if err != nil || res == nil {
		return FrameSkipped, err
	}
	return r.EndFrame(scene)
}

// Destroy tears everything down after waiting for the device. The backend
// itself is left to the caller.
func (r *Renderer) Destroy() {
	if r.swapchains != nil {
		if err := r.Teardown(); err != nil {
			core.LogError("swapchain teardown failed: %s", err)
		}
	}
	if err := r.backend.WaitIdle(); err != nil {
		core.LogError("wait idle failed: %s", err)
	}
	if r.sync != nil {
		r.sync.Destroy()
		r.sync = nil
	}
	if r.recorder != nil {
		r.recorder.Destroy()
		r.recorder = nil
	}
	if r.renderPass != nil {
		r.renderPass.Destroy()
		r.renderPass = nil
	}
}
