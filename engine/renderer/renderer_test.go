package renderer_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
	"github.com/spaghettifunk/anima-frames/engine/renderer/rendertest"
)

func newRenderer(t *testing.T, b *rendertest.Backend, cadence renderer.Cadence) *renderer.Renderer {
	t.Helper()
	r, err := renderer.New(b, renderer.Config{
		Cadence:    cadence,
		ClearColor: renderer.ClearColor{0, 0, 0, 1},
		Extent:     renderer.Extent{Width: 640, Height: 480},
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func drawFrame(t *testing.T, r *renderer.Renderer) renderer.FrameStatus {
	t.Helper()
	if r.NeedsTeardown() {
		if err := r.Teardown(); err != nil {
			t.Fatal(err)
		}
	}
	status, err := r.DrawFrame(nil)
	if err != nil {
		t.Fatal(err)
	}
	return status
}

func TestRendererPicksSRGB(t *testing.T) {
	b := rendertest.New()
	r := newRenderer(t, b, renderer.CadenceSemaphoreChained)
	if r.Format().Format != renderer.FormatB8G8R8A8Srgb {
		t.Errorf("format = %s", r.Format())
	}

	b = rendertest.New()
	b.Caps.Formats = []renderer.SurfaceFormat{{Format: renderer.FormatB8G8R8A8Unorm}}
	if _, err := renderer.New(b, renderer.Config{}); !errors.Is(err, renderer.ErrNoSurfaceFormat) {
		t.Errorf("err = %v", err)
	}
}

func TestSteadyStateNeverRebuilds(t *testing.T) {
	for _, cadence := range []renderer.Cadence{renderer.CadenceSemaphoreChained, renderer.CadenceFenced} {
		t.Run(cadence.String(), func(t *testing.T) {
			b := rendertest.New()
			r := newRenderer(t, b, cadence)

			for i := 0; i < 100; i++ {
				if status := drawFrame(t, r); status != renderer.FramePresented {
					t.Fatalf("frame %d: %s", i, status)
				}
			}
			if n := b.Log.Count("create swapchain"); n != 1 {
				t.Errorf("%d swapchains built", n)
			}
			if n := b.Log.Count("present"); n != 100 {
				t.Errorf("%d presents", n)
			}
			// A command buffer per frame, all from the one pool.
			if n := b.Log.Count("allocate command buffer"); n != 100 {
				t.Errorf("%d command buffers", n)
			}
			if n := b.Live("command pool"); n != 1 {
				t.Errorf("%d command pools", n)
			}
		})
	}
}

func TestResizeRebuildsBeforeNextAcquire(t *testing.T) {
	b := rendertest.New()
	r := newRenderer(t, b, renderer.CadenceSemaphoreChained)
	drawFrame(t, r)

	b.SetExtent(1024, 768)
	r.Resize(1024, 768)
	if !r.NeedsTeardown() {
		t.Fatal("resize did not invalidate the swapchain")
	}
	b.Log.Reset()

	if status := drawFrame(t, r); status != renderer.FramePresented {
		t.Fatalf("status = %s", status)
	}
	destroyed := b.Log.Index("destroy swapchain 1")
	created := b.Log.Index("create swapchain 2")
	acquired := b.Log.Index("acquire swapchain 2 signal semaphore 1")
	if destroyed < 0 || created < destroyed || acquired < created {
		t.Errorf("destroy %d, create %d, acquire %d in %q", destroyed, created, acquired, b.Log.Calls())
	}
	if b.Log.Count("acquire swapchain 1") != 0 {
		t.Error("stale swapchain acquired after resize")
	}
	if got := r.Swapchains().Current().Extent(); got != (renderer.Extent{Width: 1024, Height: 768}) {
		t.Errorf("extent = %v", got)
	}
}

func TestOutOfDateAcquireSkipsFrame(t *testing.T) {
	b := rendertest.New()
	r := newRenderer(t, b, renderer.CadenceSemaphoreChained)
	drawFrame(t, r)

	b.AcquireResults = []rendertest.Result{{Err: errors.Wrap(renderer.ErrOutOfDate, "acquire")}}
	b.Log.Reset()

	status, err := r.DrawFrame(nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != renderer.FrameSkipped {
		t.Errorf("status = %s", status)
	}
	if b.Log.Count("submit") != 0 || b.Log.Count("present") != 0 {
		t.Error("work submitted for a failed acquire")
	}
	if !r.NeedsTeardown() {
		t.Fatal("swapchain not invalidated")
	}
	if _, err := r.DrawFrame(nil); !errors.Is(err, renderer.ErrSwapchainInvalidated) {
		t.Errorf("frame without teardown: %v", err)
	}

	if status := drawFrame(t, r); status != renderer.FramePresented {
		t.Errorf("frame after rebuild: %s", status)
	}
	if b.Live("swapchain") != 1 {
		t.Errorf("%d live swapchains", b.Live("swapchain"))
	}
}

func TestSuboptimalPresentRebuilds(t *testing.T) {
	b := rendertest.New()
	r := newRenderer(t, b, renderer.CadenceFenced)

	b.PresentResults = []rendertest.Result{{Status: renderer.SwapSuboptimal}}
	if status := drawFrame(t, r); status != renderer.FrameSuboptimal {
		t.Fatalf("status = %s", status)
	}
	if b.Log.Count("present") != 1 {
		t.Error("suboptimal frame was not presented")
	}
	if !r.NeedsTeardown() {
		t.Fatal("suboptimal swapchain kept")
	}

	drawFrame(t, r)
	if n := b.Log.Count("create swapchain"); n != 2 {
		t.Errorf("%d swapchains built", n)
	}
}

func TestSuboptimalAcquireStillPresents(t *testing.T) {
	b := rendertest.New()
	r := newRenderer(t, b, renderer.CadenceSemaphoreChained)

	b.AcquireResults = []rendertest.Result{{Status: renderer.SwapSuboptimal}}
	if status := drawFrame(t, r); status != renderer.FrameSuboptimal {
		t.Fatalf("status = %s", status)
	}
	if b.Log.Count("present") != 1 {
		t.Error("frame dropped")
	}
	if !r.NeedsTeardown() {
		t.Error("suboptimal swapchain kept")
	}
}

func TestAcquireTimeoutRebuilds(t *testing.T) {
	b := rendertest.New()
	r := newRenderer(t, b, renderer.CadenceSemaphoreChained)

	b.AcquireResults = []rendertest.Result{{Err: renderer.ErrTimeout}}
	if status := drawFrame(t, r); status != renderer.FrameSkipped {
		t.Fatalf("status = %s", status)
	}
	if !r.NeedsTeardown() {
		t.Error("timed out swapchain kept")
	}
}

func TestMinimizedWindowSkipsFrames(t *testing.T) {
	b := rendertest.New()
	r := newRenderer(t, b, renderer.CadenceSemaphoreChained)
	drawFrame(t, r)

	b.SetExtent(0, 0)
	r.Resize(0, 0)
	for i := 0; i < 5; i++ {
		if status := drawFrame(t, r); status != renderer.FrameSkipped {
			t.Fatalf("minimized frame %d: %s", i, status)
		}
	}
	if b.Live("swapchain") != 0 {
		t.Error("swapchain kept while minimized")
	}

	b.SetExtent(640, 480)
	r.Resize(640, 480)
	if status := drawFrame(t, r); status != renderer.FramePresented {
		t.Errorf("restored frame: %s", status)
	}
}

func TestRendererDestroyReleasesEverything(t *testing.T) {
	b := rendertest.New()
	r := newRenderer(t, b, renderer.CadenceSemaphoreChained)
	drawFrame(t, r)
	drawFrame(t, r)

	r.Destroy()
	for _, kind := range []string{"swapchain", "image view", "framebuffer", "semaphore", "fence", "command pool", "render pass"} {
		if n := b.Live(kind); n != 0 {
			t.Errorf("%d %s leaked", n, kind)
		}
	}
	if b.Log.Index("wait idle") < 0 {
		t.Error("destroyed without waiting for the device")
	}
}
