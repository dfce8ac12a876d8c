package renderer_test

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
	"github.com/spaghettifunk/anima-frames/engine/renderer/rendertest"
)

// runFrame drives one frame through fs the way the renderer does.
func runFrame(t *testing.T, fs *renderer.FrameSync, pool renderer.CommandPool, sc renderer.Swapchain) {
	t.Helper()
	if err := fs.WaitPrevious(); err != nil {
		t.Fatal(err)
	}
	if err := pool.Reset(); err != nil {
		t.Fatal(err)
	}
	idx, _, err := fs.Acquire(sc)
	if err != nil {
		t.Fatal(err)
	}
	cb, _ := pool.Allocate()
	if err := fs.Submit(cb); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Present(sc, idx); err != nil {
		t.Fatal(err)
	}
}

func newSyncFixture(t *testing.T, cadence renderer.Cadence) (*rendertest.Backend, *renderer.FrameSync, renderer.CommandPool, renderer.Swapchain) {
	t.Helper()
	b := rendertest.New()
	fs, err := renderer.NewFrameSync(b, cadence, 0)
	if err != nil {
		t.Fatal(err)
	}
	pool, _ := b.NewCommandPool()
	sc, _ := b.NewSwapchain(renderer.SwapchainConfig{ImageCount: 2, Extent: renderer.Extent{Width: 4, Height: 4}})
	b.Log.Reset()
	return b, fs, pool, sc
}

func TestSemaphoreChainedCadence(t *testing.T) {
	b, fs, pool, sc := newSyncFixture(t, renderer.CadenceSemaphoreChained)

	runFrame(t, fs, pool, sc)
	runFrame(t, fs, pool, sc)

	want := []string{
		"reset command pool 1",
		"acquire swapchain 1 signal semaphore 1",
		"allocate command buffer 1",
		"submit command buffer 1 wait semaphore 1 at 0x400 signal semaphore 2 fence fence 1",
		"present swapchain 1 image 0 wait semaphore 2",
		// The fence is only waited on before the pool is reused.
		"wait fence 1",
		"reset fence 1",
		"reset command pool 1",
		"acquire swapchain 1 signal semaphore 1",
		"allocate command buffer 2",
		"submit command buffer 2 wait semaphore 1 at 0x400 signal semaphore 2 fence fence 1",
		"present swapchain 1 image 1 wait semaphore 2",
	}
	if got := b.Log.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls:\n got %q\nwant %q", got, want)
	}
	if !fs.Pending() {
		t.Error("last submission should still be pending")
	}
}

func TestFencedCadence(t *testing.T) {
	b, fs, pool, sc := newSyncFixture(t, renderer.CadenceFenced)

	runFrame(t, fs, pool, sc)
	runFrame(t, fs, pool, sc)

	frame := func(cb, image string) []string {
		return []string{
			"reset command pool 1",
			"reset fence 1",
			"acquire swapchain 1 signal semaphore 1",
			"allocate command buffer " + cb,
			"submit command buffer " + cb + " wait semaphore 1 at 0x400 signal none fence fence 1",
			"wait fence 1",
			"present swapchain 1 image " + image + " wait none",
		}
	}
	want := append(frame("1", "0"), frame("2", "1")...)
	if got := b.Log.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls:\n got %q\nwant %q", got, want)
	}
	if fs.Pending() {
		t.Error("fenced cadence leaves nothing pending")
	}
}

func TestWaitPreviousTimeout(t *testing.T) {
	b, fs, pool, sc := newSyncFixture(t, renderer.CadenceSemaphoreChained)
	runFrame(t, fs, pool, sc)

	b.Submits[0].Fence.(*rendertest.Fence).Signaled = false
	err := fs.WaitPrevious()
	if !errors.Is(err, renderer.ErrTimeout) || !renderer.IsRecoverable(err) {
		t.Fatalf("err = %v, want a recoverable timeout", err)
	}
}

func TestParseCadence(t *testing.T) {
	tests := map[string]renderer.Cadence{
		"":                  renderer.CadenceSemaphoreChained,
		"semaphore":         renderer.CadenceSemaphoreChained,
		"Semaphore_Chained": renderer.CadenceSemaphoreChained,
		"fenced":            renderer.CadenceFenced,
	}
	for in, want := range tests {
		if got, err := renderer.ParseCadence(in); err != nil || got != want {
			t.Errorf("ParseCadence(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := renderer.ParseCadence("triple"); err == nil {
		t.Error("expected error")
	}
}

func TestFrameSyncDestroy(t *testing.T) {
	b, fs, _, _ := newSyncFixture(t, renderer.CadenceFenced)
	fs.Destroy()
	if b.Live("semaphore") != 0 || b.Live("fence") != 0 {
		t.Errorf("leaked %d semaphores, %d fences", b.Live("semaphore"), b.Live("fence"))
	}
}
