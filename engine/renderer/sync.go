package renderer

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
)

// Cadence selects how the CPU, the GPU and the presentation engine are
// ordered within a frame. It is fixed for the whole run.
type Cadence uint8

const (
	// Acquire signals the frame semaphore, the submission waits on it and
	// signals the present semaphore, present waits on that. The CPU only
	// waits for the previous submission right before the command pool is
	// reset.
	CadenceSemaphoreChained Cadence = iota
	// The CPU waits for each submission to finish before presenting.
	CadenceFenced
)

func (c Cadence) String() string {
	switch c {
	case CadenceSemaphoreChained:
		return "semaphore"
	case CadenceFenced:
		return "fenced"
	}
	return "unknown"
}

func ParseCadence(s string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "semaphore", "semaphore_chained":
		return CadenceSemaphoreChained, nil
	case "fenced", "fence":
		return CadenceFenced, nil
	}
	return CadenceSemaphoreChained, errors.Errorf("unknown cadence %q", s)
}

// FrameSync owns the frame semaphore, the present semaphore and the
// submission fence, and orders acquire, submit and present.
type FrameSync struct {
	device  SyncDevice
	cadence Cadence
	timeout time.Duration

	frameSemaphore   Semaphore
	presentSemaphore Semaphore
	fence            Fence

	// A submission signaling fence has not been waited on yet.
	pending bool
}

// NewFrameSync creates the synchronization primitives. A zero timeout waits
// forever on acquire and on the fence.
func NewFrameSync(device SyncDevice, cadence Cadence, timeout time.Duration) (*FrameSync, error) {
	fs := &FrameSync{
		device:  device,
		cadence: cadence,
		timeout: timeout,
	}

	var err error
	if fs.frameSemaphore, err = device.NewSemaphore(); err != nil {
		return nil, errors.Wrap(err, "create frame semaphore")
	}
	if fs.presentSemaphore, err = device.NewSemaphore(); err != nil {
		fs.Destroy()
		return nil, errors.Wrap(err, "create present semaphore")
	}
	if fs.fence, err = device.NewFence(false); err != nil {
		fs.Destroy()
		return nil, errors.Wrap(err, "create submission fence")
	}

	core.LogDebug("frame sync created with %s cadence", cadence)
	return fs, nil
}

func (fs *FrameSync) Cadence() Cadence {
	return fs.cadence
}

// Pending reports whether the last submission may still be executing.
func (fs *FrameSync) Pending() bool {
	return fs.pending
}

// WaitPrevious blocks until the previous submission has completed so that
// the resources it references can be reused.
func (fs *FrameSync) WaitPrevious() error {
	if !fs.pending {
		return nil
	}
	if err := fs.fence.Wait(fs.timeout); err != nil {
		return err
	}
	fs.pending = false
	return fs.fence.Reset()
}

// Acquire gets the next image from sc, signaling the frame semaphore.
func (fs *FrameSync) Acquire(sc Swapchain) (uint32, SwapStatus, error) {
	if fs.cadence == CadenceFenced {
		if err := fs.fence.Reset(); err != nil {
			return 0, SwapOptimal, errors.Wrap(err, "reset fence")
		}
	}
	return sc.Acquire(fs.timeout, fs.frameSemaphore, nil)
}

// Submit queues cb after the frame semaphore at the color attachment output
// stage. With the fenced cadence it returns once the GPU finished.
func (fs *FrameSync) Submit(cb CommandBuffer) error {
	info := SubmitInfo{
		CommandBuffer: cb,
		Wait:          fs.frameSemaphore,
		WaitStage:     StageColorAttachmentOutput,
		Fence:         fs.fence,
	}
	if fs.cadence == CadenceSemaphoreChained {
		info.Signal = fs.presentSemaphore
	}

	if err := fs.device.Submit(info); err != nil {
		return errors.Wrap(err, "submit frame")
	}
	fs.pending = true

	if fs.cadence == CadenceFenced {
		if err := fs.fence.Wait(fs.timeout); err != nil {
			return err
		}
		fs.pending = false
	}
	return nil
}

// Present hands the image at index back for display.
func (fs *FrameSync) Present(sc Swapchain, index uint32) (SwapStatus, error) {
	var wait Semaphore
	if fs.cadence == CadenceSemaphoreChained {
		wait = fs.presentSemaphore
	}
	return sc.Present(index, wait)
}

// Destroy releases the primitives. The device must be idle.
func (fs *FrameSync) Destroy() {
	if fs.fence != nil {
		fs.fence.Destroy()
		fs.fence = nil
	}
	if fs.presentSemaphore != nil {
		fs.presentSemaphore.Destroy()
		fs.presentSemaphore = nil
	}
	if fs.frameSemaphore != nil {
		fs.frameSemaphore.Destroy()
		fs.frameSemaphore = nil
	}
	fs.pending = false
}
