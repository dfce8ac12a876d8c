package renderer

import "github.com/pkg/errors"

var (
	// The surface changed and the swapchain must be rebuilt.
	ErrOutOfDate = errors.New("swapchain out of date")
	// A wait on the presentation engine or a fence expired.
	ErrTimeout = errors.New("wait timed out")
	// The surface could not be queried any more.
	ErrSurfaceLost = errors.New("surface lost")
	// The surface offers formats but none of them is sRGB.
	ErrNoSurfaceFormat = errors.New("no sRGB surface format")
	// No memory type satisfies a buffer's requirements.
	ErrNoMemoryType = errors.New("no compatible memory type")
	// A command buffer was driven through an illegal transition.
	ErrCommandBufferState = errors.New("illegal command buffer state transition")
	// More push constant data than a pipeline can receive.
	ErrPushConstantOverflow = errors.New("push constant block overflow")
	// A buffer element type has no fixed size.
	ErrElementSize = errors.New("buffer element has no fixed size")
	// A swapchain was requested while the current one awaits teardown.
	ErrSwapchainInvalidated = errors.New("swapchain invalidated")
)

// IsRecoverable reports whether err only requires the swapchain to be rebuilt.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrOutOfDate) || errors.Is(err, ErrTimeout)
}
