package renderer

import (
	"math"
	"time"
)

// Destroyer is implemented by every GPU object the frame loop owns.
type Destroyer interface {
	// Destroy releases the object. The GPU must no longer reference it.
	Destroy()
}

type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero, as happens when the
// window is minimized.
func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// IsUndefined reports whether the surface leaves the extent to the swapchain.
func (e Extent) IsUndefined() bool {
	return e.Width == math.MaxUint32
}

// UndefinedExtent is reported by surfaces whose size follows the swapchain.
var UndefinedExtent = Extent{Width: math.MaxUint32, Height: math.MaxUint32}

type Rect struct {
	X, Y   int32
	Extent Extent
}

// Range is a half-open interval [First, First+Count).
type Range struct {
	First uint32
	Count uint32
}

type ClearColor [4]float32

type PresentMode uint8

const (
	PresentModeFifo PresentMode = iota
	PresentModeFifoRelaxed
	PresentModeMailbox
	PresentModeImmediate
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo_relaxed"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeImmediate:
		return "immediate"
	}
	return "unknown"
}

type SurfaceCapabilities struct {
	MinImageCount uint32
	// 0 means no upper bound.
	MaxImageCount uint32
	CurrentExtent Extent
	MinExtent     Extent
	MaxExtent     Extent
	// Empty when the surface accepts any format.
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

type SwapchainConfig struct {
	Format      SurfaceFormat
	Extent      Extent
	ImageCount  uint32
	PresentMode PresentMode
}

type SwapStatus uint8

const (
	SwapOptimal SwapStatus = iota
	// The swapchain still works but no longer matches the surface.
	SwapSuboptimal
)

// Image is a presentable image owned by its swapchain.
type Image interface {
	Extent() Extent
}

// Backbuffer describes what a swapchain hands out: either its images, from
// which views and framebuffers are derived, or a single opaque framebuffer
// for backends that do not expose images.
type Backbuffer struct {
	Images      []Image
	Framebuffer Framebuffer
}

// IsOpaque reports whether the backbuffer is a single backend framebuffer.
func (b Backbuffer) IsOpaque() bool {
	return b.Framebuffer != nil
}

type Swapchain interface {
	Destroyer

	Config() SwapchainConfig
	Backbuffer() Backbuffer

	// Acquire returns the index of the next writable image. signal is
	// signaled once the presentation engine releases it. A timeout of zero
	// waits forever.
	// It returns ErrOutOfDate when the surface changed and ErrTimeout when
	// no image became available in time.
	Acquire(timeout time.Duration, signal Semaphore, fence Fence) (uint32, SwapStatus, error)

	// Present queues the image at index for display once wait is signaled.
	// wait may be nil.
	Present(index uint32, wait Semaphore) (SwapStatus, error)
}

type ImageView interface{ Destroyer }

type Framebuffer interface{ Destroyer }

type RenderPass interface{ Destroyer }

type Semaphore interface{ Destroyer }

type Fence interface {
	Destroyer
	// Wait blocks until the fence is signaled. A timeout of zero waits
	// forever. It returns ErrTimeout on expiry.
	Wait(timeout time.Duration) error
	Reset() error
}

type CommandPool interface {
	Destroyer
	// Reset returns every command buffer allocated from the pool to the
	// initial state. No submission may still reference them.
	Reset() error
	Allocate() (CommandBuffer, error)
}

type CommandBuffer interface {
	Begin() error
	End() error
	SetViewport(area Rect)
	SetScissor(area Rect)
	BindPipeline(pipeline Pipeline)
	BindVertexBuffers(first uint32, buffers []Buffer, offsets []uint64)
	BindDescriptorSets(pipeline Pipeline, first uint32, sets []DescriptorSet)
	BeginRenderPass(pass RenderPass, framebuffer Framebuffer, area Rect, clear ClearColor)
	PushConstants(pipeline Pipeline, stages ShaderStage, offset uint32, words []uint32)
	Draw(vertices Range, instances Range)
	EndRenderPass()
}

type PipelineStage uint32

// Values match the Vulkan pipeline stage bits.
const (
	StageTopOfPipe             PipelineStage = 0x00000001
	StageColorAttachmentOutput PipelineStage = 0x00000400
	StageBottomOfPipe          PipelineStage = 0x00002000
)

type SubmitInfo struct {
	CommandBuffer CommandBuffer
	// Optional semaphore waited on at WaitStage.
	Wait      Semaphore
	WaitStage PipelineStage
	// Optional semaphore signaled on completion.
	Signal Semaphore
	// Optional fence signaled on completion.
	Fence Fence
}

type ShaderStage uint32

// Values match the Vulkan shader stage bits.
const (
	ShaderStageVertex   ShaderStage = 0x00000001
	ShaderStageFragment ShaderStage = 0x00000010
)

type VertexFormat uint8

const (
	VertexFloat2 VertexFormat = iota + 1
	VertexFloat3
	VertexFloat4
)

type VertexAttribute struct {
	Location uint32
	Offset   uint32
	Format   VertexFormat
}

type PipelineDesc struct {
	RenderPass     RenderPass
	VertexShader   []byte
	FragmentShader []byte
	// Zero when the vertex shader generates its own positions.
	VertexStride uint32
	Attributes   []VertexAttribute
	// Words of vertex stage push constants.
	PushConstantWords uint32
	// Whether set 0 holds a single vertex stage uniform buffer at binding 0.
	Uniform bool
}

type Pipeline interface{ Destroyer }

type DescriptorSet interface{ Destroyer }

// SurfaceQuerier reads the presentation surface state.
type SurfaceQuerier interface {
	SurfaceCapabilities() (SurfaceCapabilities, error)
}

// SwapchainDevice builds and tears down swapchain dependent resources.
type SwapchainDevice interface {
	SurfaceQuerier
	WaitIdle() error
	NewSwapchain(config SwapchainConfig) (Swapchain, error)
	NewImageView(image Image, format SurfaceFormat) (ImageView, error)
	NewFramebuffer(pass RenderPass, view ImageView, extent Extent) (Framebuffer, error)
}

// SyncDevice creates synchronization primitives and submits work.
type SyncDevice interface {
	NewSemaphore() (Semaphore, error)
	NewFence(signaled bool) (Fence, error)
	Submit(info SubmitInfo) error
}

type CommandDevice interface {
	NewCommandPool() (CommandPool, error)
	NewRenderPass(format SurfaceFormat) (RenderPass, error)
}

type MemoryDevice interface {
	MemoryTypes() []MemoryType
	// NewBuffer creates a buffer with no memory bound to it.
	NewBuffer(size uint64, usage BufferUsage) (Buffer, error)
	AllocateMemory(size uint64, typeIndex int) (Memory, error)
}

type PipelineDevice interface {
	NewPipeline(desc PipelineDesc) (Pipeline, error)
	// NewUniformSet binds size bytes of buffer to binding 0 of a descriptor
	// set laid out for pipeline.
	NewUniformSet(pipeline Pipeline, buffer Buffer, size uint64) (DescriptorSet, error)
}

// Backend is a GPU device with a presentation surface.
type Backend interface {
	Destroyer
	SwapchainDevice
	SyncDevice
	CommandDevice
	MemoryDevice
	PipelineDevice
}
