package rendertest

import (
	"time"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// Result is a queued outcome for an acquire or a present.
type Result struct {
	Status renderer.SwapStatus
	Err    error
}

// Backend is a fake device whose GPU finishes every submission instantly.
// Fields may be changed between frames to simulate the surface changing.
type Backend struct {
	Log *Log

	Caps renderer.SurfaceCapabilities
	// Number of upcoming capability queries that fail.
	CapsFailures int
	// Swapchains expose a single framebuffer instead of images.
	Opaque bool

	Types []renderer.MemoryType
	// Memory types allowed for new buffers. Zero allows every type.
	BufferTypeBits uint32
	// Buffer sizes are rounded up to this alignment.
	BufferAlignment uint64

	// Outcomes consumed by the next acquires and presents. Once empty,
	// acquires cycle through the images and presents are optimal.
	AcquireResults []Result
	PresentResults []Result

	// Submissions in order.
	Submits []renderer.SubmitInfo
	// The swapchain created last.
	Swapchain *Swapchain

	ids  map[string]int
	live map[string]int
}

// DefaultCapabilities is a 640x480 surface offering a linear and an sRGB
// format.
func DefaultCapabilities() renderer.SurfaceCapabilities {
	return renderer.SurfaceCapabilities{
		MinImageCount: 2,
		MaxImageCount: 3,
		CurrentExtent: renderer.Extent{Width: 640, Height: 480},
		MinExtent:     renderer.Extent{Width: 1, Height: 1},
		MaxExtent:     renderer.Extent{Width: 4096, Height: 4096},
		Formats: []renderer.SurfaceFormat{
			{Format: renderer.FormatB8G8R8A8Unorm, ColorSpace: renderer.ColorSpaceSRGBNonlinear},
			{Format: renderer.FormatB8G8R8A8Srgb, ColorSpace: renderer.ColorSpaceSRGBNonlinear},
		},
		PresentModes: []renderer.PresentMode{renderer.PresentModeFifo, renderer.PresentModeMailbox},
	}
}

func New() *Backend {
	return &Backend{
		Log:  &Log{},
		Caps: DefaultCapabilities(),
		Types: []renderer.MemoryType{
			{Properties: renderer.MemoryDeviceLocal, HeapIndex: 0},
			{Properties: renderer.MemoryHostVisible | renderer.MemoryHostCoherent, HeapIndex: 1},
		},
		BufferAlignment: 16,
		ids:             map[string]int{},
		live:            map[string]int{},
	}
}

// SetExtent changes the current surface extent.
func (b *Backend) SetExtent(width, height uint32) {
	b.Caps.CurrentExtent = renderer.Extent{Width: width, Height: height}
}

// Live returns how many objects of kind exist, such as "framebuffer".
func (b *Backend) Live(kind string) int {
	return b.live[kind]
}

func (b *Backend) create(kind string) int {
	b.ids[kind]++
	b.live[kind]++
	id := b.ids[kind]
	b.Log.add("create %s %d", kind, id)
	return id
}

func (b *Backend) destroy(kind string, id int) {
	b.live[kind]--
	b.Log.add("destroy %s %d", kind, id)
}

func (b *Backend) Destroy() {
	b.Log.add("destroy backend")
}

func (b *Backend) SurfaceCapabilities() (renderer.SurfaceCapabilities, error) {
	b.Log.add("query capabilities")
	if b.CapsFailures > 0 {
		b.CapsFailures--
		return renderer.SurfaceCapabilities{}, errors.New("surface query failed")
	}
	return b.Caps, nil
}

func (b *Backend) WaitIdle() error {
	b.Log.add("wait idle")
	return nil
}

func (b *Backend) NewSwapchain(config renderer.SwapchainConfig) (renderer.Swapchain, error) {
	sc := &Swapchain{
		backend: b,
		ID:      b.create("swapchain"),
		config:  config,
	}
	if b.Opaque {
		sc.framebuffer = &Framebuffer{object: b.newObject("framebuffer")}
	} else {
		for i := uint32(0); i < config.ImageCount; i++ {
			sc.images = append(sc.images, &Image{Index: int(i), extent: config.Extent})
		}
	}
	b.Swapchain = sc
	return sc, nil
}

func (b *Backend) NewImageView(image renderer.Image, format renderer.SurfaceFormat) (renderer.ImageView, error) {
	return &ImageView{object: b.newObject("image view"), Image: image.(*Image)}, nil
}

func (b *Backend) NewFramebuffer(pass renderer.RenderPass, view renderer.ImageView, extent renderer.Extent) (renderer.Framebuffer, error) {
	return &Framebuffer{object: b.newObject("framebuffer"), View: view.(*ImageView), Extent: extent}, nil
}

func (b *Backend) NewSemaphore() (renderer.Semaphore, error) {
	return &Semaphore{object: b.newObject("semaphore")}, nil
}

func (b *Backend) NewFence(signaled bool) (renderer.Fence, error) {
	return &Fence{object: b.newObject("fence"), Signaled: signaled}, nil
}

// Submit completes the work immediately, signaling the fence if any.
func (b *Backend) Submit(info renderer.SubmitInfo) error {
	cb := info.CommandBuffer.(*CommandBuffer)
	b.Log.add("submit command buffer %d wait %s at %#x signal %s fence %s",
		cb.ID, name(info.Wait), uint32(info.WaitStage), name(info.Signal), name(info.Fence))
	b.Submits = append(b.Submits, info)
	if f, ok := info.Fence.(*Fence); ok && f != nil {
		f.Signaled = true
	}
	return nil
}

func (b *Backend) NewCommandPool() (renderer.CommandPool, error) {
	return &CommandPool{object: b.newObject("command pool")}, nil
}

func (b *Backend) NewRenderPass(format renderer.SurfaceFormat) (renderer.RenderPass, error) {
	return &RenderPass{object: b.newObject("render pass"), Format: format}, nil
}

func (b *Backend) MemoryTypes() []renderer.MemoryType {
	return b.Types
}

func (b *Backend) NewBuffer(size uint64, usage renderer.BufferUsage) (renderer.Buffer, error) {
	bits := b.BufferTypeBits
	if bits == 0 {
		bits = ^uint32(0)
	}
	aligned := size
	if a := b.BufferAlignment; a > 1 {
		aligned = (size + a - 1) / a * a
	}
	return &Buffer{
		object: b.newObject("buffer"),
		Usage:  usage,
		requirements: renderer.MemoryRequirements{
			Size:      aligned,
			Alignment: b.BufferAlignment,
			TypeBits:  bits,
		},
	}, nil
}

func (b *Backend) AllocateMemory(size uint64, typeIndex int) (renderer.Memory, error) {
	if typeIndex < 0 || typeIndex >= len(b.Types) {
		return nil, errors.Errorf("memory type %d out of range", typeIndex)
	}
	return &Memory{object: b.newObject("memory"), TypeIndex: typeIndex, Data: make([]byte, size)}, nil
}

func (b *Backend) NewPipeline(desc renderer.PipelineDesc) (renderer.Pipeline, error) {
	return &Pipeline{object: b.newObject("pipeline"), Desc: desc}, nil
}

func (b *Backend) NewUniformSet(pipeline renderer.Pipeline, buffer renderer.Buffer, size uint64) (renderer.DescriptorSet, error) {
	return &DescriptorSet{object: b.newObject("descriptor set"), Buffer: buffer, Size: size}, nil
}

func (b *Backend) acquire(sc *Swapchain, timeout time.Duration, signal renderer.Semaphore) (uint32, renderer.SwapStatus, error) {
	b.Log.add("acquire swapchain %d signal %s", sc.ID, name(signal))
	if len(b.AcquireResults) > 0 {
		r := b.AcquireResults[0]
		b.AcquireResults = b.AcquireResults[1:]
		if r.Err != nil {
			return 0, renderer.SwapOptimal, r.Err
		}
		return sc.nextIndex(), r.Status, nil
	}
	return sc.nextIndex(), renderer.SwapOptimal, nil
}

func (b *Backend) present(sc *Swapchain, index uint32, wait renderer.Semaphore) (renderer.SwapStatus, error) {
	b.Log.add("present swapchain %d image %d wait %s", sc.ID, index, name(wait))
	if len(b.PresentResults) > 0 {
		r := b.PresentResults[0]
		b.PresentResults = b.PresentResults[1:]
		return r.Status, r.Err
	}
	return renderer.SwapOptimal, nil
}
