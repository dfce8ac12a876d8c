package rendertest

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// object is the identity shared by every fake.
type object struct {
	backend *Backend
	kind    string
	ID      int
	// Destroyed counts Destroy calls. More than one is a double free.
	Destroyed int
}

func (b *Backend) newObject(kind string) object {
	return object{backend: b, kind: kind, ID: b.create(kind)}
}

func (o *object) Destroy() {
	o.Destroyed++
	o.backend.destroy(o.kind, o.ID)
}

func (o *object) String() string {
	return fmt.Sprintf("%s %d", o.kind, o.ID)
}

// name renders an optional object for the log.
func name(v interface{}) string {
	if s, ok := v.(fmt.Stringer); ok && s != nil {
		return s.String()
	}
	return "none"
}

type Image struct {
	Index  int
	extent renderer.Extent
}

func (i *Image) Extent() renderer.Extent {
	return i.extent
}

type ImageView struct {
	object
	Image *Image
}

type Framebuffer struct {
	object
	View   *ImageView
	Extent renderer.Extent
}

type RenderPass struct {
	object
	Format renderer.SurfaceFormat
}

type Semaphore struct {
	object
}

type Pipeline struct {
	object
	Desc renderer.PipelineDesc
}

type DescriptorSet struct {
	object
	Buffer renderer.Buffer
	Size   uint64
}

// Fence is signaled by Submit. Waiting on an unsignaled fence would block
// forever on a real device and reports a timeout instead.
type Fence struct {
	object
	Signaled bool
}

func (f *Fence) Wait(timeout time.Duration) error {
	f.backend.Log.add("wait %s", f)
	if !f.Signaled {
		return errors.Wrapf(renderer.ErrTimeout, "%s never signaled", f)
	}
	return nil
}

func (f *Fence) Reset() error {
	f.backend.Log.add("reset %s", f)
	f.Signaled = false
	return nil
}

type Swapchain struct {
	backend     *Backend
	ID          int
	config      renderer.SwapchainConfig
	images      []*Image
	framebuffer *Framebuffer
	next        uint32
	Destroyed   int
}

func (s *Swapchain) Destroy() {
	s.Destroyed++
	s.backend.destroy("swapchain", s.ID)
}

func (s *Swapchain) Config() renderer.SwapchainConfig {
	return s.config
}

func (s *Swapchain) Backbuffer() renderer.Backbuffer {
	if s.framebuffer != nil {
		return renderer.Backbuffer{Framebuffer: s.framebuffer}
	}
	images := make([]renderer.Image, len(s.images))
	for i, img := range s.images {
		images[i] = img
	}
	return renderer.Backbuffer{Images: images}
}

func (s *Swapchain) nextIndex() uint32 {
	count := uint32(len(s.images))
	if count == 0 {
		return 0
	}
	idx := s.next % count
	s.next++
	return idx
}

func (s *Swapchain) Acquire(timeout time.Duration, signal renderer.Semaphore, fence renderer.Fence) (uint32, renderer.SwapStatus, error) {
	return s.backend.acquire(s, timeout, signal)
}

func (s *Swapchain) Present(index uint32, wait renderer.Semaphore) (renderer.SwapStatus, error) {
	return s.backend.present(s, index, wait)
}

type CommandPool struct {
	object
	Buffers []*CommandBuffer
}

func (p *CommandPool) Reset() error {
	p.backend.Log.add("reset %s", p)
	for _, cb := range p.Buffers {
		cb.Resets++
	}
	return nil
}

func (p *CommandPool) Allocate() (renderer.CommandBuffer, error) {
	p.backend.ids["command buffer"]++
	cb := &CommandBuffer{log: p.backend.Log, ID: p.backend.ids["command buffer"]}
	p.backend.Log.add("allocate command buffer %d", cb.ID)
	p.Buffers = append(p.Buffers, cb)
	return cb, nil
}

// CommandBuffer keeps its own command list besides the shared log.
type CommandBuffer struct {
	log      *Log
	ID       int
	Commands []string
	Resets   int
}

func (c *CommandBuffer) String() string {
	return fmt.Sprintf("command buffer %d", c.ID)
}

func (c *CommandBuffer) record(format string, args ...interface{}) {
	cmd := fmt.Sprintf(format, args...)
	c.Commands = append(c.Commands, cmd)
	c.log.add("cmd %d %s", c.ID, cmd)
}

func (c *CommandBuffer) Begin() error {
	c.record("begin")
	return nil
}

func (c *CommandBuffer) End() error {
	c.record("end")
	return nil
}

func (c *CommandBuffer) SetViewport(area renderer.Rect) {
	c.record("viewport %dx%d", area.Extent.Width, area.Extent.Height)
}

func (c *CommandBuffer) SetScissor(area renderer.Rect) {
	c.record("scissor %dx%d", area.Extent.Width, area.Extent.Height)
}

func (c *CommandBuffer) BindPipeline(pipeline renderer.Pipeline) {
	c.record("bind %s", name(pipeline))
}

func (c *CommandBuffer) BindVertexBuffers(first uint32, buffers []renderer.Buffer, offsets []uint64) {
	c.record("bind vertex buffers %d count %d", first, len(buffers))
}

func (c *CommandBuffer) BindDescriptorSets(pipeline renderer.Pipeline, first uint32, sets []renderer.DescriptorSet) {
	c.record("bind descriptor sets %d count %d", first, len(sets))
}

func (c *CommandBuffer) BeginRenderPass(pass renderer.RenderPass, framebuffer renderer.Framebuffer, area renderer.Rect, clear renderer.ClearColor) {
	c.record("begin render pass %s", name(framebuffer))
}

func (c *CommandBuffer) PushConstants(pipeline renderer.Pipeline, stages renderer.ShaderStage, offset uint32, words []uint32) {
	c.record("push constants %#x offset %d words %d", uint32(stages), offset, len(words))
}

func (c *CommandBuffer) Draw(vertices renderer.Range, instances renderer.Range) {
	c.record("draw vertices %d+%d instances %d+%d", vertices.First, vertices.Count, instances.First, instances.Count)
}

func (c *CommandBuffer) EndRenderPass() {
	c.record("end render pass")
}

type Buffer struct {
	object
	Usage        renderer.BufferUsage
	requirements renderer.MemoryRequirements
	Memory       *Memory
	Offset       uint64
}

func (b *Buffer) Requirements() renderer.MemoryRequirements {
	return b.requirements
}

func (b *Buffer) Bind(memory renderer.Memory, offset uint64) error {
	if b.Memory != nil {
		return errors.Errorf("%s already bound", b)
	}
	b.Memory = memory.(*Memory)
	b.Offset = offset
	return nil
}

// Memory is plain host memory.
type Memory struct {
	object
	TypeIndex int
	Data      []byte
	mapped    bool
}

func (m *Memory) Size() uint64 {
	return uint64(len(m.Data))
}

func (m *Memory) Map(offset, size uint64) ([]byte, error) {
	if m.mapped {
		return nil, errors.Errorf("%s already mapped", m)
	}
	if offset+size > uint64(len(m.Data)) {
		return nil, errors.Errorf("map [%d, %d) outside %d bytes", offset, offset+size, len(m.Data))
	}
	m.mapped = true
	return m.Data[offset : offset+size], nil
}

func (m *Memory) Unmap() {
	m.mapped = false
}
