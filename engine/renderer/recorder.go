package renderer

import (
	"github.com/pkg/errors"
)

type VertexBufferBinding struct {
	Binding uint32
	Buffer  Buffer
	Offset  uint64
}

type DrawCall struct {
	Vertices Range
	// A zero count draws a single instance.
	Instances Range
	// Packed vertex stage push constants, nil for none.
	PushConstants []uint32
}

// FrameScene is everything the recorder draws in one frame.
type FrameScene struct {
	// A nil pipeline records a clear-only frame.
	Pipeline       Pipeline
	VertexBuffers  []VertexBufferBinding
	DescriptorSets []DescriptorSet
	Draws          []DrawCall
}

// FrameTarget is where a frame is drawn.
type FrameTarget struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Extent      Extent
}

// Recorder owns the command pool and records one command buffer per frame.
type Recorder struct {
	pool    CommandPool
	current *commandBufferTracker
	clear   ClearColor
}

func NewRecorder(device CommandDevice, clear ClearColor) (*Recorder, error) {
	pool, err := device.NewCommandPool()
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	return &Recorder{
		pool:  pool,
		clear: clear,
	}, nil
}

// Reset resets the command pool. The submission that used the previous
// buffer must have completed.
func (r *Recorder) Reset() error {
	if err := r.pool.Reset(); err != nil {
		return errors.Wrap(err, "reset command pool")
	}
	if r.current != nil {
		r.current.Reset()
	}
	return nil
}

// State reports the state of the buffer recorded last. A recorder that has
// not recorded anything yet is ready.
func (r *Recorder) State() CommandBufferState {
	if r.current == nil {
		return COMMAND_BUFFER_STATE_READY
	}
	return r.current.State
}

func (r *Recorder) SetClearColor(c ClearColor) {
	r.clear = c
}

// Record fills a command buffer for target with scene.
func (r *Recorder) Record(target FrameTarget, scene *FrameScene) (CommandBuffer, error) {
	if r.current != nil && r.current.State != COMMAND_BUFFER_STATE_READY {
		return nil, errors.Wrapf(ErrCommandBufferState, "record while previous buffer is %s", r.current.State)
	}

	handle, err := r.pool.Allocate()
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffer")
	}
	cb := &commandBufferTracker{Handle: handle, State: COMMAND_BUFFER_STATE_READY}
	r.current = cb

	if err := cb.Begin(); err != nil {
		return nil, err
	}

	area := Rect{Extent: target.Extent}
	handle.SetViewport(area)
	handle.SetScissor(area)

	if scene != nil && scene.Pipeline != nil {
		handle.BindPipeline(scene.Pipeline)
		for _, vb := range scene.VertexBuffers {
			handle.BindVertexBuffers(vb.Binding, []Buffer{vb.Buffer}, []uint64{vb.Offset})
		}
		if len(scene.DescriptorSets) > 0 {
			handle.BindDescriptorSets(scene.Pipeline, 0, scene.DescriptorSets)
		}
	}

	if err := cb.BeginRenderPass(target.RenderPass, target.Framebuffer, area, r.clear); err != nil {
		return nil, err
	}

	if scene != nil && scene.Pipeline != nil {
		for i, draw := range scene.Draws {
			if err := cb.requireRecording(true); err != nil {
				return nil, err
			}
			if len(draw.PushConstants) > MaxPushConstantWords {
				return nil, errors.Wrapf(ErrPushConstantOverflow, "draw %d pushes %d words", i, len(draw.PushConstants))
			}
			if len(draw.PushConstants) > 0 {
				handle.PushConstants(scene.Pipeline, ShaderStageVertex, 0, draw.PushConstants)
			}
			instances := draw.Instances
			if instances.Count == 0 {
				instances.Count = 1
			}
			handle.Draw(draw.Vertices, instances)
		}
	}

	if err := cb.EndRenderPass(); err != nil {
		return nil, err
	}
	if err := cb.End(); err != nil {
		return nil, err
	}
	return handle, nil
}

// MarkSubmitted moves the recorded buffer to the submitted state.
func (r *Recorder) MarkSubmitted() error {
	if r.current == nil {
		return errors.Wrap(ErrCommandBufferState, "nothing recorded")
	}
	return r.current.UpdateSubmitted()
}

func (r *Recorder) Destroy() {
	if r.pool != nil {
		r.pool.Destroy()
		r.pool = nil
	}
	r.current = nil
}
