package renderer

import (
	"testing"

	"github.com/pkg/errors"
)

type nopCommandBuffer struct{}

func (nopCommandBuffer) Begin() error                                              { return nil }
func (nopCommandBuffer) End() error                                                { return nil }
func (nopCommandBuffer) SetViewport(Rect)                                          {}
func (nopCommandBuffer) SetScissor(Rect)                                           {}
func (nopCommandBuffer) BindPipeline(Pipeline)                                     {}
func (nopCommandBuffer) BindVertexBuffers(uint32, []Buffer, []uint64)              {}
func (nopCommandBuffer) BindDescriptorSets(Pipeline, uint32, []DescriptorSet)      {}
func (nopCommandBuffer) BeginRenderPass(RenderPass, Framebuffer, Rect, ClearColor) {}
func (nopCommandBuffer) PushConstants(Pipeline, ShaderStage, uint32, []uint32)     {}
func (nopCommandBuffer) Draw(Range, Range)                                         {}
func (nopCommandBuffer) EndRenderPass()                                            {}

var allCommandBufferStates = []CommandBufferState{
	COMMAND_BUFFER_STATE_READY,
	COMMAND_BUFFER_STATE_RECORDING,
	COMMAND_BUFFER_STATE_IN_RENDER_PASS,
	COMMAND_BUFFER_STATE_RECORDING_ENDED,
	COMMAND_BUFFER_STATE_SUBMITTED,
}

func TestCommandBufferTransitions(t *testing.T) {
	legal := map[[2]CommandBufferState]bool{
		{COMMAND_BUFFER_STATE_READY, COMMAND_BUFFER_STATE_RECORDING}:           true,
		{COMMAND_BUFFER_STATE_RECORDING, COMMAND_BUFFER_STATE_IN_RENDER_PASS}:  true,
		{COMMAND_BUFFER_STATE_RECORDING, COMMAND_BUFFER_STATE_RECORDING_ENDED}: true,
		{COMMAND_BUFFER_STATE_IN_RENDER_PASS, COMMAND_BUFFER_STATE_RECORDING}:  true,
		{COMMAND_BUFFER_STATE_RECORDING_ENDED, COMMAND_BUFFER_STATE_SUBMITTED}: true,
		{COMMAND_BUFFER_STATE_SUBMITTED, COMMAND_BUFFER_STATE_READY}:           true,
	}

	for _, from := range allCommandBufferStates {
		for _, to := range allCommandBufferStates {
			cb := &commandBufferTracker{Handle: nopCommandBuffer{}, State: from}
			err := cb.transition(to)
			if legal[[2]CommandBufferState{from, to}] {
				if err != nil {
					t.Errorf("%s -> %s rejected: %v", from, to, err)
				}
				if cb.State != to {
					t.Errorf("%s -> %s left state %s", from, to, cb.State)
				}
				continue
			}
			if !errors.Is(err, ErrCommandBufferState) {
				t.Errorf("%s -> %s accepted", from, to)
			}
			if cb.State != from {
				t.Errorf("rejected %s -> %s changed state to %s", from, to, cb.State)
			}
		}
	}
}

func TestCommandBufferLifecycle(t *testing.T) {
	cb := &commandBufferTracker{Handle: nopCommandBuffer{}}

	if err := cb.requireRecording(true); err == nil {
		t.Error("draw accepted outside a render pass")
	}
	if err := cb.EndRenderPass(); err == nil {
		t.Error("end render pass accepted while ready")
	}

	steps := []func() error{
		cb.Begin,
		func() error { return cb.BeginRenderPass(nil, nil, Rect{}, ClearColor{}) },
		func() error { return cb.requireRecording(true) },
		cb.EndRenderPass,
		cb.End,
		cb.UpdateSubmitted,
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if cb.State != COMMAND_BUFFER_STATE_SUBMITTED {
		t.Fatalf("state = %s", cb.State)
	}
	if err := cb.Begin(); err == nil {
		t.Error("begin accepted on a submitted buffer")
	}

	cb.Reset()
	if err := cb.Begin(); err != nil {
		t.Errorf("begin after reset: %v", err)
	}
}
