package renderer

import "github.com/pkg/errors"

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
)

func (s CommandBufferState) String() string {
	switch s {
	case COMMAND_BUFFER_STATE_READY:
		return "ready"
	case COMMAND_BUFFER_STATE_RECORDING:
		return "recording"
	case COMMAND_BUFFER_STATE_IN_RENDER_PASS:
		return "in render pass"
	case COMMAND_BUFFER_STATE_RECORDING_ENDED:
		return "recording ended"
	case COMMAND_BUFFER_STATE_SUBMITTED:
		return "submitted"
	}
	return "unknown"
}

// Legal transitions. Submitted buffers only return to ready through a pool
// reset.
var commandBufferTransitions = map[CommandBufferState][]CommandBufferState{
	COMMAND_BUFFER_STATE_READY:           {COMMAND_BUFFER_STATE_RECORDING},
	COMMAND_BUFFER_STATE_RECORDING:       {COMMAND_BUFFER_STATE_IN_RENDER_PASS, COMMAND_BUFFER_STATE_RECORDING_ENDED},
	COMMAND_BUFFER_STATE_IN_RENDER_PASS:  {COMMAND_BUFFER_STATE_RECORDING},
	COMMAND_BUFFER_STATE_RECORDING_ENDED: {COMMAND_BUFFER_STATE_SUBMITTED},
	COMMAND_BUFFER_STATE_SUBMITTED:       {COMMAND_BUFFER_STATE_READY},
}

// commandBufferTracker wraps a command buffer with its lifecycle state.
type commandBufferTracker struct {
	Handle CommandBuffer
	State  CommandBufferState
}

func (t *commandBufferTracker) transition(to CommandBufferState) error {
	for _, next := range commandBufferTransitions[t.State] {
		if next == to {
			t.State = to
			return nil
		}
	}
	return errors.Wrapf(ErrCommandBufferState, "%s -> %s", t.State, to)
}

func (t *commandBufferTracker) Begin() error {
	if err := t.transition(COMMAND_BUFFER_STATE_RECORDING); err != nil {
		return err
	}
	if err := t.Handle.Begin(); err != nil {
		t.State = COMMAND_BUFFER_STATE_READY
		return errors.Wrap(err, "begin command buffer")
	}
	return nil
}

func (t *commandBufferTracker) BeginRenderPass(pass RenderPass, framebuffer Framebuffer, area Rect, clear ClearColor) error {
	if err := t.transition(COMMAND_BUFFER_STATE_IN_RENDER_PASS); err != nil {
		return err
	}
	t.Handle.BeginRenderPass(pass, framebuffer, area, clear)
	return nil
}

func (t *commandBufferTracker) EndRenderPass() error {
	if t.State != COMMAND_BUFFER_STATE_IN_RENDER_PASS {
		return errors.Wrapf(ErrCommandBufferState, "end render pass while %s", t.State)
	}
	t.Handle.EndRenderPass()
	return t.transition(COMMAND_BUFFER_STATE_RECORDING)
}

func (t *commandBufferTracker) End() error {
	if err := t.transition(COMMAND_BUFFER_STATE_RECORDING_ENDED); err != nil {
		return err
	}
	if err := t.Handle.End(); err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	return nil
}

func (t *commandBufferTracker) UpdateSubmitted() error {
	return t.transition(COMMAND_BUFFER_STATE_SUBMITTED)
}

func (t *commandBufferTracker) Reset() {
	t.State = COMMAND_BUFFER_STATE_READY
}

// requireRecording guards commands that are only valid while recording.
func (t *commandBufferTracker) requireRecording(inRenderPass bool) error {
	want := COMMAND_BUFFER_STATE_RECORDING
	if inRenderPass {
		want = COMMAND_BUFFER_STATE_IN_RENDER_PASS
	}
	if t.State != want {
		return errors.Wrapf(ErrCommandBufferState, "command needs %s, buffer is %s", want, t.State)
	}
	return nil
}
