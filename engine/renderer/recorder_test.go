package renderer_test

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
	"github.com/spaghettifunk/anima-frames/engine/renderer/rendertest"
)

type recorderFixture struct {
	backend  *rendertest.Backend
	recorder *renderer.Recorder
	target   renderer.FrameTarget
}

func newRecorderFixture(t *testing.T) *recorderFixture {
	t.Helper()
	b := rendertest.New()
	pass, _ := b.NewRenderPass(renderer.DefaultSurfaceFormat)
	view, _ := b.NewImageView(&rendertest.Image{}, renderer.DefaultSurfaceFormat)
	extent := renderer.Extent{Width: 640, Height: 480}
	fb, _ := b.NewFramebuffer(pass, view, extent)

	rec, err := renderer.NewRecorder(b, renderer.ClearColor{0, 0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	return &recorderFixture{
		backend:  b,
		recorder: rec,
		target:   renderer.FrameTarget{RenderPass: pass, Framebuffer: fb, Extent: extent},
	}
}

func TestRecorderCommandOrder(t *testing.T) {
	f := newRecorderFixture(t)
	b := f.backend

	pipeline, _ := b.NewPipeline(renderer.PipelineDesc{PushConstantWords: 7, Uniform: true})
	buf, err := renderer.CreateBuffer(b, renderer.BufferUsageVertex, renderer.MemoryUpload, vertices(6))
	if err != nil {
		t.Fatal(err)
	}
	set, _ := b.NewUniformSet(pipeline, buf.Buffer, 64)

	push := make([]uint32, 7)
	scene := &renderer.FrameScene{
		Pipeline:       pipeline,
		VertexBuffers:  []renderer.VertexBufferBinding{{Binding: 0, Buffer: buf.Buffer}},
		DescriptorSets: []renderer.DescriptorSet{set},
		Draws: []renderer.DrawCall{
			{Vertices: renderer.Range{Count: 6}, PushConstants: push},
			{Vertices: renderer.Range{Count: 6}, Instances: renderer.Range{Count: 2}, PushConstants: push},
			{Vertices: renderer.Range{First: 3, Count: 3}},
		},
	}

	handle, err := f.recorder.Record(f.target, scene)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"begin",
		"viewport 640x480",
		"scissor 640x480",
		"bind pipeline 1",
		"bind vertex buffers 0 count 1",
		"bind descriptor sets 0 count 1",
		"begin render pass framebuffer 1",
		"push constants 0x1 offset 0 words 7",
		"draw vertices 0+6 instances 0+1",
		"push constants 0x1 offset 0 words 7",
		"draw vertices 0+6 instances 0+2",
		"draw vertices 3+3 instances 0+1",
		"end render pass",
		"end",
	}
	got := handle.(*rendertest.CommandBuffer).Commands
	if !reflect.DeepEqual(got, want) {
		t.Errorf("commands:\n got %q\nwant %q", got, want)
	}
	if s := f.recorder.State(); s != renderer.COMMAND_BUFFER_STATE_RECORDING_ENDED {
		t.Errorf("state = %s", s)
	}
}

func TestRecorderClearOnly(t *testing.T) {
	f := newRecorderFixture(t)

	handle, err := f.recorder.Record(f.target, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"begin",
		"viewport 640x480",
		"scissor 640x480",
		"begin render pass framebuffer 1",
		"end render pass",
		"end",
	}
	if got := handle.(*rendertest.CommandBuffer).Commands; !reflect.DeepEqual(got, want) {
		t.Errorf("commands:\n got %q\nwant %q", got, want)
	}
}

func TestRecorderIllegalTransitions(t *testing.T) {
	f := newRecorderFixture(t)

	if err := f.recorder.MarkSubmitted(); !errors.Is(err, renderer.ErrCommandBufferState) {
		t.Errorf("submit before record: %v", err)
	}

	if _, err := f.recorder.Record(f.target, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := f.recorder.Record(f.target, nil); !errors.Is(err, renderer.ErrCommandBufferState) {
		t.Errorf("record twice: %v", err)
	}
	if err := f.recorder.MarkSubmitted(); err != nil {
		t.Fatal(err)
	}
	if err := f.recorder.MarkSubmitted(); !errors.Is(err, renderer.ErrCommandBufferState) {
		t.Errorf("submit twice: %v", err)
	}
	if _, err := f.recorder.Record(f.target, nil); !errors.Is(err, renderer.ErrCommandBufferState) {
		t.Errorf("record while submitted: %v", err)
	}

	if err := f.recorder.Reset(); err != nil {
		t.Fatal(err)
	}
	if s := f.recorder.State(); s != renderer.COMMAND_BUFFER_STATE_READY {
		t.Errorf("state after reset = %s", s)
	}
	if _, err := f.recorder.Record(f.target, nil); err != nil {
		t.Errorf("record after reset: %v", err)
	}
}

func TestRecorderPushConstantOverflow(t *testing.T) {
	f := newRecorderFixture(t)
	pipeline, _ := f.backend.NewPipeline(renderer.PipelineDesc{})

	_, err := f.recorder.Record(f.target, &renderer.FrameScene{
		Pipeline: pipeline,
		Draws: []renderer.DrawCall{{
			Vertices:      renderer.Range{Count: 3},
			PushConstants: make([]uint32, renderer.MaxPushConstantWords+1),
		}},
	})
	if !errors.Is(err, renderer.ErrPushConstantOverflow) {
		t.Errorf("err = %v", err)
	}
}
