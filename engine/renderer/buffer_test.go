package renderer_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
	"github.com/spaghettifunk/anima-frames/engine/renderer/rendertest"
)

type vertex struct {
	Position [3]float32
	Colour   [4]float32
}

func vertices(n int) []vertex {
	out := make([]vertex, n)
	for i := range out {
		f := float32(i)
		out[i] = vertex{
			Position: [3]float32{f, -f, f / 2},
			Colour:   [4]float32{1, f / 10, 0, 1},
		}
	}
	return out
}

func TestBufferRoundTrip(t *testing.T) {
	for n := 0; n <= 6; n++ {
		b := rendertest.New()
		items := vertices(n)

		buf, err := renderer.CreateBuffer(b, renderer.BufferUsageVertex, renderer.MemoryUpload, items)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if buf.Stride != 28 {
			t.Fatalf("stride = %d, want 28", buf.Stride)
		}
		if buf.Size() != uint64(28*n) {
			t.Errorf("n=%d: size = %d", n, buf.Size())
		}

		got, err := renderer.ReadBuffer[vertex](buf, n)
		if err != nil {
			t.Fatalf("n=%d: read: %v", n, err)
		}
		if len(got) != n {
			t.Fatalf("n=%d: read %d elements", n, len(got))
		}
		for i := range got {
			if got[i] != items[i] {
				t.Errorf("n=%d: element %d = %v, want %v", n, i, got[i], items[i])
			}
		}

		buf.Destroy()
		if b.Live("buffer") != 0 || b.Live("memory") != 0 {
			t.Errorf("n=%d: leaked buffer or memory", n)
		}
	}
}

func TestEmptyBufferHasRoom(t *testing.T) {
	b := rendertest.New()
	buf, err := renderer.EmptyBuffer[vertex](b, renderer.BufferUsageVertex, renderer.MemoryUpload, 0)
	if err != nil {
		t.Fatal(err)
	}
	mem := buf.Memory.(*rendertest.Memory)
	if mem.Size() < 28 {
		t.Errorf("memory size = %d, want at least one element", mem.Size())
	}
	if mem.TypeIndex != 1 {
		t.Errorf("memory type = %d, want the host visible one", mem.TypeIndex)
	}
	if bound := buf.Buffer.(*rendertest.Buffer).Memory; bound != mem {
		t.Error("memory not bound to the buffer")
	}
}

func TestBufferLayoutIsPacked(t *testing.T) {
	b := rendertest.New()
	buf, err := renderer.CreateBuffer(b, renderer.BufferUsageVertex, renderer.MemoryUpload, []vertex{
		{Position: [3]float32{1, 0, 0}, Colour: [4]float32{0, 0, 0, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	data := buf.Memory.(*rendertest.Memory).Data
	// 1.0f little endian at offset 0, alpha 1.0f at offset 24.
	if data[2] != 0x80 || data[3] != 0x3F {
		t.Errorf("position.x bytes = % x", data[0:4])
	}
	if data[26] != 0x80 || data[27] != 0x3F {
		t.Errorf("colour.a bytes = % x", data[24:28])
	}
}

func TestBufferErrors(t *testing.T) {
	t.Run("no memory type", func(t *testing.T) {
		b := rendertest.New()
		b.BufferTypeBits = 0x1
		_, err := renderer.CreateBuffer(b, renderer.BufferUsageVertex, renderer.MemoryUpload, vertices(3))
		if !errors.Is(err, renderer.ErrNoMemoryType) {
			t.Fatalf("err = %v", err)
		}
		if b.Live("buffer") != 0 {
			t.Error("buffer leaked")
		}
	})
	t.Run("variable size element", func(t *testing.T) {
		b := rendertest.New()
		_, err := renderer.CreateBuffer(b, renderer.BufferUsageVertex, renderer.MemoryUpload, [][]float32{{1}})
		if !errors.Is(err, renderer.ErrElementSize) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("too many elements", func(t *testing.T) {
		b := rendertest.New()
		buf, err := renderer.EmptyBuffer[vertex](b, renderer.BufferUsageVertex, renderer.MemoryUpload, 2)
		if err != nil {
			t.Fatal(err)
		}
		if err := renderer.FillBuffer(buf, vertices(3)); err == nil {
			t.Fatal("expected overflow error")
		}
	})
	t.Run("stride mismatch", func(t *testing.T) {
		b := rendertest.New()
		buf, err := renderer.EmptyBuffer[vertex](b, renderer.BufferUsageVertex, renderer.MemoryUpload, 2)
		if err != nil {
			t.Fatal(err)
		}
		if err := renderer.FillBuffer(buf, []float32{1, 2}); err == nil {
			t.Fatal("expected stride error")
		}
	})
}
