package renderer_test

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/image/math/f32"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

func TestPushConstantPacking(t *testing.T) {
	words, err := renderer.NewPushConstantWriter().
		Vec4("tint", f32.Vec4{1, 0, 0, 1}).
		Vec3("position", f32.Vec3{-1, -1, 0}).
		Words()
	if err != nil {
		t.Fatal(err)
	}

	want := []float32{1, 0, 0, 1, -1, -1, 0}
	if len(words) != len(want) {
		t.Fatalf("got %d words, want %d", len(words), len(want))
	}
	for i, w := range want {
		if words[i] != math.Float32bits(w) {
			t.Errorf("word %d = %#x, want %#x", i, words[i], math.Float32bits(w))
		}
	}
}

func TestPushConstantOverflow(t *testing.T) {
	w := renderer.NewPushConstantWriter()
	for i := 0; i < 8; i++ {
		w.Vec4("row", f32.Vec4{})
	}
	if w.Len() != renderer.MaxPushConstantWords {
		t.Fatalf("len = %d", w.Len())
	}
	if _, err := w.Words(); err != nil {
		t.Fatalf("full block rejected: %v", err)
	}

	w.Float("extra", 1).Uint("more", 2)
	if w.Len() != renderer.MaxPushConstantWords {
		t.Errorf("len grew past the limit: %d", w.Len())
	}
	if _, err := w.Words(); !errors.Is(err, renderer.ErrPushConstantOverflow) {
		t.Errorf("err = %v, want ErrPushConstantOverflow", err)
	}
}

func TestPushConstantWordsIsCopy(t *testing.T) {
	w := renderer.NewPushConstantWriter().Uint("a", 7)
	words, _ := w.Words()
	words[0] = 0
	again, _ := w.Words()
	if again[0] != 7 {
		t.Error("Words exposes internal storage")
	}
}
