package renderer

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/math/f32"
)

// MaxPushConstantWords is the guaranteed minimum push constant space, 128
// bytes, in 32 bit words.
const MaxPushConstantWords = 32

// PushConstantWriter packs named fields into the word sequence a shader
// push constant block expects. Fields are written in call order with no
// padding. The first failure sticks and is reported by Words.
type PushConstantWriter struct {
	words []uint32
	err   error
}

func NewPushConstantWriter() *PushConstantWriter {
	return &PushConstantWriter{words: make([]uint32, 0, MaxPushConstantWords)}
}

func (w *PushConstantWriter) put(field string, values ...uint32) *PushConstantWriter {
	if w.err != nil {
		return w
	}
	if len(w.words)+len(values) > MaxPushConstantWords {
		w.err = errors.Wrapf(ErrPushConstantOverflow, "field %q needs %d words, %d left",
			field, len(values), MaxPushConstantWords-len(w.words))
		return w
	}
	w.words = append(w.words, values...)
	return w
}

func (w *PushConstantWriter) Float(field string, v float32) *PushConstantWriter {
	return w.put(field, math.Float32bits(v))
}

func (w *PushConstantWriter) Uint(field string, v uint32) *PushConstantWriter {
	return w.put(field, v)
}

func (w *PushConstantWriter) Vec2(field string, v f32.Vec2) *PushConstantWriter {
	return w.put(field, math.Float32bits(v[0]), math.Float32bits(v[1]))
}

func (w *PushConstantWriter) Vec3(field string, v f32.Vec3) *PushConstantWriter {
	return w.put(field, math.Float32bits(v[0]), math.Float32bits(v[1]), math.Float32bits(v[2]))
}

func (w *PushConstantWriter) Vec4(field string, v f32.Vec4) *PushConstantWriter {
	return w.put(field,
		math.Float32bits(v[0]), math.Float32bits(v[1]),
		math.Float32bits(v[2]), math.Float32bits(v[3]))
}

func (w *PushConstantWriter) Len() int {
	return len(w.words)
}

// Words returns a copy of the packed block.
func (w *PushConstantWriter) Words() ([]uint32, error) {
	if w.err != nil {
		return nil, w.err
	}
	out := make([]uint32, len(w.words))
	copy(out, w.words)
	return out, nil
}
