package renderer

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
)

// BoundBuffer is a buffer together with the memory bound to it at offset 0.
type BoundBuffer struct {
	Buffer Buffer
	Memory Memory
	// Bytes per element.
	Stride uint64
	// Elements the buffer was sized for.
	Count int
}

// Size is the usable size in bytes, stride times count.
func (b *BoundBuffer) Size() uint64 {
	return b.Stride * uint64(b.Count)
}

func (b *BoundBuffer) Destroy() {
	if b.Buffer != nil {
		b.Buffer.Destroy()
		b.Buffer = nil
	}
	if b.Memory != nil {
		b.Memory.Destroy()
		b.Memory = nil
	}
}

// stride returns the packed size of one T.
func stride[T any]() (uint64, error) {
	var zero T
	n := binary.Size(zero)
	if n <= 0 {
		return 0, errors.Wrapf(ErrElementSize, "%T", zero)
	}
	return uint64(n), nil
}

// EmptyBuffer creates a buffer able to hold count elements of T, backed by
// memory with the requested properties. An empty buffer still gets room for
// one element so the handle is valid.
func EmptyBuffer[T any](device MemoryDevice, usage BufferUsage, properties MemoryProperty, count int) (*BoundBuffer, error) {
	elem, err := stride[T]()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		count = 0
	}
	size := elem * uint64(count)
	if size == 0 {
		size = elem
	}

	buffer, err := device.NewBuffer(size, usage)
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}

	req := buffer.Requirements()
	typeIndex, err := FindMemoryType(device.MemoryTypes(), req.TypeBits, properties)
	if err != nil {
		buffer.Destroy()
		return nil, err
	}

	memory, err := device.AllocateMemory(req.Size, typeIndex)
	if err != nil {
		buffer.Destroy()
		return nil, errors.Wrap(err, "allocate buffer memory")
	}

	if err := buffer.Bind(memory, 0); err != nil {
		buffer.Destroy()
		memory.Destroy()
		return nil, errors.Wrap(err, "bind buffer memory")
	}

	core.LogDebug("buffer created: %d x %d bytes, memory type %d (%d bytes)", count, elem, typeIndex, req.Size)

	return &BoundBuffer{
		Buffer: buffer,
		Memory: memory,
		Stride: elem,
		Count:  count,
	}, nil
}

// FillBuffer copies items into the buffer memory, packed little endian with
// no padding between fields. The memory must be host visible.
func FillBuffer[T any](b *BoundBuffer, items []T) error {
	elem, err := stride[T]()
	if err != nil {
		return err
	}
	if elem != b.Stride {
		return errors.Errorf("element stride %d does not match buffer stride %d", elem, b.Stride)
	}
	if len(items) > b.Count {
		return errors.Errorf("%d elements do not fit a buffer of %d", len(items), b.Count)
	}
	if len(items) == 0 {
		return nil
	}

	data, err := binary.Append(nil, binary.LittleEndian, items)
	if err != nil {
		return errors.Wrap(err, "encode buffer data")
	}

	mapped, err := b.Memory.Map(0, uint64(len(data)))
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	copy(mapped, data)
	b.Memory.Unmap()
	return nil
}

// CreateBuffer creates a buffer sized for items and fills it.
func CreateBuffer[T any](device MemoryDevice, usage BufferUsage, properties MemoryProperty, items []T) (*BoundBuffer, error) {
	b, err := EmptyBuffer[T](device, usage, properties, len(items))
	if err != nil {
		return nil, err
	}
	if err := FillBuffer(b, items); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

// ReadBuffer decodes the first count elements back from host visible memory.
func ReadBuffer[T any](b *BoundBuffer, count int) ([]T, error) {
	if count > b.Count {
		return nil, errors.Errorf("cannot read %d elements from a buffer of %d", count, b.Count)
	}
	out := make([]T, count)
	if count == 0 {
		return out, nil
	}

	size := b.Stride * uint64(count)
	mapped, err := b.Memory.Map(0, size)
	if err != nil {
		return nil, errors.Wrap(err, "map buffer memory")
	}
	defer b.Memory.Unmap()

	if err := binary.Read(bytes.NewReader(mapped[:size]), binary.LittleEndian, out); err != nil {
		return nil, errors.Wrap(err, "decode buffer data")
	}
	return out, nil
}
