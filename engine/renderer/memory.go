package renderer

import (
	"fmt"

	"github.com/pkg/errors"
)

type MemoryProperty uint32

// Values match the Vulkan memory property bits.
const (
	MemoryDeviceLocal     MemoryProperty = 0x00000001
	MemoryHostVisible     MemoryProperty = 0x00000002
	MemoryHostCoherent    MemoryProperty = 0x00000004
	MemoryHostCached      MemoryProperty = 0x00000008
	MemoryLazilyAllocated MemoryProperty = 0x00000010
)

// MemoryUpload is what CPU written buffers ask for.
const MemoryUpload = MemoryHostVisible | MemoryHostCoherent

func (p MemoryProperty) Has(flags MemoryProperty) bool {
	return p&flags == flags
}

type MemoryType struct {
	Properties MemoryProperty
	HeapIndex  uint32
}

type MemoryRequirements struct {
	Size      uint64
	Alignment uint64
	// Bit i is set when memory type i may back the resource.
	TypeBits uint32
}

type BufferUsage uint32

// Values match the Vulkan buffer usage bits.
const (
	BufferUsageTransferSrc BufferUsage = 0x00000001
	BufferUsageTransferDst BufferUsage = 0x00000002
	BufferUsageUniform     BufferUsage = 0x00000010
	BufferUsageStorage     BufferUsage = 0x00000020
	BufferUsageIndex       BufferUsage = 0x00000040
	BufferUsageVertex      BufferUsage = 0x00000080
)

type Buffer interface {
	Destroyer
	Requirements() MemoryRequirements
	// Bind attaches memory at offset. A buffer is bound at most once.
	Bind(memory Memory, offset uint64) error
}

type Memory interface {
	// Destroy frees the allocation.
	Destroyer
	Size() uint64
	// Map exposes size bytes starting at offset to the CPU until Unmap.
	Map(offset, size uint64) ([]byte, error)
	Unmap()
}

// FindMemoryType returns the index of the first memory type allowed by
// typeBits whose properties include every requested flag.
func FindMemoryType(types []MemoryType, typeBits uint32, properties MemoryProperty) (int, error) {
	for i, t := range types {
		if i >= 32 {
			break
		}
		if typeBits&(1<<uint(i)) != 0 && t.Properties.Has(properties) {
			return i, nil
		}
	}
	return -1, errors.Wrap(ErrNoMemoryType, fmt.Sprintf("mask %#x, properties %#x", typeBits, uint32(properties)))
}
