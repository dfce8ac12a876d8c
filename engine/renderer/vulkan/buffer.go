package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// MemoryTypes lists the device memory types in index order. The renderer
// property bits share their values with VkMemoryPropertyFlagBits.
func (vc *VulkanContext) MemoryTypes() []renderer.MemoryType {
	props := vc.Device.Memory
	types := make([]renderer.MemoryType, 0, props.MemoryTypeCount)
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		props.MemoryTypes[i].Deref()
		types = append(types, renderer.MemoryType{
			Properties: renderer.MemoryProperty(props.MemoryTypes[i].PropertyFlags),
			HeapIndex:  props.MemoryTypes[i].HeapIndex,
		})
	}
	return types
}

type VulkanBuffer struct {
	context      *VulkanContext
	Handle       vk.Buffer
	Usage        renderer.BufferUsage
	requirements renderer.MemoryRequirements
	bound        bool
}

func (vc *VulkanContext) NewBuffer(size uint64, usage renderer.BufferUsage) (renderer.Buffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if err := resultError(vk.CreateBuffer(vc.device(), &bufferInfo, vc.Allocator, &handle), "vkCreateBuffer"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(vc.device(), handle, &memReqs)
	memReqs.Deref()

	return &VulkanBuffer{
		context: vc,
		Handle:  handle,
		Usage:   usage,
		requirements: renderer.MemoryRequirements{
			Size:      uint64(memReqs.Size),
			Alignment: uint64(memReqs.Alignment),
			TypeBits:  memReqs.MemoryTypeBits,
		},
	}, nil
}

func (vb *VulkanBuffer) Requirements() renderer.MemoryRequirements {
	return vb.requirements
}

func (vb *VulkanBuffer) Bind(memory renderer.Memory, offset uint64) error {
	mem, ok := memory.(*VulkanMemory)
	if !ok {
		return errors.Wrapf(errForeignObject, "bind buffer: memory %T", memory)
	}
	if vb.bound {
		return errors.New("buffer memory is already bound")
	}
	if err := resultError(vk.BindBufferMemory(vb.context.device(), vb.Handle, mem.Handle, vk.DeviceSize(offset)), "vkBindBufferMemory"); err != nil {
		return err
	}
	vb.bound = true
	return nil
}

func (vb *VulkanBuffer) Destroy() {
	if vb.Handle != vk.NullBuffer {
		vk.DestroyBuffer(vb.context.device(), vb.Handle, vb.context.Allocator)
		vb.Handle = vk.NullBuffer
	}
}

type VulkanMemory struct {
	context   *VulkanContext
	Handle    vk.DeviceMemory
	TypeIndex int
	size      uint64
	mapped    bool
}

func (vc *VulkanContext) AllocateMemory(size uint64, typeIndex int) (renderer.Memory, error) {
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: uint32(typeIndex),
	}

	var handle vk.DeviceMemory
	err := vc.locks.SafeCall(MemoryManagement, func() error {
		return resultError(vk.AllocateMemory(vc.device(), &allocInfo, vc.Allocator, &handle), "vkAllocateMemory")
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return &VulkanMemory{context: vc, Handle: handle, TypeIndex: typeIndex, size: size}, nil
}

func (vm *VulkanMemory) Size() uint64 {
	return vm.size
}

// Map exposes [offset, offset+size) as a byte slice valid until Unmap.
func (vm *VulkanMemory) Map(offset, size uint64) ([]byte, error) {
	if vm.mapped {
		return nil, errors.New("memory is already mapped")
	}
	if offset+size > vm.size {
		return nil, errors.Errorf("map range %d+%d exceeds allocation of %d bytes", offset, size, vm.size)
	}
	if size == 0 {
		return []byte{}, nil
	}

	var data unsafe.Pointer
	if err := resultError(vk.MapMemory(vm.context.device(), vm.Handle, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &data), "vkMapMemory"); err != nil {
		return nil, err
	}
	vm.mapped = true
	return unsafe.Slice((*byte)(data), size), nil
}

func (vm *VulkanMemory) Unmap() {
	if !vm.mapped {
		return
	}
	vk.UnmapMemory(vm.context.device(), vm.Handle)
	vm.mapped = false
}

func (vm *VulkanMemory) Destroy() {
	if vm.Handle == vk.NullDeviceMemory {
		return
	}
	vm.Unmap()
	vm.context.locks.SafeCall(MemoryManagement, func() error {
		vk.FreeMemory(vm.context.device(), vm.Handle, vm.context.Allocator)
		return nil
	})
	vm.Handle = vk.NullDeviceMemory
}
