package vulkan

import (
	"time"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

type VulkanSemaphore struct {
	context *VulkanContext
	Handle  vk.Semaphore
}

func (vc *VulkanContext) NewSemaphore() (renderer.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var handle vk.Semaphore
	if err := resultError(vk.CreateSemaphore(vc.device(), &info, vc.Allocator, &handle), "vkCreateSemaphore"); err != nil {
		return nil, err
	}
	return &VulkanSemaphore{context: vc, Handle: handle}, nil
}

func (vs *VulkanSemaphore) Destroy() {
	if vs.Handle != vk.NullSemaphore {
		vk.DestroySemaphore(vs.context.device(), vs.Handle, vs.context.Allocator)
		vs.Handle = vk.NullSemaphore
	}
}

// semaphoreHandle unwraps an optional semaphore.
func semaphoreHandle(s renderer.Semaphore) vk.Semaphore {
	if vs, ok := s.(*VulkanSemaphore); ok && vs != nil {
		return vs.Handle
	}
	return vk.NullSemaphore
}

type VulkanFence struct {
	context    *VulkanContext
	Handle     vk.Fence
	IsSignaled bool
}

func (vc *VulkanContext) NewFence(createSignaled bool) (renderer.Fence, error) {
	fence := &VulkanFence{
		context: vc,
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if err := resultError(vk.CreateFence(vc.device(), &fenceCreateInfo, vc.Allocator, &handle), "vkCreateFence"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	fence.Handle = handle
	return fence, nil
}

func (vf *VulkanFence) Destroy() {
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(vf.context.device(), vf.Handle, vf.context.Allocator)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

func (vf *VulkanFence) Wait(timeout time.Duration) error {
	if vf.IsSignaled {
		// If already signaled, do not wait.
		return nil
	}
	result := vk.WaitForFences(vf.context.device(), 1, []vk.Fence{vf.Handle}, vk.True, timeoutNanos(timeout))
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
	case vk.ErrorDeviceLost:
		core.LogError("vk_fence_wait - VK_ERROR_DEVICE_LOST.")
	default:
		core.LogError("vk_fence_wait - %s", VulkanResultString(result))
	}
	return resultError(result, "vkWaitForFences")
}

func (vf *VulkanFence) Reset() error {
	if !vf.IsSignaled {
		return nil
	}
	if err := resultError(vk.ResetFences(vf.context.device(), 1, []vk.Fence{vf.Handle}), "vkResetFences"); err != nil {
		core.LogError(err.Error())
		return err
	}
	vf.IsSignaled = false
	return nil
}

func fenceHandle(f renderer.Fence) vk.Fence {
	if vf, ok := f.(*VulkanFence); ok && vf != nil {
		return vf.Handle
	}
	return vk.NullFence
}

// Submit queues one command buffer on the graphics queue.
func (vc *VulkanContext) Submit(info renderer.SubmitInfo) error {
	cb, ok := info.CommandBuffer.(*VulkanCommandBuffer)
	if !ok {
		return errors.Wrapf(errForeignObject, "submit %T", info.CommandBuffer)
	}

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	if wait := semaphoreHandle(info.Wait); wait != vk.NullSemaphore {
		submit.WaitSemaphoreCount = 1
		submit.PWaitSemaphores = []vk.Semaphore{wait}
		submit.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(info.WaitStage)}
	}
	if signal := semaphoreHandle(info.Signal); signal != vk.NullSemaphore {
		submit.SignalSemaphoreCount = 1
		submit.PSignalSemaphores = []vk.Semaphore{signal}
	}

	fence := fenceHandle(info.Fence)
	err := vc.locks.SafeQueueCall(uint32(vc.Device.GraphicsQueueIndex), func() error {
		return resultError(vk.QueueSubmit(vc.Device.GraphicsQueue, 1, []vk.SubmitInfo{submit}, fence), "vkQueueSubmit")
	})
	if err != nil {
		return err
	}
	if vf, ok := info.Fence.(*VulkanFence); ok && vf != nil {
		vf.IsSignaled = false
	}
	return nil
}
