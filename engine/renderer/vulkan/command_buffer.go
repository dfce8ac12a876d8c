package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// VulkanCommandPool hands out primary command buffers on the graphics
// queue family. Reset recycles every buffer allocated so far.
type VulkanCommandPool struct {
	context *VulkanContext
	Handle  vk.CommandPool

	buffers []*VulkanCommandBuffer
	next    int
}

func (vc *VulkanContext) NewCommandPool() (renderer.CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(vc.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}

	var handle vk.CommandPool
	err := vc.locks.SafeCall(CommandPoolManagement, func() error {
		return resultError(vk.CreateCommandPool(vc.device(), &poolCreateInfo, vc.Allocator, &handle), "vkCreateCommandPool")
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("Graphics command pool created.")
	return &VulkanCommandPool{context: vc, Handle: handle}, nil
}

func (vp *VulkanCommandPool) Reset() error {
	err := vp.context.locks.SafeCall(CommandPoolManagement, func() error {
		return resultError(vk.ResetCommandPool(vp.context.device(), vp.Handle, 0), "vkResetCommandPool")
	})
	if err != nil {
		return err
	}
	vp.next = 0
	return nil
}

// Allocate returns a buffer in the initial state, reusing one released by
// the last Reset when possible.
func (vp *VulkanCommandPool) Allocate() (renderer.CommandBuffer, error) {
	if vp.next < len(vp.buffers) {
		cb := vp.buffers[vp.next]
		vp.next++
		return cb, nil
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        vp.Handle,
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}

	handles := make([]vk.CommandBuffer, 1)
	err := vp.context.locks.SafeCall(CommandPoolManagement, func() error {
		return resultError(vk.AllocateCommandBuffers(vp.context.device(), &allocateInfo, handles), "vkAllocateCommandBuffers")
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	cb := &VulkanCommandBuffer{Handle: handles[0]}
	vp.buffers = append(vp.buffers, cb)
	vp.next++
	return cb, nil
}

// Destroy frees the pool and every buffer it allocated.
func (vp *VulkanCommandPool) Destroy() {
	if vp.Handle == vk.NullCommandPool {
		return
	}
	vp.context.locks.SafeCall(CommandPoolManagement, func() error {
		vk.DestroyCommandPool(vp.context.device(), vp.Handle, vp.context.Allocator)
		return nil
	})
	vp.Handle = vk.NullCommandPool
	vp.buffers = nil
	vp.next = 0
}

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
}

func (v *VulkanCommandBuffer) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := resultError(vk.BeginCommandBuffer(v.Handle, &beginInfo), "vkBeginCommandBuffer"); err != nil {
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if err := resultError(vk.EndCommandBuffer(v.Handle), "vkEndCommandBuffer"); err != nil {
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (v *VulkanCommandBuffer) SetViewport(area renderer.Rect) {
	viewport := vk.Viewport{
		X:        float32(area.X),
		Y:        float32(area.Y),
		Width:    float32(area.Extent.Width),
		Height:   float32(area.Extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	vk.CmdSetViewport(v.Handle, 0, 1, []vk.Viewport{viewport})
}

func (v *VulkanCommandBuffer) SetScissor(area renderer.Rect) {
	vk.CmdSetScissor(v.Handle, 0, 1, []vk.Rect2D{toVkRect(area)})
}

func (v *VulkanCommandBuffer) BindPipeline(pipeline renderer.Pipeline) {
	if p, ok := pipeline.(*VulkanPipeline); ok {
		vk.CmdBindPipeline(v.Handle, vk.PipelineBindPointGraphics, p.Handle)
	}
}

func (v *VulkanCommandBuffer) BindVertexBuffers(first uint32, buffers []renderer.Buffer, offsets []uint64) {
	handles := make([]vk.Buffer, 0, len(buffers))
	deviceSizes := make([]vk.DeviceSize, 0, len(buffers))
	for i, b := range buffers {
		vb, ok := b.(*VulkanBuffer)
		if !ok {
			continue
		}
		handles = append(handles, vb.Handle)
		var offset uint64
		if i < len(offsets) {
			offset = offsets[i]
		}
		deviceSizes = append(deviceSizes, vk.DeviceSize(offset))
	}
	if len(handles) == 0 {
		return
	}
	vk.CmdBindVertexBuffers(v.Handle, first, uint32(len(handles)), handles, deviceSizes)
}

func (v *VulkanCommandBuffer) BindDescriptorSets(pipeline renderer.Pipeline, first uint32, sets []renderer.DescriptorSet) {
	p, ok := pipeline.(*VulkanPipeline)
	if !ok {
		return
	}
	handles := make([]vk.DescriptorSet, 0, len(sets))
	for _, s := range sets {
		if ds, ok := s.(*VulkanDescriptorSet); ok {
			handles = append(handles, ds.Handle)
		}
	}
	if len(handles) == 0 {
		return
	}
	vk.CmdBindDescriptorSets(v.Handle, vk.PipelineBindPointGraphics, p.Layout, first, uint32(len(handles)), handles, 0, nil)
}

func (v *VulkanCommandBuffer) BeginRenderPass(pass renderer.RenderPass, framebuffer renderer.Framebuffer, area renderer.Rect, clear renderer.ClearColor) {
	rp, ok := pass.(*VulkanRenderpass)
	if !ok {
		return
	}
	fb, ok := framebuffer.(*VulkanFramebuffer)
	if !ok {
		return
	}

	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(clear[:])

	beginInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      rp.Handle,
		Framebuffer:     fb.Handle,
		RenderArea:      toVkRect(area),
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(v.Handle, &beginInfo, vk.SubpassContentsInline)
}

func (v *VulkanCommandBuffer) PushConstants(pipeline renderer.Pipeline, stages renderer.ShaderStage, offset uint32, words []uint32) {
	p, ok := pipeline.(*VulkanPipeline)
	if !ok || len(words) == 0 {
		return
	}
	vk.CmdPushConstants(v.Handle, p.Layout, vk.ShaderStageFlags(stages), offset, uint32(len(words)*4), unsafe.Pointer(&words[0]))
}

func (v *VulkanCommandBuffer) Draw(vertices renderer.Range, instances renderer.Range) {
	vk.CmdDraw(v.Handle, vertices.Count, instances.Count, vertices.First, instances.First)
}

func (v *VulkanCommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(v.Handle)
}
