package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

type VulkanFramebuffer struct {
	context     *VulkanContext
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
	Renderpass  *VulkanRenderpass
	Extent      renderer.Extent
}

func (vc *VulkanContext) NewFramebuffer(pass renderer.RenderPass, view renderer.ImageView, extent renderer.Extent) (renderer.Framebuffer, error) {
	renderpass, ok := pass.(*VulkanRenderpass)
	if !ok {
		return nil, errors.Wrapf(errForeignObject, "framebuffer: render pass %T", pass)
	}
	imageView, ok := view.(*VulkanImageView)
	if !ok {
		return nil, errors.Wrapf(errForeignObject, "framebuffer: image view %T", view)
	}

	outFramebuffer := &VulkanFramebuffer{
		context:     vc,
		Attachments: []vk.ImageView{imageView.Handle},
		Renderpass:  renderpass,
		Extent:      extent,
	}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: uint32(len(outFramebuffer.Attachments)),
		PAttachments:    outFramebuffer.Attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if err := resultError(vk.CreateFramebuffer(vc.device(), &createInfo, vc.Allocator, &handle), "vkCreateFramebuffer"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	outFramebuffer.Handle = handle
	return outFramebuffer, nil
}

func (vfb *VulkanFramebuffer) Destroy() {
	if vfb.Handle != vk.NullFramebuffer {
		vk.DestroyFramebuffer(vfb.context.device(), vfb.Handle, vfb.context.Allocator)
		vfb.Handle = vk.NullFramebuffer
	}
	vfb.Attachments = nil
	vfb.Renderpass = nil
}
