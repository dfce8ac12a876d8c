package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// VulkanImage is a presentable image. It belongs to its swapchain and is
// never destroyed on its own.
type VulkanImage struct {
	Handle vk.Image
	Width  uint32
	Height uint32
}

func (vi *VulkanImage) Extent() renderer.Extent {
	return renderer.Extent{Width: vi.Width, Height: vi.Height}
}

type VulkanImageView struct {
	context *VulkanContext
	Handle  vk.ImageView
}

func (vc *VulkanContext) NewImageView(image renderer.Image, format renderer.SurfaceFormat) (renderer.ImageView, error) {
	img, ok := image.(*VulkanImage)
	if !ok {
		return nil, errors.Wrapf(errForeignObject, "image view: image %T", image)
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   formats[format.Format],
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var handle vk.ImageView
	if err := resultError(vk.CreateImageView(vc.device(), &viewCreateInfo, vc.Allocator, &handle), "vkCreateImageView"); err != nil {
		return nil, err
	}
	return &VulkanImageView{context: vc, Handle: handle}, nil
}

func (vv *VulkanImageView) Destroy() {
	if vv.Handle != vk.NullImageView {
		vk.DestroyImageView(vv.context.device(), vv.Handle, vv.context.Allocator)
		vv.Handle = vk.NullImageView
	}
}
