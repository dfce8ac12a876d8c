package vulkan

import (
	"time"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

type VulkanSwapchain struct {
	context *VulkanContext
	config  renderer.SwapchainConfig

	Handle vk.Swapchain
	Images []*VulkanImage
}

var _ renderer.Swapchain = (*VulkanSwapchain)(nil)

// NewSwapchain creates a swapchain for the context surface. The images it
// owns are listed by Backbuffer; views over them are up to the caller.
func (vc *VulkanContext) NewSwapchain(config renderer.SwapchainConfig) (renderer.Swapchain, error) {
	var caps vk.SurfaceCapabilities
	if err := resultError(vk.GetPhysicalDeviceSurfaceCapabilities(vc.Device.PhysicalDevice, vc.Surface, &caps), "vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return nil, err
	}
	caps.Deref()

	surfaceFormat := toVkSurfaceFormat(config.Format)
	presentMode, ok := presentModes[config.PresentMode]
	if !ok {
		presentMode = vk.PresentModeFifo
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          vc.Surface,
		MinImageCount:    config.ImageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      toVkExtent(config.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	// Setup the queue family indices
	if vc.Device.GraphicsQueueIndex != vc.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(vc.Device.GraphicsQueueIndex),
			uint32(vc.Device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	swapchain := &VulkanSwapchain{context: vc, config: config}
	err := vc.locks.SafeCall(SwapchainManagement, func() error {
		var handle vk.Swapchain
		if err := resultError(vk.CreateSwapchain(vc.device(), &swapchainCreateInfo, vc.Allocator, &handle), "vkCreateSwapchainKHR"); err != nil {
			return err
		}
		swapchain.Handle = handle
		return nil
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	// Images
	var imageCount uint32
	if err := resultError(vk.GetSwapchainImages(vc.device(), swapchain.Handle, &imageCount, nil), "vkGetSwapchainImagesKHR"); err != nil {
		swapchain.Destroy()
		return nil, err
	}
	images := make([]vk.Image, imageCount)
	if err := resultError(vk.GetSwapchainImages(vc.device(), swapchain.Handle, &imageCount, images), "vkGetSwapchainImagesKHR"); err != nil {
		swapchain.Destroy()
		return nil, err
	}
	for _, image := range images[:imageCount] {
		swapchain.Images = append(swapchain.Images, &VulkanImage{
			Handle: image,
			Width:  config.Extent.Width,
			Height: config.Extent.Height,
		})
	}
	// The implementation may hand out more images than requested.
	swapchain.config.ImageCount = imageCount

	core.LogInfo("Swapchain created successfully: %dx%d, %d images, %s.", config.Extent.Width, config.Extent.Height, imageCount, config.PresentMode)
	return swapchain, nil
}

func (vs *VulkanSwapchain) Config() renderer.SwapchainConfig {
	return vs.config
}

func (vs *VulkanSwapchain) Backbuffer() renderer.Backbuffer {
	images := make([]renderer.Image, len(vs.Images))
	for i, image := range vs.Images {
		images[i] = image
	}
	return renderer.Backbuffer{Images: images}
}

func (vs *VulkanSwapchain) Acquire(timeout time.Duration, signal renderer.Semaphore, fence renderer.Fence) (uint32, renderer.SwapStatus, error) {
	var index uint32
	result := vk.AcquireNextImage(vs.context.device(), vs.Handle, timeoutNanos(timeout), semaphoreHandle(signal), fenceHandle(fence), &index)
	switch result {
	case vk.Success:
		return index, renderer.SwapOptimal, nil
	case vk.Suboptimal:
		return index, renderer.SwapSuboptimal, nil
	}
	return 0, renderer.SwapOptimal, resultError(result, "vkAcquireNextImageKHR")
}

func (vs *VulkanSwapchain) Present(index uint32, wait renderer.Semaphore) (renderer.SwapStatus, error) {
	// Return the image to the swapchain for presentation.
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{vs.Handle},
		PImageIndices:  []uint32{index},
	}
	if semaphore := semaphoreHandle(wait); semaphore != vk.NullSemaphore {
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{semaphore}
	}

	var result vk.Result
	vs.context.locks.SafeQueueCall(uint32(vs.context.Device.PresentQueueIndex), func() error {
		result = vk.QueuePresent(vs.context.Device.PresentQueue, &presentInfo)
		return nil
	})
	switch result {
	case vk.Success:
		return renderer.SwapOptimal, nil
	case vk.Suboptimal:
		return renderer.SwapSuboptimal, nil
	}
	return renderer.SwapOptimal, errors.WithMessagef(resultError(result, "vkQueuePresentKHR"), "image %d", index)
}

// Destroy releases the swapchain and the images it owns. Views over them
// must be gone already.
func (vs *VulkanSwapchain) Destroy() {
	if vs.Handle == vk.NullSwapchain {
		return
	}
	vs.context.locks.SafeCall(SwapchainManagement, func() error {
		vk.DestroySwapchain(vs.context.device(), vs.Handle, vs.context.Allocator)
		return nil
	})
	vs.Handle = vk.NullSwapchain
	vs.Images = nil
}
