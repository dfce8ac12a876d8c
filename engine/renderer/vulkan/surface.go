package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// SurfaceCapabilities queries the surface afresh. Present modes the
// renderer has no mapping for are left out; unmapped formats are reported
// as FormatUndefined.
func (vc *VulkanContext) SurfaceCapabilities() (renderer.SurfaceCapabilities, error) {
	physical := vc.Device.PhysicalDevice
	out := renderer.SurfaceCapabilities{}

	var caps vk.SurfaceCapabilities
	if err := resultError(vk.GetPhysicalDeviceSurfaceCapabilities(physical, vc.Surface, &caps), "vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return out, err
	}
	caps.Deref()
	out.MinImageCount = caps.MinImageCount
	out.MaxImageCount = caps.MaxImageCount
	out.CurrentExtent = fromVkExtent(caps.CurrentExtent)
	out.MinExtent = fromVkExtent(caps.MinImageExtent)
	out.MaxExtent = fromVkExtent(caps.MaxImageExtent)

	var formatCount uint32
	if err := resultError(vk.GetPhysicalDeviceSurfaceFormats(physical, vc.Surface, &formatCount, nil), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return out, err
	}
	if formatCount > 0 {
		surfaceFormats := make([]vk.SurfaceFormat, formatCount)
		if err := resultError(vk.GetPhysicalDeviceSurfaceFormats(physical, vc.Surface, &formatCount, surfaceFormats), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
			return out, err
		}
		for i := range surfaceFormats[:formatCount] {
			surfaceFormats[i].Deref()
		}
		out.Formats = fromVkSurfaceFormats(surfaceFormats[:formatCount])
	}

	var modeCount uint32
	if err := resultError(vk.GetPhysicalDeviceSurfacePresentModes(physical, vc.Surface, &modeCount, nil), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return out, err
	}
	if modeCount > 0 {
		modes := make([]vk.PresentMode, modeCount)
		if err := resultError(vk.GetPhysicalDeviceSurfacePresentModes(physical, vc.Surface, &modeCount, modes), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
			return out, err
		}
		for _, m := range modes[:modeCount] {
			if mode, ok := fromVkPresentMode(m); ok {
				out.PresentModes = append(out.PresentModes, mode)
			}
		}
	}
	return out, nil
}
