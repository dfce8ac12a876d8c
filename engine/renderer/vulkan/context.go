package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// Window is the platform window the context presents to.
type Window interface {
	GetRequiredExtensionNames() []string
	// CreateWindowSurface returns a VkSurfaceKHR handle for instance.
	CreateWindowSurface(instance interface{}) (uintptr, error)
}

type Options struct {
	AppName string
	// Enables the Khronos validation layer and the debug report callback.
	Validation bool
}

// VulkanContext is a Vulkan instance, a window surface and a logical device.
// It implements renderer.Backend.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	Device *VulkanDevice

	locks *VulkanLockPool
}

var _ renderer.Backend = (*VulkanContext)(nil)

// New brings up Vulkan for window.
func New(window Window, opts Options) (*VulkanContext, error) {
	ctx := &VulkanContext{
		Device: &VulkanDevice{},
		locks:  NewVulkanLockPool(),
	}

	if err := ctx.createInstance(window, opts); err != nil {
		return nil, err
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := window.CreateWindowSurface(ctx.Instance)
	if err != nil {
		ctx.Destroy()
		return nil, errors.Wrap(err, "create window surface")
	}
	ctx.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(ctx); err != nil {
		ctx.Destroy()
		return nil, err
	}
	ctx.locks.SetQueueFamily(uint32(ctx.Device.GraphicsQueueIndex))
	ctx.locks.SetQueueFamily(uint32(ctx.Device.PresentQueueIndex))

	core.LogInfo("Vulkan context initialized successfully.")
	return ctx, nil
}

// Destroy releases the device, the surface and the instance. Everything
// created from the context must already be destroyed.
func (vc *VulkanContext) Destroy() {
	if vc.Device != nil && vc.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(vc.Device.LogicalDevice)
		DeviceDestroy(vc)
	}
	if vc.Surface != vk.NullSurface {
		vk.DestroySurface(vc.Instance, vc.Surface, vc.Allocator)
		vc.Surface = vk.NullSurface
	}
	if vc.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(vc.Instance, vc.debugCallback, vc.Allocator)
		vc.debugCallback = vk.NullDebugReportCallback
	}
	if vc.Instance != nil {
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		vc.Instance = nil
	}
	core.LogInfo("Vulkan context destroyed.")
}

func (vc *VulkanContext) WaitIdle() error {
	return resultError(vk.DeviceWaitIdle(vc.Device.LogicalDevice), "vkDeviceWaitIdle")
}

func (vc *VulkanContext) device() vk.Device {
	return vc.Device.LogicalDevice
}
