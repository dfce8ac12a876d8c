package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

var formats = map[renderer.Format]vk.Format{
	renderer.FormatB8G8R8A8Unorm:      vk.FormatB8g8r8a8Unorm,
	renderer.FormatB8G8R8A8Srgb:       vk.FormatB8g8r8a8Srgb,
	renderer.FormatR8G8B8A8Unorm:      vk.FormatR8g8b8a8Unorm,
	renderer.FormatR8G8B8A8Srgb:       vk.FormatR8g8b8a8Srgb,
	renderer.FormatA2B10G10R10Unorm:   vk.FormatA2b10g10r10UnormPack32,
	renderer.FormatR16G16B16A16Sfloat: vk.FormatR16g16b16a16Sfloat,
}

var colorSpaces = map[renderer.ColorSpace]vk.ColorSpace{
	renderer.ColorSpaceSRGBNonlinear:      vk.ColorSpaceSrgbNonlinear,
	renderer.ColorSpaceExtendedSRGBLinear: vk.ColorSpaceExtendedSrgbLinear,
	renderer.ColorSpaceHDR10:              vk.ColorSpaceHdr10St2084,
}

var presentModes = map[renderer.PresentMode]vk.PresentMode{
	renderer.PresentModeFifo:        vk.PresentModeFifo,
	renderer.PresentModeFifoRelaxed: vk.PresentModeFifoRelaxed,
	renderer.PresentModeMailbox:     vk.PresentModeMailbox,
	renderer.PresentModeImmediate:   vk.PresentModeImmediate,
}

var vertexFormats = map[renderer.VertexFormat]vk.Format{
	renderer.VertexFloat2: vk.FormatR32g32Sfloat,
	renderer.VertexFloat3: vk.FormatR32g32b32Sfloat,
	renderer.VertexFloat4: vk.FormatR32g32b32a32Sfloat,
}

func toVkSurfaceFormat(sf renderer.SurfaceFormat) vk.SurfaceFormat {
	return vk.SurfaceFormat{
		Format:     formats[sf.Format],
		ColorSpace: colorSpaces[sf.ColorSpace],
	}
}

// fromVkSurfaceFormat reports false for formats the renderer does not know.
func fromVkSurfaceFormat(sf vk.SurfaceFormat) (renderer.SurfaceFormat, bool) {
	out := renderer.SurfaceFormat{}
	found := false
	for k, v := range formats {
		if v == sf.Format {
			out.Format = k
			found = true
			break
		}
	}
	if !found {
		return out, false
	}
	for k, v := range colorSpaces {
		if v == sf.ColorSpace {
			out.ColorSpace = k
			return out, true
		}
	}
	return out, false
}

// fromVkSurfaceFormats converts the list a surface reports. A single
// VK_FORMAT_UNDEFINED entry means the surface has no preference and yields
// an empty list. Entries without a mapping stay in the list as
// FormatUndefined, so a surface offering only those is never taken for one
// without preference.
func fromVkSurfaceFormats(list []vk.SurfaceFormat) []renderer.SurfaceFormat {
	if len(list) == 1 && list[0].Format == vk.FormatUndefined {
		return nil
	}
	out := make([]renderer.SurfaceFormat, 0, len(list))
	for _, f := range list {
		sf, ok := fromVkSurfaceFormat(f)
		if !ok {
			core.LogDebug("surface format %d/%d has no mapping", f.Format, f.ColorSpace)
			sf = renderer.SurfaceFormat{Format: renderer.FormatUndefined}
		}
		out = append(out, sf)
	}
	return out
}

func fromVkPresentMode(mode vk.PresentMode) (renderer.PresentMode, bool) {
	for k, v := range presentModes {
		if v == mode {
			return k, true
		}
	}
	return renderer.PresentModeFifo, false
}

func toVkExtent(e renderer.Extent) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func fromVkExtent(e vk.Extent2D) renderer.Extent {
	e.Deref()
	return renderer.Extent{Width: e.Width, Height: e.Height}
}

func toVkRect(r renderer.Rect) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.X, Y: r.Y},
		Extent: toVkExtent(r.Extent),
	}
}
