package renderer

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	amath "github.com/spaghettifunk/anima-frames/engine/math"
)

type Format uint32

const (
	FormatUndefined Format = iota
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8Srgb
	FormatR8G8B8A8Unorm
	FormatR8G8B8A8Srgb
	FormatA2B10G10R10Unorm
	FormatR16G16B16A16Sfloat
)

func (f Format) IsSRGB() bool {
	return f == FormatB8G8R8A8Srgb || f == FormatR8G8B8A8Srgb
}

func (f Format) String() string {
	switch f {
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8A8Srgb:
		return "B8G8R8A8_SRGB"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8Srgb:
		return "R8G8B8A8_SRGB"
	case FormatA2B10G10R10Unorm:
		return "A2B10G10R10_UNORM"
	case FormatR16G16B16A16Sfloat:
		return "R16G16B16A16_SFLOAT"
	}
	return "UNDEFINED"
}

type ColorSpace uint32

const (
	ColorSpaceSRGBNonlinear ColorSpace = iota
	ColorSpaceExtendedSRGBLinear
	ColorSpaceHDR10
)

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

func (sf SurfaceFormat) String() string {
	return fmt.Sprintf("%s/%d", sf.Format, sf.ColorSpace)
}

// DefaultSurfaceFormat is used when the surface declares no preference.
var DefaultSurfaceFormat = SurfaceFormat{Format: FormatR8G8B8A8Srgb, ColorSpace: ColorSpaceSRGBNonlinear}

// ChooseSurfaceFormat picks the first sRGB format. A surface without any
// declared format accepts the default one.
func ChooseSurfaceFormat(formats []SurfaceFormat) (SurfaceFormat, error) {
	if len(formats) == 0 {
		return DefaultSurfaceFormat, nil
	}
	for _, f := range formats {
		if f.Format.IsSRGB() {
			return f, nil
		}
	}
	return SurfaceFormat{}, errors.Wrapf(ErrNoSurfaceFormat, "%d formats offered", len(formats))
}

// ChoosePresentMode returns preferred when supported and FIFO otherwise, the
// only mode every surface must support.
func ChoosePresentMode(supported []PresentMode, preferred PresentMode) PresentMode {
	for _, m := range supported {
		if m == preferred {
			return m
		}
	}
	return PresentModeFifo
}

func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fifo":
		return PresentModeFifo, nil
	case "fifo_relaxed":
		return PresentModeFifoRelaxed, nil
	case "mailbox":
		return PresentModeMailbox, nil
	case "immediate":
		return PresentModeImmediate, nil
	}
	return PresentModeFifo, errors.Errorf("unknown present mode %q", s)
}

// DeriveSwapchainConfig turns surface capabilities into a swapchain request.
// window is used when the surface does not dictate the extent.
func DeriveSwapchainConfig(caps SurfaceCapabilities, format SurfaceFormat, preferred PresentMode, window Extent) SwapchainConfig {
	extent := caps.CurrentExtent
	if extent.IsUndefined() {
		extent = Extent{
			Width:  amath.Clamp(window.Width, caps.MinExtent.Width, caps.MaxExtent.Width),
			Height: amath.Clamp(window.Height, caps.MinExtent.Height, caps.MaxExtent.Height),
		}
	}

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	return SwapchainConfig{
		Format:      format,
		Extent:      extent,
		ImageCount:  imageCount,
		PresentMode: ChoosePresentMode(caps.PresentModes, preferred),
	}
}
