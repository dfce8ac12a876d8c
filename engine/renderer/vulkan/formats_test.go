package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

func TestFromVkSurfaceFormats(t *testing.T) {
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	a2r10 := vk.SurfaceFormat{Format: vk.FormatA2r10g10b10UnormPack32, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	// A known format in a color space without a mapping.
	p3 := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceDisplayP3Nonlinear}

	tests := []struct {
		name    string
		formats []vk.SurfaceFormat
		want    renderer.SurfaceFormat
		err     bool
	}{
		{"nothing reported", nil, renderer.DefaultSurfaceFormat, false},
		{"undefined means no preference", []vk.SurfaceFormat{{Format: vk.FormatUndefined}}, renderer.DefaultSurfaceFormat, false},
		{"only unmapped formats", []vk.SurfaceFormat{a2r10, p3}, renderer.SurfaceFormat{}, true},
		{"srgb after unmapped", []vk.SurfaceFormat{a2r10, srgb}, renderer.SurfaceFormat{Format: renderer.FormatB8G8R8A8Srgb}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderer.ChooseSurfaceFormat(fromVkSurfaceFormats(tt.formats))
			if tt.err {
				if !errors.Is(err, renderer.ErrNoSurfaceFormat) {
					t.Fatalf("got %s, err = %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFromVkSurfaceFormatsKeepsLength(t *testing.T) {
	list := []vk.SurfaceFormat{
		{Format: vk.FormatA2r10g10b10UnormPack32, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR16g16b16a16Sfloat, ColorSpace: vk.ColorSpaceExtendedSrgbLinear},
	}
	got := fromVkSurfaceFormats(list)
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got[0].Format != renderer.FormatUndefined {
		t.Errorf("unmapped entry became %s", got[0])
	}
	want := renderer.SurfaceFormat{Format: renderer.FormatR16G16B16A16Sfloat, ColorSpace: renderer.ColorSpaceExtendedSRGBLinear}
	if got[1] != want {
		t.Errorf("got %s, want %s", got[1], want)
	}
}
