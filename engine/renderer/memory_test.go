package renderer_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

func TestFindMemoryTypeSingleMatch(t *testing.T) {
	const n = 6
	for want := 0; want < n; want++ {
		types := make([]renderer.MemoryType, n)
		for i := range types {
			types[i].Properties = renderer.MemoryDeviceLocal
		}
		types[want].Properties = renderer.MemoryUpload | renderer.MemoryHostCached

		got, err := renderer.FindMemoryType(types, 0xFFFFFFFF, renderer.MemoryUpload)
		if err != nil {
			t.Fatalf("position %d: %v", want, err)
		}
		if got != want {
			t.Errorf("position %d: got %d", want, got)
		}
	}
}

func TestFindMemoryType(t *testing.T) {
	types := []renderer.MemoryType{
		{Properties: renderer.MemoryDeviceLocal},
		{Properties: renderer.MemoryHostVisible},
		{Properties: renderer.MemoryUpload},
		{Properties: renderer.MemoryUpload | renderer.MemoryDeviceLocal},
	}

	tests := []struct {
		name  string
		bits  uint32
		props renderer.MemoryProperty
		want  int
		err   bool
	}{
		{"first satisfying", 0xF, renderer.MemoryUpload, 2, false},
		{"mask skips first", 0x8, renderer.MemoryUpload, 3, false},
		{"device local", 0xF, renderer.MemoryDeviceLocal, 0, false},
		{"mask excludes all", 0x3, renderer.MemoryUpload, -1, true},
		{"no property match", 0xF, renderer.MemoryHostCached, -1, true},
		{"empty mask", 0, renderer.MemoryDeviceLocal, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderer.FindMemoryType(types, tt.bits, tt.props)
			if tt.err {
				if !errors.Is(err, renderer.ErrNoMemoryType) {
					t.Fatalf("err = %v, want ErrNoMemoryType", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
