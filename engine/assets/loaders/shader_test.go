package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func spirv(words ...uint32) []byte {
	out := make([]byte, 0, 4*(len(words)+1))
	out = binary.LittleEndian.AppendUint32(out, SpirvMagic)
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

func write(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestShaderLoaderLoad(t *testing.T) {
	data := spirv(0x00010000, 7, 42)
	path := write(t, "triangle.vert.spv", data)

	sl := &ShaderLoader{}
	res, err := sl.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Name != "triangle.vert" {
		t.Errorf("name = %q", res.Name)
	}
	if res.DataSize != uint64(len(data)) || string(res.Data) != string(data) {
		t.Errorf("data mismatch: %d bytes", res.DataSize)
	}

	if err := sl.Unload(res); err != nil || res.Data != nil {
		t.Errorf("Unload left %d bytes, err %v", len(res.Data), err)
	}
}

func TestShaderLoaderRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unaligned", append(spirv(1), 0xFF)},
		{"bad magic", []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, "bad.spv", tt.data)
			if _, err := (&ShaderLoader{}).Load(path); !errors.Is(err, ErrInvalidSpirv) {
				t.Errorf("err = %v, want ErrInvalidSpirv", err)
			}
		})
	}
}

func TestShaderLoaderMissingFile(t *testing.T) {
	if _, err := (&ShaderLoader{}).Load(filepath.Join(t.TempDir(), "nope.spv")); err == nil {
		t.Fatal("expected an error")
	}
}
