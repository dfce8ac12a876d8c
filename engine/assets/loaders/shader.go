package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// SPIR-V modules start with this word.
const SpirvMagic uint32 = 0x07230203

var ErrInvalidSpirv = errors.New("not a SPIR-V module")

// Resource is a file loaded into memory.
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Data     []byte
}

type ShaderLoader struct{}

// Load reads a SPIR-V binary. The blob is kept opaque apart from a check
// of its size and magic number.
func (sl *ShaderLoader) Load(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}
	if len(data) < 4 || len(data)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidSpirv, "%s: %d bytes", path, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data); magic != SpirvMagic {
		return nil, errors.Wrapf(ErrInvalidSpirv, "%s: magic %#08x", path, magic)
	}
	return &Resource{
		Name:     strings.TrimSuffix(filepath.Base(path), ".spv"),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (sl *ShaderLoader) Unload(r *Resource) error {
	r.Data = nil
	r.DataSize = 0
	return nil
}
