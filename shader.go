package vkframe

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"

	"github.com/andewx/vkframe/driver"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// ShaderModule is a compiled SPIR-V module.
type ShaderModule struct {
	device *Device
	handle driver.ShaderModule
	path   string
}

// NewShaderModule loads the SPIR-V binary at path.
func NewShaderModule(d *Device, path string) (*ShaderModule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}
	m, err := NewShaderModuleFromBytes(d, code)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	m.path = path
	return m, nil
}

// NewShaderModuleFromBytes creates a module from SPIR-V words in host
// byte order.
func NewShaderModuleFromBytes(d *Device, code []byte) (*ShaderModule, error) {
	if err := checkSPIRV(code); err != nil {
		return nil, err
	}
	h, res := d.drv.CreateShaderModule(d.handle, code)
	if err := newError(res, "create shader module"); err != nil {
		return nil, err
	}
	return &ShaderModule{device: d, handle: h}, nil
}

func checkSPIRV(code []byte) error {
	if len(code) < 4 || len(code)%4 != 0 {
		return errors.Wrapf(ErrInvalidShader, "size %d", len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != spirvMagic {
		return errors.Wrapf(ErrInvalidShader, "magic %#08x", magic)
	}
	return nil
}

func (m *ShaderModule) Handle() driver.ShaderModule { return m.handle }

// Path returns the file the module was loaded from, if any.
func (m *ShaderModule) Path() string { return m.path }

func (m *ShaderModule) Destroy() {
	if m.handle == driver.NullHandle {
		return
	}
	m.device.drv.DestroyShaderModule(m.device.handle, m.handle)
	m.handle = driver.NullHandle
}
