package vkframe

import (
	"github.com/pkg/errors"

	"github.com/andewx/vkframe/driver"
)

// Buffer is a host-visible, host-coherent buffer with its own memory
// allocation.
type Buffer struct {
	device *Device
	handle driver.Buffer
	memory driver.DeviceMemory
	size   uint64
	usage  driver.BufferUsage
}

func NewBuffer(d *Device, size uint64, usage driver.BufferUsage) (b *Buffer, err error) {
	defer checkErr(&err)

	drv, dev := d.drv, d.handle
	h, res := drv.CreateBuffer(dev, &driver.BufferCreateInfo{Size: size, Usage: usage})
	orPanic(newError(res, "create buffer"))
	destroy := func() { drv.DestroyBuffer(dev, h) }

	req := drv.BufferMemoryRequirements(dev, h)
	typeIndex, err := d.physical.MemoryType(req.TypeBits, driver.MemoryHostVisible|driver.MemoryHostCoherent)
	orPanic(err, destroy)
	mem, res := drv.AllocateMemory(dev, req.Size, typeIndex)
	orPanic(newError(res, "allocate buffer memory"), destroy)
	orPanic(newError(drv.BindBufferMemory(dev, h, mem), "bind buffer memory"), func() {
		drv.FreeMemory(dev, mem)
		destroy()
	})

	return &Buffer{device: d, handle: h, memory: mem, size: size, usage: usage}, nil
}

// NewVertexBuffer creates a vertex buffer holding vs.
func NewVertexBuffer(d *Device, vs []Vertex) (*Buffer, error) {
	data := VertexBytes(vs)
	b, err := NewBuffer(d, uint64(len(data)), driver.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	if err := b.Upload(data); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

func (b *Buffer) Handle() driver.Buffer { return b.handle }

func (b *Buffer) Size() uint64 { return b.size }

// Upload copies data to the start of the buffer.
func (b *Buffer) Upload(data []byte) error {
	if uint64(len(data)) > b.size {
		return errors.Errorf("vkframe: upload of %d bytes into a %d byte buffer", len(data), b.size)
	}
	return newError(b.device.drv.WriteMemory(b.device.handle, b.memory, 0, data), "write buffer memory")
}

func (b *Buffer) Destroy() {
	if b.handle == driver.NullHandle {
		return
	}
	b.device.drv.DestroyBuffer(b.device.handle, b.handle)
	b.device.drv.FreeMemory(b.device.handle, b.memory)
	b.handle = driver.NullHandle
	b.memory = driver.NullHandle
}
