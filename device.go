package vkframe

import (
	"github.com/pkg/errors"

	"github.com/andewx/vkframe/driver"
)

// PhysicalDevice is a GPU reported by the driver together with its cached
// queue family and memory properties.
type PhysicalDevice struct {
	drv        driver.Driver
	handle     driver.PhysicalDevice
	properties driver.PhysicalDeviceProperties
	families   []driver.QueueFamily
	memory     []driver.MemoryType
}

// EnumeratePhysicalDevices lists the GPUs visible to drv.
func EnumeratePhysicalDevices(drv driver.Driver) ([]*PhysicalDevice, error) {
	handles, res := drv.PhysicalDevices()
	if err := newError(res, "enumerate physical devices"); err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, ErrNoDevice
	}
	devices := make([]*PhysicalDevice, len(handles))
	for i, h := range handles {
		devices[i] = &PhysicalDevice{
			drv:        drv,
			handle:     h,
			properties: drv.PhysicalDeviceProperties(h),
			families:   drv.QueueFamilies(h),
			memory:     drv.MemoryTypes(h),
		}
	}
	return devices, nil
}

func (p *PhysicalDevice) Handle() driver.PhysicalDevice { return p.handle }

func (p *PhysicalDevice) Name() string { return p.properties.Name }

func (p *PhysicalDevice) Properties() driver.PhysicalDeviceProperties { return p.properties }

func (p *PhysicalDevice) QueueFamilies() []driver.QueueFamily { return p.families }

func (p *PhysicalDevice) Extensions() ([]string, error) {
	names, res := p.drv.DeviceExtensions(p.handle)
	return names, newError(res, "enumerate device extensions")
}

func (p *PhysicalDevice) Capabilities(surface driver.Surface) (driver.SurfaceCapabilities, error) {
	caps, res := p.drv.SurfaceCapabilities(p.handle, surface)
	return caps, newError(res, "query surface capabilities")
}

func (p *PhysicalDevice) Formats(surface driver.Surface) ([]driver.SurfaceFormat, error) {
	formats, res := p.drv.SurfaceFormats(p.handle, surface)
	return formats, newError(res, "query surface formats")
}

func (p *PhysicalDevice) PresentModes(surface driver.Surface) ([]driver.PresentMode, error) {
	modes, res := p.drv.SurfacePresentModes(p.handle, surface)
	return modes, newError(res, "query present modes")
}

// SupportsPresent reports whether queues of family can present to surface.
func (p *PhysicalDevice) SupportsPresent(family uint32, surface driver.Surface) bool {
	ok, res := p.drv.SurfaceSupport(p.handle, family, surface)
	return res == driver.Success && ok
}

// MemoryType returns the index of the first memory type allowed by
// typeBits that has all of flags.
func (p *PhysicalDevice) MemoryType(typeBits uint32, flags driver.MemoryPropertyFlags) (uint32, error) {
	for i, mt := range p.memory {
		if typeBits&(1<<uint(i)) != 0 && mt.Flags&flags == flags {
			return uint32(i), nil
		}
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "type bits %#x, flags %#x", typeBits, flags)
}

func (p *PhysicalDevice) hasExtensions(required []string) bool {
	actual, err := p.Extensions()
	if err != nil {
		return false
	}
	for _, name := range required {
		found := false
		for _, have := range actual {
			if have == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (p *PhysicalDevice) suitable(surface driver.Surface, required []string) bool {
	graphics, present := false, surface == driver.NullHandle
	for i, fam := range p.families {
		if fam.Flags.Has(driver.QueueGraphics) {
			graphics = true
		}
		if !present && p.SupportsPresent(uint32(i), surface) {
			present = true
		}
	}
	return graphics && present && p.hasExtensions(required)
}

// SelectPhysicalDevice returns the first device with a graphics queue, a
// queue able to present to surface and every required extension.
func SelectPhysicalDevice(devices []*PhysicalDevice, surface driver.Surface, required []string) (*PhysicalDevice, error) {
	for _, p := range devices {
		if p.suitable(surface, required) {
			Logger().Info("vkframe: physical device selected", "name", p.Name(), "type", p.properties.Type)
			return p, nil
		}
		Logger().Debug("vkframe: physical device rejected", "name", p.Name())
	}
	return nil, ErrNoDevice
}

// Device is the logical device. It owns one queue per queue family and
// must outlive every object created from it.
type Device struct {
	drv      driver.Driver
	physical *PhysicalDevice
	handle   driver.Device
	Queues   []*Queue
}

// NewDevice creates a logical device on physical with one queue per
// family. If surface is not null at least one family must be able to
// present to it.
func NewDevice(physical *PhysicalDevice, surface driver.Surface, extensions, layers []string) (d *Device, err error) {
	defer checkErr(&err)

	if surface != driver.NullHandle {
		present := false
		for i := range physical.families {
			if physical.SupportsPresent(uint32(i), surface) {
				present = true
				break
			}
		}
		if !present {
			return nil, ErrNoPresentSupport
		}
	}

	info := &driver.DeviceCreateInfo{
		Extensions: extensions,
		Layers:     layers,
	}
	for i, fam := range physical.families {
		if fam.Count == 0 {
			continue
		}
		info.Queues = append(info.Queues, driver.QueueCreateInfo{Family: uint32(i), Count: 1})
	}
	handle, res := physical.drv.CreateDevice(physical.handle, info)
	orPanic(newError(res, "create device"))

	d = &Device{
		drv:      physical.drv,
		physical: physical,
		handle:   handle,
	}
	for _, q := range info.Queues {
		d.Queues = append(d.Queues, &Queue{
			device: d,
			handle: physical.drv.GetDeviceQueue(handle, q.Family, 0),
			Family: q.Family,
			Flags:  physical.families[q.Family].Flags,
		})
	}
	Logger().Debug("vkframe: device created", "queues", len(d.Queues), "extensions", extensions)
	return d, nil
}

func (d *Device) Handle() driver.Device { return d.handle }

func (d *Device) Physical() *PhysicalDevice { return d.physical }

func (d *Device) Driver() driver.Driver { return d.drv }

// FindQueue returns the first queue whose family supports all of flags.
func (d *Device) FindQueue(flags driver.QueueFlags) (*Queue, error) {
	for _, q := range d.Queues {
		if q.Flags.Has(flags) {
			return q, nil
		}
	}
	return nil, errors.Wrapf(ErrNoMatchingQueue, "flags %#x", uint32(flags))
}

func (d *Device) FindGraphicsQueue() (*Queue, error) {
	return d.FindQueue(driver.QueueGraphics)
}

// FindPresentQueue returns the first queue able to present to surface.
func (d *Device) FindPresentQueue(surface driver.Surface) (*Queue, error) {
	for _, q := range d.Queues {
		if q.SupportsPresent(surface) {
			return q, nil
		}
	}
	return nil, ErrNoPresentSupport
}

// WaitIdle blocks until every queue of the device has drained.
func (d *Device) WaitIdle() error {
	return newError(d.drv.DeviceWaitIdle(d.handle), "device wait idle")
}

// Destroy destroys the logical device. Every object created from d must
// be destroyed first.
func (d *Device) Destroy() {
	if d.handle == driver.NullHandle {
		return
	}
	d.drv.DestroyDevice(d.handle)
	d.handle = driver.NullHandle
	d.Queues = nil
}
