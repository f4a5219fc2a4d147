package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkframe/driver"
)

func (d *Driver) PhysicalDevices() ([]driver.PhysicalDevice, driver.Result) {
	var count uint32
	ret := vk.EnumeratePhysicalDevices(d.instance, &count, nil)
	if isError(ret) {
		return nil, driver.Result(ret)
	}
	gpus := make([]vk.PhysicalDevice, count)
	ret = vk.EnumeratePhysicalDevices(d.instance, &count, gpus)
	if isError(ret) {
		return nil, driver.Result(ret)
	}
	out := make([]driver.PhysicalDevice, 0, count)
	for _, gpu := range gpus[:count] {
		out = append(out, driver.PhysicalDevice(d.gpus.find(gpu)))
	}
	return out, driver.Success
}

func (d *Driver) PhysicalDeviceProperties(pd driver.PhysicalDevice) driver.PhysicalDeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.gpus.get(uint64(pd)), &props)
	props.Deref()
	return driver.PhysicalDeviceProperties{
		Name:       vk.ToString(props.DeviceName[:]),
		Type:       driver.DeviceType(props.DeviceType),
		APIVersion: props.ApiVersion,
	}
}

func (d *Driver) QueueFamilies(pd driver.PhysicalDevice) []driver.QueueFamily {
	gpu := d.gpus.get(uint64(pd))
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)
	out := make([]driver.QueueFamily, count)
	for i := range props {
		props[i].Deref()
		out[i] = driver.QueueFamily{
			Flags: driver.QueueFlags(props[i].QueueFlags),
			Count: props[i].QueueCount,
		}
	}
	return out
}

func (d *Driver) DeviceExtensions(pd driver.PhysicalDevice) ([]string, driver.Result) {
	names, err := deviceExtensions(d.gpus.get(uint64(pd)))
	if err != nil {
		return nil, driver.ErrorInitializationFailed
	}
	return names, driver.Success
}

func (d *Driver) MemoryTypes(pd driver.PhysicalDevice) []driver.MemoryType {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.gpus.get(uint64(pd)), &props)
	props.Deref()
	out := make([]driver.MemoryType, props.MemoryTypeCount)
	for i := range out {
		props.MemoryTypes[i].Deref()
		out[i] = driver.MemoryType{
			Flags: driver.MemoryPropertyFlags(props.MemoryTypes[i].PropertyFlags),
			Heap:  props.MemoryTypes[i].HeapIndex,
		}
	}
	return out
}

func (d *Driver) SurfaceSupport(pd driver.PhysicalDevice, family uint32, surface driver.Surface) (bool, driver.Result) {
	var supported vk.Bool32
	ret := vk.GetPhysicalDeviceSurfaceSupport(d.gpus.get(uint64(pd)), family, d.surfaces.get(uint64(surface)), &supported)
	return supported.B(), driver.Result(ret)
}

func (d *Driver) SurfaceCapabilities(pd driver.PhysicalDevice, surface driver.Surface) (driver.SurfaceCapabilities, driver.Result) {
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(d.gpus.get(uint64(pd)), d.surfaces.get(uint64(surface)), &caps)
	if isError(ret) {
		return driver.SurfaceCapabilities{}, driver.Result(ret)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return driver.SurfaceCapabilities{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  extent(caps.CurrentExtent),
		MinImageExtent: extent(caps.MinImageExtent),
		MaxImageExtent: extent(caps.MaxImageExtent),
	}, driver.Success
}

func (d *Driver) SurfaceFormats(pd driver.PhysicalDevice, surface driver.Surface) ([]driver.SurfaceFormat, driver.Result) {
	gpu, surf := d.gpus.get(uint64(pd)), d.surfaces.get(uint64(surface))
	var count uint32
	ret := vk.GetPhysicalDeviceSurfaceFormats(gpu, surf, &count, nil)
	if isError(ret) {
		return nil, driver.Result(ret)
	}
	formats := make([]vk.SurfaceFormat, count)
	ret = vk.GetPhysicalDeviceSurfaceFormats(gpu, surf, &count, formats)
	if isError(ret) {
		return nil, driver.Result(ret)
	}
	out := make([]driver.SurfaceFormat, count)
	for i := range formats[:count] {
		formats[i].Deref()
		out[i] = driver.SurfaceFormat{
			Format:     driver.Format(formats[i].Format),
			ColorSpace: driver.ColorSpace(formats[i].ColorSpace),
		}
	}
	return out, driver.Success
}

func (d *Driver) SurfacePresentModes(pd driver.PhysicalDevice, surface driver.Surface) ([]driver.PresentMode, driver.Result) {
	gpu, surf := d.gpus.get(uint64(pd)), d.surfaces.get(uint64(surface))
	var count uint32
	ret := vk.GetPhysicalDeviceSurfacePresentModes(gpu, surf, &count, nil)
	if isError(ret) {
		return nil, driver.Result(ret)
	}
	modes := make([]vk.PresentMode, count)
	ret = vk.GetPhysicalDeviceSurfacePresentModes(gpu, surf, &count, modes)
	if isError(ret) {
		return nil, driver.Result(ret)
	}
	out := make([]driver.PresentMode, count)
	for i, m := range modes[:count] {
		out[i] = driver.PresentMode(m)
	}
	return out, driver.Success
}

func (d *Driver) CreateDevice(pd driver.PhysicalDevice, info *driver.DeviceCreateInfo) (driver.Device, driver.Result) {
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(info.Queues))
	for i, q := range info.Queues {
		priorities := make([]float32, q.Count)
		for j := range priorities {
			priorities[j] = 1.0
		}
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.Family,
			QueueCount:       q.Count,
			PQueuePriorities: priorities,
		}
	}
	layers := info.Layers
	if layers == nil {
		layers = d.layers
	}
	gpu := d.gpus.get(uint64(pd))
	var device vk.Device
	ret := vk.CreateDevice(gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}, nil, &device)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	dev := driver.Device(d.devices.add(device))
	d.gpuOf.Store(dev, gpu)
	return dev, driver.Success
}

func (d *Driver) DestroyDevice(dev driver.Device) {
	if device, ok := d.devices.remove(uint64(dev)); ok {
		vk.DestroyDevice(device, nil)
		d.gpuOf.Delete(dev)
	}
}

func (d *Driver) GetDeviceQueue(dev driver.Device, family, index uint32) driver.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(d.devices.get(uint64(dev)), family, index, &queue)
	return driver.Queue(d.queues.find(queue))
}

func (d *Driver) DeviceWaitIdle(dev driver.Device) driver.Result {
	return driver.Result(vk.DeviceWaitIdle(d.devices.get(uint64(dev))))
}

func extent(e vk.Extent2D) driver.Extent2D {
	return driver.Extent2D{Width: e.Width, Height: e.Height}
}

func vkExtent(e driver.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}
