package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkframe/driver"
)

func (d *Driver) CreateSemaphore(dev driver.Device) (driver.Semaphore, driver.Result) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(d.devices.get(uint64(dev)), &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.Semaphore(d.semaphores.add(sem)), driver.Success
}

func (d *Driver) DestroySemaphore(dev driver.Device, sem driver.Semaphore) {
	if s, ok := d.semaphores.remove(uint64(sem)); ok {
		vk.DestroySemaphore(d.devices.get(uint64(dev)), s, nil)
	}
}

func (d *Driver) CreateFence(dev driver.Device, signaled bool) (driver.Fence, driver.Result) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(d.devices.get(uint64(dev)), &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &fence)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.Fence(d.fences.add(fence)), driver.Success
}

func (d *Driver) DestroyFence(dev driver.Device, fence driver.Fence) {
	if f, ok := d.fences.remove(uint64(fence)); ok {
		vk.DestroyFence(d.devices.get(uint64(dev)), f, nil)
	}
}

func (d *Driver) WaitForFence(dev driver.Device, fence driver.Fence, timeout uint64) driver.Result {
	fences := []vk.Fence{d.fences.get(uint64(fence))}
	return driver.Result(vk.WaitForFences(d.devices.get(uint64(dev)), 1, fences, vk.True, timeout))
}

func (d *Driver) ResetFence(dev driver.Device, fence driver.Fence) driver.Result {
	fences := []vk.Fence{d.fences.get(uint64(fence))}
	return driver.Result(vk.ResetFences(d.devices.get(uint64(dev)), 1, fences))
}

func (d *Driver) FenceStatus(dev driver.Device, fence driver.Fence) driver.Result {
	return driver.Result(vk.GetFenceStatus(d.devices.get(uint64(dev)), d.fences.get(uint64(fence))))
}

func (d *Driver) QueueSubmit(q driver.Queue, submits []driver.SubmitInfo, fence driver.Fence) driver.Result {
	infos := make([]vk.SubmitInfo, len(submits))
	for i, s := range submits {
		infos[i] = vk.SubmitInfo{
			SType:                vk.StructureTypeSubmitInfo,
			WaitSemaphoreCount:   uint32(len(s.WaitSemaphores)),
			PWaitSemaphores:      d.semaphoreList(s.WaitSemaphores),
			CommandBufferCount:   uint32(len(s.CommandBuffers)),
			PCommandBuffers:      d.commandBufferList(s.CommandBuffers),
			SignalSemaphoreCount: uint32(len(s.SignalSemaphores)),
			PSignalSemaphores:    d.semaphoreList(s.SignalSemaphores),
		}
		if len(s.WaitSemaphores) > 0 {
			// Image acquisition gates color output only.
			stages := make([]vk.PipelineStageFlags, len(s.WaitSemaphores))
			for j := range stages {
				stages[j] = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
			}
			infos[i].PWaitDstStageMask = stages
		}
	}
	ret := vk.QueueSubmit(d.queues.get(uint64(q)), uint32(len(infos)), infos, d.fences.get(uint64(fence)))
	return driver.Result(ret)
}

func (d *Driver) semaphoreList(handles []driver.Semaphore) []vk.Semaphore {
	if len(handles) == 0 {
		return nil
	}
	out := make([]vk.Semaphore, len(handles))
	for i, h := range handles {
		out[i] = d.semaphores.get(uint64(h))
	}
	return out
}

func (d *Driver) commandBufferList(handles []driver.CommandBuffer) []vk.CommandBuffer {
	if len(handles) == 0 {
		return nil
	}
	out := make([]vk.CommandBuffer, len(handles))
	for i, h := range handles {
		out[i] = d.commandBuffers.get(uint64(h))
	}
	return out
}
