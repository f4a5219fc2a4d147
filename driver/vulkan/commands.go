package vulkan

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkframe/driver"
)

func (d *Driver) CreateCommandPool(dev driver.Device, family uint32, flags driver.CommandPoolFlags) (driver.CommandPool, driver.Result) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(d.devices.get(uint64(dev)), &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(flags),
		QueueFamilyIndex: family,
	}, nil, &pool)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.CommandPool(d.pools.add(pool)), driver.Success
}

func (d *Driver) DestroyCommandPool(dev driver.Device, pool driver.CommandPool) {
	if p, ok := d.pools.remove(uint64(pool)); ok {
		vk.DestroyCommandPool(d.devices.get(uint64(dev)), p, nil)
	}
}

func (d *Driver) AllocateCommandBuffers(dev driver.Device, pool driver.CommandPool, count uint32) ([]driver.CommandBuffer, driver.Result) {
	cmds := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(d.devices.get(uint64(dev)), &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pools.get(uint64(pool)),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}, cmds)
	if isError(ret) {
		return nil, driver.Result(ret)
	}
	out := make([]driver.CommandBuffer, count)
	for i, cmd := range cmds {
		out[i] = driver.CommandBuffer(d.commandBuffers.add(cmd))
	}
	return out, driver.Success
}

func (d *Driver) FreeCommandBuffers(dev driver.Device, pool driver.CommandPool, cbs []driver.CommandBuffer) {
	cmds := make([]vk.CommandBuffer, 0, len(cbs))
	for _, cb := range cbs {
		if cmd, ok := d.commandBuffers.remove(uint64(cb)); ok {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) > 0 {
		vk.FreeCommandBuffers(d.devices.get(uint64(dev)), d.pools.get(uint64(pool)), uint32(len(cmds)), cmds)
	}
}

func (d *Driver) BeginCommandBuffer(cb driver.CommandBuffer, usage driver.CommandBufferUsage) driver.Result {
	ret := vk.BeginCommandBuffer(d.commandBuffers.get(uint64(cb)), &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(usage),
	})
	return driver.Result(ret)
}

func (d *Driver) EndCommandBuffer(cb driver.CommandBuffer) driver.Result {
	return driver.Result(vk.EndCommandBuffer(d.commandBuffers.get(uint64(cb))))
}

func (d *Driver) ResetCommandBuffer(cb driver.CommandBuffer) driver.Result {
	return driver.Result(vk.ResetCommandBuffer(d.commandBuffers.get(uint64(cb)), 0))
}

func (d *Driver) CmdBeginRenderPass(cb driver.CommandBuffer, info *driver.RenderPassBeginInfo) {
	vk.CmdBeginRenderPass(d.commandBuffers.get(uint64(cb)), &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  d.renderPasses.get(uint64(info.RenderPass)),
		Framebuffer: d.framebuffers.get(uint64(info.Framebuffer)),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{},
			Extent: vkExtent(info.Extent),
		},
		ClearValueCount: 1,
		PClearValues: []vk.ClearValue{
			vk.NewClearValue(info.ClearColor[:]),
		},
	}, vk.SubpassContentsInline)
}

func (d *Driver) CmdEndRenderPass(cb driver.CommandBuffer) {
	vk.CmdEndRenderPass(d.commandBuffers.get(uint64(cb)))
}

func (d *Driver) CmdBindPipeline(cb driver.CommandBuffer, p driver.Pipeline) {
	vk.CmdBindPipeline(d.commandBuffers.get(uint64(cb)), vk.PipelineBindPointGraphics, d.pipelines.get(uint64(p)))
}

func (d *Driver) CmdBindVertexBuffer(cb driver.CommandBuffer, buf driver.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(d.commandBuffers.get(uint64(cb)), 0, 1,
		[]vk.Buffer{d.buffers.get(uint64(buf))}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (d *Driver) CmdSetViewport(cb driver.CommandBuffer, e driver.Extent2D) {
	vk.CmdSetViewport(d.commandBuffers.get(uint64(cb)), 0, 1, []vk.Viewport{{
		Width:    float32(e.Width),
		Height:   float32(e.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}})
}

func (d *Driver) CmdSetScissor(cb driver.CommandBuffer, e driver.Extent2D) {
	vk.CmdSetScissor(d.commandBuffers.get(uint64(cb)), 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{},
		Extent: vkExtent(e),
	}})
}

func (d *Driver) CmdPushConstants(cb driver.CommandBuffer, layout driver.PipelineLayout, stages driver.ShaderStage, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(d.commandBuffers.get(uint64(cb)), d.layouts.get(uint64(layout)),
		vk.ShaderStageFlags(stages), offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (d *Driver) CmdDraw(cb driver.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(d.commandBuffers.get(uint64(cb)), vertexCount, instanceCount, firstVertex, firstInstance)
}

// CmdImageBarrier records the layout transitions used for uploads:
// undefined to transfer destination and transfer destination to shader read.
func (d *Driver) CmdImageBarrier(cb driver.CommandBuffer, b *driver.ImageBarrier) {
	var (
		srcAccess, dstAccess vk.AccessFlags
		srcStage, dstStage   vk.PipelineStageFlagBits
	)
	switch {
	case b.OldLayout == driver.ImageLayoutUndefined && b.NewLayout == driver.ImageLayoutTransferDstOptimal:
		dstAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage, dstStage = vk.PipelineStageTopOfPipeBit, vk.PipelineStageTransferBit
	case b.OldLayout == driver.ImageLayoutTransferDstOptimal && b.NewLayout == driver.ImageLayoutShaderReadOnlyOptimal:
		srcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		dstAccess = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage, dstStage = vk.PipelineStageTransferBit, vk.PipelineStageFragmentShaderBit
	default:
		srcAccess = vk.AccessFlags(vk.AccessMemoryWriteBit)
		dstAccess = vk.AccessFlags(vk.AccessMemoryReadBit | vk.AccessMemoryWriteBit)
		srcStage, dstStage = vk.PipelineStageAllCommandsBit, vk.PipelineStageAllCommandsBit
	}
	vk.CmdPipelineBarrier(d.commandBuffers.get(uint64(cb)),
		vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       srcAccess,
			DstAccessMask:       dstAccess,
			OldLayout:           vk.ImageLayout(b.OldLayout),
			NewLayout:           vk.ImageLayout(b.NewLayout),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               d.images.get(uint64(b.Image)),
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}})
}

func (d *Driver) CmdCopyBufferToImage(cb driver.CommandBuffer, buf driver.Buffer, img driver.Image, e driver.Extent2D) {
	vk.CmdCopyBufferToImage(d.commandBuffers.get(uint64(cb)), d.buffers.get(uint64(buf)), d.images.get(uint64(img)),
		vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LayerCount: 1,
			},
			ImageExtent: vk.Extent3D{Width: e.Width, Height: e.Height, Depth: 1},
		}})
}
