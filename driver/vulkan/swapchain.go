package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkframe/driver"
)

func (d *Driver) CreateSwapchain(dev driver.Device, info *driver.SwapchainCreateInfo) (driver.Swapchain, driver.Result) {
	device := d.devices.get(uint64(dev))
	surface := d.surfaces.get(uint64(info.Surface))

	// Figure out a suitable surface transform and composite alpha mode.
	preTransform := vk.SurfaceTransformIdentityBit
	compositeAlpha := vk.CompositeAlphaOpaqueBit
	if gpu, ok := d.gpuOf.Load(dev); ok {
		var caps vk.SurfaceCapabilities
		ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu.(vk.PhysicalDevice), surface, &caps)
		if isError(ret) {
			return 0, driver.Result(ret)
		}
		caps.Deref()
		if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit == 0 {
			preTransform = caps.CurrentTransform
		}
		for _, bit := range []vk.CompositeAlphaFlagBits{
			vk.CompositeAlphaOpaqueBit,
			vk.CompositeAlphaPreMultipliedBit,
			vk.CompositeAlphaPostMultipliedBit,
			vk.CompositeAlphaInheritBit,
		} {
			if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(bit) != 0 {
				compositeAlpha = bit
				break
			}
		}
	}

	usage := info.Usage
	if usage == 0 {
		usage = driver.ImageUsageColorAttachment
	}
	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(device, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format.Format),
		ImageColorSpace:  vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      vkExtent(info.Extent),
		ImageUsage:       vk.ImageUsageFlags(usage),
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      vk.PresentMode(info.PresentMode),
		OldSwapchain:     d.swapchains.get(uint64(info.OldSwapchain)),
		Clipped:          vk.True,
	}, nil, &swapchain)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.Swapchain(d.swapchains.add(swapchain)), driver.Success
}

func (d *Driver) DestroySwapchain(dev driver.Device, sc driver.Swapchain) {
	if swapchain, ok := d.swapchains.remove(uint64(sc)); ok {
		vk.DestroySwapchain(d.devices.get(uint64(dev)), swapchain, nil)
	}
	if images, ok := d.owned.LoadAndDelete(sc); ok {
		for _, img := range images.([]driver.Image) {
			d.images.remove(uint64(img))
		}
	}
}

// SwapchainImages returns handles owned by the swapchain. They stay valid
// until the swapchain is destroyed and must not be destroyed directly.
func (d *Driver) SwapchainImages(dev driver.Device, sc driver.Swapchain) ([]driver.Image, driver.Result) {
	device, swapchain := d.devices.get(uint64(dev)), d.swapchains.get(uint64(sc))
	var count uint32
	ret := vk.GetSwapchainImages(device, swapchain, &count, nil)
	if isError(ret) {
		return nil, driver.Result(ret)
	}
	images := make([]vk.Image, count)
	ret = vk.GetSwapchainImages(device, swapchain, &count, images)
	if isError(ret) {
		return nil, driver.Result(ret)
	}
	out := make([]driver.Image, count)
	for i, img := range images[:count] {
		out[i] = driver.Image(d.images.find(img))
	}
	d.owned.Store(sc, out)
	return out, driver.Success
}

func (d *Driver) AcquireNextImage(dev driver.Device, sc driver.Swapchain, timeout uint64, sem driver.Semaphore, fence driver.Fence) (uint32, driver.Result) {
	var idx uint32
	ret := vk.AcquireNextImage(d.devices.get(uint64(dev)), d.swapchains.get(uint64(sc)), timeout,
		d.semaphores.get(uint64(sem)), d.fences.get(uint64(fence)), &idx)
	return idx, driver.Result(ret)
}

func (d *Driver) QueuePresent(q driver.Queue, info *driver.PresentInfo) driver.Result {
	ret := vk.QueuePresent(d.queues.get(uint64(q)), &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:    d.semaphoreList(info.WaitSemaphores),
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchains.get(uint64(info.Swapchain))},
		PImageIndices:      []uint32{info.ImageIndex},
	})
	return driver.Result(ret)
}

func (d *Driver) CreateImageView(dev driver.Device, info *driver.ImageViewCreateInfo) (driver.ImageView, driver.Result) {
	var view vk.ImageView
	ret := vk.CreateImageView(d.devices.get(uint64(dev)), &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.images.get(uint64(info.Image)),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(info.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.ImageView(d.views.add(view)), driver.Success
}

func (d *Driver) DestroyImageView(dev driver.Device, view driver.ImageView) {
	if v, ok := d.views.remove(uint64(view)); ok {
		vk.DestroyImageView(d.devices.get(uint64(dev)), v, nil)
	}
}

func (d *Driver) CreateRenderPass(dev driver.Device, info *driver.RenderPassCreateInfo) (driver.RenderPass, driver.Result) {
	finalLayout := info.FinalLayout
	if finalLayout == driver.ImageLayoutUndefined {
		finalLayout = driver.ImageLayoutPresentSrc
	}
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(info.ColorFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayout(finalLayout),
	}}
	colorRefs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorRefs,
	}}
	// The color write waits for the acquire semaphore, which is waited on
	// at the color attachment output stage.
	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}}
	var rp vk.RenderPass
	ret := vk.CreateRenderPass(d.devices.get(uint64(dev)), &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &rp)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.RenderPass(d.renderPasses.add(rp)), driver.Success
}

func (d *Driver) DestroyRenderPass(dev driver.Device, rp driver.RenderPass) {
	if r, ok := d.renderPasses.remove(uint64(rp)); ok {
		vk.DestroyRenderPass(d.devices.get(uint64(dev)), r, nil)
	}
}

func (d *Driver) CreateFramebuffer(dev driver.Device, info *driver.FramebufferCreateInfo) (driver.Framebuffer, driver.Result) {
	views := make([]vk.ImageView, len(info.Attachments))
	for i, a := range info.Attachments {
		views[i] = d.views.get(uint64(a))
	}
	var fb vk.Framebuffer
	ret := vk.CreateFramebuffer(d.devices.get(uint64(dev)), &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.renderPasses.get(uint64(info.RenderPass)),
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           info.Extent.Width,
		Height:          info.Extent.Height,
		Layers:          1,
	}, nil, &fb)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.Framebuffer(d.framebuffers.add(fb)), driver.Success
}

func (d *Driver) DestroyFramebuffer(dev driver.Device, fb driver.Framebuffer) {
	if f, ok := d.framebuffers.remove(uint64(fb)); ok {
		vk.DestroyFramebuffer(d.devices.get(uint64(dev)), f, nil)
	}
}
