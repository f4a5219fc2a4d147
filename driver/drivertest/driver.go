package drivertest

import (
	"github.com/andewx/vkframe/driver"
)

const physicalDevice driver.PhysicalDevice = 1 << 32

func (g *GPU) Name() string { return "drivertest" }

func (g *GPU) PhysicalDevices() ([]driver.PhysicalDevice, driver.Result) {
	return []driver.PhysicalDevice{physicalDevice}, driver.Success
}

func (g *GPU) PhysicalDeviceProperties(pd driver.PhysicalDevice) driver.PhysicalDeviceProperties {
	return driver.PhysicalDeviceProperties{
		Name:       "Simulated GPU",
		Type:       driver.DeviceTypeDiscreteGPU,
		APIVersion: 1<<22 | 3<<12,
	}
}

func (g *GPU) QueueFamilies(pd driver.PhysicalDevice) []driver.QueueFamily {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]driver.QueueFamily(nil), g.families...)
}

func (g *GPU) DeviceExtensions(pd driver.PhysicalDevice) ([]string, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.extensions...), driver.Success
}

func (g *GPU) MemoryTypes(pd driver.PhysicalDevice) []driver.MemoryType {
	return append([]driver.MemoryType(nil), g.memoryTypes...)
}

func (g *GPU) SurfaceSupport(pd driver.PhysicalDevice, family uint32, surface driver.Surface) (bool, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(family) >= len(g.families) {
		return false, driver.ErrorInitializationFailed
	}
	if g.presentFamilies == nil {
		return true, driver.Success
	}
	return g.presentFamilies[family], driver.Success
}

func (g *GPU) SurfaceCapabilities(pd driver.PhysicalDevice, surface driver.Surface) (driver.SurfaceCapabilities, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live[driver.Handle(surface)] != "surface" {
		return driver.SurfaceCapabilities{}, driver.ErrorSurfaceLost
	}
	return g.caps, driver.Success
}

func (g *GPU) SurfaceFormats(pd driver.PhysicalDevice, surface driver.Surface) ([]driver.SurfaceFormat, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]driver.SurfaceFormat(nil), g.formats...), driver.Success
}

func (g *GPU) SurfacePresentModes(pd driver.PhysicalDevice, surface driver.Surface) ([]driver.PresentMode, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]driver.PresentMode(nil), g.modes...), driver.Success
}

func (g *GPU) CreateDevice(pd driver.PhysicalDevice, info *driver.DeviceCreateInfo) (driver.Device, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, q := range info.Queues {
		if int(q.Family) >= len(g.families) {
			return 0, driver.ErrorInitializationFailed
		}
	}
	for _, name := range info.Extensions {
		found := false
		for _, ext := range g.extensions {
			if ext == name {
				found = true
				break
			}
		}
		if !found {
			return 0, driver.ErrorExtensionNotPresent
		}
	}
	return driver.Device(g.newHandle("device")), driver.Success
}

// DestroyDevice reports every object other than surfaces that is still
// alive when the device goes away.
func (g *GPU) DestroyDevice(dev driver.Device) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.release(driver.Handle(dev), "device") {
		return
	}
	for h, kind := range g.live {
		if kind != "surface" && kind != "device" {
			g.violate("device destroyed with live %s %d", kind, h)
		}
	}
}

func (g *GPU) GetDeviceQueue(dev driver.Device, family, index uint32) driver.Queue {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := [2]uint32{family, index}
	if q, ok := g.queues[key]; ok {
		return q
	}
	g.next++
	q := driver.Queue(g.next)
	g.queues[key] = q
	return q
}

func (g *GPU) DeviceWaitIdle(dev driver.Device) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.completeNext() {
	}
	return driver.Success
}

func (g *GPU) CreateSemaphore(dev driver.Device) (driver.Semaphore, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := driver.Semaphore(g.newHandle("semaphore"))
	g.semaphores[s] = false
	return s, driver.Success
}

func (g *GPU) DestroySemaphore(dev driver.Device, sem driver.Semaphore) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.pending {
		for _, sig := range s.signals {
			if sig == sem {
				g.violate("semaphore %d destroyed while a pending submission signals it", sem)
			}
		}
	}
	if g.release(driver.Handle(sem), "semaphore") {
		delete(g.semaphores, sem)
	}
}

func (g *GPU) CreateFence(dev driver.Device, signaled bool) (driver.Fence, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f := driver.Fence(g.newHandle("fence"))
	g.fences[f] = &fenceState{signaled: signaled}
	return f, driver.Success
}

func (g *GPU) DestroyFence(dev driver.Device, fence driver.Fence) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.fences[fence]; ok && f.pending {
		g.violate("fence %d destroyed while in use", fence)
	}
	if g.release(driver.Handle(fence), "fence") {
		delete(g.fences, fence)
	}
}

func (g *GPU) WaitForFence(dev driver.Device, fence driver.Fence, timeout uint64) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.fences[fence]
	if !ok {
		g.violate("wait on unknown fence %d", fence)
		return driver.ErrorDeviceLost
	}
	notified := false
	for !f.signaled {
		if !f.pending {
			if timeout == driver.MaxTimeout {
				g.violate("wait on fence %d with no pending work", fence)
			}
			return driver.Timeout
		}
		if timeout == 0 {
			return driver.Timeout
		}
		if !g.manual {
			g.completeNext()
			continue
		}
		if !notified {
			notified = true
			select {
			case g.blocked <- fence:
			default:
			}
		}
		g.cond.Wait()
	}
	return driver.Success
}

func (g *GPU) ResetFence(dev driver.Device, fence driver.Fence) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.fences[fence]
	if !ok {
		g.violate("reset of unknown fence %d", fence)
		return driver.ErrorDeviceLost
	}
	if f.pending {
		g.violate("reset of fence %d while in use", fence)
	}
	f.signaled = false
	return driver.Success
}

func (g *GPU) FenceStatus(dev driver.Device, fence driver.Fence) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.fences[fence]; ok && f.signaled {
		return driver.Success
	}
	return driver.NotReady
}

func (g *GPU) CreateSwapchain(dev driver.Device, info *driver.SwapchainCreateInfo) (driver.Swapchain, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live[driver.Handle(info.Surface)] != "surface" {
		return 0, driver.ErrorSurfaceLost
	}
	if info.MinImageCount < g.caps.MinImageCount ||
		(g.caps.MaxImageCount > 0 && info.MinImageCount > g.caps.MaxImageCount) {
		g.violate("swapchain image count %d outside [%d, %d]",
			info.MinImageCount, g.caps.MinImageCount, g.caps.MaxImageCount)
		return 0, driver.ErrorInitializationFailed
	}
	if info.Extent.IsZero() {
		g.violate("swapchain created with zero extent")
		return 0, driver.ErrorInitializationFailed
	}
	if !containsFormat(g.formats, info.Format) {
		g.violate("swapchain format %v not supported", info.Format.Format)
		return 0, driver.ErrorFeatureNotPresent
	}
	if !containsMode(g.modes, info.PresentMode) {
		g.violate("present mode %v not supported", info.PresentMode)
		return 0, driver.ErrorFeatureNotPresent
	}
	if info.OldSwapchain != 0 {
		if _, ok := g.swapchains[info.OldSwapchain]; !ok {
			g.violate("old swapchain %d is not alive", info.OldSwapchain)
		}
	}
	sc := driver.Swapchain(g.newHandle("swapchain"))
	st := &swapchainState{
		info:      *info,
		images:    make([]driver.Image, info.MinImageCount),
		acquired:  make([]bool, info.MinImageCount),
		outOfDate: g.alwaysOutOfDate,
	}
	for i := range st.images {
		g.next++
		st.images[i] = driver.Image(g.next)
		g.images[st.images[i]] = sc
	}
	g.swapchains[sc] = st
	g.createdSwapchains++
	return sc, driver.Success
}

func (g *GPU) DestroySwapchain(dev driver.Device, sc driver.Swapchain) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.swapchains[sc]
	if !ok {
		g.release(driver.Handle(sc), "swapchain")
		return
	}
	for view, img := range g.views {
		if g.images[img] == sc {
			g.violate("swapchain %d destroyed before image view %d", sc, view)
		}
	}
	for _, img := range st.images {
		delete(g.images, img)
	}
	delete(g.swapchains, sc)
	g.release(driver.Handle(sc), "swapchain")
}

func (g *GPU) SwapchainImages(dev driver.Device, sc driver.Swapchain) ([]driver.Image, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.swapchains[sc]
	if !ok {
		return nil, driver.ErrorSurfaceLost
	}
	return append([]driver.Image(nil), st.images...), driver.Success
}

func (g *GPU) AcquireNextImage(dev driver.Device, sc driver.Swapchain, timeout uint64, sem driver.Semaphore, fence driver.Fence) (uint32, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquireCalls++
	st, ok := g.swapchains[sc]
	if !ok {
		g.violate("acquire from unknown swapchain %d", sc)
		return 0, driver.ErrorSurfaceLost
	}
	res := driver.Success
	if fault, ok := g.acquireFaults[g.acquireCalls]; ok {
		if fault == driver.ErrorOutOfDate {
			st.outOfDate = true
		} else if fault != driver.Suboptimal {
			g.acquires = append(g.acquires, AcquireRecord{Swapchain: sc, Semaphore: sem, Result: fault})
			return 0, fault
		}
		res = fault
	}
	if st.outOfDate {
		g.acquires = append(g.acquires, AcquireRecord{Swapchain: sc, Semaphore: sem, Result: driver.ErrorOutOfDate})
		return 0, driver.ErrorOutOfDate
	}
	if sem != 0 {
		signaled, ok := g.semaphores[sem]
		switch {
		case !ok:
			g.violate("acquire signals unknown semaphore %d", sem)
		case signaled:
			g.violate("acquire signals semaphore %d that is already signaled", sem)
		}
		g.semaphores[sem] = true
	}
	idx := st.next
	if st.acquired[idx] {
		g.violate("image %d of swapchain %d acquired twice without present", idx, sc)
	}
	st.acquired[idx] = true
	st.next = (st.next + 1) % len(st.images)
	if fence != 0 {
		if f, ok := g.fences[fence]; ok {
			f.signaled = true
		}
	}
	g.acquires = append(g.acquires, AcquireRecord{Swapchain: sc, Semaphore: sem, ImageIndex: uint32(idx), Result: res})
	return uint32(idx), res
}

func (g *GPU) QueueSubmit(q driver.Queue, submits []driver.SubmitInfo, fence driver.Fence) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitCalls++
	if fault, ok := g.submitFaults[g.submitCalls]; ok {
		return fault
	}
	if fence != 0 {
		f, ok := g.fences[fence]
		switch {
		case !ok:
			g.violate("submit with unknown fence %d", fence)
		case f.signaled:
			g.violate("submit with fence %d that is still signaled", fence)
		case f.pending:
			g.violate("submit with fence %d that is already in use", fence)
		}
		if ok {
			f.pending = true
		}
	}
	s := &submission{fence: fence}
	for i, info := range submits {
		rec := SubmitRecord{
			Queue:          q,
			Wait:           append([]driver.Semaphore(nil), info.WaitSemaphores...),
			Signal:         append([]driver.Semaphore(nil), info.SignalSemaphores...),
			CommandBuffers: append([]driver.CommandBuffer(nil), info.CommandBuffers...),
		}
		if i == len(submits)-1 {
			rec.Fence = fence
		}
		for _, sem := range info.WaitSemaphores {
			g.waitSemaphore(sem)
		}
		for _, cb := range info.CommandBuffers {
			cs, ok := g.commandBuffers[cb]
			if !ok {
				g.violate("submit of unknown command buffer %d", cb)
				continue
			}
			if cs.recording {
				g.violate("submit of command buffer %d in recording state", cb)
			}
			for _, fb := range cs.framebuffers {
				if _, ok := g.framebuffers[fb]; !ok {
					g.violate("command buffer %d references destroyed framebuffer %d", cb, fb)
				}
			}
			cs.pending++
			s.cbs = append(s.cbs, cb)
			rec.Framebuffers = append(rec.Framebuffers, cs.framebuffers...)
			rec.Draws += cs.draws
		}
		for _, sem := range info.SignalSemaphores {
			if signaled := g.semaphores[sem]; signaled {
				g.violate("submit signals semaphore %d that is already signaled", sem)
			}
			g.semaphores[sem] = true
			s.signals = append(s.signals, sem)
		}
		g.submits = append(g.submits, rec)
	}
	g.pending = append(g.pending, s)
	if len(g.pending) > g.maxInFlight {
		g.maxInFlight = len(g.pending)
	}
	return driver.Success
}

func (g *GPU) waitSemaphore(sem driver.Semaphore) {
	signaled, ok := g.semaphores[sem]
	switch {
	case !ok:
		g.violate("wait on unknown semaphore %d", sem)
	case !signaled:
		g.violate("wait on semaphore %d with no pending signal", sem)
	}
	if ok {
		g.semaphores[sem] = false
	}
}

func (g *GPU) QueuePresent(q driver.Queue, info *driver.PresentInfo) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.presentCalls++
	for _, sem := range info.WaitSemaphores {
		g.waitSemaphore(sem)
	}
	rec := PresentRecord{
		Queue:      q,
		Wait:       append([]driver.Semaphore(nil), info.WaitSemaphores...),
		Swapchain:  info.Swapchain,
		ImageIndex: info.ImageIndex,
	}
	st, ok := g.swapchains[info.Swapchain]
	if !ok {
		g.violate("present to unknown swapchain %d", info.Swapchain)
		rec.Result = driver.ErrorSurfaceLost
		g.presents = append(g.presents, rec)
		return rec.Result
	}
	if int(info.ImageIndex) >= len(st.acquired) || !st.acquired[info.ImageIndex] {
		g.violate("present of image %d that was not acquired", info.ImageIndex)
	} else {
		st.acquired[info.ImageIndex] = false
	}
	rec.Result = driver.Success
	if fault, ok := g.presentFaults[g.presentCalls]; ok {
		if fault == driver.ErrorOutOfDate {
			st.outOfDate = true
		}
		rec.Result = fault
	} else if st.outOfDate {
		rec.Result = driver.ErrorOutOfDate
	}
	g.presents = append(g.presents, rec)
	return rec.Result
}

func (g *GPU) CreateImageView(dev driver.Device, info *driver.ImageViewCreateInfo) (driver.ImageView, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.images[info.Image]; !ok && g.live[driver.Handle(info.Image)] != "image" {
		g.violate("view of unknown image %d", info.Image)
		return 0, driver.ErrorInitializationFailed
	}
	v := driver.ImageView(g.newHandle("image view"))
	g.views[v] = info.Image
	return v, driver.Success
}

func (g *GPU) DestroyImageView(dev driver.Device, view driver.ImageView) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for fb, atts := range g.framebuffers {
		for _, a := range atts {
			if a == view {
				g.violate("image view %d destroyed before framebuffer %d", view, fb)
			}
		}
	}
	if g.release(driver.Handle(view), "image view") {
		delete(g.views, view)
	}
}

func (g *GPU) CreateRenderPass(dev driver.Device, info *driver.RenderPassCreateInfo) (driver.RenderPass, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if info.ColorFormat == driver.FormatUndefined {
		return 0, driver.ErrorInitializationFailed
	}
	return driver.RenderPass(g.newHandle("render pass")), driver.Success
}

func (g *GPU) DestroyRenderPass(dev driver.Device, rp driver.RenderPass) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for cb, cs := range g.commandBuffers {
		if cs.pending == 0 {
			continue
		}
		for _, r := range cs.renderPasses {
			if r == rp {
				g.violate("render pass %d destroyed while command buffer %d is pending", rp, cb)
			}
		}
	}
	g.release(driver.Handle(rp), "render pass")
}

func (g *GPU) CreateFramebuffer(dev driver.Device, info *driver.FramebufferCreateInfo) (driver.Framebuffer, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live[driver.Handle(info.RenderPass)] != "render pass" {
		g.violate("framebuffer with unknown render pass %d", info.RenderPass)
		return 0, driver.ErrorInitializationFailed
	}
	for _, a := range info.Attachments {
		if _, ok := g.views[a]; !ok {
			g.violate("framebuffer with unknown attachment %d", a)
			return 0, driver.ErrorInitializationFailed
		}
	}
	fb := driver.Framebuffer(g.newHandle("framebuffer"))
	g.framebuffers[fb] = append([]driver.ImageView(nil), info.Attachments...)
	return fb, driver.Success
}

func (g *GPU) DestroyFramebuffer(dev driver.Device, fb driver.Framebuffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for cb, cs := range g.commandBuffers {
		if cs.pending == 0 {
			continue
		}
		for _, f := range cs.framebuffers {
			if f == fb {
				g.violate("framebuffer %d destroyed while command buffer %d is pending", fb, cb)
			}
		}
	}
	if g.release(driver.Handle(fb), "framebuffer") {
		delete(g.framebuffers, fb)
	}
}

func (g *GPU) CreateCommandPool(dev driver.Device, family uint32, flags driver.CommandPoolFlags) (driver.CommandPool, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(family) >= len(g.families) {
		return 0, driver.ErrorInitializationFailed
	}
	return driver.CommandPool(g.newHandle("command pool")), driver.Success
}

func (g *GPU) DestroyCommandPool(dev driver.Device, pool driver.CommandPool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for cb, cs := range g.commandBuffers {
		if cs.pool != pool {
			continue
		}
		if cs.pending > 0 {
			g.violate("command pool %d destroyed while command buffer %d is pending", pool, cb)
		}
		delete(g.commandBuffers, cb)
		delete(g.live, driver.Handle(cb))
	}
	g.release(driver.Handle(pool), "command pool")
}

func (g *GPU) AllocateCommandBuffers(dev driver.Device, pool driver.CommandPool, count uint32) ([]driver.CommandBuffer, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live[driver.Handle(pool)] != "command pool" {
		return nil, driver.ErrorInitializationFailed
	}
	cbs := make([]driver.CommandBuffer, count)
	for i := range cbs {
		cbs[i] = driver.CommandBuffer(g.newHandle("command buffer"))
		g.commandBuffers[cbs[i]] = &commandState{pool: pool}
	}
	return cbs, driver.Success
}

func (g *GPU) FreeCommandBuffers(dev driver.Device, pool driver.CommandPool, cbs []driver.CommandBuffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, cb := range cbs {
		if cs, ok := g.commandBuffers[cb]; ok && cs.pending > 0 {
			g.violate("command buffer %d freed while pending", cb)
		}
		if g.release(driver.Handle(cb), "command buffer") {
			delete(g.commandBuffers, cb)
		}
	}
}

func (g *GPU) BeginCommandBuffer(cb driver.CommandBuffer, usage driver.CommandBufferUsage) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	cs, ok := g.commandBuffers[cb]
	if !ok {
		g.violate("begin of unknown command buffer %d", cb)
		return driver.ErrorInitializationFailed
	}
	if cs.pending > 0 {
		g.violate("command buffer %d re-recorded while pending", cb)
	}
	if cs.recording {
		g.violate("begin of command buffer %d already recording", cb)
	}
	cs.recording = true
	cs.framebuffers = nil
	cs.renderPasses = nil
	cs.pipelines = nil
	cs.draws = 0
	return driver.Success
}

func (g *GPU) EndCommandBuffer(cb driver.CommandBuffer) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	cs := g.recording(cb, "end")
	if cs == nil {
		return driver.ErrorInitializationFailed
	}
	cs.recording = false
	return driver.Success
}

func (g *GPU) ResetCommandBuffer(cb driver.CommandBuffer) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	cs, ok := g.commandBuffers[cb]
	if !ok {
		return driver.ErrorInitializationFailed
	}
	if cs.pending > 0 {
		g.violate("command buffer %d reset while pending", cb)
	}
	*cs = commandState{pool: cs.pool}
	return driver.Success
}

// recording returns the state of cb if it is recording and reports a
// violation otherwise. g.mu must be held.
func (g *GPU) recording(cb driver.CommandBuffer, op string) *commandState {
	cs, ok := g.commandBuffers[cb]
	if !ok || !cs.recording {
		g.violate("%s on command buffer %d outside recording", op, cb)
		return nil
	}
	return cs
}

func (g *GPU) CmdBeginRenderPass(cb driver.CommandBuffer, info *driver.RenderPassBeginInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cs := g.recording(cb, "begin render pass"); cs != nil {
		if _, ok := g.framebuffers[info.Framebuffer]; !ok {
			g.violate("render pass begun with unknown framebuffer %d", info.Framebuffer)
		}
		cs.framebuffers = append(cs.framebuffers, info.Framebuffer)
		cs.renderPasses = append(cs.renderPasses, info.RenderPass)
	}
}

func (g *GPU) CmdEndRenderPass(cb driver.CommandBuffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recording(cb, "end render pass")
}

func (g *GPU) CmdBindPipeline(cb driver.CommandBuffer, p driver.Pipeline) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cs := g.recording(cb, "bind pipeline"); cs != nil {
		cs.pipelines = append(cs.pipelines, p)
	}
}

func (g *GPU) CmdBindVertexBuffer(cb driver.CommandBuffer, buf driver.Buffer, offset uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recording(cb, "bind vertex buffer")
}

func (g *GPU) CmdSetViewport(cb driver.CommandBuffer, extent driver.Extent2D) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recording(cb, "set viewport")
}

func (g *GPU) CmdSetScissor(cb driver.CommandBuffer, extent driver.Extent2D) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recording(cb, "set scissor")
}

func (g *GPU) CmdPushConstants(cb driver.CommandBuffer, layout driver.PipelineLayout, stages driver.ShaderStage, offset uint32, data []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recording(cb, "push constants")
}

func (g *GPU) CmdDraw(cb driver.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cs := g.recording(cb, "draw"); cs != nil {
		cs.draws++
	}
}

func (g *GPU) CmdImageBarrier(cb driver.CommandBuffer, barrier *driver.ImageBarrier) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recording(cb, "image barrier")
}

func (g *GPU) CmdCopyBufferToImage(cb driver.CommandBuffer, buf driver.Buffer, img driver.Image, extent driver.Extent2D) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recording(cb, "copy buffer to image")
}

func (g *GPU) CreateBuffer(dev driver.Device, info *driver.BufferCreateInfo) (driver.Buffer, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if info.Size == 0 {
		return 0, driver.ErrorInitializationFailed
	}
	return driver.Buffer(g.newHandle("buffer")), driver.Success
}

func (g *GPU) DestroyBuffer(dev driver.Device, buf driver.Buffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release(driver.Handle(buf), "buffer")
}

func (g *GPU) BufferMemoryRequirements(dev driver.Device, buf driver.Buffer) driver.MemoryRequirements {
	return driver.MemoryRequirements{Size: 256, Alignment: 16, TypeBits: 0x3}
}

func (g *GPU) CreateImage(dev driver.Device, info *driver.ImageCreateInfo) (driver.Image, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if info.Extent.IsZero() {
		return 0, driver.ErrorInitializationFailed
	}
	return driver.Image(g.newHandle("image")), driver.Success
}

func (g *GPU) DestroyImage(dev driver.Device, img driver.Image) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release(driver.Handle(img), "image")
}

func (g *GPU) ImageMemoryRequirements(dev driver.Device, img driver.Image) driver.MemoryRequirements {
	return driver.MemoryRequirements{Size: 4096, Alignment: 256, TypeBits: 0x1}
}

func (g *GPU) AllocateMemory(dev driver.Device, size uint64, typeIndex uint32) (driver.DeviceMemory, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(typeIndex) >= len(g.memoryTypes) {
		return 0, driver.ErrorOutOfDeviceMemory
	}
	mem := driver.DeviceMemory(g.newHandle("memory"))
	g.memory[mem] = nil
	return mem, driver.Success
}

func (g *GPU) FreeMemory(dev driver.Device, mem driver.DeviceMemory) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.release(driver.Handle(mem), "memory") {
		delete(g.memory, mem)
	}
}

func (g *GPU) BindBufferMemory(dev driver.Device, buf driver.Buffer, mem driver.DeviceMemory) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.memory[mem]; !ok {
		return driver.ErrorInitializationFailed
	}
	return driver.Success
}

func (g *GPU) BindImageMemory(dev driver.Device, img driver.Image, mem driver.DeviceMemory) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.memory[mem]; !ok {
		return driver.ErrorInitializationFailed
	}
	return driver.Success
}

func (g *GPU) WriteMemory(dev driver.Device, mem driver.DeviceMemory, offset uint64, data []byte) driver.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	buf, ok := g.memory[mem]
	if !ok {
		return driver.ErrorMemoryMapFailed
	}
	if end := offset + uint64(len(data)); uint64(len(buf)) < end {
		buf = append(buf, make([]byte, end-uint64(len(buf)))...)
	}
	copy(buf[offset:], data)
	g.memory[mem] = buf
	return driver.Success
}

func (g *GPU) CreateShaderModule(dev driver.Device, code []byte) (driver.ShaderModule, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, driver.ErrorInitializationFailed
	}
	return driver.ShaderModule(g.newHandle("shader module")), driver.Success
}

func (g *GPU) DestroyShaderModule(dev driver.Device, m driver.ShaderModule) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release(driver.Handle(m), "shader module")
}

func (g *GPU) CreatePipelineLayout(dev driver.Device, info *driver.PipelineLayoutCreateInfo) (driver.PipelineLayout, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return driver.PipelineLayout(g.newHandle("pipeline layout")), driver.Success
}

func (g *GPU) DestroyPipelineLayout(dev driver.Device, layout driver.PipelineLayout) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release(driver.Handle(layout), "pipeline layout")
}

func (g *GPU) CreateGraphicsPipeline(dev driver.Device, info *driver.GraphicsPipelineCreateInfo) (driver.Pipeline, driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, h := range []struct {
		h    driver.Handle
		kind string
	}{
		{driver.Handle(info.Layout), "pipeline layout"},
		{driver.Handle(info.RenderPass), "render pass"},
		{driver.Handle(info.Vertex), "shader module"},
		{driver.Handle(info.Fragment), "shader module"},
	} {
		if g.live[h.h] != h.kind {
			g.violate("pipeline created with unknown %s %d", h.kind, h.h)
			return 0, driver.ErrorInitializationFailed
		}
	}
	return driver.Pipeline(g.newHandle("pipeline")), driver.Success
}

func (g *GPU) DestroyPipeline(dev driver.Device, p driver.Pipeline) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for cb, cs := range g.commandBuffers {
		if cs.pending == 0 {
			continue
		}
		for _, bound := range cs.pipelines {
			if bound == p {
				g.violate("pipeline %d destroyed while command buffer %d is pending", p, cb)
			}
		}
	}
	g.release(driver.Handle(p), "pipeline")
}

func containsFormat(formats []driver.SurfaceFormat, f driver.SurfaceFormat) bool {
	for _, sf := range formats {
		if sf == f {
			return true
		}
	}
	return false
}

func containsMode(modes []driver.PresentMode, m driver.PresentMode) bool {
	for _, pm := range modes {
		if pm == m {
			return true
		}
	}
	return false
}
