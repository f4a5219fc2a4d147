package vkframe

import (
	"github.com/pkg/errors"

	"github.com/andewx/vkframe/driver"
)

// Graphics drives the frame loop on a single graphics queue, swapchain
// and render pass.
//
// Each frame slot owns a command buffer, an image-available semaphore and
// a frame fence; each swapchain image owns a render-finished semaphore and
// a framebuffer. A frame waits on its slot fence before touching any of
// the slot's objects, so at most FramesInFlight frames are pending on the
// GPU. Synchronization objects survive swapchain recreation.
//
// Graphics is not safe for concurrent use.
type Graphics struct {
	cfg     Config
	drv     driver.Driver
	surface driver.Surface
	window  Window

	physical      *PhysicalDevice
	device        *Device
	graphicsQueue *Queue
	presentQueue  *Queue
	swapchain     *Swapchain
	renderPass    *RenderPass
	vert, frag    *ShaderModule
	layout        *PipelineLayout
	pipeline      *GraphicsPipeline
	vertices      *Buffer
	vertexCount   uint32
	pool          *CommandPool
	commands      []*CommandBuffer
	framebuffers  []*Framebuffer

	imagesAvailable []*Semaphore // per frame slot
	imagesDrawn     []*Semaphore // per swapchain image
	framesInFlight  []*Fence     // per frame slot

	watcher *ShaderWatcher
	timer   frameTimer

	slot      int
	image     uint32
	recording bool
	resized   bool
}

// NewGraphics builds everything needed to render to surface: device,
// queues, swapchain, render pass, pipeline, vertex buffer, command buffers,
// framebuffers and synchronization objects. The surface stays owned by the
// caller and must outlive the Graphics.
func NewGraphics(drv driver.Driver, surface driver.Surface, window Window, cfg Config) (g *Graphics, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	propagateLogger(drv)

	g = &Graphics{
		cfg:     cfg,
		drv:     drv,
		surface: surface,
		window:  window,
	}
	defer func() {
		if err != nil {
			g = nil
		}
	}()
	defer checkErr(&err)
	cleanup := func() { g.Destroy() }

	devices, err := EnumeratePhysicalDevices(drv)
	orPanic(err)
	g.physical, err = SelectPhysicalDevice(devices, surface, cfg.DeviceExtensions)
	orPanic(err)
	g.device, err = NewDevice(g.physical, surface, cfg.DeviceExtensions, cfg.Layers)
	orPanic(err)

	g.graphicsQueue, err = g.device.FindGraphicsQueue()
	orPanic(err, cleanup)
	g.presentQueue = g.graphicsQueue
	if !g.graphicsQueue.SupportsPresent(surface) {
		g.presentQueue, err = g.device.FindPresentQueue(surface)
		orPanic(err, cleanup)
	}

	g.swapchain, err = NewSwapchain(g.device, surface, window, cfg.SwapchainOptions())
	orPanic(err, cleanup)
	g.renderPass, err = NewRenderPass(g.swapchain)
	orPanic(err, cleanup)

	g.vert, err = NewShaderModule(g.device, cfg.VertexShader)
	orPanic(err, cleanup)
	g.frag, err = NewShaderModule(g.device, cfg.FragmentShader)
	orPanic(err, cleanup)
	g.layout, err = NewPipelineLayout(g.device, pointSize)
	orPanic(err, cleanup)
	g.pipeline, err = NewGraphicsPipeline(g.layout, g.vert, g.frag, g.renderPass)
	orPanic(err, cleanup)

	g.vertices, err = NewVertexBuffer(g.device, TriangleVertices)
	orPanic(err, cleanup)
	g.vertexCount = uint32(len(TriangleVertices))

	g.pool, err = NewCommandPool(g.device, g.graphicsQueue.Family, driver.CommandPoolResetCommandBuffer)
	orPanic(err, cleanup)
	g.commands, err = g.pool.AllocateCommandBuffers(cfg.FramesInFlight)
	orPanic(err, cleanup)

	g.framebuffers, err = g.swapchain.CreateFramebuffers(g.renderPass)
	orPanic(err, cleanup)

	for i := 0; i < cfg.FramesInFlight; i++ {
		sem, err := NewSemaphore(g.device)
		orPanic(err, cleanup)
		g.imagesAvailable = append(g.imagesAvailable, sem)
		fence, err := NewFence(g.device, false)
		orPanic(err, cleanup)
		g.framesInFlight = append(g.framesInFlight, fence)
	}
	orPanic(g.resizeImagesDrawn(g.swapchain.ImageCount()), cleanup)

	if cfg.WatchShaders {
		g.watcher, err = NewShaderWatcher(cfg.VertexShader, cfg.FragmentShader)
		orPanic(err, cleanup)
	}

	Logger().Info("vkframe: graphics ready",
		"device", g.physical.Name(),
		"frames_in_flight", cfg.FramesInFlight,
		"images", g.swapchain.ImageCount())
	return g, nil
}

func (g *Graphics) Device() *Device { return g.device }

func (g *Graphics) Swapchain() *Swapchain { return g.swapchain }

func (g *Graphics) Pipeline() *GraphicsPipeline { return g.pipeline }

// Slot returns the frame slot the next frame will use.
func (g *Graphics) Slot() int { return g.slot }

// FramesInFlight returns the number of frame slots.
func (g *Graphics) FramesInFlight() int { return len(g.framesInFlight) }

// Stats returns the frame statistics gathered so far.
func (g *Graphics) Stats() FrameStats { return g.timer.stats }

// SurfaceResized schedules a swapchain recreation after the next present.
// Window systems call it from their resize callback.
func (g *Graphics) SurfaceResized() {
	g.resized = true
}

// RenderBegin waits until the current frame slot is free, acquires a
// swapchain image and starts recording the frame's command buffer inside
// the render pass. An out-of-date swapchain is recreated and the
// acquisition retried once; if that fails too the frame is skipped and
// RenderBegin reports false with nothing recorded or pending.
// Unrecoverable driver errors panic.
func (g *Graphics) RenderBegin() bool {
	if g.recording {
		panic(errors.Wrap(ErrCommandState, "render begin while a frame is open"))
	}
	g.reloadIfChanged()
	g.timer.begin()

	fence := g.framesInFlight[g.slot]
	fence.Wait()

	image, ok := g.acquire()
	if !ok {
		g.timer.skip()
		return false
	}
	// Reset only once the frame is certain to be submitted; a skipped
	// frame must leave the fence waitable.
	fence.Reset()
	g.image = image

	cb := g.commands[g.slot]
	cb.Begin(0)
	cb.BeginRenderPass(g.renderPass, g.framebuffers[image], g.cfg.ClearColor)
	cb.SetViewport(g.swapchain.Extent)
	g.recording = true
	return true
}

func (g *Graphics) acquire() (uint32, bool) {
	sem := g.imagesAvailable[g.slot]
	for retried := false; ; retried = true {
		image, res := g.swapchain.AcquireNextImage(sem)
		switch res {
		case driver.Success:
			return image, true
		case driver.Suboptimal:
			// Still presentable; recreate once this frame is out.
			g.resized = true
			return image, true
		case driver.ErrorOutOfDate:
			if retried {
				Logger().Warn("vkframe: swapchain still out of date after recreation, frame skipped")
				return 0, false
			}
			orPanic(g.recreate())
		default:
			orPanic(newError(res, "acquire next image"))
		}
	}
}

// Draw draws the built-in triangle at the origin.
func (g *Graphics) Draw() {
	g.DrawAt(Point{})
}

// DrawAt draws the built-in triangle offset by p.
func (g *Graphics) DrawAt(p Point) {
	cb := g.commands[g.slot]
	cb.Bind(g.pipeline)
	cb.BindVertexBuffer(g.vertices)
	cb.PushConstants(g.layout, driver.ShaderStageVertex, p.Bytes())
	cb.Draw(g.vertexCount)
}

// RenderEnd finishes recording, submits the frame and presents it. The
// submission waits for the image to be available and signals the
// image's render-finished semaphore, which the present waits on.
func (g *Graphics) RenderEnd() {
	if !g.recording {
		panic(errors.Wrap(ErrCommandState, "render end without render begin"))
	}
	cb := g.commands[g.slot]
	cb.EndRenderPass()
	cb.End()

	available := g.imagesAvailable[g.slot]
	drawn := g.imagesDrawn[g.image]
	orPanic(g.graphicsQueue.Submit(cb, []*Semaphore{available}, []*Semaphore{drawn}, g.framesInFlight[g.slot]))
	g.recording = false

	res := g.presentQueue.Present(g.swapchain, g.image, []*Semaphore{drawn})
	switch {
	case res != driver.Success && !res.IsOutOfDate():
		// A pending resize never masks a device fault.
		orPanic(newError(res, "queue present"))
	case res.IsOutOfDate() || g.resized:
		if res == driver.Suboptimal {
			Logger().Warn("vkframe: suboptimal present")
		}
		orPanic(g.recreate())
	}

	g.slot = (g.slot + 1) % len(g.framesInFlight)
	g.timer.end()
}

// RenderFrame renders one frame with the built-in triangle. It reports
// false if the frame was skipped.
func (g *Graphics) RenderFrame() bool {
	if !g.RenderBegin() {
		return false
	}
	g.Draw()
	g.RenderEnd()
	return true
}

// recreate rebuilds the swapchain and everything derived from it. The
// framebuffers go first since they reference the swapchain views.
func (g *Graphics) recreate() (err error) {
	defer checkErr(&err)

	g.resized = false
	orPanic(g.device.WaitIdle())
	for _, fb := range g.framebuffers {
		fb.Destroy()
	}
	g.framebuffers = nil
	g.pipeline.Destroy()
	g.renderPass.Destroy()

	orPanic(g.swapchain.Recreate())

	g.renderPass, err = NewRenderPass(g.swapchain)
	orPanic(err)
	g.pipeline, err = NewGraphicsPipeline(g.layout, g.vert, g.frag, g.renderPass)
	orPanic(err)
	g.framebuffers, err = g.swapchain.CreateFramebuffers(g.renderPass)
	orPanic(err)
	orPanic(g.resizeImagesDrawn(g.swapchain.ImageCount()))

	g.timer.recreated()
	Logger().Debug("vkframe: swapchain recreated",
		"images", g.swapchain.ImageCount(),
		"width", g.swapchain.Extent.Width,
		"height", g.swapchain.Extent.Height)
	return nil
}

// resizeImagesDrawn keeps one render-finished semaphore per swapchain
// image. Existing semaphores are kept.
func (g *Graphics) resizeImagesDrawn(n int) error {
	for len(g.imagesDrawn) > n {
		last := len(g.imagesDrawn) - 1
		g.imagesDrawn[last].Destroy()
		g.imagesDrawn = g.imagesDrawn[:last]
	}
	for len(g.imagesDrawn) < n {
		sem, err := NewSemaphore(g.device)
		if err != nil {
			return err
		}
		g.imagesDrawn = append(g.imagesDrawn, sem)
	}
	return nil
}

func (g *Graphics) reloadIfChanged() {
	if g.watcher == nil || !g.watcher.Dirty() {
		return
	}
	if err := g.ReloadShaders(); err != nil {
		Logger().Warn("vkframe: shader reload failed, keeping previous pipeline", "err", err)
	}
}

// ReloadShaders reloads both shader stages from disk and rebuilds the
// pipeline. On error the previous pipeline stays in use. It must not be
// called while a frame is being recorded.
func (g *Graphics) ReloadShaders() (err error) {
	if g.recording {
		return errors.Wrap(ErrCommandState, "reload shaders while a frame is open")
	}
	vert, err := NewShaderModule(g.device, g.cfg.VertexShader)
	if err != nil {
		return err
	}
	frag, err := NewShaderModule(g.device, g.cfg.FragmentShader)
	if err != nil {
		vert.Destroy()
		return err
	}
	if err := g.device.WaitIdle(); err != nil {
		vert.Destroy()
		frag.Destroy()
		return err
	}
	pipeline, err := NewGraphicsPipeline(g.layout, vert, frag, g.renderPass)
	if err != nil {
		vert.Destroy()
		frag.Destroy()
		return err
	}
	g.pipeline.Destroy()
	g.vert.Destroy()
	g.frag.Destroy()
	g.pipeline, g.vert, g.frag = pipeline, vert, frag
	Logger().Info("vkframe: shaders reloaded")
	return nil
}

// Destroy waits for the device to go idle and destroys everything
// NewGraphics created, in reverse order. It is safe to call on a
// partially constructed Graphics.
func (g *Graphics) Destroy() {
	if g.device == nil {
		return
	}
	if g.device.handle != driver.NullHandle {
		if err := g.device.WaitIdle(); err != nil {
			Logger().Warn("vkframe: wait idle before destroy", "err", err)
		}
	}
	if g.watcher != nil {
		g.watcher.Close()
		g.watcher = nil
	}
	for _, f := range g.framesInFlight {
		f.Destroy()
	}
	for _, s := range g.imagesDrawn {
		s.Destroy()
	}
	for _, s := range g.imagesAvailable {
		s.Destroy()
	}
	g.framesInFlight, g.imagesDrawn, g.imagesAvailable = nil, nil, nil
	for _, fb := range g.framebuffers {
		fb.Destroy()
	}
	g.framebuffers = nil
	if g.pool != nil {
		g.pool.Destroy()
		g.pool, g.commands = nil, nil
	}
	if g.vertices != nil {
		g.vertices.Destroy()
	}
	if g.pipeline != nil {
		g.pipeline.Destroy()
	}
	if g.layout != nil {
		g.layout.Destroy()
	}
	if g.frag != nil {
		g.frag.Destroy()
	}
	if g.vert != nil {
		g.vert.Destroy()
	}
	if g.renderPass != nil {
		g.renderPass.Destroy()
	}
	if g.swapchain != nil {
		g.swapchain.Destroy()
	}
	g.vertices, g.pipeline, g.layout, g.frag, g.vert, g.renderPass, g.swapchain = nil, nil, nil, nil, nil, nil, nil
	g.device.Destroy()
	g.device = nil
	g.recording = false
}
