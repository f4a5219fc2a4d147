package vkframe

import (
	"github.com/pkg/errors"

	"github.com/andewx/vkframe/driver"
)

// Window is the part of the window system the swapchain needs: the
// drawable size for surfaces that leave the extent to the swapchain, and
// a way to sleep while the window is minimized.
type Window interface {
	FramebufferSize() (width, height int)
	WaitEvents()
}

// SwapchainState is the lifecycle state of a Swapchain.
type SwapchainState int

const (
	SwapchainUninitialized SwapchainState = iota
	SwapchainReady
	SwapchainRecreating
)

func (s SwapchainState) String() string {
	switch s {
	case SwapchainUninitialized:
		return "uninitialized"
	case SwapchainReady:
		return "ready"
	case SwapchainRecreating:
		return "recreating"
	}
	return "unknown"
}

// SwapchainOptions are the preferences a Swapchain tries to satisfy.
type SwapchainOptions struct {
	ImageCount  uint32
	Format      driver.Format
	PresentMode driver.PresentMode
}

// Swapchain owns the presentable images of a surface and one view per
// image. Framebuffers built on the views belong to the caller, which must
// destroy them before Recreate or Destroy.
type Swapchain struct {
	device  *Device
	surface driver.Surface
	window  Window
	opts    SwapchainOptions
	handle  driver.Swapchain
	state   SwapchainState

	Format      driver.SurfaceFormat
	PresentMode driver.PresentMode
	Extent      driver.Extent2D
	Images      []driver.Image
	Views       []*ImageView
}

// NewSwapchain creates a swapchain for surface. window may be nil when
// the surface always reports its extent.
func NewSwapchain(d *Device, surface driver.Surface, window Window, opts SwapchainOptions) (*Swapchain, error) {
	sc := &Swapchain{
		device:  d,
		surface: surface,
		window:  window,
		opts:    opts,
	}
	if err := sc.create(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *Swapchain) Handle() driver.Swapchain { return sc.handle }

func (sc *Swapchain) State() SwapchainState { return sc.state }

func (sc *Swapchain) ImageCount() int { return len(sc.Images) }

func (sc *Swapchain) create() (err error) {
	defer checkErr(&err)

	p := sc.device.physical
	caps, err := p.Capabilities(sc.surface)
	orPanic(err)
	formats, err := p.Formats(sc.surface)
	orPanic(err)
	modes, err := p.PresentModes(sc.surface)
	orPanic(err)

	format, err := chooseSurfaceFormat(formats, sc.opts.Format)
	orPanic(err)
	mode := choosePresentMode(modes, sc.opts.PresentMode)
	count := chooseImageCount(caps, sc.opts.ImageCount)

	extent := chooseExtent(caps, sc.window)
	for extent.IsZero() {
		if sc.window == nil {
			return errors.New("vkframe: surface has a zero extent")
		}
		// Minimized; nothing can be presented until the window is shown.
		sc.window.WaitEvents()
		caps, err = p.Capabilities(sc.surface)
		orPanic(err)
		extent = chooseExtent(caps, sc.window)
	}

	drv, dev := sc.device.drv, sc.device.handle
	handle, res := drv.CreateSwapchain(dev, &driver.SwapchainCreateInfo{
		Surface:       sc.surface,
		MinImageCount: count,
		Format:        format,
		Extent:        extent,
		Usage:         driver.ImageUsageColorAttachment,
		PresentMode:   mode,
	})
	orPanic(newError(res, "create swapchain"))

	images, res := drv.SwapchainImages(dev, handle)
	orPanic(newError(res, "get swapchain images"), func() {
		drv.DestroySwapchain(dev, handle)
	})

	views := make([]*ImageView, 0, len(images))
	for _, img := range images {
		v, err := newImageView(sc.device, img, format.Format)
		orPanic(err, func() {
			for _, v := range views {
				v.Destroy()
			}
			drv.DestroySwapchain(dev, handle)
		})
		views = append(views, v)
	}

	sc.handle = handle
	sc.Format = format
	sc.PresentMode = mode
	sc.Extent = extent
	sc.Images = images
	sc.Views = views
	sc.state = SwapchainReady

	Logger().Info("vkframe: swapchain created",
		"images", len(images),
		"format", format.Format,
		"present_mode", mode,
		"width", extent.Width,
		"height", extent.Height)
	return nil
}

// Recreate rebuilds the swapchain for the current surface state. The
// device is waited idle first. Framebuffers referencing the old views must
// already be destroyed.
func (sc *Swapchain) Recreate() error {
	sc.state = SwapchainRecreating
	Logger().Debug("vkframe: recreating swapchain", "old_images", len(sc.Images))
	if err := sc.device.WaitIdle(); err != nil {
		return err
	}
	sc.release()
	return sc.create()
}

func (sc *Swapchain) release() {
	for _, v := range sc.Views {
		v.Destroy()
	}
	sc.Views = nil
	sc.Images = nil
	if sc.handle != driver.NullHandle {
		sc.device.drv.DestroySwapchain(sc.device.handle, sc.handle)
		sc.handle = driver.NullHandle
	}
}

// CreateFramebuffers creates one framebuffer per swapchain view.
func (sc *Swapchain) CreateFramebuffers(rp *RenderPass) ([]*Framebuffer, error) {
	fbs := make([]*Framebuffer, 0, len(sc.Views))
	for _, v := range sc.Views {
		fb, err := NewFramebuffer(v, sc.Extent, rp)
		if err != nil {
			for _, fb := range fbs {
				fb.Destroy()
			}
			return nil, err
		}
		fbs = append(fbs, fb)
	}
	return fbs, nil
}

// AcquireNextImage acquires the next presentable image and arranges for
// sem to be signaled once it is ready. The raw result is returned so the
// caller can recover from the out-of-date class.
func (sc *Swapchain) AcquireNextImage(sem *Semaphore) (uint32, driver.Result) {
	return sc.device.drv.AcquireNextImage(sc.device.handle, sc.handle, driver.MaxTimeout, sem.handle, driver.NullHandle)
}

// Destroy destroys the views and the swapchain.
func (sc *Swapchain) Destroy() {
	sc.release()
	sc.state = SwapchainUninitialized
}

// chooseSurfaceFormat picks preferred if the surface supports it and the
// first reported format otherwise. A single undefined entry means the
// surface has no preference.
func chooseSurfaceFormat(formats []driver.SurfaceFormat, preferred driver.Format) (driver.SurfaceFormat, error) {
	if len(formats) == 0 {
		return driver.SurfaceFormat{}, ErrNoSurfaceFormat
	}
	if len(formats) == 1 && formats[0].Format == driver.FormatUndefined {
		return driver.SurfaceFormat{Format: preferred, ColorSpace: formats[0].ColorSpace}, nil
	}
	for _, f := range formats {
		if f.Format == preferred {
			return f, nil
		}
	}
	Logger().Warn("vkframe: preferred surface format unavailable", "preferred", preferred, "using", formats[0].Format)
	return formats[0], nil
}

// choosePresentMode picks preferred if available and FIFO, which every
// surface supports, otherwise.
func choosePresentMode(modes []driver.PresentMode, preferred driver.PresentMode) driver.PresentMode {
	for _, m := range modes {
		if m == preferred {
			return m
		}
	}
	if preferred != driver.PresentModeFifo {
		Logger().Warn("vkframe: preferred present mode unavailable", "preferred", preferred)
	}
	return driver.PresentModeFifo
}

// chooseImageCount clamps requested to the surface limits. A maximum of
// zero means there is no upper bound.
func chooseImageCount(caps driver.SurfaceCapabilities, requested uint32) uint32 {
	n := requested
	if n < caps.MinImageCount {
		n = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

// chooseExtent returns the current surface extent, or the window
// framebuffer size clamped to the surface limits when the surface lets
// the swapchain decide. A minimized window yields a zero extent.
func chooseExtent(caps driver.SurfaceCapabilities, window Window) driver.Extent2D {
	if caps.CurrentExtent.Width != driver.UndefinedExtent {
		return caps.CurrentExtent
	}
	var w, h int
	if window != nil {
		w, h = window.FramebufferSize()
	}
	if w <= 0 || h <= 0 {
		return driver.Extent2D{}
	}
	return driver.Extent2D{
		Width:  clamp(uint32(w), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(h), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	return max(lo, min(v, hi))
}
