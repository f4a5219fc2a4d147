package vkframe

import (
	"github.com/andewx/vkframe/driver"
)

// RenderPass is a single-subpass render pass with one color attachment in
// the swapchain format that ends in the present layout.
type RenderPass struct {
	device *Device
	handle driver.RenderPass
	format driver.Format
}

func NewRenderPass(sc *Swapchain) (*RenderPass, error) {
	d := sc.device
	h, res := d.drv.CreateRenderPass(d.handle, &driver.RenderPassCreateInfo{
		ColorFormat: sc.Format.Format,
		FinalLayout: driver.ImageLayoutPresentSrc,
	})
	if err := newError(res, "create render pass"); err != nil {
		return nil, err
	}
	return &RenderPass{device: d, handle: h, format: sc.Format.Format}, nil
}

func (rp *RenderPass) Handle() driver.RenderPass { return rp.handle }

func (rp *RenderPass) Destroy() {
	if rp.handle == driver.NullHandle {
		return
	}
	rp.device.drv.DestroyRenderPass(rp.device.handle, rp.handle)
	rp.handle = driver.NullHandle
}

// Framebuffer binds a single image view to a render pass.
type Framebuffer struct {
	device *Device
	handle driver.Framebuffer
	extent driver.Extent2D
}

func NewFramebuffer(view *ImageView, extent driver.Extent2D, rp *RenderPass) (*Framebuffer, error) {
	d := view.device
	h, res := d.drv.CreateFramebuffer(d.handle, &driver.FramebufferCreateInfo{
		RenderPass:  rp.handle,
		Attachments: []driver.ImageView{view.handle},
		Extent:      extent,
	})
	if err := newError(res, "create framebuffer"); err != nil {
		return nil, err
	}
	return &Framebuffer{device: d, handle: h, extent: extent}, nil
}

func (fb *Framebuffer) Handle() driver.Framebuffer { return fb.handle }

func (fb *Framebuffer) Extent() driver.Extent2D { return fb.extent }

func (fb *Framebuffer) Destroy() {
	if fb.handle == driver.NullHandle {
		return
	}
	fb.device.drv.DestroyFramebuffer(fb.device.handle, fb.handle)
	fb.handle = driver.NullHandle
}
