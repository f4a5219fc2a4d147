package vkframe

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/andewx/vkframe/driver"
)

// Image is a device-local sampled image.
type Image struct {
	device *Device
	handle driver.Image
	memory driver.DeviceMemory
	extent driver.Extent2D
	format driver.Format
	layout driver.ImageLayout
}

func NewImage(d *Device, width, height uint32, format driver.Format) (img *Image, err error) {
	defer checkErr(&err)

	drv, dev := d.drv, d.handle
	extent := driver.Extent2D{Width: width, Height: height}
	h, res := drv.CreateImage(dev, &driver.ImageCreateInfo{
		Extent: extent,
		Format: format,
		Usage:  driver.ImageUsageTransferDst | driver.ImageUsageSampled,
	})
	orPanic(newError(res, "create image"))
	destroy := func() { drv.DestroyImage(dev, h) }

	req := drv.ImageMemoryRequirements(dev, h)
	typeIndex, err := d.physical.MemoryType(req.TypeBits, driver.MemoryDeviceLocal)
	orPanic(err, destroy)
	mem, res := drv.AllocateMemory(dev, req.Size, typeIndex)
	orPanic(newError(res, "allocate image memory"), destroy)
	orPanic(newError(drv.BindImageMemory(dev, h, mem), "bind image memory"), func() {
		drv.FreeMemory(dev, mem)
		destroy()
	})

	return &Image{
		device: d,
		handle: h,
		memory: mem,
		extent: extent,
		format: format,
		layout: driver.ImageLayoutUndefined,
	}, nil
}

func (img *Image) Handle() driver.Image { return img.handle }

func (img *Image) Extent() driver.Extent2D { return img.extent }

func (img *Image) Layout() driver.ImageLayout { return img.layout }

// Upload copies buf into the image and leaves it in the shader read
// layout. The copy runs on a one-shot command buffer of a transient pool
// and Upload waits for it to complete.
func (img *Image) Upload(buf *Buffer) (err error) {
	need := uint64(img.extent.Width) * uint64(img.extent.Height) * texelSize(img.format)
	if buf.Size() < need {
		return errors.Errorf("vkframe: upload of a %d byte buffer into a %dx%d image needing %d bytes",
			buf.Size(), img.extent.Width, img.extent.Height, need)
	}
	defer checkErr(&err)

	d := img.device
	q, err := d.FindGraphicsQueue()
	orPanic(err)
	pool, err := NewCommandPool(d, q.Family, driver.CommandPoolTransient)
	orPanic(err)
	defer pool.Destroy()
	cbs, err := pool.AllocateCommandBuffers(1)
	orPanic(err)
	cb := cbs[0]

	cb.Begin(driver.CommandBufferUsageOneTimeSubmit)
	cb.Transition(img, driver.ImageLayoutTransferDstOptimal)
	cb.CopyBufferToImage(buf, img)
	cb.Transition(img, driver.ImageLayoutShaderReadOnlyOptimal)
	cb.End()

	fence, err := NewFence(d, true)
	orPanic(err)
	defer fence.Destroy()
	orPanic(q.Submit(cb, nil, nil, fence))
	fence.Wait()
	return nil
}

// LoadImage decodes a PNG, JPEG, GIF, BMP or WebP file into RGBA8 and
// uploads it to a new sampled image.
func LoadImage(d *Device, path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	rgba := toRGBA(src)

	b := rgba.Bounds()
	staging, err := NewBuffer(d, uint64(len(rgba.Pix)), driver.BufferUsageTransferSrc)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()
	if err := staging.Upload(rgba.Pix); err != nil {
		return nil, err
	}

	img, err := NewImage(d, uint32(b.Dx()), uint32(b.Dy()), driver.FormatR8g8b8a8Srgb)
	if err != nil {
		return nil, err
	}
	if err := img.Upload(staging); err != nil {
		img.Destroy()
		return nil, err
	}
	Logger().Debug("vkframe: image loaded", "path", path, "width", b.Dx(), "height", b.Dy())
	return img, nil
}

// toRGBA returns src as a tightly packed RGBA image with its origin at 0,0.
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// texelSize returns the bytes per texel of the color formats images are
// created with.
func texelSize(f driver.Format) uint64 {
	switch f {
	case driver.FormatR8g8b8Unorm:
		return 3
	case driver.FormatR32g32Sfloat:
		return 8
	case driver.FormatR32g32b32Sfloat:
		return 12
	}
	return 4
}

func (img *Image) Destroy() {
	if img.handle == driver.NullHandle {
		return
	}
	img.device.drv.DestroyImage(img.device.handle, img.handle)
	img.device.drv.FreeMemory(img.device.handle, img.memory)
	img.handle = driver.NullHandle
	img.memory = driver.NullHandle
}

// ImageView is a 2D color view of an image.
type ImageView struct {
	device *Device
	handle driver.ImageView
}

// NewImageView creates a view of img in its own format.
func NewImageView(d *Device, img *Image) (*ImageView, error) {
	return newImageView(d, img.handle, img.format)
}

func newImageView(d *Device, img driver.Image, format driver.Format) (*ImageView, error) {
	h, res := d.drv.CreateImageView(d.handle, &driver.ImageViewCreateInfo{Image: img, Format: format})
	if err := newError(res, "create image view"); err != nil {
		return nil, err
	}
	return &ImageView{device: d, handle: h}, nil
}

func (v *ImageView) Handle() driver.ImageView { return v.handle }

func (v *ImageView) Destroy() {
	if v.handle == driver.NullHandle {
		return
	}
	v.device.drv.DestroyImageView(v.device.handle, v.handle)
	v.handle = driver.NullHandle
}
