package vulkan

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkframe/driver"
)

// Window adapts a glfw window to the size and event queries the frame
// loop needs while the swapchain is recreated.
type Window struct {
	*glfw.Window
}

func NewWindow(w *glfw.Window) Window {
	return Window{Window: w}
}

// FramebufferSize returns the drawable size in pixels.
func (w Window) FramebufferSize() (int, int) {
	return w.GetFramebufferSize()
}

// WaitEvents blocks until the window system delivers an event.
func (w Window) WaitEvents() {
	glfw.WaitEvents()
}

// CreateWindowSurface creates a presentation surface for w.
func (d *Driver) CreateWindowSurface(w *glfw.Window) (driver.Surface, error) {
	ptr, err := w.CreateWindowSurface(d.instance, nil)
	if err != nil {
		return 0, errors.Wrap(err, "create window surface")
	}
	surface := vk.SurfaceFromPointer(ptr)
	if surface == vk.NullSurface {
		return 0, errors.New("create window surface: null surface")
	}
	return driver.Surface(d.surfaces.add(surface)), nil
}

// DestroySurface destroys a surface created by CreateWindowSurface. The
// swapchain built on it must be destroyed first.
func (d *Driver) DestroySurface(s driver.Surface) {
	if surface, ok := d.surfaces.remove(uint64(s)); ok {
		vk.DestroySurface(d.instance, surface, nil)
	}
}
