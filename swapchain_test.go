package vkframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkframe/driver"
	"github.com/andewx/vkframe/driver/drivertest"
)

func TestSwapchainImageCount(t *testing.T) {
	tests := []struct {
		name      string
		min, max  uint32
		requested uint32
		want      int
	}{
		{name: "within limits", min: 2, max: 4, requested: 3, want: 3},
		{name: "below minimum", min: 2, max: 4, requested: 1, want: 2},
		{name: "above maximum", min: 2, max: 4, requested: 8, want: 4},
		{name: "unbounded", min: 2, max: 0, requested: 8, want: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gpu := drivertest.New(drivertest.WithCapabilities(driver.SurfaceCapabilities{
				MinImageCount:  tt.min,
				MaxImageCount:  tt.max,
				CurrentExtent:  driver.Extent2D{Width: 800, Height: 600},
				MinImageExtent: driver.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: driver.Extent2D{Width: 4096, Height: 4096},
			}))
			d, surface := newDevice(t, gpu)
			defer d.Destroy()

			sc, err := NewSwapchain(d, surface, nil, SwapchainOptions{ImageCount: tt.requested})
			require.NoError(t, err)
			defer sc.Destroy()

			assert.Equal(t, tt.want, sc.ImageCount())
			assert.Len(t, sc.Views, tt.want)
			assert.Equal(t, SwapchainReady, sc.State())
			assert.Empty(t, gpu.Violations())
		})
	}
}

func TestSwapchainRecreate(t *testing.T) {
	gpu := drivertest.New()
	d, surface := newDevice(t, gpu)
	defer d.Destroy()

	sc, err := NewSwapchain(d, surface, nil, SwapchainOptions{ImageCount: 3})
	require.NoError(t, err)
	first := sc.Handle()

	require.NoError(t, sc.Recreate())
	once := sc.Handle()
	assert.NotEqual(t, first, once)
	live := gpu.Live()

	require.NoError(t, sc.Recreate())
	assert.Equal(t, live, gpu.Live(), "recreating twice leaves the same objects alive as once")
	assert.Equal(t, 3, sc.ImageCount())
	assert.Equal(t, SwapchainReady, sc.State())
	assert.Equal(t, 3, gpu.CreatedSwapchains())

	sc.Destroy()
	assert.Equal(t, SwapchainUninitialized, sc.State())
	assert.Empty(t, gpu.Violations())
	assert.Equal(t, []string{"device", "surface"}, gpu.LiveKinds())
}

func TestSwapchainWaitsWhileMinimized(t *testing.T) {
	caps := driver.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  4,
		MinImageExtent: driver.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: driver.Extent2D{Width: 4096, Height: 4096},
	}
	gpu := drivertest.New(drivertest.WithCapabilities(caps))
	d, surface := newDevice(t, gpu)
	defer d.Destroy()

	w := &fakeWindow{onWait: func(w *fakeWindow) {
		caps.CurrentExtent = driver.Extent2D{Width: 640, Height: 480}
		gpu.SetCapabilities(caps)
	}}
	sc, err := NewSwapchain(d, surface, w, SwapchainOptions{ImageCount: 2})
	require.NoError(t, err)
	defer sc.Destroy()

	assert.Equal(t, 1, w.waits)
	assert.Equal(t, driver.Extent2D{Width: 640, Height: 480}, sc.Extent)
	assert.Empty(t, gpu.Violations())
}

func TestSwapchainZeroExtentWithoutWindow(t *testing.T) {
	gpu := drivertest.New(drivertest.WithCapabilities(driver.SurfaceCapabilities{
		MinImageCount: 2,
		MaxImageCount: 4,
	}))
	d, surface := newDevice(t, gpu)
	defer d.Destroy()

	_, err := NewSwapchain(d, surface, nil, SwapchainOptions{ImageCount: 2})
	assert.Error(t, err)
	assert.Equal(t, 0, gpu.CreatedSwapchains())
}

func TestChooseSurfaceFormat(t *testing.T) {
	srgb := driver.SurfaceFormat{Format: driver.FormatB8g8r8a8Srgb, ColorSpace: driver.ColorSpaceSrgbNonlinear}
	unorm := driver.SurfaceFormat{Format: driver.FormatB8g8r8a8Unorm, ColorSpace: driver.ColorSpaceSrgbNonlinear}

	tests := []struct {
		name    string
		formats []driver.SurfaceFormat
		want    driver.SurfaceFormat
		wantErr error
	}{
		{name: "preferred available", formats: []driver.SurfaceFormat{unorm, srgb}, want: srgb},
		{name: "fallback to first", formats: []driver.SurfaceFormat{unorm}, want: unorm},
		{
			name:    "no preference",
			formats: []driver.SurfaceFormat{{Format: driver.FormatUndefined, ColorSpace: driver.ColorSpaceSrgbNonlinear}},
			want:    srgb,
		},
		{name: "empty", wantErr: ErrNoSurfaceFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chooseSurfaceFormat(tt.formats, driver.FormatB8g8r8a8Srgb)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChoosePresentMode(t *testing.T) {
	modes := []driver.PresentMode{driver.PresentModeFifo, driver.PresentModeMailbox}
	assert.Equal(t, driver.PresentModeMailbox, choosePresentMode(modes, driver.PresentModeMailbox))
	assert.Equal(t, driver.PresentModeFifo, choosePresentMode(modes, driver.PresentModeImmediate))
	assert.Equal(t, driver.PresentModeFifo, choosePresentMode(nil, driver.PresentModeMailbox))
}

func TestChooseExtent(t *testing.T) {
	caps := driver.SurfaceCapabilities{
		CurrentExtent:  driver.Extent2D{Width: driver.UndefinedExtent, Height: driver.UndefinedExtent},
		MinImageExtent: driver.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: driver.Extent2D{Width: 1000, Height: 1000},
	}
	tests := []struct {
		name   string
		caps   driver.SurfaceCapabilities
		window Window
		want   driver.Extent2D
	}{
		{
			name: "surface decides",
			caps: driver.SurfaceCapabilities{CurrentExtent: driver.Extent2D{Width: 320, Height: 240}},
			want: driver.Extent2D{Width: 320, Height: 240},
		},
		{name: "window size", caps: caps, window: &fakeWindow{width: 640, height: 480}, want: driver.Extent2D{Width: 640, Height: 480}},
		{name: "clamped up", caps: caps, window: &fakeWindow{width: 10, height: 480}, want: driver.Extent2D{Width: 100, Height: 480}},
		{name: "clamped down", caps: caps, window: &fakeWindow{width: 640, height: 5000}, want: driver.Extent2D{Width: 640, Height: 1000}},
		{name: "minimized", caps: caps, window: &fakeWindow{}},
		{name: "no window", caps: caps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chooseExtent(tt.caps, tt.window))
		})
	}
}
