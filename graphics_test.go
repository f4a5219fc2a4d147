package vkframe

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkframe/driver"
	"github.com/andewx/vkframe/driver/drivertest"
)

func renderFrames(t *testing.T, g *Graphics, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.True(t, g.RenderFrame(), "frame %d skipped", i)
	}
}

func TestGraphicsFramesInFlight(t *testing.T) {
	gpu := drivertest.New(drivertest.Manual())
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	slot0 := g.framesInFlight[0].Handle()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			g.RenderFrame()
		}
	}()

	select {
	case blocked := <-gpu.Blocked():
		assert.Equal(t, slot0, blocked, "the third frame waits on the first slot")
	case <-time.After(2 * time.Second):
		t.Fatal("third frame did not block")
	}
	assert.Equal(t, 2, gpu.InFlight())

	require.True(t, gpu.CompleteNext())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("third frame did not finish after the first completed")
	}

	assert.LessOrEqual(t, gpu.MaxInFlight(), 2)
	assert.Len(t, gpu.Submits(), 3)
	assert.Empty(t, gpu.Violations())
}

func TestGraphicsSemaphoreMapping(t *testing.T) {
	gpu := drivertest.New()
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	renderFrames(t, g, 5)

	acquires, submits, presents := gpu.Acquires(), gpu.Submits(), gpu.Presents()
	require.Len(t, acquires, 5)
	require.Len(t, submits, 5)
	require.Len(t, presents, 5)

	for i := range submits {
		slot := i % 2
		image := acquires[i].ImageIndex
		available := g.imagesAvailable[slot].Handle()
		drawn := g.imagesDrawn[image].Handle()

		assert.Equal(t, available, acquires[i].Semaphore, "frame %d acquire", i)
		assert.Equal(t, []driver.Semaphore{available}, submits[i].Wait, "frame %d submit wait", i)
		assert.Equal(t, []driver.Semaphore{drawn}, submits[i].Signal, "frame %d submit signal", i)
		assert.Equal(t, g.framesInFlight[slot].Handle(), submits[i].Fence, "frame %d fence", i)
		assert.Equal(t, []driver.Framebuffer{g.framebuffers[image].Handle()}, submits[i].Framebuffers)
		assert.Equal(t, 1, submits[i].Draws)

		assert.Equal(t, []driver.Semaphore{drawn}, presents[i].Wait, "frame %d present wait", i)
		assert.Equal(t, image, presents[i].ImageIndex)
	}
	assert.Len(t, g.imagesDrawn, g.swapchain.ImageCount())
	assert.Empty(t, gpu.Violations())
}

func TestGraphicsRecreateOnAcquireOutOfDate(t *testing.T) {
	gpu := drivertest.New()
	gpu.FailAcquire(5, driver.ErrorOutOfDate)
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	renderFrames(t, g, 8)

	assert.Equal(t, 2, gpu.CreatedSwapchains())
	stats := g.Stats()
	assert.Equal(t, uint64(1), stats.Recreations)
	assert.Equal(t, uint64(8), stats.Frames)
	assert.Zero(t, stats.Skipped)
	assert.Len(t, gpu.Submits(), 8)
	assert.Empty(t, gpu.Violations())
}

func TestGraphicsRecreateOnPresentOutOfDate(t *testing.T) {
	gpu := drivertest.New()
	gpu.FailPresent(2, driver.ErrorOutOfDate)
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	renderFrames(t, g, 5)

	assert.Equal(t, 2, gpu.CreatedSwapchains())
	assert.Equal(t, uint64(1), g.Stats().Recreations)
	assert.Len(t, gpu.Presents(), 5)
	assert.Empty(t, gpu.Violations())
}

func TestGraphicsSuboptimalAcquire(t *testing.T) {
	gpu := drivertest.New()
	gpu.FailAcquire(1, driver.Suboptimal)
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	require.True(t, g.RenderFrame(), "a suboptimal image is still rendered")
	assert.Len(t, gpu.Presents(), 1)
	assert.Equal(t, 2, gpu.CreatedSwapchains(), "recreated after the present")

	renderFrames(t, g, 2)
	assert.Equal(t, 2, gpu.CreatedSwapchains())
	assert.Empty(t, gpu.Violations())
}

func TestGraphicsSurfaceResized(t *testing.T) {
	gpu := drivertest.New()
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	renderFrames(t, g, 1)
	gpu.SetCapabilities(driver.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  2,
		CurrentExtent:  driver.Extent2D{Width: 1024, Height: 768},
		MinImageExtent: driver.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: driver.Extent2D{Width: 4096, Height: 4096},
	})
	g.SurfaceResized()
	renderFrames(t, g, 1)

	assert.Equal(t, 2, gpu.CreatedSwapchains())
	assert.Equal(t, driver.Extent2D{Width: 1024, Height: 768}, g.Swapchain().Extent)
	assert.Equal(t, 2, g.Swapchain().ImageCount())
	assert.Len(t, g.imagesDrawn, 2, "one render-finished semaphore per image")
	assert.Len(t, g.imagesAvailable, 2, "frame slot objects survive recreation")

	renderFrames(t, g, 4)
	assert.Empty(t, gpu.Violations())
}

func TestGraphicsSkipsFrameWhenStillOutOfDate(t *testing.T) {
	gpu := drivertest.New(drivertest.AlwaysOutOfDate())
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	assert.False(t, g.RenderFrame())
	assert.False(t, g.RenderFrame())

	stats := g.Stats()
	assert.Equal(t, uint64(2), stats.Skipped)
	assert.Zero(t, stats.Frames)
	assert.Empty(t, gpu.Submits())
	assert.Zero(t, gpu.InFlight())
	assert.Equal(t, 0, g.Slot())
	assert.Empty(t, gpu.Violations())
}

func TestGraphicsDestroy(t *testing.T) {
	gpu := drivertest.New(drivertest.Manual())
	surface := gpu.NewSurface()
	g, err := NewGraphics(gpu, surface, &fakeWindow{width: 800, height: 600}, testConfig(t))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.RenderFrame()
		g.RenderFrame()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("frames blocked")
	}
	assert.Equal(t, 2, gpu.InFlight())

	g.Destroy()
	g.Destroy()
	assert.Zero(t, gpu.InFlight())
	assert.Empty(t, gpu.Violations())
	assert.Equal(t, []string{"surface"}, gpu.LiveKinds())
	gpu.DestroySurface(surface)
}

func TestGraphicsFrameOrder(t *testing.T) {
	gpu := drivertest.New()
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	err := recoverErr(g.RenderEnd)
	assert.ErrorIs(t, err, ErrCommandState)

	require.True(t, g.RenderBegin())
	err = recoverErr(func() { g.RenderBegin() })
	assert.ErrorIs(t, err, ErrCommandState)
	assert.ErrorIs(t, g.ReloadShaders(), ErrCommandState)
	g.DrawAt(Point{0.5, -0.5})
	g.RenderEnd()

	assert.Equal(t, 1, g.Slot())
	assert.Empty(t, gpu.Violations())
}

func TestGraphicsInvalidConfig(t *testing.T) {
	gpu := drivertest.New()
	cfg := testConfig(t)
	cfg.FramesInFlight = 0
	_, err := NewGraphics(gpu, gpu.NewSurface(), nil, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, []string{"surface"}, gpu.LiveKinds())
}

func TestGraphicsMissingShader(t *testing.T) {
	gpu := drivertest.New()
	cfg := testConfig(t)
	cfg.FragmentShader = cfg.FragmentShader + ".missing"
	g, err := NewGraphics(gpu, gpu.NewSurface(), nil, cfg)
	assert.Error(t, err)
	assert.Nil(t, g)
	assert.Empty(t, gpu.Violations())
	assert.Equal(t, []string{"surface"}, gpu.LiveKinds(), "partial construction is torn down")
}

func TestGraphicsReloadShaders(t *testing.T) {
	gpu := drivertest.New()
	cfg := testConfig(t)
	g := newGraphics(t, gpu, cfg)
	defer g.Destroy()

	renderFrames(t, g, 2)
	old := g.Pipeline().Handle()
	require.NoError(t, g.ReloadShaders())
	assert.NotEqual(t, old, g.Pipeline().Handle())
	renderFrames(t, g, 2)

	current := g.Pipeline().Handle()
	require.NoError(t, os.WriteFile(cfg.VertexShader, []byte("not spirv"), 0o644))
	assert.ErrorIs(t, g.ReloadShaders(), ErrInvalidShader)
	assert.Equal(t, current, g.Pipeline().Handle(), "the previous pipeline stays in use")
	renderFrames(t, g, 2)

	assert.Empty(t, gpu.Violations())
}

func TestGraphicsWatchShaders(t *testing.T) {
	gpu := drivertest.New()
	cfg := testConfig(t)
	cfg.WatchShaders = true
	g := newGraphics(t, gpu, cfg)
	defer g.Destroy()

	renderFrames(t, g, 1)
	old := g.Pipeline().Handle()

	require.NoError(t, os.WriteFile(cfg.FragmentShader, spirv(8), 0o644))
	select {
	case <-g.watcher.Changed():
	case <-time.After(5 * time.Second):
		t.Fatal("shader change not noticed")
	}

	renderFrames(t, g, 1)
	assert.NotEqual(t, old, g.Pipeline().Handle())
	assert.Empty(t, gpu.Violations())
}

type loggingGPU struct {
	*drivertest.GPU
	logger *slog.Logger
}

func (l *loggingGPU) SetLogger(logger *slog.Logger) { l.logger = logger }

func TestGraphicsPropagatesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	SetLogger(logger)
	defer SetLogger(nil)

	gpu := &loggingGPU{GPU: drivertest.New()}
	g, err := NewGraphics(gpu, gpu.NewSurface(), nil, testConfig(t))
	require.NoError(t, err)
	defer g.Destroy()

	assert.Same(t, logger, gpu.logger)
	assert.Contains(t, buf.String(), "graphics ready")
	assert.Contains(t, buf.String(), "swapchain created")
}

func TestGraphicsStats(t *testing.T) {
	gpu := drivertest.New()
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	renderFrames(t, g, 3)
	s := g.Stats()
	assert.Equal(t, uint64(3), s.Frames)
	assert.LessOrEqual(t, s.Min, s.Max)
	assert.Equal(t, s.Total/3, s.Average())
	if s.Average() > 0 {
		assert.Greater(t, s.FPS(), 0.0)
	}
}

func TestGraphicsFatalAcquire(t *testing.T) {
	gpu := drivertest.New()
	gpu.FailAcquire(2, driver.ErrorDeviceLost)
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	renderFrames(t, g, 1)
	err := recoverErr(func() { g.RenderFrame() })
	assert.ErrorIs(t, err, driver.ErrorDeviceLost)
	assert.Equal(t, 1, gpu.CreatedSwapchains(), "device faults are not retried")
	assert.Len(t, gpu.Submits(), 1)
}

func TestGraphicsFatalPresent(t *testing.T) {
	tests := []struct {
		name   string
		resize bool
	}{
		{name: "steady"},
		{name: "resize pending", resize: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gpu := drivertest.New()
			gpu.FailPresent(2, driver.ErrorDeviceLost)
			g := newGraphics(t, gpu, testConfig(t))
			defer g.Destroy()

			renderFrames(t, g, 1)
			if tt.resize {
				g.SurfaceResized()
			}
			err := recoverErr(func() { g.RenderFrame() })
			assert.ErrorIs(t, err, driver.ErrorDeviceLost)
			assert.Equal(t, 1, gpu.CreatedSwapchains(), "device faults are not retried")
			assert.Zero(t, g.Stats().Recreations)
			assert.Equal(t, 1, g.Slot(), "the failed frame does not advance")
		})
	}
}

func TestGraphicsFatalSubmit(t *testing.T) {
	gpu := drivertest.New()
	gpu.FailSubmit(1, driver.ErrorDeviceLost)
	g := newGraphics(t, gpu, testConfig(t))
	defer g.Destroy()

	err := recoverErr(func() { g.RenderFrame() })
	assert.ErrorIs(t, err, driver.ErrorDeviceLost)
	assert.Empty(t, gpu.Presents())
	assert.Zero(t, gpu.InFlight())
}
