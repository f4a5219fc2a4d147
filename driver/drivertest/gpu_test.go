package drivertest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkframe/driver"
)

func newDevice(t *testing.T, g *GPU) (driver.Device, driver.Swapchain) {
	t.Helper()
	dev, res := g.CreateDevice(physicalDevice, &driver.DeviceCreateInfo{
		Queues:     []driver.QueueCreateInfo{{Family: 0, Count: 1}},
		Extensions: []string{"VK_KHR_swapchain"},
	})
	require.Equal(t, driver.Success, res)
	sc, res := g.CreateSwapchain(dev, &driver.SwapchainCreateInfo{
		Surface:       g.NewSurface(),
		MinImageCount: 3,
		Format:        driver.SurfaceFormat{Format: driver.FormatB8g8r8a8Srgb},
		Extent:        driver.Extent2D{Width: 800, Height: 600},
		PresentMode:   driver.PresentModeFifo,
	})
	require.Equal(t, driver.Success, res)
	return dev, sc
}

func TestAcquireRoundRobin(t *testing.T) {
	g := New()
	dev, sc := newDevice(t, g)
	q := g.GetDeviceQueue(dev, 0, 0)
	sem, _ := g.CreateSemaphore(dev)

	for want := uint32(0); want < 6; want++ {
		idx, res := g.AcquireNextImage(dev, sc, driver.MaxTimeout, sem, 0)
		require.Equal(t, driver.Success, res)
		assert.Equal(t, want%3, idx)
		require.Equal(t, driver.Success, g.QueuePresent(q, &driver.PresentInfo{
			WaitSemaphores: []driver.Semaphore{sem},
			Swapchain:      sc,
			ImageIndex:     idx,
		}))
	}
	assert.Empty(t, g.Violations())
	assert.Len(t, g.Presents(), 6)
}

func TestSemaphoreViolations(t *testing.T) {
	g := New()
	dev, sc := newDevice(t, g)
	q := g.GetDeviceQueue(dev, 0, 0)
	sem, _ := g.CreateSemaphore(dev)

	g.QueueSubmit(q, []driver.SubmitInfo{{WaitSemaphores: []driver.Semaphore{sem}}}, 0)
	require.Len(t, g.Violations(), 1)
	assert.Contains(t, g.Violations()[0], "no pending signal")

	g.AcquireNextImage(dev, sc, driver.MaxTimeout, sem, 0)
	g.AcquireNextImage(dev, sc, driver.MaxTimeout, sem, 0)
	assert.Len(t, g.Violations(), 2)
}

func TestFaultInjection(t *testing.T) {
	g := New()
	dev, sc := newDevice(t, g)
	sem, _ := g.CreateSemaphore(dev)

	g.FailAcquire(1, driver.ErrorOutOfDate)
	_, res := g.AcquireNextImage(dev, sc, driver.MaxTimeout, sem, 0)
	assert.Equal(t, driver.ErrorOutOfDate, res)
	// The swapchain stays out of date until replaced.
	_, res = g.AcquireNextImage(dev, sc, driver.MaxTimeout, sem, 0)
	assert.Equal(t, driver.ErrorOutOfDate, res)
	assert.Empty(t, g.Violations())
}

func TestFenceAutoCompletion(t *testing.T) {
	g := New()
	dev, _ := newDevice(t, g)
	q := g.GetDeviceQueue(dev, 0, 0)
	f, _ := g.CreateFence(dev, false)

	require.Equal(t, driver.Success, g.QueueSubmit(q, nil, f))
	assert.Equal(t, 1, g.InFlight())
	assert.Equal(t, driver.NotReady, g.FenceStatus(dev, f))
	assert.Equal(t, driver.Success, g.WaitForFence(dev, f, driver.MaxTimeout))
	assert.Equal(t, 0, g.InFlight())
	assert.Equal(t, driver.Success, g.FenceStatus(dev, f))
}

func TestFenceWaitWithoutWork(t *testing.T) {
	g := New()
	dev, _ := newDevice(t, g)
	f, _ := g.CreateFence(dev, false)

	assert.Equal(t, driver.Timeout, g.WaitForFence(dev, f, driver.MaxTimeout))
	assert.Len(t, g.Violations(), 1)
}

func TestManualFenceBlocks(t *testing.T) {
	g := New(Manual())
	dev, _ := newDevice(t, g)
	q := g.GetDeviceQueue(dev, 0, 0)
	f, _ := g.CreateFence(dev, false)
	g.QueueSubmit(q, nil, f)

	done := make(chan driver.Result)
	go func() { done <- g.WaitForFence(dev, f, driver.MaxTimeout) }()

	select {
	case blocked := <-g.Blocked():
		assert.Equal(t, f, blocked)
	case <-time.After(time.Second):
		t.Fatal("wait did not block")
	}
	select {
	case <-done:
		t.Fatal("wait returned before completion")
	default:
	}
	require.True(t, g.CompleteNext())
	assert.Equal(t, driver.Success, <-done)
}

func TestDestroyOrderViolations(t *testing.T) {
	g := New()
	dev, sc := newDevice(t, g)
	images, _ := g.SwapchainImages(dev, sc)
	require.Len(t, images, 3)

	view, res := g.CreateImageView(dev, &driver.ImageViewCreateInfo{Image: images[0]})
	require.Equal(t, driver.Success, res)
	g.DestroySwapchain(dev, sc)
	require.Len(t, g.Violations(), 1)
	assert.Contains(t, g.Violations()[0], "destroyed before image view")

	g.DestroyImageView(dev, view)
	g.DestroyDevice(dev)
	assert.Len(t, g.Violations(), 1)
	assert.Equal(t, []string{"surface"}, g.LiveKinds())
}

func TestDeviceLeakReport(t *testing.T) {
	g := New()
	dev, sc := newDevice(t, g)
	g.CreateSemaphore(dev)
	g.DestroySwapchain(dev, sc)
	g.DestroyDevice(dev)
	require.Len(t, g.Violations(), 1)
	assert.Contains(t, g.Violations()[0], "live semaphore")
}
