package vkframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkframe/driver"
	"github.com/andewx/vkframe/driver/drivertest"
)

func TestSelectPhysicalDevice(t *testing.T) {
	tests := []struct {
		name     string
		opts     []drivertest.Option
		required []string
		wantErr  error
	}{
		{name: "default", required: []string{"VK_KHR_swapchain"}},
		{name: "missing extension", required: []string{"VK_KHR_ray_query"}, wantErr: ErrNoDevice},
		{
			name:    "no present support",
			opts:    []drivertest.Option{drivertest.WithPresentFamilies()},
			wantErr: ErrNoDevice,
		},
		{
			name: "no graphics family",
			opts: []drivertest.Option{drivertest.WithQueueFamilies(
				driver.QueueFamily{Flags: driver.QueueCompute | driver.QueueTransfer, Count: 1},
			)},
			wantErr: ErrNoDevice,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gpu := drivertest.New(tt.opts...)
			devices, err := EnumeratePhysicalDevices(gpu)
			require.NoError(t, err)
			p, err := SelectPhysicalDevice(devices, gpu.NewSurface(), tt.required)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Simulated GPU", p.Name())
		})
	}
}

func TestFindQueue(t *testing.T) {
	gpu := drivertest.New(
		drivertest.WithQueueFamilies(
			driver.QueueFamily{Flags: driver.QueueTransfer, Count: 1},
			driver.QueueFamily{Flags: driver.QueueGraphics | driver.QueueCompute, Count: 1},
			driver.QueueFamily{Flags: driver.QueueCompute, Count: 0},
		),
		drivertest.WithPresentFamilies(1),
	)
	d, surface := newDevice(t, gpu)
	defer d.Destroy()

	require.Len(t, d.Queues, 2, "families without queues are skipped")

	q, err := d.FindGraphicsQueue()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), q.Family)

	q, err = d.FindQueue(driver.QueueTransfer)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), q.Family)

	_, err = d.FindQueue(driver.QueueCompute | driver.QueueTransfer)
	assert.ErrorIs(t, err, ErrNoMatchingQueue)

	q, err = d.FindPresentQueue(surface)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), q.Family)
	assert.True(t, q.SupportsPresent(surface))
	assert.False(t, d.Queues[0].SupportsPresent(surface))
}

func TestNewDeviceRequiresPresent(t *testing.T) {
	gpu := drivertest.New(drivertest.WithPresentFamilies())
	devices, err := EnumeratePhysicalDevices(gpu)
	require.NoError(t, err)

	_, err = NewDevice(devices[0], gpu.NewSurface(), nil, nil)
	assert.ErrorIs(t, err, ErrNoPresentSupport)

	// Headless devices skip the check.
	d, err := NewDevice(devices[0], driver.NullHandle, nil, nil)
	require.NoError(t, err)
	_, err = d.FindPresentQueue(gpu.NewSurface())
	assert.ErrorIs(t, err, ErrNoPresentSupport)
	d.Destroy()
}

func TestNewDeviceMissingExtension(t *testing.T) {
	gpu := drivertest.New()
	devices, err := EnumeratePhysicalDevices(gpu)
	require.NoError(t, err)
	_, err = NewDevice(devices[0], driver.NullHandle, []string{"VK_KHR_ray_query"}, nil)
	assert.ErrorIs(t, err, driver.ErrorExtensionNotPresent)
}

func TestMemoryType(t *testing.T) {
	gpu := drivertest.New()
	d, _ := newDevice(t, gpu)
	defer d.Destroy()
	p := d.Physical()

	i, err := p.MemoryType(0x3, driver.MemoryHostVisible|driver.MemoryHostCoherent)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), i)

	i, err = p.MemoryType(0x3, driver.MemoryDeviceLocal)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), i)

	_, err = p.MemoryType(0x1, driver.MemoryHostVisible)
	assert.ErrorIs(t, err, ErrNoMemoryType)
}

func TestWaitIdleWithNothingPending(t *testing.T) {
	gpu := drivertest.New(drivertest.Manual())
	d, _ := newDevice(t, gpu)
	assert.NoError(t, d.WaitIdle())
	d.Destroy()
	d.Destroy()
	assert.Empty(t, gpu.Violations())
}
