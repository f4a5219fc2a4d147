package vkframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkframe/driver"
	"github.com/andewx/vkframe/driver/drivertest"
)

type commandFixture struct {
	gpu   *drivertest.GPU
	d     *Device
	q     *Queue
	pool  *CommandPool
	cb    *CommandBuffer
	sc    *Swapchain
	rp    *RenderPass
	fbs   []*Framebuffer
	buf   *Buffer
	pipe  *GraphicsPipeline
	close func()
}

func newCommandFixture(t *testing.T, opts ...drivertest.Option) *commandFixture {
	t.Helper()
	f := &commandFixture{gpu: drivertest.New(opts...)}
	var surface driver.Surface
	f.d, surface = newDevice(t, f.gpu)
	var err error
	f.q, err = f.d.FindGraphicsQueue()
	require.NoError(t, err)
	f.pool, err = NewCommandPool(f.d, f.q.Family, driver.CommandPoolResetCommandBuffer)
	require.NoError(t, err)
	cbs, err := f.pool.AllocateCommandBuffers(1)
	require.NoError(t, err)
	f.cb = cbs[0]
	f.sc, err = NewSwapchain(f.d, surface, nil, SwapchainOptions{ImageCount: 3})
	require.NoError(t, err)
	f.rp, err = NewRenderPass(f.sc)
	require.NoError(t, err)
	f.fbs, err = f.sc.CreateFramebuffers(f.rp)
	require.NoError(t, err)
	f.buf, err = NewVertexBuffer(f.d, TriangleVertices)
	require.NoError(t, err)

	vert, err := NewShaderModuleFromBytes(f.d, spirv(2))
	require.NoError(t, err)
	frag, err := NewShaderModuleFromBytes(f.d, spirv(2))
	require.NoError(t, err)
	layout, err := NewPipelineLayout(f.d, pointSize)
	require.NoError(t, err)
	f.pipe, err = NewGraphicsPipeline(layout, vert, frag, f.rp)
	require.NoError(t, err)

	f.close = func() {
		require.NoError(t, f.d.WaitIdle())
		f.pipe.Destroy()
		layout.Destroy()
		vert.Destroy()
		frag.Destroy()
		f.buf.Destroy()
		for _, fb := range f.fbs {
			fb.Destroy()
		}
		f.rp.Destroy()
		f.sc.Destroy()
		f.pool.Destroy()
		f.d.Destroy()
	}
	return f
}

func (f *commandFixture) record() {
	f.cb.Begin(driver.CommandBufferUsageOneTimeSubmit)
	f.cb.BeginRenderPass(f.rp, f.fbs[0], [4]float32{0, 0, 0, 1})
	f.cb.SetViewport(f.sc.Extent)
	f.cb.Bind(f.pipe)
	f.cb.BindVertexBuffer(f.buf)
	f.cb.PushConstants(f.pipe.Layout(), driver.ShaderStageVertex, Point{0.1, 0.2}.Bytes())
	f.cb.Draw(3)
	f.cb.EndRenderPass()
	f.cb.End()
}

func TestCommandBufferRecording(t *testing.T) {
	f := newCommandFixture(t)
	defer f.close()

	assert.Equal(t, CommandInitial, f.cb.State())
	f.record()
	assert.Equal(t, CommandExecutable, f.cb.State())

	require.NoError(t, f.q.Submit(f.cb, nil, nil, nil))
	assert.Equal(t, CommandPending, f.cb.State())

	subs := f.gpu.Submits()
	require.Len(t, subs, 1)
	assert.Equal(t, []driver.CommandBuffer{f.cb.Handle()}, subs[0].CommandBuffers)
	assert.Equal(t, []driver.Framebuffer{f.fbs[0].Handle()}, subs[0].Framebuffers)
	assert.Equal(t, 1, subs[0].Draws)
	assert.Empty(t, f.gpu.Violations())
}

func TestCommandBufferOrder(t *testing.T) {
	tests := []struct {
		name string
		run  func(f *commandFixture)
	}{
		{"draw before begin", func(f *commandFixture) { f.cb.Draw(3) }},
		{"end before begin", func(f *commandFixture) { f.cb.End() }},
		{"draw outside render pass", func(f *commandFixture) {
			f.cb.Begin(0)
			f.cb.Draw(3)
		}},
		{"end inside render pass", func(f *commandFixture) {
			f.cb.Begin(0)
			f.cb.BeginRenderPass(f.rp, f.fbs[0], [4]float32{})
			f.cb.End()
		}},
		{"nested render pass", func(f *commandFixture) {
			f.cb.Begin(0)
			f.cb.BeginRenderPass(f.rp, f.fbs[0], [4]float32{})
			f.cb.BeginRenderPass(f.rp, f.fbs[1], [4]float32{})
		}},
		{"begin while recording", func(f *commandFixture) {
			f.cb.Begin(0)
			f.cb.Begin(0)
		}},
		{"end render pass outside render pass", func(f *commandFixture) {
			f.cb.Begin(0)
			f.cb.EndRenderPass()
		}},
		{"transition inside render pass", func(f *commandFixture) {
			img, err := NewImage(f.d, 4, 4, driver.FormatR8g8b8a8Srgb)
			if err != nil {
				panic(err)
			}
			defer img.Destroy()
			f.cb.Begin(0)
			f.cb.BeginRenderPass(f.rp, f.fbs[0], [4]float32{})
			f.cb.Transition(img, driver.ImageLayoutTransferDstOptimal)
		}},
		{"submit while recording", func(f *commandFixture) {
			f.cb.Begin(0)
			f.q.Submit(f.cb, nil, nil, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCommandFixture(t)
			err := recoverErr(func() { tt.run(f) })
			assert.ErrorIs(t, err, ErrCommandState)
			// Leave the buffer in a state the pool can free.
			if f.cb.State() == CommandRecording || f.cb.State() == CommandInRenderPass {
				f.cb.Reset()
			}
			f.close()
		})
	}
}

func TestCommandBufferInFlight(t *testing.T) {
	f := newCommandFixture(t, drivertest.Manual())
	defer f.close()

	fence, err := NewFence(f.d, true)
	require.NoError(t, err)
	defer fence.Destroy()

	f.record()
	require.NoError(t, f.q.Submit(f.cb, nil, nil, fence))
	assert.True(t, f.cb.Pending())

	err = recoverErr(func() { f.cb.Begin(0) })
	assert.ErrorIs(t, err, ErrCommandInFlight)
	assert.Empty(t, f.gpu.Violations(), "the driver never sees the re-record")

	require.True(t, f.gpu.CompleteNext())
	assert.False(t, f.cb.Pending())
	f.record()
	assert.Empty(t, f.gpu.Violations())
}

func TestBindForeignBuffer(t *testing.T) {
	f := newCommandFixture(t)
	defer f.close()

	other, err := NewDevice(f.d.Physical(), driver.NullHandle, nil, nil)
	require.NoError(t, err)
	buf, err := NewBuffer(other, 64, driver.BufferUsageVertex)
	require.NoError(t, err)

	f.cb.Begin(0)
	err = recoverErr(func() { f.cb.BindVertexBuffer(buf) })
	assert.ErrorIs(t, err, ErrForeignDevice)
	f.cb.End()

	buf.Destroy()
	other.Destroy()
}

func TestCommandPoolFree(t *testing.T) {
	f := newCommandFixture(t)
	defer f.close()

	cbs, err := f.pool.AllocateCommandBuffers(3)
	require.NoError(t, err)
	f.pool.Free(cbs[1])
	assert.Equal(t, CommandInvalid, cbs[1].State())
	assert.Equal(t, 3, f.gpu.Live()["command buffer"])
	assert.Empty(t, f.gpu.Violations())
}
