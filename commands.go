package vkframe

import (
	"github.com/pkg/errors"

	"github.com/andewx/vkframe/driver"
)

// CommandPool allocates command buffers for a single queue family.
type CommandPool struct {
	device  *Device
	handle  driver.CommandPool
	family  uint32
	buffers []*CommandBuffer
}

// NewCommandPool creates a command pool. Pass
// driver.CommandPoolResetCommandBuffer to re-record buffers individually.
func NewCommandPool(d *Device, family uint32, flags driver.CommandPoolFlags) (*CommandPool, error) {
	h, res := d.drv.CreateCommandPool(d.handle, family, flags)
	if err := newError(res, "create command pool"); err != nil {
		return nil, err
	}
	return &CommandPool{device: d, handle: h, family: family}, nil
}

func (p *CommandPool) Handle() driver.CommandPool { return p.handle }

// AllocateCommandBuffers allocates n primary command buffers.
func (p *CommandPool) AllocateCommandBuffers(n int) ([]*CommandBuffer, error) {
	handles, res := p.device.drv.AllocateCommandBuffers(p.device.handle, p.handle, uint32(n))
	if err := newError(res, "allocate command buffers"); err != nil {
		return nil, err
	}
	cbs := make([]*CommandBuffer, len(handles))
	for i, h := range handles {
		cbs[i] = &CommandBuffer{pool: p, handle: h}
	}
	p.buffers = append(p.buffers, cbs...)
	return cbs, nil
}

// Free returns cbs to the pool. None of them may be pending.
func (p *CommandPool) Free(cbs ...*CommandBuffer) {
	var handles []driver.CommandBuffer
	for _, cb := range cbs {
		if cb.handle == driver.NullHandle {
			continue
		}
		handles = append(handles, cb.handle)
		cb.handle = driver.NullHandle
		cb.state = CommandInvalid
		for i, b := range p.buffers {
			if b == cb {
				p.buffers = append(p.buffers[:i], p.buffers[i+1:]...)
				break
			}
		}
	}
	if len(handles) > 0 {
		p.device.drv.FreeCommandBuffers(p.device.handle, p.handle, handles)
	}
}

// Destroy frees every buffer still allocated from p and destroys the pool.
func (p *CommandPool) Destroy() {
	if p.handle == driver.NullHandle {
		return
	}
	p.Free(append([]*CommandBuffer(nil), p.buffers...)...)
	p.device.drv.DestroyCommandPool(p.device.handle, p.handle)
	p.handle = driver.NullHandle
}

// CommandState is the recording state of a CommandBuffer.
type CommandState int

const (
	CommandInitial CommandState = iota
	CommandRecording
	CommandInRenderPass
	CommandExecutable
	CommandPending
	CommandInvalid
)

var commandStateNames = [...]string{
	CommandInitial:      "initial",
	CommandRecording:    "recording",
	CommandInRenderPass: "in render pass",
	CommandExecutable:   "executable",
	CommandPending:      "pending",
	CommandInvalid:      "invalid",
}

func (s CommandState) String() string {
	if int(s) < len(commandStateNames) {
		return commandStateNames[s]
	}
	return "unknown"
}

func commandStateError(s CommandState, op string) error {
	return errors.Wrapf(ErrCommandState, "%s in state %s", op, s)
}

// CommandBuffer records commands for one submission at a time. Calls made
// out of order panic with ErrCommandState.
type CommandBuffer struct {
	pool   *CommandPool
	handle driver.CommandBuffer
	state  CommandState

	// fence and gen identify the submission that last consumed the buffer.
	fence *Fence
	gen   uint64
}

func (c *CommandBuffer) Handle() driver.CommandBuffer { return c.handle }

func (c *CommandBuffer) State() CommandState { return c.state }

func (c *CommandBuffer) drv() driver.Driver { return c.pool.device.drv }

func (c *CommandBuffer) expect(op string, states ...CommandState) {
	for _, s := range states {
		if c.state == s {
			return
		}
	}
	panic(commandStateError(c.state, op))
}

// Pending reports whether the last submission of c has not completed.
// Submissions made without a fence are assumed complete.
func (c *CommandBuffer) Pending() bool {
	if c.state != CommandPending || c.fence == nil {
		return false
	}
	if c.fence.gen != c.gen || c.fence.handle == driver.NullHandle {
		return false
	}
	return !c.fence.Signaled()
}

func (c *CommandBuffer) submitted(fence *Fence) {
	c.state = CommandPending
	c.fence = fence
	if fence != nil {
		c.gen = fence.gen
	}
}

// Begin starts recording, implicitly resetting previous contents. It
// panics with ErrCommandInFlight if the last submission is still pending.
func (c *CommandBuffer) Begin(usage driver.CommandBufferUsage) {
	c.expect("begin", CommandInitial, CommandExecutable, CommandPending)
	if c.Pending() {
		panic(ErrCommandInFlight)
	}
	orPanic(newError(c.drv().BeginCommandBuffer(c.handle, usage), "begin command buffer"))
	c.state = CommandRecording
	c.fence = nil
}

func (c *CommandBuffer) End() {
	c.expect("end", CommandRecording)
	orPanic(newError(c.drv().EndCommandBuffer(c.handle), "end command buffer"))
	c.state = CommandExecutable
}

// Reset returns the buffer to the initial state. The pool must have been
// created with driver.CommandPoolResetCommandBuffer.
func (c *CommandBuffer) Reset() {
	c.expect("reset", CommandInitial, CommandRecording, CommandInRenderPass, CommandExecutable, CommandPending)
	if c.Pending() {
		panic(ErrCommandInFlight)
	}
	orPanic(newError(c.drv().ResetCommandBuffer(c.handle), "reset command buffer"))
	c.state = CommandInitial
	c.fence = nil
}

func (c *CommandBuffer) BeginRenderPass(rp *RenderPass, fb *Framebuffer, clear [4]float32) {
	c.expect("begin render pass", CommandRecording)
	c.drv().CmdBeginRenderPass(c.handle, &driver.RenderPassBeginInfo{
		RenderPass:  rp.handle,
		Framebuffer: fb.handle,
		Extent:      fb.extent,
		ClearColor:  clear,
	})
	c.state = CommandInRenderPass
}

func (c *CommandBuffer) EndRenderPass() {
	c.expect("end render pass", CommandInRenderPass)
	c.drv().CmdEndRenderPass(c.handle)
	c.state = CommandRecording
}

// Bind binds a graphics pipeline.
func (c *CommandBuffer) Bind(p *GraphicsPipeline) {
	c.expect("bind pipeline", CommandRecording, CommandInRenderPass)
	c.drv().CmdBindPipeline(c.handle, p.handle)
}

// BindVertexBuffer binds buf at binding 0. The buffer must belong to the
// device of the command pool.
func (c *CommandBuffer) BindVertexBuffer(buf *Buffer) {
	c.expect("bind vertex buffer", CommandRecording, CommandInRenderPass)
	if buf.device != c.pool.device {
		panic(errors.Wrap(ErrForeignDevice, "bind vertex buffer"))
	}
	c.drv().CmdBindVertexBuffer(c.handle, buf.handle, 0)
}

// SetViewport sets both the dynamic viewport and scissor to cover extent.
func (c *CommandBuffer) SetViewport(extent driver.Extent2D) {
	c.expect("set viewport", CommandRecording, CommandInRenderPass)
	c.drv().CmdSetViewport(c.handle, extent)
	c.drv().CmdSetScissor(c.handle, extent)
}

func (c *CommandBuffer) PushConstants(layout *PipelineLayout, stages driver.ShaderStage, data []byte) {
	c.expect("push constants", CommandRecording, CommandInRenderPass)
	c.drv().CmdPushConstants(c.handle, layout.handle, stages, 0, data)
}

// Draw draws vertexCount vertices of a single instance.
func (c *CommandBuffer) Draw(vertexCount uint32) {
	c.expect("draw", CommandInRenderPass)
	c.drv().CmdDraw(c.handle, vertexCount, 1, 0, 0)
}

// Transition records a layout transition of img to layout.
func (c *CommandBuffer) Transition(img *Image, layout driver.ImageLayout) {
	c.expect("image transition", CommandRecording)
	c.drv().CmdImageBarrier(c.handle, &driver.ImageBarrier{
		Image:     img.handle,
		OldLayout: img.layout,
		NewLayout: layout,
	})
	img.layout = layout
}

// CopyBufferToImage copies the whole of img from buf. img must be in the
// transfer destination layout.
func (c *CommandBuffer) CopyBufferToImage(buf *Buffer, img *Image) {
	c.expect("copy buffer to image", CommandRecording)
	if buf.device != c.pool.device || img.device != c.pool.device {
		panic(errors.Wrap(ErrForeignDevice, "copy buffer to image"))
	}
	c.drv().CmdCopyBufferToImage(c.handle, buf.handle, img.handle, img.extent)
}
