package vkframe

import (
	"github.com/andewx/vkframe/driver"
)

// Queue is a device queue of a single family. Queues are created with
// their device and never destroyed separately.
type Queue struct {
	device *Device
	handle driver.Queue
	Family uint32
	Index  uint32
	Flags  driver.QueueFlags
}

func (q *Queue) Handle() driver.Queue { return q.handle }

// SupportsPresent reports whether the queue family can present to surface.
func (q *Queue) SupportsPresent(surface driver.Surface) bool {
	return q.device.physical.SupportsPresent(q.Family, surface)
}

// Submit submits cmd. The submission waits on waits, signals signals and
// then fence, which may be nil. The command buffer stays pending until
// fence is observed signaled.
func (q *Queue) Submit(cmd *CommandBuffer, waits, signals []*Semaphore, fence *Fence) error {
	info := driver.SubmitInfo{
		WaitSemaphores:   semaphoreHandles(waits),
		SignalSemaphores: semaphoreHandles(signals),
	}
	if cmd != nil {
		if cmd.state != CommandExecutable {
			panic(commandStateError(cmd.state, "submit"))
		}
		info.CommandBuffers = []driver.CommandBuffer{cmd.handle}
	}
	var fh driver.Fence
	if fence != nil {
		fh = fence.handle
	}
	if err := newError(q.device.drv.QueueSubmit(q.handle, []driver.SubmitInfo{info}, fh), "queue submit"); err != nil {
		return err
	}
	if cmd != nil {
		cmd.submitted(fence)
	}
	if fence != nil {
		fence.submitted = true
	}
	return nil
}

// Present queues imageIndex of sc for presentation after waits are
// signaled. The raw result is returned so that callers can tell the
// out-of-date class apart from fatal errors.
func (q *Queue) Present(sc *Swapchain, imageIndex uint32, waits []*Semaphore) driver.Result {
	return q.device.drv.QueuePresent(q.handle, &driver.PresentInfo{
		WaitSemaphores: semaphoreHandles(waits),
		Swapchain:      sc.handle,
		ImageIndex:     imageIndex,
	})
}

func semaphoreHandles(sems []*Semaphore) []driver.Semaphore {
	if len(sems) == 0 {
		return nil
	}
	handles := make([]driver.Semaphore, len(sems))
	for i, s := range sems {
		handles[i] = s.handle
	}
	return handles
}
