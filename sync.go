package vkframe

import (
	"github.com/andewx/vkframe/driver"
)

// noCopy may be embedded into structs which must not be copied after
// first use. go vet's copylocks check reports copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Semaphore is a binary GPU-GPU ordering primitive. It is not copyable;
// use Move to transfer ownership.
type Semaphore struct {
	_      noCopy
	device *Device
	handle driver.Semaphore
}

func NewSemaphore(d *Device) (*Semaphore, error) {
	h, res := d.drv.CreateSemaphore(d.handle)
	if err := newError(res, "create semaphore"); err != nil {
		return nil, err
	}
	Logger().Debug("vkframe: semaphore created", "handle", h)
	return &Semaphore{device: d, handle: h}, nil
}

func (s *Semaphore) Handle() driver.Semaphore { return s.handle }

// Move returns a new Semaphore owning the handle of s and leaves s empty.
func (s *Semaphore) Move() *Semaphore {
	m := &Semaphore{device: s.device, handle: s.handle}
	s.handle = driver.NullHandle
	return m
}

// Destroy releases the semaphore. It is a no-op on an empty semaphore.
func (s *Semaphore) Destroy() {
	if s.handle == driver.NullHandle {
		return
	}
	s.device.drv.DestroySemaphore(s.device.handle, s.handle)
	s.handle = driver.NullHandle
}

// Fence is a GPU-CPU completion primitive. Fences are created unsignaled
// and cannot be waited on until they have been reset at least once when
// canWait is false, which lets a frame loop wait unconditionally on its
// first pass.
type Fence struct {
	_         noCopy
	device    *Device
	handle    driver.Fence
	canWait   bool
	submitted bool
	// gen counts resets so that command buffers can tell whether the
	// fence still tracks their submission.
	gen uint64
}

func NewFence(d *Device, canWait bool) (*Fence, error) {
	h, res := d.drv.CreateFence(d.handle, false)
	if err := newError(res, "create fence"); err != nil {
		return nil, err
	}
	Logger().Debug("vkframe: fence created", "handle", h, "can_wait", canWait)
	return &Fence{device: d, handle: h, canWait: canWait}, nil
}

func (f *Fence) Handle() driver.Fence { return f.handle }

func (f *Fence) CanWait() bool { return f.canWait }

// Wait blocks without timeout until the fence is signaled. It returns
// immediately while canWait is false. Waiting a fence that was reset but
// not submitted since panics with ErrFenceNotSubmitted.
func (f *Fence) Wait() {
	if !f.canWait {
		return
	}
	if !f.submitted {
		panic(ErrFenceNotSubmitted)
	}
	orPanic(newError(f.device.drv.WaitForFence(f.device.handle, f.handle, driver.MaxTimeout), "wait for fence"))
}

// Reset returns the fence to the unsignaled state and makes it waitable.
func (f *Fence) Reset() {
	orPanic(newError(f.device.drv.ResetFence(f.device.handle, f.handle), "reset fence"))
	f.canWait = true
	f.submitted = false
	f.gen++
}

// Signaled reports whether the fence is signaled, without blocking.
func (f *Fence) Signaled() bool {
	return f.device.drv.FenceStatus(f.device.handle, f.handle) == driver.Success
}

// Move returns a new Fence owning the handle and state of f and leaves
// f empty.
func (f *Fence) Move() *Fence {
	m := &Fence{device: f.device, handle: f.handle, canWait: f.canWait, submitted: f.submitted, gen: f.gen}
	f.handle = driver.NullHandle
	f.canWait = false
	f.submitted = false
	return m
}

// Destroy releases the fence. It is a no-op on an empty fence.
func (f *Fence) Destroy() {
	if f.handle == driver.NullHandle {
		return
	}
	f.device.drv.DestroyFence(f.device.handle, f.handle)
	f.handle = driver.NullHandle
}
