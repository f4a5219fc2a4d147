package vkframe

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/andewx/vkframe/driver"
)

var (
	ErrNoDevice          = errors.New("vkframe: no suitable physical device")
	ErrNoMatchingQueue   = errors.New("vkframe: no queue matches the requested flags")
	ErrNoPresentSupport  = errors.New("vkframe: no queue can present to the surface")
	ErrNoSurfaceFormat   = errors.New("vkframe: surface reports no formats")
	ErrNoMemoryType      = errors.New("vkframe: no memory type satisfies the requirements")
	ErrInvalidShader     = errors.New("vkframe: not a SPIR-V module")
	ErrInvalidConfig     = errors.New("vkframe: invalid config")
	ErrForeignDevice     = errors.New("vkframe: object belongs to another device")
	ErrCommandState      = errors.New("vkframe: command buffer call out of order")
	ErrCommandInFlight   = errors.New("vkframe: command buffer re-recorded while its submission is pending")
	ErrFenceNotSubmitted = errors.New("vkframe: wait on a fence that was reset but never submitted")
)

// newError converts a failed driver result into an error annotated with
// the operation that produced it.
func newError(res driver.Result, op string) error {
	if res == driver.Success {
		return nil
	}
	return errors.Wrap(res, op)
}

// orPanic panics with err after running the finalizers.
func orPanic(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}
		panic(err)
	}
}

// checkErr turns a panic raised by orPanic back into a returned error.
func checkErr(err *error) {
	if v := recover(); v != nil {
		if e, ok := v.(error); ok {
			*err = e
			return
		}
		*err = fmt.Errorf("%+v", v)
	}
}
