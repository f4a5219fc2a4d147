package vulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkframe/driver"
)

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

func newError(ret vk.Result, op string) error {
	if isError(ret) {
		return errors.Wrap(driver.Result(ret), op)
	}
	return nil
}

func orPanic(err error) {
	if err != nil {
		panic(err)
	}
}

func checkErr(err *error) {
	if v := recover(); v != nil {
		if e, ok := v.(error); ok {
			*err = e
			return
		}
		*err = fmt.Errorf("%+v", v)
	}
}
