package driver

import "strconv"

// Result mirrors the native result codes. Negative values are errors,
// positive values are non-error status codes.
type Result int32

const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	Incomplete                Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorSurfaceLost          Result = -1000000000
	Suboptimal                Result = 1000001003
	ErrorOutOfDate            Result = -1000001004
)

var resultNames = map[Result]string{
	Success:                   "success",
	NotReady:                  "not ready",
	Timeout:                   "timeout",
	Incomplete:                "incomplete",
	ErrorOutOfHostMemory:      "out of host memory",
	ErrorOutOfDeviceMemory:    "out of device memory",
	ErrorInitializationFailed: "initialization failed",
	ErrorDeviceLost:           "device lost",
	ErrorMemoryMapFailed:      "memory map failed",
	ErrorLayerNotPresent:      "layer not present",
	ErrorExtensionNotPresent:  "extension not present",
	ErrorFeatureNotPresent:    "feature not present",
	ErrorIncompatibleDriver:   "incompatible driver",
	ErrorSurfaceLost:          "surface lost",
	Suboptimal:                "suboptimal",
	ErrorOutOfDate:            "out of date",
}

func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return "result " + strconv.Itoa(int(r))
}

// Error implements error so that results can be wrapped directly.
func (r Result) Error() string {
	return "driver: " + r.String() + " (" + strconv.Itoa(int(r)) + ")"
}

// Err returns nil on Success and r otherwise.
func (r Result) Err() error {
	if r == Success {
		return nil
	}
	return r
}

// IsOutOfDate reports whether r signals that the surface no longer
// matches the swapchain and the swapchain must be recreated.
func (r Result) IsOutOfDate() bool {
	return r == ErrorOutOfDate || r == Suboptimal
}
