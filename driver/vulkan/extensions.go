package vulkan

import (
	vk "github.com/vulkan-go/vulkan"
)

// extensionSet resolves wanted and required names against what the
// platform actually exposes.
type extensionSet struct {
	wanted   []string
	required []string
	actual   []string
}

// missing returns the required names that are not available.
func (e *extensionSet) missing() []string {
	var missing []string
	for _, req := range e.required {
		if !contains(e.actual, req) {
			missing = append(missing, req)
		}
	}
	return missing
}

// enabled returns every required name followed by the wanted names that
// are available and not already required.
func (e *extensionSet) enabled() []string {
	names := append([]string(nil), e.required...)
	for _, want := range e.wanted {
		if !contains(e.required, want) && contains(e.actual, want) {
			names = append(names, want)
		}
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// instanceExtensions gets a list of instance extensions available on the platform.
func instanceExtensions() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceExtensionProperties("", &count, nil)
	orPanic(newError(ret, "enumerate instance extensions"))
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateInstanceExtensionProperties("", &count, list)
	orPanic(newError(ret, "enumerate instance extensions"))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, err
}

// deviceExtensions gets a list of extensions available on the provided physical device.
func deviceExtensions(gpu vk.PhysicalDevice) (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)
	orPanic(newError(ret, "enumerate device extensions"))
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)
	orPanic(newError(ret, "enumerate device extensions"))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, err
}

// validationLayers gets a list of validation layers available on the platform.
func validationLayers() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceLayerProperties(&count, nil)
	orPanic(newError(ret, "enumerate layers"))
	list := make([]vk.LayerProperties, count)
	ret = vk.EnumerateInstanceLayerProperties(&count, list)
	orPanic(newError(ret, "enumerate layers"))
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, err
}

// safeStrings null-terminates names for the C side.
func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}
