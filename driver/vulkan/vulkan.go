// Package vulkan implements driver.Driver on top of vulkan-go.
package vulkan

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkframe/driver"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// Config controls instance creation.
type Config struct {
	AppName string
	// InstanceExtensions are required, typically the ones reported by
	// glfw.Window.GetRequiredInstanceExtensions.
	InstanceExtensions []string
	// Validation enables the Khronos validation layer and the debug
	// report callback when they are available.
	Validation bool
}

// Driver is the Vulkan backend. Create it with Open after glfw.Init.
type Driver struct {
	instance      vk.Instance
	debugCallback vk.DebugReportCallback
	layers        []string
	log           atomic.Pointer[slog.Logger]

	ids            atomic.Uint64
	gpuOf          sync.Map // driver.Device -> vk.PhysicalDevice
	owned          sync.Map // driver.Swapchain -> []driver.Image
	gpus           *table[vk.PhysicalDevice]
	devices        *table[vk.Device]
	queues         *table[vk.Queue]
	surfaces       *table[vk.Surface]
	semaphores     *table[vk.Semaphore]
	fences         *table[vk.Fence]
	swapchains     *table[vk.Swapchain]
	images         *table[vk.Image]
	views          *table[vk.ImageView]
	renderPasses   *table[vk.RenderPass]
	framebuffers   *table[vk.Framebuffer]
	pools          *table[vk.CommandPool]
	commandBuffers *table[vk.CommandBuffer]
	buffers        *table[vk.Buffer]
	memory         *table[vk.DeviceMemory]
	shaders        *table[vk.ShaderModule]
	layouts        *table[vk.PipelineLayout]
	pipelines      *table[vk.Pipeline]
}

var _ driver.Driver = (*Driver)(nil)

// Open loads the Vulkan entry points through glfw and creates an instance.
func Open(cfg Config) (d *Driver, err error) {
	defer checkErr(&err)

	d = &Driver{}
	d.SetLogger(nil)
	d.initTables()

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	orPanic(errors.Wrap(vk.Init(), "vulkan init"))

	actual, err := instanceExtensions()
	orPanic(err)
	exts := &extensionSet{required: cfg.InstanceExtensions, actual: actual}
	if cfg.Validation {
		exts.wanted = []string{"VK_EXT_debug_report"}
	}
	if missing := exts.missing(); len(missing) > 0 {
		return nil, errors.Errorf("vulkan: missing instance extensions %v", missing)
	}
	enabled := exts.enabled()
	d.logger().Info("vulkan: enabling instance extensions", "count", len(enabled), "names", enabled)

	if cfg.Validation {
		available, err := validationLayers()
		orPanic(err)
		layers := &extensionSet{wanted: []string{validationLayer}, actual: available}
		d.layers = layers.enabled()
		if len(d.layers) == 0 {
			d.logger().Warn("vulkan: validation requested but layer not available", "layer", validationLayer)
		}
	}

	appName := cfg.AppName
	if appName == "" {
		appName = "vkframe"
	}
	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 1, 0),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   safeString(appName),
			PEngineName:        safeString("vkframe"),
		},
		EnabledExtensionCount:   uint32(len(enabled)),
		PpEnabledExtensionNames: safeStrings(enabled),
		EnabledLayerCount:       uint32(len(d.layers)),
		PpEnabledLayerNames:     safeStrings(d.layers),
	}, nil, &instance)
	orPanic(newError(ret, "create instance"))
	d.instance = instance
	vk.InitInstance(instance)

	if cfg.Validation && contains(enabled, "VK_EXT_debug_report") {
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: d.debugReport,
		}, nil, &d.debugCallback)
		orPanic(newError(ret, "create debug report callback"))
		d.logger().Info("vulkan: debug report callback enabled")
	}
	return d, nil
}

func (d *Driver) initTables() {
	d.gpus = newTable[vk.PhysicalDevice](&d.ids)
	d.devices = newTable[vk.Device](&d.ids)
	d.queues = newTable[vk.Queue](&d.ids)
	d.surfaces = newTable[vk.Surface](&d.ids)
	d.semaphores = newTable[vk.Semaphore](&d.ids)
	d.fences = newTable[vk.Fence](&d.ids)
	d.swapchains = newTable[vk.Swapchain](&d.ids)
	d.images = newTable[vk.Image](&d.ids)
	d.views = newTable[vk.ImageView](&d.ids)
	d.renderPasses = newTable[vk.RenderPass](&d.ids)
	d.framebuffers = newTable[vk.Framebuffer](&d.ids)
	d.pools = newTable[vk.CommandPool](&d.ids)
	d.commandBuffers = newTable[vk.CommandBuffer](&d.ids)
	d.buffers = newTable[vk.Buffer](&d.ids)
	d.memory = newTable[vk.DeviceMemory](&d.ids)
	d.shaders = newTable[vk.ShaderModule](&d.ids)
	d.layouts = newTable[vk.PipelineLayout](&d.ids)
	d.pipelines = newTable[vk.Pipeline](&d.ids)
}

func (d *Driver) Name() string { return "vulkan" }

// SetLogger routes backend diagnostics and validation-layer reports to l.
// A nil logger discards them.
func (d *Driver) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.log.Store(l)
}

func (d *Driver) logger() *slog.Logger {
	return d.log.Load()
}

// Close destroys the debug callback and the instance. Every surface and
// device must already be destroyed.
func (d *Driver) Close() {
	if n := d.devices.len(); n > 0 {
		d.logger().Warn("vulkan: closing with live devices", "count", n)
	}
	if d.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(d.instance, d.debugCallback, nil)
		d.debugCallback = vk.NullDebugReportCallback
	}
	if d.instance != nil {
		vk.DestroyInstance(d.instance, nil)
		d.instance = nil
	}
}

func (d *Driver) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	level := slog.LevelInfo
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		level = slog.LevelError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		level = slog.LevelWarn
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		level = slog.LevelDebug
	}
	d.logger().Log(context.Background(), level, pMessage, "layer", pLayerPrefix, "code", messageCode)
	return vk.Bool32(vk.False)
}
