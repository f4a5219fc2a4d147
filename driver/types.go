package driver

import "strconv"

// Handle is an opaque reference to an object owned by a Driver.
// The zero value is the null handle.
type Handle uint64

// NullHandle is the empty sentinel shared by every handle type.
const NullHandle = 0

type (
	PhysicalDevice Handle
	Device         Handle
	Queue          Handle
	Surface        Handle
	Semaphore      Handle
	Fence          Handle
	Swapchain      Handle
	Image          Handle
	ImageView      Handle
	RenderPass     Handle
	Framebuffer    Handle
	CommandPool    Handle
	CommandBuffer  Handle
	Buffer         Handle
	DeviceMemory   Handle
	ShaderModule   Handle
	PipelineLayout Handle
	Pipeline       Handle
)

// MaxTimeout makes a wait block until the object is signaled.
const MaxTimeout = ^uint64(0)

// QueueFlags describes the capabilities of a queue family.
type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 0x1
	QueueCompute  QueueFlags = 0x2
	QueueTransfer QueueFlags = 0x4
)

// Has reports whether all bits of flags are set in q.
func (q QueueFlags) Has(flags QueueFlags) bool {
	return q&flags == flags
}

// Format mirrors the native pixel format enumeration.
type Format uint32

const (
	FormatUndefined       Format = 0
	FormatR8g8b8Unorm     Format = 23
	FormatR8g8b8a8Unorm   Format = 37
	FormatR8g8b8a8Srgb    Format = 43
	FormatB8g8r8a8Unorm   Format = 44
	FormatB8g8r8a8Srgb    Format = 50
	FormatR32g32Sfloat    Format = 103
	FormatR32g32b32Sfloat Format = 106
)

var formatNames = map[Format]string{
	FormatUndefined:       "UNDEFINED",
	FormatR8g8b8Unorm:     "R8G8B8_UNORM",
	FormatR8g8b8a8Unorm:   "R8G8B8A8_UNORM",
	FormatR8g8b8a8Srgb:    "R8G8B8A8_SRGB",
	FormatB8g8r8a8Unorm:   "B8G8R8A8_UNORM",
	FormatB8g8r8a8Srgb:    "B8G8R8A8_SRGB",
	FormatR32g32Sfloat:    "R32G32_SFLOAT",
	FormatR32g32b32Sfloat: "R32G32B32_SFLOAT",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return "FORMAT_" + strconv.FormatUint(uint64(f), 10)
}

// ParseFormat returns the Format named s (e.g. "B8G8R8A8_SRGB").
func ParseFormat(s string) (Format, bool) {
	for f, name := range formatNames {
		if name == s {
			return f, true
		}
	}
	return FormatUndefined, false
}

// ColorSpace mirrors the native color space enumeration.
type ColorSpace uint32

const ColorSpaceSrgbNonlinear ColorSpace = 0

// PresentMode mirrors the native presentation mode enumeration.
type PresentMode uint32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

var presentModeNames = map[PresentMode]string{
	PresentModeImmediate:   "immediate",
	PresentModeMailbox:     "mailbox",
	PresentModeFifo:        "fifo",
	PresentModeFifoRelaxed: "fifo_relaxed",
}

func (m PresentMode) String() string {
	if s, ok := presentModeNames[m]; ok {
		return s
	}
	return "present_mode_" + strconv.FormatUint(uint64(m), 10)
}

// ParsePresentMode returns the PresentMode named s (e.g. "mailbox").
func ParsePresentMode(s string) (PresentMode, bool) {
	for m, name := range presentModeNames {
		if name == s {
			return m, true
		}
	}
	return PresentModeFifo, false
}

// ImageLayout mirrors the native image layout enumeration.
type ImageLayout uint32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutShaderReadOnlyOptimal  ImageLayout = 5
	ImageLayoutTransferDstOptimal     ImageLayout = 7
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

type ImageUsage uint32

const (
	ImageUsageTransferSrc     ImageUsage = 0x01
	ImageUsageTransferDst     ImageUsage = 0x02
	ImageUsageSampled         ImageUsage = 0x04
	ImageUsageColorAttachment ImageUsage = 0x10
)

type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 0x01
	BufferUsageTransferDst BufferUsage = 0x02
	BufferUsageUniform     BufferUsage = 0x10
	BufferUsageIndex       BufferUsage = 0x40
	BufferUsageVertex      BufferUsage = 0x80
)

type MemoryPropertyFlags uint32

const (
	MemoryDeviceLocal  MemoryPropertyFlags = 0x1
	MemoryHostVisible  MemoryPropertyFlags = 0x2
	MemoryHostCoherent MemoryPropertyFlags = 0x4
)

type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x01
	ShaderStageFragment ShaderStage = 0x10
)

type CommandBufferUsage uint32

const CommandBufferUsageOneTimeSubmit CommandBufferUsage = 0x1

type CommandPoolFlags uint32

const (
	CommandPoolTransient          CommandPoolFlags = 0x1
	CommandPoolResetCommandBuffer CommandPoolFlags = 0x2
)

type DeviceType uint32

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

type Extent2D struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero, as happens
// for minimized windows.
func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount of zero means there is no upper bound.
	MaxImageCount uint32
	// CurrentExtent is {MaxUint32, MaxUint32} when the surface
	// size is determined by the swapchain.
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

// UndefinedExtent is the CurrentExtent value of surfaces that let the
// swapchain pick its size.
const UndefinedExtent = ^uint32(0)

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type QueueFamily struct {
	Flags QueueFlags
	Count uint32
}

type PhysicalDeviceProperties struct {
	Name       string
	Type       DeviceType
	APIVersion uint32
}

type MemoryType struct {
	Flags MemoryPropertyFlags
	Heap  uint32
}

type MemoryRequirements struct {
	Size      uint64
	Alignment uint64
	TypeBits  uint32
}

type QueueCreateInfo struct {
	Family uint32
	Count  uint32
}

type DeviceCreateInfo struct {
	Queues     []QueueCreateInfo
	Extensions []string
	Layers     []string
}

type SwapchainCreateInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent2D
	Usage         ImageUsage
	PresentMode   PresentMode
	OldSwapchain  Swapchain
}

type ImageViewCreateInfo struct {
	Image  Image
	Format Format
}

type RenderPassCreateInfo struct {
	ColorFormat Format
	FinalLayout ImageLayout
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Extent      Extent2D
	ClearColor  [4]float32
}

type BufferCreateInfo struct {
	Size  uint64
	Usage BufferUsage
}

type ImageCreateInfo struct {
	Extent Extent2D
	Format Format
	Usage  ImageUsage
}

type PipelineLayoutCreateInfo struct {
	PushConstantSize   uint32
	PushConstantStages ShaderStage
}

type VertexBinding struct {
	Binding uint32
	Stride  uint32
}

type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type GraphicsPipelineCreateInfo struct {
	Layout     PipelineLayout
	RenderPass RenderPass
	Vertex     ShaderModule
	Fragment   ShaderModule
	Bindings   []VertexBinding
	Attributes []VertexAttribute
}

type ImageBarrier struct {
	Image     Image
	OldLayout ImageLayout
	NewLayout ImageLayout
}
