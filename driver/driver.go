// Package driver defines the native GPU entry points used by vkframe.
//
// Objects are referenced through opaque handles so that the frame layer
// can run against the Vulkan backend (driver/vulkan) or against the
// simulated GPU used in tests (driver/drivertest). Methods mirror the
// native calls one to one; the caller owns every handle it creates and
// must destroy it through the same Driver.
package driver

// Driver is the interface implemented by GPU backends.
// Implementations are not required to be safe for concurrent use,
// except that WaitForFence may block while another goroutine drives
// the backend.
type Driver interface {
	// Name returns the backend name.
	Name() string

	// Physical devices and surfaces.
	PhysicalDevices() ([]PhysicalDevice, Result)
	PhysicalDeviceProperties(pd PhysicalDevice) PhysicalDeviceProperties
	QueueFamilies(pd PhysicalDevice) []QueueFamily
	DeviceExtensions(pd PhysicalDevice) ([]string, Result)
	MemoryTypes(pd PhysicalDevice) []MemoryType
	SurfaceSupport(pd PhysicalDevice, family uint32, surface Surface) (bool, Result)
	SurfaceCapabilities(pd PhysicalDevice, surface Surface) (SurfaceCapabilities, Result)
	SurfaceFormats(pd PhysicalDevice, surface Surface) ([]SurfaceFormat, Result)
	SurfacePresentModes(pd PhysicalDevice, surface Surface) ([]PresentMode, Result)

	// Logical device and queues.
	CreateDevice(pd PhysicalDevice, info *DeviceCreateInfo) (Device, Result)
	DestroyDevice(dev Device)
	GetDeviceQueue(dev Device, family, index uint32) Queue
	DeviceWaitIdle(dev Device) Result

	// Synchronization.
	CreateSemaphore(dev Device) (Semaphore, Result)
	DestroySemaphore(dev Device, sem Semaphore)
	CreateFence(dev Device, signaled bool) (Fence, Result)
	DestroyFence(dev Device, fence Fence)
	WaitForFence(dev Device, fence Fence, timeout uint64) Result
	ResetFence(dev Device, fence Fence) Result
	FenceStatus(dev Device, fence Fence) Result

	// Presentation.
	CreateSwapchain(dev Device, info *SwapchainCreateInfo) (Swapchain, Result)
	DestroySwapchain(dev Device, sc Swapchain)
	SwapchainImages(dev Device, sc Swapchain) ([]Image, Result)
	AcquireNextImage(dev Device, sc Swapchain, timeout uint64, sem Semaphore, fence Fence) (uint32, Result)
	QueueSubmit(q Queue, submits []SubmitInfo, fence Fence) Result
	QueuePresent(q Queue, info *PresentInfo) Result

	// Attachments.
	CreateImageView(dev Device, info *ImageViewCreateInfo) (ImageView, Result)
	DestroyImageView(dev Device, view ImageView)
	CreateRenderPass(dev Device, info *RenderPassCreateInfo) (RenderPass, Result)
	DestroyRenderPass(dev Device, rp RenderPass)
	CreateFramebuffer(dev Device, info *FramebufferCreateInfo) (Framebuffer, Result)
	DestroyFramebuffer(dev Device, fb Framebuffer)

	// Command pools and buffers.
	CreateCommandPool(dev Device, family uint32, flags CommandPoolFlags) (CommandPool, Result)
	DestroyCommandPool(dev Device, pool CommandPool)
	AllocateCommandBuffers(dev Device, pool CommandPool, count uint32) ([]CommandBuffer, Result)
	FreeCommandBuffers(dev Device, pool CommandPool, cbs []CommandBuffer)
	BeginCommandBuffer(cb CommandBuffer, usage CommandBufferUsage) Result
	EndCommandBuffer(cb CommandBuffer) Result
	ResetCommandBuffer(cb CommandBuffer) Result

	// Commands.
	CmdBeginRenderPass(cb CommandBuffer, info *RenderPassBeginInfo)
	CmdEndRenderPass(cb CommandBuffer)
	CmdBindPipeline(cb CommandBuffer, p Pipeline)
	CmdBindVertexBuffer(cb CommandBuffer, buf Buffer, offset uint64)
	CmdSetViewport(cb CommandBuffer, extent Extent2D)
	CmdSetScissor(cb CommandBuffer, extent Extent2D)
	CmdPushConstants(cb CommandBuffer, layout PipelineLayout, stages ShaderStage, offset uint32, data []byte)
	CmdDraw(cb CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdImageBarrier(cb CommandBuffer, barrier *ImageBarrier)
	CmdCopyBufferToImage(cb CommandBuffer, buf Buffer, img Image, extent Extent2D)

	// Memory, buffers and images.
	CreateBuffer(dev Device, info *BufferCreateInfo) (Buffer, Result)
	DestroyBuffer(dev Device, buf Buffer)
	BufferMemoryRequirements(dev Device, buf Buffer) MemoryRequirements
	CreateImage(dev Device, info *ImageCreateInfo) (Image, Result)
	DestroyImage(dev Device, img Image)
	ImageMemoryRequirements(dev Device, img Image) MemoryRequirements
	AllocateMemory(dev Device, size uint64, typeIndex uint32) (DeviceMemory, Result)
	FreeMemory(dev Device, mem DeviceMemory)
	BindBufferMemory(dev Device, buf Buffer, mem DeviceMemory) Result
	BindImageMemory(dev Device, img Image, mem DeviceMemory) Result
	// WriteMemory maps mem, copies data at offset and unmaps it.
	// The memory must be host visible.
	WriteMemory(dev Device, mem DeviceMemory, offset uint64, data []byte) Result

	// Shaders and pipelines.
	CreateShaderModule(dev Device, code []byte) (ShaderModule, Result)
	DestroyShaderModule(dev Device, m ShaderModule)
	CreatePipelineLayout(dev Device, info *PipelineLayoutCreateInfo) (PipelineLayout, Result)
	DestroyPipelineLayout(dev Device, layout PipelineLayout)
	CreateGraphicsPipeline(dev Device, info *GraphicsPipelineCreateInfo) (Pipeline, Result)
	DestroyPipeline(dev Device, p Pipeline)
}
