package vulkan

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkframe/driver"
)

func (d *Driver) CreateBuffer(dev driver.Device, info *driver.BufferCreateInfo) (driver.Buffer, driver.Result) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(d.devices.get(uint64(dev)), &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(info.Usage),
		Size:        vk.DeviceSize(info.Size),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.Buffer(d.buffers.add(buffer)), driver.Success
}

func (d *Driver) DestroyBuffer(dev driver.Device, buf driver.Buffer) {
	if b, ok := d.buffers.remove(uint64(buf)); ok {
		vk.DestroyBuffer(d.devices.get(uint64(dev)), b, nil)
	}
}

func (d *Driver) BufferMemoryRequirements(dev driver.Device, buf driver.Buffer) driver.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.devices.get(uint64(dev)), d.buffers.get(uint64(buf)), &reqs)
	reqs.Deref()
	return memoryRequirements(reqs)
}

func (d *Driver) CreateImage(dev driver.Device, info *driver.ImageCreateInfo) (driver.Image, driver.Result) {
	var image vk.Image
	ret := vk.CreateImage(d.devices.get(uint64(dev)), &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        vk.Format(info.Format),
		Extent:        vk.Extent3D{Width: info.Extent.Width, Height: info.Extent.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(info.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &image)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.Image(d.images.add(image)), driver.Success
}

func (d *Driver) DestroyImage(dev driver.Device, img driver.Image) {
	if i, ok := d.images.remove(uint64(img)); ok {
		vk.DestroyImage(d.devices.get(uint64(dev)), i, nil)
	}
}

func (d *Driver) ImageMemoryRequirements(dev driver.Device, img driver.Image) driver.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.devices.get(uint64(dev)), d.images.get(uint64(img)), &reqs)
	reqs.Deref()
	return memoryRequirements(reqs)
}

func memoryRequirements(reqs vk.MemoryRequirements) driver.MemoryRequirements {
	return driver.MemoryRequirements{
		Size:      uint64(reqs.Size),
		Alignment: uint64(reqs.Alignment),
		TypeBits:  reqs.MemoryTypeBits,
	}
}

func (d *Driver) AllocateMemory(dev driver.Device, size uint64, typeIndex uint32) (driver.DeviceMemory, driver.Result) {
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(d.devices.get(uint64(dev)), &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}, nil, &memory)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.DeviceMemory(d.memory.add(memory)), driver.Success
}

func (d *Driver) FreeMemory(dev driver.Device, mem driver.DeviceMemory) {
	if m, ok := d.memory.remove(uint64(mem)); ok {
		vk.FreeMemory(d.devices.get(uint64(dev)), m, nil)
	}
}

func (d *Driver) BindBufferMemory(dev driver.Device, buf driver.Buffer, mem driver.DeviceMemory) driver.Result {
	ret := vk.BindBufferMemory(d.devices.get(uint64(dev)), d.buffers.get(uint64(buf)), d.memory.get(uint64(mem)), 0)
	return driver.Result(ret)
}

func (d *Driver) BindImageMemory(dev driver.Device, img driver.Image, mem driver.DeviceMemory) driver.Result {
	ret := vk.BindImageMemory(d.devices.get(uint64(dev)), d.images.get(uint64(img)), d.memory.get(uint64(mem)), 0)
	return driver.Result(ret)
}

func (d *Driver) WriteMemory(dev driver.Device, mem driver.DeviceMemory, offset uint64, data []byte) driver.Result {
	if len(data) == 0 {
		return driver.Success
	}
	device, memory := d.devices.get(uint64(dev)), d.memory.get(uint64(mem))
	var pData unsafe.Pointer
	ret := vk.MapMemory(device, memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &pData)
	if isError(ret) {
		d.logger().Warn("vulkan: failed to map device memory", "len", len(data), "result", driver.Result(ret))
		return driver.Result(ret)
	}
	if n := vk.Memcopy(pData, data); n != len(data) {
		d.logger().Warn("vulkan: short copy to device memory", "copied", n, "len", len(data))
	}
	vk.UnmapMemory(device, memory)
	return driver.Success
}

func (d *Driver) CreateShaderModule(dev driver.Device, code []byte) (driver.ShaderModule, driver.Result) {
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, driver.ErrorInitializationFailed
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(d.devices.get(uint64(dev)), &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    unsafe.Slice((*uint32)(unsafe.Pointer(&code[0])), len(code)/4),
	}, nil, &module)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.ShaderModule(d.shaders.add(module)), driver.Success
}

func (d *Driver) DestroyShaderModule(dev driver.Device, m driver.ShaderModule) {
	if module, ok := d.shaders.remove(uint64(m)); ok {
		vk.DestroyShaderModule(d.devices.get(uint64(dev)), module, nil)
	}
}

func (d *Driver) CreatePipelineLayout(dev driver.Device, info *driver.PipelineLayoutCreateInfo) (driver.PipelineLayout, driver.Result) {
	create := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	if info.PushConstantSize > 0 {
		create.PushConstantRangeCount = 1
		create.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(info.PushConstantStages),
			Offset:     0,
			Size:       info.PushConstantSize,
		}}
	}
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(d.devices.get(uint64(dev)), &create, nil, &layout)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.PipelineLayout(d.layouts.add(layout)), driver.Success
}

func (d *Driver) DestroyPipelineLayout(dev driver.Device, layout driver.PipelineLayout) {
	if l, ok := d.layouts.remove(uint64(layout)); ok {
		vk.DestroyPipelineLayout(d.devices.get(uint64(dev)), l, nil)
	}
}

// CreateGraphicsPipeline builds a triangle-list pipeline with a single
// color attachment and dynamic viewport and scissor, so it survives
// swapchain recreation as long as the render pass format is unchanged.
func (d *Driver) CreateGraphicsPipeline(dev driver.Device, info *driver.GraphicsPipelineCreateInfo) (driver.Pipeline, driver.Result) {
	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: d.shaders.get(uint64(info.Vertex)),
			PName:  safeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: d.shaders.get(uint64(info.Fragment)),
			PName:  safeString("main"),
		},
	}

	bindings := make([]vk.VertexInputBindingDescription, len(info.Bindings))
	for i, b := range info.Bindings {
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: vk.VertexInputRateVertex,
		}
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(info.Attributes))
	for i, a := range info.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		}
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}
	assembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}
	viewport := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceClockwise,
		LineWidth:   1.0,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}
	blend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments: []vk.PipelineColorBlendAttachmentState{{
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
		}},
	}
	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamic := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	pipelines := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(d.devices.get(uint64(dev)), nil, 1, []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &assembly,
		PViewportState:      &viewport,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PColorBlendState:    &blend,
		PDynamicState:       &dynamic,
		Layout:              d.layouts.get(uint64(info.Layout)),
		RenderPass:          d.renderPasses.get(uint64(info.RenderPass)),
	}}, nil, pipelines)
	if isError(ret) {
		return 0, driver.Result(ret)
	}
	return driver.Pipeline(d.pipelines.add(pipelines[0])), driver.Success
}

func (d *Driver) DestroyPipeline(dev driver.Device, p driver.Pipeline) {
	if pipeline, ok := d.pipelines.remove(uint64(p)); ok {
		vk.DestroyPipeline(d.devices.get(uint64(dev)), pipeline, nil)
	}
}
