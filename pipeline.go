package vkframe

import (
	"github.com/andewx/vkframe/driver"
)

// PipelineLayout describes the push-constant range of a pipeline. The
// range is visible to the vertex stage.
type PipelineLayout struct {
	device           *Device
	handle           driver.PipelineLayout
	pushConstantSize uint32
}

func NewPipelineLayout(d *Device, pushConstantSize uint32) (*PipelineLayout, error) {
	h, res := d.drv.CreatePipelineLayout(d.handle, &driver.PipelineLayoutCreateInfo{
		PushConstantSize:   pushConstantSize,
		PushConstantStages: driver.ShaderStageVertex,
	})
	if err := newError(res, "create pipeline layout"); err != nil {
		return nil, err
	}
	return &PipelineLayout{device: d, handle: h, pushConstantSize: pushConstantSize}, nil
}

func (l *PipelineLayout) Handle() driver.PipelineLayout { return l.handle }

func (l *PipelineLayout) Destroy() {
	if l.handle == driver.NullHandle {
		return
	}
	l.device.drv.DestroyPipelineLayout(l.device.handle, l.handle)
	l.handle = driver.NullHandle
}

// GraphicsPipeline draws triangle lists of Vertex with a dynamic viewport
// and scissor, so it survives swapchain resizes as long as the render pass
// format does not change.
type GraphicsPipeline struct {
	device *Device
	handle driver.Pipeline
	layout *PipelineLayout
}

func NewGraphicsPipeline(layout *PipelineLayout, vert, frag *ShaderModule, rp *RenderPass) (*GraphicsPipeline, error) {
	d := layout.device
	bindings, attributes := vertexLayout()
	h, res := d.drv.CreateGraphicsPipeline(d.handle, &driver.GraphicsPipelineCreateInfo{
		Layout:     layout.handle,
		RenderPass: rp.handle,
		Vertex:     vert.handle,
		Fragment:   frag.handle,
		Bindings:   bindings,
		Attributes: attributes,
	})
	if err := newError(res, "create graphics pipeline"); err != nil {
		return nil, err
	}
	return &GraphicsPipeline{device: d, handle: h, layout: layout}, nil
}

func (p *GraphicsPipeline) Handle() driver.Pipeline { return p.handle }

func (p *GraphicsPipeline) Layout() *PipelineLayout { return p.layout }

func (p *GraphicsPipeline) Destroy() {
	if p.handle == driver.NullHandle {
		return
	}
	p.device.drv.DestroyPipeline(p.device.handle, p.handle)
	p.handle = driver.NullHandle
}
