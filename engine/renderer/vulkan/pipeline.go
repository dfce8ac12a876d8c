package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// VulkanPipeline holds a graphics pipeline, its layout and, for pipelines
// reading a uniform block, the layout of set 0.
type VulkanPipeline struct {
	context *VulkanContext

	Handle    vk.Pipeline
	Layout    vk.PipelineLayout
	SetLayout vk.DescriptorSetLayout
}

// NewPipeline builds a triangle list pipeline with dynamic viewport and
// scissor, no culling and no depth test.
func (vc *VulkanContext) NewPipeline(desc renderer.PipelineDesc) (renderer.Pipeline, error) {
	renderpass, ok := desc.RenderPass.(*VulkanRenderpass)
	if !ok {
		return nil, errors.Wrapf(errForeignObject, "pipeline: render pass %T", desc.RenderPass)
	}
	if desc.PushConstantWords > renderer.MaxPushConstantWords {
		return nil, errors.Wrapf(renderer.ErrPushConstantOverflow, "pipeline declares %d words", desc.PushConstantWords)
	}

	vertex, err := NewShaderStage(vc, desc.VertexShader, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	defer vertex.Destroy(vc)
	fragment, err := NewShaderStage(vc, desc.FragmentShader, vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, errors.Wrap(err, "fragment shader")
	}
	defer fragment.Destroy(vc)

	outPipeline := &VulkanPipeline{context: vc}

	// Viewport and scissor are set while recording.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorSrcAlpha,
		DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	// Dynamic state
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Vertex input. Pipelines generating their vertices in the shader
	// declare no binding at all.
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if desc.VertexStride > 0 {
		attributes := make([]vk.VertexInputAttributeDescription, len(desc.Attributes))
		for i, a := range desc.Attributes {
			format, ok := vertexFormats[a.Format]
			if !ok {
				return nil, errors.Errorf("pipeline: attribute %d has unknown format %d", a.Location, a.Format)
			}
			attributes[i] = vk.VertexInputAttributeDescription{
				Location: a.Location,
				Binding:  0,
				Format:   format,
				Offset:   a.Offset,
			}
		}
		vertexInputInfo.VertexBindingDescriptionCount = 1
		vertexInputInfo.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{{
			Binding:   0, // Binding index
			Stride:    desc.VertexStride,
			InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
		}}
		vertexInputInfo.VertexAttributeDescriptionCount = uint32(len(attributes))
		vertexInputInfo.PVertexAttributeDescriptions = attributes
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Pipeline layout
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	if desc.Uniform {
		setLayout, err := newUniformSetLayout(vc)
		if err != nil {
			return nil, err
		}
		outPipeline.SetLayout = setLayout
		pipelineLayoutCreateInfo.SetLayoutCount = 1
		pipelineLayoutCreateInfo.PSetLayouts = []vk.DescriptorSetLayout{setLayout}
	}

	// Push constants
	if desc.PushConstantWords > 0 {
		pipelineLayoutCreateInfo.PushConstantRangeCount = 1
		pipelineLayoutCreateInfo.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Offset:     0,
			Size:       desc.PushConstantWords * 4,
		}}
	}

	// Create the pipeline layout.
	if err := vc.locks.SafeCall(PipelineManagement, func() error {
		var layout vk.PipelineLayout
		if err := resultError(vk.CreatePipelineLayout(vc.device(), &pipelineLayoutCreateInfo, vc.Allocator, &layout), "vkCreatePipelineLayout"); err != nil {
			return err
		}
		outPipeline.Layout = layout
		return nil
	}); err != nil {
		outPipeline.Destroy()
		return nil, err
	}

	// Pipeline create
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          2,
		PStages:             []vk.PipelineShaderStageCreateInfo{vertex.ShaderStageCreateInfo, fragment.ShaderStageCreateInfo},
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              outPipeline.Layout,
		RenderPass:          renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pPipelines := make([]vk.Pipeline, 1)
	if err := vc.locks.SafeCall(PipelineManagement, func() error {
		return resultError(vk.CreateGraphicsPipelines(
			vc.device(),
			vk.NullPipelineCache,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			vc.Allocator,
			pPipelines), "vkCreateGraphicsPipelines")
	}); err != nil {
		outPipeline.Destroy()
		return nil, err
	}
	outPipeline.Handle = pPipelines[0]

	core.LogDebug("Graphics pipeline created!")
	return outPipeline, nil
}

func (pipeline *VulkanPipeline) Destroy() {
	vc := pipeline.context
	vc.locks.SafeCall(PipelineManagement, func() error {
		if pipeline.Handle != vk.NullPipeline {
			vk.DestroyPipeline(vc.device(), pipeline.Handle, vc.Allocator)
			pipeline.Handle = vk.NullPipeline
		}
		if pipeline.Layout != vk.NullPipelineLayout {
			vk.DestroyPipelineLayout(vc.device(), pipeline.Layout, vc.Allocator)
			pipeline.Layout = vk.NullPipelineLayout
		}
		return nil
	})
	if pipeline.SetLayout != nil {
		vk.DestroyDescriptorSetLayout(vc.device(), pipeline.SetLayout, vc.Allocator)
		pipeline.SetLayout = nil
	}
}
