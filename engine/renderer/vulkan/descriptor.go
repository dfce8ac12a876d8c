package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// Uniform blocks live at binding 0 of set 0 and are read by the vertex
// stage.
const uniformBinding = 0

func newUniformSetLayout(context *VulkanContext) (vk.DescriptorSetLayout, error) {
	uboLayoutBinding := vk.DescriptorSetLayoutBinding{
		Binding:         uniformBinding,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{uboLayoutBinding},
	}

	var layout vk.DescriptorSetLayout
	if err := resultError(vk.CreateDescriptorSetLayout(context.device(), &layoutInfo, context.Allocator, &layout), "vkCreateDescriptorSetLayout"); err != nil {
		return nil, err
	}
	return layout, nil
}

// VulkanDescriptorSet owns the pool it was allocated from; destroying
// the pool frees the set.
type VulkanDescriptorSet struct {
	context *VulkanContext
	Pool    vk.DescriptorPool
	Handle  vk.DescriptorSet
}

// NewUniformSet allocates a set for pipeline pointing binding 0 at the
// first size bytes of buffer.
func (vc *VulkanContext) NewUniformSet(pipeline renderer.Pipeline, buffer renderer.Buffer, size uint64) (renderer.DescriptorSet, error) {
	p, ok := pipeline.(*VulkanPipeline)
	if !ok {
		return nil, errors.Wrapf(errForeignObject, "uniform set: pipeline %T", pipeline)
	}
	if p.SetLayout == nil {
		return nil, errors.New("uniform set: pipeline has no uniform block")
	}
	b, ok := buffer.(*VulkanBuffer)
	if !ok {
		return nil, errors.Wrapf(errForeignObject, "uniform set: buffer %T", buffer)
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
		}},
	}
	set := &VulkanDescriptorSet{context: vc}
	if err := resultError(vk.CreateDescriptorPool(vc.device(), &poolInfo, vc.Allocator, &set.Pool), "vkCreateDescriptorPool"); err != nil {
		return nil, err
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     set.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{p.SetLayout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if err := resultError(vk.AllocateDescriptorSets(vc.device(), &allocInfo, &sets[0]), "vkAllocateDescriptorSets"); err != nil {
		set.Destroy()
		return nil, err
	}
	set.Handle = sets[0]

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set.Handle,
		DstBinding:      uniformBinding,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: b.Handle,
			Offset: 0,
			Range:  vk.DeviceSize(size),
		}},
	}
	vk.UpdateDescriptorSets(vc.device(), 1, []vk.WriteDescriptorSet{write}, 0, nil)
	return set, nil
}

func (ds *VulkanDescriptorSet) Destroy() {
	if ds.Pool != nil {
		vk.DestroyDescriptorPool(ds.context.device(), ds.Pool, ds.context.Allocator)
		ds.Pool = nil
	}
	ds.Handle = nil
}
