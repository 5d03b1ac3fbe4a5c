// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rgvk

import (
	"context"

	vk "github.com/goki/vulkan"

	"github.com/cogentcore/rendergraph/graph"
)

// DescriptorAllocator implements graph.DescriptorAllocator with one
// fixed-size vk.DescriptorPool shared across every node and ring slot.
type DescriptorAllocator struct {
	dev  vk.Device
	pool vk.DescriptorPool
}

// NewDescriptorAllocator creates a pool sized for maxSets descriptor
// sets, each drawing from a generous fixed budget of combined-image-
// sampler and storage-buffer descriptors; a production deployment would
// size this from the actual graph rather than a flat budget.
func NewDescriptorAllocator(dev vk.Device, maxSets uint32) (*DescriptorAllocator, error) {
	sizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: maxSets * 8},
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: maxSets * 8},
		{Type: vk.DescriptorTypeStorageImage, DescriptorCount: maxSets * 8},
	}
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(dev, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &pool)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	return &DescriptorAllocator{dev: dev, pool: pool}, nil
}

// Allocate builds a descriptor set layout from bindings and allocates one
// set from the shared pool. label is used only for debugging.
func (a *DescriptorAllocator) Allocate(ctx context.Context, label string, bindings []graph.DescriptorBinding) (graph.DescriptorSet, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.BindLoc,
			DescriptorType:  descriptorType(b.Type),
			DescriptorCount: max1(b.Count),
			StageFlags:      vk.ShaderStageFlags(b.Stages),
		}
	}

	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(a.dev, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}, nil, &layout)
	if err := NewError(ret); err != nil {
		return nil, err
	}

	sets := make([]vk.DescriptorSet, 1)
	ret = vk.AllocateDescriptorSets(a.dev, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     a.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}, sets)
	if err := NewError(ret); err != nil {
		vk.DestroyDescriptorSetLayout(a.dev, layout, nil)
		return nil, err
	}
	return &DescriptorSet{dev: a.dev, set: sets[0], layout: layout}, nil
}

func (a *DescriptorAllocator) Destroy() {
	if a.pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(a.dev, a.pool, nil)
		a.pool = vk.NullDescriptorPool
	}
}

// DescriptorSet wraps a vk.DescriptorSet and the layout it was allocated
// against, satisfying graph.DescriptorSet (an opaque interface).
type DescriptorSet struct {
	dev    vk.Device
	set    vk.DescriptorSet
	layout vk.DescriptorSetLayout
}

func (d *DescriptorSet) Handle() vk.DescriptorSet { return d.set }

func descriptorType(t string) vk.DescriptorType {
	switch t {
	case "storage-buffer":
		return vk.DescriptorTypeStorageBuffer
	case "storage-image":
		return vk.DescriptorTypeStorageImage
	default:
		return vk.DescriptorTypeCombinedImageSampler
	}
}

func max1(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	return n
}

var _ graph.DescriptorAllocator = (*DescriptorAllocator)(nil)
