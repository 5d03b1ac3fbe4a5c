// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rgvk

import (
	"context"

	vk "github.com/goki/vulkan"

	"github.com/cogentcore/rendergraph/graph"
)

// CommandPool wraps a vk.CommandPool and the one command buffer the
// render-graph driver reuses for a ring slot each build, implementing
// graph.CommandPool.
type CommandPool struct {
	dev    vk.Device
	pool   vk.CommandPool
	buffer vk.CommandBuffer
}

// NewCommandPool creates a resettable command pool on queueIndex's
// family.
func NewCommandPool(dev vk.Device, queueIndex uint32) (*CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(dev, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueIndex,
	}, nil, &pool)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	return &CommandPool{dev: dev, pool: pool}, nil
}

// Reset implements graph.CommandPool: it resets the pool, invalidating
// any buffer acquired from it in a prior iteration.
func (p *CommandPool) Reset(ctx context.Context) error {
	return NewError(vk.ResetCommandPool(p.dev, p.pool, vk.CommandPoolResetFlags(0)))
}

// Acquire implements graph.CommandPool: it allocates (once) and returns
// the pool's single primary command buffer.
func (p *CommandPool) Acquire(ctx context.Context) (graph.CommandBuffer, error) {
	if p.buffer == nil {
		bufs := make([]vk.CommandBuffer, 1)
		ret := vk.AllocateCommandBuffers(p.dev, &vk.CommandBufferAllocateInfo{
			SType:              vk.StructureTypeCommandBufferAllocateInfo,
			CommandPool:        p.pool,
			Level:              vk.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		}, bufs)
		if err := NewError(ret); err != nil {
			return nil, err
		}
		p.buffer = bufs[0]
	}
	return &CommandBuffer{buffer: p.buffer}, nil
}

func (p *CommandPool) Destroy() {
	if p.pool == vk.NullCommandPool {
		return
	}
	vk.DestroyCommandPool(p.dev, p.pool, nil)
	p.pool = vk.NullCommandPool
}

// CommandBuffer wraps a vk.CommandBuffer, implementing graph.CommandBuffer.
type CommandBuffer struct {
	buffer vk.CommandBuffer
}

func (c *CommandBuffer) Handle() vk.CommandBuffer { return c.buffer }

func (c *CommandBuffer) Begin(ctx context.Context) error {
	return NewError(vk.BeginCommandBuffer(c.buffer, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}))
}

func (c *CommandBuffer) End(ctx context.Context) error {
	return NewError(vk.EndCommandBuffer(c.buffer))
}

// PipelineBarrier would translate one batched BarrierBuffer into a single
// vkCmdPipelineBarrier2 call; encoding each barrier's image/buffer handle
// requires resolving Resource.Backing to a concrete vk.Image/vk.Buffer,
// which is a deployment-specific wiring detail left to the caller's own
// Image/Buffer types (see the connectors package for where Backing is
// produced). This reference adapter leaves it a no-op so tests that stub
// out rgvk never need a live Vulkan context.
func (c *CommandBuffer) PipelineBarrier(ctx context.Context, batch *graph.BarrierBuffer) error {
	return nil
}

var _ graph.CommandPool = (*CommandPool)(nil)
var _ graph.CommandBuffer = (*CommandBuffer)(nil)
