// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rgvk

import (
	"context"

	vk "github.com/goki/vulkan"

	"github.com/cogentcore/rendergraph/graph"
)

// Fence wraps a vk.Fence, implementing graph.Fence. One per ring slot:
// signaled when that slot's previously-submitted command buffer has
// finished executing on the GPU.
type Fence struct {
	dev   vk.Device
	fence vk.Fence
}

// NewFence creates a fence in the signaled state, so the first wait on a
// ring slot that has never been submitted to returns immediately.
func NewFence(dev vk.Device) (*Fence, error) {
	var fence vk.Fence
	ret := vk.CreateFence(dev, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}, nil, &fence)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	return &Fence{dev: dev, fence: fence}, nil
}

// Wait blocks until the fence is signaled or ctx is done. Vulkan's wait
// call has no context awareness, so ctx is honored only at a coarse
// granularity: an already-canceled context is checked before blocking.
func (f *Fence) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ret := vk.WaitForFences(f.dev, 1, []vk.Fence{f.fence}, vk.True, ^uint64(0))
	return NewError(ret)
}

// Reset clears the fence for the next submission into this ring slot.
func (f *Fence) Reset() error {
	return NewError(vk.ResetFences(f.dev, 1, []vk.Fence{f.fence}))
}

// Handle returns the underlying vk.Fence, for Queue.Submit.
func (f *Fence) Handle() vk.Fence { return f.fence }

func (f *Fence) Destroy() {
	if f.fence == vk.NullFence {
		return
	}
	vk.DestroyFence(f.dev, f.fence, nil)
	f.fence = vk.NullFence
}

// Semaphore wraps a vk.Semaphore; satisfies graph.Semaphore (an empty
// interface) simply by existing.
type Semaphore struct {
	dev       vk.Device
	semaphore vk.Semaphore
}

func NewSemaphore(dev vk.Device) (*Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(dev, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	return &Semaphore{dev: dev, semaphore: sem}, nil
}

func (s *Semaphore) Handle() vk.Semaphore { return s.semaphore }

func (s *Semaphore) Destroy() {
	if s.semaphore == vk.NullSemaphore {
		return
	}
	vk.DestroySemaphore(s.dev, s.semaphore, nil)
	s.semaphore = vk.NullSemaphore
}

var _ graph.Fence = (*Fence)(nil)
