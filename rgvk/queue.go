// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rgvk

import (
	"context"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/cogentcore/rendergraph/graph"
)

// Queue wraps a vk.Queue, implementing graph.Queue.
type Queue struct {
	queue vk.Queue
}

func NewQueue(dev *Device) *Queue { return &Queue{queue: dev.Queue} }

func (q *Queue) Submit(ctx context.Context, info graph.SubmitInfo) error {
	cmd, ok := info.Command.(*CommandBuffer)
	if !ok {
		return fmt.Errorf("rgvk: Submit given a non-rgvk command buffer %T", info.Command)
	}
	fence, ok := info.Fence.(*Fence)
	if !ok {
		return fmt.Errorf("rgvk: Submit given a non-rgvk fence %T", info.Fence)
	}

	waitSems := make([]vk.Semaphore, 0, len(info.Wait))
	waitStages := make([]vk.PipelineStageFlags, 0, len(info.Wait))
	for _, w := range info.Wait {
		sem, ok := w.Semaphore.(*Semaphore)
		if !ok {
			return fmt.Errorf("rgvk: wait semaphore is a non-rgvk type %T", w.Semaphore)
		}
		waitSems = append(waitSems, sem.Handle())
		waitStages = append(waitStages, vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit))
	}
	signalSems := make([]vk.Semaphore, 0, len(info.Signal))
	for _, s := range info.Signal {
		sem, ok := s.(*Semaphore)
		if !ok {
			return fmt.Errorf("rgvk: signal semaphore is a non-rgvk type %T", s)
		}
		signalSems = append(signalSems, sem.Handle())
	}

	submit := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waitSems)),
		PWaitSemaphores:      waitSems,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd.Handle()},
		SignalSemaphoreCount: uint32(len(signalSems)),
		PSignalSemaphores:    signalSems,
	}
	return NewError(vk.QueueSubmit(q.queue, 1, []vk.SubmitInfo{submit}, fence.Handle()))
}

var _ graph.Queue = (*Queue)(nil)
