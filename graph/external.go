// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import "context"

// This file collects the "external collaborator, interface only" contracts:
// the Vulkan driver bindings and allocator. The core never constructs a
// concrete image, buffer, semaphore, or fence itself — it only calls
// through these interfaces. rgvk provides a goki/vulkan backed
// implementation; tests use lightweight fakes.

// AllocRequest is the input to Allocator, assembled by the per-output
// allocation procedure: the aggregated usage/access/stage flags and copy
// count for one output.
type AllocRequest struct {
	Kind        ResourceKind
	Persistent  bool
	Copies      int // D + 1
	Usage       UsageFlags
	InputAccess AccessFlags
	InputStage  PipelineStageFlags

	// Image-only.
	Layout      ImageLayout
	Format      ImageFormat
	ArraySize   int // texture-array outputs only

	// DebugName is surfaced in allocator-rejection errors and profiler
	// labels; it carries no semantics.
	DebugName string
}

// ImageFormat is the intrinsic create-info an output connector declares
// for the image it produces.
type ImageFormat struct {
	Width, Height, Depth uint32
	PixelFormat          string // e.g. "R8G8B8A8_UNORM"; opaque to the core
	MipLevels            uint32
	Samples              uint32
}

// Allocator is the aliasing/persistent allocator. It may place multiple transient allocations at overlapping memory
// offsets provided their live intervals (as seen through AllocateAliased
// call order, which follows graph order) never overlap in time; it must
// never alias a persistent allocation. AllocateAliased/AllocatePersistent
// return one Backing handle per requested copy.
type Allocator interface {
	AllocateAliased(ctx context.Context, req AllocRequest) ([]any, error)
	AllocatePersistent(ctx context.Context, req AllocRequest) ([]any, error)
	Free(ctx context.Context, backing []any) error
}

// Semaphore is an opaque binary or timeline semaphore handle; the core
// only ever passes it back to the collaborator that created it.
type Semaphore interface{}

// Fence is waited on to learn whether a previously submitted iteration's
// GPU work has completed. This is one of the two places run() may block.
type Fence interface {
	// Wait blocks until the fence is signaled or ctx is done.
	Wait(ctx context.Context) error
	// Reset clears the fence for reuse by the next submission into this
	// ring slot.
	Reset() error
}

// CommandPool and CommandBuffer stand in for command-buffer recording and
// pool reset; the core never inspects their contents, only asks the pool
// to reset and the buffer to accept barrier/descriptor-bind calls which
// node.Process performs directly against whatever concrete type Backing
// resolves to.
type CommandPool interface {
	Reset(ctx context.Context) error
	Acquire(ctx context.Context) (CommandBuffer, error)
}

type CommandBuffer interface {
	Begin(ctx context.Context) error
	End(ctx context.Context) error
	// PipelineBarrier flushes one batched set of image/buffer barriers,
	// matching "Batching of barriers".
	PipelineBarrier(ctx context.Context, batch *BarrierBuffer) error
}

// SubmitInfo carries the wait/signal semaphores and the fence a submitted
// command buffer should signal on completion, built by the driver from a
// GraphRun's semaphores.
type SubmitInfo struct {
	Wait    []WaitSemaphore
	Signal  []Semaphore
	Fence   Fence
	Command CommandBuffer
}

// WaitSemaphore pairs a semaphore with the pipeline stage that must wait
// on it, and (for timeline semaphores) the value to wait for.
type WaitSemaphore struct {
	Semaphore Semaphore
	Stage     PipelineStageFlags
	Value     uint64 // 0 for binary semaphores
}

// Queue submits a recorded command buffer to the GPU; asynchronous to the
// CPU.
type Queue interface {
	Submit(ctx context.Context, info SubmitInfo) error
}

// DescriptorAllocator vends one DescriptorSet per (node, ring slot) pair
// during a build, sized for the bindings collected from that node's
// connectors.
type DescriptorAllocator interface {
	Allocate(ctx context.Context, label string, bindings []DescriptorBinding) (DescriptorSet, error)
}

// DescriptorSet is the per-node, per-ring-slot descriptor set a
// connector's DescriptorUpdate writes into and node.Process binds before
// dispatching. Opaque to the core.
type DescriptorSet interface{}

// DescriptorBinding is what DescriptorInfo returns: the descriptor
// layout binding a connector wants, or ok=false for "no descriptor".
type DescriptorBinding struct {
	Type    string // e.g. "combined-image-sampler", "storage-buffer"
	Count   uint32
	Stages  ShaderStageFlags
	BindLoc uint32
}

// Profiler is a capability-only collaborator: the core records begin/end
// spans, a concrete profiler interprets them. A nil Profiler on GraphRun
// disables profiling entirely.
type Profiler interface {
	Begin(label string)
	End(label string)
}
