// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/cogentcore/rendergraph/graph"
)

// The types in this file let rgctl build and drive a Driver without a
// live Vulkan instance, for the "validate" and "run" commands: a graph
// topologist working offline from a persisted layout has no GPU to
// submit to, only a topology and an allocation plan to check. None of
// this stands in for rgvk in a real deployment.

// fakeAllocator hands back a distinct placeholder handle per resource
// copy; it never touches device memory.
type fakeAllocator struct{ next int }

func (a *fakeAllocator) AllocateAliased(ctx context.Context, req graph.AllocRequest) ([]any, error) {
	return a.allocate(req)
}
func (a *fakeAllocator) AllocatePersistent(ctx context.Context, req graph.AllocRequest) ([]any, error) {
	return a.allocate(req)
}
func (a *fakeAllocator) allocate(req graph.AllocRequest) ([]any, error) {
	out := make([]any, req.Copies)
	for i := range out {
		a.next++
		out[i] = a.next
	}
	return out, nil
}
func (a *fakeAllocator) Free(ctx context.Context, backing []any) error { return nil }

// fakeFence is always immediately signaled: rgctl never submits real GPU
// work, so there is nothing to wait on.
type fakeFence struct{}

func (fakeFence) Wait(ctx context.Context) error { return nil }
func (fakeFence) Reset() error                   { return nil }

// fakePool/fakeCommand record nothing; PipelineBarrier is a no-op, same
// as rgvk.CommandBuffer's.
type fakePool struct{ cmd fakeCommand }

func (p *fakePool) Reset(ctx context.Context) error { return nil }
func (p *fakePool) Acquire(ctx context.Context) (graph.CommandBuffer, error) {
	return &p.cmd, nil
}

type fakeCommand struct{}

func (fakeCommand) Begin(ctx context.Context) error { return nil }
func (fakeCommand) End(ctx context.Context) error   { return nil }
func (fakeCommand) PipelineBarrier(ctx context.Context, batch *graph.BarrierBuffer) error {
	return nil
}

// fakeQueue "submits" by doing nothing; Submit always succeeds.
type fakeQueue struct{}

func (fakeQueue) Submit(ctx context.Context, info graph.SubmitInfo) error { return nil }

// newFakeDriver builds a Driver over g with cfg.InFlight fake ring slots
// and no descriptor allocator (rgctl's reference nodes declare no
// descriptor bindings).
func newFakeDriver(g *graph.Graph, cfg graph.Config) (*graph.Driver, error) {
	if cfg.InFlight < 1 {
		cfg.InFlight = 2
	}
	pools := make([]graph.CommandPool, cfg.InFlight)
	fences := make([]graph.Fence, cfg.InFlight)
	for i := 0; i < cfg.InFlight; i++ {
		pools[i] = &fakePool{}
		fences[i] = fakeFence{}
	}
	return graph.NewDriver(g, cfg, &fakeAllocator{}, nil, fakeQueue{}, nil, pools, fences)
}

var _ graph.Allocator = (*fakeAllocator)(nil)
var _ graph.Fence = fakeFence{}
var _ graph.CommandPool = (*fakePool)(nil)
var _ graph.CommandBuffer = (*fakeCommand)(nil)
var _ graph.Queue = fakeQueue{}
