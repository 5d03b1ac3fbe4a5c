// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentcore/rendergraph/graph"
	"github.com/cogentcore/rendergraph/nodes"
)

func identityFormat() graph.ImageFormat {
	return graph.ImageFormat{Width: 4, Height: 4, PixelFormat: "R8G8B8A8_UNORM"}
}

// blockingFence records every Wait/Reset call and only unblocks once
// released has been set true since the last Reset, modelling the ring
// slot's real dependency on GPU completion.
type blockingFence struct {
	waits, resets int
	released      bool
}

func (f *blockingFence) Wait(ctx context.Context) error {
	f.waits++
	if !f.released {
		return context.DeadlineExceeded
	}
	return nil
}
func (f *blockingFence) Reset() error {
	f.resets++
	f.released = false
	return nil
}

// alwaysReadyFence never blocks: used wherever a test drives several
// iterations and only cares about submission/allocation bookkeeping, not
// ring-slot contention.
type alwaysReadyFence struct{ waits, resets int }

func (f *alwaysReadyFence) Wait(ctx context.Context) error { f.waits++; return nil }
func (f *alwaysReadyFence) Reset() error                   { f.resets++; return nil }

type recordingPool struct{ cmd recordingCommand }

func (p *recordingPool) Reset(ctx context.Context) error { return nil }
func (p *recordingPool) Acquire(ctx context.Context) (graph.CommandBuffer, error) {
	return &p.cmd, nil
}

type recordingCommand struct{}

func (recordingCommand) Begin(ctx context.Context) error { return nil }
func (recordingCommand) End(ctx context.Context) error   { return nil }
func (recordingCommand) PipelineBarrier(ctx context.Context, batch *graph.BarrierBuffer) error {
	return nil
}

type recordingQueue struct{ submits int }

func (q *recordingQueue) Submit(ctx context.Context, info graph.SubmitInfo) error {
	q.submits++
	return nil
}

type recordingAllocator struct{ next int }

func (a *recordingAllocator) AllocateAliased(ctx context.Context, req graph.AllocRequest) ([]any, error) {
	return a.allocate(req)
}
func (a *recordingAllocator) AllocatePersistent(ctx context.Context, req graph.AllocRequest) ([]any, error) {
	return a.allocate(req)
}
func (a *recordingAllocator) allocate(req graph.AllocRequest) ([]any, error) {
	out := make([]any, req.Copies)
	for i := range out {
		a.next++
		out[i] = a.next
	}
	return out, nil
}
func (a *recordingAllocator) Free(ctx context.Context, backing []any) error { return nil }

// newIdentityGraph builds a generator with no required inputs feeding a
// two-stage passthrough chain, no feedback anywhere.
func newIdentityGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph(nil)
	_, err := g.AddNode("feedback", nodes.NewFeedbackAccumulator("seed", "gen", 1, identityFormat()), "source")
	require.NoError(t, err)
	_, err = g.AddNode("passthrough", nodes.NewPassthrough("in", "out", identityFormat()), "stage1")
	require.NoError(t, err)
	_, err = g.AddNode("passthrough", nodes.NewPassthrough("in", "out", identityFormat()), "stage2")
	require.NoError(t, err)
	require.NoError(t, g.AddConnection("source", "stage1", "gen", "in"))
	require.NoError(t, g.AddConnection("stage1", "stage2", "out", "in"))
	return g
}

// TestDriverIdentityPipeline checks that a three-node, delay-0 chain
// builds once and runs three iterations cleanly.
func TestDriverIdentityPipeline(t *testing.T) {
	g := newIdentityGraph(t)

	alloc := &recordingAllocator{}
	queue := &recordingQueue{}
	cfg := graph.Config{InFlight: 2}
	pools := []graph.CommandPool{&recordingPool{}, &recordingPool{}}
	fences := []graph.Fence{&alwaysReadyFence{}, &alwaysReadyFence{}}
	drv, err := graph.NewDriver(g, cfg, alloc, nil, queue, nil, pools, fences)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, drv.Run(context.Background()))
	}
	assert.Equal(t, "running", drv.State())
	assert.Equal(t, 3, queue.submits)
	// One allocation pass over 3 nodes with 1 output each and no feedback
	// means 3 resource handles total, never re-allocated across runs.
	assert.Equal(t, 3, alloc.next)
}

// TestDriverRingOccupancyBounded checks the driver never holds more than
// InFlight iterations' GPU work unacknowledged. With K=1, the
// second Run must wait on the same ring slot's fence, and fails the
// iteration if that fence hasn't been released yet.
func TestDriverRingOccupancyBounded(t *testing.T) {
	g := graph.NewGraph(nil)
	_, err := g.AddNode("feedback", nodes.NewFeedbackAccumulator("seed", "gen", 1, identityFormat()), "source")
	require.NoError(t, err)
	_, err = g.AddNode("passthrough", nodes.NewPassthrough("in", "out", identityFormat()), "n")
	require.NoError(t, err)
	require.NoError(t, g.AddConnection("source", "n", "gen", "in"))

	fence := &blockingFence{released: true}
	drv, err := graph.NewDriver(g, graph.Config{InFlight: 1}, &recordingAllocator{}, nil, &recordingQueue{},
		nil, []graph.CommandPool{&recordingPool{}}, []graph.Fence{fence})
	require.NoError(t, err)

	require.NoError(t, drv.Run(context.Background()))
	waitsAfterFirst := fence.waits
	assert.GreaterOrEqual(t, waitsAfterFirst, 1)
	// The first iteration's Reset leaves the fence unsignaled again,
	// simulating GPU work still in flight for this slot.
	assert.False(t, fence.released)

	// The next Run must still call Wait on the very same fence before
	// reusing ring slot 0, and propagate its failure rather than silently
	// reusing the slot while the prior submission is still outstanding.
	err = drv.Run(context.Background())
	assert.Error(t, err, "ring slot reuse must block on its fence")
	assert.Greater(t, fence.waits, waitsAfterFirst)
}

// TestDriverReloadProducesSameAllocationShape checks that serializing a
// graph and reloading it from a fresh Registry yields the same node and
// connection set, and builds and runs identically.
func TestDriverReloadProducesSameAllocationShape(t *testing.T) {
	g := newIdentityGraph(t)

	var buf bytes.Buffer
	require.NoError(t, g.Save(&buf))

	reg := graph.NewRegistry()
	reg.Register("feedback", func() graph.Node {
		return nodes.NewFeedbackAccumulator("seed", "gen", 1, identityFormat())
	})
	reg.Register("passthrough", func() graph.Node {
		return nodes.NewPassthrough("in", "out", identityFormat())
	})
	reloaded, err := graph.Load(&buf, reg)
	require.NoError(t, err)
	assert.Equal(t, g.Layout(), reloaded.Layout())

	alloc := &recordingAllocator{}
	drv, err := graph.NewDriver(reloaded, graph.Config{InFlight: 1}, alloc, nil, &recordingQueue{}, nil,
		[]graph.CommandPool{&recordingPool{}}, []graph.Fence{&alwaysReadyFence{}})
	require.NoError(t, err)
	require.NoError(t, drv.Run(context.Background()))
	assert.Equal(t, "running", drv.State())
	// Same shape as the original identity graph: 3 single-copy outputs.
	assert.Equal(t, 3, alloc.next)
}
