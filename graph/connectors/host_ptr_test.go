// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentcore/rendergraph/graph"
)

// TestHostPtrReleaseFreesAtZero is reference-counted host-pointer
// lifetime: the payload is released exactly once, when the last connected
// consumer finishes reading it this iteration.
func TestHostPtrReleaseFreesAtZero(t *testing.T) {
	var released any
	freeCount := 0
	out := &HostPtrOutput{
		OutputName: "frame",
		Release: func(payload any) {
			freeCount++
			released = payload
		},
	}
	in1 := &HostPtrInput{InputName: "a", Producer: out}
	in2 := &HostPtrInput{InputName: "b", Producer: out}

	r := &graph.Resource{ConsumersRemaining: 2, Backing: "payload"}

	_, err := in1.PostProcess(context.Background(), r, &graph.BarrierBuffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, freeCount, "must not release until every consumer has read")
	assert.Equal(t, 1, r.ConsumersRemaining)

	_, err = in2.PostProcess(context.Background(), r, &graph.BarrierBuffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, freeCount)
	assert.Equal(t, "payload", released)
	assert.Equal(t, 0, r.ConsumersRemaining)
}

// TestHostPtrPersistentNeverReleases is the "left untouched/infinite"
// persistent case: a negative ConsumersRemaining marks an output that is
// never released, no matter how many reads occur.
func TestHostPtrPersistentNeverReleases(t *testing.T) {
	freeCount := 0
	out := &HostPtrOutput{OutputName: "cache", IsPersistent: true, Release: func(any) { freeCount++ }}
	in := &HostPtrInput{InputName: "a", Producer: out}
	r := &graph.Resource{ConsumersRemaining: -1, Persistent: true}

	for i := 0; i < 3; i++ {
		_, err := in.PostProcess(context.Background(), r, &graph.BarrierBuffer{})
		require.NoError(t, err)
	}
	assert.Equal(t, 0, freeCount)
	assert.Equal(t, -1, r.ConsumersRemaining)
}

// TestHostPtrOutputResetsConsumersPerIteration checks that a resource
// copy reused across several producing iterations has its consumer count
// replenished each time, rather than draining to zero once and then going
// negative forever.
func TestHostPtrOutputResetsConsumersPerIteration(t *testing.T) {
	freeCount := 0
	out := &HostPtrOutput{OutputName: "frame", Release: func(any) { freeCount++ }}
	in := &HostPtrInput{InputName: "a", Producer: out}
	r := &graph.Resource{ConsumersRemaining: 1, ConsumersPerIteration: 1, Backing: "payload"}

	for i := 0; i < 3; i++ {
		_, err := out.PostProcess(context.Background(), r, &graph.BarrierBuffer{})
		require.NoError(t, err)
		assert.Equal(t, 1, r.ConsumersRemaining, "iteration %d: produce must replenish the count", i)

		_, err = in.PostProcess(context.Background(), r, &graph.BarrierBuffer{})
		require.NoError(t, err)
		assert.Equal(t, 0, r.ConsumersRemaining, "iteration %d: the one consumer drains it back to zero", i)
	}
	assert.Equal(t, 3, freeCount, "must release once per iteration, not just on the first")
}

func TestHostPtrInputMarksReadOnPostProcess(t *testing.T) {
	in := &HostPtrInput{InputName: "a"}
	r := &graph.Resource{LastUsedAsOutput: true}
	_, err := in.PostProcess(context.Background(), r, &graph.BarrierBuffer{})
	require.NoError(t, err)
	assert.False(t, r.LastUsedAsOutput)
}

func TestHostPtrInputOnlyAcceptsHostPtrOutputs(t *testing.T) {
	in := &HostPtrInput{InputName: "a"}
	assert.True(t, in.AcceptsOutput(&HostPtrOutput{OutputName: "h"}))
	assert.False(t, in.AcceptsOutput(&ManagedImageOutput{OutputName: "m"}))
}
