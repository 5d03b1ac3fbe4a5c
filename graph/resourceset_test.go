// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCMHelper(t *testing.T) {
	assert.Equal(t, 6, lcm(2, 3))
	assert.Equal(t, 4, lcm(4, 4))
	assert.Equal(t, 0, lcm(0, 5))
	assert.Equal(t, 12, lcm(lcm(2, 3), 4))
}

// buildAndPrecompute runs order -> describe -> allocate -> precompute,
// the same sequence Driver.build follows, returning the graph, order and
// allocations for assertions.
func buildAndPrecompute(t *testing.T, g *Graph) ([]NodeID, map[NodeID][]*allocationRecord) {
	t.Helper()
	order, err := g.order()
	require.NoError(t, err)
	r := describeAll(t, g, order)
	require.NoError(t, g.validate(r))
	res := newResourceTable()
	allocs, err := g.allocate(context.Background(), order, r, &fakeAllocator{}, res)
	require.NoError(t, err)
	precomputeResourceSets(order, g, r, allocs)
	return order, allocs
}

// TestFeedbackDelay1 checks that one node reading its own output with
// delay=1 allocates 2 copies, and at iteration i it reads instance
// (i+1) mod 2 while writing instance i mod 2, so it observes the write
// from iteration i-1.
func TestFeedbackDelay1(t *testing.T) {
	g := NewGraph(nil)
	addFakeNode(t, g, "n",
		[]InputConnector{&fakeInput{name: "prev", delay: 1, optional: true}},
		[]OutputConnector{&fakeOutput{name: "out"}})
	require.NoError(t, g.AddConnection("n", "n", "out", "prev"))

	_, allocs := buildAndPrecompute(t, g)
	nID := findNodeID(g, "n")
	require.Len(t, allocs[nID], 1)
	assert.Equal(t, 2, allocs[nID][0].copies)

	rec := g.byID[nID]
	require.Equal(t, 2, rec.period)

	// resource instance == (s + c - d) mod c, with c=2, d=1.
	for s := 0; s < rec.period; s++ {
		wantIn := (s + 2 - 1) % 2
		wantOut := s % 2
		assert.Equal(t, allocs[nID][0].resources[wantIn], rec.phaseInputs[s][0], "phase %d input", s)
		assert.Equal(t, allocs[nID][0].resources[wantOut], rec.phaseOutputs[s][0], "phase %d output", s)
	}
}

// TestPeriodIsLCMOfCopyCounts checks L_n = lcm(copy counts of every
// resource touched by n).
func TestPeriodIsLCMOfCopyCounts(t *testing.T) {
	g := NewGraph(nil)
	addFakeNode(t, g, "a", nil, []OutputConnector{&fakeOutput{name: "out2"}})
	addFakeNode(t, g, "b", nil, []OutputConnector{&fakeOutput{name: "out3"}})
	addFakeNode(t, g, "n",
		[]InputConnector{
			&fakeInput{name: "two", delay: 1, optional: true},
			&fakeInput{name: "three", delay: 2, optional: true},
		}, nil)
	require.NoError(t, g.AddConnection("a", "n", "out2", "two"))
	require.NoError(t, g.AddConnection("b", "n", "out3", "three"))

	// "two" has max delay 1 -> 2 copies; "three" has max delay 2 -> 3
	// copies. n's period should be lcm(2, 3) = 6.
	_, _ = buildAndPrecompute(t, g)
	nID := findNodeID(g, "n")
	assert.Equal(t, 6, g.byID[nID].period)
}

// TestPhaseTableDisconnectedOptionalInput verifies an input with no live
// producer gets InvalidID at every phase rather than panicking.
func TestPhaseTableDisconnectedOptionalInput(t *testing.T) {
	g := NewGraph(nil)
	addFakeNode(t, g, "n", []InputConnector{&fakeInput{name: "in", optional: true}}, nil)
	_, _ = buildAndPrecompute(t, g)
	nID := findNodeID(g, "n")
	rec := g.byID[nID]
	for s := 0; s < rec.period; s++ {
		assert.Equal(t, ResourceID(InvalidID), rec.phaseInputs[s][0])
	}
}
