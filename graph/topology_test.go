// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addFakeNode(t *testing.T, g *Graph, id string, in []InputConnector, out []OutputConnector) NodeID {
	t.Helper()
	_, err := g.AddNode("fake", &fakeNode{inputs: in, outputs: out}, id)
	require.NoError(t, err)
	rec, ok := g.nodes.ValueByKeyTry(id)
	require.True(t, ok)
	return rec.id
}

func TestOrderLinearDAG(t *testing.T) {
	g := NewGraph(nil)
	addFakeNode(t, g, "a", nil, []OutputConnector{&fakeOutput{name: "out"}})
	addFakeNode(t, g, "b", []InputConnector{&fakeInput{name: "in"}}, []OutputConnector{&fakeOutput{name: "out"}})
	addFakeNode(t, g, "c", []InputConnector{&fakeInput{name: "in"}}, nil)

	require.NoError(t, g.AddConnection("a", "b", "out", "in"))
	require.NoError(t, g.AddConnection("b", "c", "out", "in"))

	order, err := g.order()
	require.NoError(t, err)

	names := make([]string, len(order))
	for i, id := range order {
		names[i] = g.byID[id].identifier
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestOrderTieBreakByIdentifier(t *testing.T) {
	g := NewGraph(nil)
	// Two independent roots with no edges between them: order must be
	// deterministic, sorted by identifier.
	addFakeNode(t, g, "zeta", nil, nil)
	addFakeNode(t, g, "alpha", nil, nil)
	addFakeNode(t, g, "mu", nil, nil)

	order, err := g.order()
	require.NoError(t, err)
	names := make([]string, len(order))
	for i, id := range order {
		names[i] = g.byID[id].identifier
	}
	assert.Equal(t, []string{"alpha", "mu", "zeta"}, names)
}

func TestOrderDetectsDelay0Cycle(t *testing.T) {
	g := NewGraph(nil)
	addFakeNode(t, g, "a", []InputConnector{&fakeInput{name: "in"}}, []OutputConnector{&fakeOutput{name: "out"}})
	addFakeNode(t, g, "b", []InputConnector{&fakeInput{name: "in"}}, []OutputConnector{&fakeOutput{name: "out"}})

	require.NoError(t, g.AddConnection("a", "b", "out", "in"))
	require.NoError(t, g.AddConnection("b", "a", "out", "in"))

	_, err := g.order()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphNotAcyclic)
}

func TestOrderIgnoresFeedbackEdges(t *testing.T) {
	g := NewGraph(nil)
	// a -> b delay 0, b -> a delay 1: a pure delay-0 DAG ignoring the
	// feedback edge, so no cycle.
	addFakeNode(t, g, "a", []InputConnector{&fakeInput{name: "fb", delay: 1, optional: true}}, []OutputConnector{&fakeOutput{name: "out"}})
	addFakeNode(t, g, "b", []InputConnector{&fakeInput{name: "in"}}, []OutputConnector{&fakeOutput{name: "out"}})

	require.NoError(t, g.AddConnection("a", "b", "out", "in"))
	require.NoError(t, g.AddConnection("b", "a", "out", "fb"))

	order, err := g.order()
	require.NoError(t, err)
	names := make([]string, len(order))
	for i, id := range order {
		names[i] = g.byID[id].identifier
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestAddNodeRejectsReservedAndDuplicateIdentifiers(t *testing.T) {
	g := NewGraph(nil)
	_, err := g.AddNode("fake", &fakeNode{}, "user")
	assert.ErrorIs(t, err, ErrInvalidConnection)

	_, err = g.AddNode("fake", &fakeNode{}, "dup")
	require.NoError(t, err)
	_, err = g.AddNode("fake", &fakeNode{}, "dup")
	assert.ErrorIs(t, err, ErrInvalidConnection)
}

func TestDeferredMutationsApplyAfterRun(t *testing.T) {
	g := NewGraph(nil)
	g.runInProgress = true
	_, err := g.AddNode("fake", &fakeNode{}, "late")
	require.NoError(t, err)

	// Not visible yet: deferred.
	_, ok := g.nodes.ValueByKeyTry("late")
	assert.False(t, ok)

	g.runInProgress = false
	g.flushPendingMutations()
	_, ok = g.nodes.ValueByKeyTry("late")
	assert.True(t, ok)
}
