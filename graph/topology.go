// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/cogentcore/rendergraph/base/ordmap"
)

// ReservedIdentifiers cannot be used as a node identifier.
var ReservedIdentifiers = map[string]bool{"user": true, "graph": true}

// edge is a desired edge: a tuple (src_node, src_output,
// dst_node, dst_input). Duplicate incoming edges on one input are
// impossible by construction because Graph.edges is keyed on the sink
// (dst_input) — at most one edge may target a given input at a time.
type edge struct {
	SrcNode   NodeID
	SrcOutput string
	DstNode   NodeID
	DstInput  string
}

// sinkKey identifies a desired edge's destination: a node's input is a
// sink, so at most one edge may target it at a time.
type sinkKey struct {
	node  NodeID
	input string
}

func (k sinkKey) String() string { return fmt.Sprintf("%d.%s", k.node, k.input) }

// Graph holds the topology and connection model: the node table, the
// desired-edge set, and the deferred-mutation bookkeeping. The driver
// exclusively owns this table.
type Graph struct {
	registry *Registry

	nodes     *ordmap.Map[string, *nodeRecord] // identifier -> record, insertion order
	byID      []*nodeRecord                    // arena, indexed by NodeID
	typeNames map[NodeID]string
	counters  map[string]int // per-type identifier counter, for default identifiers

	edges *ordmap.Map[sinkKey, edge]

	runInProgress    bool
	pendingMutations []func()
	needsRebuild     bool
}

// NewGraph returns an empty graph using reg to resolve type names passed
// to AddNode (may be nil if AddNode is only ever called with node
// instances).
func NewGraph(reg *Registry) *Graph {
	return &Graph{
		registry:  reg,
		nodes:     ordmap.New[string, *nodeRecord](),
		typeNames: make(map[NodeID]string),
		counters:  make(map[string]int),
		edges:     ordmap.New[sinkKey, edge](),
	}
}

// AddNode adds node under identifier (or a generated default if empty),
// returning the final identifier. typeName is recorded for persistence
// even when node is passed directly rather than looked up in the
// registry.
func (g *Graph) AddNode(typeName string, node Node, identifier string) (string, error) {
	if node == nil && g.registry != nil {
		n, err := g.registry.New(typeName)
		if err != nil {
			return "", err
		}
		node = n
	}
	if node == nil {
		return "", wrapInvalidConnection("no node instance or registered type %q", typeName)
	}
	if identifier == "" {
		g.counters[typeName]++
		identifier = fmt.Sprintf("%s %d", typeName, g.counters[typeName])
	}
	if ReservedIdentifiers[identifier] {
		return "", wrapInvalidConnection("identifier %q is reserved", identifier)
	}
	if _, exists := g.nodes.ValueByKeyTry(identifier); exists {
		return "", wrapInvalidConnection("duplicate node identifier %q", identifier)
	}

	id := NodeID(len(g.byID))
	rec := &nodeRecord{id: id, identifier: identifier, node: node}
	inputs := node.DescribeInputs()
	rec.inputs = inputs

	apply := func() {
		g.byID = append(g.byID, rec)
		g.typeNames[id] = typeName
		g.nodes.Add(identifier, rec)
		g.needsRebuild = true
	}
	g.deferOrApply(apply)
	return identifier, nil
}

// RemoveNode schedules removal of the node with the given identifier,
// deferred to the end of the current run if one is in progress.
// Returns false if the identifier is unknown. Edges referencing the node
// are removed along with it.
func (g *Graph) RemoveNode(identifier string) bool {
	rec, ok := g.nodes.ValueByKeyTry(identifier)
	if !ok {
		return false
	}
	apply := func() {
		g.nodes.DeleteKey(identifier)
		rec.removed = true
		// Drop every edge touching this node; iterate a snapshot since
		// we mutate g.edges.Order while walking it.
		keys := append([]sinkKey(nil), g.edges.Keys()...)
		for _, k := range keys {
			e, _ := g.edges.ValueByKeyTry(k)
			if e.SrcNode == rec.id || e.DstNode == rec.id {
				g.edges.DeleteKey(k)
			}
		}
		g.needsRebuild = true
	}
	g.deferOrApply(apply)
	return true
}

// AddConnection wires srcID's output srcOutput to dstID's input dstInput.
// If dstInput is already bound, the previous connection is replaced and
// logged at Info level.
func (g *Graph) AddConnection(srcID, dstID, srcOutput, dstInput string) error {
	srcRec, ok := g.nodes.ValueByKeyTry(srcID)
	if !ok {
		return wrapInvalidConnection("unknown source node %q", srcID)
	}
	dstRec, ok := g.nodes.ValueByKeyTry(dstID)
	if !ok {
		return wrapInvalidConnection("unknown destination node %q", dstID)
	}
	key := sinkKey{node: dstRec.id, input: dstInput}
	apply := func() {
		if prev, had := g.edges.ValueByKeyTry(key); had {
			Logger().Info("replacing existing connection", "dst", dstID, "input", dstInput,
				"previous_src", prev.SrcNode, "previous_output", prev.SrcOutput)
		}
		g.edges.Add(key, edge{SrcNode: srcRec.id, SrcOutput: srcOutput, DstNode: dstRec.id, DstInput: dstInput})
		g.needsRebuild = true
	}
	g.deferOrApply(apply)
	return nil
}

// RemoveConnection removes the edge feeding dstID's dstInput, if any.
func (g *Graph) RemoveConnection(srcID, dstID, dstInput string) bool {
	dstRec, ok := g.nodes.ValueByKeyTry(dstID)
	if !ok {
		return false
	}
	key := sinkKey{node: dstRec.id, input: dstInput}
	if _, ok := g.edges.ValueByKeyTry(key); !ok {
		return false
	}
	g.deferOrApply(func() {
		g.edges.DeleteKey(key)
		g.needsRebuild = true
	})
	return true
}

// RequestRebuild forces needs-rebuild even without any topology edit.
func (g *Graph) RequestRebuild() { g.needsRebuild = true }

// deferOrApply runs fn immediately, unless a run is in progress, in which
// case it is queued to run at the end of the current run.
func (g *Graph) deferOrApply(fn func()) {
	if g.runInProgress {
		g.pendingMutations = append(g.pendingMutations, fn)
		return
	}
	fn()
}

// flushPendingMutations applies every deferred mutation, in order, and
// clears the queue. Called by the driver once an iteration's submit
// completes.
func (g *Graph) flushPendingMutations() {
	muts := g.pendingMutations
	g.pendingMutations = nil
	for _, fn := range muts {
		fn()
	}
}

// delayOf resolves the delay declared by the input connector an edge
// targets.
func (g *Graph) delayOf(e edge) int {
	dst := g.byID[e.DstNode]
	for _, in := range dst.inputs {
		if in.Name() == e.DstInput {
			return in.Delay()
		}
	}
	return 0
}

// order computes the topological ordering: delay-0 edges define
// a DAG; feedback edges (delay >= 1) are excluded. Ties are broken by
// node identifier string. Returns ErrGraphNotAcyclic if a delay-0 cycle
// is found.
func (g *Graph) order() ([]NodeID, error) {
	// Build the delay-0 subgraph in a gonum simple.DirectedGraph, used
	// both for our own deterministic traversal and as a cross-check via
	// topo.Sort/topo.DirectedCyclesIn.
	dg := simple.NewDirectedGraph()
	for _, rec := range g.byID {
		if rec.removed {
			continue
		}
		dg.AddNode(simple.Node(rec.id))
	}
	indegree := make(map[NodeID]int)
	delay0Succ := make(map[NodeID][]NodeID)
	for _, k := range g.edges.Keys() {
		e, _ := g.edges.ValueByKeyTry(k)
		if g.delayOf(e) >= 1 {
			continue // feedback edges are invisible to ordering
		}
		if e.SrcNode == e.DstNode {
			// A delay-0 self-loop is invalid but that is validate's job to
			// report; ordering just skips it rather than handing gonum a
			// self edge.
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(e.SrcNode), simple.Node(e.DstNode)))
		indegree[e.DstNode]++
		delay0Succ[e.SrcNode] = append(delay0Succ[e.SrcNode], e.DstNode)
	}

	if _, err := topo.Sort(dg); err != nil {
		return nil, wrapGraphNotAcyclic("%v", err)
	}

	// Kahn's algorithm, queue of roots = zero in-degree nodes, with a
	// deterministic identifier tie-break.
	var ready []NodeID
	for _, rec := range g.byID {
		if rec.removed {
			continue
		}
		if indegree[rec.id] == 0 {
			ready = append(ready, rec.id)
		}
	}
	sortByIdentifier := func(ids []NodeID) {
		sort.Slice(ids, func(i, j int) bool {
			return g.byID[ids[i]].identifier < g.byID[ids[j]].identifier
		})
	}
	sortByIdentifier(ready)

	visited := make(map[NodeID]bool)
	order := make([]NodeID, 0, len(g.byID))
	remaining := make(map[NodeID]int, len(indegree))
	for k, v := range indegree {
		remaining[k] = v
	}

	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		if visited[n] {
			return nil, wrapGraphNotAcyclic("node %q revisited through a delay-0 path", g.byID[n].identifier)
		}
		visited[n] = true
		order = append(order, n)

		var newlyReady []NodeID
		for _, succ := range delay0Succ[n] {
			remaining[succ]--
			if remaining[succ] == 0 {
				newlyReady = append(newlyReady, succ)
			}
		}
		sortByIdentifier(newlyReady)
		ready = append(ready, newlyReady...)
		sortByIdentifier(ready)
	}

	if len(order) != len(g.byID) {
		for _, rec := range g.byID {
			if rec != nil && !rec.removed && !visited[rec.id] {
				return nil, wrapGraphNotAcyclic("node %q is part of a delay-0 cycle", rec.identifier)
			}
		}
	}
	return order, nil
}
