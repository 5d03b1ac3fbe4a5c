// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

// resolved is the per-build output resolution the driver threads through
// ordering, validation, and allocation.
type resolved struct {
	outputs map[NodeID][]OutputConnector // by node id, in DescribeOutputs order
}

func (r *resolved) outputByName(id NodeID, name string) (OutputConnector, bool) {
	for _, o := range r.outputs[id] {
		if o.Name() == name {
			return o, true
		}
	}
	return nil, false
}

// validate checks the resolved topology before it is allocated. Disabled
// nodes (describe_outputs or on_build panicked) are treated as producing
// no outputs: any edge sourced from a disabled node behaves as "not
// connected" for its consumer.
func (g *Graph) validate(r *resolved) error {
	// No two inputs of the same node may read the same
	// (producer-output, delay) pair. Group edges by destination node.
	type producerDelay struct {
		srcNode NodeID
		output  string
		delay   int
	}
	seenPerDst := make(map[NodeID]map[producerDelay]string) // -> first dst_input that claimed it

	for _, k := range g.edges.Keys() {
		e, _ := g.edges.ValueByKeyTry(k)
		dst := g.byID[e.DstNode]
		if dst.removed {
			continue
		}
		delay := g.delayOf(e)

		// A same-node self-edge with delay 0 is rejected.
		if e.SrcNode == e.DstNode && delay == 0 {
			return wrapInvalidConnection("self-loop on node %q requires delay >= 1", dst.identifier)
		}

		pd := producerDelay{srcNode: e.SrcNode, output: e.SrcOutput, delay: delay}
		if seenPerDst[e.DstNode] == nil {
			seenPerDst[e.DstNode] = make(map[producerDelay]string)
		}
		if other, ok := seenPerDst[e.DstNode][pd]; ok {
			return wrapInvalidConnection(
				"node %q reads the same resource (from %q.%s at delay %d) on both %q and %q",
				dst.identifier, g.byID[e.SrcNode].identifier, e.SrcOutput, delay, other, e.DstInput)
		}
		seenPerDst[e.DstNode][pd] = e.DstInput

		// Connector-variant compatibility. Skip if the source node
		// was disabled (its outputs are absent, handled below).
		src := g.byID[e.SrcNode]
		if src.removed || src.disabled {
			continue
		}
		out, ok := r.outputByName(e.SrcNode, e.SrcOutput)
		if !ok {
			return wrapInvalidConnection("node %q has no output %q", src.identifier, e.SrcOutput)
		}
		var in InputConnector
		for _, i := range dst.inputs {
			if i.Name() == e.DstInput {
				in = i
				break
			}
		}
		if in == nil {
			return wrapInvalidConnection("node %q has no input %q", dst.identifier, e.DstInput)
		}
		if !in.AcceptsOutput(out) {
			return wrapInvalidConnection("input %q on %q does not accept output %q of %q",
				e.DstInput, dst.identifier, e.SrcOutput, src.identifier)
		}
	}

	// Every non-optional input must have exactly one incoming edge
	// that resolves to a live (non-disabled) producer.
	connected := make(map[sinkKey]bool)
	for _, k := range g.edges.Keys() {
		e, _ := g.edges.ValueByKeyTry(k)
		src := g.byID[e.SrcNode]
		if src.removed || src.disabled {
			continue // disabled producer's outputs are absent
		}
		connected[sinkKey{node: e.DstNode, input: e.DstInput}] = true
	}
	for _, rec := range g.byID {
		if rec.removed || rec.disabled {
			continue
		}
		for _, in := range rec.inputs {
			if in.Optional() {
				continue
			}
			if !connected[sinkKey{node: rec.id, input: in.Name()}] {
				return wrapMissingInput("node %q input %q is required but not connected", rec.identifier, in.Name())
			}
		}
	}

	// Layout agreement: all consumers of a given (src_node, src_output,
	// delay) must agree on one required layout. Per the decision recorded
	// in DESIGN.md, this check aggregates across nodes, not just within
	// one node.
	type key struct {
		srcNode NodeID
		output  string
		delay   int
	}
	layouts := make(map[key]ImageLayout)
	layoutOwners := make(map[key]string)
	for _, k := range g.edges.Keys() {
		e, _ := g.edges.ValueByKeyTry(k)
		src := g.byID[e.SrcNode]
		if src.removed || src.disabled {
			continue
		}
		dst := g.byID[e.DstNode]
		var in InputConnector
		for _, i := range dst.inputs {
			if i.Name() == e.DstInput {
				in = i
				break
			}
		}
		if in == nil || in.RequiredLayout() == LayoutUndefined {
			continue
		}
		kk := key{srcNode: e.SrcNode, output: e.SrcOutput, delay: g.delayOf(e)}
		if prev, ok := layouts[kk]; ok {
			if prev != in.RequiredLayout() {
				return wrapConnectorError(
					"conflicting required layouts for %q.%s (delay %d): %q wants %s, %q wants %s",
					src.identifier, e.SrcOutput, kk.delay, layoutOwners[kk], prev, dst.identifier, in.RequiredLayout())
			}
			continue
		}
		layouts[kk] = in.RequiredLayout()
		layoutOwners[kk] = dst.identifier
	}

	return nil
}
