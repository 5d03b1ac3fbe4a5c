// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"context"
	"fmt"
)

// allocationRecord is the per-output allocation record: max delay D, the
// D+1 resource copies, and the combined usage/access/stage flags
// aggregated from every consumer.
type allocationRecord struct {
	node   NodeID
	output string

	delay       int // D
	copies      int // D + 1
	usage       UsageFlags
	inputAccess AccessFlags
	inputStage  PipelineStageFlags
	persistent  bool

	resources []ResourceID
}

// allocate computes, for every resolved output, its maximum delay D, the
// combined usage/access/stage, assert layout agreement (already done by
// validate), and allocate D+1 copies from the aliasing allocator (or the
// persistent allocator for persistent outputs). Allocation order follows
// build order, which is how the aliasing allocator infers non-overlapping
// liveness.
func (g *Graph) allocate(ctx context.Context, order []NodeID, r *resolved, alloc Allocator, res *resourceTable) (map[NodeID][]*allocationRecord, error) {
	out := make(map[NodeID][]*allocationRecord)

	// Group edges by (src node, src output) to find every consumer.
	type producerKey struct {
		node   NodeID
		output string
	}
	consumersOf := make(map[producerKey][]edge)
	for _, k := range g.edges.Keys() {
		e, _ := g.edges.ValueByKeyTry(k)
		src := g.byID[e.SrcNode]
		if src.removed || src.disabled {
			continue
		}
		pk := producerKey{node: e.SrcNode, output: e.SrcOutput}
		consumersOf[pk] = append(consumersOf[pk], e)
	}

	for _, id := range order {
		rec := g.byID[id]
		if rec.removed || rec.disabled {
			continue
		}
		for _, o := range r.outputs[id] {
			pk := producerKey{node: id, output: o.Name()}
			consumers := consumersOf[pk]

			d := 0
			var usage UsageFlags
			var inAccess AccessFlags
			var inStage PipelineStageFlags
			var layout ImageLayout
			for _, e := range consumers {
				dst := g.byID[e.DstNode]
				var in InputConnector
				for _, i := range dst.inputs {
					if i.Name() == e.DstInput {
						in = i
						break
					}
				}
				if in == nil {
					continue
				}
				if in.Delay() > d {
					d = in.Delay()
				}
				usage = orUsage(usage, in.RequiredUsage())
				inAccess = orAccess(inAccess, in.RequiredAccess())
				inStage = orStage(inStage, in.RequiredStage())
				if in.RequiredLayout() != LayoutUndefined {
					layout = in.RequiredLayout()
				}
			}
			usage = orUsage(usage, o.DeclaredUsage())
			copies := d + 1

			req := AllocRequest{
				Kind:        o.Kind(),
				Persistent:  o.Persistent(),
				Copies:      copies,
				Usage:       usage,
				InputAccess: inAccess,
				InputStage:  inStage,
				Layout:      layout,
				Format:      o.Format(),
				ArraySize:   o.ArraySize(),
				DebugName:   fmt.Sprintf("%s.%s", rec.identifier, o.Name()),
			}

			backings, err := o.CreateResource(ctx, alloc, req)
			if err != nil {
				return nil, wrapAllocationFailed("%s.%s: %v", rec.identifier, o.Name(), err)
			}
			if len(backings) != copies {
				return nil, wrapAllocationFailed("%s.%s: allocator returned %d copies, wanted %d", rec.identifier, o.Name(), len(backings), copies)
			}
			ids := res.alloc(copies)
			for i, rid := range ids {
				r := res.get(rid)
				r.Backing = backings[i]
				r.Kind = req.Kind
				r.Persistent = req.Persistent
				r.InputAccess = inAccess
				r.InputStage = inStage
				r.Layout = LayoutUndefined
				if req.Kind == KindHostPtr {
					if req.Persistent {
						r.ConsumersRemaining = -1 // "infinite": never released
						r.ConsumersPerIteration = -1
					} else {
						r.ConsumersRemaining = 0
						for _, e := range consumers {
							if g.delayOf(e) == 0 {
								r.ConsumersRemaining++
							}
						}
						r.ConsumersPerIteration = r.ConsumersRemaining
					}
				}
			}

			out[id] = append(out[id], &allocationRecord{
				node: id, output: o.Name(), delay: d, copies: copies,
				usage: usage, inputAccess: inAccess, inputStage: inStage,
				persistent: req.Persistent, resources: ids,
			})
		}
	}

	return out, nil
}
