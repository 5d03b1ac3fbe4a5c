// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

// gcd/lcm are the small integer helpers phase-table period needs;
// deliberately hand-rolled rather than pulled from gonum, which has no
// scalar LCM export.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// precomputeResourceSets computes, for every node, its period L_n as the
// LCM of its own outputs' copy counts and the copy counts of every
// producer output it reads from. Each of the L_n phases is precomputed
// once so the driver does only array indexing per iteration rather than
// modular arithmetic in the hot loop.
func precomputeResourceSets(order []NodeID, g *Graph, r *resolved, allocs map[NodeID][]*allocationRecord) {
	// outputCopies[node][output] = number of resource copies allocated.
	outputCopies := make(map[NodeID]map[string]int)
	outputResources := make(map[NodeID]map[string][]ResourceID)
	for id, recs := range allocs {
		outputCopies[id] = make(map[string]int, len(recs))
		outputResources[id] = make(map[string][]ResourceID, len(recs))
		for _, a := range recs {
			outputCopies[id][a.output] = a.copies
			outputResources[id][a.output] = a.resources
		}
	}

	for _, id := range order {
		rec := g.byID[id]
		if rec.removed || rec.disabled {
			continue
		}

		period := 1
		for _, n := range outputCopies[id] {
			period = lcm(period, n)
		}
		for _, in := range rec.inputs {
			src, ok := resolveProducer(g, id, in.Name())
			if !ok {
				continue
			}
			if n, ok := outputCopies[src.node][src.output]; ok {
				period = lcm(period, n)
			}
		}
		if period == 0 {
			period = 1
		}
		rec.period = period

		rec.phaseOutputs = make([][]ResourceID, period)
		rec.phaseInputs = make([][]ResourceID, period)
		outputNames := make([]string, 0, len(outputCopies[id]))
		for _, o := range r.outputs[id] {
			outputNames = append(outputNames, o.Name())
		}

		for p := 0; p < period; p++ {
			outs := make([]ResourceID, len(outputNames))
			for i, name := range outputNames {
				copies := outputCopies[id][name]
				outs[i] = outputResources[id][name][p%copies]
			}
			rec.phaseOutputs[p] = outs

			ins := make([]ResourceID, len(rec.inputs))
			for i, in := range rec.inputs {
				src, ok := resolveProducer(g, id, in.Name())
				if !ok {
					ins[i] = InvalidID
					continue
				}
				copies := outputCopies[src.node][src.output]
				if copies == 0 {
					ins[i] = InvalidID
					continue
				}
				idx := ((p-in.Delay())%copies + copies) % copies
				ins[i] = outputResources[src.node][src.output][idx]
			}
			rec.phaseInputs[p] = ins
		}
	}
}

type producerRef struct {
	node   NodeID
	output string
}

// resolveProducer finds the edge feeding dstID's named input, if connected
// to a live producer.
func resolveProducer(g *Graph, dstID NodeID, inputName string) (producerRef, bool) {
	e, ok := g.edges.ValueByKeyTry(sinkKey{node: dstID, input: inputName})
	if !ok {
		return producerRef{}, false
	}
	src := g.byID[e.SrcNode]
	if src.removed || src.disabled {
		return producerRef{}, false
	}
	return producerRef{node: e.SrcNode, output: e.SrcOutput}, true
}
