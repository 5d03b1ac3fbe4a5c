// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import "context"

// ResolvedInput is what IOLayout hands a node's DescribeOutputs for one of
// its own inputs: the producer side has already been resolved, so an
// output's create-info may depend on it.
type ResolvedInput struct {
	Producer OutputConnector
	Layout   ImageLayout
	Usage    UsageFlags
}

// IOLayout is passed to DescribeOutputs once every input has been
// resolved to a concrete producer connector.
type IOLayout struct {
	Inputs map[string]ResolvedInput
}

// PerPhaseIO is passed to an optional Builder's OnBuild: for each phase s
// in [0, L_n), the resource each of the node's connectors sees.
type PerPhaseIO struct {
	Inputs  map[string][]ResourceID // name -> per-phase resource id
	Outputs map[string][]ResourceID
}

// IO is the resolved input/output values handed to Node.Process for one
// iteration: each connector's ResourceView for the phase of that
// iteration.
type IO struct {
	Inputs  map[string]any
	Outputs map[string]any
}

// Node is a user-supplied processing unit. Concrete node implementations
// are external collaborators; this core only invokes the contract below.
type Node interface {
	// DescribeInputs declares the node's input connectors. Called once,
	// at add_node time.
	DescribeInputs() []InputConnector

	// DescribeOutputs declares the node's output connectors, given the
	// already-resolved producer side of each input. Called during every
	// build (topology changed or not), since an output's create-info may
	// depend on an input's resolved properties.
	DescribeOutputs(layout IOLayout) ([]OutputConnector, error)

	// Process runs the node for one iteration: bound command buffer
	// (via run), descriptor set, and resolved I/O. Returns status flags
	// (NeedsReconnect, RemoveNode) plus an error.
	Process(ctx context.Context, run *GraphRun, set DescriptorSet, io IO) (ProcessFlags, error)
}

// Builder is implemented by nodes that need a hook once resource-set
// precomputation completes, e.g. to size CPU-side scratch buffers to
// match the per-phase resource instances.
type Builder interface {
	OnBuild(ctx context.Context, io PerPhaseIO) error
}

// PropertyReporter is implemented by nodes that expose configuration
// through the Properties visitor.
type PropertyReporter interface {
	Properties(p Properties) (ProcessFlags, error)
}

// NodeStats is the per-node wall-clock time spent in each phase of the
// most recent iteration.
type NodeStats struct {
	PreProcess  durationStat
	Process     durationStat
	PostProcess durationStat
}

type durationStat struct {
	NanosLast int64
	NanosMax  int64
}

func (d *durationStat) Record(nanos int64) {
	d.NanosLast = nanos
	if nanos > d.NanosMax {
		d.NanosMax = nanos
	}
}

// nodeRecord is the driver's side-table entry for one node: identity,
// the user's Node, its current enable/error state, its connectors, and
// its allocation/resource-set data. The driver exclusively owns this
// table.
type nodeRecord struct {
	id         NodeID
	identifier string
	node       Node
	disabled   bool
	removed    bool
	errs       []error
	stats      NodeStats

	inputs  []InputConnector
	outputs []OutputConnector

	// allocations[i] is the allocation record for outputs[i].
	allocations []*allocationRecord

	// phaseInputs/phaseOutputs are the precomputed resource-set tables:
	// phaseInputs[s][j] is the resource id input j sees at phase s;
	// phaseOutputs[s][o] likewise for output o.
	phaseInputs  [][]ResourceID
	phaseOutputs [][]ResourceID
	period       int // L_n
}

func (nr *nodeRecord) addError(err error) {
	nr.errs = append(nr.errs, err)
}
