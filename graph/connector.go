// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import "context"

// ProcessFlags is the status-flag set a connector's PreProcess/
// PostProcess may return, and node.Properties may return.
type ProcessFlags uint32

const (
	NeedsDescriptorUpdate ProcessFlags = 1 << iota
	NeedsReconnect
	RemoveNode
)

func (f ProcessFlags) Has(bit ProcessFlags) bool { return f&bit != 0 }

// Connector is the shared capability set every connector variant
// implements: descriptor info, pre-process, post-process, descriptor
// update, resource view. CreateResource belongs only to outputs and
// lives on OutputConnector.
type Connector interface {
	// Name is the connector's stable name on its node, used as the sink
	// key for desired edges.
	Name() string

	// DescriptorInfo returns the descriptor-layout binding this connector
	// wants bound, or ok=false for "no descriptor" (e.g. a host-pointer
	// connector).
	DescriptorInfo() (binding DescriptorBinding, ok bool)

	// PreProcess emits barriers transitioning r into the state this
	// connector requires before the node runs, appending into buf. It
	// never submits anything itself.
	PreProcess(ctx context.Context, r *Resource, buf *BarrierBuffer) (ProcessFlags, error)

	// PostProcess emits barriers or state updates needed after the node
	// ran.
	PostProcess(ctx context.Context, r *Resource, buf *BarrierBuffer) (ProcessFlags, error)

	// DescriptorUpdate writes r's binding into set for the current
	// iteration. Called only when PreProcess/PostProcess reported
	// NeedsDescriptorUpdate.
	DescriptorUpdate(ctx context.Context, r *Resource, set DescriptorSet) error

	// ResourceView yields the value handed to the node for this
	// connector on this iteration.
	ResourceView(r *Resource) any
}

// InputConnector is the Input variant of a connector: required
// access/stage/layout/usage, an optional flag, and a non-negative delay.
type InputConnector interface {
	Connector

	// Delay is the non-negative integer d: reading at iteration i returns
	// the producer's write from iteration i-d.
	Delay() int

	// Optional reports whether this input may be left unconnected.
	Optional() bool

	// RequiredUsage is OR'd into the producer's create-info usage flags.
	RequiredUsage() UsageFlags

	// RequiredAccess / RequiredStage are this connector's contribution to
	// the producer's combined consumer access/stage masks.
	RequiredAccess() AccessFlags
	RequiredStage() PipelineStageFlags

	// RequiredLayout is the image layout this input needs; meaningless
	// for non-image variants. Used by the cross-node layout-agreement
	// check.
	RequiredLayout() ImageLayout

	// AcceptsOutput reports whether this input's variant is compatible
	// with the given output's variant.
	AcceptsOutput(out OutputConnector) bool
}

// OutputConnector is the Output variant of a connector: produced
// access/stage flags, intrinsic create-info, and a persistence flag.
type OutputConnector interface {
	Connector

	// Kind reports which connector variant this output is, so the
	// allocator and resource table can interpret its Backing handle.
	Kind() ResourceKind

	// CreateResource produces the concrete backing handles (one per
	// AllocRequest.Copies) given the aggregated consumer constraints,
	// allocating through alloc (aliased if !Persistent(), persistent
	// otherwise). The driver wraps each handle
	// in a Resource and assigns it a ResourceID; connectors never see or
	// mint ResourceIDs themselves.
	CreateResource(ctx context.Context, alloc Allocator, agg AllocRequest) ([]any, error)

	// Persistent reports whether this output's contents survive across
	// iterations (never aliased) or are transient (may be aliased).
	Persistent() bool

	// DeclaredUsage is the producer's own usage contribution, OR'd with
	// every consumer's RequiredUsage.
	DeclaredUsage() UsageFlags

	// ProducedAccess / ProducedStage are this output's own access/stage,
	// used as the dst side of the barrier emitted on its own
	// pre-process.
	ProducedAccess() AccessFlags
	ProducedStage() PipelineStageFlags

	// Format is the image create-info for image-producing variants.
	Format() ImageFormat

	// ArraySize is >1 only for texture-array outputs.
	ArraySize() int
}
