// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

// ResourceKind distinguishes the connector variants; a Resource's
// Backing field is interpreted according to this tag.
type ResourceKind int

const (
	KindManagedImage ResourceKind = iota
	KindExternalImage
	KindTextureArray
	KindHostPtr
)

// Resource is the typed wrapper around one concrete GPU or host
// object and the synchronization state needed to barrier it correctly on
// its next use. It is the handoff unit between the connector that produced
// it and the connectors that read it during one phase.
type Resource struct {
	ID   ResourceID
	Kind ResourceKind

	// Persistent resources survive across iterations and are never
	// aliased; transient resources are valid only within the
	// iteration that wrote them.
	Persistent bool

	// Backing is the external handle — an image, a buffer, or a host
	// pointer — created by the owning output connector's CreateResource.
	// The core never interprets it; only the connector and the Vulkan
	// adapter (rgvk) do.
	Backing any

	// Current layout, for images only. Always reflects the last barrier
	// enqueued, never a pending one.
	Layout ImageLayout

	// CurrentAccess / CurrentStage are the src side of the next barrier:
	// the access and stage this resource was last transitioned to.
	CurrentAccess AccessFlags
	CurrentStage  PipelineStageFlags

	// InputAccess / InputStage are the combined access/stage masks of
	// every consumer of this resource, used as the destination side of
	// the single barrier that covers all of this iteration's consumers
	// at once.
	InputAccess AccessFlags
	InputStage  PipelineStageFlags

	// NeedsDescriptorUpdate marks a resource whose descriptor binding
	// must be rewritten. The connectors in this module do not set it;
	// they report the need through the NeedsDescriptorUpdate process flag
	// returned from pre/post-process.
	NeedsDescriptorUpdate bool

	// LastUsedAsOutput disambiguates the barrier source: true means "the
	// producing node just wrote this", false means "every consumer that
	// read it this iteration is done".
	LastUsedAsOutput bool

	// ConsumersRemaining counts host-pointer consumers not yet processed
	// in the current iteration; only meaningful for KindHostPtr. Reset by
	// HostPtrOutput.PostProcess on every producing iteration to
	// ConsumersPerIteration (or left untouched for a persistent output,
	// which never reaches 0).
	ConsumersRemaining int

	// ConsumersPerIteration is the connected delay-0 input count captured
	// at allocation time, i.e. the value ConsumersRemaining resets to
	// each time this copy is produced anew. -1 for a persistent output.
	ConsumersPerIteration int
}

// MarkWritten records that a successful post-process by any writer has
// run: LastUsedAsOutput becomes true.
func (r *Resource) MarkWritten() { r.LastUsedAsOutput = true }

// MarkRead records that a read has happened: LastUsedAsOutput becomes
// false.
func (r *Resource) MarkRead() { r.LastUsedAsOutput = false }

// SetState records the access/stage this resource was just transitioned
// to, i.e. the src side of the *next* barrier.
func (r *Resource) SetState(stage PipelineStageFlags, access AccessFlags) {
	r.CurrentStage = stage
	r.CurrentAccess = access
}

// Barrier is one pipeline dependency: a stage/access transition and,
// for images, a layout transition. Connectors append these into a
// BarrierBuffer rather than submitting them directly: the driver
// batches everything a node's connectors emit into a single
// command-buffer call before and after the node runs.
type Barrier struct {
	Resource ResourceID
	IsImage  bool

	SrcStage PipelineStageFlags
	DstStage PipelineStageFlags
	SrcAccess AccessFlags
	DstAccess AccessFlags

	// Image-only fields.
	OldLayout      ImageLayout
	NewLayout      ImageLayout
	FromUndefined  bool // legal discard of prior contents (transient output)
}

// BarrierBuffer accumulates barriers emitted by a node's connectors across
// one pre-process or post-process pass. The driver flushes it as a single
// pipeline-barrier call and then clears it for reuse.
type BarrierBuffer struct {
	Image  []Barrier
	Buffer []Barrier
}

func (b *BarrierBuffer) AddImage(bar Barrier) {
	bar.IsImage = true
	b.Image = append(b.Image, bar)
}

func (b *BarrierBuffer) AddBuffer(bar Barrier) {
	bar.IsImage = false
	b.Buffer = append(b.Buffer, bar)
}

func (b *BarrierBuffer) Empty() bool { return len(b.Image) == 0 && len(b.Buffer) == 0 }

func (b *BarrierBuffer) Reset() {
	b.Image = b.Image[:0]
	b.Buffer = b.Buffer[:0]
}
