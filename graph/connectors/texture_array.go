// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connectors

import (
	"context"

	"github.com/cogentcore/rendergraph/graph"
)

// textureArrayBacking is the Backing handle for a texture-array resource:
// a fixed-size slot table plus the set of slots written this iteration.
// DummyTexture fills any slot a node has never set, so descriptor sets
// stay valid. slotLayout and inputPending track the consumer side's view
// independently of the producer's changedSlots: a new texture in a slot
// has an unknown current layout and needs both a barrier and a
// descriptor rewrite on the next input pre-process, even if the input
// already saw and barriered that slot in a previous iteration.
type textureArrayBacking struct {
	Slots        []any
	DummyTexture any
	changedSlots map[int]bool

	slotLayout   []graph.ImageLayout
	inputPending map[int]bool
}

func newTextureArrayBacking(n int, dummy any) *textureArrayBacking {
	return &textureArrayBacking{
		Slots:        make([]any, n),
		DummyTexture: dummy,
		changedSlots: make(map[int]bool),
		slotLayout:   make([]graph.ImageLayout, n),
		inputPending: make(map[int]bool),
	}
}

func (b *textureArrayBacking) Set(slot int, tex any) {
	b.Slots[slot] = tex
	b.changedSlots[slot] = true
	b.inputPending[slot] = true
	b.slotLayout[slot] = graph.LayoutUndefined
}

func (b *textureArrayBacking) resolve(slot int) any {
	if b.Slots[slot] != nil {
		return b.Slots[slot]
	}
	return b.DummyTexture
}

// TextureArrayOutput holds a mutable table of N textures; a node may set
// any slot at any time via its resolved *textureArrayBacking.
type TextureArrayOutput struct {
	OutputName   string
	Count        int
	DummyTexture any
	Usage        graph.UsageFlags
	Access       graph.AccessFlags
	Stage        graph.PipelineStageFlags
	Img          graph.ImageFormat
	IsPersistent bool
	Binding      graph.DescriptorBinding
	HasBinding   bool
}

func (o *TextureArrayOutput) Name() string { return o.OutputName }
func (o *TextureArrayOutput) DescriptorInfo() (graph.DescriptorBinding, bool) {
	return o.Binding, o.HasBinding
}
func (o *TextureArrayOutput) Kind() graph.ResourceKind             { return graph.KindTextureArray }
func (o *TextureArrayOutput) Persistent() bool                     { return o.IsPersistent }
func (o *TextureArrayOutput) DeclaredUsage() graph.UsageFlags      { return o.Usage }
func (o *TextureArrayOutput) ProducedAccess() graph.AccessFlags    { return o.Access }
func (o *TextureArrayOutput) ProducedStage() graph.PipelineStageFlags { return o.Stage }
func (o *TextureArrayOutput) Format() graph.ImageFormat            { return o.Img }
func (o *TextureArrayOutput) ArraySize() int                       { return o.Count }

func (o *TextureArrayOutput) CreateResource(ctx context.Context, alloc graph.Allocator, agg graph.AllocRequest) ([]any, error) {
	backings := make([]any, agg.Copies)
	for i := range backings {
		backings[i] = newTextureArrayBacking(o.Count, o.DummyTexture)
	}
	return backings, nil
}

func (o *TextureArrayOutput) PreProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	buf.AddImage(graph.Barrier{
		Resource:  r.ID,
		SrcStage:  r.CurrentStage,
		DstStage:  o.Stage,
		SrcAccess: r.CurrentAccess,
		DstAccess: o.Access,
		OldLayout: r.Layout,
		NewLayout: graph.LayoutShaderReadOnly,
	})
	r.SetState(o.Stage, o.Access)
	return 0, nil
}

func (o *TextureArrayOutput) PostProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	r.MarkWritten()
	flags := graph.ProcessFlags(0)
	if b, ok := r.Backing.(*textureArrayBacking); ok && len(b.changedSlots) > 0 {
		flags |= graph.NeedsDescriptorUpdate
	}
	return flags, nil
}

// DescriptorUpdate writes only the slots changed this iteration.
func (o *TextureArrayOutput) DescriptorUpdate(ctx context.Context, r *graph.Resource, set graph.DescriptorSet) error {
	b, ok := r.Backing.(*textureArrayBacking)
	if !ok {
		return nil
	}
	for slot := range b.changedSlots {
		writeDescriptorSlot(set, o.Binding.BindLoc, slot, b.resolve(slot))
	}
	b.changedSlots = make(map[int]bool)
	return nil
}

func (o *TextureArrayOutput) ResourceView(r *graph.Resource) any { return r.Backing }

// TextureArrayInput reads the array's currently-bound textures, barriering
// and re-publishing only the slots whose layout actually needs to change.
type TextureArrayInput struct {
	InputName   string
	DelayFrames int
	IsOptional  bool
	Access      graph.AccessFlags
	Stage       graph.PipelineStageFlags
	Layout      graph.ImageLayout
	Usage       graph.UsageFlags
	Binding     graph.DescriptorBinding
	HasBinding  bool
}

func (in *TextureArrayInput) Name() string                            { return in.InputName }
func (in *TextureArrayInput) Delay() int                               { return in.DelayFrames }
func (in *TextureArrayInput) Optional() bool                           { return in.IsOptional }
func (in *TextureArrayInput) RequiredUsage() graph.UsageFlags          { return in.Usage }
func (in *TextureArrayInput) RequiredAccess() graph.AccessFlags        { return in.Access }
func (in *TextureArrayInput) RequiredStage() graph.PipelineStageFlags  { return in.Stage }
func (in *TextureArrayInput) RequiredLayout() graph.ImageLayout        { return in.Layout }
func (in *TextureArrayInput) AcceptsOutput(out graph.OutputConnector) bool {
	return out.Kind() == graph.KindTextureArray
}
func (in *TextureArrayInput) DescriptorInfo() (graph.DescriptorBinding, bool) {
	return in.Binding, in.HasBinding
}

func (in *TextureArrayInput) PreProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	b, ok := r.Backing.(*textureArrayBacking)
	if !ok {
		return 0, nil
	}
	flags := graph.ProcessFlags(0)
	for slot := range b.Slots {
		if b.slotLayout[slot] == in.Layout {
			continue
		}
		buf.AddImage(graph.Barrier{
			Resource:  r.ID,
			SrcStage:  r.CurrentStage,
			DstStage:  in.Stage,
			SrcAccess: r.CurrentAccess,
			DstAccess: in.Access,
			OldLayout: b.slotLayout[slot],
			NewLayout: in.Layout,
		})
		b.slotLayout[slot] = in.Layout
		b.inputPending[slot] = true
		flags |= graph.NeedsDescriptorUpdate
	}
	r.MarkRead()
	r.Layout = in.Layout
	return flags, nil
}

func (in *TextureArrayInput) PostProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	return 0, nil
}

func (in *TextureArrayInput) DescriptorUpdate(ctx context.Context, r *graph.Resource, set graph.DescriptorSet) error {
	b, ok := r.Backing.(*textureArrayBacking)
	if !ok {
		return nil
	}
	for slot := range b.inputPending {
		writeDescriptorSlot(set, in.Binding.BindLoc, slot, b.resolve(slot))
	}
	b.inputPending = make(map[int]bool)
	return nil
}

func (in *TextureArrayInput) ResourceView(r *graph.Resource) any { return r.Backing }

// writeDescriptorSlot is the seam a concrete Vulkan adapter fills in;
// this package only decides *which* slots to write, not how a descriptor
// write call is encoded.
var writeDescriptorSlot = func(set graph.DescriptorSet, bindLoc uint32, slot int, tex any) {}

var _ graph.OutputConnector = (*TextureArrayOutput)(nil)
var _ graph.InputConnector = (*TextureArrayInput)(nil)
