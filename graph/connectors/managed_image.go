// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package connectors implements the connector variants: managed images
// (the canonical, aliasable variant), externally-owned images, texture
// arrays, and host pointers. Concrete node implementations are an
// external collaborator; this package is the one place the render-graph
// core ships connector behavior itself, because the barrier policy for
// each variant is a property of the connector kind, not of any
// particular node.
package connectors

import (
	"context"

	"github.com/cogentcore/rendergraph/graph"
)

// ManagedImageOutput is the canonical aliasable image output: a graph-
// owned image whose memory the allocator may alias with any other
// transient resource whose liveness never overlaps it.
type ManagedImageOutput struct {
	OutputName string
	Usage      graph.UsageFlags
	Access     graph.AccessFlags
	Stage      graph.PipelineStageFlags
	Layout     graph.ImageLayout
	Img        graph.ImageFormat
	IsPersistent bool
	Binding    graph.DescriptorBinding
	HasBinding bool
}

func (o *ManagedImageOutput) Name() string { return o.OutputName }

func (o *ManagedImageOutput) DescriptorInfo() (graph.DescriptorBinding, bool) {
	return o.Binding, o.HasBinding
}

func (o *ManagedImageOutput) Kind() graph.ResourceKind { return graph.KindManagedImage }
func (o *ManagedImageOutput) Persistent() bool          { return o.IsPersistent }
func (o *ManagedImageOutput) DeclaredUsage() graph.UsageFlags        { return o.Usage }
func (o *ManagedImageOutput) ProducedAccess() graph.AccessFlags      { return o.Access }
func (o *ManagedImageOutput) ProducedStage() graph.PipelineStageFlags { return o.Stage }
func (o *ManagedImageOutput) Format() graph.ImageFormat { return o.Img }
func (o *ManagedImageOutput) ArraySize() int            { return 1 }

// CreateResource allocates Copies images through alloc, aliased unless
// this output is persistent.
func (o *ManagedImageOutput) CreateResource(ctx context.Context, alloc graph.Allocator, agg graph.AllocRequest) ([]any, error) {
	if agg.Persistent {
		return alloc.AllocatePersistent(ctx, agg)
	}
	return alloc.AllocateAliased(ctx, agg)
}

// PreProcess implements "On output pre-process": a transition to
// this output's produced stage/access, discarding prior contents (legal
// and cheap) when the resource is transient.
func (o *ManagedImageOutput) PreProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	buf.AddImage(graph.Barrier{
		Resource:      r.ID,
		SrcStage:      r.CurrentStage,
		DstStage:      o.Stage,
		SrcAccess:     r.CurrentAccess,
		DstAccess:     o.Access,
		OldLayout:     r.Layout,
		NewLayout:     o.Layout,
		FromUndefined: !r.Persistent,
	})
	r.SetState(o.Stage, o.Access)
	r.Layout = o.Layout
	return 0, nil
}

// PostProcess marks the resource written, for the next reader's barrier.
func (o *ManagedImageOutput) PostProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	r.MarkWritten()
	return 0, nil
}

func (o *ManagedImageOutput) DescriptorUpdate(ctx context.Context, r *graph.Resource, set graph.DescriptorSet) error {
	return nil
}

func (o *ManagedImageOutput) ResourceView(r *graph.Resource) any { return r.Backing }

// ManagedImageInput is the input side of the canonical managed image.
type ManagedImageInput struct {
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

func (in *ManagedImageInput) Name() string { return in.InputName }
func (in *ManagedImageInput) Delay() int    { return in.DelayFrames }
func (in *ManagedImageInput) Optional() bool { return in.IsOptional }
func (in *ManagedImageInput) RequiredUsage() graph.UsageFlags         { return in.Usage }
func (in *ManagedImageInput) RequiredAccess() graph.AccessFlags       { return in.Access }
func (in *ManagedImageInput) RequiredStage() graph.PipelineStageFlags { return in.Stage }
func (in *ManagedImageInput) RequiredLayout() graph.ImageLayout       { return in.Layout }

func (in *ManagedImageInput) AcceptsOutput(out graph.OutputConnector) bool {
	switch out.Kind() {
	case graph.KindManagedImage, graph.KindExternalImage:
		return true
	default:
		return false
	}
}

func (in *ManagedImageInput) DescriptorInfo() (graph.DescriptorBinding, bool) {
	return in.Binding, in.HasBinding
}

// PreProcess implements "Barrier policy for managed images": the
// canonical variant's three-way branch on last_used_as_output /
// current_layout agreement / no-op.
func (in *ManagedImageInput) PreProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	switch {
	case r.LastUsedAsOutput:
		buf.AddImage(graph.Barrier{
			Resource:  r.ID,
			SrcStage:  r.CurrentStage,
			DstStage:  r.InputStage,
			SrcAccess: r.CurrentAccess,
			DstAccess: r.InputAccess,
			OldLayout: r.Layout,
			NewLayout: in.Layout,
		})
		r.MarkRead()
		r.SetState(r.InputStage, r.InputAccess)
		r.Layout = in.Layout
	case r.Layout != in.Layout:
		buf.AddImage(graph.Barrier{
			Resource:  r.ID,
			SrcStage:  r.CurrentStage,
			DstStage:  r.CurrentStage,
			SrcAccess: r.CurrentAccess,
			DstAccess: r.CurrentAccess,
			OldLayout: r.Layout,
			NewLayout: in.Layout,
		})
		r.Layout = in.Layout
	}
	return 0, nil
}

func (in *ManagedImageInput) PostProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	return 0, nil
}

func (in *ManagedImageInput) DescriptorUpdate(ctx context.Context, r *graph.Resource, set graph.DescriptorSet) error {
	return nil
}

func (in *ManagedImageInput) ResourceView(r *graph.Resource) any { return r.Backing }

var _ graph.OutputConnector = (*ManagedImageOutput)(nil)
var _ graph.InputConnector = (*ManagedImageInput)(nil)
