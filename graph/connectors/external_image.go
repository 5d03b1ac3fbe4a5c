// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connectors

import (
	"context"
	"fmt"

	"github.com/cogentcore/rendergraph/graph"
)

// ExternalImageOutput wraps an image the graph does not own (e.g. a swap
// chain image handed in each frame): never aliased, backing handle
// supplied by the caller rather than created by the allocator.
type ExternalImageOutput struct {
	OutputName string
	Usage      graph.UsageFlags
	Access     graph.AccessFlags
	Stage      graph.PipelineStageFlags
	Img        graph.ImageFormat
	Layout     graph.ImageLayout

	// Backing supplies one external handle per resource copy, indexed the
	// same way the allocator would index aliased copies. Exactly
	// agg.Copies entries are expected at CreateResource time.
	Backing func(copies int) ([]any, error)

	Binding    graph.DescriptorBinding
	HasBinding bool
}

func (o *ExternalImageOutput) Name() string { return o.OutputName }
func (o *ExternalImageOutput) DescriptorInfo() (graph.DescriptorBinding, bool) {
	return o.Binding, o.HasBinding
}
func (o *ExternalImageOutput) Kind() graph.ResourceKind             { return graph.KindExternalImage }
func (o *ExternalImageOutput) Persistent() bool                     { return true }
func (o *ExternalImageOutput) DeclaredUsage() graph.UsageFlags      { return o.Usage }
func (o *ExternalImageOutput) ProducedAccess() graph.AccessFlags    { return o.Access }
func (o *ExternalImageOutput) ProducedStage() graph.PipelineStageFlags { return o.Stage }
func (o *ExternalImageOutput) Format() graph.ImageFormat            { return o.Img }
func (o *ExternalImageOutput) ArraySize() int                       { return 1 }

// CreateResource never calls into alloc: an external image's memory is
// owned and supplied by the collaborator that handed it to the node.
func (o *ExternalImageOutput) CreateResource(ctx context.Context, alloc graph.Allocator, agg graph.AllocRequest) ([]any, error) {
	if o.Backing == nil {
		return nil, fmt.Errorf("connectors: external image output %q has no Backing provider", o.OutputName)
	}
	handles, err := o.Backing(agg.Copies)
	if err != nil {
		return nil, err
	}
	if len(handles) != agg.Copies {
		return nil, fmt.Errorf("connectors: external image output %q: Backing returned %d handles, wanted %d", o.OutputName, len(handles), agg.Copies)
	}
	return handles, nil
}

func (o *ExternalImageOutput) PreProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	buf.AddImage(graph.Barrier{
		Resource:  r.ID,
		SrcStage:  r.CurrentStage,
		DstStage:  o.Stage,
		SrcAccess: r.CurrentAccess,
		DstAccess: o.Access,
		OldLayout: r.Layout,
		NewLayout: o.Layout,
	})
	r.SetState(o.Stage, o.Access)
	r.Layout = o.Layout
	return 0, nil
}

func (o *ExternalImageOutput) PostProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	r.MarkWritten()
	return 0, nil
}

func (o *ExternalImageOutput) DescriptorUpdate(ctx context.Context, r *graph.Resource, set graph.DescriptorSet) error {
	return nil
}

func (o *ExternalImageOutput) ResourceView(r *graph.Resource) any { return r.Backing }

// ExternalImageInput reads an externally-owned image; the barrier policy
// is identical to a managed image's input side.
type ExternalImageInput struct {
	ManagedImageInput
}

func (in *ExternalImageInput) AcceptsOutput(out graph.OutputConnector) bool {
	switch out.Kind() {
	case graph.KindManagedImage, graph.KindExternalImage:
		return true
	default:
		return false
	}
}

var _ graph.OutputConnector = (*ExternalImageOutput)(nil)
var _ graph.InputConnector = (*ExternalImageInput)(nil)
