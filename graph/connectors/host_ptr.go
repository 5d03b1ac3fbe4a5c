// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connectors

import (
	"context"

	"github.com/cogentcore/rendergraph/graph"
)

// HostPtrOutput is a host-side (CPU-resident) payload, e.g. a decoded
// frame handed off to GPU upload nodes. It participates in reference
// counting: the resource's ConsumersRemaining is set by the driver's
// allocation step to the number of connected delay-0 inputs (or to -1,
// "infinite", for a persistent output).
type HostPtrOutput struct {
	OutputName   string
	IsPersistent bool
	Usage        graph.UsageFlags

	// Alloc produces one host payload per resource copy; Release is
	// called once a copy's consumer count reaches zero.
	Alloc   func(copies int) ([]any, error)
	Release func(payload any)
}

func (o *HostPtrOutput) Name() string { return o.OutputName }
func (o *HostPtrOutput) DescriptorInfo() (graph.DescriptorBinding, bool) { return graph.DescriptorBinding{}, false }
func (o *HostPtrOutput) Kind() graph.ResourceKind          { return graph.KindHostPtr }
func (o *HostPtrOutput) Persistent() bool                  { return o.IsPersistent }
func (o *HostPtrOutput) DeclaredUsage() graph.UsageFlags   { return o.Usage }
func (o *HostPtrOutput) ProducedAccess() graph.AccessFlags { return 0 }
func (o *HostPtrOutput) ProducedStage() graph.PipelineStageFlags { return 0 }
func (o *HostPtrOutput) Format() graph.ImageFormat { return graph.ImageFormat{} }
func (o *HostPtrOutput) ArraySize() int            { return 1 }

func (o *HostPtrOutput) CreateResource(ctx context.Context, alloc graph.Allocator, agg graph.AllocRequest) ([]any, error) {
	if o.Alloc == nil {
		return make([]any, agg.Copies), nil
	}
	return o.Alloc(agg.Copies)
}

// PreProcess has nothing to barrier; host memory needs no pipeline
// dependency.
func (o *HostPtrOutput) PreProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	return 0, nil
}

// PostProcess marks the resource written and resets ConsumersRemaining
// to the baseline captured at allocation time: each producing iteration
// hands this copy to a fresh round of delay-0 consumers, so the count
// must start over rather than keep draining from a single allocation-
// time value.
func (o *HostPtrOutput) PostProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	r.MarkWritten()
	if r.ConsumersRemaining >= 0 {
		r.ConsumersRemaining = r.ConsumersPerIteration
	}
	return 0, nil
}

func (o *HostPtrOutput) DescriptorUpdate(ctx context.Context, r *graph.Resource, set graph.DescriptorSet) error {
	return nil
}

func (o *HostPtrOutput) ResourceView(r *graph.Resource) any { return r.Backing }

// release decrements r's consumer count and frees the payload once it
// reaches zero. A negative ConsumersRemaining marks a persistent,
// never-released output.
func (o *HostPtrOutput) release(r *graph.Resource) {
	if r.ConsumersRemaining < 0 {
		return
	}
	r.ConsumersRemaining--
	if r.ConsumersRemaining == 0 && o.Release != nil {
		o.Release(r.Backing)
	}
}

// HostPtrInput reads a host payload; its post-process is the one place
// this package mutates host-side lifetime.
type HostPtrInput struct {
	InputName   string
	DelayFrames int
	IsOptional  bool
	Producer    *HostPtrOutput // needed to release on this input's behalf
}

func (in *HostPtrInput) Name() string { return in.InputName }
func (in *HostPtrInput) Delay() int    { return in.DelayFrames }
func (in *HostPtrInput) Optional() bool { return in.IsOptional }
func (in *HostPtrInput) RequiredUsage() graph.UsageFlags         { return 0 }
func (in *HostPtrInput) RequiredAccess() graph.AccessFlags       { return 0 }
func (in *HostPtrInput) RequiredStage() graph.PipelineStageFlags { return 0 }
func (in *HostPtrInput) RequiredLayout() graph.ImageLayout       { return graph.LayoutUndefined }
func (in *HostPtrInput) AcceptsOutput(out graph.OutputConnector) bool {
	return out.Kind() == graph.KindHostPtr
}
func (in *HostPtrInput) DescriptorInfo() (graph.DescriptorBinding, bool) { return graph.DescriptorBinding{}, false }

func (in *HostPtrInput) PreProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	return 0, nil
}

func (in *HostPtrInput) PostProcess(ctx context.Context, r *graph.Resource, buf *graph.BarrierBuffer) (graph.ProcessFlags, error) {
	r.MarkRead()
	if in.Producer != nil {
		in.Producer.release(r)
	}
	return 0, nil
}

func (in *HostPtrInput) DescriptorUpdate(ctx context.Context, r *graph.Resource, set graph.DescriptorSet) error {
	return nil
}

func (in *HostPtrInput) ResourceView(r *graph.Resource) any { return r.Backing }

var _ graph.OutputConnector = (*HostPtrOutput)(nil)
var _ graph.InputConnector = (*HostPtrInput)(nil)
