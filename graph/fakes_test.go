// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import "context"

// Minimal Connector/Node fakes for unit tests of topology, allocation,
// and resource-set precomputation: exercising those unexported
// procedures directly needs no real barrier or descriptor behavior, just
// connectors that report the right constraints.

type fakeInput struct {
	name     string
	delay    int
	optional bool
	usage    UsageFlags
	access   AccessFlags
	stage    PipelineStageFlags
	layout   ImageLayout
	accepts  func(OutputConnector) bool
}

func (f *fakeInput) Name() string                                     { return f.name }
func (f *fakeInput) DescriptorInfo() (DescriptorBinding, bool)        { return DescriptorBinding{}, false }
func (f *fakeInput) PreProcess(context.Context, *Resource, *BarrierBuffer) (ProcessFlags, error) {
	return 0, nil
}
func (f *fakeInput) PostProcess(context.Context, *Resource, *BarrierBuffer) (ProcessFlags, error) {
	return 0, nil
}
func (f *fakeInput) DescriptorUpdate(context.Context, *Resource, DescriptorSet) error { return nil }
func (f *fakeInput) ResourceView(r *Resource) any                                    { return r.Backing }
func (f *fakeInput) Delay() int                                                       { return f.delay }
func (f *fakeInput) Optional() bool                                                   { return f.optional }
func (f *fakeInput) RequiredUsage() UsageFlags                                        { return f.usage }
func (f *fakeInput) RequiredAccess() AccessFlags                                      { return f.access }
func (f *fakeInput) RequiredStage() PipelineStageFlags                                { return f.stage }
func (f *fakeInput) RequiredLayout() ImageLayout                                      { return f.layout }
func (f *fakeInput) AcceptsOutput(out OutputConnector) bool {
	if f.accepts != nil {
		return f.accepts(out)
	}
	return true
}

type fakeOutput struct {
	name       string
	kind       ResourceKind
	persistent bool
	usage      UsageFlags
	access     AccessFlags
	stage      PipelineStageFlags
	format     ImageFormat
	arraySize  int
	createErr  error
}

func (f *fakeOutput) Name() string                              { return f.name }
func (f *fakeOutput) DescriptorInfo() (DescriptorBinding, bool) { return DescriptorBinding{}, false }
func (f *fakeOutput) PreProcess(context.Context, *Resource, *BarrierBuffer) (ProcessFlags, error) {
	return 0, nil
}
func (f *fakeOutput) PostProcess(context.Context, *Resource, *BarrierBuffer) (ProcessFlags, error) {
	return 0, nil
}
func (f *fakeOutput) DescriptorUpdate(context.Context, *Resource, DescriptorSet) error { return nil }
func (f *fakeOutput) ResourceView(r *Resource) any                                     { return r.Backing }
func (f *fakeOutput) Kind() ResourceKind                                               { return f.kind }
func (f *fakeOutput) Persistent() bool                                                 { return f.persistent }
func (f *fakeOutput) DeclaredUsage() UsageFlags                                        { return f.usage }
func (f *fakeOutput) ProducedAccess() AccessFlags                                      { return f.access }
func (f *fakeOutput) ProducedStage() PipelineStageFlags                                { return f.stage }
func (f *fakeOutput) Format() ImageFormat                                              { return f.format }
func (f *fakeOutput) ArraySize() int {
	if f.arraySize == 0 {
		return 1
	}
	return f.arraySize
}

func (f *fakeOutput) CreateResource(ctx context.Context, alloc Allocator, agg AllocRequest) ([]any, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := make([]any, agg.Copies)
	for i := range out {
		out[i] = struct{}{}
	}
	return out, nil
}

// fakeNode is a Node whose inputs/outputs are set directly by the test,
// bypassing any connector package.
type fakeNode struct {
	inputs      []InputConnector
	outputs     []OutputConnector
	describeErr error
}

func (n *fakeNode) DescribeInputs() []InputConnector { return n.inputs }
func (n *fakeNode) DescribeOutputs(IOLayout) ([]OutputConnector, error) {
	if n.describeErr != nil {
		return nil, n.describeErr
	}
	return n.outputs, nil
}
func (n *fakeNode) Process(context.Context, *GraphRun, DescriptorSet, IO) (ProcessFlags, error) {
	return 0, nil
}

// fakeAllocator allocates placeholder handles without touching any real
// memory, for tests that exercise allocation counts rather than content.
type fakeAllocator struct{ calls int }

func (a *fakeAllocator) AllocateAliased(ctx context.Context, req AllocRequest) ([]any, error) {
	return a.allocate(req)
}
func (a *fakeAllocator) AllocatePersistent(ctx context.Context, req AllocRequest) ([]any, error) {
	return a.allocate(req)
}
func (a *fakeAllocator) allocate(req AllocRequest) ([]any, error) {
	a.calls++
	out := make([]any, req.Copies)
	for i := range out {
		out[i] = i
	}
	return out, nil
}
func (a *fakeAllocator) Free(ctx context.Context, backing []any) error { return nil }

var (
	_ InputConnector  = (*fakeInput)(nil)
	_ OutputConnector = (*fakeOutput)(nil)
	_ Node            = (*fakeNode)(nil)
	_ Allocator       = (*fakeAllocator)(nil)
)
