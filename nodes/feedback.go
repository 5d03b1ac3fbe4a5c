// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nodes

import (
	"context"

	"github.com/cogentcore/rendergraph/graph"
	"github.com/cogentcore/rendergraph/graph/connectors"
)

// FeedbackAccumulator reads its own previous output via a delayed
// self-loop and writes a new one each iteration, exercising the delay-d
// feedback-edge machinery.
type FeedbackAccumulator struct {
	PrevName   string
	OutputName string
	Delay      int
	Fmt        graph.ImageFormat

	prev *connectors.ManagedImageInput
	out  *connectors.ManagedImageOutput

	// Iterations counts Process calls, for tests to assert on.
	Iterations int
}

func NewFeedbackAccumulator(prevName, outputName string, delay int, format graph.ImageFormat) *FeedbackAccumulator {
	if delay < 1 {
		delay = 1
	}
	return &FeedbackAccumulator{PrevName: prevName, OutputName: outputName, Delay: delay, Fmt: format}
}

func (f *FeedbackAccumulator) DescribeInputs() []graph.InputConnector {
	f.prev = &connectors.ManagedImageInput{
		InputName:   f.PrevName,
		DelayFrames: f.Delay,
		IsOptional:  true, // unconnected on the very first build
		Access:      1,
		Stage:       1,
		Layout:      graph.LayoutShaderReadOnly,
	}
	return []graph.InputConnector{f.prev}
}

func (f *FeedbackAccumulator) DescribeOutputs(layout graph.IOLayout) ([]graph.OutputConnector, error) {
	f.out = &connectors.ManagedImageOutput{
		OutputName:   f.OutputName,
		Access:       2,
		Stage:        2,
		Layout:       graph.LayoutColorAttachment,
		Img:          f.Fmt,
		IsPersistent: true,
	}
	return []graph.OutputConnector{f.out}, nil
}

func (f *FeedbackAccumulator) Process(ctx context.Context, run *graph.GraphRun, set graph.DescriptorSet, io graph.IO) (graph.ProcessFlags, error) {
	f.Iterations++
	return 0, nil
}

var _ graph.Node = (*FeedbackAccumulator)(nil)
