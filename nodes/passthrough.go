// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nodes holds reference node implementations used only by this
// module's own tests to exercise the connectors and driver. Production
// node implementations are an external collaborator's concern; none of
// the types here are meant to be wired into a real rendering pipeline.
package nodes

import (
	"context"

	"github.com/cogentcore/rendergraph/graph"
	"github.com/cogentcore/rendergraph/graph/connectors"
)

// Passthrough copies its single input to its single output unchanged. It
// exists to exercise the topology, allocation, and barrier machinery with
// the simplest possible node.
type Passthrough struct {
	InputName  string
	OutputName string
	Fmt        graph.ImageFormat

	in  *connectors.ManagedImageInput
	out *connectors.ManagedImageOutput
}

func NewPassthrough(inputName, outputName string, format graph.ImageFormat) *Passthrough {
	return &Passthrough{InputName: inputName, OutputName: outputName, Fmt: format}
}

func (p *Passthrough) DescribeInputs() []graph.InputConnector {
	p.in = &connectors.ManagedImageInput{
		InputName: p.InputName,
		Access:    1,
		Stage:     1,
		Layout:    graph.LayoutShaderReadOnly,
	}
	return []graph.InputConnector{p.in}
}

func (p *Passthrough) DescribeOutputs(layout graph.IOLayout) ([]graph.OutputConnector, error) {
	p.out = &connectors.ManagedImageOutput{
		OutputName: p.OutputName,
		Access:     2,
		Stage:      2,
		Layout:     graph.LayoutColorAttachment,
		Img:        p.Fmt,
	}
	return []graph.OutputConnector{p.out}, nil
}

func (p *Passthrough) Process(ctx context.Context, run *graph.GraphRun, set graph.DescriptorSet, io graph.IO) (graph.ProcessFlags, error) {
	return 0, nil
}

var _ graph.Node = (*Passthrough)(nil)
