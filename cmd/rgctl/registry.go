// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/cogentcore/rendergraph/graph"
	"github.com/cogentcore/rendergraph/nodes"
)

// buildRegistry registers the node types rgctl can reconstruct from a
// persisted layout. Production node
// types are an external collaborator; rgctl only ships the
// reference nodes this module tests against.
func buildRegistry() *graph.Registry {
	reg := graph.NewRegistry()
	reg.Register("passthrough", func() graph.Node {
		return nodes.NewPassthrough("in", "out", graph.ImageFormat{Width: 4, Height: 4, PixelFormat: "R8G8B8A8_UNORM"})
	})
	reg.Register("feedback", func() graph.Node {
		return nodes.NewFeedbackAccumulator("prev", "out", 1, graph.ImageFormat{Width: 4, Height: 4, PixelFormat: "R8G8B8A8_UNORM"})
	})
	return reg
}
