// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentcore/rendergraph/graph"
)

// TestManagedImageInputBranchWrittenThenRead exercises the "last used as
// output" branch of the canonical barrier policy: a resource just written
// by its producer gets a full stage/access/layout transition into the
// input's required state, and flips LastUsedAsOutput to false.
func TestManagedImageInputBranchWrittenThenRead(t *testing.T) {
	r := &graph.Resource{
		ID:               1,
		CurrentStage:     2,
		CurrentAccess:    4,
		Layout:           graph.LayoutColorAttachment,
		LastUsedAsOutput: true,
		InputStage:       8,
		InputAccess:      16,
	}
	in := &ManagedImageInput{InputName: "in", Access: 16, Stage: 8, Layout: graph.LayoutShaderReadOnly}
	var buf graph.BarrierBuffer

	_, err := in.PreProcess(context.Background(), r, &buf)
	require.NoError(t, err)

	require.Len(t, buf.Image, 1)
	assert.Equal(t, graph.LayoutColorAttachment, buf.Image[0].OldLayout)
	assert.Equal(t, graph.LayoutShaderReadOnly, buf.Image[0].NewLayout)
	assert.False(t, r.LastUsedAsOutput)
	assert.Equal(t, graph.LayoutShaderReadOnly, r.Layout)
	assert.Equal(t, graph.PipelineStageFlags(8), r.CurrentStage)
	assert.Equal(t, graph.AccessFlags(16), r.CurrentAccess)
}

// TestManagedImageInputBranchLayoutMismatch covers the second branch: not
// last-written, but the resource's current layout disagrees with what this
// input needs, so only a layout transition is emitted (stage/access stay
// put since no producer just wrote it).
func TestManagedImageInputBranchLayoutMismatch(t *testing.T) {
	r := &graph.Resource{
		ID:               2,
		CurrentStage:     8,
		CurrentAccess:    16,
		Layout:           graph.LayoutTransferSrc,
		LastUsedAsOutput: false,
	}
	in := &ManagedImageInput{InputName: "in", Layout: graph.LayoutShaderReadOnly}
	var buf graph.BarrierBuffer

	_, err := in.PreProcess(context.Background(), r, &buf)
	require.NoError(t, err)

	require.Len(t, buf.Image, 1)
	assert.Equal(t, graph.LayoutTransferSrc, buf.Image[0].OldLayout)
	assert.Equal(t, graph.LayoutShaderReadOnly, buf.Image[0].NewLayout)
	assert.Equal(t, buf.Image[0].SrcStage, buf.Image[0].DstStage, "stage must not change on a layout-only transition")
	assert.Equal(t, graph.LayoutShaderReadOnly, r.Layout)
}

// TestManagedImageInputBranchNoOp covers the third branch: neither
// condition holds, so no barrier is emitted at all.
func TestManagedImageInputBranchNoOp(t *testing.T) {
	r := &graph.Resource{
		ID:               3,
		Layout:           graph.LayoutShaderReadOnly,
		LastUsedAsOutput: false,
	}
	in := &ManagedImageInput{InputName: "in", Layout: graph.LayoutShaderReadOnly}
	var buf graph.BarrierBuffer

	_, err := in.PreProcess(context.Background(), r, &buf)
	require.NoError(t, err)
	assert.True(t, buf.Empty())
}

// TestManagedImageOutputPreProcessDiscardsTransient checks a transient
// (non-persistent) output's pre-process legally discards prior contents
// (FromUndefined) while a persistent one does not.
func TestManagedImageOutputPreProcessDiscardsTransient(t *testing.T) {
	out := &ManagedImageOutput{OutputName: "out", Access: 1, Stage: 1, Layout: graph.LayoutColorAttachment}
	var buf graph.BarrierBuffer

	transient := &graph.Resource{ID: 1, Persistent: false}
	_, err := out.PreProcess(context.Background(), transient, &buf)
	require.NoError(t, err)
	require.Len(t, buf.Image, 1)
	assert.True(t, buf.Image[0].FromUndefined)

	buf.Reset()
	persistent := &graph.Resource{ID: 2, Persistent: true}
	_, err = out.PreProcess(context.Background(), persistent, &buf)
	require.NoError(t, err)
	require.Len(t, buf.Image, 1)
	assert.False(t, buf.Image[0].FromUndefined)
}

// TestManagedImageOutputPreProcessUsesConfiguredLayout checks that the
// transition target is the output's own configured Layout, not a
// hardcoded constant — a storage-image or transfer-destination output
// must not be barriered into LayoutColorAttachment.
func TestManagedImageOutputPreProcessUsesConfiguredLayout(t *testing.T) {
	out := &ManagedImageOutput{OutputName: "out", Access: 1, Stage: 1, Layout: graph.LayoutGeneral}
	var buf graph.BarrierBuffer

	r := &graph.Resource{ID: 1, Persistent: true, Layout: graph.LayoutShaderReadOnly}
	_, err := out.PreProcess(context.Background(), r, &buf)
	require.NoError(t, err)
	require.Len(t, buf.Image, 1)
	assert.Equal(t, graph.LayoutGeneral, buf.Image[0].NewLayout)
	assert.Equal(t, graph.LayoutGeneral, r.Layout)
}

// TestManagedImageOutputPostProcessMarksWritten checks that a post-process
// marks the resource as just-written.
func TestManagedImageOutputPostProcessMarksWritten(t *testing.T) {
	out := &ManagedImageOutput{OutputName: "out"}
	r := &graph.Resource{LastUsedAsOutput: false}
	_, err := out.PostProcess(context.Background(), r, &graph.BarrierBuffer{})
	require.NoError(t, err)
	assert.True(t, r.LastUsedAsOutput)
}

func TestManagedImageInputRejectsHostPtrOutput(t *testing.T) {
	in := &ManagedImageInput{InputName: "in"}
	assert.False(t, in.AcceptsOutput(&HostPtrOutput{OutputName: "h"}))
	assert.True(t, in.AcceptsOutput(&ManagedImageOutput{OutputName: "m"}))
}
