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

// TestTextureArrayCreateResourceFillsDummy is "Array-texture
// connectors": every slot starts unset and resolves to the dummy texture
// until a node writes it.
func TestTextureArrayCreateResourceFillsDummy(t *testing.T) {
	out := &TextureArrayOutput{OutputName: "atlas", Count: 4, DummyTexture: "dummy"}
	backings, err := out.CreateResource(context.Background(), nil, graph.AllocRequest{Copies: 2})
	require.NoError(t, err)
	require.Len(t, backings, 2)

	for _, raw := range backings {
		b, ok := raw.(*textureArrayBacking)
		require.True(t, ok)
		require.Len(t, b.Slots, 4)
		for slot := range b.Slots {
			assert.Equal(t, "dummy", b.resolve(slot))
		}
	}
}

// TestTextureArraySetTracksChangedSlots verifies only slots written since
// the last DescriptorUpdate are reported as changed, and that
// DescriptorUpdate clears the tracking set.
func TestTextureArraySetTracksChangedSlots(t *testing.T) {
	b := newTextureArrayBacking(4, "dummy")
	b.Set(1, "texA")
	b.Set(3, "texB")

	assert.Equal(t, "texA", b.resolve(1))
	assert.Equal(t, "dummy", b.resolve(0))
	assert.Len(t, b.changedSlots, 2)

	out := &TextureArrayOutput{OutputName: "atlas", Count: 4, DummyTexture: "dummy"}
	r := &graph.Resource{Backing: b}

	flags, err := out.PostProcess(context.Background(), r, &graph.BarrierBuffer{})
	require.NoError(t, err)
	assert.True(t, flags.Has(graph.NeedsDescriptorUpdate))

	require.NoError(t, out.DescriptorUpdate(context.Background(), r, nil))
	assert.Len(t, b.changedSlots, 0, "DescriptorUpdate must clear the changed-slot set")
}

// TestTextureArrayPostProcessNoChangeSkipsDescriptorUpdate ensures a node
// that never calls Set doesn't request a redundant descriptor rewrite.
func TestTextureArrayPostProcessNoChangeSkipsDescriptorUpdate(t *testing.T) {
	b := newTextureArrayBacking(4, "dummy")
	out := &TextureArrayOutput{OutputName: "atlas", Count: 4, DummyTexture: "dummy"}
	r := &graph.Resource{Backing: b}

	flags, err := out.PostProcess(context.Background(), r, &graph.BarrierBuffer{})
	require.NoError(t, err)
	assert.False(t, flags.Has(graph.NeedsDescriptorUpdate))
}

// TestTextureArrayInputBarriersOnlyChangedSlots checks that a slot whose
// layout already matches this input's required layout is skipped on a
// later pre-process, while a freshly-written slot (whose layout was reset
// to undefined by Set) always gets a fresh barrier.
func TestTextureArrayInputBarriersOnlyChangedSlots(t *testing.T) {
	b := newTextureArrayBacking(3, "dummy")
	b.Set(0, "texA")
	r := &graph.Resource{Backing: b, LastUsedAsOutput: true}
	in := &TextureArrayInput{InputName: "atlas", Layout: graph.LayoutShaderReadOnly}
	var buf graph.BarrierBuffer

	flags, err := in.PreProcess(context.Background(), r, &buf)
	require.NoError(t, err)
	assert.Len(t, buf.Image, 3, "every slot starts at LayoutUndefined, so all three need a first transition")
	assert.True(t, flags.Has(graph.NeedsDescriptorUpdate))
	assert.False(t, r.LastUsedAsOutput)
	assert.Equal(t, graph.LayoutShaderReadOnly, r.Layout)

	buf.Reset()
	flags, err = in.PreProcess(context.Background(), r, &buf)
	require.NoError(t, err)
	assert.True(t, buf.Empty(), "no slot's layout changed since the last pre-process")
	assert.False(t, flags.Has(graph.NeedsDescriptorUpdate))

	buf.Reset()
	b.Set(1, "texB")
	flags, err = in.PreProcess(context.Background(), r, &buf)
	require.NoError(t, err)
	assert.Len(t, buf.Image, 1, "only the freshly-written slot needs a new barrier")
	assert.True(t, flags.Has(graph.NeedsDescriptorUpdate))
}

// TestTextureArrayInputDescriptorUpdateWritesOnlyPendingSlots checks that
// DescriptorUpdate rewrites only the slots marked pending since the last
// call, mirroring the output side's changedSlots behavior.
func TestTextureArrayInputDescriptorUpdateWritesOnlyPendingSlots(t *testing.T) {
	b := newTextureArrayBacking(3, "dummy")
	b.Set(0, "texA")
	r := &graph.Resource{Backing: b}
	in := &TextureArrayInput{InputName: "atlas", Layout: graph.LayoutShaderReadOnly}
	var buf graph.BarrierBuffer

	_, err := in.PreProcess(context.Background(), r, &buf)
	require.NoError(t, err)
	assert.Len(t, b.inputPending, 3)

	require.NoError(t, in.DescriptorUpdate(context.Background(), r, nil))
	assert.Len(t, b.inputPending, 0, "DescriptorUpdate must clear the pending set")

	buf.Reset()
	_, err = in.PreProcess(context.Background(), r, &buf)
	require.NoError(t, err)
	assert.True(t, buf.Empty())
	assert.Len(t, b.inputPending, 0, "nothing changed, so nothing is pending again")
}

func TestTextureArrayInputOnlyAcceptsTextureArrayOutputs(t *testing.T) {
	in := &TextureArrayInput{InputName: "atlas"}
	assert.True(t, in.AcceptsOutput(&TextureArrayOutput{OutputName: "a"}))
	assert.False(t, in.AcceptsOutput(&ManagedImageOutput{OutputName: "m"}))
}
