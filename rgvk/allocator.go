// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rgvk

import (
	"context"

	"github.com/cogentcore/rendergraph/graph"
)

// Allocator implements graph.Allocator by creating one dedicated vk.Image
// (or host slice, for KindHostPtr) per requested copy. It honors the
// Allocator contract — AllocateAliased may be called with overlapping
// memory in mind, AllocatePersistent never aliases — but this reference
// implementation allocates distinct device memory for every request
// rather than performing real offset-based aliasing; it has no
// sub-allocator and never reuses freed ranges by liveness.
type Allocator struct {
	gp  *GPU
	dev *Device
}

func NewAllocator(gp *GPU, dev *Device) *Allocator {
	return &Allocator{gp: gp, dev: dev}
}

func (a *Allocator) AllocateAliased(ctx context.Context, req graph.AllocRequest) ([]any, error) {
	return a.allocate(req)
}

func (a *Allocator) AllocatePersistent(ctx context.Context, req graph.AllocRequest) ([]any, error) {
	return a.allocate(req)
}

func (a *Allocator) allocate(req graph.AllocRequest) ([]any, error) {
	if req.Kind == graph.KindHostPtr {
		out := make([]any, req.Copies)
		for i := range out {
			out[i] = make([]byte, 0)
		}
		return out, nil
	}

	layers := 1
	if req.Kind == graph.KindTextureArray {
		layers = maxInt(req.ArraySize, 1)
	}

	out := make([]any, req.Copies)
	for i := 0; i < req.Copies; i++ {
		img, err := NewImage(a.gp, a.dev.Device, req, layers)
		if err != nil {
			for j := 0; j < i; j++ {
				out[j].(*Image).Destroy()
			}
			return nil, err
		}
		out[i] = img
	}
	return out, nil
}

// Free destroys every Image handle in backing (KindHostPtr backings are
// left to Go's garbage collector).
func (a *Allocator) Free(ctx context.Context, backing []any) error {
	for _, b := range backing {
		if img, ok := b.(*Image); ok {
			img.Destroy()
		}
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var _ graph.Allocator = (*Allocator)(nil)
