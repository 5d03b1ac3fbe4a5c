// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CPUSyncQueue is an optional worker pool a driver may use to invoke
// CPU-sync callbacks. It fans a batch of independent host-side callbacks
// (e.g. decoding the next frame of input while the GPU runs) out across a
// bounded number of goroutines and waits for all of them before
// returning, so the driver's home thread never shares mutable graph state
// with them concurrently.
type CPUSyncQueue struct {
	limit int
}

// NewCPUSyncQueue returns a queue that runs at most limit callbacks
// concurrently. limit <= 0 means unbounded.
func NewCPUSyncQueue(limit int) *CPUSyncQueue {
	return &CPUSyncQueue{limit: limit}
}

// Run executes every callback, returning the first error encountered (if
// any); the others still run to completion.
func (q *CPUSyncQueue) Run(ctx context.Context, callbacks ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if q.limit > 0 {
		g.SetLimit(q.limit)
	}
	for _, cb := range callbacks {
		cb := cb
		g.Go(func() error { return cb(gctx) })
	}
	return g.Wait()
}
