// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/muesli/termenv"

	"github.com/cogentcore/rendergraph/graph"
)

// validateCommand loads the persisted layout at path, builds a driver
// over it with a fake allocator, and runs a single build (topology
// ordering, validation, allocation, resource-set precomputation) without
// ever submitting to a GPU. It reports the build's result through
// graph.ExitCode.
func validateCommand(reg *graph.Registry, path string, cfg graph.Config) int {
	p := termenv.ColorProfile()
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, termenv.String(err.Error()).Foreground(p.Color("9")))
		return 1
	}
	defer f.Close()

	g, err := graph.Load(f, reg)
	if err != nil {
		fmt.Fprintln(os.Stderr, termenv.String(err.Error()).Foreground(p.Color("9")))
		return graph.ExitCode(err)
	}

	drv, err := newFakeDriver(g, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx := context.Background()
	if err := drv.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, termenv.String(fmt.Sprintf("build failed: %v", err)).Foreground(p.Color("9")))
		return graph.ExitCode(err)
	}

	fmt.Println(termenv.String("graph is valid").Foreground(p.Color("10")))
	return 0
}
