// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rgctl is a driver-level tool for exercising a render graph
// from the command line: load/save a persisted layout, edit topology,
// and drive test iterations against a fake allocator, surfacing
// graph.ExitCode's exit codes.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cogentcore/rendergraph/graph"
	"github.com/cogentcore/rendergraph/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("rgctl", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a TOML bootstrap configuration (defaults to an in-process default)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfg = loaded
	}
	graph.SetLogger(cfg.Logger())

	reg := buildRegistry()
	rest := fs.Args()

	if len(rest) > 0 && rest[0] == "validate" {
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "usage: rgctl [-config <path>] validate <layout.json>")
			return 1
		}
		return validateCommand(reg, rest[1], cfg.GraphConfig())
	}

	repl(reg, cfg)
	return graph.ExitCode(nil)
}
