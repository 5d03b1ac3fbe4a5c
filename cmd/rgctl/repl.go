// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ergochat/readline"
	"github.com/mattn/go-shellwords"
	"github.com/muesli/termenv"

	"github.com/cogentcore/rendergraph/graph"
	"github.com/cogentcore/rendergraph/internal/config"
)

// repl is the interactive driver-level tool: build a graph by hand
// (add-node, connect, remove), validate it, and drive test iterations
// against a fake allocator — the offline counterpart to an in-process
// graph-edit API a real application would expose through its own UI.
// cfg's InFlight/FPSLimit/TimeMode settings seed every driver this session
// builds; cfg.LayoutPath, if set, is loaded as the starting graph.
func repl(reg *graph.Registry, cfg config.Driver) {
	p := termenv.ColorProfile()
	rl, err := readline.New(termenv.String("rgctl> ").Foreground(p.Color("12")).String())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	defer rl.Close()

	g := graph.NewGraph(reg)
	if cfg.LayoutPath != "" {
		loaded, err := loadLayout(reg, cfg.LayoutPath)
		if err != nil {
			printErr(p, fmt.Errorf("load %s: %w", cfg.LayoutPath, err))
		} else {
			g = loaded
		}
	}
	var drv *graph.Driver
	ctx := context.Background()

	for {
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}

		args, err := shellwords.Parse(line)
		if err != nil || len(args) == 0 {
			continue
		}

		switch args[0] {
		case "add-node":
			if len(args) < 2 {
				fmt.Println("usage: add-node <type> [identifier]")
				continue
			}
			ident := ""
			if len(args) > 2 {
				ident = args[2]
			}
			id, err := g.AddNode(args[1], nil, ident)
			if err != nil {
				printErr(p, err)
				continue
			}
			fmt.Println(id)

		case "remove-node":
			if len(args) < 2 {
				fmt.Println("usage: remove-node <identifier>")
				continue
			}
			if !g.RemoveNode(args[1]) {
				printErr(p, fmt.Errorf("unknown node %q", args[1]))
			}

		case "connect":
			if len(args) < 5 {
				fmt.Println("usage: connect <src> <src-output> <dst> <dst-input>")
				continue
			}
			if err := g.AddConnection(args[1], args[3], args[2], args[4]); err != nil {
				printErr(p, err)
			}

		case "disconnect":
			if len(args) < 3 {
				fmt.Println("usage: disconnect <dst> <dst-input>")
				continue
			}
			if !g.RemoveConnection("", args[1], args[2]) {
				printErr(p, fmt.Errorf("no connection into %q.%s", args[1], args[2]))
			}

		case "validate":
			d, err := newFakeDriver(g, cfg.GraphConfig())
			if err != nil {
				printErr(p, err)
				continue
			}
			if err := d.Run(ctx); err != nil {
				printErr(p, err)
				continue
			}
			drv = d
			fmt.Println(termenv.String("ok").Foreground(p.Color("10")))

		case "run":
			n := 1
			if len(args) > 1 {
				fmt.Sscanf(args[1], "%d", &n)
			}
			if drv == nil {
				d, err := newFakeDriver(g, cfg.GraphConfig())
				if err != nil {
					printErr(p, err)
					continue
				}
				drv = d
			}
			start := time.Now()
			for i := 0; i < n; i++ {
				if err := drv.Run(ctx); err != nil {
					printErr(p, err)
					break
				}
			}
			fmt.Printf("ran %d iteration(s) in %s\n", n, time.Since(start))

		case "save":
			if len(args) < 2 {
				fmt.Println("usage: save <path>")
				continue
			}
			if err := saveLayout(g, args[1]); err != nil {
				printErr(p, err)
			}

		case "load":
			if len(args) < 2 {
				fmt.Println("usage: load <path>")
				continue
			}
			newG, err := loadLayout(reg, args[1])
			if err != nil {
				printErr(p, err)
				continue
			}
			g = newG
			drv = nil

		case "quit", "exit":
			return

		default:
			fmt.Printf("unknown command %q\n", args[0])
		}
	}
}

func printErr(p termenv.Profile, err error) {
	fmt.Fprintln(os.Stderr, termenv.String(err.Error()).Foreground(p.Color("9")))
}

func saveLayout(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return g.Save(f)
}

func loadLayout(reg *graph.Registry, path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return graph.Load(f, reg)
}
