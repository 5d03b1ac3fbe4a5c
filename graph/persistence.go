// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
)

// SchemaVersion is the current persisted-layout schema version.
// Bumping the major component means Load rejects
// older files outright; minor/patch bumps stay load-compatible.
const SchemaVersion = "1.1.0"

// schemaConstraint accepts any file whose schema_version satisfies the
// same major version as SchemaVersion.
var schemaConstraint = mustConstraint(fmt.Sprintf("^%d", semver.MustParse(SchemaVersion).Major()))

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// NodeLayout is one node's persisted identity: its registry type name,
// its saved identifier, and whether it was disabled at save time.
type NodeLayout struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
	Disabled   bool   `json:"disabled,omitempty"`
}

// ConnectionLayout is one persisted desired edge.
type ConnectionLayout struct {
	SrcNode   string `json:"src_node"`
	SrcOutput string `json:"src_output"`
	DstNode   string `json:"dst_node"`
	DstInput  string `json:"dst_input"`
}

// Layout is the portable on-disk representation of a graph's topology,
// independent of any running process. It names nodes and edges but
// carries no resource or allocation state.
type Layout struct {
	SchemaVersion string             `json:"schema_version"`
	Nodes         []NodeLayout       `json:"nodes"`
	Connections   []ConnectionLayout `json:"connections"`
}

// Layout builds the portable node/edge snapshot of g's current topology,
// independent of any running build. Save and the driver's rebuild
// diagnostics both start from this.
func (g *Graph) Layout() Layout {
	layout := Layout{SchemaVersion: SchemaVersion}
	for _, key := range g.nodes.Keys() {
		rec, _ := g.nodes.ValueByKeyTry(key)
		layout.Nodes = append(layout.Nodes, NodeLayout{
			Type:       g.typeNames[rec.id],
			Identifier: rec.identifier,
			Disabled:   rec.disabled,
		})
	}
	for _, k := range g.edges.Keys() {
		e, _ := g.edges.ValueByKeyTry(k)
		layout.Connections = append(layout.Connections, ConnectionLayout{
			SrcNode:   g.byID[e.SrcNode].identifier,
			SrcOutput: e.SrcOutput,
			DstNode:   g.byID[e.DstNode].identifier,
			DstInput:  e.DstInput,
		})
	}
	return layout
}

// Save serializes g's current node/edge set as JSON to w.
func (g *Graph) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g.Layout())
}

// Load builds a new graph from the layout read from r, resolving node types through reg. A schema_version whose major
// component doesn't match the running SchemaVersion is rejected rather
// than guessed at. A connection that fails to bind (unknown node,
// incompatible connector) is skipped with a warning rather than aborting
// the whole load; a missing node is still a load-time decision the caller
// should see logged, not a silent drop.
func Load(r io.Reader, reg *Registry) (*Graph, error) {
	var layout Layout
	if err := json.NewDecoder(r).Decode(&layout); err != nil {
		return nil, fmt.Errorf("graph: decode layout: %w", err)
	}
	v, err := semver.NewVersion(layout.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("graph: invalid schema_version %q: %w", layout.SchemaVersion, err)
	}
	if !schemaConstraint.Check(v) {
		return nil, fmt.Errorf("graph: layout schema_version %s is incompatible with this build's %s", v, SchemaVersion)
	}

	g := NewGraph(reg)
	for _, n := range layout.Nodes {
		identifier, err := g.AddNode(n.Type, nil, n.Identifier)
		if err != nil {
			return nil, fmt.Errorf("graph: load node %q: %w", n.Identifier, err)
		}
		if n.Disabled {
			rec, _ := g.nodes.ValueByKeyTry(identifier)
			rec.disabled = true
		}
	}
	for _, c := range layout.Connections {
		if err := g.AddConnection(c.SrcNode, c.DstNode, c.SrcOutput, c.DstInput); err != nil {
			Logger().Warn("graph: skipping unknown connection on load",
				"src_node", c.SrcNode, "src_output", c.SrcOutput,
				"dst_node", c.DstNode, "dst_input", c.DstInput,
				"error", err)
			continue
		}
	}
	return g, nil
}
