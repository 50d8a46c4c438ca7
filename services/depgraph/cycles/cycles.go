// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cycles reports include cycles in an include graph.
package cycles

import (
	"errors"
	"fmt"
	"sort"

	graphlib "github.com/dominikbraun/graph"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/graph"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

// Cycle is one group of files that include each other.
type Cycle struct {
	// Files are the cycle members, sorted by path.
	Files []node.FileIdentity

	// SelfInclude is true for a single file that includes itself.
	SelfInclude bool
}

// Find returns every include cycle in g.
//
// # Description
//
// Copies g into a hash-keyed directed graph and computes its strongly
// connected components. Components with more than one member are
// cycles. A single-member component is reported only when the file has
// an edge to itself. Parallel edges collapse to one.
//
// # Inputs
//
//   - g: Include graph.
//
// # Outputs
//
//   - []Cycle: Cycles sorted by their first member's path. Nil if none.
//   - error: Non-nil if the component computation fails.
func Find(g *graph.KeyedGraph[node.FileIdentity]) ([]Cycle, error) {
	lib := graphlib.New(node.FileIdentity.Key, graphlib.Directed())

	for _, id := range g.Nodes() {
		if err := lib.AddVertex(id); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("add vertex %s: %w", id.Path, err)
		}
	}

	selfLoops := make(map[string]bool)
	for _, e := range g.Edges() {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		if e.From == e.To {
			selfLoops[from.Key()] = true
		}
		if err := lib.AddEdge(from.Key(), to.Key()); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("add edge %s -> %s: %w", from.Path, to.Path, err)
		}
	}

	components, err := graphlib.StronglyConnectedComponents(lib)
	if err != nil {
		return nil, fmt.Errorf("strongly connected components: %w", err)
	}

	var cycles []Cycle
	for _, keys := range components {
		if len(keys) == 1 && !selfLoops[keys[0]] {
			continue
		}
		c := Cycle{SelfInclude: len(keys) == 1}
		for _, k := range keys {
			id, err := lib.Vertex(k)
			if err != nil {
				return nil, fmt.Errorf("vertex %s: %w", k, err)
			}
			c.Files = append(c.Files, id)
		}
		sort.Slice(c.Files, func(i, j int) bool {
			return c.Files[i].Path < c.Files[j].Path
		})
		cycles = append(cycles, c)
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Files[0].Path < cycles[j].Files[0].Path
	})
	return cycles, nil
}
