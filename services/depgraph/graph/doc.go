// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the keyed directed graph behind the include graph.
//
// # Overview
//
// KeyedGraph[T] stores nodes in an arena and keeps an identity index next
// to it, so each graph owns its own index and subgraphs never interfere
// with their parent.
//
// # Subgraphs
//
// Three breadth-first extractions build new, independent graphs:
//
//   - DownstreamOf: what a file transitively includes
//   - UpstreamOf: what transitively includes a file
//   - NeighborhoodOf: union of both
//
// # Example
//
//	g := graph.New[node.FileIdentity]()
//	g.AddEdge(a, b)
//	h, _ := g.Lookup(a)
//	down, err := g.DownstreamOf(h)
package graph
