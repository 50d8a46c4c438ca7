// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

// DownstreamOf returns everything root transitively includes.
//
// # Description
//
// Breadth-first over outgoing edges. Each newly discovered successor
// contributes the edge (current, successor) to the result. The result is
// a new graph sharing no state with g and always contains root.
//
// # Inputs
//
//   - root: Handle in g.
//
// # Outputs
//
//   - *KeyedGraph[T]: The downstream subgraph.
//   - error: ErrInvalidHandle if root is not a handle of g.
func (g *KeyedGraph[T]) DownstreamOf(root NodeHandle) (*KeyedGraph[T], error) {
	if !g.valid(root) {
		return nil, ErrInvalidHandle
	}
	result := New[T]()
	g.traverse(result, root, directionDown)
	return result, nil
}

// UpstreamOf returns everything that transitively includes root.
//
// # Description
//
// Breadth-first over incoming edges. Each newly discovered predecessor
// contributes the edge (predecessor, current), so edge direction matches
// the source graph.
//
// # Inputs
//
//   - root: Handle in g.
//
// # Outputs
//
//   - *KeyedGraph[T]: The upstream subgraph.
//   - error: ErrInvalidHandle if root is not a handle of g.
func (g *KeyedGraph[T]) UpstreamOf(root NodeHandle) (*KeyedGraph[T], error) {
	if !g.valid(root) {
		return nil, ErrInvalidHandle
	}
	result := New[T]()
	g.traverse(result, root, directionUp)
	return result, nil
}

// NeighborhoodOf returns the union of DownstreamOf and UpstreamOf.
//
// Both traversals write into the same result graph. Nodes seen by both
// are deduplicated by the graph itself.
func (g *KeyedGraph[T]) NeighborhoodOf(root NodeHandle) (*KeyedGraph[T], error) {
	if !g.valid(root) {
		return nil, ErrInvalidHandle
	}
	result := New[T]()
	g.traverse(result, root, directionDown)
	g.traverse(result, root, directionUp)
	return result, nil
}

type direction int

const (
	directionDown direction = iota
	directionUp
)

// traverse runs one BFS from root into result.
//
// A node is marked visited when it is enqueued, so every reachable node
// is dequeued exactly once even when the graph has cycles.
func (g *KeyedGraph[T]) traverse(result *KeyedGraph[T], root NodeHandle, dir direction) {
	result.AddNode(g.nodes[root])

	visited := make([]bool, len(g.nodes))
	visited[root] = true
	queue := []NodeHandle{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbours := g.out[current]
		if dir == directionUp {
			neighbours = g.in[current]
		}

		for _, next := range neighbours {
			if visited[next] {
				continue
			}
			visited[next] = true

			if dir == directionDown {
				result.AddEdge(g.nodes[current], g.nodes[next])
			} else {
				result.AddEdge(g.nodes[next], g.nodes[current])
			}
			queue = append(queue, next)
		}
	}
}
