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

// NodeHandle is the position of a node in a KeyedGraph arena.
//
// Handles are assigned in insertion order starting at 0. They are only
// meaningful for the graph that issued them.
type NodeHandle int

// Edge is a directed edge between two handles of the same graph.
type Edge struct {
	From NodeHandle
	To   NodeHandle
}

// KeyedGraph is a directed multigraph keyed by a comparable identity.
//
// # Description
//
// Nodes are stored in an arena slice and indexed by identity. The index
// is the only authority on whether a node exists, and it is kept in 1:1
// correspondence with the arena after every mutation. Duplicate edges
// between the same pair accumulate; duplicate nodes never exist.
//
// # Thread Safety
//
// KeyedGraph is NOT safe for concurrent mutation. Concurrent readers are
// safe once mutation has stopped.
type KeyedGraph[T comparable] struct {
	nodes []T
	index map[T]NodeHandle
	edges []Edge

	// out[h] and in[h] hold neighbour handles, one entry per edge.
	out [][]NodeHandle
	in  [][]NodeHandle
}

// New creates an empty KeyedGraph.
func New[T comparable]() *KeyedGraph[T] {
	return &KeyedGraph[T]{
		index: make(map[T]NodeHandle),
	}
}

// AddNode returns the handle for id, creating the node if needed.
//
// # Description
//
// Idempotent: calling AddNode twice with equal identities returns the
// same handle and leaves NodeCount unchanged.
//
// # Inputs
//
//   - id: Node identity.
//
// # Outputs
//
//   - NodeHandle: Existing or newly created handle.
func (g *KeyedGraph[T]) AddNode(id T) NodeHandle {
	if h, ok := g.index[id]; ok {
		return h
	}
	h := NodeHandle(len(g.nodes))
	g.nodes = append(g.nodes, id)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.index[id] = h
	return h
}

// AddEdge adds the directed edge src -> dst.
//
// # Description
//
// Looks up or creates both endpoints, then appends the edge. Adding the
// same pair again records a second, parallel edge.
//
// # Inputs
//
//   - src: Identity of the including side.
//   - dst: Identity of the included side.
func (g *KeyedGraph[T]) AddEdge(src, dst T) {
	from := g.AddNode(src)
	to := g.AddNode(dst)
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
}

// ContainsNode reports whether a node with identity id exists.
func (g *KeyedGraph[T]) ContainsNode(id T) bool {
	_, ok := g.index[id]
	return ok
}

// Lookup returns the handle for id.
func (g *KeyedGraph[T]) Lookup(id T) (NodeHandle, bool) {
	h, ok := g.index[id]
	return h, ok
}

// Node returns the identity stored at h.
func (g *KeyedGraph[T]) Node(h NodeHandle) (T, bool) {
	if !g.valid(h) {
		var zero T
		return zero, false
	}
	return g.nodes[h], true
}

// Find returns the handles of every node matching pred.
//
// # Description
//
// Linear scan in handle order. May return zero, one or many handles;
// callers that need a single node must handle the other cases.
//
// # Inputs
//
//   - pred: Match predicate over identities.
//
// # Outputs
//
//   - []NodeHandle: Matching handles, nil if none.
func (g *KeyedGraph[T]) Find(pred func(T) bool) []NodeHandle {
	var matches []NodeHandle
	for i, id := range g.nodes {
		if pred(id) {
			matches = append(matches, NodeHandle(i))
		}
	}
	return matches
}

// NodeCount returns the number of distinct nodes.
func (g *KeyedGraph[T]) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges, parallel edges included.
func (g *KeyedGraph[T]) EdgeCount() int {
	return len(g.edges)
}

// Nodes returns a copy of all identities in handle order.
func (g *KeyedGraph[T]) Nodes() []T {
	return append([]T(nil), g.nodes...)
}

// Edges returns a copy of all edges in insertion order.
func (g *KeyedGraph[T]) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Successors returns the targets of h's outgoing edges, one per edge.
func (g *KeyedGraph[T]) Successors(h NodeHandle) []NodeHandle {
	if !g.valid(h) {
		return nil
	}
	return append([]NodeHandle(nil), g.out[h]...)
}

// Predecessors returns the sources of h's incoming edges, one per edge.
func (g *KeyedGraph[T]) Predecessors(h NodeHandle) []NodeHandle {
	if !g.valid(h) {
		return nil
	}
	return append([]NodeHandle(nil), g.in[h]...)
}

func (g *KeyedGraph[T]) valid(h NodeHandle) bool {
	return h >= 0 && int(h) < len(g.nodes)
}
