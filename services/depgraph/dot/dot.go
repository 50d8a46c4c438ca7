// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dot serializes include graphs to Graphviz DOT.
//
// Output always starts with a fixed layout header. Graphviz produces
// unreadable drawings for graphs of a few hundred files without it.
// Nodes are written in handle order and edges in insertion order, so a
// deterministic build yields byte-identical output.
package dot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/graph"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

// Header is the layout preamble written after "digraph {".
var Header = []string{
	`overlap=scale;`,
	`size="80,100";`,
	`ratio="compress";`,
	`fontsize="16";`,
	`fontname="Helvetica";`,
	`clusterrank="local";`,
}

// MissingLabel is shown for nodes whose identity yields no file name.
const MissingLabel = "[error getting filename]"

const indent = "    "

// ErrWriteOutput wraps failures creating or writing the output file.
var ErrWriteOutput = errors.New("write dot output")

// LabelFunc returns the display label of a node.
type LabelFunc[T comparable] func(T) string

// BaseNameLabel labels a file node with its base name.
func BaseNameLabel(id node.FileIdentity) string {
	return id.BaseName()
}

// RelativeLabel labels a file node with its path relative to root.
func RelativeLabel(root string) LabelFunc[node.FileIdentity] {
	return func(id node.FileIdentity) string {
		return id.RelativeTo(root)
	}
}

// Encode writes g to w in DOT format.
//
// # Description
//
// Emits "digraph {", the Header lines, one "N [label=...]" statement per
// node and one "A -> B" statement per edge. Labels are quoted with Go
// string quoting, which DOT accepts for the escapes it produces. An
// empty label is replaced by MissingLabel.
//
// # Inputs
//
//   - w: Destination. Buffered internally.
//   - g: Graph to serialize.
//   - label: Display name per node.
//
// # Outputs
//
//   - error: The first write error, if any.
func Encode[T comparable](w io.Writer, g *graph.KeyedGraph[T], label LabelFunc[T]) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("digraph {\n")
	for _, line := range Header {
		bw.WriteString(indent)
		bw.WriteString(line)
		bw.WriteByte('\n')
	}

	for i, id := range g.Nodes() {
		name := label(id)
		if name == "" {
			name = MissingLabel
		}
		fmt.Fprintf(bw, "%s%d [label=%s]\n", indent, i, strconv.Quote(name))
	}

	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "%s%d -> %d\n", indent, e.From, e.To)
	}

	bw.WriteString("}\n")
	return bw.Flush()
}

// Serialize returns g as DOT text.
func Serialize[T comparable](g *graph.KeyedGraph[T], label LabelFunc[T]) string {
	var sb strings.Builder
	// strings.Builder never returns a write error.
	_ = Encode(&sb, g, label)
	return sb.String()
}

// WriteFile writes g as DOT to path, replacing any existing file.
//
// # Outputs
//
//   - error: Wraps ErrWriteOutput on any create, write or close failure.
func WriteFile[T comparable](path string, g *graph.KeyedGraph[T], label LabelFunc[T]) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if err := Encode(f, g, label); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	return nil
}
