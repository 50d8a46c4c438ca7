// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/graph"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

func sampleGraph() *graph.KeyedGraph[node.FileIdentity] {
	g := graph.New[node.FileIdentity]()
	g.AddEdge(node.Source("/p/a.cpp"), node.Source("/p/b.h"))
	g.AddEdge(node.Source("/p/a.cpp"), node.FileIdentity{Path: "vector", IsSystem: true})
	return g
}

func TestSerialize_FullOutput(t *testing.T) {
	got := Serialize(sampleGraph(), BaseNameLabel)

	want := `digraph {
    overlap=scale;
    size="80,100";
    ratio="compress";
    fontsize="16";
    fontname="Helvetica";
    clusterrank="local";
    0 [label="a.cpp"]
    1 [label="b.h"]
    2 [label="vector"]
    0 -> 1
    0 -> 2
}
`
	if got != want {
		t.Errorf("Serialize() mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSerialize_EmptyGraphKeepsHeader(t *testing.T) {
	got := Serialize(graph.New[node.FileIdentity](), BaseNameLabel)

	if !strings.HasPrefix(got, "digraph {\n    overlap=scale;\n") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.HasSuffix(got, "clusterrank=\"local\";\n}\n") {
		t.Errorf("unexpected tail: %q", got)
	}
}

func TestSerialize_MissingLabel(t *testing.T) {
	g := graph.New[node.FileIdentity]()
	g.AddNode(node.FileIdentity{Path: "/"})

	got := Serialize(g, BaseNameLabel)
	if !strings.Contains(got, `0 [label="[error getting filename]"]`) {
		t.Errorf("placeholder label not emitted:\n%s", got)
	}
}

func TestSerialize_QuotesLabels(t *testing.T) {
	g := graph.New[node.FileIdentity]()
	g.AddNode(node.Source(`/p/we"ird.h`))

	got := Serialize(g, BaseNameLabel)
	if !strings.Contains(got, `0 [label="we\"ird.h"]`) {
		t.Errorf("label not escaped:\n%s", got)
	}
}

func TestSerialize_ParallelEdges(t *testing.T) {
	g := graph.New[string]()
	g.AddEdge("x", "y")
	g.AddEdge("x", "y")

	got := Serialize(g, func(s string) string { return s })
	if n := strings.Count(got, "0 -> 1\n"); n != 2 {
		t.Errorf("edge lines = %d, want 2", n)
	}
}

func TestRelativeLabel(t *testing.T) {
	label := RelativeLabel("/p")
	if got := label(node.Source("/p/src/a.cpp")); got != filepath.Join("src", "a.cpp") {
		t.Errorf("RelativeLabel() = %q", got)
	}
	if got := label(node.FileIdentity{Path: "vector", IsSystem: true}); got != "vector" {
		t.Errorf("RelativeLabel(placeholder) = %q, want %q", got, "vector")
	}
}

func TestWriteFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "graph.dot")
	if err := WriteFile(out, sampleGraph(), BaseNameLabel); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != Serialize(sampleGraph(), BaseNameLabel) {
		t.Error("file contents differ from Serialize()")
	}
}

func TestWriteFile_Failure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "no", "such", "dir", "graph.dot")
	err := WriteFile(out, sampleGraph(), BaseNameLabel)
	if !errors.Is(err, ErrWriteOutput) {
		t.Errorf("WriteFile() error = %v, want ErrWriteOutput", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("WriteFile() error = %v, want wrapped os.ErrNotExist", err)
	}
}
