// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/extract"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

// writeTree creates files under root from a name -> contents map.
func writeTree(t *testing.T, root string, files map[string]string) []string {
	t.Helper()
	var out []string
	for name, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
		out = append(out, path)
	}
	return out
}

func TestBuild_SimpleTree(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{
		"a.cpp": "#include \"b.h\"\n",
		"b.h":   "// header\n",
	})

	result, err := NewBuilder().Build(context.Background(), files)
	require.NoError(t, err)

	g := result.Graph
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	assert.Empty(t, result.FileErrors)
	assert.Empty(t, result.Unresolved)

	a, ok := g.Lookup(node.Source(filepath.Join(root, "a.cpp")))
	require.True(t, ok)
	b, ok := g.Lookup(node.Source(filepath.Join(root, "b.h")))
	require.True(t, ok)
	assert.Equal(t, []int{int(b)}, handles(g.Successors(a)))
}

func TestBuild_UnresolvedInclude(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{
		"a.cpp": "#include \"missing.h\"\n",
	})

	rep := &CollectingReporter{}
	result, err := NewBuilder(WithReporter(rep)).Build(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Graph.NodeCount())
	assert.Equal(t, 1, result.Graph.EdgeCount())
	assert.True(t, result.Graph.ContainsNode(node.FileIdentity{Path: "missing.h"}))

	require.Len(t, result.Unresolved, 1)
	assert.Equal(t, filepath.Join(root, "a.cpp"), result.Unresolved[0].File)
	assert.Equal(t, "missing.h", result.Unresolved[0].Reference.SpelledPath)
	assert.Equal(t, result.Unresolved, rep.UnresolvedIncludes())
	assert.True(t, result.HasErrors())
	assert.Equal(t, 1, result.TotalErrors())
}

func TestBuild_PlaceholderIsSeparatorNormalized(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{
		"a.cpp": "#include \"gone\\x.h\"\n#include \"gone/x.h\"\n",
	})

	result, err := NewBuilder().Build(context.Background(), files)
	require.NoError(t, err)

	want := node.FileIdentity{Path: filepath.Join("gone", "x.h")}
	assert.True(t, result.Graph.ContainsNode(want))
	assert.Equal(t, 2, result.Graph.NodeCount(), "both spellings share one placeholder")
	assert.Equal(t, 2, result.Graph.EdgeCount())
}

func TestBuild_PolicyFiltering(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{
		"a.cpp": "#include <vector>\n",
	})

	b := NewBuilder(WithIncludePolicy(IncludePolicy{User: true, System: false}))
	result, err := b.Build(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Graph.NodeCount())
	assert.Equal(t, 0, result.Graph.EdgeCount())
	assert.Equal(t, 1, result.Stats.IncludesFiltered)
	assert.Empty(t, result.Unresolved)
}

func TestBuild_SystemIncludeKeepsClassification(t *testing.T) {
	root := t.TempDir()
	sysDir := filepath.Join(root, "sys")
	files := writeTree(t, root, map[string]string{
		"src/a.cpp": "#include <lib.h>\n",
		"sys/lib.h": "",
	})
	// Only the source file is a candidate; lib.h is found through the search path.
	var candidates []string
	for _, f := range files {
		if filepath.Base(f) == "a.cpp" {
			candidates = append(candidates, f)
		}
	}

	result, err := NewBuilder(WithSearchPaths([]string{sysDir})).Build(context.Background(), candidates)
	require.NoError(t, err)

	want := node.FileIdentity{Path: filepath.Join(sysDir, "lib.h"), IsSystem: true}
	assert.True(t, result.Graph.ContainsNode(want))
	assert.Equal(t, 1, result.Stats.IncludesResolved)
}

func TestBuild_ExcludeFilter(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{
		"a.cpp":       "#include \"test_util.h\"\n#include \"b.h\"\n",
		"b.h":         "",
		"test_util.h": "",
	})
	// The walker would normally drop test_util.h itself; keep it out here too.
	var candidates []string
	for _, f := range files {
		if filepath.Base(f) != "test_util.h" {
			candidates = append(candidates, f)
		}
	}

	re := regexp.MustCompile(`test_`)
	result, err := NewBuilder(WithExcludeFilter(re.MatchString)).Build(context.Background(), candidates)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Graph.NodeCount())
	assert.Equal(t, 1, result.Graph.EdgeCount())
	assert.Equal(t, 1, result.Stats.IncludesExcluded)
}

func TestBuild_FileReadFailureSkipsFile(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{
		"a.cpp": "#include \"b.h\"\n",
		"b.h":   "",
	})
	gone := filepath.Join(root, "vanished.cpp")
	files = append(files, gone)

	rep := &CollectingReporter{}
	result, err := NewBuilder(WithReporter(rep)).Build(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, result.FileErrors, 1)
	assert.Equal(t, gone, result.FileErrors[0].FilePath)
	assert.True(t, errors.Is(result.FileErrors[0], os.ErrNotExist))
	assert.False(t, result.Graph.ContainsNode(node.Source(gone)))
	assert.Equal(t, 2, result.Graph.NodeCount(), "remaining files are still scanned")
	assert.Len(t, rep.FileErrors(), 1)
	assert.Equal(t, 1, result.Stats.FilesFailed)
	assert.Equal(t, 2, result.Stats.FilesProcessed)
}

func TestBuild_InvalidEncoding(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "latin1.c")
	require.NoError(t, os.WriteFile(path, []byte("/* \xff */\n#include \"x.h\"\n"), 0644))

	strict, err := NewBuilder().Build(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, strict.FileErrors, 1)
	assert.ErrorIs(t, strict.FileErrors[0], extract.ErrInvalidEncoding)

	lenient, err := NewBuilder(WithLenientEncoding(true)).Build(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Empty(t, lenient.FileErrors)
	assert.Equal(t, 1, lenient.Graph.EdgeCount())
}

func TestBuild_Cycle(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{
		"a.h": "#include \"b.h\"\n",
		"b.h": "#include \"a.h\"\n",
	})

	result, err := NewBuilder().Build(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Graph.NodeCount())
	assert.Equal(t, 2, result.Graph.EdgeCount())
}

func TestBuild_DuplicateCandidatesAndDeterminism(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{
		"z.cpp": "#include \"m.h\"\n",
		"a.cpp": "#include \"m.h\"\n#include <vector>\n",
		"m.h":   "",
	})
	reversed := make([]string, 0, len(files)*2)
	for i := len(files) - 1; i >= 0; i-- {
		reversed = append(reversed, files[i], files[i])
	}

	r1, err := NewBuilder().Build(context.Background(), files)
	require.NoError(t, err)
	r2, err := NewBuilder().Build(context.Background(), reversed)
	require.NoError(t, err)

	assert.Equal(t, r1.Graph.Nodes(), r2.Graph.Nodes())
	assert.Equal(t, r1.Graph.Edges(), r2.Graph.Edges())
	assert.Equal(t, 3, r2.Stats.FilesProcessed, "duplicates are scanned once")
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	root := t.TempDir()
	tree := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		tree[name+".cpp"] = "#include \"" + name + ".h\"\n#include \"shared.h\"\n#include <missing>\n"
		tree[name+".h"] = "#include \"shared.h\"\n"
	}
	tree["shared.h"] = ""
	files := writeTree(t, root, tree)

	seq, err := NewBuilder().Build(context.Background(), files)
	require.NoError(t, err)
	par, err := NewBuilder(WithWorkerCount(4)).Build(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, seq.Graph.Nodes(), par.Graph.Nodes())
	assert.Equal(t, seq.Graph.Edges(), par.Graph.Edges())
	assert.Equal(t, seq.Unresolved, par.Unresolved)
	assert.Equal(t, seq.Stats.IncludesResolved, par.Stats.IncludesResolved)
}

func TestBuild_Cancelled(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{"a.cpp": "", "b.cpp": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewBuilder().Build(ctx, files)
	require.NoError(t, err)
	assert.True(t, result.Incomplete)
	assert.Equal(t, 0, result.Graph.NodeCount())
}

func TestBuild_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := NewBuilder().Build(nil, nil)
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestBuild_Progress(t *testing.T) {
	root := t.TempDir()
	files := writeTree(t, root, map[string]string{"a.cpp": "", "b.cpp": ""})

	var phases []ProgressPhase
	b := NewBuilder(WithProgressCallback(func(p BuildProgress) {
		phases = append(phases, p.Phase)
	}))
	_, err := b.Build(context.Background(), files)
	require.NoError(t, err)

	require.NotEmpty(t, phases)
	assert.Equal(t, ProgressPhaseComplete, phases[len(phases)-1])
}

func TestNewBuilder_ClampsWorkers(t *testing.T) {
	assert.Equal(t, DefaultWorkerCount, NewBuilder(WithWorkerCount(0)).Options().WorkerCount)
	assert.Equal(t, MaxWorkerCount, NewBuilder(WithWorkerCount(10000)).Options().WorkerCount)
}

func handles[H ~int](hs []H) []int {
	out := make([]int, len(hs))
	for i, h := range hs {
		out[i] = int(h)
	}
	return out
}
