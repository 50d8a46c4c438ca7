// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under a fresh temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// runCLI executes the command tree from an empty working directory.
func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out, errOut bytes.Buffer
	code = execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestScan_WritesGraph(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c":    "#include \"util.h\"\nint main(void) { return 0; }\n",
		"util.h":    "#pragma once\n",
		"notes.txt": "#include \"ignored.h\"\n",
	})
	out := filepath.Join(t.TempDir(), "graph.dot")

	code, _, stderr := runCLI(t, "scan", "--src", root, "-o", out)
	require.Equal(t, CLIExitSuccess, code, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "digraph {\n    overlap=scale;\n"))
	assert.Contains(t, text, "[label=\"main.c\"]")
	assert.Contains(t, text, "[label=\"util.h\"]")
	assert.Contains(t, text, " -> ")
	assert.NotContains(t, text, "ignored.h")
	assert.Contains(t, stderr, "Include graph")
	assert.Contains(t, stderr, "Now run \"dot -Tpdf")
}

func TestScan_UnresolvedIsReportedNotFatal(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c": "#include \"missing.h\"\n",
	})
	out := filepath.Join(t.TempDir(), "graph.dot")

	code, _, stderr := runCLI(t, "scan", "--src", root, "-o", out)
	assert.Equal(t, CLIExitSuccess, code)
	assert.Contains(t, stderr, "Unable to locate include \"missing.h\"")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[label=\"missing.h\"]")
}

func TestScan_StrictTurnsDiagnosticsIntoFindings(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c": "#include \"missing.h\"\n",
	})
	out := filepath.Join(t.TempDir(), "graph.dot")

	code, _, _ := runCLI(t, "scan", "--src", root, "-o", out, "--strict")
	assert.Equal(t, CLIExitFindings, code)
}

func TestScan_QuietSuppressesDiagnostics(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c": "#include \"missing.h\"\n",
	})
	out := filepath.Join(t.TempDir(), "graph.dot")

	code, stdout, stderr := runCLI(t, "-q", "--log-level", "error", "scan", "--src", root, "-o", out)
	assert.Equal(t, CLIExitSuccess, code)
	assert.Empty(t, stdout)
	assert.NotContains(t, stderr, "Unable to locate include")
	assert.NotContains(t, stderr, "Include graph")
}

func TestScan_MissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	code, _, stderr := runCLI(t, "scan", "--src", missing)
	assert.Equal(t, CLIExitError, code)
	assert.Contains(t, stderr, "source root does not exist")
}

func TestScan_Stdout(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.cpp": "#include <b.hpp>\n",
		"b.hpp": "",
	})

	code, stdout, stderr := runCLI(t, "scan", "--src", root, "-o", "-")
	require.Equal(t, CLIExitSuccess, code, stderr)
	assert.True(t, strings.HasPrefix(stdout, "digraph {"))
	assert.Contains(t, stdout, "[label=\"b.hpp\"]")
	assert.NotContains(t, stdout, "Include graph")
	assert.NotContains(t, stderr, "Now run")
}

func TestScan_JSONWithStdoutOutputRejected(t *testing.T) {
	root := writeTree(t, map[string]string{"a.c": ""})

	code, stdout, _ := runCLI(t, "--json", "scan", "--src", root, "-o", "-")
	assert.Equal(t, CLIExitError, code)

	var res CommandResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "--json")
}

func TestScan_JSONSummary(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c": "#include \"a.h\"\n#include \"gone.h\"\n",
		"a.h":    "",
	})
	out := filepath.Join(t.TempDir(), "graph.dot")

	code, stdout, stderr := runCLI(t, "--json", "scan", "--src", root, "-o", out)
	require.Equal(t, CLIExitSuccess, code, stderr)

	var res struct {
		CommandResult
		Data ScanSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "scan", res.Command)
	assert.Equal(t, apiVersion, res.APIVersion)
	assert.Equal(t, 2, res.Data.Files)
	assert.Equal(t, 3, res.Data.Nodes)
	assert.Equal(t, 2, res.Data.Edges)
	assert.Equal(t, 1, res.Data.Unresolved)
	assert.Len(t, res.Data.Digest, 16)
	assert.NotEmpty(t, res.Data.RunID)
	assert.NotContains(t, stderr, "Include graph")
}

func TestScan_DigestIsStable(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c": "#include \"a.h\"\n",
		"a.h":    "#include \"b.h\"\n",
		"b.h":    "",
	})
	digest := func(workers string) string {
		out := filepath.Join(t.TempDir(), "graph.dot")
		code, stdout, stderr := runCLI(t, "--json", "scan", "--src", root, "-o", out, "--workers", workers)
		require.Equal(t, CLIExitSuccess, code, stderr)
		var res struct {
			Data ScanSummary `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &res))
		return res.Data.Digest
	}

	assert.Equal(t, digest("1"), digest("4"))
}

func TestScan_Downstream(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c":  "#include \"a.h\"\n",
		"a.h":     "#include \"b.h\"\n",
		"b.h":     "",
		"other.c": "#include \"c.h\"\n",
		"c.h":     "",
	})
	out := filepath.Join(t.TempDir(), "graph.dot")

	code, _, stderr := runCLI(t, "scan", "--src", root, "-o", out, "--downstream", "a.h")
	require.Equal(t, CLIExitSuccess, code, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "[label=\"a.h\"]")
	assert.Contains(t, text, "[label=\"b.h\"]")
	assert.NotContains(t, text, "main.c")
	assert.NotContains(t, text, "c.h")
	assert.Contains(t, stderr, "Subgraph:")
}

func TestScan_SelectionUnknownFile(t *testing.T) {
	root := writeTree(t, map[string]string{"main.c": ""})
	out := filepath.Join(t.TempDir(), "graph.dot")

	code, _, stderr := runCLI(t, "scan", "--src", root, "-o", out, "--upstream", "nothere.h")
	assert.Equal(t, CLIExitError, code)
	assert.Contains(t, stderr, "not found")
}

func TestScan_SelectionFlagsExclusive(t *testing.T) {
	root := writeTree(t, map[string]string{"main.c": ""})

	code, _, stderr := runCLI(t, "scan", "--src", root, "--upstream", "a", "--downstream", "b")
	assert.Equal(t, CLIExitError, code)
	assert.Contains(t, stderr, "Error:")
}

func TestScan_QuoteTypesAngleSkipsQuoted(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c": "#include \"local.h\"\n#include <sys.h>\n",
		"local.h": "",
		"sys.h":   "",
	})
	out := filepath.Join(t.TempDir(), "graph.dot")

	code, _, stderr := runCLI(t, "scan", "--src", root, "-o", out, "--quotetypes", "angle")
	require.Equal(t, CLIExitSuccess, code, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), " -> "))
}

func TestScan_InvalidConfigValue(t *testing.T) {
	root := writeTree(t, map[string]string{"main.c": ""})

	code, _, stderr := runCLI(t, "scan", "--src", root, "--quotetypes", "single")
	assert.Equal(t, CLIExitError, code)
	assert.Contains(t, stderr, "quote_types")
}

func TestScan_ConfigFileAndEnv(t *testing.T) {
	root := writeTree(t, map[string]string{"main.c": "#include \"x.h\"\n"})
	dir := t.TempDir()
	out := filepath.Join(dir, "from-file.dot")
	cfgPath := filepath.Join(dir, "ig.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("src: "+root+"\noutput: "+out+"\n"), 0o644))
	t.Setenv("INCLUDEGRAPH_STRICT", "true")

	code, _, _ := runCLI(t, "--config", cfgPath, "scan")
	assert.Equal(t, CLIExitFindings, code)
	assert.FileExists(t, out)
}

func TestScan_MetricsFile(t *testing.T) {
	root := writeTree(t, map[string]string{"main.c": "#include \"a.h\"\n", "a.h": ""})
	dir := t.TempDir()
	metrics := filepath.Join(dir, "metrics.prom")

	code, _, stderr := runCLI(t, "scan", "--src", root, "-o", filepath.Join(dir, "g.dot"), "--metrics-file", metrics)
	require.Equal(t, CLIExitSuccess, code, stderr)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "includegraph")
}

func TestScan_RenderToStdoutRejected(t *testing.T) {
	root := writeTree(t, map[string]string{"main.c": ""})

	code, stdout, stderr := runCLI(t, "scan", "--src", root, "-o", "-", "--render", "svg")
	assert.Equal(t, CLIExitError, code)
	assert.Contains(t, stdout, "digraph {")
	assert.Contains(t, stderr, "cannot render")
}

func TestScan_RelativeSearchPathSharesNodes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.cpp": "#include \"foo.h\"\n",
		"inc/foo.h": "",
	})
	t.Chdir(root)

	var out, errOut bytes.Buffer
	code := execute(context.Background(), []string{"scan", "--src", ".", "--include", "inc", "-o", "g.dot"}, &out, &errOut)
	require.Equal(t, CLIExitSuccess, code, errOut.String())

	data, err := os.ReadFile(filepath.Join(root, "g.dot"))
	require.NoError(t, err)
	text := string(data)
	assert.Equal(t, 1, strings.Count(text, "[label=\"foo.h\"]"), text)
	assert.Equal(t, 1, strings.Count(text, " -> "))
	assert.NotContains(t, errOut.String(), "Unable to locate include")
}

func TestScan_InterruptedWalkIsIncomplete(t *testing.T) {
	root := writeTree(t, map[string]string{"main.c": "#include \"a.h\"\n", "a.h": ""})
	out := filepath.Join(t.TempDir(), "graph.dot")
	t.Chdir(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := execute(ctx, []string{"--json", "scan", "--src", root, "-o", out}, &stdout, &stderr)
	assert.Equal(t, CLIExitFindings, code, stderr.String())

	var res struct {
		CommandResult
		Data ScanSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	assert.True(t, res.Success)
	assert.True(t, res.Data.Incomplete)
	assert.Zero(t, res.Data.Nodes)
}
