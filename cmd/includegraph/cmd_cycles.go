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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/cycles"
)

// CyclesResult holds cycles command output.
type CyclesResult struct {
	RunID  string       `json:"run_id"`
	Root   string       `json:"root"`
	Nodes  int          `json:"nodes"`
	Edges  int          `json:"edges"`
	Cycles []CycleEntry `json:"cycles"`
	Count  int          `json:"count"`
}

// CycleEntry is one cycle in CyclesResult.
type CycleEntry struct {
	Files       []string `json:"files"`
	SelfInclude bool     `json:"self_include,omitempty"`
}

func newCyclesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "Report include cycles in a source tree",
		Long: `Cycles builds the include graph exactly like scan and lists every group
of files that include each other, directly or transitively, plus files that
include themselves.

Exits 1 when at least one cycle is found, so it can gate CI.

Examples:
  includegraph cycles --src ./engine --include ./engine/include
  includegraph cycles --src . --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCycles(cmd)
		},
	}
	addBuildFlags(cmd)
	return cmd
}

// runCycles executes the cycles command.
func (a *app) runCycles(cmd *cobra.Command) error {
	start := time.Now()
	out := OutputConfig{JSON: a.jsonOutput, Quiet: a.quiet}

	cfg, err := a.loadConfig(cmd, buildFlagBindings)
	if err != nil {
		OutputError(a.stdout, a.stderr, out.JSON, "cycles", err)
		return withCode(CLIExitError, nil)
	}

	ctx, stop := runContext(cmd.Context())
	defer stop()

	sess, err := a.startSession(ctx, cfg)
	if err != nil {
		OutputError(a.stdout, a.stderr, out.JSON, "cycles", err)
		return withCode(CLIExitError, nil)
	}
	defer sess.close()

	p := &pipeline{
		cfg:      cfg,
		logger:   sess.logger,
		reporter: newConsoleReporter(a.stderr, sess.logger, a.quiet || out.JSON),
		runID:    sess.runID,
	}
	b, err := p.build(ctx)
	if err != nil {
		OutputError(a.stdout, a.stderr, out.JSON, "cycles", err)
		return withCode(CLIExitError, nil)
	}

	found, err := cycles.Find(b.result.Graph)
	if err != nil {
		OutputError(a.stdout, a.stderr, out.JSON, "cycles", err)
		return withCode(CLIExitError, nil)
	}
	sess.logger.Info("cycle detection complete", "cycles", len(found))

	result := CyclesResult{
		RunID:  sess.runID,
		Root:   b.root,
		Nodes:  b.result.Graph.NodeCount(),
		Edges:  b.result.Graph.EdgeCount(),
		Cycles: make([]CycleEntry, 0, len(found)),
		Count:  len(found),
	}
	for _, c := range found {
		entry := CycleEntry{SelfInclude: c.SelfInclude}
		for _, id := range c.Files {
			entry.Files = append(entry.Files, id.RelativeTo(b.root))
		}
		result.Cycles = append(result.Cycles, entry)
	}

	if !out.JSON && !out.Quiet {
		a.printCycles(result)
	}
	return withCode(OutputResult(a.stdout, out, "cycles", start, result, len(found) > 0), nil)
}

// printCycles writes the text cycle report to stdout.
func (a *app) printCycles(r CyclesResult) {
	st := paletteFor(a.stdout)
	if r.Count == 0 {
		fmt.Fprintln(a.stdout, st.Success.Render(fmt.Sprintf("No include cycles (%d files, %d edges)", r.Nodes, r.Edges)))
		return
	}

	fmt.Fprintln(a.stdout, st.Warning.Render(fmt.Sprintf("Found %d include cycle(s)", r.Count)))
	for i, c := range r.Cycles {
		if c.SelfInclude {
			fmt.Fprintf(a.stdout, "  %d. %s includes itself\n", i+1, c.Files[0])
			continue
		}
		fmt.Fprintf(a.stdout, "  %d. %d files:\n", i+1, len(c.Files))
		for _, f := range c.Files {
			fmt.Fprintf(a.stdout, "       %s\n", f)
		}
	}
}
