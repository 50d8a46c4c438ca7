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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/builder"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/subgraph"
)

// =============================================================================
// FLAG BINDINGS
// =============================================================================

// buildFlagBindings maps config keys to the flags shared by scan and cycles.
var buildFlagBindings = map[string]string{
	"src":                 "src",
	"include":             "include",
	"quote_types":         "quotetypes",
	"exclude":             "exclude",
	"gitignore":           "gitignore",
	"workers":             "workers",
	"lenient_encoding":    "lenient-encoding",
	"resolver_cache_size": "resolver-cache-size",
	"strict":              "strict",
}

// scanOnlyBindings maps config keys to flags that only scan defines.
var scanOnlyBindings = map[string]string{
	"output":                   "output",
	"paths":                    "paths",
	"render.format":            "render",
	"render.output":            "render-output",
	"telemetry.trace_exporter": "trace-exporter",
	"telemetry.trace_file":     "trace-file",
	"telemetry.metrics_file":   "metrics-file",
}

// addBuildFlags defines the flags that control walking and building.
//
// Defaults shown in help come from config.DefaultConfig; an unchanged
// flag never overrides the config file or environment.
func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("src", ".", "Root directory of the source tree")
	f.StringSlice("include", nil, "Extra include search paths, in order (comma-separated)")
	f.String("quotetypes", "both", "Includes to follow: both, angle (<...>) or quote (\"...\")")
	f.String("exclude", "", "Regular expression; matching file and include names are skipped")
	f.Bool("gitignore", false, "Skip files matched by the root .gitignore")
	f.Int("workers", 1, "Number of files read in parallel")
	f.Bool("lenient-encoding", false, "Scan files that are not valid UTF-8")
	f.Int("resolver-cache-size", 4096, "Path resolution memo size (0 disables)")
	f.Bool("strict", false, "Exit 1 if any file failed or any include was unresolved")
}

func mergeBindings(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// scanFlags holds the subgraph selection flags.
type scanFlags struct {
	downstream   string
	upstream     string
	neighborhood string
}

func newScanCmd(a *app) *cobra.Command {
	var sf scanFlags

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a source tree and write its include graph as DOT",
		Long: `Scan walks the source root for C/C++ files (c, cc, cpp, cxx, h, hpp, hxx),
extracts every #include directive and resolves it first against the
including file's directory, then against each --include path in order.

Unresolved includes still appear in the graph as placeholder nodes so
dangling references stay visible. Files that cannot be read are reported
and skipped.

Use --downstream, --upstream or --neighborhood to write only the part
of the graph around one file. The file may be named by absolute path,
path relative to --src, or base name.

Examples:
  includegraph scan --src ./engine --include ./engine/include,./third_party
  includegraph scan --src . --quotetypes quote --exclude '^test_'
  includegraph scan --src . --upstream config.h -o config_users.dot
  includegraph scan --src . --render pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd, sf)
		},
	}

	addBuildFlags(cmd)
	f := cmd.Flags()
	f.StringP("output", "o", "graph.dot", `DOT output path ("-" for stdout)`)
	f.Bool("paths", false, "Label nodes with paths relative to --src instead of base names")
	f.String("render", "", "Also render with Graphviz: pdf, png or svg")
	f.String("render-output", "", "Rendered image path (default: output path with the format extension)")
	f.String("trace-exporter", "none", "Trace exporter: none, stdout or otlp")
	f.String("trace-file", "", "Write stdout traces to this file")
	f.String("metrics-file", "", "Write a Prometheus text snapshot of build metrics to this file")

	f.StringVar(&sf.downstream, "downstream", "", "Only write FILE and everything it includes")
	f.StringVar(&sf.upstream, "upstream", "", "Only write FILE and everything that includes it")
	f.StringVar(&sf.neighborhood, "neighborhood", "", "Only write FILE with both directions")
	cmd.MarkFlagsMutuallyExclusive("downstream", "upstream", "neighborhood")

	return cmd
}

// selection converts the flags into a subgraph selection.
func (sf scanFlags) selection() selection {
	switch {
	case sf.downstream != "":
		return selection{Mode: subgraph.ModeDownstream, File: sf.downstream}
	case sf.upstream != "":
		return selection{Mode: subgraph.ModeUpstream, File: sf.upstream}
	case sf.neighborhood != "":
		return selection{Mode: subgraph.ModeNeighborhood, File: sf.neighborhood}
	default:
		return selection{Mode: subgraph.ModeNone}
	}
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runScan executes the scan command.
func (a *app) runScan(cmd *cobra.Command, sf scanFlags) error {
	start := time.Now()
	out := OutputConfig{JSON: a.jsonOutput, Quiet: a.quiet}

	cfg, err := a.loadConfig(cmd, mergeBindings(buildFlagBindings, scanOnlyBindings))
	if err != nil {
		OutputError(a.stdout, a.stderr, out.JSON, "scan", err)
		return withCode(CLIExitError, nil)
	}
	if cfg.Output == stdoutOutput && out.JSON {
		err := errors.New("--json cannot be combined with DOT output to stdout")
		OutputError(a.stdout, a.stderr, out.JSON, "scan", err)
		return withCode(CLIExitError, nil)
	}

	ctx, stop := runContext(cmd.Context())
	defer stop()

	sess, err := a.startSession(ctx, cfg)
	if err != nil {
		OutputError(a.stdout, a.stderr, out.JSON, "scan", err)
		return withCode(CLIExitError, nil)
	}
	defer sess.close()

	reporter := newConsoleReporter(a.stderr, sess.logger, a.quiet)
	spin := a.startSpinner(out, "Scanning "+cfg.Src)

	p := &pipeline{
		cfg:      cfg,
		logger:   sess.logger,
		reporter: reporter,
		progress: spin.progress,
		stdout:   a.stdout,
		runID:    sess.runID,
	}

	summary, err := p.scan(ctx, sf.selection())
	spin.stop()
	if err != nil {
		sess.logger.Debug("scan failed", "error", err)
		if summary != nil && !out.JSON && !out.Quiet {
			a.printScanSummary(summary, cfg.Output)
		}
		OutputError(a.stdout, a.stderr, out.JSON, "scan", err)
		return withCode(CLIExitError, nil)
	}

	if !out.JSON && !out.Quiet {
		a.printScanSummary(summary, cfg.Output)
	}

	findings := cfg.Strict && (summary.FileErrors > 0 || summary.Unresolved > 0)
	if summary.Incomplete {
		findings = true
	}
	return withCode(OutputResult(a.stdout, out, "scan", start, summary, findings), nil)
}

// printScanSummary writes the human-readable summary to stderr.
//
// stdout is left untouched so "-o -" can be piped.
func (a *app) printScanSummary(s *ScanSummary, output string) {
	st := paletteFor(a.stderr)
	w := a.stderr

	fmt.Fprintln(w, st.Title.Render("Include graph"))
	fmt.Fprintf(w, "  %s %s\n", st.Label.Render("Root:      "), s.Root)
	fmt.Fprintf(w, "  %s %d\n", st.Label.Render("Files:     "), s.Files)
	fmt.Fprintf(w, "  %s %d nodes, %d edges\n", st.Label.Render("Graph:     "), s.Nodes, s.Edges)
	if s.Subgraph != nil {
		fmt.Fprintf(w, "  %s %s of %s: %d nodes, %d edges\n", st.Label.Render("Subgraph:  "),
			s.Subgraph.Mode, s.Subgraph.File, s.Subgraph.Nodes, s.Subgraph.Edges)
	}
	diag := fmt.Sprintf("%d file errors, %d unresolved includes", s.FileErrors, s.Unresolved)
	if s.FileErrors > 0 || s.Unresolved > 0 {
		diag = st.Warning.Render(diag)
	}
	fmt.Fprintf(w, "  %s %s\n", st.Label.Render("Diagnostics:"), diag)
	if s.Incomplete {
		fmt.Fprintf(w, "  %s\n", st.Error.Render("Scan interrupted; the graph is incomplete."))
	}
	if s.Digest != "" {
		fmt.Fprintf(w, "  %s %s (xxh3 %s)\n", st.Label.Render("Output:    "), output, s.Digest)
	}
	if s.Rendered != "" {
		fmt.Fprintf(w, "  %s %s\n", st.Label.Render("Rendered:  "), s.Rendered)
	} else if output != stdoutOutput && s.Digest != "" {
		fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("Now run \"dot -Tpdf %s > graph.pdf\" to render the graph.", output)))
	}
}

// =============================================================================
// PROGRESS
// =============================================================================

// spinner shows scan progress on interactive terminals.
type spinner struct {
	printer *pterm.SpinnerPrinter
}

// startSpinner starts a pterm spinner on stderr when it is a terminal.
//
// The returned spinner is always usable; on non-terminals its methods do
// nothing.
func (a *app) startSpinner(out OutputConfig, text string) *spinner {
	if out.Quiet || out.JSON || !isTerminal(a.stderr) {
		return &spinner{}
	}
	printer, err := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100 * time.Millisecond).
		WithRemoveWhenDone(true).
		WithWriter(a.stderr).
		Start(text)
	if err != nil {
		return &spinner{}
	}
	return &spinner{printer: printer}
}

func (s *spinner) progress(p builder.BuildProgress) {
	if s.printer == nil || p.Phase != builder.ProgressPhaseScanning {
		return
	}
	s.printer.UpdateText(fmt.Sprintf("Scanned %d/%d files (%d nodes, %d edges)",
		p.FilesProcessed, p.FilesTotal, p.NodesCreated, p.EdgesCreated))
}

func (s *spinner) stop() {
	if s.printer != nil {
		_ = s.printer.Stop()
	}
}

// runContext returns a context cancelled on interrupt.
func runContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}
