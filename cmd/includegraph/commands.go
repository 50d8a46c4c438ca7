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
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/IncludeGraph/cmd/includegraph/config"
	"github.com/AleutianAI/IncludeGraph/pkg/logging"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/telemetry"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// app holds the streams and global flags shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// Global flags
	configPath string
	jsonOutput bool
	quiet      bool
}

// rootFlagBindings maps config keys to persistent root flags.
var rootFlagBindings = map[string]string{
	"log.level": "log-level",
	"log.json":  "log-json",
	"log.dir":   "log-dir",
}

// newRootCmd builds the command tree.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "includegraph",
		Short: "Map the #include dependencies of a C/C++ source tree",
		Long: `includegraph scans a C/C++ source tree, resolves every #include
directive against the including file's directory and an ordered list of
search paths, and writes the resulting dependency graph as Graphviz DOT.

Examples:
  includegraph scan --src ./project --include ./project/include
  includegraph scan --src . --downstream main.cpp --render svg
  includegraph cycles --src .`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Config file (default ./"+config.DefaultFileName+" if present)")
	rootCmd.PersistentFlags().String("log-level", "info",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false,
		"Write console logs as JSON")
	rootCmd.PersistentFlags().String("log-dir", "",
		"Also write JSON logs to this directory")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false,
		"Output the result as JSON for scripting")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false,
		"Suppress diagnostics and the summary; rely on the exit code")

	rootCmd.AddCommand(
		newScanCmd(a),
		newCyclesCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the includegraph version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "includegraph %s\n", Version)
		},
	}
}

// loadConfig binds flags and loads the layered configuration.
func (a *app) loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	loader := config.NewLoader()
	if err := loader.BindFlags(cmd, rootFlagBindings); err != nil {
		return nil, err
	}
	if err := loader.BindFlags(cmd, bindings); err != nil {
		return nil, err
	}
	return loader.Load(a.configPath)
}

// session is the per-run logger and telemetry.
type session struct {
	runID    string
	base     *logging.Logger
	logger   *logging.Logger
	shutdown func(context.Context) error
	metrics  string
}

// startSession creates the run logger and initializes telemetry.
//
// # Outputs
//
//   - *session: Close must be called.
//   - error: Unknown log level or telemetry setup failure.
func (a *app) startSession(ctx context.Context, cfg *config.Config) (*session, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	base := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "includegraph",
		JSON:    cfg.Log.JSON,
		Output:  a.stderr,
	})

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = Version
	tcfg.TraceExporter = cfg.Telemetry.TraceExporter
	tcfg.TraceFile = cfg.Telemetry.TraceFile
	tcfg.MetricExporter = cfg.Telemetry.MetricExporter
	tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	if cfg.Telemetry.MetricsFile != "" && tcfg.MetricExporter == telemetry.ExporterNone {
		tcfg.MetricExporter = telemetry.ExporterPrometheus
	}

	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		_ = base.Close()
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	return &session{
		runID:    runID,
		base:     base,
		logger:   base.With("run_id", runID),
		shutdown: shutdown,
		metrics:  cfg.Telemetry.MetricsFile,
	}, nil
}

// close writes the metrics snapshot, flushes telemetry and closes logs.
func (s *session) close() {
	if s.metrics != "" {
		if err := telemetry.WriteMetricsFile(s.metrics); err != nil {
			s.logger.Warn("metrics file not written", "path", s.metrics, "error", err)
		}
	}
	if err := s.shutdown(context.Background()); err != nil {
		s.logger.Warn("telemetry shutdown failed", "error", err)
	}
	_ = s.base.Close()
}
