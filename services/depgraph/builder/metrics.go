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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for build operations.
var (
	tracer = otel.Tracer("includegraph.builder")
	meter  = otel.Meter("includegraph.builder")
)

// Metrics for graph building operations.
var (
	buildLatency     metric.Float64Histogram
	buildTotal       metric.Int64Counter
	nodesCreated     metric.Int64Histogram
	edgesCreated     metric.Int64Histogram
	unresolvedTotal  metric.Int64Counter
	fileErrorsTotal  metric.Int64Counter
	filesScannedHist metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"includegraph_build_duration_seconds",
			metric.WithDescription("Duration of include graph builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"includegraph_build_total",
			metric.WithDescription("Total number of include graph builds"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"includegraph_nodes_created",
			metric.WithDescription("Number of nodes per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesCreated, err = meter.Int64Histogram(
			"includegraph_edges_created",
			metric.WithDescription("Number of edges per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesScannedHist, err = meter.Int64Histogram(
			"includegraph_files_scanned",
			metric.WithDescription("Number of files scanned per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		unresolvedTotal, err = meter.Int64Counter(
			"includegraph_unresolved_includes_total",
			metric.WithDescription("Includes that matched no file on disk"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fileErrorsTotal, err = meter.Int64Counter(
			"includegraph_file_errors_total",
			metric.WithDescription("Files skipped because they could not be read"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startBuildSpan starts the span covering one Build call.
func startBuildSpan(ctx context.Context, candidates, workers int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "builder.Build",
		trace.WithAttributes(
			attribute.Int("build.candidates", candidates),
			attribute.Int("build.workers", workers),
		),
	)
}

// setBuildSpanResult records the outcome on the build span.
func setBuildSpanResult(span trace.Span, result *BuildResult) {
	span.SetAttributes(
		attribute.Int("build.files_processed", result.Stats.FilesProcessed),
		attribute.Int("build.files_failed", result.Stats.FilesFailed),
		attribute.Int("build.nodes", result.Stats.NodesCreated),
		attribute.Int("build.edges", result.Stats.EdgesCreated),
		attribute.Int("build.unresolved", result.Stats.IncludesUnresolved),
		attribute.Bool("build.incomplete", result.Incomplete),
	)
	if result.Incomplete {
		span.SetStatus(codes.Error, "build cancelled")
	}
}

// recordBuildMetrics records metrics for a build operation.
func recordBuildMetrics(ctx context.Context, duration time.Duration, stats BuildStats, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)
	filesScannedHist.Record(ctx, int64(stats.FilesProcessed))
	unresolvedTotal.Add(ctx, int64(stats.IncludesUnresolved))
	fileErrorsTotal.Add(ctx, int64(stats.FilesFailed))

	if success {
		nodesCreated.Record(ctx, int64(stats.NodesCreated))
		edgesCreated.Record(ctx, int64(stats.EdgesCreated))
	}
}
