// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package subgraph picks a root file in an include graph and extracts
// the downstream, upstream or neighborhood subgraph around it.
package subgraph

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/graph"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

var (
	tracer = otel.Tracer("includegraph.subgraph")
	meter  = otel.Meter("includegraph.subgraph")
)

// Mode selects the traversal direction.
type Mode int

const (
	// ModeNone means no extraction; the full graph is used.
	ModeNone Mode = iota
	// ModeDownstream follows outgoing edges.
	ModeDownstream
	// ModeUpstream follows incoming edges.
	ModeUpstream
	// ModeNeighborhood unions both directions.
	ModeNeighborhood
)

// String returns the flag spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDownstream:
		return "downstream"
	case ModeUpstream:
		return "upstream"
	case ModeNeighborhood:
		return "neighborhood"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Select finds the single node identified by name.
//
// # Description
//
// Matching is tried in three tiers and the first tier with any match
// decides the outcome:
//
//  1. exact identity path (after filepath.Clean)
//  2. path relative to root
//  3. base name
//
// System headers are eligible like any other node.
//
// # Inputs
//
//   - g: Graph to search.
//   - root: Scanned root directory, used for tier 2. May be "".
//   - name: User-supplied file name or path.
//
// # Outputs
//
//   - graph.NodeHandle: The selected handle.
//   - error: *NotFoundError (unwraps to ErrFileNotFound) or
//     *AmbiguousFileError (unwraps to ErrFileAmbiguous).
func Select(g *graph.KeyedGraph[node.FileIdentity], root, name string) (graph.NodeHandle, error) {
	cleaned := filepath.Clean(name)

	tiers := []func(node.FileIdentity) bool{
		func(id node.FileIdentity) bool {
			return filepath.Clean(id.Path) == cleaned
		},
		func(id node.FileIdentity) bool {
			return root != "" && id.RelativeTo(root) == cleaned
		},
		func(id node.FileIdentity) bool {
			return id.BaseName() == name
		},
	}

	for _, match := range tiers {
		handles := g.Find(match)
		switch len(handles) {
		case 0:
			continue
		case 1:
			return handles[0], nil
		default:
			ids := make([]node.FileIdentity, 0, len(handles))
			for _, h := range handles {
				id, _ := g.Node(h)
				ids = append(ids, id)
			}
			return 0, &AmbiguousFileError{Input: name, Matches: ids}
		}
	}
	return 0, &NotFoundError{Input: name}
}

// Extract runs the traversal for mode from the given handle.
//
// # Description
//
// Wraps graph.DownstreamOf, UpstreamOf and NeighborhoodOf with a span and
// a latency metric. ModeNone returns g itself.
//
// # Inputs
//
//   - ctx: Context for tracing. Must not be nil.
//   - g: Source graph.
//   - mode: Traversal direction.
//   - root: Handle in g.
//
// # Outputs
//
//   - *graph.KeyedGraph[node.FileIdentity]: The extracted subgraph.
//   - error: graph.ErrInvalidHandle or ErrUnknownMode.
func Extract(ctx context.Context, g *graph.KeyedGraph[node.FileIdentity], mode Mode, root graph.NodeHandle) (*graph.KeyedGraph[node.FileIdentity], error) {
	if mode == ModeNone {
		return g, nil
	}

	ctx, span := tracer.Start(ctx, "subgraph.Extract")
	defer span.End()
	span.SetAttributes(
		attribute.String("subgraph.mode", mode.String()),
		attribute.Int("subgraph.source_nodes", g.NodeCount()),
	)

	start := time.Now()
	var (
		sub *graph.KeyedGraph[node.FileIdentity]
		err error
	)
	switch mode {
	case ModeDownstream:
		sub, err = g.DownstreamOf(root)
	case ModeUpstream:
		sub, err = g.UpstreamOf(root)
	case ModeNeighborhood:
		sub, err = g.NeighborhoodOf(root)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("subgraph.nodes", sub.NodeCount()),
		attribute.Int("subgraph.edges", sub.EdgeCount()),
	)
	recordExtractMetrics(ctx, mode, time.Since(start), sub.NodeCount())
	return sub, nil
}

var (
	extractLatency metric.Float64Histogram
	metricsOnce    sync.Once
	metricsErr     error
)

func recordExtractMetrics(ctx context.Context, mode Mode, d time.Duration, nodes int) {
	metricsOnce.Do(func() {
		extractLatency, metricsErr = meter.Float64Histogram(
			"subgraph_extract_duration_seconds",
			metric.WithDescription("Duration of subgraph extraction"),
			metric.WithUnit("s"),
		)
	})
	if metricsErr != nil {
		return
	}
	extractLatency.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode.String()),
		attribute.Int("nodes", nodes),
	))
}
