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
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/AleutianAI/IncludeGraph/cmd/includegraph/config"
	"github.com/AleutianAI/IncludeGraph/pkg/logging"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/builder"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/dot"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/graph"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/render"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/subgraph"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/walker"
)

// stdoutOutput is the output path that streams DOT to stdout.
const stdoutOutput = "-"

// selection names the optional subgraph to extract.
type selection struct {
	Mode subgraph.Mode
	File string
}

// ScanSummary is the data reported after a scan.
type ScanSummary struct {
	RunID      string           `json:"run_id"`
	Root       string           `json:"root"`
	Files      int              `json:"files"`
	Nodes      int              `json:"nodes"`
	Edges      int              `json:"edges"`
	FileErrors int              `json:"file_errors"`
	Unresolved int              `json:"unresolved"`
	Incomplete bool             `json:"incomplete,omitempty"`
	Subgraph   *SubgraphSummary `json:"subgraph,omitempty"`
	Output     string           `json:"output"`
	Digest     string           `json:"digest"`
	Rendered   string           `json:"rendered,omitempty"`
	DurationMs int64            `json:"duration_ms"`
}

// SubgraphSummary describes an extracted subgraph.
type SubgraphSummary struct {
	Mode  string `json:"mode"`
	File  string `json:"file"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

// pipeline runs walk, build, select, serialize and render for one config.
type pipeline struct {
	cfg      *config.Config
	logger   *logging.Logger
	reporter builder.Reporter
	progress builder.ProgressFunc
	stdout   io.Writer
	runID    string
}

// built is the outcome of the walk and build stages.
type built struct {
	root   string
	files  []string
	result *builder.BuildResult
}

// build walks the source root and builds the include graph.
//
// # Outputs
//
//   - *built: Absolute root, candidates and build result.
//   - error: Configuration errors (bad root, bad pattern, bad quote
//     types). Per-file problems are in the result, not here. A walk
//     cut short by cancellation yields an empty Incomplete result.
func (p *pipeline) build(ctx context.Context) (*built, error) {
	policy, err := builder.ParseQuoteTypes(p.cfg.QuoteTypes)
	if err != nil {
		return nil, err
	}

	var exclude *regexp.Regexp
	if p.cfg.Exclude != "" {
		exclude, err = regexp.Compile(p.cfg.Exclude)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern: %w", err)
		}
	}

	root, err := filepath.Abs(p.cfg.Src)
	if err != nil {
		return nil, fmt.Errorf("resolve source root: %w", err)
	}

	searchPaths, err := absPaths(p.cfg.Include)
	if err != nil {
		return nil, err
	}

	p.logger.Info("scanning path", "root", root)
	files, err := walker.Walk(ctx, root,
		walker.WithExclude(exclude),
		walker.WithGitignore(p.cfg.Gitignore),
		walker.WithLogger(p.logger.Slog()),
	)
	if err != nil {
		if ctx.Err() == nil {
			return nil, err
		}
		p.logger.Warn("walk interrupted", "root", root, "error", err)
		return &built{
			root:   root,
			result: &builder.BuildResult{Graph: graph.New[node.FileIdentity](), Incomplete: true},
		}, nil
	}
	p.logger.Debug("candidates collected", "files", len(files))

	opts := []builder.BuilderOption{
		builder.WithSearchPaths(searchPaths),
		builder.WithIncludePolicy(policy),
		builder.WithWorkerCount(p.cfg.Workers),
		builder.WithLenientEncoding(p.cfg.LenientEncoding),
		builder.WithResolverCacheSize(p.cfg.ResolverCacheSize),
		builder.WithLogger(p.logger.Slog()),
	}
	if exclude != nil {
		opts = append(opts, builder.WithExcludeFilter(exclude.MatchString))
	}
	if p.reporter != nil {
		opts = append(opts, builder.WithReporter(p.reporter))
	}
	if p.progress != nil {
		opts = append(opts, builder.WithProgressCallback(p.progress))
	}

	result, err := builder.NewBuilder(opts...).Build(ctx, files)
	if err != nil {
		return nil, err
	}
	return &built{root: root, files: files, result: result}, nil
}

// absPaths makes every search path absolute so resolved includes share
// identities with walked files.
func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, sp := range paths {
		abs, err := filepath.Abs(sp)
		if err != nil {
			return nil, fmt.Errorf("resolve search path %q: %w", sp, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// scan runs the full pipeline and writes the DOT output.
//
// # Description
//
// The summary is returned even when rendering fails, because the DOT
// file has already been written by then.
//
// # Outputs
//
//   - *ScanSummary: Counts, output path and digest.
//   - error: Configuration, selection, write or render failure.
func (p *pipeline) scan(ctx context.Context, sel selection) (*ScanSummary, error) {
	start := time.Now()

	b, err := p.build(ctx)
	if err != nil {
		return nil, err
	}
	full := b.result.Graph

	summary := &ScanSummary{
		RunID:      p.runID,
		Root:       b.root,
		Files:      len(b.files),
		Nodes:      full.NodeCount(),
		Edges:      full.EdgeCount(),
		FileErrors: len(b.result.FileErrors),
		Unresolved: len(b.result.Unresolved),
		Incomplete: b.result.Incomplete,
		Output:     p.cfg.Output,
	}

	out := full
	if sel.Mode != subgraph.ModeNone {
		out, err = p.extract(ctx, full, b.root, sel)
		if err != nil {
			return nil, err
		}
		summary.Subgraph = &SubgraphSummary{
			Mode:  sel.Mode.String(),
			File:  sel.File,
			Nodes: out.NodeCount(),
			Edges: out.EdgeCount(),
		}
	}

	label := dot.LabelFunc[node.FileIdentity](dot.BaseNameLabel)
	if p.cfg.Paths {
		label = dot.RelativeLabel(b.root)
	}

	text := dot.Serialize(out, label)
	summary.Digest = fmt.Sprintf("%016x", xxh3.HashString(text))

	if err := p.writeOutput(out, label); err != nil {
		return nil, err
	}
	p.logger.Info("graph written",
		"output", p.cfg.Output,
		"nodes", out.NodeCount(),
		"edges", out.EdgeCount(),
		"digest", summary.Digest,
	)

	if p.cfg.Render.Format != "" {
		if p.cfg.Output == stdoutOutput {
			return summary, fmt.Errorf("%w: cannot render when writing to stdout", render.ErrRenderFailed)
		}
		imgPath := p.cfg.Render.Output
		if imgPath == "" {
			imgPath = render.OutputPath(p.cfg.Output, p.cfg.Render.Format)
		}
		if err := render.Render(ctx, p.cfg.Output, p.cfg.Render.Format, imgPath, render.Options{}); err != nil {
			summary.DurationMs = time.Since(start).Milliseconds()
			return summary, err
		}
		summary.Rendered = imgPath
		p.logger.Info("graph rendered", "format", p.cfg.Render.Format, "output", imgPath)
	}

	summary.DurationMs = time.Since(start).Milliseconds()
	return summary, nil
}

// extract selects the root file and returns the requested subgraph.
func (p *pipeline) extract(ctx context.Context, g *graph.KeyedGraph[node.FileIdentity], root string, sel selection) (*graph.KeyedGraph[node.FileIdentity], error) {
	h, err := subgraph.Select(g, root, sel.File)
	if err != nil {
		return nil, err
	}
	id, _ := g.Node(h)
	p.logger.Debug("subgraph root selected", "mode", sel.Mode.String(), "file", id.Path)
	return subgraph.Extract(ctx, g, sel.Mode, h)
}

// writeOutput writes DOT to the configured file or to stdout.
func (p *pipeline) writeOutput(g *graph.KeyedGraph[node.FileIdentity], label dot.LabelFunc[node.FileIdentity]) error {
	if p.cfg.Output == stdoutOutput {
		w := p.stdout
		if w == nil {
			w = os.Stdout
		}
		if err := dot.Encode(w, g, label); err != nil {
			return fmt.Errorf("%w: %w", dot.ErrWriteOutput, err)
		}
		return nil
	}
	return dot.WriteFile(p.cfg.Output, g, label)
}
