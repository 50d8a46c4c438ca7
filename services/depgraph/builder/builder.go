// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package builder turns a set of C/C++ files into an include graph.
package builder

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/extract"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/graph"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/paths"
)

// Default configuration values.
const (
	// DefaultWorkerCount scans files sequentially.
	DefaultWorkerCount = 1

	// MaxWorkerCount bounds the parallel scan stage.
	MaxWorkerCount = 256

	// progressInterval is how many files pass between progress callbacks.
	progressInterval = 50
)

// ProgressPhase indicates the current phase of graph building.
type ProgressPhase int

const (
	// ProgressPhaseScanning is reading files and extracting includes.
	ProgressPhaseScanning ProgressPhase = iota

	// ProgressPhaseComplete is emitted once after the last file.
	ProgressPhaseComplete
)

// String returns the phase name.
func (p ProgressPhase) String() string {
	switch p {
	case ProgressPhaseScanning:
		return "scanning"
	case ProgressPhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// BuildProgress reports how far a build has got.
type BuildProgress struct {
	Phase          ProgressPhase
	FilesTotal     int
	FilesProcessed int
	NodesCreated   int
	EdgesCreated   int
}

// ProgressFunc is called periodically during a build.
type ProgressFunc func(progress BuildProgress)

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// SearchPaths are tried in order after the including file's directory.
	SearchPaths []string

	// Policy selects user and/or system includes.
	Policy IncludePolicy

	// Exclude drops includes whose spelled name matches. Nil keeps all.
	Exclude func(spelled string) bool

	// Reporter receives diagnostics. Defaults to NopReporter.
	Reporter Reporter

	// WorkerCount is the number of concurrent file readers. Graph
	// insertion is always sequential in candidate order.
	WorkerCount int

	// LenientEncoding accepts files that are not valid UTF-8.
	LenientEncoding bool

	// ResolverCacheSize bounds the resolution memo. 0 disables it.
	ResolverCacheSize int

	// Progress is called every few files and once at the end.
	Progress ProgressFunc

	// Logger receives debug-level resolution decisions.
	Logger *slog.Logger
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		Policy:            AllIncludes(),
		WorkerCount:       DefaultWorkerCount,
		ResolverCacheSize: paths.DefaultCacheSize,
	}
}

// BuilderOption is a functional option for configuring a Builder.
type BuilderOption func(*BuilderOptions)

// WithSearchPaths sets the ordered extra search paths.
func WithSearchPaths(searchPaths []string) BuilderOption {
	return func(o *BuilderOptions) {
		o.SearchPaths = append([]string(nil), searchPaths...)
	}
}

// WithIncludePolicy sets which include kinds are followed.
func WithIncludePolicy(p IncludePolicy) BuilderOption {
	return func(o *BuilderOptions) {
		o.Policy = p
	}
}

// WithExcludeFilter sets the predicate over raw spelled include names.
func WithExcludeFilter(fn func(spelled string) bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.Exclude = fn
	}
}

// WithReporter sets the diagnostic side channel.
func WithReporter(r Reporter) BuilderOption {
	return func(o *BuilderOptions) {
		o.Reporter = r
	}
}

// WithWorkerCount sets the number of concurrent file readers.
func WithWorkerCount(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.WorkerCount = n
	}
}

// WithLenientEncoding accepts files that are not valid UTF-8.
func WithLenientEncoding(lenient bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.LenientEncoding = lenient
	}
}

// WithResolverCacheSize bounds the resolution memo.
func WithResolverCacheSize(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.ResolverCacheSize = n
	}
}

// WithProgressCallback sets the progress callback.
func WithProgressCallback(fn ProgressFunc) BuilderOption {
	return func(o *BuilderOptions) {
		o.Progress = fn
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = l
	}
}

// Builder constructs include graphs from candidate files.
//
// # Description
//
// For each candidate the builder reads the file, extracts its include
// directives, applies the include policy and exclude filter, resolves
// what remains and records one edge per directive. Unresolvable includes
// are kept as edges to placeholder nodes.
//
// # Thread Safety
//
// A Builder may be reused for several sequential builds. Build is not
// safe to call concurrently on the same Builder because the Reporter is
// invoked without further coordination.
type Builder struct {
	options  BuilderOptions
	resolver *paths.Resolver
	logger   *slog.Logger
}

// NewBuilder creates a new Builder with the given options.
//
// # Inputs
//
//   - opts: Functional options. See DefaultBuilderOptions for defaults.
//
// # Outputs
//
//   - *Builder: Ready for Build.
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.Reporter == nil {
		options.Reporter = NopReporter{}
	}
	if options.WorkerCount < 1 {
		options.WorkerCount = DefaultWorkerCount
	}
	if options.WorkerCount > MaxWorkerCount {
		options.WorkerCount = MaxWorkerCount
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		options:  options,
		resolver: paths.NewResolver(options.SearchPaths, paths.WithCacheSize(options.ResolverCacheSize)),
		logger:   logger,
	}
}

// Options returns the effective options.
func (b *Builder) Options() BuilderOptions {
	return b.options
}

// fileScan is the outcome of reading one candidate.
type fileScan struct {
	path    string
	refs    []node.IncludeReference
	err     error
	scanned bool
}

// Build scans candidates and returns the include graph.
//
// # Description
//
// Candidates are deduplicated and sorted before insertion so node handles
// and serialized output are reproducible. Every readable candidate gets a
// node even if it records no includes. Per-file failures never abort the
// build.
//
// # Inputs
//
//   - ctx: Context for cancellation. Must not be nil. Cancellation stops
//     the scan between files and marks the result Incomplete.
//   - candidates: Files to scan, as produced by the directory walker.
//
// # Outputs
//
//   - *BuildResult: The graph plus diagnostics. Never nil on success.
//   - error: ErrNilContext only. All other failures are in the result.
func (b *Builder) Build(ctx context.Context, candidates []string) (*BuildResult, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	start := time.Now()
	files := dedupSorted(candidates)

	ctx, span := startBuildSpan(ctx, len(files), b.options.WorkerCount)
	defer span.End()

	result := &BuildResult{
		Graph: graph.New[node.FileIdentity](),
	}

	if b.options.WorkerCount > 1 && len(files) > 1 {
		scans := b.scanParallel(ctx, files)
		for i := range scans {
			if !scans[i].scanned || ctx.Err() != nil {
				result.Incomplete = true
				break
			}
			b.insert(result, &scans[i])
			b.reportProgress(result, ProgressPhaseScanning, len(files), i+1)
		}
	} else {
		for i, path := range files {
			if ctx.Err() != nil {
				result.Incomplete = true
				break
			}
			scan := b.scan(path)
			b.insert(result, &scan)
			b.reportProgress(result, ProgressPhaseScanning, len(files), i+1)
		}
	}

	result.Stats.NodesCreated = result.Graph.NodeCount()
	result.Stats.EdgesCreated = result.Graph.EdgeCount()
	elapsed := time.Since(start)
	result.Stats.DurationMilli = elapsed.Milliseconds()
	result.Stats.DurationMicro = elapsed.Microseconds()

	b.reportProgress(result, ProgressPhaseComplete, len(files), result.Stats.FilesProcessed+result.Stats.FilesFailed)
	setBuildSpanResult(span, result)
	recordBuildMetrics(ctx, elapsed, result.Stats, !result.Incomplete)

	b.logger.Debug("include graph built",
		slog.Int("files", len(files)),
		slog.Int("nodes", result.Stats.NodesCreated),
		slog.Int("edges", result.Stats.EdgesCreated),
		slog.Int("unresolved", result.Stats.IncludesUnresolved),
		slog.Int("file_errors", result.Stats.FilesFailed),
		slog.Duration("duration", elapsed),
	)
	return result, nil
}

// scan reads one file and extracts its references.
func (b *Builder) scan(path string) fileScan {
	refs, err := extract.IncludesFromFile(path, b.options.LenientEncoding)
	return fileScan{path: path, refs: refs, err: err, scanned: true}
}

// scanParallel reads files with a bounded worker group.
//
// Results keep candidate order. Entries not reached before cancellation
// have scanned == false.
func (b *Builder) scanParallel(ctx context.Context, files []string) []fileScan {
	scans := make([]fileScan, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.options.WorkerCount)

	for i, path := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			scans[i] = b.scan(path)
			return nil
		})
	}
	// Workers never return errors; read failures live in fileScan.err.
	_ = g.Wait()
	return scans
}

// insert records one scanned file in the result graph.
func (b *Builder) insert(result *BuildResult, scan *fileScan) {
	if scan.err != nil {
		fe := FileError{FilePath: scan.path, Err: scan.err}
		result.FileErrors = append(result.FileErrors, fe)
		result.Stats.FilesFailed++
		b.options.Reporter.FileFailed(fe)
		return
	}

	g := result.Graph
	src := node.Source(scan.path)
	g.AddNode(src)
	result.Stats.FilesProcessed++
	result.Stats.IncludesFound += len(scan.refs)

	dir := filepath.Dir(scan.path)
	for _, ref := range scan.refs {
		if !b.options.Policy.Allows(ref) {
			result.Stats.IncludesFiltered++
			continue
		}
		if b.options.Exclude != nil && b.options.Exclude(ref.SpelledPath) {
			result.Stats.IncludesExcluded++
			continue
		}

		resolved, ok := b.resolver.Resolve(ref.SpelledPath, dir)
		if !ok {
			placeholder := node.Target(paths.NormalizeSeparators(ref.SpelledPath), ref)
			g.AddEdge(src, placeholder)

			u := UnresolvedInclude{File: scan.path, Reference: ref}
			result.Unresolved = append(result.Unresolved, u)
			result.Stats.IncludesUnresolved++
			b.options.Reporter.Unresolved(u)

			b.logger.Debug("include unresolved",
				slog.String("file", scan.path),
				slog.String("include", ref.SpelledPath),
				slog.Bool("system", ref.IsSystem),
			)
			continue
		}

		g.AddEdge(src, node.Target(resolved, ref))
		result.Stats.IncludesResolved++
		b.logger.Debug("include resolved",
			slog.String("file", scan.path),
			slog.String("include", ref.SpelledPath),
			slog.String("resolved", resolved),
		)
	}
}

// reportProgress invokes the progress callback at intervals.
func (b *Builder) reportProgress(result *BuildResult, phase ProgressPhase, total, processed int) {
	if b.options.Progress == nil {
		return
	}
	if phase == ProgressPhaseScanning && processed%progressInterval != 0 {
		return
	}
	b.options.Progress(BuildProgress{
		Phase:          phase,
		FilesTotal:     total,
		FilesProcessed: processed,
		NodesCreated:   result.Graph.NodeCount(),
		EdgesCreated:   result.Graph.EdgeCount(),
	})
}

// dedupSorted returns the distinct candidates in lexical order.
func dedupSorted(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	files := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		files = append(files, c)
	}
	sort.Strings(files)
	return files
}
