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
	"errors"
	"fmt"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/graph"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

// Sentinel errors for graph building.
var (
	ErrNilContext        = errors.New("ctx must not be nil")
	ErrInvalidQuoteTypes = errors.New("invalid quote types")
)

// FileError represents a file that could not be read during a build.
type FileError struct {
	// FilePath is the path of the file that failed.
	FilePath string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e FileError) Error() string {
	return fmt.Sprintf("file %s: %v", e.FilePath, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e FileError) Unwrap() error {
	return e.Err
}

// UnresolvedInclude records an include that matched no file on disk.
type UnresolvedInclude struct {
	// File is the including file.
	File string

	// Reference is the directive as spelled.
	Reference node.IncludeReference
}

// BuildStats contains statistics about a build operation.
type BuildStats struct {
	// FilesProcessed is the number of files read and scanned.
	FilesProcessed int

	// FilesFailed is the number of files skipped because of read errors.
	FilesFailed int

	// IncludesFound is the number of directives matched in scanned files.
	IncludesFound int

	// IncludesFiltered is the number dropped by the include policy.
	IncludesFiltered int

	// IncludesExcluded is the number dropped by the exclude filter.
	IncludesExcluded int

	// IncludesResolved is the number resolved to a file on disk.
	IncludesResolved int

	// IncludesUnresolved is the number recorded against a placeholder node.
	IncludesUnresolved int

	// NodesCreated is the number of nodes in the resulting graph.
	NodesCreated int

	// EdgesCreated is the number of edges in the resulting graph.
	EdgesCreated int

	// DurationMilli is the total build time in milliseconds.
	DurationMilli int64

	// DurationMicro is the total build time in microseconds.
	DurationMicro int64
}

// BuildResult contains the result of a graph build.
//
// Builds are resilient: a file that cannot be read is recorded in
// FileErrors and skipped, and the rest of the tree is still scanned.
type BuildResult struct {
	// Graph is the include graph. Partial if Incomplete is true.
	Graph *graph.KeyedGraph[node.FileIdentity]

	// FileErrors lists files that were skipped. They have no node.
	FileErrors []FileError

	// Unresolved lists includes that were recorded against placeholders.
	Unresolved []UnresolvedInclude

	// Stats contains build statistics.
	Stats BuildStats

	// Incomplete is true if the build was cancelled via context.
	Incomplete bool
}

// HasErrors returns true if any file error or unresolved include occurred.
func (r *BuildResult) HasErrors() bool {
	return len(r.FileErrors) > 0 || len(r.Unresolved) > 0
}

// TotalErrors returns the file error count plus the unresolved count.
func (r *BuildResult) TotalErrors() int {
	return len(r.FileErrors) + len(r.Unresolved)
}
