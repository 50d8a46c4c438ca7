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

import "sync"

// Reporter receives per-file diagnostics as they happen.
//
// # Description
//
// The builder calls Reporter methods from a single goroutine, in the
// order files are inserted into the graph. Implementations must not
// block for long; they run inline with the scan.
type Reporter interface {
	// FileFailed is called once for each file that could not be read.
	FileFailed(err FileError)

	// Unresolved is called once for each include that matched no file.
	Unresolved(u UnresolvedInclude)
}

// NopReporter discards all diagnostics.
type NopReporter struct{}

// FileFailed is a no-op.
func (NopReporter) FileFailed(FileError) {}

// Unresolved is a no-op.
func (NopReporter) Unresolved(UnresolvedInclude) {}

var _ Reporter = NopReporter{}

// CollectingReporter records diagnostics in memory.
//
// Useful for testing:
//
//	rep := &builder.CollectingReporter{}
//	b := builder.NewBuilder(builder.WithReporter(rep))
type CollectingReporter struct {
	mu         sync.Mutex
	fileErrors []FileError
	unresolved []UnresolvedInclude
}

// FileFailed records err.
func (r *CollectingReporter) FileFailed(err FileError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fileErrors = append(r.fileErrors, err)
}

// Unresolved records u.
func (r *CollectingReporter) Unresolved(u UnresolvedInclude) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unresolved = append(r.unresolved, u)
}

// FileErrors returns a copy of the recorded file errors.
func (r *CollectingReporter) FileErrors() []FileError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FileError(nil), r.fileErrors...)
}

// UnresolvedIncludes returns a copy of the recorded unresolved includes.
func (r *CollectingReporter) UnresolvedIncludes() []UnresolvedInclude {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]UnresolvedInclude(nil), r.unresolved...)
}

var _ Reporter = (*CollectingReporter)(nil)
