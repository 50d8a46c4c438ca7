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
	"io"
	"sync"

	"github.com/AleutianAI/IncludeGraph/pkg/logging"
	"github.com/AleutianAI/IncludeGraph/services/depgraph/builder"
)

// consoleReporter prints per-file diagnostics as plain lines.
//
// File failures are also logged at Warn so the log file carries them.
//
// Thread Safety: Safe for concurrent use.
type consoleReporter struct {
	w      io.Writer
	style  palette
	logger *logging.Logger
	quiet  bool

	mu         sync.Mutex
	failed     int
	unresolved int
}

func newConsoleReporter(w io.Writer, logger *logging.Logger, quiet bool) *consoleReporter {
	return &consoleReporter{
		w:      w,
		style:  paletteFor(w),
		logger: logger,
		quiet:  quiet,
	}
}

// FileFailed prints "Unable to process file X: cause".
func (r *consoleReporter) FileFailed(fe builder.FileError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failed++
	r.logger.Warn("file skipped", "file", fe.FilePath, "error", fe.Err)
	if r.quiet {
		return
	}
	fmt.Fprintln(r.w, r.style.Error.Render(fmt.Sprintf("Unable to process file %q: %v", fe.FilePath, fe.Err)))
}

// Unresolved prints the including file and the reference it used.
func (r *consoleReporter) Unresolved(u builder.UnresolvedInclude) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unresolved++
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "In file %q\n", u.File)
	fmt.Fprintln(r.w, r.style.Warning.Render(fmt.Sprintf("Unable to locate include %q", u.Reference.SpelledPath)))
	fmt.Fprintln(r.w)
}

// Counts returns the number of file failures and unresolved includes seen.
func (r *consoleReporter) Counts() (failed, unresolved int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed, r.unresolved
}

var _ builder.Reporter = (*consoleReporter)(nil)
