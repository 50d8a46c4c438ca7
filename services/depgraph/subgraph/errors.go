// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package subgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

// Sentinel errors for root selection and extraction.
var (
	ErrFileNotFound  = errors.New("file not found in graph")
	ErrFileAmbiguous = errors.New("file name is ambiguous")
	ErrUnknownMode   = errors.New("unknown subgraph mode")
)

// NotFoundError reports a name that matched no node.
type NotFoundError struct {
	Input string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file %q not found in graph", e.Input)
}

// Unwrap returns the sentinel error.
func (e *NotFoundError) Unwrap() error {
	return ErrFileNotFound
}

// AmbiguousFileError reports a name that matched several nodes.
type AmbiguousFileError struct {
	Input   string
	Matches []node.FileIdentity
}

// Error implements the error interface.
func (e *AmbiguousFileError) Error() string {
	paths := make([]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		paths = append(paths, m.Path)
	}
	return fmt.Sprintf("file %q is ambiguous (%d matches: %s); pass a longer path",
		e.Input, len(e.Matches), strings.Join(paths, ", "))
}

// Unwrap returns the sentinel error.
func (e *AmbiguousFileError) Unwrap() error {
	return ErrFileAmbiguous
}
