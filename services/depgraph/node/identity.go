// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package node defines the identity of a tracked file in the include graph.
//
// A FileIdentity is a plain comparable value and is used directly as the
// key of a graph.KeyedGraph. Equality is field-wise: two spellings of the
// same file on disk are different identities unless path resolution made
// them textually identical first.
package node

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileIdentity identifies one node of the include graph.
//
// # Description
//
// Path is the resolved path of the file, or the separator-normalized
// spelled name when resolution failed. IsSystem records whether the file
// was reached through an angle-bracket include. Scanned source files are
// never system files.
//
// # Thread Safety
//
// FileIdentity is an immutable value type.
type FileIdentity struct {
	Path     string
	IsSystem bool
}

// IncludeReference is one include directive before resolution.
type IncludeReference struct {
	// SpelledPath is the text between the delimiters, exactly as written.
	SpelledPath string

	// IsSystem is true for <...> includes and false for "..." includes.
	IsSystem bool
}

// Source returns the identity of a scanned source file.
func Source(path string) FileIdentity {
	return FileIdentity{Path: path, IsSystem: false}
}

// Target returns the identity of an include target at path, keeping the
// classification of the directive that referenced it.
func Target(path string, ref IncludeReference) FileIdentity {
	return FileIdentity{Path: path, IsSystem: ref.IsSystem}
}

// BaseName returns the last element of the identity path.
//
// # Description
//
// Returns "" when the path has no usable file name (empty, ".", or a
// bare separator). Both slash styles are treated as separators so that
// unresolved Windows-style spellings still produce a readable name.
//
// # Outputs
//
//   - string: The file name, or "" if none can be derived.
func (id FileIdentity) BaseName() string {
	p := strings.TrimRight(id.Path, `/\`)
	if p == "" {
		return ""
	}
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	if p == "." || p == ".." {
		return ""
	}
	return p
}

// Key returns a stable string key for the identity.
//
// Used wherever a string hash is required, e.g. by cycle detection.
func (id FileIdentity) Key() string {
	if id.IsSystem {
		return "sys:" + id.Path
	}
	return "usr:" + id.Path
}

// RelativeTo returns the identity path relative to root.
//
// Falls back to the identity path when it is not below root or when the
// relation cannot be computed (unresolved placeholders).
func (id FileIdentity) RelativeTo(root string) string {
	if root == "" {
		return id.Path
	}
	rel, err := filepath.Rel(root, id.Path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return id.Path
	}
	return rel
}

// String implements fmt.Stringer.
func (id FileIdentity) String() string {
	if id.IsSystem {
		return fmt.Sprintf("<%s>", id.Path)
	}
	return fmt.Sprintf("%q", id.Path)
}
