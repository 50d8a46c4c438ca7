// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract finds #include directives in C and C++ source text.
//
// Matching is lexical. Comments, string literals and conditional
// compilation are not understood, so an include inside "#if 0" or a
// block comment is still reported.
package extract

import (
	"errors"
	"os"
	"regexp"
	"unicode/utf8"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

// ErrInvalidEncoding is returned when a file is not valid UTF-8 and
// lenient decoding was not requested.
var ErrInvalidEncoding = errors.New("file is not valid UTF-8")

// includePattern matches one directive per line.
//
// Group 1 holds an angle-bracket path, group 2 a quoted path. Exactly one
// of them participates in any match.
var includePattern = regexp.MustCompile(
	`(?m)^[[:blank:]]*#[[:blank:]]*include[[:blank:]]*(?:<([^>\r\n]*)>|"([^"\r\n]*)")`,
)

// Includes returns the include references in contents, in source order.
//
// # Description
//
// A directive is recognized at the start of any line, allowing blanks
// and tabs before '#' and around "include". The delimiter decides the
// classification: <...> is a system include, "..." a user include.
//
// # Inputs
//
//   - contents: Full text of one file.
//
// # Outputs
//
//   - []node.IncludeReference: Zero or more references. Nil when none match.
func Includes(contents string) []node.IncludeReference {
	matches := includePattern.FindAllStringSubmatchIndex(contents, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]node.IncludeReference, 0, len(matches))
	for _, m := range matches {
		// m[2:4] is the angle group, m[4:6] the quote group.
		if m[2] >= 0 {
			refs = append(refs, node.IncludeReference{
				SpelledPath: contents[m[2]:m[3]],
				IsSystem:    true,
			})
			continue
		}
		refs = append(refs, node.IncludeReference{
			SpelledPath: contents[m[4]:m[5]],
			IsSystem:    false,
		})
	}
	return refs
}

// IncludesFromFile reads path and extracts its include references.
//
// # Inputs
//
//   - path: File to read.
//   - lenient: Accept content that is not valid UTF-8.
//
// # Outputs
//
//   - []node.IncludeReference: References in source order.
//   - error: Read failure, or ErrInvalidEncoding when !lenient.
func IncludesFromFile(path string, lenient bool) ([]node.IncludeReference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !lenient && !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	return Includes(string(data)), nil
}
