// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/AleutianAI/IncludeGraph/services/depgraph/node"
)

func TestIncludes(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     []node.IncludeReference
	}{
		{
			name:     "system include",
			contents: "#include <vector>\n",
			want:     []node.IncludeReference{{SpelledPath: "vector", IsSystem: true}},
		},
		{
			name:     "user include",
			contents: `#include "local.h"`,
			want:     []node.IncludeReference{{SpelledPath: "local.h", IsSystem: false}},
		},
		{
			name:     "leading and inner whitespace",
			contents: "  \t#  include\t\"sub/dir.h\"\n",
			want:     []node.IncludeReference{{SpelledPath: "sub/dir.h"}},
		},
		{
			name:     "no space before delimiter",
			contents: "#include<map>",
			want:     []node.IncludeReference{{SpelledPath: "map", IsSystem: true}},
		},
		{
			name: "anchors per line in multi-line text",
			contents: "int x;\n#include \"a.h\"\nvoid f();\n" +
				"#include <b.h>\r\n",
			want: []node.IncludeReference{
				{SpelledPath: "a.h"},
				{SpelledPath: "b.h", IsSystem: true},
			},
		},
		{
			name:     "commented out include is still reported",
			contents: "/*\n#include \"old.h\"\n*/\n#if 0\n#include \"dead.h\"\n#endif\n",
			want: []node.IncludeReference{
				{SpelledPath: "old.h"},
				{SpelledPath: "dead.h"},
			},
		},
		{
			name:     "trailing comment does not extend the path",
			contents: `#include "a.h" // see "b.h"`,
			want:     []node.IncludeReference{{SpelledPath: "a.h"}},
		},
		{
			name:     "not at start of line",
			contents: `int x; #include "a.h"`,
			want:     nil,
		},
		{
			name:     "line comment prefix",
			contents: `// #include "a.h"`,
			want:     nil,
		},
		{
			name:     "other directives",
			contents: "#pragma once\n#define INCLUDE 1\n#import <Foundation.h>\n",
			want:     nil,
		},
		{
			name:     "empty file",
			contents: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Includes(tt.contents)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Includes() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIncludesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cpp")
	if err := os.WriteFile(path, []byte("#include \"b.h\"\n#include <vector>\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	refs, err := IncludesFromFile(path, false)
	if err != nil {
		t.Fatalf("IncludesFromFile() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("len(refs) = %d, want 2", len(refs))
	}
}

func TestIncludesFromFile_Missing(t *testing.T) {
	_, err := IncludesFromFile(filepath.Join(t.TempDir(), "gone.cpp"), false)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestIncludesFromFile_InvalidEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.c")
	data := []byte("/* caf\xe9 */\n#include \"a.h\"\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := IncludesFromFile(path, false); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("strict error = %v, want ErrInvalidEncoding", err)
	}
	if _, err := IncludesFromFile(path, false); err != nil && strings.Contains(err.Error(), path) {
		t.Errorf("strict error = %q, should not repeat the path", err)
	}

	refs, err := IncludesFromFile(path, true)
	if err != nil {
		t.Fatalf("lenient error = %v", err)
	}
	if len(refs) != 1 || refs[0].SpelledPath != "a.h" {
		t.Errorf("lenient refs = %+v", refs)
	}
}
