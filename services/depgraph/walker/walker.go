// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package walker enumerates the C and C++ files under a root directory.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Sentinel errors for walking. Both are configuration errors.
var (
	ErrRootNotFound     = errors.New("source root does not exist")
	ErrRootNotDirectory = errors.New("source root is not a directory")
)

// DefaultExtensions are the file extensions scanned by default.
var DefaultExtensions = []string{"c", "cc", "cpp", "cxx", "h", "hpp", "hxx"}

// Options configures Walk.
type Options struct {
	// Extensions without the leading dot. Matched case-sensitively.
	Extensions []string

	// Exclude drops files whose base name matches. Nil keeps all.
	Exclude *regexp.Regexp

	// Gitignore honours <root>/.gitignore when present.
	Gitignore bool

	// Logger receives skipped-directory warnings.
	Logger *slog.Logger
}

// Option is a functional option for Walk.
type Option func(*Options)

// WithExtensions adds extensions to the default set.
func WithExtensions(exts ...string) Option {
	return func(o *Options) {
		for _, e := range exts {
			o.Extensions = append(o.Extensions, strings.TrimPrefix(e, "."))
		}
	}
}

// WithExclude sets the base-name exclude pattern.
func WithExclude(re *regexp.Regexp) Option {
	return func(o *Options) {
		o.Exclude = re
	}
}

// WithGitignore enables .gitignore filtering.
func WithGitignore(enabled bool) Option {
	return func(o *Options) {
		o.Gitignore = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Walk returns the candidate source files below root.
//
// # Description
//
// Walks root recursively and keeps regular files, and symlinks to regular
// files, whose extension is in the configured set and whose base name does not match the exclude
// pattern. Subdirectories that cannot be read are logged and skipped.
// With gitignore enabled, paths matched by <root>/.gitignore are pruned.
//
// # Inputs
//
//   - ctx: Context for cancellation. Must not be nil.
//   - root: Directory to scan.
//   - opts: Optional configuration.
//
// # Outputs
//
//   - []string: Candidate paths, sorted.
//   - error: ErrRootNotFound or ErrRootNotDirectory for a bad root, a
//     .gitignore parse failure, or ctx.Err() on cancellation.
func Walk(ctx context.Context, root string, opts ...Option) ([]string, error) {
	o := Options{Extensions: append([]string(nil), DefaultExtensions...)}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("stat source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}

	exts := make(map[string]struct{}, len(o.Extensions))
	for _, e := range o.Extensions {
		exts[e] = struct{}{}
	}

	var gi *ignore.GitIgnore
	if o.Gitignore {
		gi, err = loadGitignore(root)
		if err != nil {
			return nil, err
		}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Warn("skipping unreadable path",
				slog.String("path", path),
				slog.String("error", walkErr.Error()),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if gi != nil && path != root {
			if rel, relErr := filepath.Rel(root, path); relErr == nil && gi.MatchesPath(filepath.ToSlash(rel)) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			target, statErr := os.Stat(path)
			if statErr != nil || !target.Mode().IsRegular() {
				logger.Debug("skipping symlink",
					slog.String("path", path),
					slog.Bool("dangling", statErr != nil),
				)
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if _, ok := exts[ext]; !ok {
			return nil
		}
		if o.Exclude != nil && o.Exclude.MatchString(d.Name()) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func loadGitignore(root string) (*ignore.GitIgnore, error) {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat .gitignore: %w", err)
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return gi, nil
}
