// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package paths resolves include references to files on disk.
//
// Resolution joins the separator-normalized reference against the including
// file's directory first and then against each search path in order. The
// first candidate that exists wins. No symlink or ".." canonicalization is
// performed beyond what filepath.Join does.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of memoized resolutions.
const DefaultCacheSize = 4096

// StatFunc reports whether a path exists.
type StatFunc func(path string) bool

// NormalizeSeparators rewrites both '/' and '\' to the host separator.
//
// # Description
//
// Include directives may be spelled with either slash style regardless of
// the host operating system. The result is not cleaned; "a//b" stays as
// written apart from the separator character.
func NormalizeSeparators(p string) string {
	sep := string(filepath.Separator)
	return strings.NewReplacer("/", sep, `\`, sep).Replace(p)
}

// Resolve resolves a single reference without memoization.
//
// # Description
//
// Tries sourceDir first, then each searchPaths entry in order, returning
// the first joined path that exists. An absolute reference is probed
// as-is and search paths are not consulted.
//
// # Inputs
//
//   - reference: The spelled include path.
//   - sourceDir: Directory of the including file.
//   - searchPaths: Ordered extra search directories.
//
// # Outputs
//
//   - string: The resolved path.
//   - bool: False if no candidate exists.
func Resolve(reference, sourceDir string, searchPaths []string) (string, bool) {
	return resolve(reference, sourceDir, searchPaths, exists)
}

func resolve(reference, sourceDir string, searchPaths []string, stat StatFunc) (string, bool) {
	normalized := NormalizeSeparators(reference)
	if normalized == "" {
		return "", false
	}

	if filepath.IsAbs(normalized) {
		if stat(normalized) {
			return normalized, true
		}
		return "", false
	}

	local := filepath.Join(sourceDir, normalized)
	if stat(local) {
		return local, true
	}

	for _, prefix := range searchPaths {
		candidate := filepath.Join(prefix, normalized)
		if stat(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	cacheSize int
	stat      StatFunc
}

// WithCacheSize sets the memo capacity. n <= 0 disables memoization.
func WithCacheSize(n int) ResolverOption {
	return func(o *resolverOptions) {
		o.cacheSize = n
	}
}

// WithStat replaces the filesystem existence probe.
func WithStat(fn StatFunc) ResolverOption {
	return func(o *resolverOptions) {
		if fn != nil {
			o.stat = fn
		}
	}
}

type cacheKey struct {
	reference string
	sourceDir string
}

type cacheEntry struct {
	path string
	ok   bool
}

// Resolver resolves references against a fixed search path list.
//
// # Description
//
// Resolver memoizes results per (reference, sourceDir) pair in a bounded
// LRU. A memoized answer is identical to what Resolve would return at the
// time it was first computed; files created during a scan are not seen
// for pairs already cached.
//
// # Thread Safety
//
// Resolver is safe for concurrent use. The underlying LRU is locked.
type Resolver struct {
	searchPaths []string
	stat        StatFunc
	cache       *lru.Cache[cacheKey, cacheEntry]
}

// NewResolver creates a Resolver for the given search paths.
//
// # Inputs
//
//   - searchPaths: Ordered extra search directories. Copied.
//   - opts: Optional configuration.
//
// # Outputs
//
//   - *Resolver: Ready for use.
func NewResolver(searchPaths []string, opts ...ResolverOption) *Resolver {
	o := resolverOptions{
		cacheSize: DefaultCacheSize,
		stat:      exists,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Resolver{
		searchPaths: append([]string(nil), searchPaths...),
		stat:        o.stat,
	}
	if o.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		r.cache, _ = lru.New[cacheKey, cacheEntry](o.cacheSize)
	}
	return r
}

// SearchPaths returns a copy of the configured search paths.
func (r *Resolver) SearchPaths() []string {
	return append([]string(nil), r.searchPaths...)
}

// Resolve resolves reference as seen from a file in sourceDir.
func (r *Resolver) Resolve(reference, sourceDir string) (string, bool) {
	if r.cache == nil {
		return resolve(reference, sourceDir, r.searchPaths, r.stat)
	}

	key := cacheKey{reference: reference, sourceDir: sourceDir}
	if entry, ok := r.cache.Get(key); ok {
		return entry.path, entry.ok
	}

	path, ok := resolve(reference, sourceDir, r.searchPaths, r.stat)
	r.cache.Add(key, cacheEntry{path: path, ok: ok})
	return path, ok
}

// CacheLen returns the number of memoized resolutions.
func (r *Resolver) CacheLen() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}
