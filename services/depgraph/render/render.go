// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package render turns a DOT file into an image with Graphviz.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultTool is the Graphviz layout command.
const DefaultTool = "dot"

// Formats lists the supported output formats.
var Formats = []string{"pdf", "png", "svg"}

// Sentinel errors for rendering.
var (
	ErrRenderFailed      = errors.New("render failed")
	ErrUnsupportedFormat = errors.New("unsupported render format")
)

// RenderError wraps a Graphviz failure with stderr context.
//
// # Example
//
//	var rerr *render.RenderError
//	if errors.As(err, &rerr) {
//	    fmt.Println(rerr.Stderr)
//	}
type RenderError struct {
	// Command is the command line that was executed.
	Command string

	// ExitCode is the process exit code (-1 if the tool did not run).
	ExitCode int

	// Stderr contains the tool's standard error output, trimmed.
	Stderr string

	// Wrapped is the underlying error.
	Wrapped error
}

// Error returns a formatted error message.
func (e *RenderError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s (exit %d): %s", e.Command, e.ExitCode, e.Stderr)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s (exit %d): %v", e.Command, e.ExitCode, e.Wrapped)
	}
	return fmt.Sprintf("%s (exit %d)", e.Command, e.ExitCode)
}

// Unwrap returns the sentinel plus the underlying error.
func (e *RenderError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{ErrRenderFailed}
	}
	return []error{ErrRenderFailed, e.Wrapped}
}

// Options configures Render.
type Options struct {
	// Tool is the Graphviz executable. Defaults to DefaultTool.
	Tool string
}

// ValidateFormat reports whether format is supported.
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedFormat, format, strings.Join(Formats, ", "))
}

// Render runs "dot -T<format> <dotPath> -o <outPath>".
//
// # Description
//
// The DOT file is left in place whether or not rendering succeeds.
//
// # Inputs
//
//   - ctx: Context for cancellation. Kills the tool when done.
//   - dotPath: Existing DOT file.
//   - format: One of Formats.
//   - outPath: Destination image path.
//   - opts: Optional tool override.
//
// # Outputs
//
//   - error: ErrUnsupportedFormat, or *RenderError if the tool is
//     missing or exits non-zero.
func Render(ctx context.Context, dotPath, format, outPath string, opts Options) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}

	tool := opts.Tool
	if tool == "" {
		tool = DefaultTool
	}
	args := []string{"-T" + format, dotPath, "-o", outPath}
	cmdline := tool + " " + strings.Join(args, " ")

	bin, err := exec.LookPath(tool)
	if err != nil {
		return &RenderError{Command: cmdline, ExitCode: -1, Wrapped: err}
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &RenderError{
			Command:  cmdline,
			ExitCode: code,
			Stderr:   strings.TrimSpace(stderr.String()),
			Wrapped:  err,
		}
	}
	return nil
}

// OutputPath derives the image path for dotPath and format.
//
// "graph.dot" with "pdf" becomes "graph.pdf".
func OutputPath(dotPath, format string) string {
	base := strings.TrimSuffix(dotPath, ".dot")
	return base + "." + format
}
