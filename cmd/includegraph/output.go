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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Operation completed successfully
	CLIExitFindings = 1 // Completed with findings (strict diagnostics, cycles)
	CLIExitError    = 2 // Operation failed
)

// apiVersion is the version of the JSON result envelope.
const apiVersion = "1.0"

// OutputConfig controls output behavior.
type OutputConfig struct {
	JSON    bool // Output as JSON
	Compact bool // No indentation
	Quiet   bool // No output, exit code only
}

// CommandResult wraps command output with metadata.
type CommandResult struct {
	APIVersion string    `json:"api_version"`
	Command    string    `json:"command"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Data       any       `json:"data,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// OutputJSON writes data as JSON to w.
//
// # Inputs
//
//   - w: Destination, normally stdout.
//   - data: The data to encode. Must be JSON-serializable.
//   - compact: If true, output without indentation.
//
// # Outputs
//
//   - error: Non-nil if encoding fails.
func OutputJSON(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// OutputError writes an error as a JSON envelope or a stderr line.
func OutputError(stdout, stderr io.Writer, jsonMode bool, command string, err error) {
	if jsonMode {
		_ = OutputJSON(stdout, CommandResult{
			APIVersion: apiVersion,
			Command:    command,
			Timestamp:  time.Now(),
			Success:    false,
			Error:      err.Error(),
		}, false)
		return
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
}

// OutputResult writes the JSON envelope when requested and picks the exit code.
//
// # Inputs
//
//   - stdout: Destination for JSON.
//   - cfg: Output configuration.
//   - cmd: Command name for metadata.
//   - start: Start time for duration calculation.
//   - data: The data to output.
//   - hasFindings: Whether the operation found issues (for exit code).
//
// # Outputs
//
//   - int: The exit code to use.
func OutputResult(stdout io.Writer, cfg OutputConfig, cmd string, start time.Time, data any, hasFindings bool) int {
	if cfg.JSON && !cfg.Quiet {
		result := CommandResult{
			APIVersion: apiVersion,
			Command:    cmd,
			Timestamp:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
			Success:    true,
			Data:       data,
		}
		if err := OutputJSON(stdout, result, cfg.Compact); err != nil {
			return CLIExitError
		}
	}

	if hasFindings {
		return CLIExitFindings
	}
	return CLIExitSuccess
}

// exitError carries a non-zero exit code out of a cobra RunE.
//
// A nil Err means the command already reported its outcome and only the
// code matters.
type exitError struct {
	Code int
	Err  error
}

func (e *exitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return e.Err.Error()
}

func (e *exitError) Unwrap() error {
	return e.Err
}

// withCode wraps err so that execute exits with code.
func withCode(code int, err error) error {
	return &exitError{Code: code, Err: err}
}

// exitCodeOf maps a RunE error to a process exit code.
func exitCodeOf(err error) int {
	if err == nil {
		return CLIExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return CLIExitError
}
