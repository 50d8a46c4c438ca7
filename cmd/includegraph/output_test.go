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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputResult_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		cfg      OutputConfig
		findings bool
		wantCode int
		wantJSON bool
	}{
		{"text success", OutputConfig{}, false, CLIExitSuccess, false},
		{"text findings", OutputConfig{}, true, CLIExitFindings, false},
		{"json success", OutputConfig{JSON: true}, false, CLIExitSuccess, true},
		{"json quiet", OutputConfig{JSON: true, Quiet: true}, true, CLIExitFindings, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := OutputResult(&buf, tt.cfg, "scan", time.Now(), map[string]int{"n": 1}, tt.findings)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantJSON, buf.Len() > 0)
		})
	}
}

func TestOutputResult_Envelope(t *testing.T) {
	var buf bytes.Buffer
	OutputResult(&buf, OutputConfig{JSON: true, Compact: true}, "cycles", time.Now(), map[string]int{"count": 2}, true)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))

	var res struct {
		CommandResult
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.Equal(t, apiVersion, res.APIVersion)
	assert.Equal(t, "cycles", res.Command)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Data["count"])
}

func TestOutputError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	OutputError(&stdout, &stderr, false, "scan", errors.New("boom"))
	assert.Empty(t, stdout.String())
	assert.Equal(t, "Error: boom\n", stderr.String())

	stdout.Reset()
	stderr.Reset()
	OutputError(&stdout, &stderr, true, "scan", errors.New("boom"))
	assert.Empty(t, stderr.String())

	var res CommandResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "boom", res.Error)
}

func TestExitCodeOf(t *testing.T) {
	cause := errors.New("cause")

	assert.Equal(t, CLIExitSuccess, exitCodeOf(nil))
	assert.Equal(t, CLIExitError, exitCodeOf(cause))
	assert.Equal(t, CLIExitFindings, exitCodeOf(withCode(CLIExitFindings, nil)))
	assert.Equal(t, CLIExitSuccess, exitCodeOf(withCode(CLIExitSuccess, nil)))
	assert.Equal(t, CLIExitFindings, exitCodeOf(fmt.Errorf("wrapped: %w", withCode(CLIExitFindings, cause))))

	err := withCode(CLIExitError, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cause", err.Error())
	assert.Equal(t, "exit 1", withCode(1, nil).Error())
}
