// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is the sentinel wrapped by every ValidationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// configValidate is the validator instance for Config.
// Initialized in init() with custom validators.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()

	// Register custom validator for the exclude pattern
	_ = configValidate.RegisterValidation("regexp", validateRegexp)
}

// validateRegexp reports whether a string field compiles as a Go regexp.
func validateRegexp(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

// FieldProblem is one failed validation rule.
type FieldProblem struct {
	// Field is the config key, e.g. "quote_types" or "render.format".
	Field string

	// Rule is the validator tag that failed.
	Rule string

	// Value is the rejected value.
	Value any
}

// ValidationError lists every problem found in a Config.
//
// # Example
//
//	var verr *config.ValidationError
//	if errors.As(err, &verr) {
//	    for _, p := range verr.Problems { ... }
//	}
type ValidationError struct {
	Problems []FieldProblem
}

// Error returns a one-line summary of all problems.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %v fails %q", p.Field, p.Value, p.Rule))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

// Unwrap returns ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks cfg against its struct tags and the exclude pattern.
//
// # Outputs
//
//   - error: *ValidationError listing every problem, or nil.
func Validate(cfg *Config) error {
	var problems []FieldProblem

	if err := configValidate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, FieldProblem{
				Field: fieldKey(fe.Namespace()),
				Rule:  fe.Tag(),
				Value: fe.Value(),
			})
		}
	}

	if cfg.Exclude != "" {
		if err := configValidate.Var(cfg.Exclude, "regexp"); err != nil {
			problems = append(problems, FieldProblem{Field: "exclude", Rule: "regexp", Value: cfg.Exclude})
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// keyNames maps Go struct field names to config keys.
var keyNames = map[string]string{
	"Src":               "src",
	"QuoteTypes":        "quote_types",
	"Output":            "output",
	"Workers":           "workers",
	"ResolverCacheSize": "resolver_cache_size",
	"Render":            "render",
	"Format":            "format",
	"Log":               "log",
	"Level":             "level",
	"Telemetry":         "telemetry",
	"TraceExporter":     "trace_exporter",
	"MetricExporter":    "metric_exporter",
}

// fieldKey turns "Config.Render.Format" into "render.format".
func fieldKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if k, ok := keyNames[p]; ok {
			parts[i] = k
		} else {
			parts[i] = strings.ToLower(p)
		}
	}
	return strings.Join(parts, ".")
}
