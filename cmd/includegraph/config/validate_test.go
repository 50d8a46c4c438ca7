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
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("Validate(DefaultConfig()) error = %v", err)
	}
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty src", func(c *Config) { c.Src = "" }, "src"},
		{"bad quote types", func(c *Config) { c.QuoteTypes = "single" }, "quote_types"},
		{"empty output", func(c *Config) { c.Output = "" }, "output"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"too many workers", func(c *Config) { c.Workers = 1000 }, "workers"},
		{"negative cache", func(c *Config) { c.ResolverCacheSize = -1 }, "resolver_cache_size"},
		{"bad render format", func(c *Config) { c.Render.Format = "gif" }, "render.format"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad trace exporter", func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, "telemetry.trace_exporter"},
		{"bad metric exporter", func(c *Config) { c.Telemetry.MetricExporter = "statsd" }, "telemetry.metric_exporter"},
		{"bad exclude", func(c *Config) { c.Exclude = "(unclosed" }, "exclude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := Validate(&cfg)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if len(verr.Problems) != 1 || verr.Problems[0].Field != tt.field {
				t.Errorf("Problems = %+v, want one on %q", verr.Problems, tt.field)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Error() = %q, want mention of %q", err.Error(), tt.field)
			}
		})
	}
}

func TestValidate_EmptyRenderFormatAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Render.Format = ""
	cfg.Exclude = `^test_.*\.h$`
	if err := Validate(&cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestFieldKey(t *testing.T) {
	tests := map[string]string{
		"Config.QuoteTypes":               "quote_types",
		"Config.Render.Format":            "render.format",
		"Config.Telemetry.MetricExporter": "telemetry.metric_exporter",
		"Config.Src":                      "src",
		"Config.Log.Level":                "log.level",
	}
	for in, want := range tests {
		if got := fieldKey(in); got != want {
			t.Errorf("fieldKey(%q) = %q, want %q", in, got, want)
		}
	}
}
