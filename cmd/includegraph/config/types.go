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

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = ".includegraph.yaml"

// EnvPrefix prefixes every environment override, e.g. INCLUDEGRAPH_WORKERS.
const EnvPrefix = "INCLUDEGRAPH"

// Config is the effective configuration of one run.
type Config struct {
	// Src is the root directory to scan.
	Src string `yaml:"src" mapstructure:"src" validate:"required"`

	// Include is the ordered list of extra search paths.
	Include []string `yaml:"include" mapstructure:"include"`

	// QuoteTypes selects which includes are followed: both, angle or quote.
	QuoteTypes string `yaml:"quote_types" mapstructure:"quote_types" validate:"oneof=both angle quote"`

	// Exclude is a regular expression over file and include names.
	Exclude string `yaml:"exclude" mapstructure:"exclude"`

	// Output is the DOT file path. "-" writes to stdout.
	Output string `yaml:"output" mapstructure:"output" validate:"required"`

	// Paths labels nodes with root-relative paths instead of base names.
	Paths bool `yaml:"paths" mapstructure:"paths"`

	// Gitignore skips files matched by the root .gitignore.
	Gitignore bool `yaml:"gitignore" mapstructure:"gitignore"`

	// Workers is the number of parallel file scanners.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"min=1,max=256"`

	// LenientEncoding accepts files that are not valid UTF-8.
	LenientEncoding bool `yaml:"lenient_encoding" mapstructure:"lenient_encoding"`

	// ResolverCacheSize bounds the path resolution memo. 0 disables it.
	ResolverCacheSize int `yaml:"resolver_cache_size" mapstructure:"resolver_cache_size" validate:"min=0"`

	// Strict turns file errors and unresolved includes into exit code 1.
	Strict bool `yaml:"strict" mapstructure:"strict"`

	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// RenderConfig controls the optional Graphviz step.
type RenderConfig struct {
	// Format is pdf, png or svg. Empty skips rendering.
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=pdf png svg"`

	// Output is the image path. Empty derives it from the DOT path.
	Output string `yaml:"output" mapstructure:"output"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
	Dir   string `yaml:"dir" mapstructure:"dir"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" mapstructure:"trace_exporter" validate:"oneof=none stdout otlp"`
	TraceFile      string `yaml:"trace_file" mapstructure:"trace_file"`
	MetricExporter string `yaml:"metric_exporter" mapstructure:"metric_exporter" validate:"oneof=none stdout prometheus"`
	MetricsFile    string `yaml:"metrics_file" mapstructure:"metrics_file"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Src:               ".",
		Include:           []string{},
		QuoteTypes:        "both",
		Output:            "graph.dot",
		Workers:           1,
		ResolverCacheSize: 4096,
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}
