// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config assembles the includegraph run configuration.
//
// Values are layered, lowest first: built-in defaults, the YAML config
// file, INCLUDEGRAPH_* environment variables (a .env file in the working
// directory is loaded first), then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Loader layers configuration sources into a Config.
//
// Thread Safety: Not safe for concurrent use. Create one per command run.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader primed with DefaultConfig and env lookup.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// setDefaults registers every config key so env and flags can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("src", d.Src)
	v.SetDefault("include", d.Include)
	v.SetDefault("quote_types", d.QuoteTypes)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("output", d.Output)
	v.SetDefault("paths", d.Paths)
	v.SetDefault("gitignore", d.Gitignore)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("lenient_encoding", d.LenientEncoding)
	v.SetDefault("resolver_cache_size", d.ResolverCacheSize)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("render.format", d.Render.Format)
	v.SetDefault("render.output", d.Render.Output)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("telemetry.trace_exporter", d.Telemetry.TraceExporter)
	v.SetDefault("telemetry.trace_file", d.Telemetry.TraceFile)
	v.SetDefault("telemetry.metric_exporter", d.Telemetry.MetricExporter)
	v.SetDefault("telemetry.metrics_file", d.Telemetry.MetricsFile)
	v.SetDefault("telemetry.otlp_endpoint", d.Telemetry.OTLPEndpoint)
}

// BindFlags binds command flags to config keys.
//
// # Inputs
//
//   - cmd: Command whose local and persistent flags are searched.
//   - bindings: Config key to flag name, e.g. "quote_types" to "quotetypes".
//
// # Outputs
//
//   - error: Non-nil if a named flag does not exist on cmd.
func (l *Loader) BindFlags(cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.InheritedFlags().Lookup(name)
		}
		if flag == nil {
			return fmt.Errorf("bind %s: flag --%s not defined", key, name)
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Load reads every source and returns the validated Config.
//
// # Description
//
// Loads .env from the working directory if present, then the YAML file
// at path. An empty path falls back to DefaultFileName in the working
// directory, which may be absent. An explicit path must exist.
//
// # Outputs
//
//   - *Config: The merged configuration.
//   - error: A read or decode failure, or *ValidationError.
func (l *Loader) Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}
	if path != "" {
		l.v.SetConfigFile(path)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Include = splitList(cfg.Include)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the YAML file that was read, or "".
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Marshal renders cfg as a YAML document.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// ErrConfigExists is returned by CreateDefault when the file is present.
var ErrConfigExists = errors.New("config file already exists")

// CreateDefault writes DefaultConfig as YAML to path.
//
// Parent directories are created. An existing file is left untouched
// unless force is set.
func CreateDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	return createDefault(path)
}

func createDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create the config directory %w", err)
		}
	}
	data, err := Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
