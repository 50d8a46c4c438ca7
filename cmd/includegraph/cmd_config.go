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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/IncludeGraph/cmd/includegraph/config"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the includegraph configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration as YAML",
		Long: `Init writes the built-in defaults to path (default ./` + config.DefaultFileName + `).
An existing file is kept unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateDefault(path, force); err != nil {
				OutputError(a.stdout, a.stderr, a.jsonOutput, "config init", err)
				return withCode(CLIExitError, nil)
			}
			if !a.quiet && !a.jsonOutput {
				fmt.Fprintf(a.stdout, "Wrote default configuration to %s\n", path)
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Show merges defaults, the config file, INCLUDEGRAPH_* environment
variables and flags, validates the result and prints it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			if err := loader.BindFlags(cmd, rootFlagBindings); err != nil {
				OutputError(a.stdout, a.stderr, a.jsonOutput, "config show", err)
				return withCode(CLIExitError, nil)
			}
			cfg, err := loader.Load(a.configPath)
			if err != nil {
				OutputError(a.stdout, a.stderr, a.jsonOutput, "config show", err)
				return withCode(CLIExitError, nil)
			}
			data, err := config.Marshal(*cfg)
			if err != nil {
				OutputError(a.stdout, a.stderr, a.jsonOutput, "config show", err)
				return withCode(CLIExitError, nil)
			}
			if used := loader.ConfigFileUsed(); used != "" {
				fmt.Fprintf(a.stdout, "# from %s\n", used)
			}
			_, _ = a.stdout.Write(data)
			return nil
		},
	}

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}
