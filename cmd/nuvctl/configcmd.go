// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	var format string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and print the effective result",
		Long:  "Load defaults, the config file and NUVCTL_* overrides, validate them and print the effective configuration with secrets masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(io.Discard); err != nil {
				return err
			}
			redacted := c.cfg.Redacted()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(c.stdout)
				enc.SetIndent(2)
				if err := enc.Encode(redacted); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(redacted)
			default:
				return fmt.Errorf("unsupported format %q (supported: yaml, json)", format)
			}
		},
	}
	validate.Flags().StringVar(&format, "format", "yaml", "output format (yaml or json)")

	cmd.AddCommand(validate)
	return cmd
}
