// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/nuvctl/internal/connection"
	"github.com/ManuGH/nuvctl/internal/probe"
)

func (c *cli) newProbeCmd() *cobra.Command {
	var (
		ff      formFlags
		timeout time.Duration
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Test connectivity to a receiver origin",
		Long:  "Fetch the origin's favicon once and report whether it answered in time. Exits 1 when it did not.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(c.stderr); err != nil {
				return err
			}
			cfg, err := connection.ParseForm(ff.resolve(cmd.Flags(), c.cfg.Connection))
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = c.cfg.Probe.Timeout
			}

			res := probe.New().Probe(cmd.Context(), cfg.Origin(), timeout)
			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else if res.OK {
				fmt.Fprintf(c.stdout, "OK %s (%d ms)\n", cfg.Origin(), res.Latency.Milliseconds())
			} else {
				fmt.Fprintf(c.stdout, "FAIL %s: %s\n", cfg.Origin(), res.Reason)
			}
			if !res.OK {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	ff.bind(cmd.Flags(), false)
	cmd.Flags().DurationVar(&timeout, "timeout", probe.DefaultTimeout, "probe timeout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
