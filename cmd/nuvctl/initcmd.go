// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ManuGH/nuvctl/internal/connection"
	"github.com/ManuGH/nuvctl/internal/journal"
	"github.com/ManuGH/nuvctl/internal/session"
)

type initReport struct {
	Outcome  session.Outcome         `json:"outcome"`
	Commands []session.CommandResult `json:"commands,omitempty"`
	Journal  []journal.Entry         `json:"journal"`
}

func (c *cli) newInitCmd() *cobra.Command {
	var (
		ff                      formFlags
		play, pause, toggleMute bool
		asJSON                  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a player once and optionally send commands",
		Long: "Initialize a player against the given receiver, then forward play, pause or mute " +
			"in that order when requested. The session journal is printed at the end. Exits 1 " +
			"when no player became active or a forwarded command failed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(c.stderr); err != nil {
				return err
			}
			cfg, err := connection.ParseForm(ff.resolve(cmd.Flags(), c.cfg.Connection))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			mgr := session.New(c.library(), c.cfg.Player.Driver,
				session.WithJournal(journal.New(c.cfg.Journal.Capacity)),
				session.WithProbeTimeout(c.cfg.Probe.Timeout),
			)
			defer mgr.Close(context.WithoutCancel(ctx))

			report := initReport{Outcome: mgr.Initialize(ctx, cfg)}
			failed := report.Outcome.State != session.StateActive
			if !failed {
				for _, step := range []struct {
					on  bool
					run func(context.Context) session.CommandResult
				}{
					{play, mgr.Play},
					{pause, mgr.Pause},
					{toggleMute, mgr.ToggleMute},
				} {
					if !step.on {
						continue
					}
					res := step.run(ctx)
					report.Commands = append(report.Commands, res)
					failed = failed || res.Err != nil
				}
			}

			// The journal reads newest first; print it in the order things happened.
			report.Journal = mgr.Journal().Entries()
			slices.Reverse(report.Journal)

			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(c.stdout, journal.Render(report.Journal))
				fmt.Fprintf(c.stdout, "state: %s\n", report.Outcome.State)
			}
			if failed {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	ff.bind(cmd.Flags(), true)
	cmd.Flags().BoolVar(&play, "play", false, "send play after initializing")
	cmd.Flags().BoolVar(&pause, "pause", false, "send pause after initializing")
	cmd.Flags().BoolVar(&toggleMute, "toggle-mute", false, "toggle mute after initializing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON report")
	return cmd
}
