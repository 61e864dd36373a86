// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ManuGH/nuvctl/internal/config"
	xglog "github.com/ManuGH/nuvctl/internal/log"
	"github.com/ManuGH/nuvctl/internal/player"
	"github.com/ManuGH/nuvctl/internal/player/enigma2"
	"github.com/ManuGH/nuvctl/internal/version"
)

// cli holds state shared by all subcommands.
type cli struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	logLevel   string

	loader *config.Loader
	cfg    config.AppConfig
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "nuvctl",
		Short:         "Control a network video player session",
		Long:          "nuvctl initializes a player against a receiver origin, forwards playback commands and exposes the session over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv(config.EnvPrefix+"CONFIG"), "path to config file (YAML)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		c.newServeCmd(),
		c.newProbeCmd(),
		c.newInitCmd(),
		c.newConfigCmd(),
		c.newVersionCmd(),
	)
	return root
}

// load reads configuration and configures logging. Logs go to logOut so
// commands that print results keep stdout clean.
func (c *cli) load(logOut io.Writer) error {
	c.loader = config.NewLoader(strings.TrimSpace(c.configPath), version.Version)
	cfg, err := c.loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	c.cfg = cfg

	xglog.Configure(xglog.Config{
		Level:   cfg.Log.Level,
		Output:  logOut,
		Service: cfg.Log.Service,
		Version: version.Version,
	})
	return nil
}

// library returns the player libraries known to this build.
func (c *cli) library() *player.Library {
	lib := player.NewLibrary()
	enigma2.Register(lib, enigma2.Settings{
		Timeout:   c.cfg.Player.Timeout,
		RateLimit: rate.Limit(c.cfg.Player.RateLimit),
		Burst:     c.cfg.Player.Burst,
		UserAgent: "nuvctl/" + version.Version,
	})
	return lib
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(c.stdout, version.String())
			return nil
		},
	}
}
