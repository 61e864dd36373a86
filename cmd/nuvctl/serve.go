// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/nuvctl/internal/api"
	"github.com/ManuGH/nuvctl/internal/config"
	"github.com/ManuGH/nuvctl/internal/connection"
	"github.com/ManuGH/nuvctl/internal/control/middleware"
	"github.com/ManuGH/nuvctl/internal/daemon"
	"github.com/ManuGH/nuvctl/internal/health"
	"github.com/ManuGH/nuvctl/internal/journal"
	xglog "github.com/ManuGH/nuvctl/internal/log"
	"github.com/ManuGH/nuvctl/internal/probe"
	"github.com/ManuGH/nuvctl/internal/session"
	"github.com/ManuGH/nuvctl/internal/telemetry"
	"github.com/ManuGH/nuvctl/internal/version"
)

func (c *cli) newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session over the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(c.stdout); err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				c.cfg.ListenAddr = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mgr, err := c.newDaemon(ctx)
			if err != nil {
				return err
			}
			return mgr.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}

// newDaemon wires the session, HTTP API, health checks, tracing and the config
// watcher around the loaded configuration.
func (c *cli) newDaemon(ctx context.Context) (*daemon.Manager, error) {
	cfg := c.cfg
	logger := xglog.WithComponent("daemon")

	lib := c.library()
	if err := health.PerformStartupChecks(ctx, cfg, lib); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: version.Version,
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	prober := probe.New()
	sess := session.New(lib, cfg.Player.Driver,
		session.WithProber(prober),
		session.WithJournal(journal.New(cfg.Journal.Capacity)),
		session.WithProbeTimeout(cfg.Probe.Timeout),
	)

	holder := config.NewHolder(cfg, c.loader)
	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewSessionChecker(sess))
	hm.RegisterChecker(health.NewOriginChecker(prober, func() string {
		return defaultOrigin(holder.Get().Connection)
	}, sess.ProbeTimeout))

	stack := middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
	}
	if cfg.Tracing.Enabled {
		stack.TracingService = cfg.Log.Service
	}
	if cfg.RateLimit.Enabled {
		stack.RateLimitRequests = cfg.RateLimit.Requests
		stack.RateLimitWindow = cfg.RateLimit.Window
	}
	handler := api.New(sess, api.WithHealth(hm), api.WithStack(stack)).Handler()

	updates := make(chan config.AppConfig, 1)
	holder.RegisterListener(updates)

	mgr, err := daemon.NewManager(daemon.DefaultServerConfig(cfg.ListenAddr), daemon.Deps{
		Logger:     logger,
		APIHandler: handler,
		Workers: []daemon.Worker{
			{Name: "config-watcher", Run: func(ctx context.Context) error {
				if err := holder.StartWatcher(ctx); err != nil {
					return err
				}
				<-ctx.Done()
				holder.Stop()
				return nil
			}},
			{Name: "config-apply", Run: func(ctx context.Context) error {
				for {
					select {
					case <-ctx.Done():
						return nil
					case next := <-updates:
						applyReload(sess, next)
					}
				}
			}},
		},
	})
	if err != nil {
		return nil, err
	}
	mgr.RegisterShutdownHook("tracing", tp.Shutdown)
	mgr.RegisterShutdownHook("session", func(ctx context.Context) error {
		sess.Close(ctx)
		return nil
	})
	return mgr, nil
}

// applyReload pushes the settings that can change at runtime into live components.
func applyReload(sess *session.Manager, next config.AppConfig) {
	logger := xglog.WithComponent("config")
	sess.SetProbeTimeout(next.Probe.Timeout)
	if err := xglog.SetLevel(next.Log.Level); err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "config.log_level_invalid").Msg("keeping previous log level")
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.applied").
		Dur("probe_timeout", sess.ProbeTimeout()).
		Str("log_level", next.Log.Level).
		Msg("applied reloaded configuration")
}

// defaultOrigin returns the origin of the configured default connection, or
// empty when none is configured or it does not parse.
func defaultOrigin(d config.ConnectionDefaults) string {
	if !d.Configured() {
		return ""
	}
	cfg, err := connection.ParseForm(d.Form())
	if err != nil {
		return ""
	}
	return cfg.Origin()
}
