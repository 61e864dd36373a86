// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManuGH/nuvctl/internal/config"
	"github.com/ManuGH/nuvctl/internal/connection"
	"github.com/ManuGH/nuvctl/internal/log"
	pnet "github.com/ManuGH/nuvctl/internal/platform/net"
	"github.com/ManuGH/nuvctl/internal/player"
	"github.com/rs/zerolog"
)

// PerformStartupChecks verifies the runtime wiring before the server starts.
// Unreachable origins are not checked here; reachability is advisory.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig, lib *player.Library) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := checkDriver(logger, cfg.Player.Driver, lib); err != nil {
		return err
	}
	if err := checkDefaultConnection(logger, cfg.Connection); err != nil {
		return err
	}
	if cfg.Tracing.Enabled {
		logger.Info().
			Str("exporter", cfg.Tracing.Exporter).
			Str("endpoint", cfg.Tracing.Endpoint).
			Msg("tracing enabled")
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkDriver(logger zerolog.Logger, driver string, lib *player.Library) error {
	if _, ok := lib.Lookup(driver); !ok {
		var names []string
		if lib != nil {
			names = lib.Names()
		}
		return fmt.Errorf("player driver %q is not registered (available: %s)", driver, strings.Join(names, ", "))
	}
	logger.Info().Str(log.FieldDriver, driver).Msg("player driver registered")
	return nil
}

func checkDefaultConnection(logger zerolog.Logger, defaults config.ConnectionDefaults) error {
	if !defaults.Configured() {
		logger.Info().Msg("no default connection configured")
		return nil
	}
	cfg, err := connection.ParseForm(defaults.Form())
	if err != nil {
		return fmt.Errorf("default connection: %w", err)
	}
	logger.Info().Str(log.FieldOrigin, pnet.SanitizeURL(cfg.Origin())).Msg("default connection is valid")
	return nil
}
