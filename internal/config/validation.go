// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"time"

	"github.com/ManuGH/nuvctl/internal/connection"
	"github.com/ManuGH/nuvctl/internal/validate"
)

// Validate checks cfg and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("listenAddr", cfg.ListenAddr)
	if _, err := validate.ParseLogLevel(cfg.Log.Level); err != nil {
		v.AddError("log.level", "must be one of trace, debug, info, warn, error", cfg.Log.Level)
	}

	v.NotEmpty("player.driver", cfg.Player.Driver)
	v.DurationRange("player.timeout", cfg.Player.Timeout, 100*time.Millisecond, 2*time.Minute)
	if cfg.Player.RateLimit <= 0 {
		v.AddError("player.rateLimit", "must be positive", cfg.Player.RateLimit)
	}
	v.Positive("player.burst", cfg.Player.Burst)

	v.DurationRange("probe.timeout", cfg.Probe.Timeout, 100*time.Millisecond, 2*time.Minute)
	v.Range("journal.capacity", cfg.Journal.Capacity, 1, 10000)

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.requests", cfg.RateLimit.Requests)
		v.DurationRange("rateLimit.window", cfg.RateLimit.Window, time.Second, time.Hour)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.Fraction("tracing.samplingRate", cfg.Tracing.SamplingRate)
	}

	if cfg.Connection.Configured() {
		v.Custom("connection", cfg.Connection.Form(), func(val any) error {
			form, _ := val.(connection.Form)
			if _, err := connection.ParseForm(form); err != nil {
				return fmt.Errorf("invalid default connection: %w", err)
			}
			return nil
		})
	}

	return v.Err()
}
