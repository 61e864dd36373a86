// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

const (
	DefaultListenAddr     = ":8088"
	DefaultDriver         = "enigma2"
	DefaultProbeTimeout   = 5 * time.Second
	DefaultPlayerTimeout  = 5 * time.Second
	DefaultJournalSize    = 200
	DefaultRateRequests   = 60
	DefaultRateWindow     = time.Minute
	DefaultTracingAddress = "localhost:4318"
)

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr: DefaultListenAddr,
		Log: LogConfig{
			Level:   "info",
			Service: "nuvctl",
		},
		Player: PlayerConfig{
			Driver:    DefaultDriver,
			Timeout:   DefaultPlayerTimeout,
			RateLimit: 10,
			Burst:     20,
		},
		Probe:   ProbeConfig{Timeout: DefaultProbeTimeout},
		Journal: JournalConfig{Capacity: DefaultJournalSize},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: DefaultRateRequests,
			Window:   DefaultRateWindow,
		},
		Tracing: TracingConfig{
			Exporter:     "http",
			Endpoint:     DefaultTracingAddress,
			SamplingRate: 0.1,
			Environment:  "production",
		},
		Connection: ConnectionDefaults{Protocol: "http"},
	}
}
