// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/nuvctl/internal/connection"
)

// AppConfig is the effective runtime configuration.
type AppConfig struct {
	Version    string             `yaml:"-"`
	ListenAddr string             `yaml:"listenAddr"`
	Log        LogConfig          `yaml:"log"`
	Player     PlayerConfig       `yaml:"player"`
	Probe      ProbeConfig        `yaml:"probe"`
	Journal    JournalConfig      `yaml:"journal"`
	RateLimit  RateLimitConfig    `yaml:"rateLimit"`
	Tracing    TracingConfig      `yaml:"tracing"`
	Connection ConnectionDefaults `yaml:"connection"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// PlayerConfig selects and tunes the player library.
type PlayerConfig struct {
	Driver    string        `yaml:"driver"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rateLimit"` // requests per second
	Burst     int           `yaml:"burst"`
}

type ProbeConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type JournalConfig struct {
	Capacity int `yaml:"capacity"`
}

// RateLimitConfig bounds API requests per client IP.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc | http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// ConnectionDefaults prefill the connection form. When Domain is set the
// readiness check probes its origin and the CLI uses it as flag defaults.
type ConnectionDefaults struct {
	Protocol string `yaml:"protocol"`
	Domain   string `yaml:"domain"`
	Port     string `yaml:"port"`
	ID       string `yaml:"id"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Width    string `yaml:"width"`
	Height   string `yaml:"height"`
	Mute     bool   `yaml:"mute"`
}

// Form converts the defaults into a raw connection form.
func (c ConnectionDefaults) Form() connection.Form {
	return connection.Form{
		Scheme:   c.Protocol,
		Host:     c.Domain,
		Port:     c.Port,
		ID:       c.ID,
		User:     c.User,
		Password: c.Password,
		Width:    c.Width,
		Height:   c.Height,
		Muted:    c.Mute,
	}
}

// Configured reports whether a default connection is present.
func (c ConnectionDefaults) Configured() bool {
	return c.Domain != ""
}

// Redacted returns a copy without secrets, safe to print or log.
func (c AppConfig) Redacted() AppConfig {
	if c.Connection.Password != "" {
		c.Connection.Password = "***"
	}
	return c
}
