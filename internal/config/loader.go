// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
	ErrUnknownConfigField = errors.New("unknown config field")
	// ErrUnsupportedFormat is returned for config files that are not YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath string
	version    string
	// ConsumedEnvKeys records every environment key consulted by the last Load.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty path means
// defaults plus environment only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, possibly empty.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load runs defaults, then the strict file, then environment overrides,
// then Validate.
func (l *Loader) Load() (AppConfig, error) {
	l.ConsumedEnvKeys = make(map[string]struct{})
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodes path on top of cfg. Keys absent from the file keep
// their current value.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.ListenAddr = l.envString(EnvPrefix+"LISTEN_ADDR", cfg.ListenAddr)
	cfg.Log.Level = l.envString(EnvPrefix+"LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = l.envString(EnvPrefix+"LOG_SERVICE", cfg.Log.Service)

	cfg.Player.Driver = l.envString(EnvPrefix+"PLAYER_DRIVER", cfg.Player.Driver)
	cfg.Player.Timeout = l.envDuration(EnvPrefix+"PLAYER_TIMEOUT", cfg.Player.Timeout)
	cfg.Player.RateLimit = l.envFloat(EnvPrefix+"PLAYER_RATE_LIMIT", cfg.Player.RateLimit)
	cfg.Player.Burst = l.envInt(EnvPrefix+"PLAYER_BURST", cfg.Player.Burst)

	cfg.Probe.Timeout = l.envDuration(EnvPrefix+"PROBE_TIMEOUT", cfg.Probe.Timeout)
	cfg.Journal.Capacity = l.envInt(EnvPrefix+"JOURNAL_CAPACITY", cfg.Journal.Capacity)

	cfg.RateLimit.Enabled = l.envBool(EnvPrefix+"RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Requests = l.envInt(EnvPrefix+"RATELIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = l.envDuration(EnvPrefix+"RATELIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.Tracing.Enabled = l.envBool(EnvPrefix+"TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString(EnvPrefix+"TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString(EnvPrefix+"TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat(EnvPrefix+"TRACING_SAMPLING_RATE", cfg.Tracing.SamplingRate)
	cfg.Tracing.Environment = l.envString(EnvPrefix+"TRACING_ENVIRONMENT", cfg.Tracing.Environment)

	c := &cfg.Connection
	c.Protocol = l.envString(EnvPrefix+"CONNECTION_PROTOCOL", c.Protocol)
	c.Domain = l.envString(EnvPrefix+"CONNECTION_DOMAIN", c.Domain)
	c.Port = l.envString(EnvPrefix+"CONNECTION_PORT", c.Port)
	c.ID = l.envString(EnvPrefix+"CONNECTION_ID", c.ID)
	c.User = l.envString(EnvPrefix+"CONNECTION_USER", c.User)
	c.Password = l.envString(EnvPrefix+"CONNECTION_PASSWORD", c.Password)
	c.Width = l.envString(EnvPrefix+"CONNECTION_WIDTH", c.Width)
	c.Height = l.envString(EnvPrefix+"CONNECTION_HEIGHT", c.Height)
	c.Mute = l.envBool(EnvPrefix+"CONNECTION_MUTE", c.Mute)
}
