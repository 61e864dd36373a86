// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package connection turns raw form input into a validated player connection.
package connection

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	pnet "github.com/ManuGH/nuvctl/internal/platform/net"
)

// Scheme is the transport scheme of the player origin.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 360
)

var (
	ErrEmptyHost     = errors.New("connection: host is required")
	ErrInvalidHost   = errors.New("connection: invalid host")
	ErrInvalidPort   = errors.New("connection: invalid port")
	ErrInvalidScheme = errors.New("connection: unsupported scheme")
)

// Form carries the untouched string values of a connection form.
type Form struct {
	Scheme   string `json:"protocol"`
	Host     string `json:"domain"`
	Port     string `json:"port,omitempty"`
	ID       string `json:"id,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Width    string `json:"width,omitempty"`
	Height   string `json:"height,omitempty"`
	Muted    bool   `json:"mute,omitempty"`
}

// Config is a validated connection configuration. It lives for one submission.
type Config struct {
	Scheme   Scheme
	Host     string
	Port     uint16 // 0 when absent
	ID       string
	User     string
	Password string
	Width    int
	Height   int
	Muted    bool
}

// ParseScheme accepts http or https in any case. Empty means http.
func ParseScheme(raw string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "http":
		return SchemeHTTP, nil
	case "https":
		return SchemeHTTPS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScheme, raw)
	}
}

// ParseForm validates f and fills in defaults. Host must be non-empty and is
// kept as typed apart from surrounding blanks; width and height fall back to
// 640x360 when blank or not a positive integer.
func ParseForm(f Form) (Config, error) {
	scheme, err := ParseScheme(f.Scheme)
	if err != nil {
		return Config{}, err
	}

	rawHost := strings.TrimSpace(f.Host)
	if rawHost == "" {
		return Config{}, ErrEmptyHost
	}
	if err := pnet.CheckHost(rawHost); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidHost, err)
	}

	port, err := parsePort(f.Port)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Scheme:   scheme,
		Host:     rawHost,
		Port:     port,
		ID:       strings.TrimSpace(f.ID),
		User:     f.User,
		Password: f.Password,
		Width:    dimension(f.Width, DefaultWidth),
		Height:   dimension(f.Height, DefaultHeight),
		Muted:    f.Muted,
	}, nil
}

func parsePort(raw string) (uint16, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, raw)
	}
	return uint16(n), nil
}

func dimension(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Validate reports ErrEmptyHost for a config without host. It is the only
// precondition checked before any side effect.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return ErrEmptyHost
	}
	return nil
}

// HasPort reports whether an explicit port was supplied.
func (c Config) HasPort() bool { return c.Port != 0 }

// Origin returns scheme://host[:port] without a path. The host is lower-cased
// and IDNA-mapped when that succeeds, and IPv6 literals are bracketed.
func (c Config) Origin() string {
	scheme := c.Scheme
	if scheme == "" {
		scheme = SchemeHTTP
	}
	host := pnet.StripBrackets(strings.TrimSpace(c.Host))
	if norm, err := pnet.NormalizeHost(host); err == nil {
		host = norm
	}
	if c.HasPort() {
		host = net.JoinHostPort(host, strconv.Itoa(int(c.Port)))
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return string(scheme) + "://" + host
}

// LibraryHost is the host value handed to the player library. The library takes
// the port embedded in the host string, so a supplied port yields "host:port".
// A bare IPv6 host with a port gives an ambiguous value; see AmbiguousLibraryHost.
func (c Config) LibraryHost() string {
	if c.HasPort() {
		return c.Host + ":" + strconv.Itoa(int(c.Port))
	}
	return c.Host
}

// AmbiguousLibraryHost reports whether LibraryHost glues a port onto an
// unbracketed IPv6 literal, as in "::1:8080".
func (c Config) AmbiguousLibraryHost() bool {
	return c.HasPort() && strings.Contains(c.Host, ":") && !strings.HasPrefix(c.Host, "[")
}

// Redacted returns a copy that is safe to log.
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = "***"
	}
	return c
}
