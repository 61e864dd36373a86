// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/idna"
)

// CheckHost rejects a host that carries a scheme, path, userinfo or port. The
// host itself is not rewritten; bracketed and bare IPv6 literals are accepted.
func CheckHost(raw string) error {
	host := strings.TrimSpace(raw)
	switch {
	case host == "":
		return fmt.Errorf("host is empty")
	case strings.Contains(host, "://"):
		return fmt.Errorf("host must not include scheme: %s", raw)
	case strings.Contains(host, "/"):
		return fmt.Errorf("host must not include path: %s", raw)
	case strings.Contains(host, "@"):
		return fmt.Errorf("host must not include userinfo: %s", raw)
	}
	bare := StripBrackets(host)
	if strings.Contains(bare, ":") && !isIPv6WithZone(bare) {
		return fmt.Errorf("host must not include port: %s", raw)
	}
	if bare != host && !strings.Contains(bare, ":") {
		return fmt.Errorf("brackets are only valid around IPv6 literals: %s", raw)
	}
	return nil
}

// StripBrackets removes the brackets around an IPv6 literal such as "[::1]".
func StripBrackets(host string) string {
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host[1 : len(host)-1]
	}
	return host
}

func isIPv6WithZone(host string) bool {
	if i := strings.IndexByte(host, '%'); i > 0 {
		host = host[:i]
	}
	return IsIPv6Literal(host)
}

// NormalizeHost validates a bare host (name or IP literal, no scheme, port,
// path or userinfo) and returns it lower-cased, with IDN names in ASCII form.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if strings.Contains(host, "://") {
		return "", fmt.Errorf("host must not include scheme: %s", raw)
	}
	if strings.Contains(host, "/") {
		return "", fmt.Errorf("host must not include path: %s", raw)
	}
	if strings.Contains(host, "@") {
		return "", fmt.Errorf("host must not include userinfo: %s", raw)
	}
	host = StripBrackets(host)
	if strings.Contains(host, ":") && net.ParseIP(host) == nil {
		return "", fmt.Errorf("host must not include port: %s", raw)
	}
	if strings.Contains(host, "%") {
		return "", fmt.Errorf("host must not include zone: %s", raw)
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return strings.ToLower(ip.String()), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}

// IsIPv6Literal reports whether host is a bare IPv6 address.
func IsIPv6Literal(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.To4() == nil
}
