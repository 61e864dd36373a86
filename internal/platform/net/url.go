// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import (
	"net/url"
	"strconv"
	"strings"
)

// SanitizeURL removes user info and query parameters for safe logging.
func SanitizeURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	parsedURL.RawQuery = ""
	return parsedURL.String()
}

// ParseDirectHTTPURL validates if a string is a safe, direct HTTP/HTTPS URL.
// It enforces:
//   - Scheme must be "http" or "https"
//   - Host must be non-empty
//   - No embedded User/Password credentials
func ParseDirectHTTPURL(s string) (*url.URL, bool) {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return nil, false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, false
	}
	if u.Host == "" {
		return nil, false
	}
	if u.User != nil {
		return nil, false
	}
	if u.Fragment != "" {
		return nil, false
	}

	return u, true
}

// CacheBustedURL resolves name under the origin of base and appends a "_"
// query parameter carrying stamp, so intermediaries never answer from cache.
// Any path or query on base is discarded.
func CacheBustedURL(base *url.URL, name string, stamp int64) string {
	u := url.URL{
		Scheme: base.Scheme,
		Host:   base.Host,
		Path:   "/" + strings.TrimLeft(name, "/"),
	}
	q := url.Values{}
	q.Set("_", strconv.FormatInt(stamp, 10))
	u.RawQuery = q.Encode()
	return u.String()
}
