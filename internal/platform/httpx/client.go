// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package httpx builds the outbound HTTP clients used for probes and player drivers.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultClientTimeout         = 5 * time.Second
	defaultDialTimeout           = 3 * time.Second
	defaultResponseHeaderTimeout = 3 * time.Second
	defaultIdleConnTimeout       = 30 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 16
	defaultMaxIdleConnsPerHost   = 4
)

// Options tunes a client built by New.
type Options struct {
	// Timeout bounds the whole exchange. Zero uses the default.
	Timeout time.Duration
	// ResponseHeaderTimeout overrides the header deadline. Zero derives it
	// from Timeout.
	ResponseHeaderTimeout time.Duration
	// DisableKeepAlives forces a fresh connection per request.
	DisableKeepAlives bool
	// SpanName, when set, wraps the transport with otelhttp using this operation name.
	SpanName string
}

// NewClient returns a hardened HTTP client for probes and driver calls.
func NewClient(timeout time.Duration) *http.Client {
	return New(Options{Timeout: timeout})
}

// New returns a hardened HTTP client configured by opts.
func New(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	dialTimeout := min(timeout, defaultDialTimeout)
	responseHeaderTimeout := min(timeout, defaultResponseHeaderTimeout)
	if opts.ResponseHeaderTimeout > 0 {
		responseHeaderTimeout = min(timeout, opts.ResponseHeaderTimeout)
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		DisableKeepAlives:     opts.DisableKeepAlives,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
	if opts.SpanName != "" {
		name := opts.SpanName
		transport = otelhttp.NewTransport(transport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return name + " " + r.Method
			}),
		)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
