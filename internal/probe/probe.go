// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package probe performs a best-effort reachability check against an origin.
//
// The check fetches a small, cache-busted sub-resource and races it against a
// timer. It is a heuristic: a 404, a TLS failure and a refused connection all
// look the same to the caller. The verdict is advisory only.
package probe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	xglog "github.com/ManuGH/nuvctl/internal/log"
	"github.com/ManuGH/nuvctl/internal/platform/httpx"
	pnet "github.com/ManuGH/nuvctl/internal/platform/net"
	"github.com/ManuGH/nuvctl/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Reason explains a failed probe.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonTimeout Reason = "timeout"
	ReasonError   Reason = "error"
)

const (
	// DefaultTimeout applies when a caller passes a zero timeout.
	DefaultTimeout = 5 * time.Second

	resourcePath  = "favicon.ico"
	maxDrainBytes = 64 << 10
	clientCeiling = 2 * time.Minute
)

var errPanicked = errors.New("probe: transport panicked")

// Result is the verdict of a single probe. Exactly one of OK or Reason is set.
type Result struct {
	OK      bool          `json:"ok"`
	Reason  Reason        `json:"reason,omitempty"`
	Status  int           `json:"status,omitempty"`
	Latency time.Duration `json:"latency"`
	URL     string        `json:"url,omitempty"`
}

// Prober issues reachability probes.
type Prober struct {
	client *http.Client
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient replaces the outbound client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) { p.client = c }
}

// WithClock overrides the time source used for cache busting.
func WithClock(now func() time.Time) Option {
	return func(p *Prober) { p.now = now }
}

// New returns a Prober. The client never reuses connections so every probe
// reaches the network.
func New(opts ...Option) *Prober {
	p := &Prober{
		client: httpx.New(httpx.Options{
			Timeout:               clientCeiling,
			ResponseHeaderTimeout: clientCeiling,
			DisableKeepAlives:     true,
			SpanName:              "probe",
		}),
		now:    time.Now,
		logger: xglog.WithComponent("probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type fetchOutcome struct {
	status int
	err    error
}

// Probe checks origin within timeout. It never panics and always returns a
// Result: the request loses to the timer, to a cancelled ctx, or resolves on
// its own. A single attempt is made.
func (p *Prober) Probe(ctx context.Context, origin string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	start := time.Now()
	logger := xglog.WithContext(ctx, p.logger).With().Str(xglog.FieldOrigin, pnet.SanitizeURL(origin)).Logger()

	base, ok := pnet.ParseDirectHTTPURL(origin)
	if !ok {
		res := Result{Reason: ReasonError}
		observe(res)
		logger.Warn().Str(xglog.FieldEvent, "probe.invalid_origin").Msg("origin is not a plain http(s) url")
		return res
	}
	target := pnet.CacheBustedURL(base, resourcePath, p.now().UnixMilli())

	ctx, span := telemetry.Tracer("nuvctl.probe").Start(ctx, "probe.reachability", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.ProbeOriginKey, pnet.SanitizeURL(origin)),
		attribute.Int64(telemetry.ProbeTimeoutKey, timeout.Milliseconds()),
	)

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan fetchOutcome, 1)
	go func() {
		done <- p.fetch(reqCtx, target)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var res Result
	select {
	case out := <-done:
		res = Result{Status: out.status}
		if out.err == nil && out.status >= 200 && out.status < 300 {
			res.OK = true
		} else {
			res.Reason = ReasonError
		}
	case <-timer.C:
		cancel()
		res = Result{Reason: ReasonTimeout}
	case <-ctx.Done():
		cancel()
		res = Result{Reason: ReasonTimeout}
	}
	res.Latency = time.Since(start)
	res.URL = pnet.SanitizeURL(target)
	observe(res)

	span.SetAttributes(attribute.String(telemetry.ProbeResultKey, resultLabel(res)))
	if res.OK {
		span.SetStatus(codes.Ok, "")
		logger.Info().
			Str(xglog.FieldEvent, "probe.ok").
			Int(xglog.FieldStatus, res.Status).
			Int64(xglog.FieldLatency, res.Latency.Milliseconds()).
			Msg("resource loaded")
	} else {
		span.SetStatus(codes.Error, string(res.Reason))
		logger.Warn().
			Str(xglog.FieldEvent, "probe."+string(res.Reason)).
			Str(xglog.FieldReason, string(res.Reason)).
			Int(xglog.FieldStatus, res.Status).
			Int64(xglog.FieldLatency, res.Latency.Milliseconds()).
			Msg("origin did not answer the probe")
	}
	return res
}

func (p *Prober) fetch(ctx context.Context, target string) (out fetchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = fetchOutcome{err: errPanicked}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fetchOutcome{err: err}
	}
	req.Header.Set("Accept", "image/*,*/*;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return fetchOutcome{err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrainBytes)
	return fetchOutcome{status: resp.StatusCode}
}

func resultLabel(r Result) string {
	if r.OK {
		return "ok"
	}
	return string(r.Reason)
}
