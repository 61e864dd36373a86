// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package enigma2

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/nuvctl/internal/resilience"
	"github.com/ManuGH/nuvctl/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// client issues single-attempt OpenWebIF calls. It never retries: player
// commands are not idempotent (mute is a toggle on the receiver side).
type client struct {
	base      *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *resilience.CircuitBreaker
	user      string
	password  string
	userAgent string
	timeout   time.Duration
}

// result is the envelope shared by zap, remotecontrol and vol.
type result struct {
	Result  bool   `json:"result"`
	Message string `json:"message"`
}

type statusInfo struct {
	InStandby   string `json:"inStandby"`
	ServiceName string `json:"currservice_name"`
	ServiceRef  string `json:"currservice_serviceref"`
	Muted       bool   `json:"muted"`
	Volume      int    `json:"volume"`
}

type volumeInfo struct {
	result
	Current int  `json:"current"`
	IsMute  bool `json:"ismute"`
}

func newBaseURL(protocol, domain string) (*url.URL, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	if protocol == "" {
		protocol = "http"
	}
	if protocol != "http" && protocol != "https" {
		return nil, ErrInvalidDomain
	}
	domain = strings.TrimSpace(domain)
	if domain == "" || strings.ContainsAny(domain, "/?#@") {
		return nil, ErrInvalidDomain
	}
	u, err := url.Parse(protocol + "://" + domain)
	if err != nil || u.Hostname() == "" {
		return nil, ErrInvalidDomain
	}
	return u, nil
}

// get performs one call through the circuit breaker. An open breaker fails
// fast with ErrUnreachable.
func (c *client) get(ctx context.Context, op, path string, params url.Values, v any) error {
	if c.breaker == nil {
		return c.do(ctx, op, path, params, v)
	}
	err := c.breaker.Execute(func() error { return c.do(ctx, op, path, params, v) })
	if errors.Is(err, resilience.ErrCircuitOpen) {
		recordRequest(op, 0, 0, err)
		return &RequestError{Sentinel: ErrUnreachable, Operation: op, Err: err}
	}
	return err
}

// countsAgainstBreaker reports failures that say the receiver is down.
// Rejections, auth errors and our own cancellations do not.
func countsAgainstBreaker(err error) bool {
	if isCancellation(err) {
		return false
	}
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrUpstream)
}

func (c *client) do(ctx context.Context, op, path string, params url.Values, v any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.base
	u.Path = path
	u.RawQuery = params.Encode()

	tracer := telemetry.Tracer("nuvctl.enigma2")
	ctx, span := tracer.Start(ctx, "enigma2."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.PlayerHostKey, c.base.Host))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return &RequestError{Sentinel: ErrUnreachable, Operation: op, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &RequestError{Sentinel: ErrUnreachable, Operation: op, Err: err}
	}
	c.applyHeaders(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	recordRequest(op, status, time.Since(start), err)
	span.SetAttributes(telemetry.HTTPAttributes(http.MethodGet, path, path, status)...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return &RequestError{Sentinel: ErrUnreachable, Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if rerr := classifyStatus(op, resp); rerr != nil {
		span.SetStatus(codes.Error, http.StatusText(status))
		return rerr
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(v); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return &RequestError{Sentinel: ErrBadResponse, Operation: op, Status: status, Err: err}
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func classifyStatus(op string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &RequestError{Sentinel: ErrUnauthorized, Operation: op, Status: resp.StatusCode}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &RequestError{
			Sentinel:  ErrUpstream,
			Operation: op,
			Status:    resp.StatusCode,
			Message:   strings.TrimSpace(string(body)),
		}
	}
}

func (c *client) applyHeaders(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}
}

// checkResult turns a false OpenWebIF result flag into ErrRejected.
func checkResult(op string, r result) error {
	if r.Result {
		return nil
	}
	return &RequestError{Sentinel: ErrRejected, Operation: op, Status: http.StatusOK, Message: r.Message}
}

// isCancellation reports whether err stems from the driver's own context.
func isCancellation(err error) bool {
	var rerr *RequestError
	if errors.As(err, &rerr) && rerr.Err != nil {
		return errors.Is(rerr.Err, context.Canceled)
	}
	return errors.Is(err, context.Canceled)
}
