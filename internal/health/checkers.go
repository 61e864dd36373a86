// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/nuvctl/internal/probe"
	"github.com/ManuGH/nuvctl/internal/session"
)

// StateReporter exposes the player slot state.
type StateReporter interface {
	State() session.State
}

// SessionChecker reports the player slot. An empty slot is degraded, never
// unhealthy: the service works without a player.
type SessionChecker struct {
	sessions StateReporter
}

// NewSessionChecker creates a checker for the session state.
func NewSessionChecker(s StateReporter) *SessionChecker {
	return &SessionChecker{sessions: s}
}

func (c *SessionChecker) Name() string { return "session" }

func (c *SessionChecker) Check(_ context.Context) CheckResult {
	if c.sessions.State() == session.StateActive {
		return CheckResult{Status: StatusHealthy, Message: "player active"}
	}
	return CheckResult{Status: StatusDegraded, Message: "no active player"}
}

// Prober checks an origin.
type Prober interface {
	Probe(ctx context.Context, origin string, timeout time.Duration) probe.Result
}

// OriginChecker probes the default origin. An unreachable origin degrades
// the service; reachability is advisory everywhere in nuvctl.
type OriginChecker struct {
	prober  Prober
	origin  func() string
	timeout func() time.Duration
}

// NewOriginChecker creates a checker probing the origin returned by origin.
// An empty origin means nothing is configured and the check passes.
func NewOriginChecker(p Prober, origin func() string, timeout func() time.Duration) *OriginChecker {
	return &OriginChecker{prober: p, origin: origin, timeout: timeout}
}

func (c *OriginChecker) Name() string { return "origin" }

func (c *OriginChecker) Check(ctx context.Context) CheckResult {
	origin := c.origin()
	if origin == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}
	res := c.prober.Probe(ctx, origin, c.timeout())
	if res.OK {
		return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("reachable in %d ms", res.Latency.Milliseconds())}
	}
	return CheckResult{
		Status:  StatusDegraded,
		Message: "origin not reachable",
		Error:   string(res.Reason),
	}
}
