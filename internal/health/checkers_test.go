// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"testing"
	"time"

	"github.com/ManuGH/nuvctl/internal/probe"
	"github.com/ManuGH/nuvctl/internal/session"
	"github.com/stretchr/testify/assert"
)

type stateStub session.State

func (s stateStub) State() session.State { return session.State(s) }

type proberStub struct {
	result probe.Result
	calls  int
	origin string
}

func (p *proberStub) Probe(_ context.Context, origin string, _ time.Duration) probe.Result {
	p.calls++
	p.origin = origin
	return p.result
}

func TestSessionChecker(t *testing.T) {
	active := NewSessionChecker(stateStub(session.StateActive)).Check(context.Background())
	assert.Equal(t, StatusHealthy, active.Status)

	absent := NewSessionChecker(stateStub(session.StateAbsent)).Check(context.Background())
	assert.Equal(t, StatusDegraded, absent.Status)
}

func TestOriginChecker(t *testing.T) {
	timeout := func() time.Duration { return time.Second }

	t.Run("not configured", func(t *testing.T) {
		p := &proberStub{}
		res := NewOriginChecker(p, func() string { return "" }, timeout).Check(context.Background())
		assert.Equal(t, StatusHealthy, res.Status)
		assert.Zero(t, p.calls)
	})

	t.Run("reachable", func(t *testing.T) {
		p := &proberStub{result: probe.Result{OK: true, Latency: 8 * time.Millisecond}}
		res := NewOriginChecker(p, func() string { return "http://box.lan" }, timeout).Check(context.Background())
		assert.Equal(t, StatusHealthy, res.Status)
		assert.Equal(t, "http://box.lan", p.origin)
		assert.Equal(t, "reachable in 8 ms", res.Message)
	})

	t.Run("unreachable degrades", func(t *testing.T) {
		p := &proberStub{result: probe.Result{Reason: probe.ReasonTimeout}}
		res := NewOriginChecker(p, func() string { return "http://box.lan" }, timeout).Check(context.Background())
		assert.Equal(t, StatusDegraded, res.Status)
		assert.Equal(t, "timeout", res.Error)
	})
}

func TestReady_AbsentSessionStaysReady(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(NewSessionChecker(stateStub(session.StateAbsent)))
	resp := m.Ready(context.Background(), false)
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusDegraded, resp.Status)
}
