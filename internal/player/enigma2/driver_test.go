// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package enigma2

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/nuvctl/internal/player"
	"github.com/ManuGH/nuvctl/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayer(t *testing.T, m *mockReceiver, opts player.Options) *Player {
	t.Helper()
	if opts.Domain == "" {
		opts.Domain = m.domain()
	}
	p, err := New(context.Background(), opts, Settings{Timeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Destroy() })
	return p
}

func TestNew_RejectsBadDomain(t *testing.T) {
	for _, domain := range []string{"", "  ", "host/path", "user@host", "host?x=1"} {
		_, err := New(context.Background(), player.Options{Domain: domain}, Settings{})
		assert.ErrorIs(t, err, ErrInvalidDomain, "domain %q", domain)
	}
	_, err := New(context.Background(), player.Options{Domain: "box", Protocol: "ftp"}, Settings{})
	assert.ErrorIs(t, err, ErrInvalidDomain)
}

func TestRegister_LookupBuildsPlayer(t *testing.T) {
	lib := player.NewLibrary()
	Register(lib, Settings{})

	ctor, ok := lib.Lookup("ENIGMA2")
	require.True(t, ok)
	inst, err := ctor(context.Background(), player.Options{Domain: "receiver.local:8080", Protocol: "http"})
	require.NoError(t, err)

	caps := player.Inspect(inst)
	assert.True(t, caps.Prepare)
	assert.True(t, caps.Play)
	assert.True(t, caps.Pause)
	assert.True(t, caps.SetMute)
	assert.True(t, caps.IsMuted)
	assert.True(t, caps.Destroy)
	assert.True(t, caps.Subscribe)
	assert.False(t, caps.Mute)
	require.NoError(t, inst.(player.Destroyer).Destroy())
}

func TestPrepare_ZapsAndEmitsReady(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()
	m.requireAuth("root", "s3cret")

	p := newTestPlayer(t, m, player.Options{ID: "1:0:19:283D:3FB:1:C00000:0:0:0:", User: "root", Password: "s3cret"})

	var events []player.Event
	var mu sync.Mutex
	require.NoError(t, p.On(player.EventReady, func(ev player.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}))

	require.NoError(t, p.Prepare())

	mu.Lock()
	require.Len(t, events, 1)
	assert.Equal(t, player.EventReady, events[0].Name)
	assert.Equal(t, "Das Erste HD", events[0].Detail)
	mu.Unlock()

	m.mu.Lock()
	assert.Equal(t, "1:0:19:283D:3FB:1:C00000:0:0:0:", m.zapped)
	m.mu.Unlock()

	muted, known := p.IsMuted()
	assert.True(t, known)
	assert.False(t, muted)
}

func TestPrepare_WithoutIDSkipsZap(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()

	p := newTestPlayer(t, m, player.Options{})
	require.NoError(t, p.Prepare())
	assert.Equal(t, []string{"/api/statusinfo"}, m.callLog())
}

func TestPrepare_BadCredentialsEmitsError(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()
	m.requireAuth("root", "right")

	p := newTestPlayer(t, m, player.Options{User: "root", Password: "wrong"})
	errCh := make(chan player.Event, 1)
	require.NoError(t, p.On(player.EventError, func(ev player.Event) { errCh <- ev }))

	err := p.Prepare()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var rerr *RequestError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusUnauthorized, rerr.Status)
	assert.Equal(t, "statusinfo", rerr.Operation)

	select {
	case ev := <-errCh:
		assert.Equal(t, player.EventError, ev.Name)
		assert.ErrorIs(t, ev.Err, ErrUnauthorized)
	case <-time.After(time.Second):
		t.Fatal("error event not delivered")
	}
}

func TestOn_ReplaysLatestLifecycleEvent(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()

	p := newTestPlayer(t, m, player.Options{})
	require.NoError(t, p.Prepare())

	var ready []player.Event
	require.NoError(t, p.On(player.EventReady, func(ev player.Event) { ready = append(ready, ev) }))
	require.Len(t, ready, 1)
	assert.Equal(t, "Das Erste HD", ready[0].Detail)

	var errs []player.Event
	require.NoError(t, p.On(player.EventError, func(ev player.Event) { errs = append(errs, ev) }))
	assert.Empty(t, errs, "only the latest event kind is replayed")
}

func TestOn_ReplaysPrepareFailure(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()
	m.failPath("/api/statusinfo", http.StatusInternalServerError)

	p := newTestPlayer(t, m, player.Options{})
	require.Error(t, p.Prepare())

	var ready, errs []player.Event
	require.NoError(t, p.On(player.EventReady, func(ev player.Event) { ready = append(ready, ev) }))
	require.NoError(t, p.On(player.EventError, func(ev player.Event) { errs = append(errs, ev) }))
	assert.Empty(t, ready)
	require.Len(t, errs, 1)
	assert.Equal(t, "statusinfo", errs[0].Detail)
	assert.ErrorIs(t, errs[0].Err, ErrUpstream)
}

func TestPrepare_ZapRejected(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()
	m.setZapOK(false)

	p := newTestPlayer(t, m, player.Options{ID: "bogus"})
	err := p.Prepare()
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Parameter sRef missing")
}

func TestPrepare_UnreachableReceiver(t *testing.T) {
	m := newMockReceiver()
	domain := m.domain()
	m.Close()

	p := newTestPlayer(t, m, player.Options{Domain: domain})
	assert.ErrorIs(t, p.Prepare(), ErrUnreachable)
}

func TestPlayPause_SendRemoteKeys(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()

	p := newTestPlayer(t, m, player.Options{})
	require.NoError(t, p.Play())
	require.NoError(t, p.Pause())

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Equal(t, []string{"207", "119"}, m.commands)
}

func TestPlay_UpstreamError(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()
	m.failPath("/api/remotecontrol", http.StatusInternalServerError)

	p := newTestPlayer(t, m, player.Options{})
	err := p.Play()
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "forced failure")
}

func TestBreaker_OpensAfterRepeatedUpstreamFailures(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()
	m.failPath("/api/remotecontrol", http.StatusBadGateway)

	p, err := New(context.Background(), player.Options{Domain: m.domain()},
		Settings{Timeout: 2 * time.Second, BreakerThreshold: 2, BreakerReset: time.Hour})
	require.NoError(t, err)
	defer func() { _ = p.Destroy() }()

	assert.ErrorIs(t, p.Play(), ErrUpstream)
	assert.ErrorIs(t, p.Play(), ErrUpstream)

	before := len(m.callLog())
	err = p.Play()
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Len(t, m.callLog(), before, "open breaker must not reach the receiver")
}

func TestBreaker_IgnoresRejections(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()
	m.setZapOK(false)

	p, err := New(context.Background(), player.Options{Domain: m.domain(), ID: "1:0:1"},
		Settings{Timeout: 2 * time.Second, BreakerThreshold: 1, BreakerReset: time.Hour})
	require.NoError(t, err)
	defer func() { _ = p.Destroy() }()

	assert.ErrorIs(t, p.Prepare(), ErrRejected)
	assert.ErrorIs(t, p.Prepare(), ErrRejected)
	assert.NoError(t, p.Play())
}

func TestSetMute_TogglesOnlyOnChange(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()

	p := newTestPlayer(t, m, player.Options{})

	require.NoError(t, p.SetMute(false))
	assert.Equal(t, []string{"/api/vol"}, m.callLog())

	require.NoError(t, p.SetMute(true))
	assert.Equal(t, []string{"/api/vol", "/api/vol", "/api/vol?set=mute"}, m.callLog())

	muted, known := p.IsMuted()
	assert.True(t, known)
	assert.True(t, muted)

	require.NoError(t, p.SetMute(true))
	assert.Len(t, m.callLog(), 4)
}

func TestPrepare_AppliesInitialMute(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()

	p := newTestPlayer(t, m, player.Options{Mute: true})
	require.NoError(t, p.Prepare())

	m.mu.Lock()
	assert.True(t, m.muted)
	m.mu.Unlock()
}

func TestIsMuted_UnknownBeforeFirstRead(t *testing.T) {
	p, err := New(context.Background(), player.Options{Domain: "receiver.local", Mute: true}, Settings{})
	require.NoError(t, err)
	defer func() { _ = p.Destroy() }()

	muted, known := p.IsMuted()
	assert.True(t, muted)
	assert.False(t, known)
}

func TestOn_RejectsUnknownEvent(t *testing.T) {
	p, err := New(context.Background(), player.Options{Domain: "receiver.local"}, Settings{})
	require.NoError(t, err)
	defer func() { _ = p.Destroy() }()

	assert.ErrorIs(t, p.On("timeupdate", func(player.Event) {}), ErrUnsupportedEvent)
	assert.Error(t, p.On(player.EventReady, nil))
}

func TestDestroy_LaterCallsFail(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()

	p := newTestPlayer(t, m, player.Options{})
	require.NoError(t, p.Destroy())
	require.NoError(t, p.Destroy())

	assert.ErrorIs(t, p.Prepare(), ErrDestroyed)
	assert.ErrorIs(t, p.Play(), ErrDestroyed)
	assert.ErrorIs(t, p.Pause(), ErrDestroyed)
	assert.ErrorIs(t, p.SetMute(true), ErrDestroyed)
	assert.ErrorIs(t, p.On(player.EventReady, func(player.Event) {}), ErrDestroyed)
	assert.Empty(t, m.callLog())
}

func TestDestroy_AbortsInFlightRequest(t *testing.T) {
	m := newMockReceiver()
	defer m.Close()

	release := make(chan struct{})
	defer close(release)
	m.holdPath("/api/remotecontrol", release)

	p := newTestPlayer(t, m, player.Options{})
	errCh := make(chan error, 1)
	go func() { errCh <- p.Play() }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, p.Destroy())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrDestroyed)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight request was not aborted")
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		err    error
		status int
		want   string
	}{
		{errors.New("dial"), 0, "error"},
		{resilience.ErrCircuitOpen, 0, "circuit_open"},
		{nil, 200, "2xx"},
		{nil, 302, "3xx"},
		{nil, 404, "4xx"},
		{nil, 503, "5xx"},
		{nil, 0, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusClass(tt.err, tt.status))
	}
}
