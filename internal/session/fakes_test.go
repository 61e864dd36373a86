// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/nuvctl/internal/player"
	"github.com/ManuGH/nuvctl/internal/probe"
)

type fakeProber struct {
	mu      sync.Mutex
	result  probe.Result
	origins []string
	timeout time.Duration
}

func (f *fakeProber) Probe(_ context.Context, origin string, timeout time.Duration) probe.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.origins = append(f.origins, origin)
	f.timeout = timeout
	return f.result
}

func (f *fakeProber) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.origins...)
}

// bare implements no capability at all.
type bare struct{}

// fullPlayer implements every capability and records calls.
type fullPlayer struct {
	mu         sync.Mutex
	opts       player.Options
	calls      []string
	muted      bool
	muteKnown  bool
	prepareErr error
	destroyErr error
	panicOn    string
	handlers   map[string]player.Handler
	onErr      error
}

func newFullPlayer(opts player.Options) *fullPlayer {
	return &fullPlayer{opts: opts, handlers: make(map[string]player.Handler)}
}

func (p *fullPlayer) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	panicOn := p.panicOn
	p.mu.Unlock()
	if panicOn == call {
		panic(call + " exploded")
	}
}

func (p *fullPlayer) callLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fullPlayer) Prepare() error {
	p.record("prepare")
	return p.prepareErr
}

func (p *fullPlayer) Play() error  { p.record("play"); return nil }
func (p *fullPlayer) Pause() error { p.record("pause"); return nil }

func (p *fullPlayer) SetMute(m bool) error {
	p.record("setMute")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted, p.muteKnown = m, true
	return nil
}

func (p *fullPlayer) IsMuted() (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted, p.muteKnown
}

func (p *fullPlayer) Destroy() error {
	p.record("destroy")
	return p.destroyErr
}

func (p *fullPlayer) On(event string, fn player.Handler) error {
	p.record("on:" + event)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onErr != nil {
		return p.onErr
	}
	p.handlers[event] = fn
	return nil
}

func (p *fullPlayer) fire(ev player.Event) {
	p.mu.Lock()
	fn := p.handlers[ev.Name]
	p.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// oneWayMuter only exposes Mute.
type oneWayMuter struct{ count int }

func (m *oneWayMuter) Mute() error { m.count++; return nil }

// setterOnly has SetMute but no state reporting.
type setterOnly struct{ last *bool }

func (s *setterOnly) SetMute(m bool) error { s.last = &m; return nil }

var errBoom = errors.New("boom")

// libraryWith registers ctor under "fake".
func libraryWith(ctor player.Constructor) *player.Library {
	lib := player.NewLibrary()
	lib.Register("fake", ctor)
	return lib
}

// capture returns a constructor that hands out inst and remembers the options.
func capture(inst player.Instance, got *player.Options) player.Constructor {
	return func(_ context.Context, opts player.Options) (player.Instance, error) {
		if got != nil {
			*got = opts
		}
		return inst, nil
	}
}
