// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session owns the single active player instance.
//
// Every operation ends in journal lines rather than returned errors. The
// Outcome and CommandResult records exist for inspection only; nothing here
// panics or fails outward.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/nuvctl/internal/connection"
	"github.com/ManuGH/nuvctl/internal/journal"
	xglog "github.com/ManuGH/nuvctl/internal/log"
	"github.com/ManuGH/nuvctl/internal/player"
	"github.com/ManuGH/nuvctl/internal/probe"
	"github.com/ManuGH/nuvctl/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Prober checks whether an origin answers.
type Prober interface {
	Probe(ctx context.Context, origin string, timeout time.Duration) probe.Result
}

// Manager is the session context. The zero value is not usable; use New.
type Manager struct {
	lib     *player.Library
	driver  string
	prober  Prober
	journal *journal.Journal

	probeTimeout atomic.Int64

	// initMu serializes Initialize so journal lines of two submissions never
	// interleave. mu guards the slot and is not held while probing.
	initMu sync.Mutex
	mu     sync.Mutex
	inst   player.Instance
	instID string
	since  time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithProber replaces the default reachability prober.
func WithProber(p Prober) Option {
	return func(m *Manager) { m.prober = p }
}

// WithJournal replaces the default journal.
func WithJournal(j *journal.Journal) Option {
	return func(m *Manager) { m.journal = j }
}

// WithProbeTimeout sets the initial probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Manager) { m.SetProbeTimeout(d) }
}

// New returns a Manager that builds players from lib using driver.
func New(lib *player.Library, driver string, opts ...Option) *Manager {
	m := &Manager{lib: lib, driver: driver}
	m.probeTimeout.Store(int64(probe.DefaultTimeout))
	for _, opt := range opts {
		opt(m)
	}
	if m.prober == nil {
		m.prober = probe.New()
	}
	if m.journal == nil {
		m.journal = journal.New(journal.DefaultCapacity)
	}
	return m
}

// Journal exposes the diagnostic side channel.
func (m *Manager) Journal() *journal.Journal { return m.journal }

// SetProbeTimeout changes the timeout for later probes. Non-positive values
// restore the default.
func (m *Manager) SetProbeTimeout(d time.Duration) {
	if d <= 0 {
		d = probe.DefaultTimeout
	}
	m.probeTimeout.Store(int64(d))
}

// ProbeTimeout returns the timeout applied to probes.
func (m *Manager) ProbeTimeout() time.Duration {
	return time.Duration(m.probeTimeout.Load())
}

// Initialize replaces the active player with one built from cfg.
//
// The probe verdict is advisory: initialization continues after a failed
// probe. A prior instance is torn down before the library is looked up, so a
// missing library leaves the slot empty. Commands reach the prior instance
// while the probe runs.
func (m *Manager) Initialize(ctx context.Context, cfg connection.Config) Outcome {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	ctx, span := telemetry.Tracer("nuvctl.session").Start(ctx, "session.initialize")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.PlayerDriverKey, m.driver))
	logger := xglog.WithComponentFromContext(ctx, "session")

	m.journal.Clear()
	m.journal.Infof("session.initializing", "Initializing player")

	if err := cfg.Validate(); err != nil {
		m.journal.Errorf("session.invalid", "Host is required")
		initializeTotal.WithLabelValues(resultInvalid).Inc()
		return Outcome{State: m.State(), Err: ErrEmptyHost}
	}

	redacted := cfg.Redacted()
	logger.Debug().
		Str(xglog.FieldEvent, "session.initializing").
		Str(xglog.FieldHost, redacted.Host).
		Str("scheme", string(redacted.Scheme)).
		Str("user", redacted.User).
		Str("password", redacted.Password).
		Str("service_ref", redacted.ID).
		Msg("initialize requested")

	origin := cfg.Origin()
	m.journal.Infof("session.origin", "Origin: %s", origin)

	verdict := m.prober.Probe(ctx, origin, m.ProbeTimeout())
	if verdict.OK {
		m.journal.Infof("probe.ok", "Origin reachable")
	} else {
		m.journal.Warnf("probe."+string(verdict.Reason), "Origin not reachable (%s), continuing", verdict.Reason)
	}
	out := Outcome{Origin: origin, Probe: verdict}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked(ctx)

	ctor, ok := m.lib.Lookup(m.driver)
	if !ok || ctor == nil {
		m.journal.Errorf("session.library_missing", "Player library %q not loaded", m.driver)
		initializeTotal.WithLabelValues(resultLibraryMissing).Inc()
		out.State = StateAbsent
		out.Err = ErrLibraryMissing
		return out
	}

	opts := player.Options{
		Domain:   cfg.LibraryHost(),
		ID:       cfg.ID,
		Protocol: string(cfg.Scheme),
		User:     cfg.User,
		Password: cfg.Password,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Mute:     cfg.Muted,
		Element:  player.DefaultElement,
	}
	if cfg.HasPort() {
		m.journal.Infof("session.port_in_host", "Port %d passed inside host: %s", cfg.Port, opts.Domain)
		if cfg.AmbiguousLibraryHost() {
			m.journal.Warnf("session.ipv6_port", "IPv6 host %s is not bracketed; the player may misread the port", cfg.Host)
		}
	}

	inst, err := construct(ctx, ctor, opts)
	if err != nil {
		m.journal.Errorf("session.construction_failed", "Player construction failed: %v", err)
		initializeTotal.WithLabelValues(resultConstructionFailed).Inc()
		out.State = StateAbsent
		out.Err = fmt.Errorf("%w: %v", ErrConstruction, err)
		return out
	}

	m.inst = inst
	m.instID = uuid.NewString()
	m.since = time.Now()
	activeInstances.Set(1)
	logger.Info().
		Str(xglog.FieldEvent, "session.activated").
		Str(xglog.FieldInstanceID, m.instID).
		Str(xglog.FieldDriver, m.driver).
		Str(xglog.FieldOldState, string(StateAbsent)).
		Str(xglog.FieldNewState, string(StateActive)).
		Str(xglog.FieldOrigin, origin).
		Msg("player instance active")
	m.journal.Infof("session.constructed", "Player created")

	if p, ok := inst.(player.Preparer); ok {
		if err := guard(p.Prepare); err != nil {
			m.journal.Errorf("player.prepare_failed", "Prepare failed: %v", err)
		} else {
			out.Prepared = true
			m.journal.Infof("player.prepared", "Player prepared")
		}
	} else {
		m.journal.Warnf("session.capability_missing", "Player has no prepare capability")
	}

	if sub, ok := inst.(player.Subscriber); ok {
		m.subscribe(sub)
	}

	initializeTotal.WithLabelValues(resultOK).Inc()
	out.State = StateActive
	out.InstanceID = m.instID
	return out
}

func (m *Manager) subscribe(sub player.Subscriber) {
	j := m.journal
	handlers := map[string]player.Handler{
		player.EventReady: func(player.Event) {
			j.Infof("player.ready", "Player ready")
		},
		player.EventError: func(ev player.Event) {
			switch {
			case ev.Err != nil:
				j.Errorf("player.error", "Player error: %v", ev.Err)
			case ev.Detail != "":
				j.Errorf("player.error", "Player error: %s", ev.Detail)
			default:
				j.Errorf("player.error", "Player error")
			}
		},
	}
	for _, name := range []string{player.EventReady, player.EventError} {
		fn := handlers[name]
		if err := guard(func() error { return sub.On(name, fn) }); err != nil {
			j.Warnf("session.subscribe_failed", "Subscribing to %q failed: %v", name, err)
		}
	}
}

// Play forwards play to the active instance.
func (m *Manager) Play(ctx context.Context) CommandResult {
	return m.command(ctx, "play", func(inst player.Instance) (bool, error) {
		p, ok := inst.(player.Player)
		if !ok {
			return false, nil
		}
		return true, guard(p.Play)
	})
}

// Pause forwards pause to the active instance.
func (m *Manager) Pause(ctx context.Context) CommandResult {
	return m.command(ctx, "pause", func(inst player.Instance) (bool, error) {
		p, ok := inst.(player.Pauser)
		if !ok {
			return false, nil
		}
		return true, guard(p.Pause)
	})
}

// ToggleMute flips the mute state. SetMute is preferred; the desired state
// is the inverse of the reported one, or muted when unknown. Mute is the
// fallback for instances that only expose a one-way mute.
func (m *Manager) ToggleMute(ctx context.Context) CommandResult {
	var desired *bool
	res := m.command(ctx, "mute", func(inst player.Instance) (bool, error) {
		if setter, ok := inst.(player.MuteSetter); ok {
			want := true
			if rep, ok := inst.(player.MuteReporter); ok {
				if muted, known := rep.IsMuted(); known {
					want = !muted
				}
			}
			desired = &want
			return true, guard(func() error { return setter.SetMute(want) })
		}
		if muter, ok := inst.(player.Muter); ok {
			want := true
			desired = &want
			return true, guard(muter.Mute)
		}
		return false, nil
	})
	res.Muted = desired
	return res
}

func (m *Manager) command(ctx context.Context, action string, forward func(player.Instance) (bool, error)) CommandResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, span := telemetry.Tracer("nuvctl.session").Start(ctx, "session."+action)
	defer span.End()

	res := CommandResult{Action: action}
	if m.inst == nil {
		m.journal.Warnf("session.no_instance", "%s ignored: no active player", action)
		commandTotal.WithLabelValues(action, resultNoInstance).Inc()
		span.SetAttributes(telemetry.PlayerAttributes(m.driver, action, false)...)
		return res
	}

	forwarded, err := forward(m.inst)
	span.SetAttributes(telemetry.PlayerAttributes(m.driver, action, forwarded)...)
	switch {
	case !forwarded:
		m.journal.Warnf("session.capability_missing", "%s ignored: player has no %s capability", action, action)
		commandTotal.WithLabelValues(action, resultUnsupported).Inc()
	case err != nil:
		res.Forwarded = true
		res.Err = err
		m.journal.Errorf("player.command_failed", "%s failed: %v", action, err)
		commandTotal.WithLabelValues(action, resultFailed).Inc()
	default:
		res.Forwarded = true
		m.journal.Infof("player.command", "%s", action)
		commandTotal.WithLabelValues(action, resultOK).Inc()
	}
	return res
}

// RejectForm journals a connection form that could not be parsed. The session
// is left untouched.
func (m *Manager) RejectForm(err error) {
	if err == nil {
		return
	}
	m.journal.Errorf("session.invalid", "Invalid connection form: %v", err)
}

// TestConnectivity probes the origin of cfg without touching the session.
func (m *Manager) TestConnectivity(ctx context.Context, cfg connection.Config) probe.Result {
	if err := cfg.Validate(); err != nil {
		m.journal.Errorf("session.invalid", "Host is required")
		return probe.Result{Reason: probe.ReasonError}
	}
	origin := cfg.Origin()
	m.journal.Infof("probe.started", "Testing connectivity to %s", origin)
	res := m.prober.Probe(ctx, origin, m.ProbeTimeout())
	if res.OK {
		m.journal.Infof("probe.ok", "Connectivity OK (%d ms)", res.Latency.Milliseconds())
	} else {
		m.journal.Warnf("probe."+string(res.Reason), "Connectivity test failed: %s", res.Reason)
	}
	return res
}

// Origin returns the root URL of cfg.
func (m *Manager) Origin(cfg connection.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		m.journal.Errorf("session.invalid", "Host is required")
		return "", err
	}
	return cfg.Origin(), nil
}

// State reports whether a player instance is active.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Status returns a snapshot of the session.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{State: m.stateLocked(), Driver: m.driver}
	if m.inst != nil {
		st.InstanceID = m.instID
		st.Since = m.since
		st.Capabilities = player.Inspect(m.inst)
	}
	return st
}

// Close tears down the active instance.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked(ctx)
}

func (m *Manager) stateLocked() State {
	if m.inst == nil {
		return StateAbsent
	}
	return StateActive
}

// teardownLocked destroys the active instance exactly once and always clears
// the slot.
func (m *Manager) teardownLocked(ctx context.Context) {
	inst, id := m.inst, m.instID
	m.inst, m.instID, m.since = nil, "", time.Time{}
	if inst == nil {
		return
	}
	activeInstances.Set(0)

	result := resultUnsupported
	if d, ok := inst.(player.Destroyer); ok {
		if err := guard(d.Destroy); err != nil {
			m.journal.Warnf("session.teardown_failed", "Teardown of previous player failed: %v", err)
			result = resultFailed
		} else {
			m.journal.Infof("session.teardown", "Previous player destroyed")
			result = resultOK
		}
	}
	teardownTotal.WithLabelValues(result).Inc()

	logger := xglog.WithComponentFromContext(ctx, "session")
	logger.Info().
		Str(xglog.FieldEvent, "session.deactivated").
		Str(xglog.FieldInstanceID, id).
		Str(xglog.FieldOldState, string(StateActive)).
		Str(xglog.FieldNewState, string(StateAbsent)).
		Str(xglog.FieldReason, result).
		Msg("player instance released")
}

var errNoInstance = errors.New("constructor returned no instance")

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanicked, r)
		}
	}()
	return fn()
}

func construct(ctx context.Context, ctor player.Constructor, opts player.Options) (inst player.Instance, err error) {
	err = guard(func() error {
		var cerr error
		inst, cerr = ctor(ctx, opts)
		return cerr
	})
	if err == nil && inst == nil {
		err = errNoInstance
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}
