// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package enigma2 is a player library that drives an Enigma2 receiver
// through its OpenWebIF HTTP API.
package enigma2

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	xglog "github.com/ManuGH/nuvctl/internal/log"
	"github.com/ManuGH/nuvctl/internal/platform/httpx"
	"github.com/ManuGH/nuvctl/internal/player"
	"github.com/ManuGH/nuvctl/internal/resilience"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Name is the registry key of this driver.
const Name = "enigma2"

// Remote control key codes understood by /api/remotecontrol.
const (
	keyPlay  = 207
	keyPause = 119
)

const (
	defaultTimeout   = 5 * time.Second
	defaultRateLimit = 10
	defaultBurst     = 20
	defaultUserAgent = "nuvctl"

	defaultBreakerThreshold = 5
	defaultBreakerReset     = 30 * time.Second
)

// Settings tunes every player built by the registered constructor.
type Settings struct {
	Timeout   time.Duration
	RateLimit rate.Limit
	Burst     int
	UserAgent string
	// BreakerThreshold consecutive connection or 5xx failures open the
	// breaker for BreakerReset.
	BreakerThreshold int
	BreakerReset     time.Duration
	// HTTPClient replaces the default instrumented client. Tests use it to
	// point at an httptest server with custom transports.
	HTTPClient *http.Client
}

func (s Settings) normalize() Settings {
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	if s.RateLimit <= 0 {
		s.RateLimit = rate.Limit(defaultRateLimit)
	}
	if s.Burst <= 0 {
		s.Burst = defaultBurst
	}
	if strings.TrimSpace(s.UserAgent) == "" {
		s.UserAgent = defaultUserAgent
	}
	if s.BreakerThreshold <= 0 {
		s.BreakerThreshold = defaultBreakerThreshold
	}
	if s.BreakerReset <= 0 {
		s.BreakerReset = defaultBreakerReset
	}
	return s
}

// Register installs the driver in lib under Name.
func Register(lib *player.Library, s Settings) {
	lib.Register(Name, NewConstructor(s))
}

// NewConstructor returns a player.Constructor bound to s.
func NewConstructor(s Settings) player.Constructor {
	s = s.normalize()
	return func(ctx context.Context, opts player.Options) (player.Instance, error) {
		return New(ctx, opts, s)
	}
}

// Player is a single receiver session.
type Player struct {
	id     string
	opts   player.Options
	client *client
	logger zerolog.Logger

	// ctx outlives the constructing request; cancel aborts in-flight calls on Destroy.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	handlers  map[string][]player.Handler
	last      *player.Event // latest ready or error, replayed to late subscribers
	muted     bool
	muteKnown bool
	destroyed bool
}

var (
	_ player.Preparer     = (*Player)(nil)
	_ player.Player       = (*Player)(nil)
	_ player.Pauser       = (*Player)(nil)
	_ player.MuteSetter   = (*Player)(nil)
	_ player.MuteReporter = (*Player)(nil)
	_ player.Destroyer    = (*Player)(nil)
	_ player.Subscriber   = (*Player)(nil)
)

// New builds a player for opts. No request is made until Prepare.
func New(ctx context.Context, opts player.Options, s Settings) (*Player, error) {
	s = s.normalize()
	base, err := newBaseURL(opts.Protocol, opts.Domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, opts.Domain)
	}

	hc := s.HTTPClient
	if hc == nil {
		hc = httpx.New(httpx.Options{Timeout: s.Timeout, SpanName: "enigma2"})
	}

	id := uuid.NewString()
	pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &Player{
		id:   id,
		opts: opts,
		client: &client{
			base:    base,
			http:    hc,
			limiter: rate.NewLimiter(s.RateLimit, s.Burst),
			breaker: resilience.NewCircuitBreaker("enigma2:"+base.Host, s.BreakerThreshold, s.BreakerReset,
				resilience.WithFailureClassifier(countsAgainstBreaker)),
			user:      opts.User,
			password:  opts.Password,
			userAgent: s.UserAgent,
			timeout:   s.Timeout,
		},
		logger: xglog.WithComponentFromContext(ctx, "enigma2").With().
			Str(xglog.FieldInstanceID, id).
			Str(xglog.FieldHost, base.Host).
			Logger(),
		ctx:      pctx,
		cancel:   cancel,
		handlers: make(map[string][]player.Handler),
		muted:    opts.Mute,
	}
	p.logger.Debug().Str(xglog.FieldEvent, "player.created").Str("service_ref", opts.ID).Msg("player instance created")
	return p, nil
}

// Prepare checks the receiver answers and zaps to the configured service
// reference when one is set. It emits ready on success and error otherwise.
func (p *Player) Prepare() error {
	if err := p.checkAlive(); err != nil {
		return err
	}

	var info statusInfo
	if err := p.client.get(p.ctx, "statusinfo", "/api/statusinfo", nil, &info); err != nil {
		return p.fail("statusinfo", err)
	}
	p.observeMute(info.Muted)

	if ref := strings.TrimSpace(p.opts.ID); ref != "" {
		params := url.Values{}
		// OpenWebIF expects "sRef"; "ref" yields a missing parameter error.
		params.Set("sRef", ref)
		var res result
		if err := p.client.get(p.ctx, "zap", "/api/zap", params, &res); err != nil {
			return p.fail("zap", err)
		}
		if err := checkResult("zap", res); err != nil {
			return p.fail("zap", err)
		}
	}

	if p.opts.Mute {
		if err := p.SetMute(true); err != nil {
			return p.fail("mute", err)
		}
	}

	p.logger.Info().Str(xglog.FieldEvent, "player.ready").Str("service", info.ServiceName).Msg("receiver ready")
	p.emit(player.Event{Name: player.EventReady, Time: time.Now(), Detail: info.ServiceName})
	return nil
}

// Play sends KEY_PLAY.
func (p *Player) Play() error { return p.remote("play", keyPlay) }

// Pause sends KEY_PAUSE.
func (p *Player) Pause() error { return p.remote("pause", keyPause) }

func (p *Player) remote(op string, key int) error {
	if err := p.checkAlive(); err != nil {
		return err
	}
	params := url.Values{}
	params.Set("command", fmt.Sprint(key))
	var res result
	if err := p.client.get(p.ctx, op, "/api/remotecontrol", params, &res); err != nil {
		return p.translate(err)
	}
	return checkResult(op, res)
}

// SetMute brings the receiver to the requested mute state. OpenWebIF only
// offers a toggle, so the current state is read first.
func (p *Player) SetMute(muted bool) error {
	if err := p.checkAlive(); err != nil {
		return err
	}
	var vol volumeInfo
	if err := p.client.get(p.ctx, "volume", "/api/vol", nil, &vol); err != nil {
		return p.translate(err)
	}
	if vol.IsMute == muted {
		p.observeMute(vol.IsMute)
		return nil
	}

	params := url.Values{}
	params.Set("set", "mute")
	vol = volumeInfo{}
	if err := p.client.get(p.ctx, "mute", "/api/vol", params, &vol); err != nil {
		return p.translate(err)
	}
	if err := checkResult("mute", vol.result); err != nil {
		return err
	}
	p.observeMute(vol.IsMute)
	return nil
}

// IsMuted reports the last mute state read from the receiver. Until one has
// been read, the configured initial state is returned with known=false.
func (p *Player) IsMuted() (muted bool, known bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted, p.muteKnown
}

// Destroy aborts in-flight requests, closes idle connections and drops
// subscribers. It is idempotent.
func (p *Player) Destroy() error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil
	}
	p.destroyed = true
	p.handlers = nil
	p.mu.Unlock()

	p.cancel()
	p.client.http.CloseIdleConnections()
	p.logger.Debug().Str(xglog.FieldEvent, "player.destroyed").Msg("player instance destroyed")
	return nil
}

// On registers fn for event. Only ready and error are emitted. Prepare runs
// before a caller can subscribe, so a handler registered after the latest
// lifecycle event of its kind receives that event once, synchronously.
func (p *Player) On(event string, fn player.Handler) error {
	if event != player.EventReady && event != player.EventError {
		return fmt.Errorf("%w: %q", ErrUnsupportedEvent, event)
	}
	if fn == nil {
		return fmt.Errorf("enigma2: nil handler for %q", event)
	}
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return ErrDestroyed
	}
	p.handlers[event] = append(p.handlers[event], fn)
	var replay *player.Event
	if p.last != nil && p.last.Name == event {
		ev := *p.last
		replay = &ev
	}
	p.mu.Unlock()

	if replay != nil {
		eventsEmitted.WithLabelValues(replay.Name).Inc()
		fn(*replay)
	}
	return nil
}

func (p *Player) checkAlive() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return ErrDestroyed
	}
	return nil
}

func (p *Player) observeMute(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.muteKnown = true
	p.mu.Unlock()
}

// translate maps a cancellation caused by Destroy to ErrDestroyed.
func (p *Player) translate(err error) error {
	if isCancellation(err) && p.checkAlive() != nil {
		return ErrDestroyed
	}
	return err
}

func (p *Player) fail(op string, err error) error {
	err = p.translate(err)
	p.logger.Warn().Err(err).Str(xglog.FieldEvent, "player.error").Str(xglog.FieldAction, op).Msg("receiver call failed")
	p.emit(player.Event{Name: player.EventError, Time: time.Now(), Detail: op, Err: err})
	return err
}

func (p *Player) emit(ev player.Event) {
	p.mu.Lock()
	p.last = &ev
	hs := append([]player.Handler(nil), p.handlers[ev.Name]...)
	p.mu.Unlock()
	if len(hs) == 0 {
		return
	}
	eventsEmitted.WithLabelValues(ev.Name).Inc()
	for _, h := range hs {
		h(ev)
	}
}
