// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon runs the API server and its workers until shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle.
type Manager struct {
	serverCfg ServerConfig
	deps      Deps
	logger    zerolog.Logger

	apiServer *http.Server

	mu            sync.Mutex
	shutdownHooks []namedHook
	started       bool
	stopping      bool
	addr          net.Addr
	ready         chan struct{}
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager.
func NewManager(serverCfg ServerConfig, deps Deps) (*Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if serverCfg.ShutdownTimeout <= 0 {
		serverCfg.ShutdownTimeout = DefaultServerConfig("").ShutdownTimeout
	}
	return &Manager{
		serverCfg: serverCfg,
		deps:      deps,
		logger:    deps.Logger.With().Str("component", "daemon").Logger(),
		ready:     make(chan struct{}),
	}, nil
}

// Start binds the listener, runs the server and workers, and blocks until ctx
// is cancelled or any of them fails. Shutdown runs before Start returns.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	ln, err := net.Listen("tcp", m.serverCfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.serverCfg.ListenAddr, err)
	}

	m.apiServer = &http.Server{
		Handler:           m.deps.APIHandler,
		ReadTimeout:       m.serverCfg.ReadTimeout,
		ReadHeaderTimeout: m.serverCfg.ReadTimeout / 2,
		WriteTimeout:      m.serverCfg.WriteTimeout,
		IdleTimeout:       m.serverCfg.IdleTimeout,
		MaxHeaderBytes:    m.serverCfg.MaxHeaderBytes,
	}
	m.mu.Lock()
	m.addr = ln.Addr()
	m.mu.Unlock()
	close(m.ready)

	m.logger.Info().
		Str("event", "daemon.started").
		Str("listen", ln.Addr().String()).
		Int("workers", len(m.deps.Workers)).
		Msg("API server listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := m.apiServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str("event", "api.server.failed").Msg("API server failed")
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	for _, w := range m.deps.Workers {
		g.Go(func() error {
			if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error().Err(err).Str("event", "worker.failed").Str("worker", w.Name).Msg("worker failed")
				return fmt.Errorf("worker %s: %w", w.Name, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		m.logger.Info().Str("event", "daemon.stopping").Msg("Shutdown signal received")
		return m.Shutdown(context.WithoutCancel(gctx))
	})
	return g.Wait()
}

// Addr returns the bound listen address once Start has bound it.
func (m *Manager) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-m.ready:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops the server and runs shutdown hooks. It is safe to call more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if m.apiServer != nil {
		if err := m.apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("Shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
			continue
		}
		m.logger.Debug().Str("hook", hook.name).Dur("duration", time.Since(hookStart)).Msg("Shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Str("event", "daemon.stopped").Msg("Daemon stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
}
