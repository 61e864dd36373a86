// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the player session over a JSON HTTP API.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/nuvctl/internal/connection"
	"github.com/ManuGH/nuvctl/internal/control/middleware"
	"github.com/ManuGH/nuvctl/internal/health"
	"github.com/ManuGH/nuvctl/internal/journal"
	"github.com/ManuGH/nuvctl/internal/probe"
	"github.com/ManuGH/nuvctl/internal/session"
)

// Session is the part of the session manager the API drives.
type Session interface {
	Initialize(ctx context.Context, cfg connection.Config) session.Outcome
	Play(ctx context.Context) session.CommandResult
	Pause(ctx context.Context) session.CommandResult
	ToggleMute(ctx context.Context) session.CommandResult
	TestConnectivity(ctx context.Context, cfg connection.Config) probe.Result
	Origin(cfg connection.Config) (string, error)
	RejectForm(err error)
	Status() session.Status
	Journal() *journal.Journal
}

// Server wires HTTP routes to a Session.
type Server struct {
	session Session
	health  *health.Manager
	stack   middleware.StackConfig
	metrics http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithStack sets the ingress middleware stack.
func WithStack(cfg middleware.StackConfig) Option {
	return func(s *Server) { s.stack = cfg }
}

// WithHealth serves /healthz and /readyz from hm.
func WithHealth(hm *health.Manager) Option {
	return func(s *Server) { s.health = hm }
}

// WithMetricsHandler replaces the default Prometheus handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New returns a Server for sess.
func New(sess Session, opts ...Option) *Server {
	s := &Server{
		session: sess,
		metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(s.stack)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	if s.health != nil {
		r.Get("/healthz", s.health.ServeHealth)
		r.Get("/readyz", s.health.ServeReady)
	}
	r.Handle("/metrics", s.metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Post("/", s.handleInitialize)
			r.Post("/play", s.handleCommand(s.session.Play))
			r.Post("/pause", s.handleCommand(s.session.Pause))
			r.Post("/mute", s.handleCommand(s.session.ToggleMute))
		})
		r.Post("/probe", s.handleProbe)
		r.Get("/origin", s.handleOrigin)
		r.Get("/journal", s.handleJournal)
		r.Delete("/journal", s.handleClearJournal)
	})
	return r
}
