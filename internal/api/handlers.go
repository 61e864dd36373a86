// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/nuvctl/internal/connection"
	"github.com/ManuGH/nuvctl/internal/journal"
	"github.com/ManuGH/nuvctl/internal/log"
	"github.com/ManuGH/nuvctl/internal/session"
)

const maxFormBytes = 64 << 10

type outcomeResponse struct {
	session.Outcome
	Error string `json:"error,omitempty"`
}

type commandResponse struct {
	session.CommandResult
	Error string `json:"error,omitempty"`
}

type originResponse struct {
	URL string `json:"url"`
}

type journalResponse struct {
	Entries []journal.Entry `json:"entries"`
}

// decodeForm reads a JSON connection form from the request body.
func decodeForm(w http.ResponseWriter, r *http.Request) (connection.Form, error) {
	var f connection.Form
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return f, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return f, errors.New("trailing data after form")
	}
	return f, nil
}

// queryForm reads a connection form from URL query parameters.
func queryForm(r *http.Request) connection.Form {
	q := r.URL.Query()
	return connection.Form{
		Scheme: q.Get("protocol"),
		Host:   q.Get("domain"),
		Port:   q.Get("port"),
	}
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	form, err := decodeForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	cfg, err := connection.ParseForm(form)
	if errors.Is(err, connection.ErrEmptyHost) {
		// An empty host still goes through the session so the rejection is journaled.
		out := s.session.Initialize(r.Context(), connection.Config{})
		writeJSON(w, r, http.StatusBadRequest, outcomeResponse{Outcome: out, Error: errString(out.Err)})
		return
	}
	if err != nil {
		s.session.RejectForm(err)
		writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}

	out := s.session.Initialize(r.Context(), cfg)
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "session.initialized").
		Str(log.FieldOrigin, out.Origin).
		Str("state", string(out.State)).
		Bool("prepared", out.Prepared).
		AnErr("outcome_error", out.Err).
		Msg("initialize handled")
	writeJSON(w, r, http.StatusOK, outcomeResponse{Outcome: out, Error: errString(out.Err)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.session.Status())
}

func (s *Server) handleCommand(cmd func(context.Context) session.CommandResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := cmd(r.Context())
		writeJSON(w, r, http.StatusOK, commandResponse{CommandResult: res, Error: errString(res.Err)})
	}
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	form, err := decodeForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	cfg, err := connection.ParseForm(form)
	if err != nil && !errors.Is(err, connection.ErrEmptyHost) {
		s.session.RejectForm(err)
		writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	res := s.session.TestConnectivity(r.Context(), cfg)
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleOrigin(w http.ResponseWriter, r *http.Request) {
	cfg, err := connection.ParseForm(queryForm(r))
	if err != nil && !errors.Is(err, connection.ErrEmptyHost) {
		s.session.RejectForm(err)
		writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	origin, err := s.session.Origin(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	if r.URL.Query().Get("open") == "1" {
		http.Redirect(w, r, origin+"/", http.StatusFound)
		return
	}
	writeJSON(w, r, http.StatusOK, originResponse{URL: origin})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	entries := s.session.Journal().Entries()
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, journal.Render(entries))
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, r, http.StatusOK, journalResponse{Entries: entries})
}

func (s *Server) handleClearJournal(w http.ResponseWriter, _ *http.Request) {
	s.session.Journal().Clear()
	w.WriteHeader(http.StatusNoContent)
}
