// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package enigma2

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// mockReceiver is a minimal OpenWebIF endpoint set for driver tests.
type mockReceiver struct {
	*httptest.Server

	mu       sync.Mutex
	muted    bool
	user     string
	password string
	zapOK    bool
	status   map[string]int // forced HTTP status per path
	hold     map[string]chan struct{}
	calls    []string
	zapped   string
	commands []string
}

func newMockReceiver() *mockReceiver {
	m := &mockReceiver{zapOK: true, status: make(map[string]int), hold: make(map[string]chan struct{})}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/statusinfo", m.handleStatusInfo)
	mux.HandleFunc("/api/zap", m.handleZap)
	mux.HandleFunc("/api/remotecontrol", m.handleRemote)
	mux.HandleFunc("/api/vol", m.handleVol)
	m.Server = httptest.NewServer(m.guard(mux))
	return m
}

// domain returns the host:port the way a connection form hands it to the library.
func (m *mockReceiver) domain() string {
	return strings.TrimPrefix(m.URL, "http://")
}

func (m *mockReceiver) requireAuth(user, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user, m.password = user, password
}

func (m *mockReceiver) failPath(path string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[path] = status
}

// holdPath blocks requests to path until release is closed or the client gives up.
func (m *mockReceiver) holdPath(path string, release chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hold[path] = release
}

func (m *mockReceiver) setZapOK(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zapOK = ok
}

func (m *mockReceiver) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockReceiver) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.calls = append(m.calls, r.URL.RequestURI())
		user, password := m.user, m.password
		forced := m.status[r.URL.Path]
		release := m.hold[r.URL.Path]
		m.mu.Unlock()

		if release != nil {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}

		if user != "" {
			u, p, ok := r.BasicAuth()
			if !ok || u != user || p != password {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}
		if forced != 0 {
			http.Error(w, "forced failure", forced)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *mockReceiver) handleStatusInfo(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	muted := m.muted
	m.mu.Unlock()
	writeJSON(w, map[string]any{
		"inStandby":        "false",
		"currservice_name": "Das Erste HD",
		"muted":            muted,
		"volume":           40,
	})
}

func (m *mockReceiver) handleZap(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	ok := m.zapOK
	if ok {
		m.zapped = r.URL.Query().Get("sRef")
	}
	m.mu.Unlock()
	msg := "Active service is now '" + r.URL.Query().Get("sRef") + "'"
	if !ok {
		msg = "Parameter sRef missing"
	}
	writeJSON(w, map[string]any{"result": ok, "message": msg})
}

func (m *mockReceiver) handleRemote(w http.ResponseWriter, r *http.Request) {
	cmd := r.URL.Query().Get("command")
	m.mu.Lock()
	m.commands = append(m.commands, cmd)
	m.mu.Unlock()
	writeJSON(w, map[string]any{"result": true, "message": "RC command '" + cmd + "' has been issued"})
}

func (m *mockReceiver) handleVol(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	if r.URL.Query().Get("set") == "mute" {
		m.muted = !m.muted
	}
	muted := m.muted
	m.mu.Unlock()
	writeJSON(w, map[string]any{"result": true, "message": "Volume", "current": 40, "ismute": muted})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
