// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/nuvctl/internal/config"
	"github.com/ManuGH/nuvctl/internal/version"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func hostPort(t *testing.T, raw string) (string, string) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	return host, port
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// receiver is a minimal OpenWebIF endpoint that records remote control keys.
type receiver struct {
	*httptest.Server
	mu   sync.Mutex
	keys []string
}

func newReceiver(t *testing.T) *receiver {
	t.Helper()
	r := &receiver{}
	mux := http.NewServeMux()
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/statusinfo", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"inStandby":"false","currservice_name":"Das Erste HD","muted":false,"volume":40}`)
	})
	mux.HandleFunc("/api/zap", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result":true,"message":"Active service is now 'Das Erste HD'"}`)
	})
	mux.HandleFunc("/api/remotecontrol", func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.keys = append(r.keys, req.URL.Query().Get("command"))
		r.mu.Unlock()
		_, _ = io.WriteString(w, `{"result":true,"message":"RC command sent"}`)
	})
	r.Server = httptest.NewServer(mux)
	t.Cleanup(r.Close)
	return r
}

func (r *receiver) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func TestVersion(t *testing.T) {
	code, out, _ := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, version.Version)
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := execute(t, "bogus")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown command")
}

func TestProbe_OK(t *testing.T) {
	rcv := newReceiver(t)
	host, port := hostPort(t, rcv.URL)

	code, out, _ := execute(t, "probe", "--domain", host, "--port", port, "--timeout", "2s")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "OK http://"+host+":"+port)
}

func TestProbe_FailureExitsOne(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	host, port := hostPort(t, srv.URL)

	code, out, _ := execute(t, "probe", "--domain", host, "--port", port, "--json")
	assert.Equal(t, 1, code)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, false, res["ok"])
	assert.Equal(t, "error", res["reason"])
}

func TestProbe_UsesConfiguredConnection(t *testing.T) {
	rcv := newReceiver(t)
	host, port := hostPort(t, rcv.URL)
	path := writeConfig(t, "connection:\n  domain: "+host+"\n  port: \""+port+"\"\n")

	code, out, _ := execute(t, "--config", path, "probe")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "OK ")
}

func TestProbe_InvalidForm(t *testing.T) {
	code, _, errOut := execute(t, "probe", "--protocol", "ftp", "--domain", "box")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unsupported scheme")

	code, _, errOut = execute(t, "probe")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "host is required")
}

func TestInit_PlaysAndPrintsJournal(t *testing.T) {
	rcv := newReceiver(t)
	host, port := hostPort(t, rcv.URL)

	code, out, _ := execute(t, "init", "--domain", host, "--port", port,
		"--id", "1:0:19:283D:3FB:1:C00000:0:0:0:", "--play", "--pause")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "state: ACTIVE")
	assert.Contains(t, out, "Initializing player")
	assert.Equal(t, []string{"207", "119"}, rcv.sent())
}

func TestInit_JSONReport(t *testing.T) {
	rcv := newReceiver(t)
	host, port := hostPort(t, rcv.URL)

	code, out, _ := execute(t, "init", "--domain", host, "--port", port, "--play", "--json")
	require.Equal(t, 0, code, out)

	var report struct {
		Outcome struct {
			State    string `json:"state"`
			Prepared bool   `json:"prepared"`
		} `json:"outcome"`
		Commands []struct {
			Action    string `json:"action"`
			Forwarded bool   `json:"forwarded"`
		} `json:"commands"`
		Journal []struct {
			Event string `json:"event"`
		} `json:"journal"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "ACTIVE", report.Outcome.State)
	assert.True(t, report.Outcome.Prepared)
	require.Len(t, report.Commands, 1)
	assert.Equal(t, "play", report.Commands[0].Action)
	assert.True(t, report.Commands[0].Forwarded)
	require.NotEmpty(t, report.Journal)
	assert.Equal(t, "session.initializing", report.Journal[0].Event)
}

func TestInit_UnknownDriverExitsOne(t *testing.T) {
	path := writeConfig(t, "player:\n  driver: nosuch\n")
	code, _, _ := execute(t, "--config", path, "init", "--domain", "box")
	assert.Equal(t, 1, code)
}

func TestConfigValidate_RedactsSecrets(t *testing.T) {
	path := writeConfig(t, "listenAddr: \":9090\"\nconnection:\n  domain: box\n  password: hunter2\n")

	code, out, _ := execute(t, "--config", path, "config", "validate")
	require.Equal(t, 0, code)
	assert.Contains(t, out, ":9090")
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "hunter2")
}

func TestConfigValidate_RejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "listenAddr: \":9090\"\nbogus: true\n")

	code, _, errOut := execute(t, "--config", path, "config", "validate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "load config")
}

func TestServe_WiresAPI(t *testing.T) {
	rcv := newReceiver(t)
	host, port := hostPort(t, rcv.URL)

	c := &cli{stdout: io.Discard, stderr: io.Discard}
	require.NoError(t, c.load(io.Discard))
	c.cfg.ListenAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	mgr, err := c.newDaemon(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	addr, err := mgr.Addr(waitCtx)
	require.NoError(t, err)
	base := "http://" + addr.String()
	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}

	body := `{"domain":"` + host + `","port":"` + port + `"}`
	req, err := http.NewRequest(http.MethodPost, base+"/api/v1/session", bytes.NewBufferString(body))
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ACTIVE", out["state"])

	req, err = http.NewRequest(http.MethodGet, base+"/readyz", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestDefaultOrigin(t *testing.T) {
	assert.Empty(t, defaultOrigin(config.ConnectionDefaults{}))
	assert.Empty(t, defaultOrigin(config.ConnectionDefaults{Domain: "box", Port: "nope"}))
	assert.Equal(t, "https://box:8443", defaultOrigin(config.ConnectionDefaults{Protocol: "https", Domain: "box", Port: "8443"}))
}
