// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/nuvctl/internal/log"
)

func testConfig() ServerConfig {
	cfg := DefaultServerConfig("127.0.0.1:0")
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(testConfig(), Deps{Logger: zerolog.Nop(), APIHandler: okHandler()})
	assert.ErrorIs(t, err, ErrMissingLogger)

	_, err = NewManager(testConfig(), Deps{Logger: log.WithComponent("test")})
	assert.ErrorIs(t, err, ErrMissingAPIHandler)

	mgr, err := NewManager(testConfig(), Deps{Logger: log.WithComponent("test"), APIHandler: okHandler()})
	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestShutdown_NotStarted(t *testing.T) {
	mgr, err := NewManager(testConfig(), Deps{Logger: log.WithComponent("test"), APIHandler: okHandler()})
	require.NoError(t, err)
	assert.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestStart_ServesUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var (
		mu    sync.Mutex
		order []string
	)
	hook := func(name string) ShutdownHook {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	workerStopped := make(chan struct{})
	mgr, err := NewManager(testConfig(), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: okHandler(),
		Workers: []Worker{{
			Name: "watcher",
			Run: func(ctx context.Context) error {
				<-ctx.Done()
				close(workerStopped)
				return ctx.Err()
			},
		}},
	})
	require.NoError(t, err)
	mgr.RegisterShutdownHook("first", hook("first"))
	mgr.RegisterShutdownHook("second", hook("second"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	addr, err := mgr.Addr(waitCtx)
	require.NoError(t, err)

	client := &http.Client{Timeout: 2 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Do(mustRequest(t, "http://"+addr.String()+"/"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	<-workerStopped
	assert.Equal(t, []string{"second", "first"}, order)
	assert.ErrorIs(t, mgr.Start(context.Background()), ErrAlreadyStarted)
}

func TestStart_WorkerFailureStopsServer(t *testing.T) {
	boom := errors.New("boom")
	mgr, err := NewManager(testConfig(), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: okHandler(),
		Workers: []Worker{{
			Name: "broken",
			Run:  func(context.Context) error { return boom },
		}},
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- mgr.Start(context.Background()) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after worker failure")
	}
}

func TestStart_ListenError(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = "256.0.0.1:bad"
	mgr, err := NewManager(cfg, Deps{Logger: log.WithComponent("test"), APIHandler: okHandler()})
	require.NoError(t, err)
	assert.Error(t, mgr.Start(context.Background()))
}

func TestShutdown_HookErrorsJoined(t *testing.T) {
	mgr, err := NewManager(testConfig(), Deps{Logger: log.WithComponent("test"), APIHandler: okHandler()})
	require.NoError(t, err)
	hookErr := errors.New("flush failed")
	mgr.RegisterShutdownHook("flush", func(context.Context) error { return hookErr })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = mgr.Start(ctx)
	assert.ErrorIs(t, err, hookErr)
	// Second shutdown is a no-op.
	assert.NoError(t, mgr.Shutdown(context.Background()))
}

func mustRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}
