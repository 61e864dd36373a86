// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	xglog "github.com/ManuGH/nuvctl/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 500 * time.Millisecond

// Holder keeps the current configuration and swaps it atomically on reload.
// A failed reload keeps the previous configuration.
type Holder struct {
	mu       sync.RWMutex
	current  AppConfig
	loader   *Loader
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	debounce time.Duration

	listenersMu sync.RWMutex
	listeners   []chan<- AppConfig
}

// NewHolder creates a holder with an already loaded configuration.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	return &Holder{
		current:  initial,
		loader:   loader,
		logger:   xglog.WithComponent("config"),
		debounce: defaultDebounce,
	}
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the configuration again.
func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str(xglog.FieldEvent, "config.reload_start").Msg("reloading configuration")

	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str(xglog.FieldEvent, "config.reload_failed").Msg("new configuration rejected, keeping previous")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	h.mu.Unlock()

	h.logChanges(prev, next)
	h.notifyListeners(next)
	h.logger.Info().Str(xglog.FieldEvent, "config.reload_success").Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher watches the config file and reloads on change. The parent
// directory is watched so editors that replace the file are noticed. It is a
// no-op without a config file. The watcher stops when ctx is done.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().Str(xglog.FieldEvent, "config.watcher_disabled").Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.mu.Lock()
	h.watcher = watcher
	h.mu.Unlock()

	h.logger.Info().Str(xglog.FieldEvent, "config.watcher_started").Str("path", path).Msg("watching config file for changes")
	go h.watchLoop(ctx, watcher, path)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(xglog.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			h.logger.Debug().Str(xglog.FieldEvent, "config.file_changed").Str("op", event.Op.String()).Msg("config file changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(h.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				_ = h.Reload(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str(xglog.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}

// Stop closes the watcher, if running.
func (h *Holder) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watcher != nil {
		_ = h.watcher.Close()
		h.watcher = nil
	}
}

// RegisterListener registers a channel that receives every successfully
// reloaded configuration. Sends never block; a full channel misses the update.
func (h *Holder) RegisterListener(ch chan<- AppConfig) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notifyListeners(cfg AppConfig) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Str(xglog.FieldEvent, "config.listener_skip").Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *Holder) logChanges(prev, next AppConfig) {
	if prev.Log.Level != next.Log.Level {
		h.logger.Info().Str("old", prev.Log.Level).Str("new", next.Log.Level).Msg("config changed: log.level")
	}
	if prev.Probe.Timeout != next.Probe.Timeout {
		h.logger.Info().Dur("old", prev.Probe.Timeout).Dur("new", next.Probe.Timeout).Msg("config changed: probe.timeout")
	}
	if prev.Player.Driver != next.Player.Driver {
		h.logger.Info().Str("old", prev.Player.Driver).Str("new", next.Player.Driver).Msg("config changed: player.driver")
	}
	if prev.ListenAddr != next.ListenAddr {
		h.logger.Warn().Str("old", prev.ListenAddr).Str("new", next.ListenAddr).Msg("config changed: listenAddr (requires restart)")
	}
}
