// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package journal keeps the operator-facing diagnostic trail of a player
// session. Every failure in the session layer ends up here instead of being
// returned to a caller.
package journal

import (
	"fmt"
	"sync"
	"time"

	xglog "github.com/ManuGH/nuvctl/internal/log"
	"github.com/rs/zerolog"
)

// Level is the severity of an entry.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// DefaultCapacity bounds the number of retained entries.
const DefaultCapacity = 200

// Entry is one line of the journal.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Event   string    `json:"event"`
	Message string    `json:"message"`
}

// Journal is a bounded, concurrency-safe ring of entries.
type Journal struct {
	mu      sync.Mutex
	entries []Entry // oldest first
	start   int
	size    int
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// WithLogger overrides the logger entries are echoed to.
func WithLogger(l zerolog.Logger) Option {
	return func(j *Journal) { j.logger = l }
}

// New returns a journal holding at most capacity entries.
func New(capacity int, opts ...Option) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	j := &Journal{
		entries: make([]Entry, capacity),
		now:     time.Now,
		logger:  xglog.WithComponent("journal"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Add appends an entry and echoes it to the structured log.
func (j *Journal) Add(level Level, event, msg string) Entry {
	e := Entry{Time: j.now(), Level: level, Event: event, Message: msg}

	j.mu.Lock()
	capacity := len(j.entries)
	idx := (j.start + j.size) % capacity
	j.entries[idx] = e
	if j.size < capacity {
		j.size++
	} else {
		j.start = (j.start + 1) % capacity
	}
	j.mu.Unlock()

	var evt *zerolog.Event
	switch level {
	case LevelError:
		evt = j.logger.Error()
	case LevelWarn:
		evt = j.logger.Warn()
	default:
		evt = j.logger.Info()
	}
	evt.Str(xglog.FieldEvent, event).Msg(msg)
	return e
}

// Infof records an informational entry.
func (j *Journal) Infof(event, format string, args ...any) {
	j.Add(LevelInfo, event, fmt.Sprintf(format, args...))
}

// Warnf records a warning.
func (j *Journal) Warnf(event, format string, args ...any) {
	j.Add(LevelWarn, event, fmt.Sprintf(format, args...))
}

// Errorf records an error.
func (j *Journal) Errorf(event, format string, args ...any) {
	j.Add(LevelError, event, fmt.Sprintf(format, args...))
}

// Entries returns a snapshot, newest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, 0, j.size)
	capacity := len(j.entries)
	for i := j.size - 1; i >= 0; i-- {
		out = append(out, j.entries[(j.start+i)%capacity])
	}
	return out
}

// Clear drops all entries.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	clear(j.entries)
	j.start = 0
	j.size = 0
}

// Render formats entries the way the operator console shows them:
// "[15:04:05] message", newest first.
func Render(entries []Entry) string {
	var b []byte
	for _, e := range entries {
		b = fmt.Appendf(b, "[%s] %s\n", e.Time.Format("15:04:05"), e.Message)
	}
	return string(b)
}
