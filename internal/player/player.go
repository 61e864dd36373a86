// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package player describes the narrow contract with external player libraries.
//
// A library hands back an Instance that may implement any subset of the
// capability interfaces below. Callers must type-assert before every use and
// treat a missing capability as a skipped operation, never as a failure.
package player

import (
	"context"
	"time"
)

// Options is the configuration record passed to a library constructor.
type Options struct {
	// Domain is the host the library connects to. When a port was supplied it
	// is embedded here as "host:port".
	Domain   string `json:"domain"`
	ID       string `json:"id"`
	Protocol string `json:"protocol"`
	User     string `json:"user"`
	Password string `json:"-"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Mute     bool   `json:"mute"`
	Element  string `json:"playerElement"`
}

// DefaultElement names the container the player renders into.
const DefaultElement = "player"

// Instance is an opaque handle returned by a library.
type Instance any

// Constructor creates a player instance. It is the only mandatory entry point
// of a library.
type Constructor func(ctx context.Context, opts Options) (Instance, error)

// Preparer loads the source and gets the instance ready to play.
type Preparer interface {
	Prepare() error
}

// Player starts playback.
type Player interface {
	Play() error
}

// Pauser pauses playback.
type Pauser interface {
	Pause() error
}

// MuteSetter sets the mute state explicitly.
type MuteSetter interface {
	SetMute(muted bool) error
}

// Muter mutes without reporting or accepting a state.
type Muter interface {
	Mute() error
}

// MuteReporter exposes the current mute state. known is false until the
// instance has observed the state at least once.
type MuteReporter interface {
	IsMuted() (muted bool, known bool)
}

// Destroyer releases everything held by the instance.
type Destroyer interface {
	Destroy() error
}

// Subscriber registers notification handlers.
type Subscriber interface {
	On(event string, fn Handler) error
}

// Event names a library may emit.
const (
	EventReady = "ready"
	EventError = "error"
)

// Event is a notification emitted by an instance.
type Event struct {
	Name   string    `json:"name"`
	Time   time.Time `json:"time"`
	Detail string    `json:"detail,omitempty"`
	Err    error     `json:"-"`
}

// Handler receives events. It may be called from any goroutine.
type Handler func(Event)
