// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"errors"
	"time"

	"github.com/ManuGH/nuvctl/internal/connection"
	"github.com/ManuGH/nuvctl/internal/player"
	"github.com/ManuGH/nuvctl/internal/probe"
)

// State of the active player slot.
type State string

const (
	StateAbsent State = "ABSENT"
	StateActive State = "ACTIVE"
)

var (
	// ErrEmptyHost aborts initialization before any side effect.
	ErrEmptyHost = connection.ErrEmptyHost
	// ErrLibraryMissing means no constructor is registered for the driver.
	ErrLibraryMissing = errors.New("session: player library not loaded")
	// ErrConstruction means the constructor failed or panicked.
	ErrConstruction = errors.New("session: player construction failed")

	errPanicked = errors.New("panic")
)

// Outcome describes what Initialize did. Callers may ignore it; every
// failure has already been written to the journal.
type Outcome struct {
	State      State        `json:"state"`
	Origin     string       `json:"origin,omitempty"`
	Probe      probe.Result `json:"probe"`
	InstanceID string       `json:"instanceId,omitempty"`
	Prepared   bool         `json:"prepared"`
	Err        error        `json:"-"`
}

// CommandResult describes a forwarded transport command.
type CommandResult struct {
	Action    string `json:"action"`
	Forwarded bool   `json:"forwarded"`
	// Muted is the requested mute state for the mute action.
	Muted *bool `json:"muted,omitempty"`
	Err   error `json:"-"`
}

// Status is a point-in-time view of the session.
type Status struct {
	State        State               `json:"state"`
	Driver       string              `json:"driver"`
	InstanceID   string              `json:"instanceId,omitempty"`
	Since        time.Time           `json:"since,omitempty"`
	Capabilities player.Capabilities `json:"capabilities"`
}
