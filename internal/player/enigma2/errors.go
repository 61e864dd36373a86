// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package enigma2

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the session boundary.
	ErrDestroyed        = errors.New("enigma2: player destroyed")
	ErrInvalidDomain    = errors.New("enigma2: domain is empty or malformed")
	ErrUnsupportedEvent = errors.New("enigma2: unsupported event")
	ErrUnreachable      = errors.New("enigma2: receiver unreachable or transport failure")
	ErrUnauthorized     = errors.New("enigma2: credentials rejected")
	ErrUpstream         = errors.New("enigma2: receiver returned an error status")
	ErrBadResponse      = errors.New("enigma2: invalid response format")
	ErrRejected         = errors.New("enigma2: command rejected by receiver")
)

// RequestError wraps a sentinel with the failing operation and HTTP status.
type RequestError struct {
	Sentinel  error
	Operation string
	Status    int
	Message   string
	Err       error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("enigma2: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}
