// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID  = "request_id"
	FieldSessionID  = "session_id"
	FieldInstanceID = "instance_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldDriver    = "driver"
	FieldAction    = "action"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Network fields
	FieldOrigin  = "origin"
	FieldURL     = "url"
	FieldHost    = "host"
	FieldStatus  = "status"
	FieldLatency = "latency_ms"
	FieldReason  = "reason"
)
