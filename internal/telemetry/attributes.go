// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Probe attributes
	ProbeOriginKey  = "probe.origin"
	ProbeTimeoutKey = "probe.timeout_ms"
	ProbeResultKey  = "probe.result"

	// Player attributes
	PlayerDriverKey  = "player.driver"
	PlayerActionKey  = "player.action"
	PlayerStateKey   = "player.state"
	PlayerHostKey    = "player.host"
	PlayerForwardKey = "player.forwarded"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// PlayerAttributes creates span attributes for a forwarded player command.
// Empty values are omitted.
func PlayerAttributes(driver, action string, forwarded bool) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if driver != "" {
		attrs = append(attrs, attribute.String(PlayerDriverKey, driver))
	}
	if action != "" {
		attrs = append(attrs, attribute.String(PlayerActionKey, action))
	}
	attrs = append(attrs, attribute.Bool(PlayerForwardKey, forwarded))
	return attrs
}
