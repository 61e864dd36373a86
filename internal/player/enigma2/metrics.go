// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package enigma2

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/nuvctl/internal/resilience"
)

var (
	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nuvctl_enigma2_request_total",
			Help: "Total number of OpenWebIF requests issued by the player driver",
		},
		[]string{"operation", "status_class"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nuvctl_enigma2_request_duration_seconds",
			Help:    "Duration of OpenWebIF requests issued by the player driver",
			Buckets: prometheus.ExponentialBuckets(0.05, 2.0, 8),
		},
		[]string{"operation", "status_class"},
	)
	eventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nuvctl_enigma2_events_total",
			Help: "Player events delivered to subscribers",
		},
		[]string{"event"},
	)
)

func statusClass(err error, status int) string {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return "circuit_open"
	}
	if err != nil && status == 0 {
		return "error"
	}
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status > 0:
		return "1xx"
	}
	return "unknown"
}

func recordRequest(operation string, status int, duration time.Duration, err error) {
	class := statusClass(err, status)
	requestTotal.WithLabelValues(operation, class).Inc()
	requestDuration.WithLabelValues(operation, class).Observe(duration.Seconds())
}
