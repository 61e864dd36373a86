// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nuvctl_circuit_breaker_state",
		Help: "Circuit breaker state (1 for the current state, 0 otherwise)",
	}, []string{"name", "state"})

	breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nuvctl_circuit_breaker_trips_total",
		Help: "Transitions into the open state by cause",
	}, []string{"name", "reason"})
)

func setStateMetric(name string, current State) {
	for _, s := range []State{StateClosed, StateOpen, StateHalfOpen} {
		v := 0.0
		if s == current {
			v = 1
		}
		breakerState.WithLabelValues(name, string(s)).Set(v)
	}
}
