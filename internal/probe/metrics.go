// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package probe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nuvctl_probe_total",
		Help: "Reachability probes by verdict (ok, timeout, error)",
	}, []string{"result"})

	probeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nuvctl_probe_duration_seconds",
		Help:    "Time until a reachability probe resolved",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"result"})
)

func observe(r Result) {
	label := resultLabel(r)
	probeTotal.WithLabelValues(label).Inc()
	probeDuration.WithLabelValues(label).Observe(r.Latency.Seconds())
}
