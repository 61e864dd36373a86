// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK                 = "ok"
	resultInvalid            = "invalid"
	resultLibraryMissing     = "library_missing"
	resultConstructionFailed = "construction_failed"
	resultNoInstance         = "no_instance"
	resultUnsupported        = "unsupported"
	resultFailed             = "failed"
)

var (
	initializeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nuvctl_session_initialize_total",
		Help: "Player initializations by result",
	}, []string{"result"})

	commandTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nuvctl_session_command_total",
		Help: "Transport commands by action and result",
	}, []string{"action", "result"})

	teardownTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nuvctl_session_teardown_total",
		Help: "Player teardowns by result (ok, failed, unsupported)",
	}, []string{"result"})

	activeInstances = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nuvctl_session_active",
		Help: "1 while a player instance is active",
	})
)
