package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pulledRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "statsync",
			Subsystem: "sync",
			Name:      "pulled_records_total",
			Help:      "Records received by pulls, by outcome.",
		},
		[]string{"database", "state"},
	)

	pushedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "statsync",
			Subsystem: "sync",
			Name:      "pushed_records_total",
			Help:      "Records sent by pushes, by outcome.",
		},
		[]string{"database", "outcome"},
	)

	operationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "statsync",
			Subsystem: "sync",
			Name:      "operation_failures_total",
			Help:      "Pulls and pushes that failed in transport.",
		},
		[]string{"database", "operation"},
	)
)
