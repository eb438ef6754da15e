package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wedful_notifications_created_total",
			Help: "Total number of notifications persisted",
		},
		[]string{"type"},
	)

	// NotificationsSuppressed counts notifications dropped by user preference.
	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wedful_notifications_suppressed_total",
			Help: "Total number of notifications suppressed by preference",
		},
		[]string{"type"},
	)

	// PushDeliveries counts per-subscription push attempts by result
	// (success|failed|pruned).
	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wedful_push_deliveries_total",
			Help: "Total number of push delivery attempts",
		},
		[]string{"result"},
	)

	// SweepRuns counts sweep job executions and their outcome (ok|error).
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wedful_sweep_runs_total",
			Help: "Total number of notification sweep executions",
		},
		[]string{"job", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wedful_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
