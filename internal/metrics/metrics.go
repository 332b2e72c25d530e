// Package metrics exposes prometheus counters for the engine's hot paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsCreated counts new attendance sessions (idempotent hits excluded).
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_sessions_created_total",
		Help: "Number of attendance sessions created.",
	})

	// StatusesUpserted counts status rows written by mark operations.
	StatusesUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_statuses_upserted_total",
		Help: "Number of attendance status records inserted or updated.",
	})

	// BatchRowsSkipped counts batch rows dropped by the skip-invalid policy.
	BatchRowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_batch_rows_skipped_total",
		Help: "Number of batch entries skipped, by reason.",
	}, []string{"reason"})

	// NotificationsSent counts notifications written by the dispatcher.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_notifications_sent_total",
		Help: "Number of notifications created.",
	})

	// SideEffectFailures counts best-effort side-channel writes that failed.
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_side_effect_failures_total",
		Help: "Number of failed best-effort side tasks, by task.",
	}, []string{"task"})
)
