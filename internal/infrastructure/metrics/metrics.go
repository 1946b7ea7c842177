package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics groups all reconciliation metrics. The scan gauges exist
// for liveness observation only and carry no correctness weight.
type SyncMetrics struct {
	// Bulk scan progress, reset at the start of every run
	ScanProgress prometheus.GaugeVec
	ScanDuration prometheus.HistogramVec

	// Per-user decisions
	UsersProcessedTotal prometheus.CounterVec
	LocksTotal          prometheus.Counter
	UnlocksTotal        prometheus.Counter
	RecordsDroppedTotal prometheus.Counter

	// External side effects
	ActivationsTotal         prometheus.CounterVec
	GroupCommitFailuresTotal prometheus.CounterVec

	// Queue consumption
	JobsConsumedTotal prometheus.CounterVec
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)

	return &SyncMetrics{
		ScanProgress: *factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mfa_scan_progress",
				Help: "Number of directory entries processed by the running scan",
			},
			[]string{"task"},
		),

		ScanDuration: *factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mfa_scan_duration_seconds",
				Help:    "Wall time of completed bulk scans",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"task"},
		),

		UsersProcessedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfa_users_processed_total",
				Help: "Directory entries inspected across all scans",
			},
			[]string{"task"},
		),

		LocksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mfa_locks_total",
				Help: "Users added to the locked directory group",
			},
		),

		UnlocksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mfa_unlocks_total",
				Help: "Users removed from the locked directory group",
			},
		),

		RecordsDroppedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mfa_records_dropped_total",
				Help: "Locked-user records deleted after enrollment or user removal",
			},
		),

		ActivationsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfa_activations_total",
				Help: "Provider directory-sync calls by result",
			},
			[]string{"result"},
		),

		GroupCommitFailuresTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfa_group_commit_failures_total",
				Help: "Failed directory group membership commits",
			},
			[]string{"group"},
		),

		JobsConsumedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfa_jobs_consumed_total",
				Help: "Queue jobs processed by name and result",
			},
			[]string{"job", "result"},
		),
	}
}
