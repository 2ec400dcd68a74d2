package selection

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caption_selections_total",
			Help: "Count of selection requests by segment and outcome.",
		},
		[]string{"segment", "outcome"},
	)

	CaptionsSelectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caption_selected_total",
			Help: "Count of selected captions by tier and strategy.",
		},
		[]string{"tier", "strategy"},
	)

	CandidatesExcludedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caption_candidates_excluded_total",
			Help: "Count of candidates excluded before ranking, by reason.",
		},
		[]string{"reason"},
	)

	PoolWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caption_pool_exhaustion_warnings_total",
			Help: "Count of tiers whose filtered pool fell below the guardrail.",
		},
		[]string{"tier"},
	)

	AssignmentConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "caption_assignment_conflicts_total",
			Help: "Count of ledger writes rejected by an existing active assignment.",
		},
	)

	SoftPatternsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "caption_soft_patterns_skipped_total",
			Help: "Count of soft restriction patterns skipped because they failed to compile.",
		},
	)

	SnapshotBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "caption_snapshot_breaker_state",
			Help: "Reference snapshot circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SelectionsTotal,
		CaptionsSelectedTotal,
		CandidatesExcludedTotal,
		PoolWarningsTotal,
		AssignmentConflictsTotal,
		SoftPatternsSkippedTotal,
		SnapshotBreakerState,
	)
}
