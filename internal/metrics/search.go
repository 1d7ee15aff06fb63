package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline collectors. Registered explicitly from the composition
// root (no init()) so library consumers of the SDK can opt out.
var (
	// RelaxationLevelTotal counts planner runs by the level they settled at.
	RelaxationLevelTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homescout",
			Name:      "relaxation_level_total",
			Help:      "Planner runs by final relaxation level",
		},
		[]string{"level"},
	)

	// CacheRequestsTotal counts result cache lookups by outcome.
	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homescout",
			Name:      "result_cache_requests_total",
			Help:      "Result cache lookups by outcome (hit, miss, stale)",
		},
		[]string{"outcome"},
	)

	// GatewayErrorsTotal counts upstream gateway failures by kind.
	GatewayErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homescout",
			Name:      "gateway_errors_total",
			Help:      "Upstream gateway failures by kind (timeout, rate_limited, malformed, upstream)",
		},
		[]string{"kind"},
	)

	// LockWaitSeconds observes how long session lock acquisition waited.
	LockWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "homescout",
			Name:      "session_lock_wait_seconds",
			Help:      "Session lock acquisition wait in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// LockTimeoutsTotal counts lock acquisitions that gave up.
	LockTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "homescout",
			Name:      "session_lock_timeouts_total",
			Help:      "Session lock acquisitions that timed out",
		},
	)
)

// RegisterSearchMetrics registers the search pipeline collectors.
func RegisterSearchMetrics() {
	prometheus.MustRegister(
		RelaxationLevelTotal,
		CacheRequestsTotal,
		GatewayErrorsTotal,
		LockWaitSeconds,
		LockTimeoutsTotal,
	)
}
