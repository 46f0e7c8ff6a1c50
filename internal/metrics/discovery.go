package metrics

import "github.com/prometheus/client_golang/prometheus"

// Discovery pipeline Prometheus metrics.
var (
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinewise",
			Name:      "gateway_requests_total",
			Help:      "Total number of places provider calls by outcome",
		},
		[]string{"status"}, // "ok" / "rate_limited" / "quota_exceeded" / "network" / "invalid_configuration"
	)

	GatewayRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dinewise",
			Name:      "gateway_request_duration_seconds",
			Help:      "Places provider call duration in seconds, retries included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	GatewayRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dinewise",
			Name:      "gateway_retries_total",
			Help:      "Total number of retried provider attempts",
		},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinewise",
			Name:      "cache_lookups_total",
			Help:      "Candidate cache lookups by result",
		},
		[]string{"result"}, // "fresh" / "stale" / "miss"
	)

	GovernorDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinewise",
			Name:      "governor_decisions_total",
			Help:      "Governor admission decisions by reason",
		},
		[]string{"decision", "reason"},
	)

	DailyCostAccrued = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dinewise",
			Name:      "daily_cost_accrued",
			Help:      "Provider cost charged since the last daily reset",
		},
	)

	DiscoveryOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinewise",
			Name:      "discovery_outcomes_total",
			Help:      "Discovery results by source and degradation",
		},
		[]string{"source", "degraded"},
	)

	RelaxationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinewise",
			Name:      "relaxations_total",
			Help:      "Applied filter relaxations by kind",
		},
		[]string{"kind"},
	)

	SafetyExclusionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinewise",
			Name:      "safety_exclusions_total",
			Help:      "Candidates excluded by the safety phase, by reason",
		},
		[]string{"reason"},
	)
)

var discoveryMetricsRegistered bool

// RegisterDiscoveryMetrics registers discovery pipeline metrics. Must be called once from main.
func RegisterDiscoveryMetrics() {
	if discoveryMetricsRegistered {
		return
	}
	prometheus.MustRegister(GatewayRequestsTotal)
	prometheus.MustRegister(GatewayRequestDuration)
	prometheus.MustRegister(GatewayRetriesTotal)
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(GovernorDecisionsTotal)
	prometheus.MustRegister(DailyCostAccrued)
	prometheus.MustRegister(DiscoveryOutcomesTotal)
	prometheus.MustRegister(RelaxationsTotal)
	prometheus.MustRegister(SafetyExclusionsTotal)
	discoveryMetricsRegistered = true
}
