package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search engine Prometheus metrics.
var (
	CanonicalQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aroihub",
			Name:      "canonical_queries_total",
			Help:      "Total canonical corpus queries issued by the reconciler",
		},
		[]string{"status"}, // "ok" / "error"
	)

	CanonicalQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aroihub",
			Name:      "canonical_query_duration_seconds",
			Help:      "Canonical corpus query duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	StaleResponsesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aroihub",
			Name:      "stale_responses_discarded_total",
			Help:      "Responses discarded because a newer request token exists",
		},
	)

	DebounceResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aroihub",
			Name:      "debounce_resets_total",
			Help:      "Debounce timer restarts caused by bursts of filter changes",
		},
	)

	CorpusCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aroihub",
			Name:      "corpus_cache_total",
			Help:      "Corpus cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(CanonicalQueriesTotal)
	prometheus.MustRegister(CanonicalQueryDuration)
	prometheus.MustRegister(StaleResponsesTotal)
	prometheus.MustRegister(DebounceResetsTotal)
	prometheus.MustRegister(CorpusCacheTotal)
	searchMetricsRegistered = true
}
