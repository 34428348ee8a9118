package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopsense",
			Name:      "searches_total",
			Help:      "Total number of search pipelines by terminal status",
		},
		[]string{"status"}, // "complete" / "error"
	)

	SearchesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shopsense",
			Name:      "searches_in_flight",
			Help:      "Number of search pipelines currently running",
		},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopsense",
			Name:      "stage_duration_seconds",
			Help:      "Search pipeline stage duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	ReasoningCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopsense",
			Name:      "reasoning_calls_total",
			Help:      "Per-product reasoning calls by outcome",
		},
		[]string{"outcome"}, // "ok" / "fallback"
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopsense",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchesInFlight)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(ReasoningCallsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	pipelineMetricsRegistered = true
}
