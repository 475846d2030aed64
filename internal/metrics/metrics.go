package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fathom_runs_started_total",
			Help: "Total number of assistant runs started",
		},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_runs_completed_total",
			Help: "Total number of assistant runs completed",
		},
		[]string{"outcome"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fathom_run_duration_seconds",
			Help:    "Assistant run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Router metrics
	RoutingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_routing_decisions_total",
			Help: "Routing decisions by path (primary or fallback) and kind",
		},
		[]string{"path", "decision"},
	)

	ClassifierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_classifier_failures_total",
			Help: "Primary classifier failures by reason",
		},
		[]string{"reason"},
	)

	// Worker metrics
	WorkerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_worker_runs_total",
			Help: "Worker executions by worker and status",
		},
		[]string{"worker", "status"},
	)

	WorkerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_worker_duration_ms",
			Help:    "Worker execution duration in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"worker"},
	)

	// Synthesis metrics
	SynthesisFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fathom_synthesis_fallbacks_total",
			Help: "Times synthesis degraded to the static apology answer",
		},
	)

	// Embedding metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_embedding_requests_total",
			Help: "Embedding requests by model and status",
		},
		[]string{"model", "status"},
	)

	EmbeddingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_embedding_latency_seconds",
			Help:    "Embedding request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// Vector search metrics
	VectorSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_vector_searches_total",
			Help: "Vector searches by collection and status",
		},
		[]string{"collection", "status"},
	)

	VectorSearchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_vector_search_latency_seconds",
			Help:    "Vector search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	// LLM service metrics
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_llm_requests_total",
			Help: "LLM service requests by purpose and status",
		},
		[]string{"purpose", "status"},
	)

	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_llm_latency_seconds",
			Help:    "LLM service request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"purpose"},
	)

	// Chart generator metrics
	ChartGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_chart_generations_total",
			Help: "Chart spec generations by kind and status",
		},
		[]string{"kind", "status"},
	)

	// Streaming metrics
	StreamEventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fathom_stream_events_published_total",
			Help: "Run-state events published to the streaming manager",
		},
	)

	StreamSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fathom_stream_subscribers",
			Help: "Currently connected stream subscribers",
		},
	)
)

// RecordEmbeddingMetrics records an embedding request outcome with latency.
func RecordEmbeddingMetrics(model, status string, seconds float64) {
	EmbeddingRequests.WithLabelValues(model, status).Inc()
	if seconds > 0 {
		EmbeddingLatency.WithLabelValues(model).Observe(seconds)
	}
}

// RecordVectorSearchMetrics records a vector search outcome with latency.
func RecordVectorSearchMetrics(collection, status string, seconds float64) {
	VectorSearches.WithLabelValues(collection, status).Inc()
	if seconds > 0 {
		VectorSearchLatency.WithLabelValues(collection).Observe(seconds)
	}
}

// RecordLLMMetrics records an LLM service request outcome with latency.
func RecordLLMMetrics(purpose, status string, seconds float64) {
	LLMRequests.WithLabelValues(purpose, status).Inc()
	if seconds > 0 {
		LLMLatency.WithLabelValues(purpose).Observe(seconds)
	}
}
