package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perplexity",
			Name:      "search_requests_total",
			Help:      "Total number of web search provider requests",
		},
		[]string{"status"}, // "success" / "error"
	)

	PageFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perplexity",
			Name:      "page_fetch_total",
			Help:      "Total page fetch attempts by outcome",
		},
		[]string{"outcome"}, // ok / http_error / timeout / unsupported_type / parse_error
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perplexity",
			Name:      "llm_requests_total",
			Help:      "Total generation provider requests",
		},
		[]string{"kind", "status"}, // kind: "complete" / "stream"
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "perplexity",
			Name:      "llm_request_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perplexity",
			Name:      "llm_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"kind", "type"}, // type: "prompt" / "completion" / "total"
	)

	StreamDeltasForwardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "perplexity",
			Name:      "stream_deltas_forwarded_total",
			Help:      "Total delta events forwarded to clients",
		},
	)
)

// RegisterPipelineMetrics registers pipeline metrics with the default registry.
// Called explicitly from main (no init) so tests can run without registration.
func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		SearchRequestsTotal,
		PageFetchTotal,
		LLMRequestsTotal,
		LLMRequestDuration,
		LLMTokensTotal,
		StreamDeltasForwardedTotal,
	)
}
