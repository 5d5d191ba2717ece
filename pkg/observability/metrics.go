// Package observability provides Prometheus metrics and HTTP middleware
// for the logprobe tools and the mock backend.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// ProbeRequestsTotal counts probe requests by mode and outcome.
	ProbeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logprobe_probe_requests_total",
			Help: "Probe requests",
		},
		[]string{"mode", "status"},
	)

	// ProbeDuration records end-to-end probe duration in seconds by mode.
	ProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logprobe_probe_duration_seconds",
			Help:    "Probe duration",
			Buckets: LLMBuckets,
		},
		[]string{"mode"},
	)

	// ProbeTokensTotal counts output tokens observed across probes by mode.
	ProbeTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logprobe_probe_tokens_total",
			Help: "Output tokens observed",
		},
		[]string{"mode"},
	)

	// ProbeCheckFailuresTotal counts individual check failures by mode and check.
	ProbeCheckFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logprobe_probe_check_failures_total",
			Help: "Check failures",
		},
		[]string{"mode", "check"},
	)

	// ServerRequestsTotal counts mock backend HTTP requests by method, path,
	// and status class.
	ServerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logprobe_server_requests_total",
			Help: "Mock backend requests",
		},
		[]string{"method", "path", "status"},
	)

	// ServerRequestDuration records mock backend request duration in seconds.
	ServerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logprobe_server_request_duration_seconds",
			Help:    "Mock backend request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "path"},
	)

	// StreamingConnections tracks the number of active SSE streaming connections.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "logprobe_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ProbeRequestsTotal,
		ProbeDuration,
		ProbeTokensTotal,
		ProbeCheckFailuresTotal,
		ServerRequestsTotal,
		ServerRequestDuration,
		StreamingConnections,
	)
}
