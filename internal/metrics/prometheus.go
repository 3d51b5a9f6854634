package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of this package. A private registry keeps
// repeated test runs from tripping over the default one.
var Registry = prometheus.NewRegistry()

var (
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedgefund_llm_calls_total",
			Help: "Total number of text generation calls",
		},
		[]string{"caller", "status"}, // status: success|error|default|rate_limited
	)

	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hedgefund_llm_latency_seconds",
			Help:    "Text generation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"caller"},
	)

	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedgefund_provider_calls_total",
			Help: "Total number of market data provider calls",
		},
		[]string{"provider", "endpoint", "status"}, // status: success|error|cache_hit
	)

	RoundTablePhases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedgefund_roundtable_phase_total",
			Help: "Round table phases executed",
		},
		[]string{"phase", "status"}, // status: ok|degraded
	)

	AgentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hedgefund_agent_duration_seconds",
			Help:    "Analyst agent execution duration per ticker",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"agent"},
	)
)

func init() {
	Registry.MustRegister(LLMCalls)
	Registry.MustRegister(LLMLatency)
	Registry.MustRegister(ProviderCalls)
	Registry.MustRegister(RoundTablePhases)
	Registry.MustRegister(AgentDuration)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordLLMCall records one generation attempt.
func RecordLLMCall(caller, status string, latency time.Duration) {
	LLMCalls.WithLabelValues(caller, status).Inc()
	LLMLatency.WithLabelValues(caller).Observe(latency.Seconds())
}

// RecordProviderCall records a data provider request
func RecordProviderCall(provider, endpoint string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ProviderCalls.WithLabelValues(provider, endpoint, status).Inc()
}

// RecordCacheHit counts a provider request served from cache.
func RecordCacheHit(provider, endpoint string) {
	ProviderCalls.WithLabelValues(provider, endpoint, "cache_hit").Inc()
}

// RecordPhase records a round table phase outcome.
func RecordPhase(phase string, degraded bool) {
	status := "ok"
	if degraded {
		status = "degraded"
	}
	RoundTablePhases.WithLabelValues(phase, status).Inc()
}

// RecordAgentRun records how long one analyst took for one ticker.
func RecordAgentRun(agent string, duration time.Duration) {
	AgentDuration.WithLabelValues(agent).Observe(duration.Seconds())
}
