package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ContextAssemblies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ckd_context_assemblies_total",
			Help: "Context assemblies by purpose and source (retrieval or fallback)",
		},
		[]string{"purpose", "source"},
	)

	WorkflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ckd_workflow_runs_total",
			Help: "Workflow runs by routed intent and outcome",
		},
		[]string{"intent", "status"},
	)

	WorkflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ckd_workflow_duration_seconds",
			Help:    "Workflow run latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"intent"},
	)

	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ckd_llm_tokens_total",
			Help: "Tokens consumed by chat model calls",
		},
		[]string{"model", "kind"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ckd_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ckd_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

func init() {
	prometheus.MustRegister(ContextAssemblies)
	prometheus.MustRegister(WorkflowRuns)
	prometheus.MustRegister(WorkflowDuration)
	prometheus.MustRegister(LLMTokens)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
}
