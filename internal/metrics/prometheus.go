package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Agent metrics
	AgentTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_agent_turns_total",
			Help: "Total number of agent analysis turns",
		},
		[]string{"status"}, // status: success|invalid_input|error
	)

	AgentTurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cortex_agent_turn_duration_seconds",
			Help:    "Agent turn duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	AgentFanoutFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_agent_fanout_failures_total",
			Help: "Fan-out legs that degraded to an empty default",
		},
		[]string{"leg"}, // leg: actions|insights|metrics
	)

	// Analysis backend metrics
	AnalysisCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_analysis_calls_total",
			Help: "Total number of analysis backend calls",
		},
		[]string{"kind", "status"}, // kind: analysis|workflow|insights|metrics, status: success|error
	)

	AnalysisLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cortex_analysis_latency_seconds",
			Help:    "Analysis backend call latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"kind"},
	)

	// LLM metrics
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_llm_calls_total",
			Help: "Total number of LLM completion calls",
		},
		[]string{"provider", "status"},
	)

	// Workflow metrics
	WorkflowExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_workflow_executions_total",
			Help: "Total number of workflow executions",
		},
		[]string{"status"}, // status: completed|failed
	)

	WorkflowDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cortex_workflow_duration_seconds",
			Help:    "Workflow execution duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	ActionExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_workflow_actions_total",
			Help: "Total number of workflow action executions",
		},
		[]string{"type", "status"}, // status: completed|failed
	)

	// Analyzer cache metrics
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_analyzer_cache_requests_total",
			Help: "Analyzer cache lookups",
		},
		[]string{"analyzer", "result"}, // result: hit|miss
	)
)

func init() {
	prometheus.MustRegister(
		AgentTurns,
		AgentTurnDuration,
		AgentFanoutFailures,
		AnalysisCalls,
		AnalysisLatency,
		LLMCalls,
		WorkflowExecutions,
		WorkflowDuration,
		ActionExecutions,
		CacheRequests,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAnalysisCall records one backend call with its latency
func RecordAnalysisCall(kind string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AnalysisCalls.WithLabelValues(kind, status).Inc()
	AnalysisLatency.WithLabelValues(kind).Observe(latency.Seconds())
}

// RecordLLMCall records one LLM completion call
func RecordLLMCall(provider string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LLMCalls.WithLabelValues(provider, status).Inc()
}

// RecordActionExecution records one workflow action execution
func RecordActionExecution(actionType string, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	ActionExecutions.WithLabelValues(actionType, status).Inc()
}
