// In file: internal/metrics/metrics.go

// Package metrics exposes gateway counters and latencies in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder owns a private registry so that tests can create as many as they need.
// A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	agentRuns        *prometheus.CounterVec
	agentRunDuration *prometheus.HistogramVec
	modelAnswers     *prometheus.CounterVec
	toolCalls        *prometheus.CounterVec
	tokens           *prometheus.CounterVec
}

// NewRecorder registers the gateway metrics plus the Go and process collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		agentRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_runs_total",
			Help: "Agent runs by agent and outcome.",
		}, []string{"agent", "status"}),
		agentRunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agent_run_duration_seconds",
			Help:    "Wall time of agent runs, tool calls included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"agent"}),
		modelAnswers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "model_answers_total",
			Help: "Runs answered per model after routing and fallbacks.",
		}, []string{"model"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Tool executions by tool and outcome.",
		}, []string{"tool", "status"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "model_tokens_total",
			Help: "Tokens consumed per model and direction.",
		}, []string{"model", "direction"}), // direction: prompt, completion
	}

	registry.MustRegister(r.agentRuns, r.agentRunDuration, r.modelAnswers, r.toolCalls, r.tokens)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordRun counts one agent run. model and the token counts are only
// recorded for successful runs.
func (r *Recorder) RecordRun(agent, model string, elapsed time.Duration, promptTokens, completionTokens int, err error) {
	if r == nil {
		return
	}
	r.agentRunDuration.WithLabelValues(agent).Observe(elapsed.Seconds())
	if err != nil {
		r.agentRuns.WithLabelValues(agent, StatusError).Inc()
		return
	}
	r.agentRuns.WithLabelValues(agent, StatusSuccess).Inc()
	r.modelAnswers.WithLabelValues(model).Inc()
	r.tokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	r.tokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

// RecordToolCall counts one tool execution.
func (r *Recorder) RecordToolCall(tool string, failed bool) {
	if r == nil {
		return
	}
	status := StatusSuccess
	if failed {
		status = StatusError
	}
	r.toolCalls.WithLabelValues(tool, status).Inc()
}
