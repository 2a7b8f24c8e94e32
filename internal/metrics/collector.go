// Package metrics provides the engine's prometheus instrumentation.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the engine's prometheus metrics. A nil
// *Collector is valid and records nothing, so instrumentation points
// never need nil checks at call sites.
type Collector struct {
	agentRequestsTotal   *prometheus.CounterVec
	agentRequestDuration *prometheus.HistogramVec
	activeAgents         *prometheus.GaugeVec

	workflowRunsTotal   *prometheus.CounterVec
	workflowDuration    *prometheus.HistogramVec

	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a collector registered against reg. A nil reg
// falls back to the default registerer; a nil logger becomes a nop.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.agentRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_requests_total",
			Help:      "Total agent requests",
		},
		[]string{"agent_role", "status"},
	)

	c.agentRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_request_duration_seconds",
			Help:      "Agent request duration",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent_role"},
	)

	c.activeAgents = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_agents",
			Help:      "Number of agents currently executing",
		},
		[]string{"agent_role"},
	)

	c.workflowRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "Total workflow runs",
		},
		[]string{"kind", "status"},
	)

	c.workflowDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Workflow run duration",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	c.cacheHitsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Result cache hits",
		},
		[]string{"operation"},
	)

	c.cacheMissesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Result cache misses",
		},
		[]string{"operation"},
	)

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	return c
}

// RecordAgent records one agent invocation outcome.
func (c *Collector) RecordAgent(role, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.agentRequestsTotal.WithLabelValues(role, status).Inc()
	c.agentRequestDuration.WithLabelValues(role).Observe(duration.Seconds())
}

// AgentStarted marks an agent as executing.
func (c *Collector) AgentStarted(role string) {
	if c == nil {
		return
	}
	c.activeAgents.WithLabelValues(role).Inc()
}

// AgentFinished marks an agent as settled.
func (c *Collector) AgentFinished(role string) {
	if c == nil {
		return
	}
	c.activeAgents.WithLabelValues(role).Dec()
}

// RecordWorkflow records one workflow run outcome.
func (c *Collector) RecordWorkflow(kind, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.workflowRunsTotal.WithLabelValues(kind, status).Inc()
	c.workflowDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordCacheHit records a result cache hit for an operation.
func (c *Collector) RecordCacheHit(operation string) {
	if c == nil {
		return
	}
	c.cacheHitsTotal.WithLabelValues(operation).Inc()
}

// RecordCacheMiss records a result cache miss for an operation.
func (c *Collector) RecordCacheMiss(operation string) {
	if c == nil {
		return
	}
	c.cacheMissesTotal.WithLabelValues(operation).Inc()
}

// RecordHTTP records one handled HTTP request.
func (c *Collector) RecordHTTP(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
