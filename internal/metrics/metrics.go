package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics owns a private registry so tests and multiple servers do not
// collide on the default one. A nil *Metrics records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	workflows    *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	resetPurged  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userauth_workflow_total",
			Help: "Auth workflow executions by outcome",
		}, []string{"workflow", "outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "userauth_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		resetPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userauth_reset_tokens_purged_total",
			Help: "Expired password reset tokens cleared by the purge job",
		}),
	}
	registry.MustRegister(m.workflows, m.httpDuration, m.resetPurged)
	return m
}

func (m *Metrics) ObserveWorkflow(workflow, outcome string) {
	if m == nil {
		return
	}
	m.workflows.WithLabelValues(workflow, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) AddResetPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.resetPurged.Add(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
