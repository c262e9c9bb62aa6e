package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for reconciliation and plan
// application. With metrics disabled every record call is a no-op, so
// callers never branch.
type Metrics struct {
	config MetricsConfig

	runsCompleted  *prometheus.CounterVec
	runDuration    prometheus.Histogram
	actionsApplied *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	planActions    *prometheus.GaugeVec
	planProblems   prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{config: cfg}
	}

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	m.runsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "veld",
		Name:      "runs_completed_total",
		Help:      "Plan applications by final status.",
	}, []string{"status"})

	m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "veld",
		Name:      "run_duration_seconds",
		Help:      "Wall time of whole plan applications.",
		Buckets:   prometheus.DefBuckets,
	})

	m.actionsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "veld",
		Name:      "actions_applied_total",
		Help:      "Applied actions by kind and status.",
	}, []string{"kind", "status"})

	m.actionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "veld",
		Name:      "action_duration_seconds",
		Help:      "Wall time of individual actions by kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	m.planActions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "veld",
		Name:      "plan_actions",
		Help:      "Action counts of the most recent plan by kind.",
	}, []string{"kind"})

	m.planProblems = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "veld",
		Name:      "plan_problems_total",
		Help:      "Packages excluded from plans by reconciliation errors.",
	})

	m.registry.MustRegister(
		m.runsCompleted, m.runDuration,
		m.actionsApplied, m.actionDuration,
		m.planActions, m.planProblems,
	)
	return m
}

// RecordRun records one completed plan application.
func (m *Metrics) RecordRun(status string, duration time.Duration) {
	if m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
}

// RecordAction records one applied (or skipped) action.
func (m *Metrics) RecordAction(kind, status string, duration time.Duration) {
	if m.actionsApplied == nil {
		return
	}
	m.actionsApplied.WithLabelValues(kind, status).Inc()
	m.actionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordPlan records the shape of a freshly computed plan.
func (m *Metrics) RecordPlan(actionsByKind map[string]int, problems int) {
	if m.planActions == nil {
		return
	}
	for kind, n := range actionsByKind {
		m.planActions.WithLabelValues(kind).Set(float64(n))
	}
	m.planProblems.Add(float64(problems))
}

// Handler returns the /metrics handler.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve blocks serving the metrics endpoint when enabled.
func (m *Metrics) Serve() error {
	if !m.config.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	if err := http.ListenAndServe(m.config.Listen, mux); err != nil {
		return fmt.Errorf("metrics listener failed: %w", err)
	}
	return nil
}
