// Package metrics counts scenario runs, steps, retries and suppressed load
// waits. Each Metrics owns a registry so parallel test binaries never share
// state; the CLI writes it out in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scenariorunner"

// Metrics collects runner counters. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	attempts     *prometheus.CounterVec
	retries      *prometheus.CounterVec
	transient    *prometheus.CounterVec
	launchErrors prometheus.Counter
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Scenario runs by final status.",
		}, []string{"status"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a scenario run from acquire to teardown.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Executed steps by kind and outcome.",
		}, []string{"kind", "outcome"}),
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of a single step including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_attempts_total",
			Help:      "Attempts made by interaction steps.",
		}, []string{"kind"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_retries_total",
			Help:      "Attempts beyond the first made by interaction steps.",
		}, []string{"kind"}),
		transient: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transient_wait_timeouts_total",
			Help:      "Load-state waits that timed out and were ignored.",
		}, []string{"kind"}),
		launchErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "launch_errors_total",
			Help:      "Sessions that could not be acquired.",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordStep counts a finished step and the attempts it used.
func (m *Metrics) RecordStep(kind string, attempts int, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	m.steps.WithLabelValues(kind, outcome).Inc()
	m.stepDuration.WithLabelValues(kind).Observe(d.Seconds())
	if attempts > 0 {
		m.attempts.WithLabelValues(kind).Add(float64(attempts))
	}
	if attempts > 1 {
		m.retries.WithLabelValues(kind).Add(float64(attempts - 1))
	}
}

// RecordTransient counts suppressed load-state timeouts.
func (m *Metrics) RecordTransient(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.transient.WithLabelValues(kind).Add(float64(count))
}

// RecordLaunchError counts a failed session acquisition.
func (m *Metrics) RecordLaunchError() {
	if m == nil {
		return
	}
	m.launchErrors.Inc()
}

// WriteTextfile writes every metric to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
