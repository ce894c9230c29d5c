// Package metrics exposes Prometheus collectors for agent runs, capability
// dispatch and reasoning-engine calls. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "schoolmate"

// Metrics groups the schoolmate collectors.
type Metrics struct {
	runs               *prometheus.CounterVec
	capabilityCalls    *prometheus.CounterVec
	capabilityDuration *prometheus.HistogramVec
	modelCalls         *prometheus.CounterVec
	subjectOverrides   prometheus.Counter
	gatherer           prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_runs_total",
				Help:      "Agent orchestration runs by terminal state.",
			},
			[]string{"state"},
		),
		capabilityCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "capability_calls_total",
				Help:      "Capability invocations by capability and result.",
			},
			[]string{"capability", "result"},
		),
		capabilityDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "capability_duration_seconds",
				Help:      "Capability invocation latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"capability"},
		),
		modelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Reasoning engine round-trips by phase and result.",
			},
			[]string{"phase", "result"},
		),
		subjectOverrides: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subject_overrides_total",
				Help:      "Engine supplied subject identifiers replaced by the caller's.",
			},
		),
	}

	reg.MustRegister(m.runs, m.capabilityCalls, m.capabilityDuration, m.modelCalls, m.subjectOverrides)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun(state string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(state).Inc()
}

// ObserveCapability records one capability invocation.
func (m *Metrics) ObserveCapability(capability string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.capabilityCalls.WithLabelValues(capability, result(err)).Inc()
	m.capabilityDuration.WithLabelValues(capability).Observe(dur.Seconds())
}

// ObserveModelCall records one reasoning engine round-trip.
func (m *Metrics) ObserveModelCall(phase string, err error) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(phase, result(err)).Inc()
}

// ObserveSubjectOverride counts a subject identifier substitution.
func (m *Metrics) ObserveSubjectOverride() {
	if m == nil {
		return
	}
	m.subjectOverrides.Inc()
}

// Handler serves the registry the metrics were registered with. It falls back
// to the default gatherer when that registry cannot be gathered.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
