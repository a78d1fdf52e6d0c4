// Package metrics exposes Prometheus instrumentation for the engine.
//
// A nil *Metrics is valid and records nothing, so the engine can call it
// unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bouncer"

// Metrics holds the engine's collectors.
type Metrics struct {
	Checks        *prometheus.CounterVec
	CheckDuration prometheus.Histogram
	CacheLookups  *prometheus.CounterVec
	Mutations     *prometheus.CounterVec
	Errors        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// --- decisions ---
		Checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Authorization checks by decision and deciding tier",
		}, []string{"decision", "tier"}),

		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Time spent resolving uncached checks",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),

		// --- cache ---
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Decision cache lookups by result (hit, miss)",
		}, []string{"result"}),

		// --- ledger ---
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Committed mutations by operation",
		}, []string{"operation"}),

		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Storage and consistency failures by operation",
		}, []string{"operation"}),
	}

	if reg != nil {
		reg.MustRegister(m.Checks, m.CheckDuration, m.CacheLookups, m.Mutations, m.Errors)
	}
	return m
}

// ObserveCheck records one resolved decision.
func (m *Metrics) ObserveCheck(allowed bool, tier string) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.Checks.WithLabelValues(decision, tier).Inc()
}

// ObserveDuration records how long an uncached resolution took.
func (m *Metrics) ObserveDuration(start time.Time) {
	if m == nil {
		return
	}
	m.CheckDuration.Observe(time.Since(start).Seconds())
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveMutation records a committed mutation.
func (m *Metrics) ObserveMutation(operation string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(operation).Inc()
}

// ObserveError records a failed operation.
func (m *Metrics) ObserveError(operation string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(operation).Inc()
}
