package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCheck(true, "general")
		m.ObserveDuration(time.Now())
		m.ObserveCache(true)
		m.ObserveMutation("allow")
		m.ObserveError("can")
	})
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCheck(true, "specific")
	m.ObserveCheck(false, "general")
	m.ObserveCheck(false, "general")
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveMutation("forbid")
	m.ObserveError("can")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Checks.WithLabelValues("allow", "specific")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Checks.WithLabelValues("deny", "general")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Mutations.WithLabelValues("forbid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Errors.WithLabelValues("can")))

	count, err := testutil.GatherAndCount(reg, "bouncer_checks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewWithoutRegistry(t *testing.T) {
	m := New(nil)
	m.ObserveMutation("assign")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Mutations.WithLabelValues("assign")))
}
