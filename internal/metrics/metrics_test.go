package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Transition("pending", "assigned")
	m.Transition("pending", "assigned")
	m.AutoAssign("assigned")
	m.Delivered(3)
	m.Pruned(0)
	m.Swept("expired", 2)
	m.Connections(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "assigned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.autoAssign.WithLabelValues("assigned")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.deliveries))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pruned))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sweep.WithLabelValues("expired")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.connections))
}

func TestMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	first.ETALookup("haversine")
	second.ETALookup("haversine")

	assert.Equal(t, 2.0, testutil.ToFloat64(first.etaLookups.WithLabelValues("haversine")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("a", "b")
		m.Relay("in", "ok")
		m.Connections(1)
	})
}
