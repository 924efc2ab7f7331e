package debounce

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountSubmissionsAndEmissions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	clk := newFakeClock()
	e := NewWithConfig(Config{DefaultWait: 100 * time.Millisecond, Clock: clk, Metrics: m})

	e.Submit("a", 1)
	e.Submit("a", 2)
	e.Submit("a", 3)
	e.Submit("b", 1)
	clk.Advance(100 * time.Millisecond)
	e.Trigger("b")

	assert.Equal(t, 4.0, testutil.ToFloat64(m.submissions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.coalesced))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.emissions.WithLabelValues("immediate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emissions.WithLabelValues("timer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emissions.WithLabelValues("trigger")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.pending))

	e.Flush()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.emissions.WithLabelValues("flush")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pending))

	n, err := testutil.GatherAndCount(reg, "debounced_debounce_emissions_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.submitted()
		m.coalescedSubmit()
		m.emitted(ReasonTimer)
		m.setPending(3)
		m.listenerPanicked()
	})
}
