package debounce

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	submissions    prometheus.Counter
	coalesced      prometheus.Counter
	emissions      *prometheus.CounterVec
	pending        prometheus.Gauge
	listenerPanics prometheus.Counter
}

// NewMetrics builds the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "debounced",
			Subsystem: "debounce",
			Name:      "submissions_total",
			Help:      "Total number of submitted payloads",
		}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "debounced",
			Subsystem: "debounce",
			Name:      "coalesced_total",
			Help:      "Submissions absorbed by an already scheduled timer",
		}),
		emissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "debounced",
			Subsystem: "debounce",
			Name:      "emissions_total",
			Help:      "Total number of emissions by reason",
		}, []string{"reason"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "debounced",
			Subsystem: "debounce",
			Name:      "pending_keys",
			Help:      "Keys currently held by the engine",
		}),
		listenerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "debounced",
			Subsystem: "debounce",
			Name:      "listener_panics_total",
			Help:      "Listener invocations that panicked",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.submissions, m.coalesced, m.emissions, m.pending, m.listenerPanics)
	}
	return m
}

func (m *Metrics) submitted() {
	if m != nil {
		m.submissions.Inc()
	}
}

func (m *Metrics) coalescedSubmit() {
	if m != nil {
		m.coalesced.Inc()
	}
}

func (m *Metrics) emitted(r Reason) {
	if m != nil {
		m.emissions.WithLabelValues(string(r)).Inc()
	}
}

func (m *Metrics) setPending(n int) {
	if m != nil {
		m.pending.Set(float64(n))
	}
}

func (m *Metrics) listenerPanicked() {
	if m != nil {
		m.listenerPanics.Inc()
	}
}
