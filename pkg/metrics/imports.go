package metrics

import "github.com/prometheus/client_golang/prometheus"

// ImportMetrics counts channel import outcomes per channel account.
type ImportMetrics struct {
	outcomes *prometheus.CounterVec
}

// NewImportMetrics registers the import outcome counter.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	if reg == nil {
		return &ImportMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_import_outcomes_total",
		Help: "Channel order import results by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(outcomes)
	return &ImportMetrics{outcomes: outcomes}
}

// IncOutcome increments the counter for an import outcome.
func (m *ImportMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}
