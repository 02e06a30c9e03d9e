package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks audit persistence.
type Metrics struct {
	EntriesAppended *prometheus.CounterVec
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics registers the audit metrics with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		EntriesAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "complytrack_audit_entries_appended_total",
			Help: "Total number of audit entries appended, by action",
		}, []string{"action"}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complytrack_audit_persist_failures_total",
			Help: "Total number of audit entries that failed to persist",
		}),
		PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "complytrack_audit_persist_duration_seconds",
			Help:    "Duration of audit entry persistence",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		}),
	}
}

func (m *Metrics) IncEntriesAppended(action string) {
	m.EntriesAppended.WithLabelValues(action).Inc()
}

func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

func (m *Metrics) ObservePersistDuration(seconds float64) {
	m.PersistDuration.Observe(seconds)
}
