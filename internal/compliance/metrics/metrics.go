package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance facade. All methods are
// nil-safe so callers can run without metrics.
type Metrics struct {
	// Operation outcomes by operation and result code
	Operations *prometheus.CounterVec

	// Operation latency by operation
	OperationLatency *prometheus.HistogramVec

	// Status transitions by from/to
	StatusTransitions *prometheus.CounterVec

	// Gaps opened by severity
	GapsOpened *prometheus.CounterVec

	// Sweep runs and items changed per run
	SweepDuration prometheus.Histogram
	SweepChanged  prometheus.Counter
}

// New creates a new Metrics instance with all compliance metrics registered.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "complytrack_operations_total",
			Help: "Total facade operations by operation and result",
		}, []string{"operation", "result"}), // result: "ok" or an error code

		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complytrack_operation_duration_seconds",
			Help:    "Duration of facade operations including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "complytrack_status_transitions_total",
			Help: "Total persisted item status transitions",
		}, []string{"from", "to"}),

		GapsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "complytrack_gaps_opened_total",
			Help: "Total gaps opened by severity",
		}, []string{"severity"}),

		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "complytrack_sweep_duration_seconds",
			Help:    "Duration of a full re-derivation sweep",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),

		SweepChanged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complytrack_sweep_items_changed_total",
			Help: "Total items whose status or risk changed during a sweep",
		}),
	}
}

// ObserveOperation records an operation outcome and its duration.
func (m *Metrics) ObserveOperation(op, result string, d time.Duration) {
	if m != nil {
		m.Operations.WithLabelValues(op, result).Inc()
		m.OperationLatency.WithLabelValues(op).Observe(d.Seconds())
	}
}

// IncrementTransition records a persisted status change.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(from, to).Inc()
	}
}

// IncrementGapOpened records a new gap.
func (m *Metrics) IncrementGapOpened(severity string) {
	if m != nil {
		m.GapsOpened.WithLabelValues(severity).Inc()
	}
}

// ObserveSweep records one sweep run.
func (m *Metrics) ObserveSweep(d time.Duration, changed int) {
	if m != nil {
		m.SweepDuration.Observe(d.Seconds())
		m.SweepChanged.Add(float64(changed))
	}
}
