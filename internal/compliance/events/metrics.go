package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks event delivery.
type Metrics struct {
	Published   prometheus.Counter
	Failed      prometheus.Counter
	Dropped     prometheus.Counter
	BreakerOpen prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complytrack_events_published_total",
			Help: "Total number of events delivered to the broker",
		}),
		Failed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complytrack_events_failed_total",
			Help: "Total number of events the broker rejected or timed out",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complytrack_events_dropped_total",
			Help: "Total number of events dropped while the circuit breaker was open",
		}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "complytrack_events_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

func (m *Metrics) IncPublished(n int) { m.Published.Add(float64(n)) }
func (m *Metrics) IncFailed(n int)    { m.Failed.Add(float64(n)) }
func (m *Metrics) IncDropped(n int)   { m.Dropped.Add(float64(n)) }

func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.BreakerOpen.Set(1)
	} else {
		m.BreakerOpen.Set(0)
	}
}
