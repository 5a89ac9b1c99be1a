package redirect

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records redirect decisions. A nil *Metrics records nothing.
type Metrics struct {
	decisions *prometheus.CounterVec
	duration  prometheus.Histogram
	space     *prometheus.CounterVec
}

// NewMetrics creates the redirect collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "torua",
			Subsystem: "redirect",
			Name:      "decisions_total",
			Help:      "Locate decisions by outcome and deciding gate.",
		}, []string{"outcome", "reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "torua",
			Subsystem: "redirect",
			Name:      "locate_duration_seconds",
			Help:      "Time spent answering a locate request, including the remote locator.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		space: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "torua",
			Subsystem: "redirect",
			Name:      "space_queries_total",
			Help:      "Space queries forwarded to the cluster manager.",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(m.decisions, m.duration, m.space)
	}
	return m
}

// ObserveDecision counts d and the time taken to reach it.
func (m *Metrics) ObserveDecision(d Decision, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(d.Outcome(), string(d.Reason())).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveSpace counts a forwarded space query.
func (m *Metrics) ObserveSpace(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.space.WithLabelValues(status).Inc()
}
