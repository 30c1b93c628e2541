package risk

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GateMetrics exposes validator outcomes as prometheus counters. The counters
// hang off an explicitly registered collector rather than the global registry
// so test and parallel validators stay isolated.
type GateMetrics struct {
	validations *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// NewGateMetrics creates and registers the gate counters on the given
// registerer. Pass prometheus.DefaultRegisterer for process-wide metrics.
func NewGateMetrics(reg prometheus.Registerer) *GateMetrics {
	m := &GateMetrics{
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tftrader_risk_validations_total",
				Help: "Total signal validations by outcome",
			},
			[]string{"outcome"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tftrader_risk_rejections_total",
				Help: "Total signal rejections by reason",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(m.validations, m.rejections)
	return m
}

func (m *GateMetrics) observe(passed bool, reason RejectionReason) {
	if passed {
		m.validations.WithLabelValues("accepted").Inc()
		return
	}
	m.validations.WithLabelValues("rejected").Inc()
	m.rejections.WithLabelValues(string(reason)).Inc()
}
