// Package metrics registra os coletores Prometheus do gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "feedhub"

// Label names.
const (
	FieldTier    = "tier"
	FieldOutcome = "outcome"
	FieldResult  = "result"
	FieldStatus  = "status"
)

// Metrics agrupa os contadores expostos em /metrics.
type Metrics struct {
	decisions     *prometheus.CounterVec
	verifications *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
}

// New cria e registra os coletores em reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Number of rate limit checks by tier and outcome",
		}, []string{FieldTier, FieldOutcome}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "verifications_total",
			Help:      "Number of inbound webhook signature checks by result",
		}, []string{FieldResult}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "deliveries_total",
			Help:      "Number of signed outbound webhook deliveries by status class",
		}, []string{FieldStatus}),
	}
	reg.MustRegister(m.decisions, m.verifications, m.deliveries)
	return m
}

func (m *Metrics) ObserveDecision(tier, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(tier, outcome).Inc()
}

func (m *Metrics) ObserveVerification(result string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveDelivery(status string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(status).Inc()
}
