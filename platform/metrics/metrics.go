// Package metrics holds the Prometheus collectors for the intake pipeline.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Business metrics
	IntakeOutcomes     *prometheus.CounterVec
	AdvisorAssignments *prometheus.CounterVec
	Notifications      *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IntakeOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_outcomes_total",
				Help: "Lead intake results by outcome and source",
			},
			[]string{"outcome", "source"}, // created, duplicate_skipped, duplicate_review, invalid, failed
		),
		AdvisorAssignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_assignments_total",
				Help: "Advisor assignments by rotation pool",
			},
			[]string{"pool"}, // label, global, explicit, none
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_total",
				Help: "Outbound notifications by kind and status",
			},
			[]string{"kind", "status"}, // welcome/advisor/advisor_email, sent/failed/skipped
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.IntakeOutcomes, m.AdvisorAssignments, m.Notifications, m.HTTPRequestDuration)
	}
	return m
}

// Nop returns unregistered collectors; safe to increment, never exported.
func Nop() *Metrics {
	return New(nil)
}
