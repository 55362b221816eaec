// Package metrics exposes the operator-facing counters. Soft failures that
// the user never sees (reconcile errors, provider drift) are only visible
// here and in the logs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus counters.
type Metrics struct {
	MeteredRequestsTotal  *prometheus.CounterVec
	GatewayErrorsTotal    *prometheus.CounterVec
	ReconcileFailures     prometheus.Counter
	StateInconsistencies  prometheus.Counter
	TrialExpirationsTotal prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		MeteredRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facelens_metered_requests_total",
				Help: "Total metered API calls, partitioned by billability",
			},
			[]string{"billable"},
		),
		GatewayErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facelens_gateway_errors_total",
				Help: "Payment gateway failures by operation",
			},
			[]string{"operation"},
		),
		ReconcileFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "facelens_reconcile_failures_total",
				Help: "Login reconciles that failed soft against the gateway",
			},
		),
		StateInconsistencies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "facelens_state_inconsistencies_total",
				Help: "Reconciles where the provider contradicted local membership state",
			},
		),
		TrialExpirationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "facelens_trial_expirations_total",
				Help: "Free trials moved to not_member",
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.MeteredRequestsTotal,
		m.GatewayErrorsTotal,
		m.ReconcileFailures,
		m.StateInconsistencies,
		m.TrialExpirationsTotal,
	)
	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
