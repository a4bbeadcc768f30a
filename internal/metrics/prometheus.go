package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AuthDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_auth_decisions_total",
			Help: "Administrator authorization outcomes by result",
		},
		[]string{"outcome"},
	)

	TenantResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolutions_total",
			Help: "Tenant resolution outcomes by result",
		},
		[]string{"outcome"},
	)

	SignInDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signin_gate_decisions_total",
			Help: "Pre-sign-in gate outcomes by result",
		},
		[]string{"outcome"},
	)

	AuditEventsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_written_total",
			Help: "Audit events drained from the queue into storage",
		},
	)

	AuditConsumerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_consumer_active_goroutines",
			Help: "Number of active audit consumer goroutines",
		},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(AuthDecisions)
	prometheus.MustRegister(TenantResolutions)
	prometheus.MustRegister(SignInDecisions)
	prometheus.MustRegister(AuditEventsWritten)
	prometheus.MustRegister(AuditConsumerActive)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
