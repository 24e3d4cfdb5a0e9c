package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RoleChanges        *prometheus.CounterVec
	AuditEvents        prometheus.Counter
	AuditWriteFailures prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(nil)
}

// NewWithRegistry registers metrics on the given registry. Tests pass their
// own registry to avoid duplicate-registration panics across test cases.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	if reg == nil {
		factory = promauto.With(prometheus.DefaultRegisterer)
	}

	return &Metrics{
		RoleChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_role_changes_total",
			Help: "Role change attempts by outcome (success or error code).",
		}, []string{"outcome"}),
		AuditEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "atrium_audit_events_total",
			Help: "Audit events successfully appended.",
		}),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "atrium_audit_write_failures_total",
			Help: "Audit append attempts that failed and were logged instead.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atrium_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRoleChange records a role change attempt outcome.
func (m *Metrics) ObserveRoleChange(outcome string) {
	if m != nil {
		m.RoleChanges.WithLabelValues(outcome).Inc()
	}
}

// IncAuditEvents records a successful audit append.
func (m *Metrics) IncAuditEvents() {
	if m != nil {
		m.AuditEvents.Inc()
	}
}

// IncAuditWriteFailures records a swallowed audit write failure.
func (m *Metrics) IncAuditWriteFailures() {
	if m != nil {
		m.AuditWriteFailures.Inc()
	}
}
