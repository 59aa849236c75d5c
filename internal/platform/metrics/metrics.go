package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	TenantsCreated      prometheus.Counter
	DispatchRecipients  *prometheus.CounterVec
	DispatchDuration    prometheus.Histogram
	WebhookOutcomes     *prometheus.CounterVec
	EventsCreated       *prometheus.CounterVec
	ViolationsCreated   *prometheus.CounterVec
	RestrictionChanges  *prometheus.CounterVec
	IngressRateLimited  prometheus.Counter
	AuditStreamFailures prometheus.Counter
	HTTPLatency         *prometheus.HistogramVec
}

// New creates and registers all collectors against reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TenantsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "phishsim_tenants_created_total",
			Help: "Total number of tenants created through signup",
		}),
		DispatchRecipients: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phishsim_dispatch_recipients_total",
			Help: "Simulation emails attempted during dispatch, by outcome",
		}, []string{"outcome"}),
		DispatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "phishsim_dispatch_duration_seconds",
			Help:    "Wall time of a full campaign dispatch including the send phase",
			Buckets: latencyBuckets,
		}),
		WebhookOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phishsim_webhook_events_total",
			Help: "Provider webhook entries by ingestion outcome",
		}, []string{"outcome"}),
		EventsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phishsim_recipient_events_created_total",
			Help: "Recipient events appended, by event type",
		}, []string{"event_type"}),
		ViolationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phishsim_policy_violations_created_total",
			Help: "Policy violations raised by risk evaluation, by type",
		}, []string{"type"}),
		RestrictionChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phishsim_tenant_restriction_changes_total",
			Help: "Tenant restrictions applied or lifted",
		}, []string{"action"}),
		IngressRateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "phishsim_ingress_rate_limited_total",
			Help: "Anonymous tracking requests rejected by the per-IP limiter",
		}),
		AuditStreamFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "phishsim_audit_stream_failures_total",
			Help: "Audit records that could not be delivered to a sink",
		}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phishsim_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status class",
			Buckets: latencyBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementTenantsCreated() {
	if m == nil {
		return
	}
	m.TenantsCreated.Inc()
}

// ObserveDispatch records per-outcome counts and the elapsed time since start.
func (m *Metrics) ObserveDispatch(sent, failed int, start time.Time) {
	if m == nil {
		return
	}
	m.DispatchRecipients.WithLabelValues("sent").Add(float64(sent))
	m.DispatchRecipients.WithLabelValues("failed").Add(float64(failed))
	m.DispatchDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddWebhookOutcome(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.WebhookOutcomes.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) IncrementEventCreated(eventType string) {
	if m == nil {
		return
	}
	m.EventsCreated.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncrementViolationCreated(violationType string) {
	if m == nil {
		return
	}
	m.ViolationsCreated.WithLabelValues(violationType).Inc()
}

func (m *Metrics) IncrementRestrictionChange(action string) {
	if m == nil {
		return
	}
	m.RestrictionChanges.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementIngressRateLimited() {
	if m == nil {
		return
	}
	m.IngressRateLimited.Inc()
}

func (m *Metrics) IncrementAuditStreamFailure() {
	if m == nil {
		return
	}
	m.AuditStreamFailures.Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
}
