// Package metrics holds Prometheus instruments used across the site.  All
// collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Transactional emails accepted by the provider, by template.",
		}, []string{"template"})

	EmailSendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_send_errors_total",
			Help: "Provider send failures, by template.",
		}, []string{"template"})

	EmailRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_retries_total",
			Help: "Failed sends re-attempted by the retry endpoint.",
		})

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_webhook_events_total",
			Help: "Inbound provider delivery events, by event type.",
		}, []string{"type"})

	LeadsCapturedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Lead form submissions persisted, by form kind.",
		}, []string{"kind"})

	PostViewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "post_views_total",
			Help: "Blog post detail views recorded.",
		})
)

func init() {
	prometheus.MustRegister(
		EmailsSentTotal,
		EmailSendErrorsTotal,
		EmailRetriesTotal,
		WebhookEventsTotal,
		LeadsCapturedTotal,
		PostViewsTotal,
	)
}
