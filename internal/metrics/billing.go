package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook event outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeInvalid   = "invalid"
	OutcomeNotFound  = "not_found"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// UnhandledEventType labels every event type the service does not act on, and
// requests rejected before an event type is known, so the label set stays
// bounded.
const UnhandledEventType = "other"

var webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "billing",
	Name:      "webhook_events_total",
	Help:      "Stripe webhook events received, by event type and outcome.",
}, []string{"type", "outcome"})

// ObserveWebhookEvent counts one webhook event. Callers pass a bounded type
// label, using UnhandledEventType for anything they do not act on.
func ObserveWebhookEvent(typeLabel, outcome string) {
	webhookEventsTotal.WithLabelValues(typeLabel, outcome).Inc()
}
