package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook pipeline counters.
var (
	WebhookReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wa_webhook_received_total",
		Help: "Webhook deliveries received",
	})
	WebhookIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wa_webhook_ignored_total",
		Help: "Webhook deliveries ignored",
	}, []string{"reason"})
	MessagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wa_messages_processed_total",
		Help: "Messages that reached the rule engine",
	})
	MessagesSentOK = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wa_messages_sent_ok_total",
		Help: "Outbound messages sent successfully",
	})
	MessagesSentErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wa_messages_sent_err_total",
		Help: "Outbound message send failures",
	})
	LeadFirstContact = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wa_lead_first_contact_total",
		Help: "First contacts recorded",
	})
	LeadIntentMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wa_lead_intent_marked_total",
		Help: "Intent markings recorded",
	})
	LeadSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wa_lead_saved_total",
		Help: "Handoff leads saved",
	})
	WebhookLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wa_webhook_latency_seconds",
		Help:    "Webhook processing latency",
		Buckets: prometheus.DefBuckets,
	})
)
