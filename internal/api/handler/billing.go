package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/edvin/billing/internal/api/response"
	"github.com/edvin/billing/internal/billing"
	"github.com/edvin/billing/internal/metrics"
)

// SignatureHeader carries Stripe's webhook signature.
const SignatureHeader = "Stripe-Signature"

type WebhookVerifier interface {
	WebhookReceived(payload []byte, sigHeader string) (billing.Event, error)
}

type EventProcessor interface {
	Process(ctx context.Context, ev billing.Event) error
}

type Billing struct {
	verifier     WebhookVerifier
	processor    EventProcessor
	maxBodyBytes int64
}

func NewBilling(verifier WebhookVerifier, processor EventProcessor, maxBodyBytes int64) *Billing {
	return &Billing{verifier: verifier, processor: processor, maxBodyBytes: maxBodyBytes}
}

// Webhook receives a Stripe event, verifies it and applies it.
func (h *Billing) Webhook(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		log.Warn().Err(err).Msg("reading webhook body")
		metrics.ObserveWebhookEvent(metrics.UnhandledEventType, metrics.OutcomeRejected)
		response.WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	ev, err := h.verifier.WebhookReceived(body, r.Header.Get(SignatureHeader))
	if err != nil {
		msg := "Invalid payload"
		if errors.Is(err, billing.ErrInvalidSignature) {
			msg = "Invalid signature"
		}
		log.Warn().Err(err).Msg("rejecting webhook")
		metrics.ObserveWebhookEvent(metrics.UnhandledEventType, metrics.OutcomeRejected)
		response.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.processor.Process(r.Context(), ev); err != nil {
		entry := log.Warn()
		if response.StatusFor(err) == http.StatusInternalServerError {
			entry = log.Error()
		}
		entry.Err(err).Str("event_id", ev.ID).Str("event_type", ev.Type).Msg("processing webhook event")
		response.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
