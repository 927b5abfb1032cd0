package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeVerifier authenticates webhook bodies with the endpoint's signing secret.
type StripeVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewStripeVerifier creates a verifier. A non-positive tolerance uses Stripe's
// default window.
func NewStripeVerifier(secret string, tolerance time.Duration) *StripeVerifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &StripeVerifier{secret: secret, tolerance: tolerance}
}

// WebhookReceived verifies the Stripe-Signature header against the raw body
// and decodes the event. Errors wrap ErrInvalidSignature or ErrInvalidPayload.
func (v *StripeVerifier) WebhookReceived(payload []byte, sigHeader string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrInvalidPayload)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data != nil {
		out.Object = ev.Data.Raw
	}
	return out, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
