package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edvin/billing/internal/metrics"
)

// Event types that change local subscription state. Any other type is
// accepted and ignored.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventCustomerDeleted          = "customer.deleted"
)

var (
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Event is a decoded webhook event. Object holds the raw data.object.
type Event struct {
	ID     string
	Type   string
	Object json.RawMessage
}

// Handled reports whether HandleEvent acts on events of this type.
func (e Event) Handled() bool {
	switch e.Type {
	case EventCheckoutSessionCompleted, EventSubscriptionDeleted, EventSubscriptionUpdated, EventCustomerDeleted:
		return true
	}
	return false
}

// MetricLabel is the event type label for webhook metrics. Unhandled types
// share one label.
func (e Event) MetricLabel() string {
	if !e.Handled() {
		return metrics.UnhandledEventType
	}
	return e.Type
}

type wireEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes an event body without verifying its signature. It is
// meant for replaying events that were verified before.
func ParseEvent(payload []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if w.Type == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrInvalidPayload)
	}
	return Event{ID: w.ID, Type: w.Type, Object: w.Data.Object}, nil
}

// objectID accepts either a bare Stripe ID or an expanded object carrying one.
type objectID string

func (id *objectID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = objectID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("expected ID string or object: %w", err)
	}
	*id = objectID(obj.ID)
	return nil
}
