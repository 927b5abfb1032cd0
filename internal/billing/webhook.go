package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/edvin/billing/internal/core"
	"github.com/edvin/billing/internal/model"
)

// SubscriptionStore is the persistence HandleEvent needs. It is satisfied by
// *core.SubscriptionService.
type SubscriptionStore interface {
	FindSubscriptionID(ctx context.Context, subscriptionID string) (string, error)
	AddSubscription(ctx context.Context, customerID, subscriptionID string) (*model.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus) error
	ListByCustomer(ctx context.Context, customerID string) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error
	DeleteCustomer(ctx context.Context, customerID string) error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("subscription_status", func(fl validator.FieldLevel) bool {
		return model.SubscriptionStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("checkout_complete", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == model.CheckoutSessionComplete
	})
	return v
}

// Field order sets the order in which validation failures are reported.
type checkoutSession struct {
	Status       string   `json:"status" validate:"checkout_complete"`
	Customer     objectID `json:"customer" validate:"required"`
	Subscription objectID `json:"subscription" validate:"required"`
}

type subscriptionObject struct {
	Status   model.SubscriptionStatus `json:"status" validate:"subscription_status"`
	Customer objectID                 `json:"customer" validate:"required"`
	ID       string                   `json:"id" validate:"required"`
}

type customerObject struct {
	ID string `json:"id" validate:"required"`
}

// HandleEvent applies a verified webhook event to the store. Validation
// failures are core.ErrInvalidInput and missing records are core.ErrNotFound.
// Events of other types are ignored.
func HandleEvent(ctx context.Context, store SubscriptionStore, ev Event) error {
	log := zerolog.Ctx(ctx).With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	switch ev.Type {
	case EventCheckoutSessionCompleted:
		var session checkoutSession
		if err := decodeObject(ev.Object, &session); err != nil {
			return err
		}
		if err := validateObject(&session, map[string]string{
			"Status":       fmt.Sprintf("Invalid checkout session status '%s'", session.Status),
			"Customer":     "Invalid customer ID",
			"Subscription": "Invalid subscription ID",
		}); err != nil {
			return err
		}

		id, err := store.FindSubscriptionID(ctx, string(session.Subscription))
		if err != nil {
			return err
		}
		if id != "" {
			log.Info().Str("subscription_id", string(session.Subscription)).Msg("reactivating subscription")
			return store.UpdateSubscriptionStatus(ctx, id, model.SubscriptionStatusActive)
		}
		sub, err := store.AddSubscription(ctx, string(session.Customer), string(session.Subscription))
		if err != nil {
			return err
		}
		log.Info().Str("subscription_id", sub.SubscriptionID).Str("customer_id", sub.CustomerID).Msg("subscription added")
		return nil

	case EventSubscriptionDeleted, EventSubscriptionUpdated:
		var obj subscriptionObject
		if err := decodeObject(ev.Object, &obj); err != nil {
			return err
		}
		if err := validateObject(&obj, map[string]string{
			"Status":   fmt.Sprintf("Invalid subscription status '%s'", obj.Status),
			"Customer": "Invalid customer ID",
			"ID":       "Invalid subscription ID",
		}); err != nil {
			return err
		}

		id, err := store.FindSubscriptionID(ctx, obj.ID)
		if err != nil {
			return err
		}
		if id == "" {
			return core.NotFound("Subscription not found")
		}
		status := obj.Status
		if ev.Type == EventSubscriptionDeleted {
			status = model.SubscriptionStatusCanceled
		}
		log.Info().Str("subscription_id", obj.ID).Str("status", string(status)).Msg("updating subscription status")
		return store.UpdateSubscriptionStatus(ctx, id, status)

	case EventCustomerDeleted:
		var obj customerObject
		if err := decodeObject(ev.Object, &obj); err != nil {
			return err
		}
		if err := validateObject(&obj, map[string]string{
			"ID": "Invalid customer ID",
		}); err != nil {
			return err
		}

		subs, err := store.ListByCustomer(ctx, obj.ID)
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			return core.NotFound("Customer subscription data not found")
		}
		log.Info().Str("customer_id", obj.ID).Int("subscriptions", len(subs)).Msg("deleting customer")
		for _, sub := range subs {
			if err := store.DeleteSubscription(ctx, sub.ID); err != nil {
				return err
			}
		}
		return store.DeleteCustomer(ctx, obj.ID)

	default:
		log.Debug().Msg("ignoring billing event")
		return nil
	}
}

func decodeObject(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return core.InvalidInput("Invalid event object")
	}
	return nil
}

// validateObject runs struct validation and maps the first failing field to
// its client-facing message.
func validateObject(obj any, messages map[string]string) error {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := messages[verrs[0].StructField()]; ok {
			return core.InvalidInput(msg)
		}
	}
	return fmt.Errorf("validate event object: %w", err)
}
