package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edvin/billing/internal/model"
)

type SubscriptionService struct {
	db             DB
	prices         *PriceService
	defaultPriceID string
}

// NewSubscriptionService creates a SubscriptionService. defaultPriceID is the
// Stripe price new subscriptions are attached to; empty selects the first
// active catalog price.
func NewSubscriptionService(db DB, defaultPriceID string) *SubscriptionService {
	return &SubscriptionService{db: db, prices: NewPriceService(db), defaultPriceID: defaultPriceID}
}

const subscriptionColumns = `id, customer_id, subscription_id, subscription_price_id, status`

func scanSubscription(row pgx.Row, sub *model.Subscription) error {
	return row.Scan(&sub.ID, &sub.CustomerID, &sub.SubscriptionID, &sub.SubscriptionPriceID, &sub.Status)
}

// FindSubscriptionID returns the local ID of the subscription with the given
// Stripe subscription ID, or "" if there is none.
func (s *SubscriptionService) FindSubscriptionID(ctx context.Context, subscriptionID string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM subscriptions WHERE subscription_id = $1 ORDER BY id LIMIT 1`, subscriptionID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find subscription %s: %w", subscriptionID, err)
	}
	return id, nil
}

func (s *SubscriptionService) GetByID(ctx context.Context, id string) (*model.Subscription, error) {
	var sub model.Subscription
	err := scanSubscription(s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id,
	), &sub)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Subscription not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", id, err)
	}
	return &sub, nil
}

// AddSubscription records a newly paid Stripe subscription as active and
// attaches it to the organization that owns the Stripe customer.
func (s *SubscriptionService) AddSubscription(ctx context.Context, customerID, subscriptionID string) (*model.Subscription, error) {
	var organizationID string
	err := s.db.QueryRow(ctx,
		`SELECT organization_id FROM organization_stripe_customer WHERE customer_id = $1`, customerID,
	).Scan(&organizationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Customer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve organization for customer %s: %w", customerID, err)
	}

	price, err := s.prices.Default(ctx, s.defaultPriceID)
	if err != nil {
		return nil, err
	}

	sub := &model.Subscription{
		CustomerID:          customerID,
		SubscriptionID:      subscriptionID,
		SubscriptionPriceID: price.ID,
		Status:              model.SubscriptionStatusActive,
	}

	// A concurrent delivery of the same checkout may have inserted the row
	// first; reuse it so redelivery stays idempotent.
	err = s.db.QueryRow(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (customer_id, subscription_id) DO UPDATE SET status = EXCLUDED.status
		 RETURNING id, subscription_price_id`,
		uuid.NewString(), sub.CustomerID, sub.SubscriptionID, sub.SubscriptionPriceID, string(sub.Status),
	).Scan(&sub.ID, &sub.SubscriptionPriceID)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO organization_subscription (id, organization_id, subscription_id) VALUES ($1, $2, $3)
		 ON CONFLICT (organization_id, subscription_id) DO NOTHING`,
		uuid.NewString(), organizationID, sub.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("link subscription %s to organization %s: %w", sub.ID, organizationID, err)
	}

	return sub, nil
}

func (s *SubscriptionService) UpdateSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus) error {
	if !status.Valid() {
		return InvalidInput(fmt.Sprintf("Invalid subscription status '%s'", status))
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE subscriptions SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update subscription %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("Subscription not found")
	}
	return nil
}

// DeleteSubscription removes a subscription; its organization link cascades.
func (s *SubscriptionService) DeleteSubscription(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	return nil
}

func (s *SubscriptionService) ListByCustomer(ctx context.Context, customerID string) ([]model.Subscription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE customer_id = $1 ORDER BY subscription_id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for customer %s: %w", customerID, err)
	}
	return collectSubscriptions(rows)
}

func (s *SubscriptionService) ListByOrganization(ctx context.Context, organizationID string) ([]model.Subscription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT s.id, s.customer_id, s.subscription_id, s.subscription_price_id, s.status
		 FROM subscriptions s
		 JOIN organization_subscription os ON os.subscription_id = s.id
		 WHERE os.organization_id = $1
		 ORDER BY s.subscription_id`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for organization %s: %w", organizationID, err)
	}
	return collectSubscriptions(rows)
}

// DeleteCustomer removes the link between a Stripe customer and its
// organization. The customer's subscriptions are deleted separately.
func (s *SubscriptionService) DeleteCustomer(ctx context.Context, customerID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM organization_stripe_customer WHERE customer_id = $1`, customerID); err != nil {
		return fmt.Errorf("delete customer %s: %w", customerID, err)
	}
	return nil
}

func collectSubscriptions(rows pgx.Rows) ([]model.Subscription, error) {
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		if err := scanSubscription(rows, &sub); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}
