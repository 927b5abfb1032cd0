package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edvin/billing/internal/model"
)

type OrganizationService struct {
	db DB
}

func NewOrganizationService(db DB) *OrganizationService {
	return &OrganizationService{db: db}
}

const organizationColumns = `o.id, o.name, o.display_name, o.orgtype, o.is_active, o.created`

func scanOrganization(row pgx.Row, o *model.Organization) error {
	return row.Scan(&o.ID, &o.Name, &o.DisplayName, &o.OrgType, &o.IsActive, &o.CreatedAt)
}

// GetByName looks an organization up by name, ignoring case.
func (s *OrganizationService) GetByName(ctx context.Context, name string) (*model.Organization, error) {
	var o model.Organization
	err := scanOrganization(s.db.QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations o WHERE lower(o.name) = lower($1)`, name), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Organization not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get organization %s: %w", name, err)
	}
	return &o, nil
}

// GetByCustomerID returns the organization linked to a Stripe customer.
func (s *OrganizationService) GetByCustomerID(ctx context.Context, customerID string) (*model.Organization, error) {
	var o model.Organization
	err := scanOrganization(s.db.QueryRow(ctx,
		`SELECT `+organizationColumns+`
		 FROM organizations o
		 JOIN organization_stripe_customer osc ON osc.organization_id = o.id
		 WHERE osc.customer_id = $1`, customerID), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Organization not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get organization for customer %s: %w", customerID, err)
	}
	return &o, nil
}

// HasActiveSubscription reports whether any of the organization's
// subscriptions is active or trialing.
func (s *OrganizationService) HasActiveSubscription(ctx context.Context, organizationID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM organization_subscription os
		   JOIN subscriptions s ON s.id = os.subscription_id
		   WHERE os.organization_id = $1 AND s.status IN ($2, $3))`,
		organizationID, string(model.SubscriptionStatusActive), string(model.SubscriptionStatusTrialing),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active subscription for organization %s: %w", organizationID, err)
	}
	return exists, nil
}

// AddStripeCustomer links a Stripe customer to an organization. Linking the
// same pair twice is a no-op.
func (s *OrganizationService) AddStripeCustomer(ctx context.Context, organizationID, customerID string) error {
	if customerID == "" {
		return InvalidInput("Invalid customer ID")
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO organization_stripe_customer (id, organization_id, customer_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (organization_id, customer_id) DO NOTHING`,
		uuid.NewString(), organizationID, customerID,
	)
	if err != nil {
		return fmt.Errorf("link customer %s to organization %s: %w", customerID, organizationID, err)
	}
	return nil
}
