package predicate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/edvin/billing/internal/model"
)

type organizationKey struct{}

// WithOrganization stores the organization a request is about.
func WithOrganization(ctx context.Context, org *model.Organization) context.Context {
	return context.WithValue(ctx, organizationKey{}, org)
}

// OrganizationFromContext returns the organization set by WithOrganization, or nil.
func OrganizationFromContext(ctx context.Context) *model.Organization {
	org, _ := ctx.Value(organizationKey{}).(*model.Organization)
	return org
}

// FlagReader reports whether an admin flag is enabled.
type FlagReader interface {
	Enabled(ctx context.Context, id string) (bool, error)
}

// SubscriptionChecker reports whether an organization has an active or
// trialing subscription.
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, organizationID string) (bool, error)
}

// ActiveOrganization matches requests about an organization that may be used:
// organizations are not disabled site-wide, the organization is active, and a
// company organization is paying.
type ActiveOrganization struct {
	require bool
	flags   FlagReader
	subs    SubscriptionChecker
}

func NewActiveOrganization(require bool, flags FlagReader, subs SubscriptionChecker) *ActiveOrganization {
	return &ActiveOrganization{require: require, flags: flags, subs: subs}
}

func (p *ActiveOrganization) Text() string {
	return fmt.Sprintf("require_active_organization = %t", p.require)
}

func (p *ActiveOrganization) Match(r *http.Request) (bool, error) {
	if !p.require {
		return true, nil
	}

	org := OrganizationFromContext(r.Context())
	if org == nil {
		return false, nil
	}

	disabled, err := p.flags.Enabled(r.Context(), model.FlagDisableOrganizations)
	if err != nil {
		return false, fmt.Errorf("read %s flag: %w", model.FlagDisableOrganizations, err)
	}
	if disabled || !org.IsActive {
		return false, nil
	}
	if org.OrgType != model.OrganizationTypeCompany {
		return true, nil
	}

	active, err := p.subs.HasActiveSubscription(r.Context(), org.ID)
	if err != nil {
		return false, fmt.Errorf("check subscription for organization %s: %w", org.Name, err)
	}
	return active, nil
}
