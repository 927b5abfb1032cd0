package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/edvin/billing/internal/api/response"
	"github.com/edvin/billing/internal/model"
	"github.com/edvin/billing/internal/predicate"
)

type OrganizationSubscriptions interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]model.Subscription, error)
}

type Organization struct {
	subs   OrganizationSubscriptions
	active predicate.SubscriptionChecker
}

func NewOrganization(subs OrganizationSubscriptions, active predicate.SubscriptionChecker) *Organization {
	return &Organization{subs: subs, active: active}
}

type organizationResponse struct {
	*model.Organization
	ActiveSubscription bool `json:"active_subscription"`
}

// Get returns the organization loaded for the route along with whether it
// currently has a paying subscription.
func (h *Organization) Get(w http.ResponseWriter, r *http.Request) {
	org := predicate.OrganizationFromContext(r.Context())
	if org == nil {
		response.WriteError(w, http.StatusNotFound, "Organization not found")
		return
	}

	active, err := h.active.HasActiveSubscription(r.Context(), org.ID)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("organization", org.Name).Msg("checking subscription")
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, organizationResponse{Organization: org, ActiveSubscription: active})
}

func (h *Organization) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	org := predicate.OrganizationFromContext(r.Context())
	if org == nil {
		response.WriteError(w, http.StatusNotFound, "Organization not found")
		return
	}

	subs, err := h.subs.ListByOrganization(r.Context(), org.ID)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("organization", org.Name).Msg("listing subscriptions")
		response.WriteServiceError(w, err)
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"items": subs})
}
