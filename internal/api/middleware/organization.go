package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/billing/internal/api/response"
	"github.com/edvin/billing/internal/model"
	"github.com/edvin/billing/internal/predicate"
)

// OrganizationLoader looks an organization up by its URL name.
type OrganizationLoader interface {
	GetByName(ctx context.Context, name string) (*model.Organization, error)
}

// LoadOrganization resolves the organization named by the URL parameter and
// stores it in the request context for predicates and handlers.
func LoadOrganization(loader OrganizationLoader, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			org, err := loader.GetByName(r.Context(), chi.URLParam(r, param))
			if err != nil {
				if response.StatusFor(err) == http.StatusInternalServerError {
					zerolog.Ctx(r.Context()).Error().Err(err).Msg("loading organization")
				}
				response.WriteServiceError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(predicate.WithOrganization(r.Context(), org)))
		})
	}
}
