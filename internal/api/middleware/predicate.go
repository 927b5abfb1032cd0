package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/edvin/billing/internal/api/response"
	"github.com/edvin/billing/internal/predicate"
)

// Require only lets requests through when every predicate matches. A request
// that does not match gets the same 404 as an unknown route.
func Require(preds ...predicate.Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := predicate.All(r, preds...)
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).
					Str("predicates", predicate.Describe(preds...)).
					Msg("evaluating route predicates")
				response.WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				return
			}
			if !ok {
				zerolog.Ctx(r.Context()).Debug().
					Str("predicates", predicate.Describe(preds...)).
					Msg("route predicates did not match")
				response.WriteError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
