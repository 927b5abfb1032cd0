package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger returns a middleware that attaches a request-scoped logger to
// the context and logs each request when it completes. Handlers reach the
// logger through zerolog.Ctx.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := middleware.GetReqID(r.Context())
			reqLogger := logger.With().Str("request_id", reqID).Logger()
			r = r.WithContext(reqLogger.WithContext(r.Context()))

			ww := newStatusWriter(w)
			next.ServeHTTP(ww, r)

			ev := reqLogger.Info()
			if ww.status >= http.StatusInternalServerError {
				ev = reqLogger.Error()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", ww.status).
				Int("bytes", ww.bytes).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
