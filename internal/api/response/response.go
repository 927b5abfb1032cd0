package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/edvin/billing/internal/core"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteServiceError maps a service error to its HTTP status. Only core.Error
// messages reach the client; anything else becomes a generic 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := http.StatusText(status)

	var svcErr *core.Error
	if status != http.StatusInternalServerError && errors.As(err, &svcErr) {
		msg = svcErr.Msg
	}
	WriteError(w, status, msg)
}

// StatusFor returns the HTTP status for a service error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
