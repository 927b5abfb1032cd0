package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/edvin/billing/internal/model"
	"github.com/edvin/billing/internal/predicate"
)

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withOrganization puts an organization in the request context the way the
// organization loader middleware does.
func withOrganization(r *http.Request, org *model.Organization) *http.Request {
	return r.WithContext(predicate.WithOrganization(r.Context(), org))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}
