package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/billing/internal/core"
	"github.com/edvin/billing/internal/model"
	"github.com/edvin/billing/internal/predicate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

// --- RequestLogger ---

func TestRequestLogger_AttachesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var fromCtx *zerolog.Logger
	h := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = zerolog.Ctx(r.Context())
		fromCtx.Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.NotNil(t, fromCtx)
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, summary map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &summary))

	assert.NotEmpty(t, inner["request_id"])
	assert.Equal(t, inner["request_id"], summary["request_id"])
	assert.Equal(t, "request", summary["message"])
	assert.Equal(t, float64(http.StatusTeapot), summary["status"])
	assert.Equal(t, float64(len("short and stout")), summary["bytes"])
	assert.Equal(t, "/healthz", summary["path"])
}

func TestRequestLogger_ServerErrorsLoggedAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
}

// --- Metrics ---

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/organizations/{organization}", okHandler)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/organizations/{organization}", "204"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/organizations/acme", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/organizations/{organization}", "204"))
	assert.Equal(t, before+1, after)
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/healthz", okHandler)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))
	assert.Equal(t, before+1, after)
}

// --- Require ---

type stubPredicate struct {
	match bool
	err   error
}

func (p stubPredicate) Text() string { return "stub" }

func (p stubPredicate) Match(*http.Request) (bool, error) { return p.match, p.err }

func TestRequire(t *testing.T) {
	tests := []struct {
		name   string
		preds  []predicate.Predicate
		status int
	}{
		{name: "no predicates", status: http.StatusNoContent},
		{name: "all match", preds: []predicate.Predicate{stubPredicate{match: true}, stubPredicate{match: true}}, status: http.StatusNoContent},
		{name: "one mismatch", preds: []predicate.Predicate{stubPredicate{match: true}, stubPredicate{match: false}}, status: http.StatusNotFound},
		{name: "predicate error", preds: []predicate.Predicate{stubPredicate{err: errors.New("db down")}}, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Require(tt.preds...)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/billing/webhook", nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequire_HeadersPredicate(t *testing.T) {
	headers, err := predicate.NewHeaders("Stripe-Signature")
	require.NoError(t, err)
	h := Require(predicate.NewDomain("billing.example.com"), headers)(okHandler)

	r := httptest.NewRequest(http.MethodPost, "/billing/webhook", nil)
	r.Host = "billing.example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeError(t, rec))

	r.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// --- LoadOrganization ---

type mockOrganizations struct {
	mock.Mock
}

func (m *mockOrganizations) GetByName(ctx context.Context, name string) (*model.Organization, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func TestLoadOrganization(t *testing.T) {
	orgs := new(mockOrganizations)
	orgs.On("GetByName", mock.Anything, "acme").Return(&model.Organization{ID: "o1", Name: "acme"}, nil)

	var loaded *model.Organization
	r := chi.NewRouter()
	r.With(LoadOrganization(orgs, "organization")).Get("/api/organizations/{organization}",
		func(w http.ResponseWriter, r *http.Request) {
			loaded = predicate.OrganizationFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/organizations/acme", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, loaded)
	assert.Equal(t, "o1", loaded.ID)
}

func TestLoadOrganization_NotFound(t *testing.T) {
	orgs := new(mockOrganizations)
	orgs.On("GetByName", mock.Anything, "missing").Return(nil, core.NotFound("Organization not found"))

	r := chi.NewRouter()
	r.With(LoadOrganization(orgs, "organization")).Get("/api/organizations/{organization}", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/organizations/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Organization not found", decodeError(t, rec))
}

func TestLoadOrganization_DatabaseError(t *testing.T) {
	orgs := new(mockOrganizations)
	orgs.On("GetByName", mock.Anything, "acme").Return(nil, errors.New("connection refused"))

	r := chi.NewRouter()
	r.With(LoadOrganization(orgs, "organization")).Get("/api/organizations/{organization}", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/organizations/acme", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec))
}
