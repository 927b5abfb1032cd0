package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/edvin/billing/internal/api/handler"
	mw "github.com/edvin/billing/internal/api/middleware"
	"github.com/edvin/billing/internal/billing"
	"github.com/edvin/billing/internal/config"
	"github.com/edvin/billing/internal/core"
	"github.com/edvin/billing/internal/predicate"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	pool     *pgxpool.Pool
	cfg      *config.Config
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, cfg *config.Config) (*Server, error) {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: core.NewServices(pool, cfg.DefaultPriceID),
		pool:     pool,
		cfg:      cfg,
	}

	s.setupMiddleware()
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() error {
	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// Stripe webhook
	signed, err := predicate.NewHeaders(handler.SignatureHeader)
	if err != nil {
		return fmt.Errorf("webhook route predicates: %w", err)
	}
	webhookPreds := []predicate.Predicate{predicate.NewDomain(s.cfg.BillingDomain), signed}
	billingHandler := handler.NewBilling(
		billing.NewStripeVerifier(s.cfg.StripeWebhookSecret, s.cfg.StripeWebhookTolerance),
		billing.NewProcessor(s.pool, s.cfg.DefaultPriceID),
		s.cfg.MaxWebhookBodyBytes,
	)
	s.router.With(mw.Require(webhookPreds...)).Post("/billing/webhook", billingHandler.Webhook)
	s.logger.Debug().Str("route", "/billing/webhook").Str("predicates", predicate.Describe(webhookPreds...)).Msg("route registered")

	// Organizations
	organization := handler.NewOrganization(s.services.Subscription, s.services.Organization)
	requireActive := predicate.NewActiveOrganization(true, s.services.AdminFlag, s.services.Organization)
	anyState := predicate.NewActiveOrganization(false, s.services.AdminFlag, s.services.Organization)
	s.router.Route("/api/organizations/{organization}", func(r chi.Router) {
		r.Use(mw.LoadOrganization(s.services.Organization, "organization"))
		r.With(mw.Require(requireActive)).Get("/", organization.Get)
		r.With(mw.Require(anyState)).Get("/subscriptions", organization.ListSubscriptions)
	})

	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status := http.StatusOK
	if err := s.pool.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
