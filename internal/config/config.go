package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL       string
	// DBMaxConns, DBMinConns and DBMaxConnIdleTime size the pgx pool.
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string
	// ServiceName is attached to every log line when set.
	ServiceName string

	StripeWebhookSecret string
	// StripeWebhookTolerance bounds the age of a signed webhook timestamp.
	StripeWebhookTolerance time.Duration
	// MaxWebhookBodyBytes caps the size of a webhook request body.
	MaxWebhookBodyBytes int64

	// BillingDomain restricts the webhook route to one host. Empty matches any host.
	BillingDomain string
	// DefaultPriceID is the Stripe price used for subscriptions created from a
	// completed checkout. Empty falls back to the first active catalog price.
	DefaultPriceID string
}

func Load() (*Config, error) {
	tolerance, err := time.ParseDuration(getEnv("STRIPE_WEBHOOK_TOLERANCE", "5m"))
	if err != nil {
		return nil, fmt.Errorf("parse STRIPE_WEBHOOK_TOLERANCE: %w", err)
	}

	maxBody, err := strconv.ParseInt(getEnv("MAX_WEBHOOK_BODY_BYTES", "65536"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse MAX_WEBHOOK_BODY_BYTES: %w", err)
	}

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "10"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parse DB_MAX_CONNS: %w", err)
	}

	minConns, err := strconv.ParseInt(getEnv("DB_MIN_CONNS", "0"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parse DB_MIN_CONNS: %w", err)
	}

	idle, err := time.ParseDuration(getEnv("DB_MAX_CONN_IDLE_TIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("parse DB_MAX_CONN_IDLE_TIME: %w", err)
	}

	cfg := &Config{
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		DBMaxConns:             int32(maxConns),
		DBMinConns:             int32(minConns),
		DBMaxConnIdleTime:      idle,
		HTTPListenAddr:         getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsListenAddr:      getEnv("METRICS_LISTEN_ADDR", ":9090"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		ServiceName:            getEnv("SERVICE_NAME", "billing-api"),
		StripeWebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookTolerance: tolerance,
		MaxWebhookBodyBytes:    maxBody,
		BillingDomain:          strings.ToLower(getEnv("BILLING_DOMAIN", "")),
		DefaultPriceID:         getEnv("BILLING_DEFAULT_PRICE_ID", ""),
	}

	return cfg, nil
}

// Validate checks the settings required by the given binary.
func (c *Config) Validate(role string) error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	switch role {
	case "billing-api":
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
		if c.StripeWebhookSecret == "" {
			missing = append(missing, "STRIPE_WEBHOOK_SECRET")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if c.StripeWebhookTolerance < 0 {
		return fmt.Errorf("STRIPE_WEBHOOK_TOLERANCE must not be negative")
	}
	if c.DBMaxConns < 0 || c.DBMinConns < 0 {
		return fmt.Errorf("DB_MAX_CONNS and DB_MIN_CONNS must not be negative")
	}
	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}
	if c.MaxWebhookBodyBytes <= 0 {
		return fmt.Errorf("MAX_WEBHOOK_BODY_BYTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
