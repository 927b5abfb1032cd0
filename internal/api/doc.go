// Package api serves the billing HTTP surface: the Stripe webhook receiver and
// read-only organization endpoints, each gated by route predicates.
package api
