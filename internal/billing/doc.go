// Package billing reconciles local subscription state with the Stripe webhook
// event stream.
//
// A request flows through three steps. StripeVerifier checks the signature and
// decodes the event. Processor opens a transaction. HandleEvent applies the
// mutation for the event type. Every handled event is idempotent: replaying it
// leaves the database in the same state.
package billing
