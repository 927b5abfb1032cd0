package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/billing/internal/core"
	"github.com/edvin/billing/internal/metrics"
)

// TxBeginner starts a transaction. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Processor applies each event inside its own transaction so a partially
// applied mutation never commits.
type Processor struct {
	db       TxBeginner
	newStore func(core.DB) SubscriptionStore
}

func NewProcessor(db TxBeginner, defaultPriceID string) *Processor {
	return &Processor{
		db: db,
		newStore: func(tx core.DB) SubscriptionStore {
			return core.NewSubscriptionService(tx, defaultPriceID)
		},
	}
}

func (p *Processor) Process(ctx context.Context, ev Event) error {
	if !ev.Handled() {
		metrics.ObserveWebhookEvent(ev.MetricLabel(), metrics.OutcomeIgnored)
		return HandleEvent(ctx, nil, ev)
	}

	err := pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		return HandleEvent(ctx, p.newStore(tx), ev)
	})
	metrics.ObserveWebhookEvent(ev.MetricLabel(), outcome(err))
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeProcessed
	case errors.Is(err, core.ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.Is(err, core.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
