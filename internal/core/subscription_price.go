package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edvin/billing/internal/model"
)

type PriceService struct {
	db DB
}

func NewPriceService(db DB) *PriceService {
	return &PriceService{db: db}
}

const priceColumns = `id, price_id, currency, subscription_product_id, unit_amount, is_active, recurring, tax_behavior`

func scanPrice(row pgx.Row, p *model.SubscriptionPrice) error {
	return row.Scan(&p.ID, &p.PriceID, &p.Currency, &p.SubscriptionProductID,
		&p.UnitAmount, &p.IsActive, &p.Recurring, &p.TaxBehavior)
}

func (s *PriceService) Create(ctx context.Context, p *model.SubscriptionPrice) error {
	if !p.Recurring.Valid() {
		return InvalidInput(fmt.Sprintf("Invalid price interval '%s'", p.Recurring))
	}
	if p.Currency == "" {
		return InvalidInput("Currency is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO subscription_prices (`+priceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.PriceID, p.Currency, p.SubscriptionProductID, p.UnitAmount, p.IsActive,
		string(p.Recurring), p.TaxBehavior,
	)
	if err != nil {
		return fmt.Errorf("create subscription price: %w", err)
	}
	return nil
}

func (s *PriceService) GetByID(ctx context.Context, id string) (*model.SubscriptionPrice, error) {
	var p model.SubscriptionPrice
	err := scanPrice(s.db.QueryRow(ctx,
		`SELECT `+priceColumns+` FROM subscription_prices WHERE id = $1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Subscription price not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription price %s: %w", id, err)
	}
	return &p, nil
}

// FindByPriceID looks a price up by its Stripe price ID.
func (s *PriceService) FindByPriceID(ctx context.Context, priceID string) (*model.SubscriptionPrice, error) {
	var p model.SubscriptionPrice
	err := scanPrice(s.db.QueryRow(ctx,
		`SELECT `+priceColumns+` FROM subscription_prices WHERE price_id = $1`, priceID), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Subscription price not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription price %s: %w", priceID, err)
	}
	return &p, nil
}

func (s *PriceService) ListByProduct(ctx context.Context, productID string) ([]model.SubscriptionPrice, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+priceColumns+` FROM subscription_prices
		 WHERE subscription_product_id = $1
		 ORDER BY recurring, unit_amount`, productID)
	if err != nil {
		return nil, fmt.Errorf("list prices for product %s: %w", productID, err)
	}
	defer rows.Close()

	var prices []model.SubscriptionPrice
	for rows.Next() {
		var p model.SubscriptionPrice
		if err := scanPrice(rows, &p); err != nil {
			return nil, fmt.Errorf("scan subscription price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// Default returns the price new subscriptions are billed at. A non-empty
// priceID selects that active Stripe price; otherwise the first active price
// of an active product, by product name then Stripe price id, is used.
func (s *PriceService) Default(ctx context.Context, priceID string) (*model.SubscriptionPrice, error) {
	var row pgx.Row
	if priceID != "" {
		row = s.db.QueryRow(ctx,
			`SELECT `+priceColumns+` FROM subscription_prices WHERE price_id = $1 AND is_active`, priceID)
	} else {
		row = s.db.QueryRow(ctx,
			`SELECT sp.id, sp.price_id, sp.currency, sp.subscription_product_id, sp.unit_amount,
			        sp.is_active, sp.recurring, sp.tax_behavior
			 FROM subscription_prices sp
			 JOIN subscription_products p ON p.id = sp.subscription_product_id
			 WHERE sp.is_active AND p.is_active
			 ORDER BY p.product_name, sp.price_id, sp.id
			 LIMIT 1`)
	}

	var p model.SubscriptionPrice
	err := scanPrice(row, &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Subscription price not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get default subscription price: %w", err)
	}
	return &p, nil
}

func (s *PriceService) Update(ctx context.Context, p *model.SubscriptionPrice) error {
	if !p.Recurring.Valid() {
		return InvalidInput(fmt.Sprintf("Invalid price interval '%s'", p.Recurring))
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE subscription_prices
		 SET price_id = $1, currency = $2, subscription_product_id = $3, unit_amount = $4,
		     is_active = $5, recurring = $6, tax_behavior = $7
		 WHERE id = $8`,
		p.PriceID, p.Currency, p.SubscriptionProductID, p.UnitAmount, p.IsActive,
		string(p.Recurring), p.TaxBehavior, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update subscription price %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("Subscription price not found")
	}
	return nil
}

func (s *PriceService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM subscription_prices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription price %s: %w", id, err)
	}
	return nil
}
