package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edvin/billing/internal/model"
)

type ProductService struct {
	db DB
}

func NewProductService(db DB) *ProductService {
	return &ProductService{db: db}
}

const productColumns = `id, product_id, product_name, description, is_active, tax_code`

func scanProduct(row pgx.Row, p *model.SubscriptionProduct) error {
	return row.Scan(&p.ID, &p.ProductID, &p.ProductName, &p.Description, &p.IsActive, &p.TaxCode)
}

func (s *ProductService) Create(ctx context.Context, p *model.SubscriptionProduct) error {
	if p.ProductName == "" {
		return InvalidInput("Product name is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO subscription_products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.ProductID, p.ProductName, p.Description, p.IsActive, p.TaxCode,
	)
	if err != nil {
		return fmt.Errorf("create subscription product: %w", err)
	}
	return nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*model.SubscriptionProduct, error) {
	var p model.SubscriptionProduct
	err := scanProduct(s.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM subscription_products WHERE id = $1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Subscription product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription product %s: %w", id, err)
	}
	return &p, nil
}

// FindByProductID looks a product up by its Stripe product ID.
func (s *ProductService) FindByProductID(ctx context.Context, productID string) (*model.SubscriptionProduct, error) {
	var p model.SubscriptionProduct
	err := scanProduct(s.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM subscription_products WHERE product_id = $1`, productID), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("Subscription product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription product %s: %w", productID, err)
	}
	return &p, nil
}

func (s *ProductService) List(ctx context.Context) ([]model.SubscriptionProduct, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+productColumns+` FROM subscription_products ORDER BY product_name`)
	if err != nil {
		return nil, fmt.Errorf("list subscription products: %w", err)
	}
	defer rows.Close()

	var products []model.SubscriptionProduct
	for rows.Next() {
		var p model.SubscriptionProduct
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan subscription product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *ProductService) Update(ctx context.Context, p *model.SubscriptionProduct) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE subscription_products
		 SET product_id = $1, product_name = $2, description = $3, is_active = $4, tax_code = $5
		 WHERE id = $6`,
		p.ProductID, p.ProductName, p.Description, p.IsActive, p.TaxCode, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update subscription product %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("Subscription product not found")
	}
	return nil
}

// Delete removes a product together with its prices and their subscriptions.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM subscription_products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription product %s: %w", id, err)
	}
	return nil
}
