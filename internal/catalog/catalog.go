// Package catalog loads the subscription product and price catalog from YAML
// and applies it to the database.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/edvin/billing/internal/core"
	"github.com/edvin/billing/internal/model"
)

type Catalog struct {
	Products []Product `yaml:"products" validate:"min=1,dive"`
}

type Product struct {
	ProductID   string  `yaml:"product_id" validate:"required"`
	Name        string  `yaml:"name" validate:"required"`
	Description string  `yaml:"description"`
	TaxCode     string  `yaml:"tax_code"`
	Active      *bool   `yaml:"active"`
	Prices      []Price `yaml:"prices" validate:"dive"`
}

type Price struct {
	PriceID     string `yaml:"price_id" validate:"required"`
	Currency    string `yaml:"currency" validate:"required,len=3"`
	UnitAmount  int    `yaml:"unit_amount" validate:"gte=0"`
	Recurring   string `yaml:"recurring" validate:"required,oneof=month year week day"`
	TaxBehavior string `yaml:"tax_behavior"`
	Active      *bool  `yaml:"active"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	seen := map[string]bool{}
	for _, p := range c.Products {
		for _, pr := range p.Prices {
			if seen[pr.PriceID] {
				return nil, fmt.Errorf("validate catalog: duplicate price_id %s", pr.PriceID)
			}
			seen[pr.PriceID] = true
		}
	}
	return &c, nil
}

type ProductStore interface {
	FindByProductID(ctx context.Context, productID string) (*model.SubscriptionProduct, error)
	Create(ctx context.Context, p *model.SubscriptionProduct) error
	Update(ctx context.Context, p *model.SubscriptionProduct) error
}

type PriceStore interface {
	FindByPriceID(ctx context.Context, priceID string) (*model.SubscriptionPrice, error)
	Create(ctx context.Context, p *model.SubscriptionPrice) error
	Update(ctx context.Context, p *model.SubscriptionPrice) error
}

// Result counts what Apply changed.
type Result struct {
	ProductsCreated int
	ProductsUpdated int
	PricesCreated   int
	PricesUpdated   int
}

func (r Result) String() string {
	return fmt.Sprintf("products: %d created, %d updated; prices: %d created, %d updated",
		r.ProductsCreated, r.ProductsUpdated, r.PricesCreated, r.PricesUpdated)
}

// Apply upserts every product and price, keyed by their Stripe IDs, so running
// it twice is harmless.
func Apply(ctx context.Context, products ProductStore, prices PriceStore, c *Catalog) (Result, error) {
	var res Result
	for _, p := range c.Products {
		existing, err := products.FindByProductID(ctx, p.ProductID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return res, fmt.Errorf("look up product %s: %w", p.ProductID, err)
		}

		product := &model.SubscriptionProduct{
			ProductID:   strPtr(p.ProductID),
			ProductName: p.Name,
			Description: p.Description,
			IsActive:    isActive(p.Active),
			TaxCode:     optional(p.TaxCode),
		}
		if existing != nil {
			product.ID = existing.ID
			if err := products.Update(ctx, product); err != nil {
				return res, fmt.Errorf("update product %s: %w", p.ProductID, err)
			}
			res.ProductsUpdated++
		} else {
			if err := products.Create(ctx, product); err != nil {
				return res, fmt.Errorf("create product %s: %w", p.ProductID, err)
			}
			res.ProductsCreated++
		}

		for _, pr := range p.Prices {
			existing, err := prices.FindByPriceID(ctx, pr.PriceID)
			if err != nil && !errors.Is(err, core.ErrNotFound) {
				return res, fmt.Errorf("look up price %s: %w", pr.PriceID, err)
			}

			price := &model.SubscriptionPrice{
				PriceID:               strPtr(pr.PriceID),
				Currency:              strings.ToLower(pr.Currency),
				SubscriptionProductID: product.ID,
				UnitAmount:            pr.UnitAmount,
				IsActive:              isActive(pr.Active),
				Recurring:             model.PriceInterval(pr.Recurring),
				TaxBehavior:           optional(pr.TaxBehavior),
			}
			if existing != nil {
				price.ID = existing.ID
				if err := prices.Update(ctx, price); err != nil {
					return res, fmt.Errorf("update price %s: %w", pr.PriceID, err)
				}
				res.PricesUpdated++
				continue
			}
			if err := prices.Create(ctx, price); err != nil {
				return res, fmt.Errorf("create price %s: %w", pr.PriceID, err)
			}
			res.PricesCreated++
		}
	}
	return res, nil
}

// isActive treats an omitted flag as active.
func isActive(b *bool) bool {
	return b == nil || *b
}

func strPtr(s string) *string { return &s }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
