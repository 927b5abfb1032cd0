package model

// Subscription is the local record of a Stripe subscription.
// CustomerID and SubscriptionID are Stripe identifiers; ID is ours.
type Subscription struct {
	ID                  string             `json:"id" db:"id"`
	CustomerID          string             `json:"customer_id" db:"customer_id"`
	SubscriptionID      string             `json:"subscription_id" db:"subscription_id"`
	SubscriptionPriceID string             `json:"subscription_price_id" db:"subscription_price_id"`
	Status              SubscriptionStatus `json:"status" db:"status"`
}

type SubscriptionProduct struct {
	ID          string  `json:"id" db:"id"`
	ProductID   *string `json:"product_id" db:"product_id"`
	ProductName string  `json:"product_name" db:"product_name"`
	Description string  `json:"description" db:"description"`
	IsActive    bool    `json:"is_active" db:"is_active"`
	TaxCode     *string `json:"tax_code" db:"tax_code"`
}

type SubscriptionPrice struct {
	ID                    string        `json:"id" db:"id"`
	PriceID               *string       `json:"price_id" db:"price_id"`
	Currency              string        `json:"currency" db:"currency"`
	SubscriptionProductID string        `json:"subscription_product_id" db:"subscription_product_id"`
	UnitAmount            int           `json:"unit_amount" db:"unit_amount"`
	IsActive              bool          `json:"is_active" db:"is_active"`
	Recurring             PriceInterval `json:"recurring" db:"recurring"`
	TaxBehavior           *string       `json:"tax_behavior" db:"tax_behavior"`
}
