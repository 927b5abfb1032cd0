package model

// SubscriptionStatus mirrors the status values Stripe reports for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
)

// SubscriptionStatuses lists every status in schema enum order.
var SubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusPastDue,
	SubscriptionStatusUnpaid,
	SubscriptionStatusCanceled,
	SubscriptionStatusIncomplete,
	SubscriptionStatusIncompleteExpired,
	SubscriptionStatusTrialing,
}

func (s SubscriptionStatus) Valid() bool {
	for _, v := range SubscriptionStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// PriceInterval is the billing period of a recurring price.
type PriceInterval string

const (
	PriceIntervalMonth PriceInterval = "month"
	PriceIntervalYear  PriceInterval = "year"
	PriceIntervalWeek  PriceInterval = "week"
	PriceIntervalDay   PriceInterval = "day"
)

func (i PriceInterval) Valid() bool {
	switch i {
	case PriceIntervalMonth, PriceIntervalYear, PriceIntervalWeek, PriceIntervalDay:
		return true
	}
	return false
}

// CheckoutSessionComplete is the only checkout session status that activates a subscription.
const CheckoutSessionComplete = "complete"
