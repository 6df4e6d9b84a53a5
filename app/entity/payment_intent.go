package entity

import "time"

// PaymentIntent is one checkout attempt. Rows are never deleted; terminal
// intents stay for audit and reconciliation. The fulfillment parameters are
// resolved from the catalog at initiation so fulfillment never has to probe
// an untyped bag for what to grant.
type PaymentIntent struct {
	ID uint64

	AccountID string

	Provider     int32
	ProductType  int32
	ProductRefID string

	AmountMinor int64
	Currency    string
	Country     string

	Status int32

	ProviderRef  *string
	CheckoutURL  *string
	Instructions *string

	IdempotencyKey *string

	FulfillCredits      *int64
	FulfillDurationDays *int32
	FulfillBoostRank    *int32

	ProviderData map[string]string

	FulfilledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
