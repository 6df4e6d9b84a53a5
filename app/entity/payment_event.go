package entity

import "time"

// PaymentEvent is one deduplicated inbound provider signal. The unique key
// (provider, event_id) lives in the database so concurrent duplicate
// deliveries race safely at the storage layer.
type PaymentEvent struct {
	ID uint64

	Provider int32
	EventID  string
	IntentID uint64

	PayloadJSON *string

	ReceivedAt time.Time
}
