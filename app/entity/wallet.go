package entity

import "time"

type CreditWallet struct {
	ID        uint64
	AccountID string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreditTransaction is an append-only ledger row. Every wallet balance
// change has exactly one of these, written in the same transaction.
type CreditTransaction struct {
	ID        uint64
	WalletID  uint64
	AccountID string

	Type   int32
	Amount int64
	Reason int32

	SourceIntentID *uint64
	Meta           map[string]string

	CreatedAt time.Time
}
