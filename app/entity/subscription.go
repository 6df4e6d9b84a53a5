package entity

import "time"

type Subscription struct {
	ID        uint64
	AccountID string

	Status   int32
	StartsAt time.Time
	EndsAt   time.Time

	SourceIntentID *uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Boost is a time-bounded ranking boost for one listing.
type Boost struct {
	ID        uint64
	AccountID string
	ListingID string

	Rank     int32
	StartsAt time.Time
	EndsAt   time.Time

	SourceIntentID *uint64

	CreatedAt time.Time
}
