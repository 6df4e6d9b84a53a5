package entity

type CreditPack struct {
	ID         uint64
	Code       string
	Country    string
	Credits    int64
	PriceMinor int64
	Currency   string
}

type ProOffer struct {
	ID           uint64
	Code         string
	Country      string
	DurationDays int32
	PriceMinor   int64
	Currency     string
}

type BoostOffer struct {
	ID           uint64
	Code         string
	Country      string
	Rank         int32
	DurationDays int32
	PriceMinor   int64
	Currency     string
}
