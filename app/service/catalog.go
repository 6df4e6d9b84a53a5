package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/soko-platform/ms-go-settlement/app/entity"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

// ResolvedProduct is the priced, typed result of a catalog lookup. The
// fulfillment parameters are copied onto the intent at initiation.
type ResolvedProduct struct {
	AmountMinor  int64
	Currency     string
	Credits      int64
	DurationDays int32
	BoostRank    int32
	Description  string
}

type Catalog interface {
	Resolve(ctx context.Context, productType types.ProductType, refID, country string) (*ResolvedProduct, error)
}

type catalogStore interface {
	FindCreditPack(ctx context.Context, code, country string) (*entity.CreditPack, error)
	FindProOffer(ctx context.Context, code, country string) (*entity.ProOffer, error)
	FindBoostOffer(ctx context.Context, code, country string) (*entity.BoostOffer, error)
}

// RepoCatalog resolves products from the catalog tables. Boost refs are
// "<offer_code>:<listing_id>"; the listing id part stays on the intent as the
// product ref and the offer code drives pricing.
type RepoCatalog struct {
	store catalogStore
}

func NewRepoCatalog(store catalogStore) *RepoCatalog {
	return &RepoCatalog{store: store}
}

func (c *RepoCatalog) Resolve(ctx context.Context, productType types.ProductType, refID, country string) (*ResolvedProduct, error) {
	switch productType {
	case types.ProductCreditPack:
		pack, err := c.store.FindCreditPack(ctx, refID, country)
		if err != nil {
			return nil, err
		}
		if pack == nil {
			return nil, ErrPackNotFound
		}
		return &ResolvedProduct{
			AmountMinor: pack.PriceMinor,
			Currency:    pack.Currency,
			Credits:     pack.Credits,
			Description: fmt.Sprintf("Credit pack %s (%d credits)", pack.Code, pack.Credits),
		}, nil

	case types.ProductProSubscription:
		offer, err := c.store.FindProOffer(ctx, refID, country)
		if err != nil {
			return nil, err
		}
		if offer == nil {
			return nil, ErrOfferNotFound
		}
		return &ResolvedProduct{
			AmountMinor:  offer.PriceMinor,
			Currency:     offer.Currency,
			DurationDays: offer.DurationDays,
			Description:  fmt.Sprintf("Pro subscription %s (%d days)", offer.Code, offer.DurationDays),
		}, nil

	case types.ProductBoost:
		code := refID
		if i := strings.Index(refID, ":"); i > 0 {
			code = refID[:i]
		}
		offer, err := c.store.FindBoostOffer(ctx, code, country)
		if err != nil {
			return nil, err
		}
		if offer == nil {
			return nil, ErrOfferNotFound
		}
		return &ResolvedProduct{
			AmountMinor:  offer.PriceMinor,
			Currency:     offer.Currency,
			DurationDays: offer.DurationDays,
			BoostRank:    offer.Rank,
			Description:  fmt.Sprintf("Listing boost %s (%d days)", offer.Code, offer.DurationDays),
		}, nil

	default:
		return nil, ErrInvalidRequest
	}
}
