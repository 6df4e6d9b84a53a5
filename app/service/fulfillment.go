package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/entity"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

type fulfillmentStore interface {
	FulfillCreditPack(ctx context.Context, intent *entity.PaymentIntent, credits int64, now time.Time) (bool, error)
	FulfillSubscription(ctx context.Context, intent *entity.PaymentIntent, days int32, now time.Time) (bool, error)
	FulfillBoost(ctx context.Context, intent *entity.PaymentIntent, listingID string, rank int32, days int32, now time.Time) (bool, error)
}

// FulfillmentService applies the product effect of a paid intent. Safe to
// call any number of times for the same intent; the storage-level claim
// admits exactly one application.
type FulfillmentService struct {
	store  fulfillmentStore
	logger logrus.FieldLogger
}

func NewFulfillmentService(store fulfillmentStore, logger logrus.FieldLogger) *FulfillmentService {
	return &FulfillmentService{store: store, logger: logger}
}

func (s *FulfillmentService) Fulfill(ctx context.Context, intent *entity.PaymentIntent) error {
	now := time.Now().UTC()

	var applied bool
	var err error

	switch types.ProductType(intent.ProductType) {
	case types.ProductCreditPack:
		if intent.FulfillCredits == nil {
			return fmt.Errorf("intent %d: credit pack intent has no credits amount", intent.ID)
		}
		applied, err = s.store.FulfillCreditPack(ctx, intent, *intent.FulfillCredits, now)

	case types.ProductProSubscription:
		if intent.FulfillDurationDays == nil {
			return fmt.Errorf("intent %d: subscription intent has no duration", intent.ID)
		}
		applied, err = s.store.FulfillSubscription(ctx, intent, *intent.FulfillDurationDays, now)

	case types.ProductBoost:
		if intent.FulfillBoostRank == nil || intent.FulfillDurationDays == nil {
			return fmt.Errorf("intent %d: boost intent has no rank or duration", intent.ID)
		}
		applied, err = s.store.FulfillBoost(ctx, intent, boostListingID(intent.ProductRefID), *intent.FulfillBoostRank, *intent.FulfillDurationDays, now)

	default:
		return fmt.Errorf("intent %d: unknown product type %d", intent.ID, intent.ProductType)
	}

	if err != nil {
		return err
	}

	if applied {
		s.logger.WithFields(logrus.Fields{
			"intent_id":    intent.ID,
			"account_id":   intent.AccountID,
			"product_type": types.ProductType(intent.ProductType).String(),
		}).Info("fulfillment applied")
	}
	return nil
}

// boostListingID extracts the listing part of a "<offer_code>:<listing_id>"
// product ref.
func boostListingID(productRefID string) string {
	if i := strings.Index(productRefID, ":"); i > 0 && i+1 < len(productRefID) {
		return productRefID[i+1:]
	}
	return productRefID
}
