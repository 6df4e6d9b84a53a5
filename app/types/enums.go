package types

import (
	"errors"
	"strings"
)

type Provider int32

const (
	ProviderUnspecified Provider = 0
	ProviderMock        Provider = 1
	ProviderStripe      Provider = 2
	ProviderMTN         Provider = 3
	ProviderOrange      Provider = 4
)

func (p Provider) String() string {
	switch p {
	case ProviderMock:
		return "MOCK"
	case ProviderStripe:
		return "STRIPE"
	case ProviderMTN:
		return "MTN"
	case ProviderOrange:
		return "ORANGE"
	default:
		return "UNSPECIFIED"
	}
}

// MobileMoney reports whether the provider charges a subscriber phone number.
func (p Provider) MobileMoney() bool {
	return p == ProviderMTN || p == ProviderOrange
}

func ParseProvider(raw string) (Provider, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "MOCK":
		return ProviderMock, nil
	case "STRIPE":
		return ProviderStripe, nil
	case "MTN":
		return ProviderMTN, nil
	case "ORANGE":
		return ProviderOrange, nil
	default:
		return ProviderUnspecified, errors.New("unknown provider")
	}
}

type ProductType int32

const (
	ProductUnspecified     ProductType = 0
	ProductCreditPack      ProductType = 1
	ProductProSubscription ProductType = 2
	ProductBoost           ProductType = 3
)

func (t ProductType) String() string {
	switch t {
	case ProductCreditPack:
		return "CREDIT_PACK"
	case ProductProSubscription:
		return "PRO_SUBSCRIPTION"
	case ProductBoost:
		return "BOOST"
	default:
		return "UNSPECIFIED"
	}
}

func ParseProductType(raw string) (ProductType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CREDIT_PACK":
		return ProductCreditPack, nil
	case "PRO_SUBSCRIPTION":
		return ProductProSubscription, nil
	case "BOOST":
		return ProductBoost, nil
	default:
		return ProductUnspecified, errors.New("unknown product type")
	}
}

type IntentStatus int32

const (
	StatusInitiated IntentStatus = 1
	StatusPending   IntentStatus = 2
	StatusSuccess   IntentStatus = 10
	StatusFailed    IntentStatus = 20
	StatusCancelled IntentStatus = 21
	StatusRefunded  IntentStatus = 30
)

func (s IntentStatus) String() string {
	switch s {
	case StatusInitiated:
		return "INITIATED"
	case StatusPending:
		return "PENDING"
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusRefunded:
		return "REFUNDED"
	default:
		return "UNKNOWN"
	}
}

func (s IntentStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// NonTerminalStatuses is the legal "from" set for expiry and terminal
// transitions other than SUCCESS -> REFUNDED.
func NonTerminalStatuses() []int32 {
	return []int32{int32(StatusInitiated), int32(StatusPending)}
}

type Outcome int32

const (
	OutcomePending   Outcome = 1
	OutcomeSuccess   Outcome = 2
	OutcomeFailed    Outcome = 3
	OutcomeCancelled Outcome = 4
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeFailed:
		return "FAILED"
	case OutcomeCancelled:
		return "CANCELLED"
	default:
		return "PENDING"
	}
}

type TxnType int32

const (
	TxnCredit TxnType = 1
	TxnDebit  TxnType = 2
)

func (t TxnType) String() string {
	if t == TxnDebit {
		return "DEBIT"
	}
	return "CREDIT"
}

type TxnReason int32

const (
	ReasonPackPurchase TxnReason = 1
	ReasonAdPublish    TxnReason = 2
	ReasonAdBoost      TxnReason = 3
	ReasonProSubscribe TxnReason = 4
	ReasonAdminAdjust  TxnReason = 5
)

func (r TxnReason) String() string {
	switch r {
	case ReasonPackPurchase:
		return "PACK_PURCHASE"
	case ReasonAdPublish:
		return "AD_PUBLISH"
	case ReasonAdBoost:
		return "AD_BOOST"
	case ReasonProSubscribe:
		return "PRO_SUBSCRIBE"
	case ReasonAdminAdjust:
		return "ADMIN_ADJUST"
	default:
		return "UNKNOWN"
	}
}

func ParseTxnReason(raw string) (TxnReason, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PACK_PURCHASE":
		return ReasonPackPurchase, nil
	case "AD_PUBLISH":
		return ReasonAdPublish, nil
	case "AD_BOOST":
		return ReasonAdBoost, nil
	case "PRO_SUBSCRIBE":
		return ReasonProSubscribe, nil
	case "ADMIN_ADJUST":
		return ReasonAdminAdjust, nil
	default:
		return 0, errors.New("unknown transaction reason")
	}
}

type SubscriptionStatus int32

const (
	SubscriptionActive  SubscriptionStatus = 1
	SubscriptionExpired SubscriptionStatus = 2
)
