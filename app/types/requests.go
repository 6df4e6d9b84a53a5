package types

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const AccountIDHeader = "X-Account-ID"

type InitiatePaymentRequest struct {
	Provider       string `json:"provider"`
	ProductType    string `json:"productType"`
	ProductRefID   string `json:"productRefId"`
	Country        string `json:"country"`
	Phone          string `json:"phone"`
	IdempotencyKey string `json:"idempotencyKey"`
}

func NewInitiatePaymentRequestFromContext(ctx echo.Context) (*InitiatePaymentRequest, error) {
	var body InitiatePaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Provider = strings.TrimSpace(body.Provider)
	body.ProductType = strings.TrimSpace(body.ProductType)
	body.ProductRefID = strings.TrimSpace(body.ProductRefID)
	body.Country = strings.ToUpper(strings.TrimSpace(body.Country))
	body.Phone = strings.TrimSpace(body.Phone)
	body.IdempotencyKey = strings.TrimSpace(body.IdempotencyKey)

	return &body, nil
}

func (r *InitiatePaymentRequest) Validate() error {
	provider, err := ParseProvider(r.Provider)
	if err != nil {
		return errors.New("provider must be MOCK, STRIPE, MTN, or ORANGE")
	}
	if _, err := ParseProductType(r.ProductType); err != nil {
		return errors.New("productType must be CREDIT_PACK, PRO_SUBSCRIPTION, or BOOST")
	}
	if r.ProductRefID == "" {
		return errors.New("productRefId is required")
	}
	if len(r.Country) != 2 {
		return errors.New("country must be a 2-letter code")
	}
	if provider.MobileMoney() && !ValidPhone(r.Phone) {
		return ErrInvalidPhone
	}
	return nil
}

var ErrInvalidPhone = errors.New("phone must be 8-15 digits, optionally prefixed with +")

func ValidPhone(phone string) bool {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if len(phone) < 8 || len(phone) > 15 {
		return false
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type SpendCreditsRequest struct {
	Amount int64             `json:"amount"`
	Reason string            `json:"reason"`
	Meta   map[string]string `json:"meta"`
}

func NewSpendCreditsRequestFromContext(ctx echo.Context) (*SpendCreditsRequest, error) {
	var body SpendCreditsRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Reason = strings.TrimSpace(body.Reason)
	return &body, nil
}

func (r *SpendCreditsRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	reason, err := ParseTxnReason(r.Reason)
	if err != nil {
		return errors.New("reason must be AD_PUBLISH or AD_BOOST")
	}
	if reason != ReasonAdPublish && reason != ReasonAdBoost {
		return errors.New("reason must be AD_PUBLISH or AD_BOOST")
	}
	return nil
}

type AdminAdjustCreditsRequest struct {
	AccountID string `json:"accountId"`
	Amount    int64  `json:"amount"`
	Note      string `json:"note"`
}

func NewAdminAdjustCreditsRequestFromContext(ctx echo.Context) (*AdminAdjustCreditsRequest, error) {
	var body AdminAdjustCreditsRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.AccountID = strings.TrimSpace(body.AccountID)
	body.Note = strings.TrimSpace(body.Note)
	return &body, nil
}

func (r *AdminAdjustCreditsRequest) Validate() error {
	if r.AccountID == "" {
		return errors.New("accountId is required")
	}
	if r.Amount == 0 {
		return errors.New("amount must be non-zero")
	}
	return nil
}

type AdminListIntentsRequest struct {
	AccountID string
	HasStatus bool
	Status    IntentStatus
	Provider  Provider
	Since     *time.Time
	Limit     int32
	Offset    int32
}

func NewAdminListIntentsRequestFromContext(ctx echo.Context) (*AdminListIntentsRequest, error) {
	req := &AdminListIntentsRequest{
		AccountID: strings.TrimSpace(ctx.QueryParam("account_id")),
		Limit:     100,
	}

	if raw := strings.TrimSpace(ctx.QueryParam("status")); raw != "" {
		status, err := parseStatusParam(raw)
		if err != nil {
			return nil, err
		}
		req.HasStatus = true
		req.Status = status
	}

	if raw := strings.TrimSpace(ctx.QueryParam("provider")); raw != "" {
		provider, err := ParseProvider(raw)
		if err != nil {
			return nil, err
		}
		req.Provider = provider
	}

	if raw := strings.TrimSpace(ctx.QueryParam("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errors.New("since must be RFC3339")
		}
		req.Since = &since
	}

	if raw := strings.TrimSpace(ctx.QueryParam("limit")); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	if raw := strings.TrimSpace(ctx.QueryParam("offset")); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *AdminListIntentsRequest) Validate() error {
	if r.Limit <= 0 || r.Limit > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.Offset < 0 {
		return errors.New("offset must be >= 0")
	}
	return nil
}

func parseStatusParam(raw string) (IntentStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "INITIATED":
		return StatusInitiated, nil
	case "PENDING":
		return StatusPending, nil
	case "SUCCESS":
		return StatusSuccess, nil
	case "FAILED":
		return StatusFailed, nil
	case "CANCELLED":
		return StatusCancelled, nil
	case "REFUNDED":
		return StatusRefunded, nil
	default:
		return 0, errors.New("invalid status")
	}
}

func IntentIDFromContext(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid intent id")
	}
	return id, nil
}

// ReadRawBody drains the request body for webhook handlers that verify
// signatures over the exact bytes the provider sent.
func ReadRawBody(ctx echo.Context) ([]byte, error) {
	return io.ReadAll(ctx.Request().Body)
}
