package types

// Error codes are stable strings the clients map to localized text.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidPhone        = "INVALID_PHONE"
	CodePackNotFound        = "PACK_NOT_FOUND"
	CodeOfferNotFound       = "OFFER_NOT_FOUND"
	CodeIntentNotFound      = "INTENT_NOT_FOUND"
	CodeMissingReference    = "MISSING_REFERENCE"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	CodeProviderError       = "PROVIDER_ERROR"
	CodeNotConfigured       = "PROVIDER_NOT_CONFIGURED"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeRefundUnsupported   = "REFUND_UNSUPPORTED"
	CodeInternal            = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}

type InitiatePaymentResponse struct {
	IntentID     uint64 `json:"intentId"`
	Status       string `json:"status"`
	CheckoutURL  string `json:"checkoutUrl,omitempty"`
	Reference    string `json:"reference,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type PaymentStatusResponse struct {
	ID       uint64 `json:"id"`
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type IntentView struct {
	ID           uint64 `json:"id"`
	AccountID    string `json:"accountId"`
	Provider     string `json:"provider"`
	ProductType  string `json:"productType"`
	ProductRefID string `json:"productRefId"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Country      string `json:"country"`
	Status       string `json:"status"`
	ProviderRef  string `json:"providerRef,omitempty"`
	Fulfilled    bool   `json:"fulfilled"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type ListIntentsResponse struct {
	Intents []*IntentView `json:"intents"`
}

type BalanceResponse struct {
	AccountID string `json:"accountId"`
	Balance   int64  `json:"balance"`
}

type TransactionView struct {
	ID        uint64 `json:"id"`
	Type      string `json:"type"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"createdAt"`
}

type ListTransactionsResponse struct {
	AccountID    string             `json:"accountId"`
	Transactions []*TransactionView `json:"transactions"`
}

type RevenueRow struct {
	Currency    string `json:"currency"`
	ProductType string `json:"productType"`
	Total       int64  `json:"total"`
	Count       int64  `json:"count"`
}

type RevenueResponse struct {
	Since string        `json:"since"`
	Rows  []*RevenueRow `json:"rows"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
