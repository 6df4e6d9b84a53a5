package provider

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrNotConfigured means credentials are missing; fail fast, never retry.
	ErrNotConfigured = errors.New("provider is not configured")
	// ErrAuthFailed means the provider rejected our credentials on a token
	// fetch; distinct from ErrNotConfigured so operators can tell
	// misconfiguration from a provider-side outage.
	ErrAuthFailed = errors.New("provider authentication failed")
	// ErrMissingReference means a callback carried no correlation reference.
	ErrMissingReference = errors.New("callback reference is missing")
	// ErrInvalidSignature means a signed callback failed verification.
	ErrInvalidSignature = errors.New("callback signature is invalid")
)

type InitiateInput struct {
	IntentID    uint64
	AccountID   string
	AmountMinor int64
	Currency    string
	Country     string
	Phone       string
	Description string
}

type InitiateOutput struct {
	// ProviderRef is the correlation reference used to poll status and match
	// callbacks back to the intent.
	ProviderRef  string
	CheckoutURL  *string
	Instructions *string

	// InitialOutcome is OutcomeSuccess for providers that settle at
	// initiation (mock), OutcomePending otherwise.
	InitialOutcome int32

	// Data carries provider-specific state the adapter needs back on later
	// calls (pay tokens, phone numbers).
	Data map[string]string
}

type StatusResult struct {
	RawStatus string
	Outcome   int32
}

type CallbackResult struct {
	ProviderRef string
	// EventID is the provider-supplied event identifier when one exists;
	// callers synthesize one from the reference otherwise.
	EventID   *string
	RawStatus string
	Outcome   int32
}

// Provider is the uniform capability contract per payment provider.
type Provider interface {
	Code() int32
	Initiate(ctx context.Context, input *InitiateInput) (*InitiateOutput, error)
	PollStatus(ctx context.Context, providerRef string, data map[string]string) (*StatusResult, error)
	ParseCallback(ctx context.Context, payload []byte, header http.Header) (*CallbackResult, error)
}

// Refunder is the optional capability for providers that can return money.
// Mobile money operators have no refund API, so only card providers
// implement it.
type Refunder interface {
	Refund(ctx context.Context, providerRef string) error
}
