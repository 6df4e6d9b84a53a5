package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/soko-platform/ms-go-settlement/app/types"
)

type StripeConfig struct {
	SecretKey                 string
	WebhookSecret             string
	SuccessURL                string
	CancelURL                 string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

// StripeProvider drives hosted checkout sessions. The correlation reference
// is the checkout session id.
type StripeProvider struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.SignatureToleranceSeconds <= 0 {
		cfg.SignatureToleranceSeconds = 300
	}

	return &StripeProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *StripeProvider) Code() int32 {
	return int32(types.ProviderStripe)
}

func (p *StripeProvider) Initiate(ctx context.Context, input *InitiateInput) (*InitiateOutput, error) {
	if strings.TrimSpace(p.cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%w: stripe secret key", ErrNotConfigured)
	}

	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", strings.ToLower(input.Currency))
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.AmountMinor, 10))
	values.Set("line_items[0][price_data][product_data][name]", productName(input))
	values.Set("client_reference_id", strconv.FormatUint(input.IntentID, 10))
	values.Set("metadata[intent_id]", strconv.FormatUint(input.IntentID, 10))
	values.Set("metadata[account_id]", input.AccountID)
	if s := strings.TrimSpace(p.cfg.SuccessURL); s != "" {
		values.Set("success_url", s)
	}
	if s := strings.TrimSpace(p.cfg.CancelURL); s != "" {
		values.Set("cancel_url", s)
	}

	body, err := p.postForm(ctx, "/v1/checkout/sessions", values)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	sessionID := strings.TrimSpace(payload.ID)
	if sessionID == "" {
		return nil, errors.New("stripe checkout session id missing")
	}

	result := &InitiateOutput{
		ProviderRef:    sessionID,
		InitialOutcome: int32(types.OutcomePending),
		Data:           map[string]string{},
	}
	if s := strings.TrimSpace(payload.URL); s != "" {
		result.CheckoutURL = &s
	}
	return result, nil
}

func (p *StripeProvider) PollStatus(ctx context.Context, providerRef string, _ map[string]string) (*StatusResult, error) {
	if strings.TrimSpace(p.cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%w: stripe secret key", ErrNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.stripe.com/v1/checkout/sessions/"+url.PathEscape(providerRef), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe get checkout session failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var payload struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	raw := payload.Status + "/" + payload.PaymentStatus
	switch {
	case payload.PaymentStatus == "paid" || payload.PaymentStatus == "no_payment_required":
		return &StatusResult{RawStatus: raw, Outcome: int32(types.OutcomeSuccess)}, nil
	case payload.Status == "expired":
		return &StatusResult{RawStatus: raw, Outcome: int32(types.OutcomeCancelled)}, nil
	default:
		return &StatusResult{RawStatus: raw, Outcome: int32(types.OutcomePending)}, nil
	}
}

func (p *StripeProvider) ParseCallback(_ context.Context, payload []byte, header http.Header) (*CallbackResult, error) {
	if strings.TrimSpace(p.cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret", ErrNotConfigured)
	}
	signature := strings.TrimSpace(header.Get("Stripe-Signature"))
	if !verifyStripeSignature(payload, signature, p.cfg.WebhookSecret, p.cfg.SignatureToleranceSeconds) {
		return nil, ErrInvalidSignature
	}

	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	sessionID := strings.TrimSpace(event.Data.Object.ID)
	if sessionID == "" {
		return nil, ErrMissingReference
	}

	result := &CallbackResult{
		ProviderRef: sessionID,
		RawStatus:   event.Type,
	}
	if id := strings.TrimSpace(event.ID); id != "" {
		result.EventID = &id
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		result.Outcome = int32(types.OutcomeSuccess)
	case "checkout.session.async_payment_failed":
		result.Outcome = int32(types.OutcomeFailed)
	case "checkout.session.expired":
		result.Outcome = int32(types.OutcomeCancelled)
	default:
		result.Outcome = int32(types.OutcomePending)
	}

	return result, nil
}

// Refund refunds the payment behind a checkout session. Stripe refunds are
// keyed by payment intent, so the session is fetched first to resolve it.
func (p *StripeProvider) Refund(ctx context.Context, providerRef string) error {
	if strings.TrimSpace(p.cfg.SecretKey) == "" {
		return fmt.Errorf("%w: stripe secret key", ErrNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.stripe.com/v1/checkout/sessions/"+url.PathEscape(providerRef), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("stripe get checkout session failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var session struct {
		PaymentIntent string `json:"payment_intent"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return err
	}
	paymentIntent := strings.TrimSpace(session.PaymentIntent)
	if paymentIntent == "" {
		return errors.New("stripe session has no payment intent to refund")
	}

	values := url.Values{}
	values.Set("payment_intent", paymentIntent)
	_, err = p.postForm(ctx, "/v1/refunds", values)
	return err
}

func (p *StripeProvider) postForm(ctx context.Context, path string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.stripe.com"+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe request failed: path=%s status=%d body=%s", path, resp.StatusCode, string(body))
	}

	return body, nil
}

func productName(input *InitiateInput) string {
	name := strings.TrimSpace(input.Description)
	if name == "" {
		return "marketplace purchase"
	}
	return name
}

func verifyStripeSignature(payload []byte, signatureHeader string, webhookSecret string, toleranceSeconds int64) bool {
	signatureHeader = strings.TrimSpace(signatureHeader)
	if signatureHeader == "" || strings.TrimSpace(webhookSecret) == "" {
		return false
	}

	parts := strings.Split(signatureHeader, ",")
	var ts string
	v1 := make([]string, 0, 1)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "t=") {
			ts = strings.TrimSpace(strings.TrimPrefix(part, "t="))
		}
		if strings.HasPrefix(part, "v1=") {
			v1 = append(v1, strings.TrimSpace(strings.TrimPrefix(part, "v1=")))
		}
	}
	if ts == "" || len(v1) == 0 {
		return false
	}

	tsUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	now := time.Now().Unix()
	if now-tsUnix > toleranceSeconds || tsUnix-now > toleranceSeconds {
		return false
	}

	signedPayload := []byte(ts + "." + string(payload))
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, _ = mac.Write(signedPayload)
	expected := mac.Sum(nil)

	for _, sig := range v1 {
		candidate, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(candidate, expected) {
			return true
		}
	}

	return false
}
