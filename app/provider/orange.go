package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

type OrangeConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	MerchantKey  string
	ReturnURL    string
	CancelURL    string
	NotifURL     string
	HTTPTimeout  time.Duration
}

const (
	orangeDataPayToken   = "pay_token"
	orangeDataNotifToken = "notif_token"
	orangeDataAmount     = "amount"
)

// OrangeProvider integrates Orange Money WebPayment. The correlation
// reference is the order_id we generate; status checks additionally need the
// pay_token returned at initiation, which the caller carries in the intent's
// provider data.
type OrangeProvider struct {
	cfg    OrangeConfig
	client *http.Client
	tokens tokenCache
}

func NewOrangeProvider(cfg OrangeConfig) *OrangeProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &OrangeProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *OrangeProvider) Code() int32 {
	return int32(types.ProviderOrange)
}

func (p *OrangeProvider) configured() bool {
	return p.cfg.BaseURL != "" && p.cfg.ClientID != "" && p.cfg.ClientSecret != "" && p.cfg.MerchantKey != ""
}

func (p *OrangeProvider) Initiate(ctx context.Context, input *InitiateInput) (*InitiateOutput, error) {
	if !p.configured() {
		return nil, fmt.Errorf("%w: orange money credentials", ErrNotConfigured)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	orderID := fmt.Sprintf("intent-%d-%s", input.IntentID, uuid.NewString()[:8])
	payload := map[string]interface{}{
		"merchant_key": p.cfg.MerchantKey,
		"currency":     input.Currency,
		"order_id":     orderID,
		"amount":       input.AmountMinor,
		"return_url":   p.cfg.ReturnURL,
		"cancel_url":   p.cfg.CancelURL,
		"notif_url":    p.cfg.NotifURL,
		"lang":         "en",
		"reference":    strconv.FormatUint(input.IntentID, 10),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/orange-money-webpay/dev/v1/webpayment", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: orange webpayment status=%d", ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("orange webpayment failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var result struct {
		PaymentURL string `json:"payment_url"`
		PayToken   string `json:"pay_token"`
		NotifToken string `json:"notif_token"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.PaymentURL) == "" || strings.TrimSpace(result.PayToken) == "" {
		return nil, fmt.Errorf("orange webpayment response incomplete: body=%s", string(respBody))
	}

	checkoutURL := strings.TrimSpace(result.PaymentURL)
	return &InitiateOutput{
		ProviderRef:    orderID,
		CheckoutURL:    &checkoutURL,
		InitialOutcome: int32(types.OutcomePending),
		Data: map[string]string{
			orangeDataPayToken:   strings.TrimSpace(result.PayToken),
			orangeDataNotifToken: strings.TrimSpace(result.NotifToken),
			orangeDataAmount:     strconv.FormatInt(input.AmountMinor, 10),
		},
	}, nil
}

func (p *OrangeProvider) PollStatus(ctx context.Context, providerRef string, data map[string]string) (*StatusResult, error) {
	if !p.configured() {
		return nil, fmt.Errorf("%w: orange money credentials", ErrNotConfigured)
	}
	payToken := strings.TrimSpace(data[orangeDataPayToken])
	if payToken == "" {
		return nil, fmt.Errorf("%w: orange pay token for order %s", ErrMissingReference, providerRef)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	// transactionstatus wants the amount from initiation back; it travels in
	// the intent's provider data.
	amount, err := strconv.ParseInt(strings.TrimSpace(data[orangeDataAmount]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: orange amount for order %s", ErrMissingReference, providerRef)
	}

	payload := map[string]interface{}{
		"order_id":  providerRef,
		"amount":    amount,
		"pay_token": payToken,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/orange-money-webpay/dev/v1/transactionstatus", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: orange status check status=%d", ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("orange status check failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}

	return &StatusResult{RawStatus: result.Status, Outcome: NormalizeStatus(result.Status)}, nil
}

func (p *OrangeProvider) ParseCallback(_ context.Context, payload []byte, _ http.Header) (*CallbackResult, error) {
	var body struct {
		OrderID    string `json:"order_id"`
		Status     string `json:"status"`
		NotifToken string `json:"notif_token"`
		TxnID      string `json:"txnid"`
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, err
		}
	}

	orderID := strings.TrimSpace(body.OrderID)
	if orderID == "" {
		return nil, ErrMissingReference
	}

	result := &CallbackResult{
		ProviderRef: orderID,
		RawStatus:   body.Status,
		Outcome:     NormalizeStatus(body.Status),
	}
	if id := strings.TrimSpace(body.TxnID); id != "" {
		result.EventID = &id
	}
	return result, nil
}

func (p *OrangeProvider) accessToken(ctx context.Context) (string, error) {
	return p.tokens.get(ctx, func(ctx context.Context) (string, time.Duration, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/oauth/v3/token", strings.NewReader(form.Encode()))
		if err != nil {
			return "", 0, err
		}
		basic := base64.StdEncoding.EncodeToString([]byte(p.cfg.ClientID + ":" + p.cfg.ClientSecret))
		req.Header.Set("Authorization", "Basic "+basic)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := p.client.Do(req)
		if err != nil {
			return "", 0, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", 0, err
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", 0, fmt.Errorf("%w: orange token status=%d", ErrAuthFailed, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return "", 0, fmt.Errorf("orange token request failed: status=%d body=%s", resp.StatusCode, string(body))
		}

		var payload struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int64  `json:"expires_in"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", 0, err
		}
		if payload.AccessToken == "" {
			return "", 0, fmt.Errorf("%w: orange token response empty", ErrAuthFailed)
		}

		ttl := time.Duration(payload.ExpiresIn) * time.Second
		if ttl <= 0 {
			ttl = time.Hour
		}
		return payload.AccessToken, ttl, nil
	})
}
