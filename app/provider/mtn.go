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

type MTNConfig struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	CallbackURL     string
	HTTPTimeout     time.Duration
}

// MTNProvider integrates the MoMo collection API. A payment is a
// request-to-pay push to the payer's phone; the correlation reference is the
// X-Reference-Id we generate at initiation.
type MTNProvider struct {
	cfg    MTNConfig
	client *http.Client
	tokens tokenCache
}

func NewMTNProvider(cfg MTNConfig) *MTNProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.TargetEnv == "" {
		cfg.TargetEnv = "sandbox"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &MTNProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *MTNProvider) Code() int32 {
	return int32(types.ProviderMTN)
}

func (p *MTNProvider) configured() bool {
	return p.cfg.BaseURL != "" && p.cfg.SubscriptionKey != "" && p.cfg.APIUser != "" && p.cfg.APIKey != ""
}

func (p *MTNProvider) Initiate(ctx context.Context, input *InitiateInput) (*InitiateOutput, error) {
	if !p.configured() {
		return nil, fmt.Errorf("%w: mtn momo credentials", ErrNotConfigured)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	reference := uuid.NewString()
	payload := map[string]interface{}{
		"amount":     strconv.FormatInt(input.AmountMinor, 10),
		"currency":   input.Currency,
		"externalId": strconv.FormatUint(input.IntentID, 10),
		"payer": map[string]string{
			"partyIdType": "MSISDN",
			"partyId":     strings.TrimPrefix(input.Phone, "+"),
		},
		"payerMessage": payerMessage(input),
		"payeeNote":    payerMessage(input),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/collection/v1_0/requesttopay", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Reference-Id", reference)
	req.Header.Set("X-Target-Environment", p.cfg.TargetEnv)
	req.Header.Set("Ocp-Apim-Subscription-Key", p.cfg.SubscriptionKey)
	req.Header.Set("Content-Type", "application/json")
	if cb := strings.TrimSpace(p.cfg.CallbackURL); cb != "" {
		req.Header.Set("X-Callback-Url", cb)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: mtn requesttopay status=%d", ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mtn requesttopay failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	instructions := "Confirm the payment prompt sent to " + input.Phone
	return &InitiateOutput{
		ProviderRef:    reference,
		Instructions:   &instructions,
		InitialOutcome: int32(types.OutcomePending),
		Data:           map[string]string{},
	}, nil
}

func (p *MTNProvider) PollStatus(ctx context.Context, providerRef string, _ map[string]string) (*StatusResult, error) {
	if !p.configured() {
		return nil, fmt.Errorf("%w: mtn momo credentials", ErrNotConfigured)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/collection/v1_0/requesttopay/"+url.PathEscape(providerRef), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Target-Environment", p.cfg.TargetEnv)
	req.Header.Set("Ocp-Apim-Subscription-Key", p.cfg.SubscriptionKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: mtn status check status=%d", ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("mtn status check failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var payload struct {
		Status string `json:"status"`
		Reason struct {
			Code string `json:"code"`
		} `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	raw := payload.Status
	if payload.Reason.Code != "" {
		raw = raw + "/" + payload.Reason.Code
	}
	return &StatusResult{RawStatus: raw, Outcome: NormalizeStatus(payload.Status)}, nil
}

func (p *MTNProvider) ParseCallback(_ context.Context, payload []byte, header http.Header) (*CallbackResult, error) {
	var body struct {
		ReferenceID            string `json:"referenceId"`
		ExternalID             string `json:"externalId"`
		Status                 string `json:"status"`
		FinancialTransactionID string `json:"financialTransactionId"`
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, err
		}
	}

	reference := strings.TrimSpace(body.ReferenceID)
	if reference == "" {
		reference = strings.TrimSpace(header.Get("X-Reference-Id"))
	}
	if reference == "" {
		return nil, ErrMissingReference
	}

	result := &CallbackResult{
		ProviderRef: reference,
		RawStatus:   body.Status,
		Outcome:     NormalizeStatus(body.Status),
	}
	if id := strings.TrimSpace(body.FinancialTransactionID); id != "" {
		result.EventID = &id
	}
	return result, nil
}

func (p *MTNProvider) accessToken(ctx context.Context) (string, error) {
	return p.tokens.get(ctx, func(ctx context.Context) (string, time.Duration, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/collection/token/", nil)
		if err != nil {
			return "", 0, err
		}
		basic := base64.StdEncoding.EncodeToString([]byte(p.cfg.APIUser + ":" + p.cfg.APIKey))
		req.Header.Set("Authorization", "Basic "+basic)
		req.Header.Set("Ocp-Apim-Subscription-Key", p.cfg.SubscriptionKey)

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
			return "", 0, fmt.Errorf("%w: mtn token status=%d", ErrAuthFailed, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return "", 0, fmt.Errorf("mtn token request failed: status=%d body=%s", resp.StatusCode, string(body))
		}

		var payload struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int64  `json:"expires_in"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", 0, err
		}
		if payload.AccessToken == "" {
			return "", 0, fmt.Errorf("%w: mtn token response empty", ErrAuthFailed)
		}

		ttl := time.Duration(payload.ExpiresIn) * time.Second
		if ttl <= 0 {
			ttl = time.Hour
		}
		return payload.AccessToken, ttl, nil
	})
}

func payerMessage(input *InitiateInput) string {
	msg := strings.TrimSpace(input.Description)
	if msg == "" {
		return "marketplace purchase"
	}
	return msg
}
