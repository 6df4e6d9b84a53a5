package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soko-platform/ms-go-settlement/app/types"
)

func mtnTestConfig(baseURL string) MTNConfig {
	return MTNConfig{
		BaseURL:         baseURL,
		SubscriptionKey: "sub-key",
		APIUser:         "api-user",
		APIKey:          "api-key",
		TargetEnv:       "sandbox",
	}
}

func TestMTNInitiateNotConfigured(t *testing.T) {
	p := NewMTNProvider(MTNConfig{})

	_, err := p.Initiate(context.Background(), &InitiateInput{IntentID: 1, Currency: "XAF", AmountMinor: 500, Phone: "+237670000001"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestMTNTokenFetchedOnceAcrossPolls(t *testing.T) {
	var tokenCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/collection/token/":
			tokenCalls++
			if r.Header.Get("Authorization") == "" || r.Header.Get("Ocp-Apim-Subscription-Key") != "sub-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "tok-1",
				"expires_in":   3600,
			})
		case r.Method == http.MethodGet && r.URL.Path == "/collection/v1_0/requesttopay/ref-1":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESSFUL"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	p := NewMTNProvider(mtnTestConfig(server.URL))

	for i := 0; i < 2; i++ {
		result, err := p.PollStatus(context.Background(), "ref-1", nil)
		if err != nil {
			t.Fatalf("poll %d failed: %v", i, err)
		}
		if result.Outcome != int32(types.OutcomeSuccess) {
			t.Fatalf("poll %d outcome = %d, want success", i, result.Outcome)
		}
	}

	if tokenCalls != 1 {
		t.Fatalf("expected a single token fetch, got %d", tokenCalls)
	}
}

func TestMTNTokenRejectionIsAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p := NewMTNProvider(mtnTestConfig(server.URL))

	if _, err := p.PollStatus(context.Background(), "ref-1", nil); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestMTNInitiateSendsRequestToPay(t *testing.T) {
	var gotReference string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/collection/token/":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok-1", "expires_in": 3600})
		case r.Method == http.MethodPost && r.URL.Path == "/collection/v1_0/requesttopay":
			gotReference = r.Header.Get("X-Reference-Id")
			var body struct {
				Amount string `json:"amount"`
				Payer  struct {
					PartyID string `json:"partyId"`
				} `json:"payer"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Amount != "500" || body.Payer.PartyID != "237670000001" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	p := NewMTNProvider(mtnTestConfig(server.URL))

	output, err := p.Initiate(context.Background(), &InitiateInput{
		IntentID:    42,
		Currency:    "XAF",
		AmountMinor: 500,
		Phone:       "+237670000001",
		Description: "Credit pack PACK_S (100 credits)",
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if output.ProviderRef == "" || output.ProviderRef != gotReference {
		t.Fatalf("provider ref %q does not match X-Reference-Id %q", output.ProviderRef, gotReference)
	}
	if output.InitialOutcome != int32(types.OutcomePending) {
		t.Fatalf("expected pending initial outcome, got %d", output.InitialOutcome)
	}
	if output.Instructions == nil {
		t.Fatal("expected payer instructions")
	}
}

func TestMTNParseCallbackReferenceFallback(t *testing.T) {
	p := NewMTNProvider(MTNConfig{})

	header := http.Header{}
	header.Set("X-Reference-Id", "ref-9")
	result, err := p.ParseCallback(context.Background(), []byte(`{"status":"FAILED"}`), header)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.ProviderRef != "ref-9" || result.Outcome != int32(types.OutcomeFailed) {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := p.ParseCallback(context.Background(), []byte(`{}`), http.Header{}); !errors.Is(err, ErrMissingReference) {
		t.Fatalf("expected ErrMissingReference, got %v", err)
	}
}
