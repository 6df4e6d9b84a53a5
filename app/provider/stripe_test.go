package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/soko-platform/ms-go-settlement/app/types"
)

func stripeSignatureHeader(payload []byte, secret string, ts int64) string {
	signed := []byte(strconv.FormatInt(ts, 10) + "." + string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(signed)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"
	now := time.Now().Unix()

	if !verifyStripeSignature(payload, stripeSignatureHeader(payload, secret, now), secret, 300) {
		t.Fatal("expected valid signature to verify")
	}
	if verifyStripeSignature(payload, stripeSignatureHeader(payload, "whsec_other", now), secret, 300) {
		t.Fatal("expected signature from wrong secret to fail")
	}
	if verifyStripeSignature(payload, stripeSignatureHeader(payload, secret, now-600), secret, 300) {
		t.Fatal("expected stale timestamp to fail")
	}
	if verifyStripeSignature(payload, "", secret, 300) {
		t.Fatal("expected missing header to fail")
	}
	if verifyStripeSignature([]byte(`{"id":"evt_2"}`), stripeSignatureHeader(payload, secret, now), secret, 300) {
		t.Fatal("expected tampered payload to fail")
	}
}

func TestStripeParseCallbackMapsEventTypes(t *testing.T) {
	p := NewStripeProvider(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test"})

	cases := []struct {
		eventType string
		want      types.Outcome
	}{
		{"checkout.session.completed", types.OutcomeSuccess},
		{"checkout.session.async_payment_succeeded", types.OutcomeSuccess},
		{"checkout.session.async_payment_failed", types.OutcomeFailed},
		{"checkout.session.expired", types.OutcomeCancelled},
		{"charge.updated", types.OutcomePending},
	}

	for _, tc := range cases {
		payload := []byte(fmt.Sprintf(`{"id":"evt_1","type":"%s","data":{"object":{"id":"cs_test_1"}}}`, tc.eventType))
		header := http.Header{}
		header.Set("Stripe-Signature", stripeSignatureHeader(payload, "whsec_test", time.Now().Unix()))

		result, err := p.ParseCallback(context.Background(), payload, header)
		if err != nil {
			t.Fatalf("ParseCallback(%s) failed: %v", tc.eventType, err)
		}
		if result.Outcome != int32(tc.want) {
			t.Errorf("ParseCallback(%s) outcome = %d, want %d", tc.eventType, result.Outcome, tc.want)
		}
		if result.ProviderRef != "cs_test_1" {
			t.Errorf("ParseCallback(%s) ref = %q", tc.eventType, result.ProviderRef)
		}
		if result.EventID == nil || *result.EventID != "evt_1" {
			t.Errorf("ParseCallback(%s) missing event id", tc.eventType)
		}
	}
}

func TestStripeParseCallbackRejectsBadSignature(t *testing.T) {
	p := NewStripeProvider(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test"})

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1"}}}`)
	header := http.Header{}
	header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	if _, err := p.ParseCallback(context.Background(), payload, header); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestStripeInitiateNotConfigured(t *testing.T) {
	p := NewStripeProvider(StripeConfig{})

	_, err := p.Initiate(context.Background(), &InitiateInput{IntentID: 1, Currency: "EUR", AmountMinor: 500})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
