package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/provider"
	"github.com/soko-platform/ms-go-settlement/app/service"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

func newPaymentControllerForTest(providers ...provider.Provider) *PaymentController {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	payments := service.NewPaymentService(nil, nil, nil, provider.NewRegistry(providers...), nil, service.NewLogAlerter(logger), logger)
	return NewPaymentController(payments, logger)
}

func performRequest(handler echo.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)
	if err := handler(ctx); err != nil {
		ctx.Error(err)
	}
	return rec
}

func TestInitiatePaymentRejectsMalformedBody(t *testing.T) {
	c := newPaymentControllerForTest()

	req := httptest.NewRequest(http.MethodPost, "/payments/init", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(types.AccountIDHeader, "acct-1")

	rec := performRequest(c.InitiatePayment, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestInitiatePaymentRejectsMissingPhoneForMobileMoney(t *testing.T) {
	c := newPaymentControllerForTest()

	body := `{"provider":"MTN","productType":"CREDIT_PACK","productRefId":"PACK_S","country":"CM"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/init", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(types.AccountIDHeader, "acct-1")

	rec := performRequest(c.InitiatePayment, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), types.CodeInvalidPhone) {
		t.Fatalf("expected %s in body, got %s", types.CodeInvalidPhone, rec.Body.String())
	}
}

func TestGetPaymentStatusRejectsBadID(t *testing.T) {
	c := newPaymentControllerForTest()

	req := httptest.NewRequest(http.MethodGet, "/payments/abc/status", nil)
	req.Header.Set(types.AccountIDHeader, "acct-1")
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("abc")

	if err := c.GetPaymentStatus(ctx); err != nil {
		ctx.Error(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMTNWebhookWithoutReference(t *testing.T) {
	c := newPaymentControllerForTest(provider.NewMTNProvider(provider.MTNConfig{}))

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook/mtn", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := performRequest(c.MTNWebhook, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), types.CodeMissingReference) {
		t.Fatalf("expected %s in body, got %s", types.CodeMissingReference, rec.Body.String())
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	c := newPaymentControllerForTest(provider.NewStripeProvider(provider.StripeConfig{
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
	}))

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	rec := performRequest(c.StripeWebhook, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStripeWebhookUnconfigured(t *testing.T) {
	c := newPaymentControllerForTest(provider.NewStripeProvider(provider.StripeConfig{}))

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook/stripe", strings.NewReader(`{"id":"evt_1"}`))

	rec := performRequest(c.StripeWebhook, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
