package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/provider"
	"github.com/soko-platform/ms-go-settlement/app/types"
	"github.com/soko-platform/ms-go-settlement/config"
)

type serviceSubscriptionStore struct {
	expired int64
}

func (s *serviceSubscriptionStore) ExpireDue(context.Context, time.Time) (int64, error) {
	return s.expired, nil
}

type captureAlerter struct {
	events []string
}

func (a *captureAlerter) Alert(_ context.Context, event string, _ map[string]interface{}) {
	a.events = append(a.events, event)
}

func jobsConfigForTest() config.PaymentsConfig {
	return config.PaymentsConfig{
		PendingTTL:    time.Hour,
		VerifyGrace:   3 * time.Minute,
		VerifyCeiling: 6 * time.Hour,
		StuckAfter:    30 * time.Minute,
		JobBatchSize:  100,
	}
}

func newJobsServiceForTest(f *paymentServiceFixture, subs *serviceSubscriptionStore, alerter *captureAlerter) *JobsService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewJobsService(f.intents, subs, f.svc, alerter, jobsConfigForTest(), logger)
}

func TestRunExpireIntentsBatchCancelsStale(t *testing.T) {
	f := newPaymentServiceForTest(creditPackCatalog(), &serviceProvider{code: int32(types.ProviderMTN)})
	jobs := newJobsServiceForTest(f, &serviceSubscriptionStore{}, &captureAlerter{})

	stale, err := f.svc.InitiatePayment(context.Background(), "acct-1", mtnPackRequest(""))
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	f.intents.intents[stale.ID].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)

	fresh, err := f.svc.InitiatePayment(context.Background(), "acct-2", mtnPackRequest(""))
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	if err := jobs.RunExpireIntentsBatch(context.Background()); err != nil {
		t.Fatalf("expire batch failed: %v", err)
	}

	if got := f.intents.intents[stale.ID].Status; got != int32(types.StatusCancelled) {
		t.Fatalf("expected stale intent CANCELLED, got %s", types.IntentStatus(got))
	}
	if got := f.intents.intents[fresh.ID].Status; got != int32(types.StatusPending) {
		t.Fatalf("expected fresh intent untouched, got %s", types.IntentStatus(got))
	}
}

func TestRunVerifyPendingBatchSettlesAndAlerts(t *testing.T) {
	adapter := &serviceProvider{
		code: int32(types.ProviderMTN),
		pollResult: &provider.StatusResult{
			RawStatus: "SUCCESSFUL",
			Outcome:   int32(types.OutcomeSuccess),
		},
	}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	alerter := &captureAlerter{}
	jobs := newJobsServiceForTest(f, &serviceSubscriptionStore{}, alerter)

	intent, err := f.svc.InitiatePayment(context.Background(), "acct-1", mtnPackRequest(""))
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	f.intents.intents[intent.ID].CreatedAt = time.Now().UTC().Add(-10 * time.Minute)

	if err := jobs.RunVerifyPendingBatch(context.Background()); err != nil {
		t.Fatalf("verify batch failed: %v", err)
	}

	if got := f.intents.intents[intent.ID].Status; got != int32(types.StatusSuccess) {
		t.Fatalf("expected SUCCESS after verify, got %s", types.IntentStatus(got))
	}
	if f.fulfill.credits["acct-1"] != 100 {
		t.Fatalf("expected credits granted by verify, got %d", f.fulfill.credits["acct-1"])
	}
	if len(alerter.events) != 1 || alerter.events[0] != "settled_by_reconciliation" {
		t.Fatalf("expected a settled_by_reconciliation alert, got %v", alerter.events)
	}

	// A second sweep finds nothing open and grants nothing new.
	if err := jobs.RunVerifyPendingBatch(context.Background()); err != nil {
		t.Fatalf("second verify batch failed: %v", err)
	}
	if f.fulfill.grants != 1 {
		t.Fatalf("expected one grant total, got %d", f.fulfill.grants)
	}
}

func TestRunVerifyPendingBatchSkipsFreshIntents(t *testing.T) {
	adapter := &serviceProvider{
		code: int32(types.ProviderMTN),
		pollResult: &provider.StatusResult{
			RawStatus: "SUCCESSFUL",
			Outcome:   int32(types.OutcomeSuccess),
		},
	}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	jobs := newJobsServiceForTest(f, &serviceSubscriptionStore{}, &captureAlerter{})

	intent, err := f.svc.InitiatePayment(context.Background(), "acct-1", mtnPackRequest(""))
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	if err := jobs.RunVerifyPendingBatch(context.Background()); err != nil {
		t.Fatalf("verify batch failed: %v", err)
	}

	// Inside the grace window, so the webhook still gets a chance to arrive.
	if got := f.intents.intents[intent.ID].Status; got != int32(types.StatusPending) {
		t.Fatalf("expected PENDING, got %s", types.IntentStatus(got))
	}
}

func TestRunExpireSubscriptionsBatch(t *testing.T) {
	f := newPaymentServiceForTest(creditPackCatalog(), &serviceProvider{code: int32(types.ProviderMTN)})
	jobs := newJobsServiceForTest(f, &serviceSubscriptionStore{expired: 3}, &captureAlerter{})

	if err := jobs.RunExpireSubscriptionsBatch(context.Background()); err != nil {
		t.Fatalf("expire subscriptions failed: %v", err)
	}
}
