package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/entity"
	"github.com/soko-platform/ms-go-settlement/app/provider"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

type serviceAuditStore struct {
	logs []*entity.AuditLog
}

func (s *serviceAuditStore) Create(_ context.Context, log *entity.AuditLog) error {
	copyItem := *log
	s.logs = append(s.logs, &copyItem)
	return nil
}

type refundingProvider struct {
	serviceProvider
	refunded  []string
	refundErr error
}

func (p *refundingProvider) Refund(_ context.Context, ref string) error {
	if p.refundErr != nil {
		return p.refundErr
	}
	p.refunded = append(p.refunded, ref)
	return nil
}

func newAdminServiceForTest(f *paymentServiceFixture, audit *serviceAuditStore, wallets *serviceWalletStore, providers ...provider.Provider) *AdminService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewAdminService(
		f.intents,
		audit,
		f.svc,
		NewWalletService(wallets, logger),
		provider.NewRegistry(providers...),
		jobsConfigForTest(),
		logger,
	)
}

func settledIntent(t *testing.T, f *paymentServiceFixture) *entity.PaymentIntent {
	t.Helper()
	intent, err := f.svc.InitiatePayment(context.Background(), "acct-1", mtnPackRequest(""))
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	f.intents.intents[intent.ID].Status = int32(types.StatusSuccess)
	return intent
}

func TestAdminRefundRequiresSuccessStatus(t *testing.T) {
	adapter := &refundingProvider{serviceProvider: serviceProvider{code: int32(types.ProviderStripe)}}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	admin := newAdminServiceForTest(f, &serviceAuditStore{}, newServiceWalletStore(), adapter)

	req := mtnPackRequest("")
	req.Provider = "STRIPE"
	intent, err := f.svc.InitiatePayment(context.Background(), "acct-1", req)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	if err := admin.Refund(context.Background(), "ops", intent.ID); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for pending intent, got %v", err)
	}
}

func TestAdminRefundUnsupportedForMobileMoney(t *testing.T) {
	adapter := &serviceProvider{code: int32(types.ProviderMTN)}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	admin := newAdminServiceForTest(f, &serviceAuditStore{}, newServiceWalletStore(), adapter)

	intent := settledIntent(t, f)

	if err := admin.Refund(context.Background(), "ops", intent.ID); !errors.Is(err, ErrRefundUnsupported) {
		t.Fatalf("expected ErrRefundUnsupported, got %v", err)
	}
}

func TestAdminRefundMarksRefundedAndAudits(t *testing.T) {
	adapter := &refundingProvider{serviceProvider: serviceProvider{code: int32(types.ProviderStripe)}}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	audit := &serviceAuditStore{}
	admin := newAdminServiceForTest(f, audit, newServiceWalletStore(), adapter)

	req := mtnPackRequest("")
	req.Provider = "STRIPE"
	intent, err := f.svc.InitiatePayment(context.Background(), "acct-1", req)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	f.intents.intents[intent.ID].Status = int32(types.StatusSuccess)

	if err := admin.Refund(context.Background(), "ops", intent.ID); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	if got := f.intents.intents[intent.ID].Status; got != int32(types.StatusRefunded) {
		t.Fatalf("expected REFUNDED, got %s", types.IntentStatus(got))
	}
	if len(adapter.refunded) != 1 || adapter.refunded[0] != "ref-1" {
		t.Fatalf("expected provider refund for ref-1, got %v", adapter.refunded)
	}
	if len(audit.logs) != 1 || audit.logs[0].Action != "refund" || audit.logs[0].Actor != "ops" {
		t.Fatalf("expected one refund audit row, got %+v", audit.logs)
	}
}

func TestAdminRefundRepeatIsNoOp(t *testing.T) {
	adapter := &refundingProvider{serviceProvider: serviceProvider{code: int32(types.ProviderStripe)}}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	audit := &serviceAuditStore{}
	admin := newAdminServiceForTest(f, audit, newServiceWalletStore(), adapter)

	req := mtnPackRequest("")
	req.Provider = "STRIPE"
	intent, err := f.svc.InitiatePayment(context.Background(), "acct-1", req)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	f.intents.intents[intent.ID].Status = int32(types.StatusSuccess)

	if err := admin.Refund(context.Background(), "ops", intent.ID); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if err := admin.Refund(context.Background(), "ops", intent.ID); err != nil {
		t.Fatalf("repeated refund must be a no-op, got %v", err)
	}

	if len(adapter.refunded) != 1 {
		t.Fatalf("expected one provider refund call, got %d", len(adapter.refunded))
	}
	if len(audit.logs) != 1 {
		t.Fatalf("expected one audit row, got %d", len(audit.logs))
	}
}

func TestAdminCancelRepeatIsNoOp(t *testing.T) {
	adapter := &serviceProvider{code: int32(types.ProviderMTN)}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	audit := &serviceAuditStore{}
	admin := newAdminServiceForTest(f, audit, newServiceWalletStore(), adapter)

	intent, err := f.svc.InitiatePayment(context.Background(), "acct-1", mtnPackRequest(""))
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	if err := admin.Cancel(context.Background(), "ops", intent.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := admin.Cancel(context.Background(), "ops", intent.ID); err != nil {
		t.Fatalf("repeated cancel must be a no-op, got %v", err)
	}

	if got := f.intents.intents[intent.ID].Status; got != int32(types.StatusCancelled) {
		t.Fatalf("expected CANCELLED, got %s", types.IntentStatus(got))
	}
	if len(audit.logs) != 1 {
		t.Fatalf("expected one audit row, got %d", len(audit.logs))
	}
}

func TestAdminCancelTerminalIntentRejected(t *testing.T) {
	adapter := &serviceProvider{code: int32(types.ProviderMTN)}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	admin := newAdminServiceForTest(f, &serviceAuditStore{}, newServiceWalletStore(), adapter)

	intent := settledIntent(t, f)

	if err := admin.Cancel(context.Background(), "ops", intent.ID); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestAdminAdjustCreditsWritesAudit(t *testing.T) {
	adapter := &serviceProvider{code: int32(types.ProviderMTN)}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	audit := &serviceAuditStore{}
	wallets := newServiceWalletStore()
	admin := newAdminServiceForTest(f, audit, wallets, adapter)

	txn, err := admin.AdjustCredits(context.Background(), "ops", &types.AdminAdjustCreditsRequest{
		AccountID: "acct-1",
		Amount:    40,
		Note:      "goodwill",
	})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if txn.Type != int32(types.TxnCredit) || txn.Amount != 40 {
		t.Fatalf("unexpected transaction: type=%d amount=%d", txn.Type, txn.Amount)
	}
	if wallets.balances["acct-1"] != 40 {
		t.Fatalf("expected balance 40, got %d", wallets.balances["acct-1"])
	}
	if len(audit.logs) != 1 || audit.logs[0].Action != "adjust_credits" {
		t.Fatalf("expected adjust audit row, got %+v", audit.logs)
	}
}

func TestAdminExportCSVHasHeaderAndRows(t *testing.T) {
	adapter := &serviceProvider{code: int32(types.ProviderMTN)}
	f := newPaymentServiceForTest(creditPackCatalog(), adapter)
	admin := newAdminServiceForTest(f, &serviceAuditStore{}, newServiceWalletStore(), adapter)

	if _, err := f.svc.InitiatePayment(context.Background(), "acct-1", mtnPackRequest("")); err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	data, err := admin.ExportCSV(context.Background(), &types.AdminListIntentsRequest{Limit: 100})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !bytes.HasPrefix(lines[0], []byte("id,account_id,provider")) {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}
