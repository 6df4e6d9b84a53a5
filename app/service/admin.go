package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/entity"
	"github.com/soko-platform/ms-go-settlement/app/provider"
	"github.com/soko-platform/ms-go-settlement/app/repository"
	"github.com/soko-platform/ms-go-settlement/app/types"
	"github.com/soko-platform/ms-go-settlement/config"
)

type adminIntentStore interface {
	FindByID(ctx context.Context, id uint64) (*entity.PaymentIntent, error)
	List(ctx context.Context, filter repository.IntentFilter) ([]*entity.PaymentIntent, error)
	Revenue(ctx context.Context, since time.Time) ([]*repository.RevenueRow, error)
	ListUnsettledBefore(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.PaymentIntent, error)
}

type auditStore interface {
	Create(ctx context.Context, log *entity.AuditLog) error
}

type adminPayments interface {
	PollAndApply(ctx context.Context, intent *entity.PaymentIntent) error
	Cancel(ctx context.Context, intentID uint64) (bool, error)
	MarkRefunded(ctx context.Context, intentID uint64) error
}

// AdminService backs the operator surface. Every mutating action leaves an
// audit row.
type AdminService struct {
	intents   adminIntentStore
	audit     auditStore
	payments  adminPayments
	wallets   *WalletService
	providers providerRegistry
	cfg       config.PaymentsConfig
	logger    logrus.FieldLogger
}

func NewAdminService(
	intents adminIntentStore,
	audit auditStore,
	payments adminPayments,
	wallets *WalletService,
	providers providerRegistry,
	cfg config.PaymentsConfig,
	logger logrus.FieldLogger,
) *AdminService {
	return &AdminService{
		intents:   intents,
		audit:     audit,
		payments:  payments,
		wallets:   wallets,
		providers: providers,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *AdminService) ListIntents(ctx context.Context, req *types.AdminListIntentsRequest) ([]*entity.PaymentIntent, error) {
	return s.intents.List(ctx, intentFilterFromRequest(req))
}

// ExportCSV renders the same listing as CSV for finance tooling.
func (s *AdminService) ExportCSV(ctx context.Context, req *types.AdminListIntentsRequest) ([]byte, error) {
	intents, err := s.intents.List(ctx, intentFilterFromRequest(req))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "account_id", "provider", "product_type", "product_ref", "amount_minor", "currency", "country", "status", "provider_ref", "fulfilled", "created_at", "updated_at"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, intent := range intents {
		ref := ""
		if intent.ProviderRef != nil {
			ref = *intent.ProviderRef
		}
		record := []string{
			strconv.FormatUint(intent.ID, 10),
			intent.AccountID,
			types.Provider(intent.Provider).String(),
			types.ProductType(intent.ProductType).String(),
			intent.ProductRefID,
			strconv.FormatInt(intent.AmountMinor, 10),
			intent.Currency,
			intent.Country,
			types.IntentStatus(intent.Status).String(),
			ref,
			strconv.FormatBool(intent.FulfilledAt != nil),
			intent.CreatedAt.UTC().Format(time.RFC3339),
			intent.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *AdminService) Revenue(ctx context.Context, since time.Time) ([]*repository.RevenueRow, error) {
	return s.intents.Revenue(ctx, since)
}

// StuckIntents reports open intents older than the stuck threshold but not
// yet old enough for the expire job to have cancelled them.
func (s *AdminService) StuckIntents(ctx context.Context) ([]*entity.PaymentIntent, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.StuckAfter)
	return s.intents.ListUnsettledBefore(ctx, cutoff, s.cfg.JobBatchSize)
}

// Refund triggers a provider-side refund and marks the intent REFUNDED.
// Credits or time already granted stay granted. Refunding an already
// refunded intent is a no-op.
func (s *AdminService) Refund(ctx context.Context, actor string, intentID uint64) error {
	intent, err := s.intents.FindByID(ctx, intentID)
	if err != nil {
		return err
	}
	if intent == nil {
		return ErrIntentNotFound
	}
	if intent.Status == int32(types.StatusRefunded) {
		return nil
	}
	if intent.Status != int32(types.StatusSuccess) {
		return ErrInvalidStatus
	}
	if intent.ProviderRef == nil {
		return ErrRefundUnsupported
	}

	adapter, err := s.providers.Get(intent.Provider)
	if err != nil {
		return err
	}
	refunder, ok := adapter.(provider.Refunder)
	if !ok {
		return ErrRefundUnsupported
	}

	if err := refunder.Refund(ctx, *intent.ProviderRef); err != nil {
		return err
	}

	if err := s.payments.MarkRefunded(ctx, intentID); err != nil {
		return err
	}

	s.writeAudit(ctx, actor, "refund", &intentID, fmt.Sprintf("refunded %d %s", intent.AmountMinor, intent.Currency))
	return nil
}

// Verify forces a provider poll on one intent and returns the fresh state.
func (s *AdminService) Verify(ctx context.Context, actor string, intentID uint64) (*entity.PaymentIntent, error) {
	intent, err := s.intents.FindByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, ErrIntentNotFound
	}
	if intent.ProviderRef == nil {
		return nil, ErrInvalidStatus
	}

	if err := s.payments.PollAndApply(ctx, intent); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, actor, "verify", &intentID, "forced provider verification")

	fresh, err := s.intents.FindByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return intent, nil
	}
	return fresh, nil
}

// Cancel closes an open intent from the admin surface. Cancelling an already
// cancelled intent is a no-op.
func (s *AdminService) Cancel(ctx context.Context, actor string, intentID uint64) error {
	intent, err := s.intents.FindByID(ctx, intentID)
	if err != nil {
		return err
	}
	if intent == nil {
		return ErrIntentNotFound
	}
	if intent.Status == int32(types.StatusCancelled) {
		return nil
	}

	cancelled, err := s.payments.Cancel(ctx, intentID)
	if err != nil {
		return err
	}
	if !cancelled {
		return ErrInvalidStatus
	}

	s.writeAudit(ctx, actor, "cancel", &intentID, "cancelled by operator")
	return nil
}

// AdjustCredits applies a manual wallet correction.
func (s *AdminService) AdjustCredits(ctx context.Context, actor string, req *types.AdminAdjustCreditsRequest) (*entity.CreditTransaction, error) {
	txn, err := s.wallets.Adjust(ctx, req.AccountID, req.Amount, req.Note)
	if err != nil {
		return nil, err
	}

	s.writeAudit(ctx, actor, "adjust_credits", nil, fmt.Sprintf("account %s adjusted by %d: %s", req.AccountID, req.Amount, req.Note))
	return txn, nil
}

func (s *AdminService) writeAudit(ctx context.Context, actor, action string, intentID *uint64, detail string) {
	log := &entity.AuditLog{
		Actor:     actor,
		Action:    action,
		IntentID:  intentID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.WithError(err).WithField("action", action).Error("audit write failed")
	}
}

func intentFilterFromRequest(req *types.AdminListIntentsRequest) repository.IntentFilter {
	return repository.IntentFilter{
		AccountID: req.AccountID,
		HasStatus: req.HasStatus,
		Status:    int32(req.Status),
		Provider:  int32(req.Provider),
		Since:     req.Since,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
}
