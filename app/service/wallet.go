package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/app/entity"
	"github.com/soko-platform/ms-go-settlement/app/repository"
	"github.com/soko-platform/ms-go-settlement/app/types"
)

type walletStore interface {
	Balance(ctx context.Context, accountID string) (int64, error)
	Credit(ctx context.Context, accountID string, amount int64, reason int32, meta map[string]string, sourceIntentID *uint64, now time.Time) (*entity.CreditTransaction, error)
	Debit(ctx context.Context, accountID string, amount int64, reason int32, meta map[string]string, sourceIntentID *uint64, now time.Time) (*entity.CreditTransaction, error)
	ListTransactions(ctx context.Context, accountID string, limit, offset int32) ([]*entity.CreditTransaction, error)
}

type WalletService struct {
	store  walletStore
	logger logrus.FieldLogger
}

func NewWalletService(store walletStore, logger logrus.FieldLogger) *WalletService {
	return &WalletService{store: store, logger: logger}
}

func (s *WalletService) Balance(ctx context.Context, accountID string) (int64, error) {
	return s.store.Balance(ctx, accountID)
}

func (s *WalletService) Transactions(ctx context.Context, accountID string, limit, offset int32) ([]*entity.CreditTransaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListTransactions(ctx, accountID, limit, offset)
}

// Spend debits credits for a marketplace action.
func (s *WalletService) Spend(ctx context.Context, accountID string, amount int64, reason types.TxnReason, meta map[string]string) (*entity.CreditTransaction, error) {
	txn, err := s.store.Debit(ctx, accountID, amount, int32(reason), meta, nil, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientCredits
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     amount,
		"reason":     reason.String(),
	}).Info("credits spent")
	return txn, nil
}

// Adjust applies a manual correction. Positive amounts credit, negative
// amounts debit; a debit below the current balance is rejected like any
// other.
func (s *WalletService) Adjust(ctx context.Context, accountID string, amount int64, note string) (*entity.CreditTransaction, error) {
	if amount == 0 {
		return nil, ErrInvalidRequest
	}

	now := time.Now().UTC()
	meta := map[string]string{}
	if note != "" {
		meta["note"] = note
	}

	var txn *entity.CreditTransaction
	var err error
	if amount > 0 {
		txn, err = s.store.Credit(ctx, accountID, amount, int32(types.ReasonAdminAdjust), meta, nil, now)
	} else {
		txn, err = s.store.Debit(ctx, accountID, -amount, int32(types.ReasonAdminAdjust), meta, nil, now)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientCredits
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     amount,
	}).Info("credits adjusted")
	return txn, nil
}
