package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/soko-platform/ms-go-settlement/app/entity"
)

var ErrInsufficientBalance = errors.New("insufficient wallet balance")

const (
	txnTypeCredit int32 = 1
	txnTypeDebit  int32 = 2
)

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) FindByAccount(ctx context.Context, accountID string) (*entity.CreditWallet, error) {
	return findWallet(ctx, r.db, accountID)
}

// Balance returns 0 for accounts that have no wallet yet.
func (r *WalletRepository) Balance(ctx context.Context, accountID string) (int64, error) {
	wallet, err := findWallet(ctx, r.db, accountID)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.Balance, nil
}

// Credit increments the wallet balance and appends the ledger row in one
// transaction. The wallet is created lazily on first credit.
func (r *WalletRepository) Credit(ctx context.Context, accountID string, amount int64, reason int32, meta map[string]string, sourceIntentID *uint64, now time.Time) (*entity.CreditTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	txn, err := applyCredit(ctx, tx, accountID, amount, reason, meta, sourceIntentID, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return txn, nil
}

// Debit decrements the balance with a conditional update (balance >= amount)
// and appends the ledger row in the same transaction. The affected-row count
// of the decrement is the authoritative success signal, so two concurrent
// debits can never drive the balance negative.
func (r *WalletRepository) Debit(ctx context.Context, accountID string, amount int64, reason int32, meta map[string]string, sourceIntentID *uint64, now time.Time) (*entity.CreditTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	txn, err := applyDebit(ctx, tx, accountID, amount, reason, meta, sourceIntentID, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *WalletRepository) ListTransactions(ctx context.Context, accountID string, limit, offset int32) ([]*entity.CreditTransaction, error) {
	query := `
		SELECT id, wallet_id, account_id, type, amount, reason, source_intent_id, meta_json, created_at
		FROM credit_transactions
		WHERE account_id = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]*entity.CreditTransaction, 0)
	for rows.Next() {
		var sourceIntentID sql.NullInt64
		var metaJSON string
		item := &entity.CreditTransaction{}
		if err := rows.Scan(&item.ID, &item.WalletID, &item.AccountID, &item.Type, &item.Amount, &item.Reason, &sourceIntentID, &metaJSON, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.SourceIntentID = uint64PtrFromNull(sourceIntentID)
		meta, err := parseMap(metaJSON)
		if err != nil {
			return nil, err
		}
		item.Meta = meta
		txns = append(txns, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}

func findWallet(ctx context.Context, q DBTX, accountID string) (*entity.CreditWallet, error) {
	query := `
		SELECT id, account_id, balance, created_at, updated_at
		FROM credit_wallets
		WHERE account_id = ?
	`

	wallet := &entity.CreditWallet{}
	err := q.QueryRowContext(ctx, query, accountID).Scan(
		&wallet.ID,
		&wallet.AccountID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func ensureWallet(ctx context.Context, q DBTX, accountID string, now time.Time) (*entity.CreditWallet, error) {
	wallet, err := findWallet(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	query := `
		INSERT INTO credit_wallets (account_id, balance, created_at, updated_at)
		VALUES (?, 0, ?, ?)
	`
	if _, err := q.ExecContext(ctx, query, accountID, now, now); err != nil {
		if isDuplicateEntryError(err) {
			return findWallet(ctx, q, accountID)
		}
		return nil, err
	}
	return findWallet(ctx, q, accountID)
}

// applyCredit and applyDebit run against a caller-owned transaction so the
// fulfillment repository can combine them with the fulfillment marker.

func applyCredit(ctx context.Context, tx DBTX, accountID string, amount int64, reason int32, meta map[string]string, sourceIntentID *uint64, now time.Time) (*entity.CreditTransaction, error) {
	wallet, err := ensureWallet(ctx, tx, accountID, now)
	if err != nil {
		return nil, err
	}

	query := `UPDATE credit_wallets SET balance = balance + ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, amount, now, wallet.ID); err != nil {
		return nil, err
	}

	return insertTransaction(ctx, tx, wallet, txnTypeCredit, amount, reason, meta, sourceIntentID, now)
}

func applyDebit(ctx context.Context, tx DBTX, accountID string, amount int64, reason int32, meta map[string]string, sourceIntentID *uint64, now time.Time) (*entity.CreditTransaction, error) {
	wallet, err := findWallet(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrInsufficientBalance
	}

	query := `
		UPDATE credit_wallets
		SET balance = balance - ?, updated_at = ?
		WHERE id = ? AND balance >= ?
	`
	result, err := tx.ExecContext(ctx, query, amount, now, wallet.ID, amount)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInsufficientBalance
	}

	return insertTransaction(ctx, tx, wallet, txnTypeDebit, amount, reason, meta, sourceIntentID, now)
}

func insertTransaction(ctx context.Context, tx DBTX, wallet *entity.CreditWallet, txnType int32, amount int64, reason int32, meta map[string]string, sourceIntentID *uint64, now time.Time) (*entity.CreditTransaction, error) {
	metaJSON, err := serializeMap(meta)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO credit_transactions (wallet_id, account_id, type, amount, reason, source_intent_id, meta_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		wallet.ID,
		wallet.AccountID,
		txnType,
		amount,
		reason,
		nullableUint64Value(sourceIntentID),
		metaJSON,
		now,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &entity.CreditTransaction{
		ID:             uint64(id),
		WalletID:       wallet.ID,
		AccountID:      wallet.AccountID,
		Type:           txnType,
		Amount:         amount,
		Reason:         reason,
		SourceIntentID: sourceIntentID,
		Meta:           meta,
		CreatedAt:      now,
	}, nil
}
