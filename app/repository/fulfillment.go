package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/soko-platform/ms-go-settlement/app/entity"
)

const (
	subscriptionActive int32 = 1
	reasonPackPurchase int32 = 1
)

// FulfillmentRepository applies the product effect of a successful intent.
// Each method sets the fulfillment marker and applies the effect inside one
// transaction; a crash between the two is impossible. The conditional marker
// update is the at-most-once guard: when it affects zero rows the intent was
// already fulfilled (or not SUCCESS) and the method returns false.
type FulfillmentRepository struct {
	db *sql.DB
}

func NewFulfillmentRepository(db *sql.DB) *FulfillmentRepository {
	return &FulfillmentRepository{db: db}
}

func (r *FulfillmentRepository) FulfillCreditPack(ctx context.Context, intent *entity.PaymentIntent, credits int64, now time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	claimed, err := claimFulfillment(ctx, tx, intent.ID, now)
	if err != nil || !claimed {
		return false, err
	}

	intentID := intent.ID
	meta := map[string]string{"pack": intent.ProductRefID}
	if _, err := applyCredit(ctx, tx, intent.AccountID, credits, reasonPackPurchase, meta, &intentID, now); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *FulfillmentRepository) FulfillSubscription(ctx context.Context, intent *entity.PaymentIntent, days int32, now time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	claimed, err := claimFulfillment(ctx, tx, intent.ID, now)
	if err != nil || !claimed {
		return false, err
	}

	var currentEnd *time.Time
	var endsAt time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT ends_at FROM subscriptions
		WHERE account_id = ? AND status = ?
		ORDER BY ends_at DESC
		LIMIT 1
	`, intent.AccountID, subscriptionActive).Scan(&endsAt)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	if err == nil {
		currentEnd = &endsAt
	}

	startsAt := ExtensionStart(now, currentEnd)
	intentID := intent.ID
	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscriptions (account_id, status, starts_at, ends_at, source_intent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		intent.AccountID,
		subscriptionActive,
		startsAt,
		startsAt.AddDate(0, 0, int(days)),
		intentID,
		now,
		now,
	)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *FulfillmentRepository) FulfillBoost(ctx context.Context, intent *entity.PaymentIntent, listingID string, rank int32, days int32, now time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	claimed, err := claimFulfillment(ctx, tx, intent.ID, now)
	if err != nil || !claimed {
		return false, err
	}

	intentID := intent.ID
	_, err = tx.ExecContext(ctx, `
		INSERT INTO boosts (account_id, listing_id, boost_rank, starts_at, ends_at, source_intent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		intent.AccountID,
		listingID,
		rank,
		now,
		now.AddDate(0, 0, int(days)),
		intentID,
		now,
	)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func claimFulfillment(ctx context.Context, tx DBTX, intentID uint64, now time.Time) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE payment_intents
		SET fulfilled_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND fulfilled_at IS NULL
	`, now, now, intentID, statusSuccess)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ExtensionStart is where a new subscription period begins: the current
// active period's end when one exists in the future, otherwise now.
func ExtensionStart(now time.Time, currentEnd *time.Time) time.Time {
	if currentEnd != nil && currentEnd.After(now) {
		return *currentEnd
	}
	return now
}
