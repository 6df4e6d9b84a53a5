package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/soko-platform/ms-go-settlement/app/entity"
)

const subscriptionExpired int32 = 2

type SubscriptionRepository struct {
	db DBTX
}

func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// FindActiveByAccount returns the active subscription with the latest end,
// or nil when the account has none.
func (r *SubscriptionRepository) FindActiveByAccount(ctx context.Context, accountID string) (*entity.Subscription, error) {
	query := `
		SELECT id, account_id, status, starts_at, ends_at, source_intent_id, created_at, updated_at
		FROM subscriptions
		WHERE account_id = ? AND status = ?
		ORDER BY ends_at DESC
		LIMIT 1
	`

	var sourceIntentID sql.NullInt64
	item := &entity.Subscription{}
	err := r.db.QueryRowContext(ctx, query, accountID, subscriptionActive).Scan(
		&item.ID,
		&item.AccountID,
		&item.Status,
		&item.StartsAt,
		&item.EndsAt,
		&sourceIntentID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item.SourceIntentID = uint64PtrFromNull(sourceIntentID)
	return item, nil
}

// ExpireDue demotes every active subscription whose end has passed. A single
// conditional UPDATE, so overlapping job runs are harmless.
func (r *SubscriptionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE subscriptions
		SET status = ?, updated_at = ?
		WHERE status = ? AND ends_at <= ?
	`

	result, err := r.db.ExecContext(ctx, query, subscriptionExpired, now, subscriptionActive, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
