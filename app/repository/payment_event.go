package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/soko-platform/ms-go-settlement/app/entity"
)

type PaymentEventRepository struct {
	db DBTX
}

func NewPaymentEventRepository(db DBTX) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// InsertOnce records an inbound provider signal. It returns true when this
// is the first time the (provider, event_id) pair has been seen and false on
// a duplicate. The uniqueness lives in the database, so two concurrent
// deliveries of the same event cannot both observe "first".
func (r *PaymentEventRepository) InsertOnce(ctx context.Context, provider int32, eventID string, intentID uint64, payload []byte, now time.Time) (bool, error) {
	query := `
		INSERT INTO payment_events (provider, event_id, intent_id, payload_json, received_at)
		VALUES (?, ?, ?, ?, ?)
	`

	var payloadJSON *string
	if len(payload) > 0 {
		s := string(payload)
		payloadJSON = &s
	}

	_, err := r.db.ExecContext(ctx, query,
		provider,
		eventID,
		intentID,
		nullableStringValue(payloadJSON),
		now,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *PaymentEventRepository) ListByIntent(ctx context.Context, intentID uint64, limit int32) ([]*entity.PaymentEvent, error) {
	query := `
		SELECT id, provider, event_id, intent_id, payload_json, received_at
		FROM payment_events
		WHERE intent_id = ?
		ORDER BY id ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, intentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*entity.PaymentEvent, 0)
	for rows.Next() {
		var payloadJSON sql.NullString
		item := &entity.PaymentEvent{}
		if err := rows.Scan(&item.ID, &item.Provider, &item.EventID, &item.IntentID, &payloadJSON, &item.ReceivedAt); err != nil {
			return nil, err
		}
		item.PayloadJSON = stringPtrFromNull(payloadJSON)
		events = append(events, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
