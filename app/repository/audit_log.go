package repository

import (
	"context"

	"github.com/soko-platform/ms-go-settlement/app/entity"
)

type AuditLogRepository struct {
	db DBTX
}

func NewAuditLogRepository(db DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (actor, action, intent_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		log.Actor,
		log.Action,
		nullableUint64Value(log.IntentID),
		log.Detail,
		log.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = uint64(id)
	return nil
}
