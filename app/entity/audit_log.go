package entity

import "time"

type AuditLog struct {
	ID       uint64
	Actor    string
	Action   string
	IntentID *uint64
	Detail   string

	CreatedAt time.Time
}
