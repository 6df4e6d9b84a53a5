package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func nullableStringValue(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt32Value(v *int32) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64Value(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableUint64Value(v *uint64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTimeValue(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtrFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func int32PtrFromNull(v sql.NullInt32) *int32 {
	if !v.Valid {
		return nil
	}
	n := v.Int32
	return &n
}

func int64PtrFromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func uint64PtrFromNull(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	n := uint64(v.Int64)
	return &n
}

func timePtrFromNull(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func serializeMap(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func parseMap(raw string) (map[string]string, error) {
	if raw == "" {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func inPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := "?"
	for i := 1; i < n; i++ {
		out += ", ?"
	}
	return out
}
