package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/soko-platform/ms-go-settlement/app/entity"
)

var (
	ErrIntentNotFound      = errors.New("payment intent not found")
	ErrIntentAlreadyExists = errors.New("payment intent already exists")
)

type IntentFilter struct {
	AccountID string
	HasStatus bool
	Status    int32
	Provider  int32
	Since     *time.Time
	Limit     int32
	Offset    int32
}

type RevenueRow struct {
	Currency    string
	ProductType int32
	TotalMinor  int64
	Count       int64
}

const intentColumns = `id, account_id, provider, product_type, product_ref_id,
		amount_minor, currency, country, status,
		provider_ref, checkout_url, instructions, idempotency_key,
		fulfill_credits, fulfill_duration_days, fulfill_boost_rank,
		provider_data_json, fulfilled_at, created_at, updated_at`

type PaymentIntentRepository struct {
	db DBTX
}

func NewPaymentIntentRepository(db DBTX) *PaymentIntentRepository {
	return &PaymentIntentRepository{db: db}
}

func (r *PaymentIntentRepository) Create(ctx context.Context, intent *entity.PaymentIntent) error {
	dataJSON, err := serializeMap(intent.ProviderData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payment_intents (
			account_id, provider, product_type, product_ref_id,
			amount_minor, currency, country, status,
			provider_ref, checkout_url, instructions, idempotency_key,
			fulfill_credits, fulfill_duration_days, fulfill_boost_rank,
			provider_data_json, fulfilled_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		intent.AccountID,
		intent.Provider,
		intent.ProductType,
		intent.ProductRefID,
		intent.AmountMinor,
		intent.Currency,
		intent.Country,
		intent.Status,
		nullableStringValue(intent.ProviderRef),
		nullableStringValue(intent.CheckoutURL),
		nullableStringValue(intent.Instructions),
		nullableStringValue(intent.IdempotencyKey),
		nullableInt64Value(intent.FulfillCredits),
		nullableInt32Value(intent.FulfillDurationDays),
		nullableInt32Value(intent.FulfillBoostRank),
		dataJSON,
		nullableTimeValue(intent.FulfilledAt),
		intent.CreatedAt,
		intent.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrIntentAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	intent.ID = uint64(id)
	return nil
}

// UpdateProviderResult stores the adapter's initiate output on the intent.
func (r *PaymentIntentRepository) UpdateProviderResult(ctx context.Context, intent *entity.PaymentIntent) error {
	dataJSON, err := serializeMap(intent.ProviderData)
	if err != nil {
		return err
	}

	query := `
		UPDATE payment_intents SET
			status = ?,
			provider_ref = ?,
			checkout_url = ?,
			instructions = ?,
			provider_data_json = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		intent.Status,
		nullableStringValue(intent.ProviderRef),
		nullableStringValue(intent.CheckoutURL),
		nullableStringValue(intent.Instructions),
		dataJSON,
		intent.UpdatedAt,
		intent.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrIntentNotFound
	}
	return nil
}

// UpdateStatusFrom performs the transition id: from -> to as one conditional
// UPDATE. It returns false when the intent was not in any of the "from"
// statuses, which makes every terminal transition idempotent and keeps
// concurrent signals race-safe at the storage layer.
func (r *PaymentIntentRepository) UpdateStatusFrom(ctx context.Context, id uint64, from []int32, to int32, now time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}

	query := `
		UPDATE payment_intents
		SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (` + inPlaceholders(len(from)) + `)
	`

	args := make([]interface{}, 0, len(from)+3)
	args = append(args, to, now, id)
	for _, s := range from {
		args = append(args, s)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PaymentIntentRepository) FindByID(ctx context.Context, id uint64) (*entity.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE id = ?`

	intent := &entity.PaymentIntent{}
	if err := scanIntent(r.db.QueryRowContext(ctx, query, id), intent); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *PaymentIntentRepository) FindByIdempotencyKey(ctx context.Context, accountID, key string) (*entity.PaymentIntent, error) {
	query := `
		SELECT ` + intentColumns + `
		FROM payment_intents
		WHERE account_id = ? AND idempotency_key = ?
		LIMIT 1
	`

	intent := &entity.PaymentIntent{}
	if err := scanIntent(r.db.QueryRowContext(ctx, query, accountID, key), intent); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *PaymentIntentRepository) FindByProviderRef(ctx context.Context, provider int32, ref string) (*entity.PaymentIntent, error) {
	query := `
		SELECT ` + intentColumns + `
		FROM payment_intents
		WHERE provider = ? AND provider_ref = ?
		LIMIT 1
	`

	intent := &entity.PaymentIntent{}
	if err := scanIntent(r.db.QueryRowContext(ctx, query, provider, ref), intent); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *PaymentIntentRepository) List(ctx context.Context, filter IntentFilter) ([]*entity.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents`

	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)

	if strings.TrimSpace(filter.AccountID) != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.HasStatus {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Provider > 0 {
		conditions = append(conditions, "provider = ?")
		args = append(args, filter.Provider)
	}
	if filter.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.Since)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	return r.queryIntents(ctx, query, args...)
}

// ListUnsettledBefore returns INITIATED/PENDING intents created at or before
// the cutoff. Used by both the expire job and the stuck-intents report.
func (r *PaymentIntentRepository) ListUnsettledBefore(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.PaymentIntent, error) {
	query := `
		SELECT ` + intentColumns + `
		FROM payment_intents
		WHERE status IN (?, ?)
		  AND created_at <= ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	return r.queryIntents(ctx, query, statusInitiated, statusPending, cutoff, limit)
}

// ListForVerify returns PENDING intents with a provider reference whose age
// is inside the (grace, ceiling) window.
func (r *PaymentIntentRepository) ListForVerify(ctx context.Context, oldest, newest time.Time, limit int32) ([]*entity.PaymentIntent, error) {
	query := `
		SELECT ` + intentColumns + `
		FROM payment_intents
		WHERE status = ?
		  AND provider_ref IS NOT NULL
		  AND created_at >= ?
		  AND created_at <= ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	return r.queryIntents(ctx, query, statusPending, oldest, newest, limit)
}

func (r *PaymentIntentRepository) Revenue(ctx context.Context, since time.Time) ([]*RevenueRow, error) {
	query := `
		SELECT currency, product_type, COALESCE(SUM(amount_minor), 0), COUNT(*)
		FROM payment_intents
		WHERE status IN (?, ?)
		  AND created_at >= ?
		GROUP BY currency, product_type
		ORDER BY currency, product_type
	`

	rows, err := r.db.QueryContext(ctx, query, statusSuccess, statusRefunded, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*RevenueRow, 0)
	for rows.Next() {
		row := &RevenueRow{}
		if err := rows.Scan(&row.Currency, &row.ProductType, &row.TotalMinor, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Mirrors types.IntentStatus; duplicated here so queries do not reach into
// the types package for literals.
const (
	statusInitiated int32 = 1
	statusPending   int32 = 2
	statusSuccess   int32 = 10
	statusRefunded  int32 = 30
)

func (r *PaymentIntentRepository) queryIntents(ctx context.Context, query string, args ...interface{}) ([]*entity.PaymentIntent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	intents := make([]*entity.PaymentIntent, 0)
	for rows.Next() {
		item := &entity.PaymentIntent{}
		if err := scanIntent(rows, item); err != nil {
			return nil, err
		}
		intents = append(intents, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return intents, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIntent(scan rowScanner, intent *entity.PaymentIntent) error {
	var providerRef sql.NullString
	var checkoutURL sql.NullString
	var instructions sql.NullString
	var idempotencyKey sql.NullString
	var fulfillCredits sql.NullInt64
	var fulfillDurationDays sql.NullInt32
	var fulfillBoostRank sql.NullInt32
	var dataJSON string
	var fulfilledAt sql.NullTime

	err := scan.Scan(
		&intent.ID,
		&intent.AccountID,
		&intent.Provider,
		&intent.ProductType,
		&intent.ProductRefID,
		&intent.AmountMinor,
		&intent.Currency,
		&intent.Country,
		&intent.Status,
		&providerRef,
		&checkoutURL,
		&instructions,
		&idempotencyKey,
		&fulfillCredits,
		&fulfillDurationDays,
		&fulfillBoostRank,
		&dataJSON,
		&fulfilledAt,
		&intent.CreatedAt,
		&intent.UpdatedAt,
	)
	if err != nil {
		return err
	}

	intent.ProviderRef = stringPtrFromNull(providerRef)
	intent.CheckoutURL = stringPtrFromNull(checkoutURL)
	intent.Instructions = stringPtrFromNull(instructions)
	intent.IdempotencyKey = stringPtrFromNull(idempotencyKey)
	intent.FulfillCredits = int64PtrFromNull(fulfillCredits)
	intent.FulfillDurationDays = int32PtrFromNull(fulfillDurationDays)
	intent.FulfillBoostRank = int32PtrFromNull(fulfillBoostRank)
	intent.FulfilledAt = timePtrFromNull(fulfilledAt)

	data, err := parseMap(dataJSON)
	if err != nil {
		return err
	}
	intent.ProviderData = data

	return nil
}
