package repository

import (
	"context"
	"database/sql"

	"github.com/soko-platform/ms-go-settlement/app/entity"
)

type CatalogRepository struct {
	db DBTX
}

func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FindCreditPack(ctx context.Context, code, country string) (*entity.CreditPack, error) {
	query := `
		SELECT id, code, country, credits, price_minor, currency
		FROM credit_packs
		WHERE code = ? AND country = ?
		LIMIT 1
	`

	item := &entity.CreditPack{}
	err := r.db.QueryRowContext(ctx, query, code, country).Scan(
		&item.ID, &item.Code, &item.Country, &item.Credits, &item.PriceMinor, &item.Currency,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *CatalogRepository) FindProOffer(ctx context.Context, code, country string) (*entity.ProOffer, error) {
	query := `
		SELECT id, code, country, duration_days, price_minor, currency
		FROM pro_offers
		WHERE code = ? AND country = ?
		LIMIT 1
	`

	item := &entity.ProOffer{}
	err := r.db.QueryRowContext(ctx, query, code, country).Scan(
		&item.ID, &item.Code, &item.Country, &item.DurationDays, &item.PriceMinor, &item.Currency,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *CatalogRepository) FindBoostOffer(ctx context.Context, code, country string) (*entity.BoostOffer, error) {
	query := `
		SELECT id, code, country, boost_rank, duration_days, price_minor, currency
		FROM boost_offers
		WHERE code = ? AND country = ?
		LIMIT 1
	`

	item := &entity.BoostOffer{}
	err := r.db.QueryRowContext(ctx, query, code, country).Scan(
		&item.ID, &item.Code, &item.Country, &item.Rank, &item.DurationDays, &item.PriceMinor, &item.Currency,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}
