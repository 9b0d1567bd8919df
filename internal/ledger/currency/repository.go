package currency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

type Repository interface {
	RateOn(ctx context.Context, currency string, date time.Time) (Rate, error)
	Upsert(ctx context.Context, currency string, date time.Time, rate float64) (Rate, error)
	List(ctx context.Context, currency string, limit int) ([]Rate, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// RateOn fetches the rate published for exactly the given calendar day.
func (r *repository) RateOn(ctx context.Context, currency string, date time.Time) (Rate, error) {
	row := r.db.QueryRow(ctx, `SELECT id, currency, rate_date, rate, created_at
FROM exchange_rates WHERE currency=$1 AND rate_date=$2::date`, currency, date)
	var out Rate
	if err := row.Scan(&out.ID, &out.Currency, &out.RateDate, &out.Rate, &out.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rate{}, shared.ErrRateNotFound
		}
		return Rate{}, err
	}
	return out, nil
}

func (r *repository) Upsert(ctx context.Context, currency string, date time.Time, rate float64) (Rate, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO exchange_rates (currency, rate_date, rate)
VALUES ($1, $2::date, $3)
ON CONFLICT (currency, rate_date) DO UPDATE SET rate=EXCLUDED.rate
RETURNING id, currency, rate_date, rate, created_at`, currency, date, rate)
	var out Rate
	if err := row.Scan(&out.ID, &out.Currency, &out.RateDate, &out.Rate, &out.CreatedAt); err != nil {
		return Rate{}, err
	}
	return out, nil
}

func (r *repository) List(ctx context.Context, currency string, limit int) ([]Rate, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT id, currency, rate_date, rate, created_at
FROM exchange_rates WHERE ($1 = '' OR currency=$1)
ORDER BY rate_date DESC, currency LIMIT $2`, currency, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rate
	for rows.Next() {
		var rt Rate
		if err := rows.Scan(&rt.ID, &rt.Currency, &rt.RateDate, &rt.Rate, &rt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
