package balances

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// Repository aggregates booking-line activity per account.
type Repository interface {
	ActivityAsOf(ctx context.Context, asOf time.Time, currency string) ([]AccountActivity, error)
	ActivityBetween(ctx context.Context, from, to time.Time) ([]AccountActivity, error)
	AccountActivityAsOf(ctx context.Context, accountID int64, asOf time.Time) (AccountActivity, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const activitySelect = `SELECT a.id, a.code, a.name, a.currency,
h.code, h.name, sh.code, sh.name,
COALESCE(SUM(l.dr_amount), 0), COALESCE(SUM(l.cr_amount), 0)
FROM accounts a
JOIN account_subheaders sh ON a.subheader_id = sh.id
JOIN account_headers h ON sh.header_id = h.id
LEFT JOIN booking_lines l ON l.account_id = a.id`

const activityGroup = `GROUP BY a.id, a.code, a.name, a.currency, h.code, h.name, sh.code, sh.name
ORDER BY a.code`

func (r *repository) ActivityAsOf(ctx context.Context, asOf time.Time, currency string) ([]AccountActivity, error) {
	rows, err := r.db.Query(ctx, activitySelect+` AND l.line_date <= $1
WHERE ($2 = '' OR a.currency = $2) `+activityGroup, asOf, currency)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountActivity
	for rows.Next() {
		var a AccountActivity
		if err := rows.Scan(&a.AccountID, &a.Code, &a.Name, &a.Currency,
			&a.HeaderCode, &a.HeaderName, &a.SubHeaderCode, &a.SubHeaderName,
			&a.Debit, &a.Credit); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) ActivityBetween(ctx context.Context, from, to time.Time) ([]AccountActivity, error) {
	rows, err := r.db.Query(ctx, activitySelect+` AND l.line_date >= $1 AND l.line_date <= $2
`+activityGroup, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountActivity
	for rows.Next() {
		var a AccountActivity
		if err := rows.Scan(&a.AccountID, &a.Code, &a.Name, &a.Currency,
			&a.HeaderCode, &a.HeaderName, &a.SubHeaderCode, &a.SubHeaderName,
			&a.Debit, &a.Credit); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) AccountActivityAsOf(ctx context.Context, accountID int64, asOf time.Time) (AccountActivity, error) {
	row := r.db.QueryRow(ctx, activitySelect+` AND l.line_date <= $1
WHERE a.id = $2 `+activityGroup, asOf, accountID)
	var a AccountActivity
	if err := row.Scan(&a.AccountID, &a.Code, &a.Name, &a.Currency,
		&a.HeaderCode, &a.HeaderName, &a.SubHeaderCode, &a.SubHeaderName,
		&a.Debit, &a.Credit); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountActivity{}, shared.ErrAccountNotFound
		}
		return AccountActivity{}, err
	}
	return a, nil
}
