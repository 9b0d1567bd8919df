package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (Account, error)
	GetByCode(ctx context.Context, code string) (Account, error)
	List(ctx context.Context, filter ListFilter) ([]Account, error)
	Create(ctx context.Context, in CreateInput) (Account, error)
	UpdateName(ctx context.Context, id int64, name string) error
	GetHeader(ctx context.Context, id int64) (Header, error)
	CreateSubHeader(ctx context.Context, in CreateSubHeaderInput) (SubHeader, error)
}

// ListFilter narrows List results; zero values mean no restriction.
type ListFilter struct {
	Type     AccountType
	Currency string
}

// CreateInput carries the fields needed to register an account under a sub-header.
type CreateInput struct {
	Code        string
	Name        string
	Type        AccountType
	Currency    string
	SubHeaderID int64
}

// CreateSubHeaderInput carries the fields needed to register a sub-header under a header.
type CreateSubHeaderInput struct {
	Code     string
	Name     string
	HeaderID int64
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `a.id, a.code, a.name, a.account_type, a.currency,
sh.code, sh.name, h.code, h.name, a.created_at, a.updated_at`

const accountJoins = `FROM accounts a
JOIN account_subheaders sh ON a.subheader_id = sh.id
JOIN account_headers h ON sh.header_id = h.id`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Currency,
		&a.SubHeaderCode, &a.SubHeaderName, &a.HeaderCode, &a.HeaderName, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` `+accountJoins+` WHERE a.id=$1`, id)
	return scanAccount(row)
}

func (r *repository) GetByCode(ctx context.Context, code string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` `+accountJoins+` WHERE a.code=$1`, code)
	return scanAccount(row)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` ` + accountJoins + ` WHERE 1=1`
	args := []any{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND a.account_type=$1`
	}
	if filter.Currency != "" {
		args = append(args, filter.Currency)
		if len(args) == 1 {
			query += ` AND a.currency=$1`
		} else {
			query += ` AND a.currency=$2`
		}
	}
	query += ` ORDER BY a.code`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Currency,
			&a.SubHeaderCode, &a.SubHeaderName, &a.HeaderCode, &a.HeaderName, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, in CreateInput) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, account_type, currency, subheader_id)
VALUES ($1,$2,$3,$4,$5) RETURNING id`, in.Code, in.Name, in.Type, in.Currency, in.SubHeaderID)
	var id int64
	if err := row.Scan(&id); err != nil {
		return Account{}, err
	}
	return r.Get(ctx, id)
}

func (r *repository) GetHeader(ctx context.Context, id int64) (Header, error) {
	row := r.db.QueryRow(ctx, `SELECT id, code, name FROM account_headers WHERE id=$1`, id)
	var h Header
	if err := row.Scan(&h.ID, &h.Code, &h.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Header{}, shared.ErrAccountNotFound
		}
		return Header{}, err
	}
	return h, nil
}

func (r *repository) CreateSubHeader(ctx context.Context, in CreateSubHeaderInput) (SubHeader, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO account_subheaders (code, name, header_id)
VALUES ($1,$2,$3) RETURNING id`, in.Code, in.Name, in.HeaderID)
	var id int64
	if err := row.Scan(&id); err != nil {
		return SubHeader{}, err
	}
	row = r.db.QueryRow(ctx, `SELECT sh.id, sh.code, sh.name, sh.header_id, h.code, h.name, sh.created_at
FROM account_subheaders sh
JOIN account_headers h ON sh.header_id = h.id
WHERE sh.id=$1`, id)
	var sh SubHeader
	if err := row.Scan(&sh.ID, &sh.Code, &sh.Name, &sh.HeaderID, &sh.HeaderCode, &sh.HeaderName, &sh.CreatedAt); err != nil {
		return SubHeader{}, err
	}
	return sh, nil
}

// UpdateName changes descriptive fields only; codes stay immutable once referenced.
func (r *repository) UpdateName(ctx context.Context, id int64, name string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET name=$2, updated_at=NOW() WHERE id=$1`, id, name)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
