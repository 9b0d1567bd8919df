package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
	"github.com/venue-erp/venue-erp/internal/platform/db"
)

// Repository encapsulates DB operations for the ledger store.
type Repository interface {
	Get(ctx context.Context, id int64) (Booking, error)
	GetWithLines(ctx context.Context, id int64) (Booking, []Line, error)
	List(ctx context.Context, filter ListFilter) ([]Booking, error)
	FindLinesByOrigin(ctx context.Context, origin Origin) ([]Line, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the mutations available inside a transaction.
// Document services that post ledger entries inside their own
// transactions obtain one via NewTxWriter.
type TxRepository interface {
	InsertBooking(ctx context.Context, in CreateInput) (Booking, error)
	InsertLines(ctx context.Context, bookingID int64, lines []LineInput) error
	FindLinesByOrigin(ctx context.Context, origin Origin) ([]Line, error)
	DeleteLinesByOrigin(ctx context.Context, origin Origin) (int64, error)
	DeleteBooking(ctx context.Context, id int64) error
	DeleteBookingIfEmpty(ctx context.Context, id int64) (bool, error)
	UpdatePaymentProgress(ctx context.Context, id int64, paid float64) error
	GetWithLines(ctx context.Context, id int64) (Booking, []Line, error)
	FindBookingByOrigin(ctx context.Context, origin Origin) (Booking, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// NewTxWriter wraps an existing transaction so another domain can post
// and unwind ledger entries atomically with its own tables.
func NewTxWriter(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

const bookingColumns = `id, transaction_number, reference, source, booking_date, amount,
amount_paid, remaining_amount, payment_status, origin_kind, origin_id, created_at, updated_at`

const lineColumns = `id, booking_id, account_id, line_type, dr_amount, cr_amount,
line_date, description, origin_kind, origin_id, ref, created_at`

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.TransactionNumber, &b.Reference, &b.Source, &b.Date, &b.Amount,
		&b.AmountPaid, &b.RemainingAmount, &b.PaymentStatus, &b.Origin.Kind, &b.Origin.ID,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, shared.ErrBookingNotFound
		}
		return Booking{}, err
	}
	return b, nil
}

func scanLines(rows pgx.Rows) ([]Line, error) {
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.BookingID, &l.AccountID, &l.Type, &l.DrAmount, &l.CrAmount,
			&l.Date, &l.Description, &l.Origin.Kind, &l.Origin.ID, &l.Ref, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row)
}

func (r *repository) GetWithLines(ctx context.Context, id int64) (Booking, []Line, error) {
	b, err := r.Get(ctx, id)
	if err != nil {
		return Booking{}, nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+lineColumns+` FROM booking_lines WHERE booking_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Booking{}, nil, err
	}
	lines, err := scanLines(rows)
	if err != nil {
		return Booking{}, nil, err
	}
	return b, lines, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Booking, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
WHERE ($1 = '' OR source=$1) AND ($2 = '' OR payment_status=$2)
ORDER BY transaction_number DESC LIMIT $3`, filter.Source, string(filter.Status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.TransactionNumber, &b.Reference, &b.Source, &b.Date, &b.Amount,
			&b.AmountPaid, &b.RemainingAmount, &b.PaymentStatus, &b.Origin.Kind, &b.Origin.ID,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) FindLinesByOrigin(ctx context.Context, origin Origin) ([]Line, error) {
	rows, err := r.db.Query(ctx, `SELECT `+lineColumns+` FROM booking_lines
WHERE origin_kind=$1 AND origin_id=$2 ORDER BY id ASC`, origin.Kind, origin.ID)
	if err != nil {
		return nil, err
	}
	return scanLines(rows)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// InsertBooking writes the header; the transaction number comes from
// the bookings_txn_seq sequence so concurrent posts never collide.
func (r *txRepository) InsertBooking(ctx context.Context, in CreateInput) (Booking, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO bookings
(transaction_number, reference, source, booking_date, amount, amount_paid, remaining_amount, payment_status, origin_kind, origin_id)
VALUES (nextval('bookings_txn_seq'), $1, $2, $3, $4, 0, $4, 'pending', $5, $6)
RETURNING id, transaction_number, created_at, updated_at`,
		in.Reference, in.Source, in.Date, toNumeric(in.Amount), in.Origin.Kind, in.Origin.ID)
	b := Booking{
		Reference:       in.Reference,
		Source:          in.Source,
		Date:            in.Date,
		Amount:          in.Amount,
		RemainingAmount: in.Amount,
		PaymentStatus:   PaymentPending,
		Origin:          in.Origin,
	}
	if err := row.Scan(&b.ID, &b.TransactionNumber, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return Booking{}, err
	}
	return b, nil
}

func (r *txRepository) InsertLines(ctx context.Context, bookingID int64, lines []LineInput) error {
	for _, l := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO booking_lines
(booking_id, account_id, line_type, dr_amount, cr_amount, line_date, description, origin_kind, origin_id, ref)
VALUES ($1,$2,$3,$4,$5,NOW(),$6,$7,$8,$9)`,
			bookingID, l.AccountID, l.Type, toNumeric(l.DrAmount), toNumeric(l.CrAmount),
			l.Description, l.Origin.Kind, l.Origin.ID, l.Ref); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) FindLinesByOrigin(ctx context.Context, origin Origin) ([]Line, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+lineColumns+` FROM booking_lines
WHERE origin_kind=$1 AND origin_id=$2 ORDER BY id ASC`, origin.Kind, origin.ID)
	if err != nil {
		return nil, err
	}
	return scanLines(rows)
}

func (r *txRepository) DeleteLinesByOrigin(ctx context.Context, origin Origin) (int64, error) {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM booking_lines WHERE origin_kind=$1 AND origin_id=$2`,
		origin.Kind, origin.ID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *txRepository) DeleteBooking(ctx context.Context, id int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM booking_lines WHERE booking_id=$1`, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrBookingNotFound
	}
	return nil
}

// DeleteBookingIfEmpty removes a header whose lines are all gone.
func (r *txRepository) DeleteBookingIfEmpty(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM bookings b WHERE b.id=$1
AND NOT EXISTS (SELECT 1 FROM booking_lines l WHERE l.booking_id=b.id)`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *txRepository) UpdatePaymentProgress(ctx context.Context, id int64, paid float64) error {
	status := ""
	row := r.tx.QueryRow(ctx, `UPDATE bookings
SET amount_paid=$2, remaining_amount=amount-$2,
    payment_status=CASE WHEN $2 <= 0 THEN 'pending' WHEN $2 < amount THEN 'partial_paid' ELSE 'paid' END,
    updated_at=NOW()
WHERE id=$1 RETURNING payment_status`, id, toNumeric(paid))
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrBookingNotFound
		}
		return err
	}
	return nil
}

func (r *txRepository) GetWithLines(ctx context.Context, id int64) (Booking, []Line, error) {
	b, err := scanBooking(r.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return Booking{}, nil, err
	}
	rows, err := r.tx.Query(ctx, `SELECT `+lineColumns+` FROM booking_lines WHERE booking_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Booking{}, nil, err
	}
	lines, err := scanLines(rows)
	if err != nil {
		return Booking{}, nil, err
	}
	return b, lines, nil
}

func (r *txRepository) FindBookingByOrigin(ctx context.Context, origin Origin) (Booking, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings
WHERE origin_kind=$1 AND origin_id=$2`, origin.Kind, origin.ID)
	return scanBooking(row)
}

// toNumeric keeps two-decimal precision stable across the driver.
func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
