package halls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/platform/db"
)

// LedgerTx is the slice of the ledger store hall flows post through.
type LedgerTx interface {
	InsertBooking(ctx context.Context, in bookings.CreateInput) (bookings.Booking, error)
	InsertLines(ctx context.Context, bookingID int64, lines []bookings.LineInput) error
	FindLinesByOrigin(ctx context.Context, origin bookings.Origin) ([]bookings.Line, error)
	DeleteLinesByOrigin(ctx context.Context, origin bookings.Origin) (int64, error)
	DeleteBookingIfEmpty(ctx context.Context, id int64) (bool, error)
}

// Repository encapsulates hall booking persistence.
type Repository interface {
	GetBooking(ctx context.Context, id int64) (HallBooking, error)
	ListBookings(ctx context.Context, status Status, limit int) ([]HallBooking, error)
	GetPayment(ctx context.Context, id int64) (Payment, error)
	ListPayments(ctx context.Context, bookingID int64) ([]Payment, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes hall mutations plus the ledger slice in one
// transaction.
type TxRepository interface {
	LedgerTx
	InsertHallBooking(ctx context.Context, in CreateBookingInput, ref uuid.UUID, total float64) (HallBooking, error)
	GetBookingForUpdate(ctx context.Context, id int64) (HallBooking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status Status) error
	UpdateBookingPaid(ctx context.Context, id int64, paid float64) error
	UpdateBookingGuests(ctx context.Context, id int64, guests int, total float64) error
	InsertPayment(ctx context.Context, bookingID int64, ref uuid.UUID, date time.Time, accountID int64, amount float64) (Payment, error)
	GetPaymentForUpdate(ctx context.Context, id int64) (Payment, error)
	UpdatePaymentAmount(ctx context.Context, id int64, amount float64) error
	UpdatePaymentStatus(ctx context.Context, id int64, status Status) error
}

// CreateBookingInput opens a draft hall booking.
type CreateBookingInput struct {
	HallID              int64
	CustomerID          int64
	Currency            string
	EventDate           time.Time
	Guests              int
	Rate                float64
	ReceivableAccountID int64
	IncomeAccountID     int64
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const hallColumns = `id, ref, hall_id, customer_id, currency, event_date, guests, rate,
total, paid, status, receivable_account_id, income_account_id, created_at, updated_at`

func scanHallBooking(row pgx.Row) (HallBooking, error) {
	var b HallBooking
	err := row.Scan(&b.ID, &b.Ref, &b.HallID, &b.CustomerID, &b.Currency, &b.EventDate, &b.Guests, &b.Rate,
		&b.Total, &b.Paid, &b.Status, &b.ReceivableAccountID, &b.IncomeAccountID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return HallBooking{}, ErrBookingNotFound
		}
		return HallBooking{}, err
	}
	return b, nil
}

const paymentColumns = `id, booking_id, ref, payment_date, account_id, amount, status, created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.Ref, &p.Date, &p.AccountID, &p.Amount, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) GetBooking(ctx context.Context, id int64) (HallBooking, error) {
	return scanHallBooking(r.db.QueryRow(ctx, `SELECT `+hallColumns+` FROM hall_bookings WHERE id=$1`, id))
}

func (r *repository) ListBookings(ctx context.Context, status Status, limit int) ([]HallBooking, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT `+hallColumns+` FROM hall_bookings
WHERE ($1 = '' OR status=$1) ORDER BY event_date ASC, id ASC LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HallBooking
	for rows.Next() {
		var b HallBooking
		if err := rows.Scan(&b.ID, &b.Ref, &b.HallID, &b.CustomerID, &b.Currency, &b.EventDate, &b.Guests, &b.Rate,
			&b.Total, &b.Paid, &b.Status, &b.ReceivableAccountID, &b.IncomeAccountID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM hall_payments WHERE id=$1`, id))
}

func (r *repository) ListPayments(ctx context.Context, bookingID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM hall_payments
WHERE booking_id=$1 ORDER BY id ASC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Ref, &p.Date, &p.AccountID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, LedgerTx: bookings.NewTxWriter(tx)})
	})
}

type txRepository struct {
	LedgerTx
	tx pgx.Tx
}

func (r *txRepository) InsertHallBooking(ctx context.Context, in CreateBookingInput, ref uuid.UUID, total float64) (HallBooking, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO hall_bookings
(ref, hall_id, customer_id, currency, event_date, guests, rate, total, paid, status, receivable_account_id, income_account_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,'draft',$9,$10)
RETURNING id, created_at, updated_at`,
		ref, in.HallID, in.CustomerID, in.Currency, in.EventDate, in.Guests, toNumeric(in.Rate),
		toNumeric(total), in.ReceivableAccountID, in.IncomeAccountID)
	b := HallBooking{
		Ref:                 ref,
		HallID:              in.HallID,
		CustomerID:          in.CustomerID,
		Currency:            in.Currency,
		EventDate:           in.EventDate,
		Guests:              in.Guests,
		Rate:                in.Rate,
		Total:               total,
		Status:              StatusDraft,
		ReceivableAccountID: in.ReceivableAccountID,
		IncomeAccountID:     in.IncomeAccountID,
	}
	if err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return HallBooking{}, err
	}
	return b, nil
}

func (r *txRepository) GetBookingForUpdate(ctx context.Context, id int64) (HallBooking, error) {
	return scanHallBooking(r.tx.QueryRow(ctx, `SELECT `+hallColumns+` FROM hall_bookings WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateBookingStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE hall_bookings SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *txRepository) UpdateBookingPaid(ctx context.Context, id int64, paid float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE hall_bookings SET paid=$2, updated_at=NOW() WHERE id=$1`, id, toNumeric(paid))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *txRepository) UpdateBookingGuests(ctx context.Context, id int64, guests int, total float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE hall_bookings SET guests=$2, total=$3, updated_at=NOW() WHERE id=$1`,
		id, guests, toNumeric(total))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *txRepository) InsertPayment(ctx context.Context, bookingID int64, ref uuid.UUID, date time.Time, accountID int64, amount float64) (Payment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO hall_payments (booking_id, ref, payment_date, account_id, amount, status)
VALUES ($1,$2,$3,$4,$5,'confirmed') RETURNING id, created_at`,
		bookingID, ref, date, accountID, toNumeric(amount))
	p := Payment{BookingID: bookingID, Ref: ref, Date: date, AccountID: accountID, Amount: amount, Status: StatusConfirmed}
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *txRepository) GetPaymentForUpdate(ctx context.Context, id int64) (Payment, error) {
	return scanPayment(r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM hall_payments WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdatePaymentAmount(ctx context.Context, id int64, amount float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE hall_payments SET amount=$2 WHERE id=$1`, id, toNumeric(amount))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *txRepository) UpdatePaymentStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE hall_payments SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
