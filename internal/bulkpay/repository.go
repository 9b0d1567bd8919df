package bulkpay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venue-erp/venue-erp/internal/ledger/allocation"
	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/platform/db"
)

// LedgerTx is the slice of the ledger store bulk payments post through.
type LedgerTx interface {
	InsertBooking(ctx context.Context, in bookings.CreateInput) (bookings.Booking, error)
	InsertLines(ctx context.Context, bookingID int64, lines []bookings.LineInput) error
	FindLinesByOrigin(ctx context.Context, origin bookings.Origin) ([]bookings.Line, error)
	DeleteLinesByOrigin(ctx context.Context, origin bookings.Origin) (int64, error)
	DeleteBookingIfEmpty(ctx context.Context, id int64) (bool, error)
}

// Repository encapsulates bulk payment persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (BulkPayment, error)
	List(ctx context.Context, kind PayerKind, limit int) ([]BulkPayment, error)
	ListVendorTransactions(ctx context.Context, vendorID int64) ([]VendorTransaction, error)
	ListSalaryAdvances(ctx context.Context, employeeID int64) ([]SalaryAdvance, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes bulk payment mutations plus the ledger slice.
type TxRepository interface {
	LedgerTx
	InsertBulk(ctx context.Context, in CreateInput, ref uuid.UUID, pool float64) (BulkPayment, error)
	GetBulkForUpdate(ctx context.Context, id int64) (BulkPayment, error)
	UpdateBulkStatus(ctx context.Context, id int64, status Status) error
	ReplaceMethods(ctx context.Context, bulkID int64, methods []allocation.Method, pool float64) error
	InsertAllocations(ctx context.Context, bulkID int64, allocs []allocation.Allocation) error
	DeleteAllocations(ctx context.Context, bulkID int64) error
	// OpenObligationsForUpdate loads the payer's unsettled obligations
	// oldest first, row-locked for the duration of the allocation.
	OpenObligationsForUpdate(ctx context.Context, kind PayerKind, payerID int64) ([]allocation.Obligation, error)
	// AddObligationPaid moves an obligation's paid total by delta,
	// which may be negative during an unwind.
	AddObligationPaid(ctx context.Context, origin bookings.Origin, delta float64) error
	InsertVendorTransaction(ctx context.Context, v VendorTransaction) (VendorTransaction, error)
	InsertSalaryAdvance(ctx context.Context, a SalaryAdvance) (SalaryAdvance, error)
}

// CreateInput opens a draft bulk payment.
type CreateInput struct {
	PayerKind        PayerKind
	PayerID          int64
	Date             time.Time
	ControlAccountID int64
	Methods          []allocation.Method
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const bulkColumns = `id, ref, payer_kind, payer_id, payment_date, pool, control_account_id, status, created_at, updated_at`

func scanBulk(row pgx.Row) (BulkPayment, error) {
	var b BulkPayment
	err := row.Scan(&b.ID, &b.Ref, &b.PayerKind, &b.PayerID, &b.Date, &b.Pool,
		&b.ControlAccountID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BulkPayment{}, ErrNotFound
		}
		return BulkPayment{}, err
	}
	return b, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func bulkDetails(ctx context.Context, q queryer, b *BulkPayment) error {
	rows, err := q.Query(ctx, `SELECT account_id, amount FROM bulk_payment_methods WHERE bulk_id=$1 ORDER BY id ASC`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m allocation.Method
		if err := rows.Scan(&m.AccountID, &m.Amount); err != nil {
			return err
		}
		b.Methods = append(b.Methods, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	allocRows, err := q.Query(ctx, `SELECT id, bulk_id, obligation_kind, obligation_id, amount
FROM bulk_payment_allocations WHERE bulk_id=$1 ORDER BY id ASC`, b.ID)
	if err != nil {
		return err
	}
	defer allocRows.Close()
	for allocRows.Next() {
		var a AllocationLine
		if err := allocRows.Scan(&a.ID, &a.BulkID, &a.ObligationKind, &a.ObligationID, &a.Amount); err != nil {
			return err
		}
		b.Allocations = append(b.Allocations, a)
	}
	return allocRows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (BulkPayment, error) {
	b, err := scanBulk(r.db.QueryRow(ctx, `SELECT `+bulkColumns+` FROM bulk_payments WHERE id=$1`, id))
	if err != nil {
		return BulkPayment{}, err
	}
	if err := bulkDetails(ctx, r.db, &b); err != nil {
		return BulkPayment{}, err
	}
	return b, nil
}

func (r *repository) List(ctx context.Context, kind PayerKind, limit int) ([]BulkPayment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT `+bulkColumns+` FROM bulk_payments
WHERE ($1 = '' OR payer_kind=$1) ORDER BY id DESC LIMIT $2`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BulkPayment
	for rows.Next() {
		var b BulkPayment
		if err := rows.Scan(&b.ID, &b.Ref, &b.PayerKind, &b.PayerID, &b.Date, &b.Pool,
			&b.ControlAccountID, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) ListVendorTransactions(ctx context.Context, vendorID int64) ([]VendorTransaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, vendor_id, reference, tx_date, total, paid, payable_account_id, created_at
FROM vendor_transactions WHERE vendor_id=$1 ORDER BY tx_date ASC, id ASC`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VendorTransaction
	for rows.Next() {
		var v VendorTransaction
		if err := rows.Scan(&v.ID, &v.VendorID, &v.Reference, &v.Date, &v.Total, &v.Paid, &v.PayableAccountID, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) ListSalaryAdvances(ctx context.Context, employeeID int64) ([]SalaryAdvance, error) {
	rows, err := r.db.Query(ctx, `SELECT id, employee_id, advance_date, total, paid, receivable_account_id, created_at
FROM salary_advances WHERE employee_id=$1 ORDER BY advance_date ASC, id ASC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalaryAdvance
	for rows.Next() {
		var a SalaryAdvance
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Date, &a.Total, &a.Paid, &a.ReceivableAccountID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
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

func (r *txRepository) InsertBulk(ctx context.Context, in CreateInput, ref uuid.UUID, pool float64) (BulkPayment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO bulk_payments
(ref, payer_kind, payer_id, payment_date, pool, control_account_id, status)
VALUES ($1,$2,$3,$4,$5,$6,'draft') RETURNING id, created_at, updated_at`,
		ref, in.PayerKind, in.PayerID, in.Date, toNumeric(pool), in.ControlAccountID)
	b := BulkPayment{
		Ref:              ref,
		PayerKind:        in.PayerKind,
		PayerID:          in.PayerID,
		Date:             in.Date,
		Pool:             pool,
		ControlAccountID: in.ControlAccountID,
		Status:           StatusDraft,
		Methods:          in.Methods,
	}
	if err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return BulkPayment{}, err
	}
	for _, m := range in.Methods {
		if _, err := r.tx.Exec(ctx, `INSERT INTO bulk_payment_methods (bulk_id, account_id, amount)
VALUES ($1,$2,$3)`, b.ID, m.AccountID, toNumeric(m.Amount)); err != nil {
			return BulkPayment{}, err
		}
	}
	return b, nil
}

func (r *txRepository) GetBulkForUpdate(ctx context.Context, id int64) (BulkPayment, error) {
	b, err := scanBulk(r.tx.QueryRow(ctx, `SELECT `+bulkColumns+` FROM bulk_payments WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return BulkPayment{}, err
	}
	if err := bulkDetails(ctx, r.tx, &b); err != nil {
		return BulkPayment{}, err
	}
	return b, nil
}

func (r *txRepository) UpdateBulkStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bulk_payments SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) ReplaceMethods(ctx context.Context, bulkID int64, methods []allocation.Method, pool float64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM bulk_payment_methods WHERE bulk_id=$1`, bulkID); err != nil {
		return err
	}
	for _, m := range methods {
		if _, err := r.tx.Exec(ctx, `INSERT INTO bulk_payment_methods (bulk_id, account_id, amount)
VALUES ($1,$2,$3)`, bulkID, m.AccountID, toNumeric(m.Amount)); err != nil {
			return err
		}
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE bulk_payments SET pool=$2, updated_at=NOW() WHERE id=$1`, bulkID, toNumeric(pool))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertAllocations(ctx context.Context, bulkID int64, allocs []allocation.Allocation) error {
	for _, a := range allocs {
		if _, err := r.tx.Exec(ctx, `INSERT INTO bulk_payment_allocations (bulk_id, obligation_kind, obligation_id, amount)
VALUES ($1,$2,$3,$4)`, bulkID, a.Obligation.Kind, a.Obligation.ID, toNumeric(a.PaidNow)); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteAllocations(ctx context.Context, bulkID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM bulk_payment_allocations WHERE bulk_id=$1`, bulkID)
	return err
}

func (r *txRepository) OpenObligationsForUpdate(ctx context.Context, kind PayerKind, payerID int64) ([]allocation.Obligation, error) {
	var query string
	switch kind {
	case PayerWaiter:
		query = `SELECT id, total, paid FROM sale_orders
WHERE waiter_id=$1 AND status='confirmed' AND paid < total
ORDER BY order_date ASC, id ASC FOR UPDATE`
	case PayerVendor:
		query = `SELECT id, total, paid FROM vendor_transactions
WHERE vendor_id=$1 AND paid < total
ORDER BY tx_date ASC, id ASC FOR UPDATE`
	case PayerEmployee:
		query = `SELECT id, total, paid FROM salary_advances
WHERE employee_id=$1 AND paid < total
ORDER BY advance_date ASC, id ASC FOR UPDATE`
	default:
		return nil, fmt.Errorf("bulkpay: unknown payer kind %q", kind)
	}
	rows, err := r.tx.Query(ctx, query, payerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []allocation.Obligation
	for rows.Next() {
		o := allocation.Obligation{Kind: kind.ObligationKind()}
		if err := rows.Scan(&o.ID, &o.Total, &o.Paid); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *txRepository) AddObligationPaid(ctx context.Context, origin bookings.Origin, delta float64) error {
	var query string
	switch origin.Kind {
	case bookings.OriginSaleOrder:
		query = `UPDATE sale_orders SET paid = paid + $2, updated_at=NOW() WHERE id=$1`
	case bookings.OriginVendorTx:
		query = `UPDATE vendor_transactions SET paid = paid + $2 WHERE id=$1`
	case bookings.OriginSalaryAdvance:
		query = `UPDATE salary_advances SET paid = paid + $2 WHERE id=$1`
	default:
		return fmt.Errorf("bulkpay: origin %s is not an obligation", origin)
	}
	cmd, err := r.tx.Exec(ctx, query, origin.ID, toNumeric(delta))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("bulkpay: obligation %s not found", origin)
	}
	return nil
}

func (r *txRepository) InsertVendorTransaction(ctx context.Context, v VendorTransaction) (VendorTransaction, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO vendor_transactions (vendor_id, reference, tx_date, total, paid, payable_account_id)
VALUES ($1,$2,$3,$4,0,$5) RETURNING id, created_at`,
		v.VendorID, v.Reference, v.Date, toNumeric(v.Total), v.PayableAccountID)
	if err := row.Scan(&v.ID, &v.CreatedAt); err != nil {
		return VendorTransaction{}, err
	}
	return v, nil
}

func (r *txRepository) InsertSalaryAdvance(ctx context.Context, a SalaryAdvance) (SalaryAdvance, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO salary_advances (employee_id, advance_date, total, paid, receivable_account_id)
VALUES ($1,$2,$3,0,$4) RETURNING id, created_at`,
		a.EmployeeID, a.Date, toNumeric(a.Total), a.ReceivableAccountID)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return SalaryAdvance{}, err
	}
	return a, nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
