package pos

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

// LedgerTx is the slice of the ledger store the POS flows post through.
// bookings.TxRepository satisfies it.
type LedgerTx interface {
	InsertBooking(ctx context.Context, in bookings.CreateInput) (bookings.Booking, error)
	InsertLines(ctx context.Context, bookingID int64, lines []bookings.LineInput) error
	FindLinesByOrigin(ctx context.Context, origin bookings.Origin) ([]bookings.Line, error)
	DeleteLinesByOrigin(ctx context.Context, origin bookings.Origin) (int64, error)
	DeleteBookingIfEmpty(ctx context.Context, id int64) (bool, error)
}

// Repository encapsulates POS persistence. Mutations run inside WithTx
// so document rows and ledger rows commit or roll back together.
type Repository interface {
	GetOrder(ctx context.Context, id int64) (SaleOrder, error)
	ListOrders(ctx context.Context, status Status, limit int) ([]SaleOrder, error)
	GetReturn(ctx context.Context, id int64) (SaleReturn, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes POS mutations plus the ledger slice, all bound
// to one transaction.
type TxRepository interface {
	LedgerTx
	InsertOrder(ctx context.Context, in CreateOrderInput, ref uuid.UUID, total float64) (SaleOrder, error)
	GetOrderForUpdate(ctx context.Context, id int64) (SaleOrder, error)
	UpdateOrderStatus(ctx context.Context, id int64, status Status) error
	UpdateOrderPaid(ctx context.Context, id int64, paid float64) error
	ReplaceOrderLines(ctx context.Context, id int64, lines []LineInput, total float64) error
	InsertReturn(ctx context.Context, orderID int64, date time.Time, rate, total float64, lines []ReturnLineInput) (SaleReturn, error)
	UpdateReturnStatus(ctx context.Context, id int64, status Status) error
	GetReturnForUpdate(ctx context.Context, id int64) (SaleReturn, error)
	ReturnedQuantities(ctx context.Context, orderID int64) (map[int64]float64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const orderColumns = `id, ref, customer_id, waiter_id, currency, order_date,
debit_account_id, income_account_id, total, paid, status, created_at, updated_at`

func scanOrder(row pgx.Row) (SaleOrder, error) {
	var o SaleOrder
	err := row.Scan(&o.ID, &o.Ref, &o.CustomerID, &o.WaiterID, &o.Currency, &o.Date,
		&o.DebitAccountID, &o.IncomeAccountID, &o.Total, &o.Paid, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleOrder{}, ErrOrderNotFound
		}
		return SaleOrder{}, err
	}
	return o, nil
}

func (r *repository) GetOrder(ctx context.Context, id int64) (SaleOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM sale_orders WHERE id=$1`, id))
	if err != nil {
		return SaleOrder{}, err
	}
	o.Lines, err = orderLines(ctx, r.db, id)
	return o, err
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func orderLines(ctx context.Context, q queryer, orderID int64) ([]SaleLine, error) {
	rows, err := q.Query(ctx, `SELECT id, order_id, product_id, name, quantity, price
FROM sale_order_lines WHERE order_id=$1 ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SaleLine
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Name, &l.Quantity, &l.Price); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) ListOrders(ctx context.Context, status Status, limit int) ([]SaleOrder, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM sale_orders
WHERE ($1 = '' OR status=$1) ORDER BY order_date ASC, id ASC LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SaleOrder
	for rows.Next() {
		var o SaleOrder
		if err := rows.Scan(&o.ID, &o.Ref, &o.CustomerID, &o.WaiterID, &o.Currency, &o.Date,
			&o.DebitAccountID, &o.IncomeAccountID, &o.Total, &o.Paid, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repository) GetReturn(ctx context.Context, id int64) (SaleReturn, error) {
	ret, err := scanReturn(r.db.QueryRow(ctx, `SELECT id, order_id, return_date, rate, total, status, created_at
FROM sale_returns WHERE id=$1`, id))
	if err != nil {
		return SaleReturn{}, err
	}
	ret.Lines, err = returnLines(ctx, r.db, id)
	return ret, err
}

func scanReturn(row pgx.Row) (SaleReturn, error) {
	var ret SaleReturn
	err := row.Scan(&ret.ID, &ret.OrderID, &ret.Date, &ret.Rate, &ret.Total, &ret.Status, &ret.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleReturn{}, ErrReturnNotFound
		}
		return SaleReturn{}, err
	}
	return ret, nil
}

func returnLines(ctx context.Context, q queryer, returnID int64) ([]ReturnLine, error) {
	rows, err := q.Query(ctx, `SELECT id, return_id, product_id, quantity, price
FROM sale_return_lines WHERE return_id=$1 ORDER BY id ASC`, returnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReturnLine
	for rows.Next() {
		var l ReturnLine
		if err := rows.Scan(&l.ID, &l.ReturnID, &l.ProductID, &l.Quantity, &l.Price); err != nil {
			return nil, err
		}
		out = append(out, l)
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

func (r *txRepository) InsertOrder(ctx context.Context, in CreateOrderInput, ref uuid.UUID, total float64) (SaleOrder, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO sale_orders
(ref, customer_id, waiter_id, currency, order_date, debit_account_id, income_account_id, total, paid, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,'draft')
RETURNING id, created_at, updated_at`,
		ref, in.CustomerID, in.WaiterID, in.Currency, in.Date, in.DebitAccountID, in.IncomeAccountID, toNumeric(total))
	o := SaleOrder{
		Ref:             ref,
		CustomerID:      in.CustomerID,
		WaiterID:        in.WaiterID,
		Currency:        in.Currency,
		Date:            in.Date,
		DebitAccountID:  in.DebitAccountID,
		IncomeAccountID: in.IncomeAccountID,
		Total:           total,
		Status:          StatusDraft,
	}
	if err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return SaleOrder{}, err
	}
	for _, l := range in.Lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sale_order_lines (order_id, product_id, name, quantity, price)
VALUES ($1,$2,$3,$4,$5)`, o.ID, l.ProductID, l.Name, l.Quantity, toNumeric(l.Price)); err != nil {
			return SaleOrder{}, err
		}
	}
	return o, nil
}

func (r *txRepository) GetOrderForUpdate(ctx context.Context, id int64) (SaleOrder, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM sale_orders WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return SaleOrder{}, err
	}
	o.Lines, err = orderLines(ctx, r.tx, id)
	return o, err
}

func (r *txRepository) UpdateOrderStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE sale_orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *txRepository) UpdateOrderPaid(ctx context.Context, id int64, paid float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE sale_orders SET paid=$2, updated_at=NOW() WHERE id=$1`, id, toNumeric(paid))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *txRepository) ReplaceOrderLines(ctx context.Context, id int64, lines []LineInput, total float64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM sale_order_lines WHERE order_id=$1`, id); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sale_order_lines (order_id, product_id, name, quantity, price)
VALUES ($1,$2,$3,$4,$5)`, id, l.ProductID, l.Name, l.Quantity, toNumeric(l.Price)); err != nil {
			return err
		}
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE sale_orders SET total=$2, updated_at=NOW() WHERE id=$1`, id, toNumeric(total))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *txRepository) InsertReturn(ctx context.Context, orderID int64, date time.Time, rate, total float64, lines []ReturnLineInput) (SaleReturn, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO sale_returns (order_id, return_date, rate, total, status)
VALUES ($1,$2,$3,$4,'draft') RETURNING id, created_at`, orderID, date, rate, toNumeric(total))
	ret := SaleReturn{OrderID: orderID, Date: date, Rate: rate, Total: total, Status: StatusDraft}
	if err := row.Scan(&ret.ID, &ret.CreatedAt); err != nil {
		return SaleReturn{}, err
	}
	for _, l := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sale_return_lines (return_id, product_id, quantity, price)
SELECT $1, $2, $3, ol.price FROM sale_order_lines ol WHERE ol.order_id=$4 AND ol.product_id=$2`,
			ret.ID, l.ProductID, l.Quantity, orderID); err != nil {
			return SaleReturn{}, err
		}
	}
	var err error
	ret.Lines, err = returnLines(ctx, r.tx, ret.ID)
	return ret, err
}

func (r *txRepository) UpdateReturnStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE sale_returns SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrReturnNotFound
	}
	return nil
}

func (r *txRepository) GetReturnForUpdate(ctx context.Context, id int64) (SaleReturn, error) {
	ret, err := scanReturn(r.tx.QueryRow(ctx, `SELECT id, order_id, return_date, rate, total, status, created_at
FROM sale_returns WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return SaleReturn{}, err
	}
	ret.Lines, err = returnLines(ctx, r.tx, id)
	return ret, err
}

// ReturnedQuantities sums confirmed return quantities per product for
// the returnable-quantity check.
func (r *txRepository) ReturnedQuantities(ctx context.Context, orderID int64) (map[int64]float64, error) {
	rows, err := r.tx.Query(ctx, `SELECT rl.product_id, COALESCE(SUM(rl.quantity), 0)
FROM sale_return_lines rl
JOIN sale_returns sr ON rl.return_id = sr.id
WHERE sr.order_id=$1 AND sr.status='confirmed'
GROUP BY rl.product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]float64{}
	for rows.Next() {
		var productID int64
		var qty float64
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		out[productID] = qty
	}
	return out, rows.Err()
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
