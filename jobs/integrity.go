package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewLedgerIntegrityHandler builds the handler for TaskLedgerIntegrity.
// The scan reports bookings whose line totals have drifted apart; it
// never repairs anything, repairs go through the document that owns
// the booking.
func NewLedgerIntegrityHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		rows, err := pool.Query(ctx, `SELECT b.id, b.transaction_number,
COALESCE(SUM(l.dr_amount),0), COALESCE(SUM(l.cr_amount),0)
FROM bookings b JOIN booking_lines l ON l.booking_id = b.id
GROUP BY b.id, b.transaction_number
HAVING ROUND(SUM(l.dr_amount)::numeric, 2) <> ROUND(SUM(l.cr_amount)::numeric, 2)`)
		if err != nil {
			return err
		}
		defer rows.Close()

		broken := 0
		for rows.Next() {
			var id, txn int64
			var dr, cr float64
			if err := rows.Scan(&id, &txn, &dr, &cr); err != nil {
				return err
			}
			broken++
			logger.Error("unbalanced booking",
				slog.Int64("booking_id", id),
				slog.Int64("transaction_number", txn),
				slog.Float64("debit", dr),
				slog.Float64("credit", cr))
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if broken == 0 {
			logger.Info("ledger integrity scan clean")
		} else {
			logger.Warn("ledger integrity scan found problems", slog.Int("bookings", broken))
		}
		return nil
	}
}
