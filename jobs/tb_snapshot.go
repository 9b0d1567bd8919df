package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venue-erp/venue-erp/internal/ledger/balances"
)

// NewTrialBalanceSnapshotHandler builds the handler for
// TaskTrialBalanceSnapshot. The consolidated trial balance for the day
// is computed and its totals stored for later drift comparison.
func NewTrialBalanceSnapshotHandler(pool *pgxpool.Pool, svc *balances.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload TrialBalanceSnapshotPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		asOf := payload.AsOf
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}

		tb, err := svc.ConsolidatedTrialBalance(ctx, asOf)
		if err != nil {
			return err
		}
		_, err = pool.Exec(ctx, `INSERT INTO trial_balance_snapshots (as_of, total_debit, total_credit, reconciled)
VALUES ($1::date, $2, $3, $4)
ON CONFLICT (as_of) DO UPDATE SET total_debit=EXCLUDED.total_debit,
	total_credit=EXCLUDED.total_credit, reconciled=EXCLUDED.reconciled`,
			asOf, fmt.Sprintf("%.2f", tb.TotalDebit), fmt.Sprintf("%.2f", tb.TotalCredit), tb.Reconciled)
		if err != nil {
			return err
		}
		logger.Info("trial balance snapshot stored",
			slog.Time("as_of", asOf),
			slog.Float64("total_debit", tb.TotalDebit),
			slog.Float64("total_credit", tb.TotalCredit),
			slog.Bool("reconciled", tb.Reconciled))
		return nil
	}
}
