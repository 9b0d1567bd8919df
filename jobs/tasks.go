package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity scans posted bookings for broken balance.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskTrialBalanceSnapshot records the consolidated trial balance
	// totals for a day.
	TaskTrialBalanceSnapshot = "ledger:tb_snapshot"
)

// NewLedgerIntegrityTask constructs the integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// TrialBalanceSnapshotPayload names the day to snapshot.
type TrialBalanceSnapshotPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewTrialBalanceSnapshotTask constructs the snapshot task.
func NewTrialBalanceSnapshotTask(asOf time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(TrialBalanceSnapshotPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrialBalanceSnapshot, data), nil
}
