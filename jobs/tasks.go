// Package jobs runs background work over Asynq: the ledger import of
// finalized settlements and the nightly sweep that retries missed ones.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSettlementImport imports one finalized settlement into the ledger.
	TaskSettlementImport = "ledger:import_settlement"
	// TaskSettlementSweep re-enqueues settlements whose import never ran.
	TaskSettlementSweep = "ledger:sweep_settlements"
)

// SettlementImportPayload identifies the settlement to import.
type SettlementImportPayload struct {
	SettlementID int64 `json:"settlementId"`
}

// NewSettlementImportTask constructs the import task.
func NewSettlementImportTask(payload SettlementImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementImport, data), nil
}

// NewSettlementSweepTask constructs the sweep task. It carries no payload.
func NewSettlementSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSettlementSweep, nil)
}
