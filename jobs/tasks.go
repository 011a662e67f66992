package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerReport computes and renders one general-ledger report.
	TaskLedgerReport = "ledger:report"
	// TaskArtifactSweep prunes rendered artifacts past the retention window.
	TaskArtifactSweep = "ledger:artifact_sweep"
)

// LedgerReportPayload carries one ticketed report request to the worker.
type LedgerReportPayload struct {
	Ticket  string         `json:"ticket"`
	Request ledger.Request `json:"request"`
}

// NewLedgerReportTask constructs the asynq task for a report run.
func NewLedgerReportTask(payload LedgerReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReport, data), nil
}

// NewArtifactSweepTask constructs the scheduled retention-sweep task.
func NewArtifactSweepTask() *asynq.Task {
	return asynq.NewTask(TaskArtifactSweep, nil)
}
