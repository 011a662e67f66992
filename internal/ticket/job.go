package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/observability/jobmetrics"
	"github.com/meridian-erp/meridian-erp/internal/render"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// ReportBuilder computes the full report model for one request.
type ReportBuilder interface {
	Assemble(ctx context.Context, req ledger.Request, progress ledger.ProgressFunc) (*ledger.Report, error)
}

// Renderer turns a report model into artifact bytes.
type Renderer interface {
	Render(ctx context.Context, rep *ledger.Report, format, orientation string) (render.Result, error)
}

// JobConfig wires dependencies required by the worker job.
type JobConfig struct {
	Store         *Store
	Builder       ReportBuilder
	Renderer      Renderer
	OutputDir     string
	RetentionDays int
	Metrics       *jobmetrics.Metrics
	Logger        *slog.Logger
}

// Job processes ledger report requests coming from the queue.
type Job struct {
	store         *Store
	builder       ReportBuilder
	renderer      Renderer
	outputDir     string
	retentionDays int
	metrics       *jobmetrics.Metrics
	logger        *slog.Logger
}

// NewJob constructs a Job handler.
func NewJob(cfg JobConfig) *Job {
	return &Job{
		store:         cfg.Store,
		builder:       cfg.Builder,
		renderer:      cfg.Renderer,
		outputDir:     cfg.OutputDir,
		retentionDays: cfg.RetentionDays,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

// Handle fulfils the asynq.HandlerFunc contract for ledger report tasks.
// The run ends with exactly one terminal state write: done or failed.
func (j *Job) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.store == nil || j.builder == nil || j.renderer == nil {
		return fmt.Errorf("ledger report job not configured")
	}
	var payload jobs.LedgerReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Ticket == "" {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("ledger_report")
	err := j.run(ctx, payload)
	_ = tracker.End(err)
	if err != nil {
		// The failure is already recorded on the ticket; retrying would
		// re-run a job whose ticket is terminal.
		if j.logger != nil {
			j.logger.Error("ledger report failed",
				slog.String("ticket", payload.Ticket),
				slog.Any("error", err))
		}
		return asynq.SkipRetry
	}
	return nil
}

func (j *Job) run(ctx context.Context, payload jobs.LedgerReportPayload) error {
	id := payload.Ticket
	j.setStatus(ctx, id, StatusRunning, 5, "computing ledger", nil)

	rep, err := j.builder.Assemble(ctx, payload.Request, func(pct int, msg string) {
		// The assembler owns 10..90; rendering takes the remainder.
		j.setStatus(ctx, id, StatusRunning, pct, msg, nil)
	})
	if err != nil {
		j.setStatus(ctx, id, StatusFailed, 100, err.Error(), nil)
		return err
	}

	j.setStatus(ctx, id, StatusRunning, 92, "rendering document", nil)
	result, err := j.renderer.Render(ctx, rep, payload.Request.Format, payload.Request.Orientation)
	if err != nil {
		j.setStatus(ctx, id, StatusFailed, 100, err.Error(), nil)
		return err
	}

	relative := fmt.Sprintf("%s-%s", id, result.Filename)
	if err := j.save(relative, result.Bytes); err != nil {
		j.setStatus(ctx, id, StatusFailed, 100, err.Error(), nil)
		return err
	}
	artifact := &Artifact{
		Disk:         "local",
		RelativePath: relative,
		DownloadName: result.Filename,
		Format:       payload.Request.Format,
		ContentType:  result.ContentType,
	}
	j.setStatus(ctx, id, StatusDone, 100, "report ready", artifact)
	j.metrics.AddReportAccounts(rep.TenantID, len(rep.Accounts))
	if j.logger != nil {
		j.logger.Info("ledger report ready",
			slog.String("ticket", id),
			slog.String("file", relative),
			slog.Int("accounts", len(rep.Accounts)))
	}

	// Best-effort retention sweep; never blocks or fails the run.
	if n, err := SweepArtifacts(j.outputDir, j.retentionDays, id); err != nil {
		if j.logger != nil {
			j.logger.Warn("artifact sweep", slog.Any("error", err))
		}
	} else if n > 0 && j.logger != nil {
		j.logger.Info("artifact sweep", slog.Int("removed", n))
	}
	return nil
}

// HandleSweep fulfils the asynq contract for the scheduled retention sweep.
func (j *Job) HandleSweep(ctx context.Context, _ *asynq.Task) error {
	n, err := SweepArtifacts(j.outputDir, j.retentionDays, "")
	if err != nil {
		return err
	}
	if n > 0 && j.logger != nil {
		j.logger.Info("artifact sweep", slog.Int("removed", n))
	}
	return nil
}

func (j *Job) save(relative string, data []byte) error {
	if err := os.MkdirAll(j.outputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(j.outputDir, relative), data, 0o644)
}

func (j *Job) setStatus(ctx context.Context, id string, status Status, progress int, message string, artifact *Artifact) {
	err := j.store.Put(ctx, id, State{
		Status:   status,
		Progress: progress,
		Message:  message,
		Artifact: artifact,
	})
	if err != nil && j.logger != nil && !errors.Is(err, context.Canceled) {
		j.logger.Warn("ticket status write", slog.String("ticket", id), slog.Any("error", err))
	}
}
