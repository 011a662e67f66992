package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// Enqueuer submits a report run to the background queue.
type Enqueuer interface {
	EnqueueLedgerReport(ctx context.Context, ticketID string, req ledger.Request) error
}

// Service issues tickets and answers status/artifact reads. Computation
// itself happens in Job on the worker.
type Service struct {
	store     *Store
	queue     Enqueuer
	outputDir string
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(store *Store, queue Enqueuer, outputDir string, logger *slog.Logger) *Service {
	return &Service{store: store, queue: queue, outputDir: outputDir, logger: logger}
}

// Start validates the request, allocates a ticket and schedules the run.
// It returns immediately; the computation happens on the worker.
func (s *Service) Start(ctx context.Context, req ledger.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.store.Put(ctx, id, State{Status: StatusRunning, Progress: 0, Message: "queued"}); err != nil {
		return "", err
	}
	if err := s.queue.EnqueueLedgerReport(ctx, id, req); err != nil {
		_ = s.store.Put(ctx, id, State{Status: StatusFailed, Progress: 100, Message: "enqueue failed: " + err.Error()})
		return "", fmt.Errorf("enqueue report: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("report queued",
			slog.String("ticket", id),
			slog.Int64("tenant_id", req.TenantID),
			slog.String("format", req.Format))
	}
	return id, nil
}

// Status is a pure read of the persisted ticket state.
func (s *Service) Status(ctx context.Context, id string) (State, error) {
	return s.store.Get(ctx, id)
}

// Artifact returns the ticket state and the absolute path of the rendered
// file. It fails with ErrNotReady while the run is in flight and wraps the
// stored message in ErrJobFailed when the run failed.
func (s *Service) Artifact(ctx context.Context, id string) (State, string, error) {
	state, err := s.store.Get(ctx, id)
	if err != nil {
		return State{}, "", err
	}
	switch state.Status {
	case StatusRunning:
		return State{}, "", ErrNotReady
	case StatusFailed:
		return State{}, "", fmt.Errorf("%w: %s", ErrJobFailed, state.Message)
	}
	if state.Artifact == nil || state.Artifact.RelativePath == "" {
		return State{}, "", fmt.Errorf("%w: artifact missing", ErrJobFailed)
	}
	path := filepath.Join(s.outputDir, state.Artifact.RelativePath)
	if _, err := os.Stat(path); err != nil {
		// The retention sweep may have pruned an old artifact.
		return State{}, "", fmt.Errorf("artifact %s: %w", state.Artifact.RelativePath, err)
	}
	return state, path, nil
}
