package ticket

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

type stubQueue struct {
	tickets []string
	err     error
}

func (q *stubQueue) EnqueueLedgerReport(_ context.Context, ticketID string, _ ledger.Request) error {
	if q.err != nil {
		return q.err
	}
	q.tickets = append(q.tickets, ticketID)
	return nil
}

func validRequest() ledger.Request {
	return ledger.Request{
		TenantID:    1,
		AccountFrom: "1000",
		AccountTo:   "9999",
		DateFrom:    time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		DateTo:      time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		Format:      "pdf",
	}
}

func TestStartIssuesTicketAndQueues(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	queue := &stubQueue{}
	svc := NewService(store, queue, t.TempDir(), nil)

	id, err := svc.Start(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, []string{id}, queue.tickets)

	state, err := svc.Status(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, state.Status)
	require.Less(t, state.Progress, 100)
	require.Equal(t, "queued", state.Message)
}

func TestStartRejectsInvalidRequest(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	queue := &stubQueue{}
	svc := NewService(store, queue, t.TempDir(), nil)

	req := validRequest()
	req.TenantID = -3
	_, err := svc.Start(context.Background(), req)
	require.ErrorIs(t, err, ledger.ErrValidation)
	require.Empty(t, queue.tickets, "invalid requests never create a job")
}

func TestStartEnqueueFailureMarksTicketFailed(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	queue := &stubQueue{err: errors.New("redis down")}
	svc := NewService(store, queue, t.TempDir(), nil)

	_, err := svc.Start(context.Background(), validRequest())
	require.Error(t, err)
}

func TestArtifactNotReadyWhileRunning(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	svc := NewService(store, &stubQueue{}, t.TempDir(), nil)

	id, err := svc.Start(context.Background(), validRequest())
	require.NoError(t, err)

	_, _, err = svc.Artifact(context.Background(), id)
	require.ErrorIs(t, err, ErrNotReady)
}

func TestArtifactPropagatesFailureMessage(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	svc := NewService(store, &stubQueue{}, t.TempDir(), nil)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "t-f", State{Status: StatusFailed, Progress: 100, Message: "no accounts in range"}))

	_, _, err := svc.Artifact(ctx, "t-f")
	require.ErrorIs(t, err, ErrJobFailed)
	require.Contains(t, err.Error(), "no accounts in range")
}

func TestArtifactServesCompletedFile(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	dir := t.TempDir()
	svc := NewService(store, &stubQueue{}, dir, nil)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "t-d-ledger.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, store.Put(ctx, "t-d", State{
		Status:   StatusDone,
		Progress: 100,
		Artifact: &Artifact{RelativePath: "t-d-ledger.pdf", DownloadName: "ledger.pdf", ContentType: "application/pdf"},
	}))

	state, path, err := svc.Artifact(ctx, "t-d")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "t-d-ledger.pdf"), path)
	require.Equal(t, "ledger.pdf", state.Artifact.DownloadName)
}

func TestArtifactSweptFileSurfacesError(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	svc := NewService(store, &stubQueue{}, t.TempDir(), nil)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "t-gone", State{
		Status:   StatusDone,
		Progress: 100,
		Artifact: &Artifact{RelativePath: "t-gone-ledger.pdf"},
	}))

	_, _, err := svc.Artifact(ctx, "t-gone")
	require.Error(t, err, "pruned artifact must surface as an error, not a crash")
}

func TestStatusUnknownTicket(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	svc := NewService(store, &stubQueue{}, t.TempDir(), nil)

	_, err := svc.Status(context.Background(), "nope")
	require.ErrorIs(t, err, ErrTicketNotFound)
}
