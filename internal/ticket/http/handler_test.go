package tickethttp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/ticket"
)

type stubQueue struct {
	tickets []string
}

func (q *stubQueue) EnqueueLedgerReport(_ context.Context, id string, _ ledger.Request) error {
	q.tickets = append(q.tickets, id)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *ticket.Store, *stubQueue, string) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := ticket.NewStore(client, time.Hour)
	queue := &stubQueue{}
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	service := ticket.NewService(store, queue, dir, logger)
	return NewHandler(logger, service), store, queue, dir
}

func serve(t *testing.T, h *Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) { h.MountRoutes(r) })
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func startBody() []byte {
	return []byte(`{
		"tenant_id": 7,
		"account_from": "1100",
		"account_to": "4999",
		"date_from": "2025-02-01",
		"date_to": "2025-02-28",
		"format": "pdf",
		"orientation": "landscape"
	}`)
}

func TestStartAcceptsValidRequest(t *testing.T) {
	h, _, queue, _ := newTestHandler(t)

	rec := serve(t, h, http.MethodPost, "/api/ledger-reports", startBody())
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Ticket string `json:"ticket"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Ticket)
	require.Equal(t, []string{resp.Ticket}, queue.tickets)
}

func TestStartRejectsBadFormat(t *testing.T) {
	h, _, queue, _ := newTestHandler(t)

	body := []byte(`{
		"tenant_id": 7,
		"account_from": "1100",
		"account_to": "4999",
		"date_from": "2025-02-01",
		"date_to": "2025-02-28",
		"format": "csv"
	}`)
	rec := serve(t, h, http.MethodPost, "/api/ledger-reports", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, queue.tickets)
}

func TestStartRejectsMalformedJSON(t *testing.T) {
	h, _, queue, _ := newTestHandler(t)

	rec := serve(t, h, http.MethodPost, "/api/ledger-reports", []byte("{"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, queue.tickets)
}

func TestStartRejectsInvertedDateRange(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	body := []byte(`{
		"tenant_id": 7,
		"account_from": "1100",
		"account_to": "4999",
		"date_from": "2025-03-01",
		"date_to": "2025-02-01",
		"format": "pdf"
	}`)
	rec := serve(t, h, http.MethodPost, "/api/ledger-reports", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusUnknownTicket(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	rec := serve(t, h, http.MethodGet, "/api/ledger-reports/no-such-ticket", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusReflectsProgress(t *testing.T) {
	h, store, _, _ := newTestHandler(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "t-42", ticket.State{
		Status:   ticket.StatusRunning,
		Progress: 55,
		Message:  "account 2300",
	}))

	rec := serve(t, h, http.MethodGet, "/api/ledger-reports/t-42", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status   string `json:"status"`
		Progress int    `json:"progress"`
		Message  string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "running", resp.Status)
	require.Equal(t, 55, resp.Progress)
	require.Equal(t, "account 2300", resp.Message)
}

func TestDownloadWhileRunningConflicts(t *testing.T) {
	h, store, _, _ := newTestHandler(t)
	require.NoError(t, store.Put(context.Background(), "t-run", ticket.State{
		Status:   ticket.StatusRunning,
		Progress: 30,
	}))

	rec := serve(t, h, http.MethodGet, "/api/ledger-reports/t-run/download", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestDownloadFailedTicket(t *testing.T) {
	h, store, _, _ := newTestHandler(t)
	require.NoError(t, store.Put(context.Background(), "t-bad", ticket.State{
		Status:   ticket.StatusFailed,
		Progress: 100,
		Message:  "no accounts in range",
	}))

	rec := serve(t, h, http.MethodGet, "/api/ledger-reports/t-bad/download", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDownloadAndViewDispositions(t *testing.T) {
	h, store, _, dir := newTestHandler(t)
	relative := "t-done-general-ledger-20250201-20250228.pdf"
	require.NoError(t, os.WriteFile(filepath.Join(dir, relative), []byte("%PDF fake"), 0o644))
	require.NoError(t, store.Put(context.Background(), "t-done", ticket.State{
		Status:   ticket.StatusDone,
		Progress: 100,
		Artifact: &ticket.Artifact{
			Disk:         "local",
			RelativePath: relative,
			DownloadName: "general-ledger-20250201-20250228.pdf",
			Format:       "pdf",
			ContentType:  "application/pdf",
		},
	}))

	rec := serve(t, h, http.MethodGet, "/api/ledger-reports/t-done/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Equal(t,
		`attachment; filename="general-ledger-20250201-20250228.pdf"`,
		rec.Header().Get("Content-Disposition"))
	require.Equal(t, "%PDF fake", rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/api/ledger-reports/t-done/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t,
		`inline; filename="general-ledger-20250201-20250228.pdf"`,
		rec.Header().Get("Content-Disposition"))
}
