// Package tickethttp exposes the ticket API: start a report, poll it,
// fetch the artifact.
package tickethttp

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/ticket"
)

// Handler wires the HTTP endpoints of the job-ticket runner.
type Handler struct {
	logger   *slog.Logger
	service  *ticket.Service
	validate *validator.Validate
}

// NewHandler constructs a Handler value.
func NewHandler(logger *slog.Logger, service *ticket.Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/ledger-reports", func(r chi.Router) {
		r.Post("/", h.start)
		r.Get("/{ticket}", h.status)
		r.Get("/{ticket}/download", h.download)
		r.Get("/{ticket}/view", h.view)
	})
}

type startRequest struct {
	TenantID    int64  `json:"tenant_id" validate:"required,gt=0"`
	AccountFrom string `json:"account_from" validate:"required"`
	AccountTo   string `json:"account_to" validate:"required"`
	DateFrom    string `json:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo      string `json:"date_to" validate:"required,datetime=2006-01-02"`
	Format      string `json:"format" validate:"required,oneof=pdf xlsx"`
	Orientation string `json:"orientation" validate:"omitempty,oneof=portrait landscape"`
}

type startResponse struct {
	Ticket string `json:"ticket"`
}

type statusResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	from, _ := time.Parse("2006-01-02", body.DateFrom)
	to, _ := time.Parse("2006-01-02", body.DateTo)
	req := ledger.Request{
		TenantID:    body.TenantID,
		AccountFrom: body.AccountFrom,
		AccountTo:   body.AccountTo,
		DateFrom:    from,
		DateTo:      to,
		Format:      body.Format,
		Orientation: body.Orientation,
	}
	id, err := h.service.Start(r.Context(), req)
	if err != nil {
		h.logger.Warn("start report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, startResponse{Ticket: id})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Status(r.Context(), chi.URLParam(r, "ticket"))
	if err != nil {
		if !errors.Is(err, ticket.ErrTicketNotFound) {
			h.logger.Error("ticket status", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, statusResponse{
		Status:   string(state.Status),
		Progress: state.Progress,
		Message:  state.Message,
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, false)
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, true)
}

func (h *Handler) serveArtifact(w http.ResponseWriter, r *http.Request, inline bool) {
	id := chi.URLParam(r, "ticket")
	state, path, err := h.service.Artifact(r.Context(), id)
	if err != nil {
		h.logger.Warn("fetch artifact", slog.String("ticket", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	file, err := os.Open(path)
	if err != nil {
		h.logger.Error("open artifact", slog.String("path", path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	defer file.Close()
	w.Header().Set("Content-Type", state.Artifact.ContentType)
	if inline {
		w.Header().Set("Content-Disposition", `inline; filename="`+state.Artifact.DownloadName+`"`)
	} else {
		w.Header().Set("Content-Disposition", `attachment; filename="`+state.Artifact.DownloadName+`"`)
	}
	if _, err := io.Copy(w, file); err != nil {
		h.logger.Warn("stream artifact", slog.Any("error", err))
	}
}
