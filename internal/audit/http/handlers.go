package audithttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samachar-news/samachar/internal/audit"
	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/rbac"
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error)
}

// Handler serves audit timeline requests.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	rbac    rbac.Middleware
}

// NewHandler creates a new audit handler.
func NewHandler(logger *slog.Logger, service TimelineService, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.fail(w, "load audit timeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.fail(w, "export audit timeline", err)
		return
	}
	csvBytes, err := audit.WriteCSV(rows)
	if err != nil {
		h.fail(w, "encode csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"audit-timeline.csv\"")
	if _, err := w.Write(csvBytes); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	var f audit.TimelineFilters
	var err error
	if f.From, err = parseTime(q.Get("from")); err != nil {
		return f, fieldError("from")
	}
	if f.To, err = parseTime(q.Get("to")); err != nil {
		return f, fieldError("to")
	}
	if f.ActorID, err = parseInt64(q.Get("actor_id")); err != nil {
		return f, fieldError("actor_id")
	}
	limit, err := parseInt64(q.Get("limit"))
	if err != nil {
		return f, fieldError("limit")
	}
	offset, err := parseInt64(q.Get("offset"))
	if err != nil {
		return f, fieldError("offset")
	}
	f.Limit, f.Offset = int(limit), int(offset)
	f.Entity = strings.TrimSpace(q.Get("entity"))
	f.Action = strings.TrimSpace(q.Get("action"))
	return f, nil
}

// parseTime accepts RFC3339 or a plain date at midnight UTC.
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func parseInt64(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func fieldError(field string) error {
	return errors.Join(httpx.ErrValidation, errors.New("invalid "+field))
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	if !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error(message, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
