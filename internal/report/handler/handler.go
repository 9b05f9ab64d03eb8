package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	auditModels "spendtrail/internal/audit/models"
	"spendtrail/internal/platform/middleware"
	"spendtrail/internal/report/service"
	"spendtrail/internal/transport/http/shared"
	dErrors "spendtrail/pkg/domain-errors"
	"spendtrail/pkg/requestcontext"
)

// Service defines the reporting operations the handler exposes.
type Service interface {
	DailyTotals(ctx context.Context, userID uuid.UUID, windowDays int) ([]service.DailyTotal, error)
	OperationCounts(ctx context.Context, userID uuid.UUID) (auditModels.Stats, error)
}

// Handler handles the reporting endpoints.
type Handler struct {
	logger       *slog.Logger
	reports      Service
	jwtValidator middleware.JWTValidator
	revocations  middleware.TokenRevocationChecker
}

// New creates a new report Handler.
func New(
	reports Service,
	logger *slog.Logger,
	jwtValidator middleware.JWTValidator,
	revocations middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		logger:       logger,
		reports:      reports,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
}

// Register registers the reporting routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))
		r.Get("/api/expense/summary/daily", h.handleDailySummary)
		r.Get("/api/operation-counts", h.handleOperationCounts)
	})
}

func (h *Handler) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	windowDays := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "days must be a positive integer"))
			return
		}
		windowDays = parsed
	}

	totals, err := h.reports.DailyTotals(ctx, requestcontext.UserID(ctx), windowDays)
	if err != nil {
		h.logFailure(ctx, "daily summary failed", err)
		shared.WriteError(w, err)
		return
	}

	// Chart consumers key on the date, so the wire shape is a fixed-size map
	// with one entry per day in the window.
	out := make(map[string]float64, len(totals))
	for _, bucket := range totals {
		out[bucket.Date] = bucket.Total
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleOperationCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.reports.OperationCounts(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logFailure(ctx, "operation counts failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
