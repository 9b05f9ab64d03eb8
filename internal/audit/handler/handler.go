package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"spendtrail/internal/audit/models"
	expenseModels "spendtrail/internal/expense/models"
	"spendtrail/internal/platform/middleware"
	"spendtrail/internal/transport/http/shared"
	dErrors "spendtrail/pkg/domain-errors"
	"spendtrail/pkg/requestcontext"
)

// Service defines the audit trail operations the handler exposes.
type Service interface {
	Query(ctx context.Context, userID uuid.UUID, filter models.QueryFilter) ([]*models.Entry, error)
}

// Handler handles the audit trail query endpoint.
type Handler struct {
	logger       *slog.Logger
	audit        Service
	jwtValidator middleware.JWTValidator
	revocations  middleware.TokenRevocationChecker
}

// New creates a new audit Handler.
func New(
	audit Service,
	logger *slog.Logger,
	jwtValidator middleware.JWTValidator,
	revocations middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		logger:       logger,
		audit:        audit,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))
		r.Get("/api/audit-logs", h.handleQuery)
	})
}

type changeResponse struct {
	Field string `json:"field"`
	Old   any    `json:"oldValue"`
	New   any    `json:"newValue"`
}

type entryResponse struct {
	ID          string         `json:"id"`
	ExpenseID   *string        `json:"expenseId,omitempty"`
	Action      string         `json:"action"`
	Change      changeResponse `json:"change"`
	Description string         `json:"description"`
	Timestamp   string         `json:"timestamp"`
}

func toEntryResponse(e *models.Entry) entryResponse {
	resp := entryResponse{
		ID:          e.ID.String(),
		Action:      e.Action.String(),
		Change:      changeResponse(e.Change),
		Description: e.Description,
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
	}
	if e.ExpenseID != nil {
		id := e.ExpenseID.String()
		resp.ExpenseID = &id
	}
	return resp
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	filter, err := parseFilter(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entries, err := h.audit.Query(ctx, userID, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func parseFilter(r *http.Request) (models.QueryFilter, error) {
	var filter models.QueryFilter
	q := r.URL.Query()

	if raw := q.Get("action"); raw != "" {
		action, err := models.ParseAction(raw)
		if err != nil {
			return filter, err
		}
		filter.Action = action
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(expenseModels.DateLayout, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, "from must be YYYY-MM-DD")
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(expenseModels.DateLayout, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, "to must be YYYY-MM-DD")
		}
		filter.To = &to
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}
