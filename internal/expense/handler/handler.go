package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"spendtrail/internal/expense/models"
	"spendtrail/internal/platform/middleware"
	"spendtrail/internal/transport/http/shared"
	dErrors "spendtrail/pkg/domain-errors"
	"spendtrail/pkg/requestcontext"
)

// Service defines the expense operations the handler exposes.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req models.CreateExpenseRequest) (*models.Expense, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Expense, error)
	Update(ctx context.Context, userID, id uuid.UUID, req models.UpdateExpenseRequest) (*models.Expense, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Handler handles expense CRUD endpoints.
type Handler struct {
	logger       *slog.Logger
	expenses     Service
	jwtValidator middleware.JWTValidator
	revocations  middleware.TokenRevocationChecker
}

// New creates a new expense Handler.
func New(
	expenses Service,
	logger *slog.Logger,
	jwtValidator middleware.JWTValidator,
	revocations middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		logger:       logger,
		expenses:     expenses,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
}

// Register registers the expense routes with the chi router. All routes
// require a valid bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))
		r.Post("/api/expense", h.handleCreate)
		r.Get("/api/expense", h.handleList)
		r.Put("/api/expense/{id}", h.handleUpdate)
		r.Delete("/api/expense/{id}", h.handleDelete)
	})
}

type createExpenseRequest struct {
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	Date        string   `json:"date"`
}

type updateExpenseRequest struct {
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Date        *string  `json:"date"`
}

type expenseResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID.String(),
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date.UTC().Format(models.DateLayout),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Amount == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "amount is required"))
		return
	}

	var date time.Time
	if req.Date != "" {
		var err error
		date, err = time.Parse(models.DateLayout, req.Date)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "date must be YYYY-MM-DD"))
			return
		}
	}

	expense, err := h.expenses.Create(ctx, userID, models.CreateExpenseRequest{
		Description: req.Description,
		Amount:      *req.Amount,
		Date:        date,
	})
	if err != nil {
		h.logFailure(ctx, "failed to create expense", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	expenses, err := h.expenses.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logFailure(ctx, "failed to list expenses", err)
		shared.WriteError(w, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid expense ID"))
		return
	}

	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	update := models.UpdateExpenseRequest{
		Description: req.Description,
		Amount:      req.Amount,
	}
	if req.Date != nil {
		date, err := time.Parse(models.DateLayout, *req.Date)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "date must be YYYY-MM-DD"))
			return
		}
		update.Date = &date
	}

	expense, err := h.expenses.Update(ctx, userID, id, update)
	if err != nil {
		h.logFailure(ctx, "failed to update expense", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid expense ID"))
		return
	}

	if err := h.expenses.Delete(ctx, userID, id); err != nil {
		h.logFailure(ctx, "failed to delete expense", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
