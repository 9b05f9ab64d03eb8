package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	auditModels "spendtrail/internal/audit/models"
	"spendtrail/internal/expense/models"
	"spendtrail/internal/platform/metrics"
	dErrors "spendtrail/pkg/domain-errors"
	"spendtrail/pkg/platform/sentinel"
	"spendtrail/pkg/requestcontext"
)

// Store is the persistence contract for expenses.
type Store interface {
	Create(ctx context.Context, expense *models.Expense) error
	FindByUserAndID(ctx context.Context, userID, id uuid.UUID) (*models.Expense, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SumByDay(ctx context.Context, userID uuid.UUID, from time.Time) (map[string]float64, error)
}

// AuditRecorder receives trail entries for every expense mutation. Recording
// is best-effort on the recorder's side; the service never sees its failures.
type AuditRecorder interface {
	Record(ctx context.Context, entry *auditModels.Entry)
}

// Service owns the expense lifecycle. Every operation is scoped to the acting
// user, and every mutation emits an audit entry describing what changed.
type Service struct {
	store   Store
	audit   AuditRecorder
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, audit AuditRecorder, opts ...Option) *Service {
	s := &Service{store: store, audit: audit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// trackedField names an expense field whose changes are diffed into the audit
// trail. Order matters: update entries are emitted in this order.
type trackedField struct {
	name  string
	value func(e *models.Expense) any
}

var trackedFields = []trackedField{
	{"description", func(e *models.Expense) any { return e.Description }},
	{"amount", func(e *models.Expense) any { return e.Amount }},
	{"date", func(e *models.Expense) any { return e.Date.UTC().Format(models.DateLayout) }},
}

// Create stores a new expense for the user and records a create audit entry
// carrying a full snapshot. A zero Date defaults to the request time.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req models.CreateExpenseRequest) (*models.Expense, error) {
	if userID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	date := req.Date
	if date.IsZero() {
		date = now
	}

	expense := &models.Expense{
		ID:          uuid.New(),
		UserID:      userID,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, expense); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create expense")
	}

	if s.metrics != nil {
		s.metrics.ExpensesCreated.Inc()
	}
	s.audit.Record(ctx, &auditModels.Entry{
		UserID:    userID,
		ExpenseID: &expense.ID,
		Action:    auditModels.ActionCreate,
		Change: auditModels.Change{
			Field: auditModels.FieldAll,
			New:   snapshotOf(expense),
		},
		Description: fmt.Sprintf("Created new expense: %q (₹%s)", expense.Description, formatAmount(expense.Amount)),
	})

	s.log(ctx, "expense created", "expense_id", expense.ID.String(), "user_id", userID.String())
	return expense, nil
}

// Get returns a single expense owned by the user.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Expense, error) {
	if userID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}

	expense, err := s.store.FindByUserAndID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "expense not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load expense")
	}
	return expense, nil
}

// List returns all of the user's expenses, newest date first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*models.Expense, error) {
	if userID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}

	expenses, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expenses")
	}
	return expenses, nil
}

// Update applies a partial update to an expense owned by the user and records
// one update audit entry per tracked field that actually changed. A no-op
// update (all requested values equal to current ones) records nothing.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req models.UpdateExpenseRequest) (*models.Expense, error) {
	if userID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	before, err := s.store.FindByUserAndID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "expense not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load expense")
	}

	after := *before
	if req.Description != nil {
		after.Description = *req.Description
	}
	if req.Amount != nil {
		after.Amount = *req.Amount
	}
	if req.Date != nil {
		after.Date = *req.Date
	}
	after.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, &after); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "expense not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update expense")
	}

	changed := 0
	for _, field := range trackedFields {
		oldValue := field.value(before)
		newValue := field.value(&after)
		if oldValue == newValue {
			continue
		}
		changed++
		s.audit.Record(ctx, &auditModels.Entry{
			UserID:    userID,
			ExpenseID: &after.ID,
			Action:    auditModels.ActionUpdate,
			Change: auditModels.Change{
				Field: field.name,
				Old:   oldValue,
				New:   newValue,
			},
			Description: fmt.Sprintf("Updated %s from %q to %q", field.name, formatValue(oldValue), formatValue(newValue)),
		})
	}

	if s.metrics != nil && changed > 0 {
		s.metrics.ExpensesUpdated.Inc()
	}
	s.log(ctx, "expense updated", "expense_id", after.ID.String(), "user_id", userID.String(), "fields_changed", changed)
	return &after, nil
}

// Delete removes an expense owned by the user and records a delete audit entry
// carrying the final snapshot. The snapshot is the only surviving copy of the
// record once the row is gone.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil {
		return dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}

	expense, err := s.store.FindByUserAndID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "expense not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load expense")
	}

	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "expense not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete expense")
	}

	if s.metrics != nil {
		s.metrics.ExpensesDeleted.Inc()
	}
	s.audit.Record(ctx, &auditModels.Entry{
		UserID:    userID,
		ExpenseID: &expense.ID,
		Action:    auditModels.ActionDelete,
		Change: auditModels.Change{
			Field: auditModels.FieldAll,
			Old:   snapshotOf(expense),
		},
		Description: fmt.Sprintf("Deleted expense: %q (₹%s)", expense.Description, formatAmount(expense.Amount)),
	})

	s.log(ctx, "expense deleted", "expense_id", expense.ID.String(), "user_id", userID.String())
	return nil
}

// SumByDay exposes per-day totals to the reporting layer.
func (s *Service) SumByDay(ctx context.Context, userID uuid.UUID, from time.Time) (map[string]float64, error) {
	if userID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}

	totals, err := s.store.SumByDay(ctx, userID, from)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum expenses")
	}
	return totals, nil
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	args = append(args, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, msg, args...)
}

func snapshotOf(e *models.Expense) auditModels.Snapshot {
	return auditModels.Snapshot{
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date.UTC().Format(models.DateLayout),
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return formatAmount(value)
	default:
		return fmt.Sprint(value)
	}
}
