package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditModels "spendtrail/internal/audit/models"
	expenseModels "spendtrail/internal/expense/models"
	dErrors "spendtrail/pkg/domain-errors"
	"spendtrail/pkg/requestcontext"
)

// DefaultWindowDays is the daily summary window when the caller does not ask
// for a specific one.
const DefaultWindowDays = 7

// MaxWindowDays caps the summary window so a single request cannot fan out
// into an unbounded scan.
const MaxWindowDays = 90

// ExpenseSummarizer provides per-day expense totals.
type ExpenseSummarizer interface {
	SumByDay(ctx context.Context, userID uuid.UUID, from time.Time) (map[string]float64, error)
}

// AuditStats provides the per-action operation counts.
type AuditStats interface {
	Stats(ctx context.Context, userID uuid.UUID) (auditModels.Stats, error)
}

// DailyTotal is one day's spending bucket. Days without expenses are present
// with a zero total.
type DailyTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// Service aggregates expenses and audit activity into reporting views.
type Service struct {
	expenses ExpenseSummarizer
	audit    AuditStats
	logger   *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service.
func New(expenses ExpenseSummarizer, audit AuditStats, opts ...Option) *Service {
	s := &Service{expenses: expenses, audit: audit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DailyTotals returns exactly windowDays buckets of per-UTC-day spending,
// oldest first, ending on the request day. Days without expenses report zero.
func (s *Service) DailyTotals(ctx context.Context, userID uuid.UUID, windowDays int) ([]DailyTotal, error) {
	if userID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if windowDays > MaxWindowDays {
		return nil, dErrors.New(dErrors.CodeValidation, "window too large")
	}

	now := requestcontext.Now(ctx).UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := today.AddDate(0, 0, -(windowDays - 1))

	totals, err := s.expenses.SumByDay(ctx, userID, from)
	if err != nil {
		return nil, err
	}

	buckets := make([]DailyTotal, 0, windowDays)
	for day := from; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format(expenseModels.DateLayout)
		buckets = append(buckets, DailyTotal{Date: key, Total: totals[key]})
	}
	return buckets, nil
}

// OperationCounts returns the user's lifetime expense operation breakdown.
func (s *Service) OperationCounts(ctx context.Context, userID uuid.UUID) (auditModels.Stats, error) {
	if userID == uuid.Nil {
		return auditModels.Stats{}, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	return s.audit.Stats(ctx, userID)
}
