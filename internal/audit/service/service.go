package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spendtrail/internal/audit/models"
	"spendtrail/internal/platform/metrics"
	dErrors "spendtrail/pkg/domain-errors"
	"spendtrail/pkg/requestcontext"
)

// Store is the persistence contract for the audit trail.
type Store interface {
	Append(ctx context.Context, entry *models.Entry) error
	ListByUser(ctx context.Context, userID uuid.UUID, filter models.QueryFilter) ([]*models.Entry, error)
	CountByAction(ctx context.Context, userID uuid.UUID) (map[models.Action]int, error)
}

// FailureHandler observes swallowed audit-write failures. Injectable so tests
// can assert the best-effort contract was exercised.
type FailureHandler func(ctx context.Context, entry *models.Entry, err error)

// Service owns the audit trail: recording entries as side effects of tracked
// actions and exposing query/aggregation over them.
//
// Record is best-effort by contract: a persistence failure is reported to the
// failure handler and logged, never propagated. The primary operation that
// triggered the entry must not be downgraded by an audit outage.
type Service struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	onFailure FailureHandler
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

func WithFailureHandler(fn FailureHandler) Option {
	return func(s *Service) {
		s.onFailure = fn
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record persists one audit entry. Missing ID and Timestamp are filled in.
// Never returns an error: failures go to the failure handler and the log.
func (s *Service) Record(ctx context.Context, entry *models.Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}

	if err := s.store.Append(ctx, entry); err != nil {
		if s.metrics != nil {
			s.metrics.AuditWriteFailures.Inc()
		}
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "audit write failed",
				"error", err,
				"action", entry.Action.String(),
				"user_id", entry.UserID.String(),
				"request_id", requestcontext.RequestID(ctx),
				"log_type", "audit",
			)
		}
		if s.onFailure != nil {
			s.onFailure(ctx, entry, err)
		}
		return
	}

	if s.metrics != nil {
		s.metrics.AuditEntriesRecorded.WithLabelValues(entry.Action.String()).Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "audit entry recorded",
			"action", entry.Action.String(),
			"user_id", entry.UserID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
	}
}

// Query returns the user's trail entries, newest first. The To bound is
// end-of-day inclusive: whatever clock time it carries, entries up to the end
// of that UTC calendar day match.
func (s *Service) Query(ctx context.Context, userID uuid.UUID, filter models.QueryFilter) ([]*models.Entry, error) {
	if userID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	if filter.Action != "" && !filter.Action.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown action kind")
	}
	if filter.Limit < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must not be negative")
	}

	if filter.To != nil {
		eod := endOfDay(*filter.To)
		filter.To = &eod
	}

	entries, err := s.store.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit trail")
	}
	return entries, nil
}

// Stats returns per-kind counts of the user's CRUD entries. Login and logout
// entries exist in the trail but are excluded from the operation breakdown;
// kinds with no entries report zero.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (models.Stats, error) {
	if userID == uuid.Nil {
		return models.Stats{}, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}

	counts, err := s.store.CountByAction(ctx, userID)
	if err != nil {
		return models.Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count audit entries")
	}

	return models.Stats{
		Create: counts[models.ActionCreate],
		Update: counts[models.ActionUpdate],
		Delete: counts[models.ActionDelete],
	}, nil
}

func endOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
