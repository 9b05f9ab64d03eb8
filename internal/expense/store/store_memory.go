package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendtrail/internal/expense/models"
	"spendtrail/pkg/platform/sentinel"
)

// InMemory keeps expenses in process memory. Used in dev mode and unit tests.
type InMemory struct {
	mu       sync.RWMutex
	expenses map[uuid.UUID]*models.Expense
}

func NewInMemory() *InMemory {
	return &InMemory{expenses: make(map[uuid.UUID]*models.Expense)}
}

func (s *InMemory) Create(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[expense.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *expense
	s.expenses[expense.ID] = &cp
	return nil
}

func (s *InMemory) FindByUserAndID(_ context.Context, userID, id uuid.UUID) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense, ok := s.expenses[id]
	if !ok || expense.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	cp := *expense
	return &cp, nil
}

func (s *InMemory) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			cp := *e
			matched = append(matched, &cp)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *InMemory) Update(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.expenses[expense.ID]
	if !ok || existing.UserID != expense.UserID {
		return sentinel.ErrNotFound
	}
	cp := *expense
	s.expenses[expense.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.expenses[id]
	if !ok || existing.UserID != userID {
		return sentinel.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

// SumByDay returns per-UTC-day expense totals for the user, keyed by
// DateLayout date strings, for expenses dated at or after from.
func (s *InMemory) SumByDay(_ context.Context, userID uuid.UUID, from time.Time) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]float64)
	for _, e := range s.expenses {
		if e.UserID != userID || e.Date.Before(from) {
			continue
		}
		day := e.Date.UTC().Format(models.DateLayout)
		totals[day] += e.Amount
	}
	return totals, nil
}
