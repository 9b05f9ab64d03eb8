package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"spendtrail/internal/audit/models"
)

// InMemory keeps the audit trail in process memory. Used in dev mode and unit
// tests; it intentionally favors clarity over performance.
type InMemory struct {
	mu      sync.RWMutex
	entries []*models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID uuid.UUID, filter models.QueryFilter) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Entry
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Timestamp.After(*filter.To) {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *InMemory) CountByAction(_ context.Context, userID uuid.UUID) (map[models.Action]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Action]int)
	for _, e := range s.entries {
		if e.UserID == userID {
			counts[e.Action]++
		}
	}
	return counts, nil
}
