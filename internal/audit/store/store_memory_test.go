package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"spendtrail/internal/audit/models"
)

func TestInMemoryAppendCopiesEntries(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	userID := uuid.New()

	entry := &models.Entry{
		ID:          uuid.New(),
		UserID:      userID,
		Action:      models.ActionCreate,
		Description: "original",
		Timestamp:   time.Now(),
	}
	require.NoError(t, store.Append(ctx, entry))

	// Mutating the caller's entry must not reach the stored copy.
	entry.Description = "mutated"

	stored, err := store.ListByUser(ctx, userID, models.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "original", stored[0].Description)
}

func TestInMemoryTimeWindow(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	userID := uuid.New()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{-48 * time.Hour, -24 * time.Hour, 0} {
		require.NoError(t, store.Append(ctx, &models.Entry{
			ID:        uuid.New(),
			UserID:    userID,
			Action:    models.ActionCreate,
			Timestamp: base.Add(offset),
		}))
	}

	from := base.Add(-24 * time.Hour)
	to := base.Add(-time.Hour)
	entries, err := store.ListByUser(ctx, userID, models.QueryFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, base.Add(-24*time.Hour), entries[0].Timestamp)
}

func TestInMemoryCountByAction(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	userID := uuid.New()

	for _, action := range []models.Action{models.ActionCreate, models.ActionCreate, models.ActionLogin} {
		require.NoError(t, store.Append(ctx, &models.Entry{
			ID:        uuid.New(),
			UserID:    userID,
			Action:    action,
			Timestamp: time.Now(),
		}))
	}
	require.NoError(t, store.Append(ctx, &models.Entry{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Action:    models.ActionDelete,
		Timestamp: time.Now(),
	}))

	counts, err := store.CountByAction(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, map[models.Action]int{
		models.ActionCreate: 2,
		models.ActionLogin:  1,
	}, counts)
}
