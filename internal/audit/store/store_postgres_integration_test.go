//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"spendtrail/internal/audit/models"
	"spendtrail/internal/audit/store"
	"spendtrail/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres

	userID uuid.UUID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "audit_logs", "expenses", "users"))

	s.userID = uuid.New()
	s.insertUser(s.userID, "asha@example.com")
}

func (s *PostgresStoreSuite) insertUser(id uuid.UUID, email string) {
	_, err := s.postgres.DB.Exec(
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, "Asha", email, "hash", time.Now().UTC(),
	)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) appendEntry(action models.Action, at time.Time, change models.Change) *models.Entry {
	entry := &models.Entry{
		ID:          uuid.New(),
		UserID:      s.userID,
		Action:      action,
		Change:      change,
		Description: string(action),
		Timestamp:   at,
	}
	s.Require().NoError(s.store.Append(context.Background(), entry))
	return entry
}

func (s *PostgresStoreSuite) TestAppendAndListRoundTrip() {
	ctx := context.Background()
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	expenseID := uuid.New()
	entry := &models.Entry{
		ID:        uuid.New(),
		UserID:    s.userID,
		ExpenseID: &expenseID,
		Action:    models.ActionUpdate,
		Change: models.Change{
			Field: "amount",
			Old:   150.0,
			New:   180.0,
		},
		Description: `Updated amount from "150" to "180"`,
		Timestamp:   at,
	}
	s.Require().NoError(s.store.Append(ctx, entry))

	entries, err := s.store.ListByUser(ctx, s.userID, models.QueryFilter{})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)

	got := entries[0]
	s.Equal(entry.ID, got.ID)
	s.Require().NotNil(got.ExpenseID)
	s.Equal(expenseID, *got.ExpenseID)
	s.Equal(models.ActionUpdate, got.Action)
	s.Equal("amount", got.Change.Field)
	s.Equal(150.0, got.Change.Old)
	s.Equal(180.0, got.Change.New)
	s.Equal(entry.Description, got.Description)
	s.True(got.Timestamp.Equal(at))
}

func (s *PostgresStoreSuite) TestSnapshotChangeSurvivesJSONB() {
	ctx := context.Background()

	s.appendEntry(models.ActionCreate, time.Now().UTC(), models.Change{
		Field: models.FieldAll,
		New: models.Snapshot{
			Description: "Coffee",
			Amount:      150,
			Date:        "2024-03-09",
		},
	})

	entries, err := s.store.ListByUser(ctx, s.userID, models.QueryFilter{})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)

	snapshot, ok := entries[0].Change.New.(map[string]any)
	s.Require().True(ok)
	s.Equal("Coffee", snapshot["description"])
	s.Equal(150.0, snapshot["amount"])
	s.Equal("2024-03-09", snapshot["date"])
}

func (s *PostgresStoreSuite) TestFiltersAndOrdering() {
	ctx := context.Background()
	base := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	s.appendEntry(models.ActionCreate, base.Add(-48*time.Hour), models.Change{Field: models.FieldAll})
	middle := s.appendEntry(models.ActionUpdate, base.Add(-24*time.Hour), models.Change{Field: "amount"})
	newest := s.appendEntry(models.ActionDelete, base, models.Change{Field: models.FieldAll})

	entries, err := s.store.ListByUser(ctx, s.userID, models.QueryFilter{})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(newest.ID, entries[0].ID)

	entries, err = s.store.ListByUser(ctx, s.userID, models.QueryFilter{Action: models.ActionUpdate})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(middle.ID, entries[0].ID)

	from := base.Add(-36 * time.Hour)
	to := base.Add(-12 * time.Hour)
	entries, err = s.store.ListByUser(ctx, s.userID, models.QueryFilter{From: &from, To: &to})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(middle.ID, entries[0].ID)

	entries, err = s.store.ListByUser(ctx, s.userID, models.QueryFilter{Limit: 2})
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *PostgresStoreSuite) TestCountByAction() {
	ctx := context.Background()
	now := time.Now().UTC()

	s.appendEntry(models.ActionCreate, now, models.Change{Field: models.FieldAll})
	s.appendEntry(models.ActionCreate, now, models.Change{Field: models.FieldAll})
	s.appendEntry(models.ActionLogin, now, models.Change{})

	otherID := uuid.New()
	s.insertUser(otherID, "other@example.com")
	other := &models.Entry{
		ID:        uuid.New(),
		UserID:    otherID,
		Action:    models.ActionDelete,
		Timestamp: now,
	}
	s.Require().NoError(s.store.Append(ctx, other))

	counts, err := s.store.CountByAction(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(2, counts[models.ActionCreate])
	s.Equal(1, counts[models.ActionLogin])
	s.Zero(counts[models.ActionDelete])
}
