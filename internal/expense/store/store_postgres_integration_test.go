//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"spendtrail/internal/expense/models"
	"spendtrail/internal/expense/store"
	"spendtrail/pkg/platform/sentinel"
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
	_, err := s.postgres.DB.Exec(
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		s.userID, "Asha", "asha@example.com", "hash", time.Now().UTC(),
	)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newExpense(description string, amount float64, date time.Time) *models.Expense {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Expense{
		ID:          uuid.New(),
		UserID:      s.userID,
		Description: description,
		Amount:      amount,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	date := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	expense := s.newExpense("Coffee", 150.5, date)
	s.Require().NoError(s.store.Create(ctx, expense))

	got, err := s.store.FindByUserAndID(ctx, s.userID, expense.ID)
	s.Require().NoError(err)
	s.Equal(expense.ID, got.ID)
	s.Equal("Coffee", got.Description)
	s.Equal(150.5, got.Amount)
	s.True(got.Date.Equal(date))
}

func (s *PostgresStoreSuite) TestOwnerScoping() {
	ctx := context.Background()

	expense := s.newExpense("Coffee", 150, time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, expense))

	_, err := s.store.FindByUserAndID(ctx, uuid.New(), expense.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Delete(ctx, uuid.New(), expense.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Still present for the owner.
	_, err = s.store.FindByUserAndID(ctx, s.userID, expense.ID)
	s.NoError(err)
}

func (s *PostgresStoreSuite) TestUpdateAndDelete() {
	ctx := context.Background()

	expense := s.newExpense("Coffee", 150, time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, expense))

	expense.Amount = 180
	expense.Description = "Espresso"
	expense.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Update(ctx, expense))

	got, err := s.store.FindByUserAndID(ctx, s.userID, expense.ID)
	s.Require().NoError(err)
	s.Equal(180.0, got.Amount)
	s.Equal("Espresso", got.Description)

	s.Require().NoError(s.store.Delete(ctx, s.userID, expense.ID))
	s.ErrorIs(s.store.Delete(ctx, s.userID, expense.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrdering() {
	ctx := context.Background()

	older := s.newExpense("Old", 10, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	newer := s.newExpense("New", 20, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(ctx, older))
	s.Require().NoError(s.store.Create(ctx, newer))

	expenses, err := s.store.ListByUser(ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(expenses, 2)
	s.Equal(newer.ID, expenses[0].ID)
	s.Equal(older.ID, expenses[1].ID)
}

func (s *PostgresStoreSuite) TestSumByDay() {
	ctx := context.Background()

	for _, e := range []*models.Expense{
		s.newExpense("A", 100, time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)),
		s.newExpense("B", 50, time.Date(2024, 3, 9, 21, 0, 0, 0, time.UTC)),
		s.newExpense("C", 30, time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)),
		s.newExpense("Early", 999, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
	} {
		s.Require().NoError(s.store.Create(ctx, e))
	}

	totals, err := s.store.SumByDay(ctx, s.userID, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal(map[string]float64{
		"2024-03-09": 150,
		"2024-03-10": 30,
	}, totals)
}
