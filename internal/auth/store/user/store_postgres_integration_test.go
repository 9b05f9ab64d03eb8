//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"spendtrail/internal/auth/models"
	"spendtrail/internal/auth/store/user"
	"spendtrail/pkg/platform/sentinel"
	"spendtrail/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_logs", "expenses", "users"))
}

func (s *PostgresStoreSuite) newUser(email string) *models.User {
	return &models.User{
		ID:           uuid.New(),
		Name:         "Asha",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()

	u := s.newUser("asha@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	byEmail, err := s.store.FindByEmail(ctx, "Asha@Example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("asha@example.com", byID.Email)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateEmailMapsToConflict() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, s.newUser("dup@example.com")))
	s.ErrorIs(s.store.Create(ctx, s.newUser("dup@example.com")), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdatePasswordHash() {
	ctx := context.Background()

	u := s.newUser("asha@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	s.Require().NoError(s.store.UpdatePasswordHash(ctx, u.ID, "new-hash"))

	got, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("new-hash", got.PasswordHash)

	s.ErrorIs(s.store.UpdatePasswordHash(ctx, uuid.New(), "x"), sentinel.ErrNotFound)
}
