package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	auditService "spendtrail/internal/audit/service"
	auditStore "spendtrail/internal/audit/store"
	"spendtrail/internal/expense/service"
	expenseStore "spendtrail/internal/expense/store"
	"spendtrail/internal/platform/middleware"
	"spendtrail/pkg/testutil"
)

const validToken = "valid-token"

// staticValidator accepts one token and resolves it to fixed claims.
type staticValidator struct {
	claims middleware.JWTClaims
}

func (v *staticValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token != validToken {
		return nil, errors.New("invalid token")
	}
	claims := v.claims
	return &claims, nil
}

type fixture struct {
	router http.Handler
	userID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	userID := uuid.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	trail := auditStore.NewInMemory()
	audit := auditService.New(trail, auditService.WithLogger(logger))
	expenses := service.New(expenseStore.NewInMemory(), audit, service.WithLogger(logger))

	validator := &staticValidator{claims: middleware.JWTClaims{
		UserID:    userID,
		Email:     "user@example.com",
		TokenID:   uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
	}}

	router := chi.NewRouter()
	New(expenses, logger, validator, nil).Register(router)

	return &fixture{router: router, userID: userID}
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+validToken)
	return req
}

func TestExpenseRoutesRequireAuth(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewRequest(t, http.MethodGet, "/api/expense")
	rec := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = testutil.NewRequest(t, http.MethodGet, "/api/expense")
	req.Header.Set("Authorization", "Bearer wrong")
	rec = testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListExpenses(t *testing.T) {
	f := newFixture(t)

	req := authed(testutil.NewJSONRequest(t, http.MethodPost, "/api/expense", map[string]any{
		"description": "Coffee",
		"amount":      150,
		"date":        "2024-03-09",
	}))
	rec := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Date        string  `json:"date"`
	}
	testutil.DecodeJSON(t, rec, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Coffee", created.Description)
	require.Equal(t, 150.0, created.Amount)
	require.Equal(t, "2024-03-09", created.Date)

	rec = testutil.DoRequest(f.router, authed(testutil.NewRequest(t, http.MethodGet, "/api/expense")))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, rec, &listed)
	require.Len(t, listed, 1)
	require.Equal(t, created.ID, listed[0].ID)
}

func TestCreateExpenseValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing amount", map[string]any{"description": "Coffee"}},
		{"negative amount", map[string]any{"description": "Coffee", "amount": -5}},
		{"blank description", map[string]any{"description": "  ", "amount": 10}},
		{"malformed date", map[string]any{"description": "Coffee", "amount": 10, "date": "09/03/2024"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authed(testutil.NewJSONRequest(t, http.MethodPost, "/api/expense", tc.body))
			rec := testutil.DoRequest(f.router, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateExpense(t *testing.T) {
	f := newFixture(t)

	req := authed(testutil.NewJSONRequest(t, http.MethodPost, "/api/expense", map[string]any{
		"description": "Coffee",
		"amount":      150,
		"date":        "2024-03-09",
	}))
	rec := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, rec, &created)

	req = authed(testutil.NewJSONRequest(t, http.MethodPut, "/api/expense/"+created.ID, map[string]any{
		"amount": 180,
	}))
	rec = testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated struct {
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
	}
	testutil.DecodeJSON(t, rec, &updated)
	require.Equal(t, 180.0, updated.Amount)
	require.Equal(t, "Coffee", updated.Description)
}

func TestUpdateExpenseNotFound(t *testing.T) {
	f := newFixture(t)

	req := authed(testutil.NewJSONRequest(t, http.MethodPut, "/api/expense/"+uuid.NewString(), map[string]any{
		"amount": 180,
	}))
	rec := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	req = authed(testutil.NewJSONRequest(t, http.MethodPut, "/api/expense/not-a-uuid", map[string]any{
		"amount": 180,
	}))
	rec = testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteExpense(t *testing.T) {
	f := newFixture(t)

	req := authed(testutil.NewJSONRequest(t, http.MethodPost, "/api/expense", map[string]any{
		"description": "Coffee",
		"amount":      150,
	}))
	rec := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, rec, &created)

	rec = testutil.DoRequest(f.router, authed(testutil.NewRequest(t, http.MethodDelete, "/api/expense/"+created.ID)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = testutil.DoRequest(f.router, authed(testutil.NewRequest(t, http.MethodDelete, "/api/expense/"+created.ID)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
