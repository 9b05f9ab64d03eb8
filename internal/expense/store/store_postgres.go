package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spendtrail/internal/expense/models"
	"spendtrail/pkg/platform/sentinel"
)

// Postgres persists expenses in the expenses table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, expense *models.Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, description, amount, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		expense.ID,
		expense.UserID,
		expense.Description,
		expense.Amount,
		expense.Date,
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *Postgres) FindByUserAndID(ctx context.Context, userID, id uuid.UUID) (*models.Expense, error) {
	query := `
		SELECT id, user_id, description, amount, date, created_at, updated_at
		FROM expenses
		WHERE user_id = $1 AND id = $2
	`
	expense, err := scanExpense(s.db.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return expense, nil
}

func (s *Postgres) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Expense, error) {
	query := `
		SELECT id, user_id, description, amount, date, created_at, updated_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (s *Postgres) Update(ctx context.Context, expense *models.Expense) error {
	query := `
		UPDATE expenses
		SET description = $3, amount = $4, date = $5, updated_at = $6
		WHERE user_id = $1 AND id = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		expense.UserID,
		expense.ID,
		expense.Description,
		expense.Amount,
		expense.Date,
		expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// SumByDay returns per-UTC-day expense totals for the user, keyed by
// DateLayout date strings, for expenses dated at or after from.
func (s *Postgres) SumByDay(ctx context.Context, userID uuid.UUID, from time.Time) (map[string]float64, error) {
	query := `
		SELECT to_char(date AT TIME ZONE 'UTC', 'YYYY-MM-DD'), SUM(amount)
		FROM expenses
		WHERE user_id = $1 AND date >= $2
		GROUP BY 1
	`
	rows, err := s.db.QueryContext(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("sum expenses by day: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var (
			day   string
			total float64
		)
		if err := rows.Scan(&day, &total); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals[day] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return totals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var expense models.Expense
	err := row.Scan(
		&expense.ID,
		&expense.UserID,
		&expense.Description,
		&expense.Amount,
		&expense.Date,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}
