package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"spendtrail/internal/audit/models"
)

// Postgres persists the audit trail in the audit_logs table.
// The table is append-only: no update or delete statements exist here.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, entry *models.Entry) error {
	changeBytes, err := json.Marshal(entry.Change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, user_id, expense_id, action, change, description, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.ExpenseID,
		string(entry.Action),
		changeBytes,
		entry.Description,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Postgres) ListByUser(ctx context.Context, userID uuid.UUID, filter models.QueryFilter) ([]*models.Entry, error) {
	query := `
		SELECT id, user_id, expense_id, action, change, description, timestamp
		FROM audit_logs
		WHERE user_id = $1
	`
	args := []any{userID}

	if filter.Action != "" {
		args = append(args, string(filter.Action))
		query += " AND action = $" + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += " AND timestamp >= $" + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += " AND timestamp <= $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Postgres) CountByAction(ctx context.Context, userID uuid.UUID) (map[models.Action]int, error) {
	query := `
		SELECT action, COUNT(*)
		FROM audit_logs
		WHERE user_id = $1
		GROUP BY action
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Action]int)
	for rows.Next() {
		var (
			action string
			count  int
		)
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("scan audit count: %w", err)
		}
		counts[models.Action(action)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit counts: %w", err)
	}
	return counts, nil
}

func scanEntries(rows *sql.Rows) ([]*models.Entry, error) {
	var entries []*models.Entry

	for rows.Next() {
		var (
			entry       models.Entry
			expenseID   *uuid.UUID
			changeBytes []byte
			action      string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&expenseID,
			&action,
			&changeBytes,
			&entry.Description,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.Action = models.Action(action)
		entry.ExpenseID = expenseID
		if len(changeBytes) > 0 {
			if err := json.Unmarshal(changeBytes, &entry.Change); err != nil {
				return nil, fmt.Errorf("unmarshal change: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
