package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "spendtrail/pkg/domain-errors"
)

// DateLayout is the calendar-day format used on the wire and in audit
// snapshots and daily summary buckets.
const DateLayout = "2006-01-02"

// Expense is a single spending record. Every query and mutation is scoped by
// UserID: an expense is never visible to, or mutable by, a non-owning identity.
type Expense struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Description string
	Amount      float64
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateExpenseRequest carries the caller-supplied fields for a new expense.
type CreateExpenseRequest struct {
	Description string
	Amount      float64
	Date        time.Time
}

func (r *CreateExpenseRequest) Normalize() {
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateExpenseRequest) Validate() error {
	if r.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// UpdateExpenseRequest is a partial update; nil fields are left unchanged.
type UpdateExpenseRequest struct {
	Description *string
	Amount      *float64
	Date        *time.Time
}

func (r *UpdateExpenseRequest) Normalize() {
	if r.Description != nil {
		trimmed := strings.TrimSpace(*r.Description)
		r.Description = &trimmed
	}
}

func (r *UpdateExpenseRequest) Validate() error {
	if r.Description != nil && *r.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "description must not be empty")
	}
	if r.Amount != nil && *r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if r.Description == nil && r.Amount == nil && r.Date == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	return nil
}
