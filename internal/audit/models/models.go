package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "spendtrail/pkg/domain-errors"
)

// Action identifies what kind of event an audit entry records.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
)

// validActions is the single source of truth for recognized actions.
var validActions = map[Action]bool{
	ActionCreate: true,
	ActionUpdate: true,
	ActionDelete: true,
	ActionLogin:  true,
	ActionLogout: true,
}

// CRUDActions are the actions counted by Stats; login/logout are excluded from
// the operation breakdown.
var CRUDActions = []Action{ActionCreate, ActionUpdate, ActionDelete}

// ParseAction constructs an Action from external input (query filters).
// Returns CodeValidation when the value is unsupported.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown action kind")
	}
	return a, nil
}

// IsValid checks if the action is one of the supported enum values.
func (a Action) IsValid() bool {
	return validActions[a]
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// FieldAll marks a change record that carries a whole-record snapshot rather
// than a single-field diff (create and delete entries).
const FieldAll = "all"

// Change is the per-entry diff payload. For update entries Field names the
// changed field and Old/New carry its values; for create/delete entries Field
// is "all" and the non-nil side carries a Snapshot.
type Change struct {
	Field string `json:"field"`
	Old   any    `json:"oldValue"`
	New   any    `json:"newValue"`
}

// Snapshot is a denormalized copy of an expense's tracked fields captured at
// event time. Delete entries depend on it: the referenced expense no longer
// exists once the entry is read.
type Snapshot struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

// Entry is one audit trail record. Entries are append-only: they are created
// as a side effect of a tracked action and never mutated afterwards.
type Entry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ExpenseID   *uuid.UUID
	Action      Action
	Change      Change
	Description string
	Timestamp   time.Time
}

// QueryFilter narrows a trail query. Zero values mean "no constraint".
// To is end-of-day inclusive: a filter with To=2024-01-05 matches entries up to
// 2024-01-05T23:59:59.999...Z.
type QueryFilter struct {
	Action Action
	From   *time.Time
	To     *time.Time
	Limit  int
}

// Stats counts entries per CRUD action kind. Login/logout entries are not
// included. All kinds are always present, defaulting to zero.
type Stats struct {
	Create int `json:"create"`
	Update int `json:"update"`
	Delete int `json:"delete"`
}
