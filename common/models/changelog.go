package models

import "time"

// ActionType describes what kind of edit produced a change-log row.
type ActionType string

const (
	ActionCreated ActionType = "created"
	ActionUpdated ActionType = "updated"
	ActionDeleted ActionType = "deleted"
)

// ChangeLogEntry is one row of the append-only audit trail: one claim field
// changed by one edit event. Rows are never updated or deleted. All rows
// written for a single claim update share the same timestamp.
// Maps to: claim_change_log table
type ChangeLogEntry struct {
	ID        int64      `db:"id" json:"id"`
	ClaimID   int        `db:"claim_id" json:"claim_id"`
	UserID    int        `db:"user_id" json:"user_id"`
	Username  string     `db:"username" json:"username"`
	CptID     *int       `db:"cpt_id" json:"cpt_id"`
	Timestamp time.Time  `db:"timestamp" json:"timestamp"`
	FieldName string     `db:"field_name" json:"field_name"`
	OldValue  *string    `db:"old_value" json:"old_value"`
	NewValue  *string    `db:"new_value" json:"new_value"`
	Action    ActionType `db:"action_type" json:"action_type"`

	// Denormalized display columns, populated only by the joined
	// all-history query.
	CptCode   *string `db:"cpt_code" json:"cpt_code,omitempty"`
	FirstName *string `db:"first_name" json:"first_name,omitempty"`
	LastName  *string `db:"last_name" json:"last_name,omitempty"`
}

// HistoryFilter narrows the global change-log listing. All conditions are
// AND-combined; zero values are skipped.
type HistoryFilter struct {
	UserID    *int
	CptID     *int
	StartDate string
	EndDate   string
}
