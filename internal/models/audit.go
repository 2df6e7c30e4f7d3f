package models

import "time"

// AuditAction is the kind of change an audit entry records.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// FieldChange is one tracked field that differs between two snapshots.
// Before and After hold the serialized value; nil means the field had no value.
type FieldChange struct {
	Key    string  `json:"key"`
	Before *string `json:"before,omitempty"`
	After  *string `json:"after,omitempty"`
}

// AuditLog is an immutable history entry for an expense.
type AuditLog struct {
	ID          string
	ExpenseID   string
	ActorUserID string
	Action      AuditAction
	Changes     []FieldChange
	Note        *string
	CreatedAt   time.Time

	// Recipients are the users the entry is fanned out to (every participant
	// of the expense at write time).
	Recipients []string
}
