// Package audit builds change history entries for expenses.
package audit

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/expensemate/internal/models"
)

// Snapshot is a flat view of a record's tracked fields. A missing key means
// the field has no value.
type Snapshot map[string]any

// ExpenseFields are the expense fields recorded in audit entries, in the
// order changes are reported.
var ExpenseFields = []string{
	"name",
	"date",
	"category",
	"totalCost",
	"currency",
	"paidBy",
	"originalCurrency",
	"originalTotalCost",
	"exchangeRate",
	"conversionDate",
	SplitField,
}

// SplitField is the tracked key for the split mode. It lives on the
// participation rows, so callers set it with WithSplit.
const SplitField = "split"

// WithSplit records the split mode on s and returns it.
func WithSplit(s Snapshot, mode string) Snapshot {
	if s != nil {
		s[SplitField] = mode
	}
	return s
}

// ExpenseSnapshot captures the tracked fields of e. A nil expense yields a
// nil snapshot.
func ExpenseSnapshot(e *models.Expense) Snapshot {
	if e == nil {
		return nil
	}
	s := Snapshot{
		"name":      e.Name,
		"date":      e.Date.UTC().Format(time.RFC3339),
		"totalCost": e.TotalCost,
		"currency":  e.Currency,
		"paidBy":    e.PaidBy,
	}
	if e.Category != nil {
		s["category"] = *e.Category
	}
	if e.OriginalCurrency != nil {
		s["originalCurrency"] = *e.OriginalCurrency
	}
	if e.OriginalTotalCost != nil {
		s["originalTotalCost"] = *e.OriginalTotalCost
	}
	if e.ExchangeRate != nil {
		s["exchangeRate"] = *e.ExchangeRate
	}
	if e.ConversionDate != nil {
		s["conversionDate"] = e.ConversionDate.UTC().Format(time.RFC3339)
	}
	return s
}

// Diff returns one change per field in fields whose serialized value differs
// between before and after. Either side may be nil. The result is never nil,
// so callers can test len(changes) == 0.
func Diff(before, after Snapshot, fields []string) []models.FieldChange {
	changes := []models.FieldChange{}
	for _, key := range fields {
		b := serialize(before, key)
		a := serialize(after, key)
		if equal(b, a) {
			continue
		}
		changes = append(changes, models.FieldChange{Key: key, Before: b, After: a})
	}
	return changes
}

// NewEntry builds an audit entry for a change to an expense. For updates it
// reports false when no tracked field changed and nothing should be logged.
func NewEntry(action models.AuditAction, expenseID, actorUserID string, before, after Snapshot) (*models.AuditLog, bool) {
	changes := Diff(before, after, ExpenseFields)
	if action == models.AuditUpdate && len(changes) == 0 {
		return nil, false
	}
	return &models.AuditLog{
		ID:          uuid.New().String(),
		ExpenseID:   expenseID,
		ActorUserID: actorUserID,
		Action:      action,
		Changes:     changes,
		CreatedAt:   time.Now().UTC(),
	}, true
}

func serialize(s Snapshot, key string) *string {
	if s == nil {
		return nil
	}
	v, ok := s[key]
	if !ok || v == nil {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil
	}
	out := string(bytes.TrimRight(buf.Bytes(), "\n"))
	return &out
}

func equal(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
