package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mmynk/expensemate/internal/models"
)

func insertAuditLog(ctx context.Context, tx *sql.Tx, entry *models.AuditLog) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to encode audit changes: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_logs (id, expense_id, actor_user_id, action, changes, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ExpenseID, entry.ActorUserID, string(entry.Action), string(changes),
		entry.Note, toNanos(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	for _, userID := range entry.Recipients {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO audit_log_recipients (audit_log_id, user_id) VALUES (?, ?)`,
			entry.ID, userID,
		); err != nil {
			return fmt.Errorf("failed to insert audit recipient: %w", err)
		}
	}
	return nil
}

// ListAuditLogsForExpense returns the history of one expense, newest first.
func (s *SQLiteStore) ListAuditLogsForExpense(ctx context.Context, expenseID string) ([]*models.AuditLog, error) {
	return s.listAuditLogs(ctx,
		`SELECT id, expense_id, actor_user_id, action, changes, note, created_at
		 FROM audit_logs WHERE expense_id = ?
		 ORDER BY created_at DESC, rowid DESC`, expenseID)
}

// ListAuditLogsForRecipient returns every entry fanned out to the user,
// newest first.
func (s *SQLiteStore) ListAuditLogsForRecipient(ctx context.Context, userID string) ([]*models.AuditLog, error) {
	return s.listAuditLogs(ctx,
		`SELECT l.id, l.expense_id, l.actor_user_id, l.action, l.changes, l.note, l.created_at
		 FROM audit_logs l
		 JOIN audit_log_recipients r ON r.audit_log_id = l.id
		 WHERE r.user_id = ?
		 ORDER BY l.created_at DESC, l.rowid DESC`, userID)
}

// ListAuditLogsForPair returns entries fanned out to both users, newest first.
func (s *SQLiteStore) ListAuditLogsForPair(ctx context.Context, userA, userB string) ([]*models.AuditLog, error) {
	return s.listAuditLogs(ctx,
		`SELECT l.id, l.expense_id, l.actor_user_id, l.action, l.changes, l.note, l.created_at
		 FROM audit_logs l
		 JOIN audit_log_recipients a ON a.audit_log_id = l.id AND a.user_id = ?
		 JOIN audit_log_recipients b ON b.audit_log_id = l.id AND b.user_id = ?
		 ORDER BY l.created_at DESC, l.rowid DESC`, userA, userB)
}

func (s *SQLiteStore) listAuditLogs(ctx context.Context, query string, args ...any) ([]*models.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var (
			action, changes string
			note            sql.NullString
			createdAt       int64
		)
		if err := rows.Scan(&entry.ID, &entry.ExpenseID, &entry.ActorUserID, &action, &changes, &note, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entry.Action = models.AuditAction(action)
		entry.Note = stringPtr(note)
		entry.CreatedAt = fromNanos(createdAt)
		if err := json.Unmarshal([]byte(changes), &entry.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode audit changes: %w", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}
	rows.Close()

	// Recipients are loaded after the cursor is closed; the pool holds a
	// single connection.
	for _, entry := range logs {
		recipients, err := s.auditRecipients(ctx, entry.ID)
		if err != nil {
			return nil, err
		}
		entry.Recipients = recipients
	}
	return logs, nil
}

func (s *SQLiteStore) auditRecipients(ctx context.Context, logID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM audit_log_recipients WHERE audit_log_id = ? ORDER BY user_id`, logID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit recipients: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan audit recipient: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
