package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/expensemate/internal/models"
)

func insertAuditLog(ctx context.Context, tx pgx.Tx, entry *models.AuditLog) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to encode audit changes: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO audit_logs (id, expense_id, actor_user_id, action, changes, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ExpenseID, entry.ActorUserID, string(entry.Action), string(changes),
		entry.Note, utc(entry.CreatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	for _, userID := range entry.Recipients {
		if _, err := tx.Exec(ctx,
			`INSERT INTO audit_log_recipients (audit_log_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			entry.ID, userID,
		); err != nil {
			return fmt.Errorf("failed to insert audit recipient: %w", err)
		}
	}
	return nil
}

// Recipients are aggregated in the same query.
const auditSelect = `SELECT l.id, l.expense_id, l.actor_user_id, l.action, l.changes, l.note, l.created_at,
	ARRAY(SELECT r.user_id FROM audit_log_recipients r WHERE r.audit_log_id = l.id ORDER BY r.user_id)
	FROM audit_logs l`

func (s *Store) ListAuditLogsForExpense(ctx context.Context, expenseID string) ([]*models.AuditLog, error) {
	return s.listAuditLogs(ctx,
		auditSelect+` WHERE l.expense_id = $1 ORDER BY l.created_at DESC, l.seq DESC`, expenseID)
}

func (s *Store) ListAuditLogsForRecipient(ctx context.Context, userID string) ([]*models.AuditLog, error) {
	return s.listAuditLogs(ctx,
		auditSelect+` JOIN audit_log_recipients a ON a.audit_log_id = l.id AND a.user_id = $1
		 ORDER BY l.created_at DESC, l.seq DESC`, userID)
}

func (s *Store) ListAuditLogsForPair(ctx context.Context, userA, userB string) ([]*models.AuditLog, error) {
	return s.listAuditLogs(ctx,
		auditSelect+` JOIN audit_log_recipients a ON a.audit_log_id = l.id AND a.user_id = $1
		 JOIN audit_log_recipients b ON b.audit_log_id = l.id AND b.user_id = $2
		 ORDER BY l.created_at DESC, l.seq DESC`, userA, userB)
}

func (s *Store) listAuditLogs(ctx context.Context, query string, args ...any) ([]*models.AuditLog, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var (
			action  string
			changes []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ExpenseID, &entry.ActorUserID, &action, &changes,
			&entry.Note, &entry.CreatedAt, &entry.Recipients); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entry.Action = models.AuditAction(action)
		entry.CreatedAt = utc(entry.CreatedAt)
		if err := json.Unmarshal(changes, &entry.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode audit changes: %w", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}
	return logs, nil
}
