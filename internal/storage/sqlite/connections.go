package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

// GetConnection retrieves a connection by ID.
func (s *SQLiteStore) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	conn, err := scanConnection(s.db.QueryRowContext(ctx,
		`SELECT id, inviter_user_id, invitee_user_id, accepted_at FROM connections WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("connection %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

// ListConnections returns every connection the user belongs to, on either side.
func (s *SQLiteStore) ListConnections(ctx context.Context, userID string) ([]*models.Connection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, inviter_user_id, invitee_user_id, accepted_at
		 FROM connections
		 WHERE inviter_user_id = ? OR invitee_user_id = ?
		 ORDER BY accepted_at, id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []*models.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connections: %w", err)
	}
	return conns, nil
}

// DeleteConnection removes the shared rows, the shared expenses and then the
// connection in one transaction.
func (s *SQLiteStore) DeleteConnection(ctx context.Context, connectionID string, expenseIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(expenseIDs) > 0 {
		placeholders, args := inClause(expenseIDs)
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM user_expenses WHERE expense_id IN (`+placeholders+`)`, args...); err != nil {
			return fmt.Errorf("failed to delete shared rows: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM expenses WHERE id IN (`+placeholders+`)`, args...); err != nil {
			return fmt.Errorf("failed to delete shared expenses: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, connectionID)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("connection %s: %w", connectionID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanConnection(row rowScanner) (*models.Connection, error) {
	conn := &models.Connection{}
	var acceptedAt int64
	if err := row.Scan(&conn.ID, &conn.InviterUserID, &conn.InviteeUserID, &acceptedAt); err != nil {
		return nil, err
	}
	conn.AcceptedAt = fromNanos(acceptedAt)
	return conn, nil
}

func insertConnection(ctx context.Context, tx *sql.Tx, conn *models.Connection) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO connections (id, inviter_user_id, invitee_user_id, accepted_at) VALUES (?, ?, ?, ?)`,
		conn.ID, conn.InviterUserID, conn.InviteeUserID, toNanos(conn.AcceptedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert connection: %w", err)
	}
	return nil
}
