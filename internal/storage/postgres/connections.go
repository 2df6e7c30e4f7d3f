package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

const connectionColumns = `id, inviter_user_id, invitee_user_id, accepted_at`

func (s *Store) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	conn, err := scanConnection(s.pool.QueryRow(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("connection %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

func (s *Store) ListConnections(ctx context.Context, userID string) ([]*models.Connection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+connectionColumns+` FROM connections
		 WHERE inviter_user_id = $1 OR invitee_user_id = $1
		 ORDER BY accepted_at, id`, userID)
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

func (s *Store) DeleteConnection(ctx context.Context, connectionID string, expenseIDs []string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if len(expenseIDs) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM user_expenses WHERE expense_id = ANY($1)`, expenseIDs); err != nil {
				return fmt.Errorf("failed to delete shared rows: %w", err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM expenses WHERE id = ANY($1)`, expenseIDs); err != nil {
				return fmt.Errorf("failed to delete shared expenses: %w", err)
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM connections WHERE id = $1`, connectionID)
		if err != nil {
			return fmt.Errorf("failed to delete connection: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("connection %s: %w", connectionID, storage.ErrNotFound)
		}
		return nil
	})
}

func scanConnection(row pgx.Row) (*models.Connection, error) {
	conn := &models.Connection{}
	if err := row.Scan(&conn.ID, &conn.InviterUserID, &conn.InviteeUserID, &conn.AcceptedAt); err != nil {
		return nil, err
	}
	conn.AcceptedAt = utc(conn.AcceptedAt)
	return conn, nil
}

func (s *Store) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO invitations (token, inviter_user_id, created_at, expires_at, is_used) VALUES ($1, $2, $3, $4, $5)`,
		inv.Token, inv.InviterUserID, utc(inv.CreatedAt), utc(inv.ExpiresAt), inv.IsUsed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invitation: %w", err)
	}
	return nil
}

func (s *Store) GetInvitation(ctx context.Context, token string) (*models.Invitation, error) {
	return getInvitation(ctx, s.pool, token, false)
}

// AcceptInvitation locks the invitation row for the duration of the
// transaction, so concurrent acceptances serialize on it.
func (s *Store) AcceptInvitation(
	ctx context.Context,
	token, inviteeUserID string,
	acceptedAt time.Time,
	check func(*models.Invitation) error,
) (*models.Connection, error) {
	var conn *models.Connection
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		inv, err := getInvitation(ctx, tx, token, true)
		if err != nil {
			return err
		}
		if err := check(inv); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE invitations SET is_used = TRUE WHERE token = $1`, token); err != nil {
			return fmt.Errorf("failed to mark invitation used: %w", err)
		}

		c := &models.Connection{
			ID:            uuid.New().String(),
			InviterUserID: inv.InviterUserID,
			InviteeUserID: inviteeUserID,
			AcceptedAt:    acceptedAt.UTC(),
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO connections (`+connectionColumns+`) VALUES ($1, $2, $3, $4)`,
			c.ID, c.InviterUserID, c.InviteeUserID, c.AcceptedAt,
		); err != nil {
			return fmt.Errorf("failed to insert connection: %w", err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *Store) ExpireInvitations(ctx context.Context, inviterUserID string, at time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invitations SET expires_at = $1 WHERE inviter_user_id = $2`, utc(at), inviterUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invitations WHERE expires_at < $1`, utc(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func getInvitation(ctx context.Context, q querier, token string, forUpdate bool) (*models.Invitation, error) {
	query := `SELECT token, inviter_user_id, created_at, expires_at, is_used FROM invitations WHERE token = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	inv := &models.Invitation{}
	err := q.QueryRow(ctx, query, token).Scan(&inv.Token, &inv.InviterUserID, &inv.CreatedAt, &inv.ExpiresAt, &inv.IsUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invitation: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	inv.CreatedAt = utc(inv.CreatedAt)
	inv.ExpiresAt = utc(inv.ExpiresAt)
	return inv, nil
}
