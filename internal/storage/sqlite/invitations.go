package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

// CreateInvitation persists a new invitation.
func (s *SQLiteStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invitations (token, inviter_user_id, created_at, expires_at, is_used) VALUES (?, ?, ?, ?, ?)`,
		inv.Token, inv.InviterUserID, toNanos(inv.CreatedAt), toNanos(inv.ExpiresAt), inv.IsUsed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invitation: %w", err)
	}
	return nil
}

// GetInvitation retrieves an invitation by token.
func (s *SQLiteStore) GetInvitation(ctx context.Context, token string) (*models.Invitation, error) {
	inv, err := getInvitation(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// AcceptInvitation marks the invitation used and creates the connection in a
// single transaction, after check has validated the invitation.
func (s *SQLiteStore) AcceptInvitation(
	ctx context.Context,
	token, inviteeUserID string,
	acceptedAt time.Time,
	check func(*models.Invitation) error,
) (*models.Connection, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inv, err := getInvitation(ctx, tx, token)
	if err != nil {
		return nil, err
	}
	if err := check(inv); err != nil {
		return nil, err
	}

	// The is_used guard keeps a concurrent acceptance from succeeding twice.
	res, err := tx.ExecContext(ctx,
		`UPDATE invitations SET is_used = 1 WHERE token = ? AND is_used = 0`, token)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invitation used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, models.ErrInvitationUsed
	}

	conn := &models.Connection{
		ID:            uuid.New().String(),
		InviterUserID: inv.InviterUserID,
		InviteeUserID: inviteeUserID,
		AcceptedAt:    acceptedAt.UTC(),
	}
	if err := insertConnection(ctx, tx, conn); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return conn, nil
}

// ExpireInvitations sets the expiration of every invitation created by the
// user to at.
func (s *SQLiteStore) ExpireInvitations(ctx context.Context, inviterUserID string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invitations SET expires_at = ? WHERE inviter_user_id = ?`, toNanos(at), inviterUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpiredInvitations removes every invitation that expired before now.
func (s *SQLiteStore) DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invitations WHERE expires_at < ?`, toNanos(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}
	return res.RowsAffected()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getInvitation(ctx context.Context, q queryRower, token string) (*models.Invitation, error) {
	inv := &models.Invitation{}
	var createdAt, expiresAt int64
	err := q.QueryRowContext(ctx,
		`SELECT token, inviter_user_id, created_at, expires_at, is_used FROM invitations WHERE token = ?`, token,
	).Scan(&inv.Token, &inv.InviterUserID, &createdAt, &expiresAt, &inv.IsUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invitation: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	inv.CreatedAt = fromNanos(createdAt)
	inv.ExpiresAt = fromNanos(expiresAt)
	return inv, nil
}
