package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/expensemate/internal/auth"
	"github.com/mmynk/expensemate/internal/ledger"
	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

// currentUser resolves the caller's user record from the identity in ctx.
func currentUser(ctx context.Context, users storage.UserStore) (*models.User, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	user, err := users.GetUserByTokenIdentifier(ctx, id.TokenIdentifier())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current user: %w", err)
	}
	return user, nil
}

// memberConnection loads a connection and checks that userID belongs to it.
func memberConnection(ctx context.Context, conns storage.ConnectionStore, connectionID, userID string) (*models.Connection, error) {
	conn, err := conns.GetConnection(ctx, connectionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrConnectionNotFound
	}
	if err != nil {
		return nil, err
	}
	if !conn.HasMember(userID) {
		return nil, ErrNotParticipant
	}
	return conn, nil
}

// sharedLedger computes the ledger between userID and the other member of conn.
func sharedLedger(ctx context.Context, store storage.Store, conn *models.Connection, userID string) (ledger.SharedLedger, error) {
	otherID := conn.OtherUserID(userID)

	rowsA, err := store.ListUserExpenses(ctx, userID)
	if err != nil {
		return ledger.SharedLedger{}, err
	}
	rowsB, err := store.ListUserExpenses(ctx, otherID)
	if err != nil {
		return ledger.SharedLedger{}, err
	}

	inA := make(map[string]bool, len(rowsA))
	for _, r := range rowsA {
		inA[r.ExpenseID] = true
	}
	var ids []string
	seen := make(map[string]bool)
	for _, r := range rowsB {
		if inA[r.ExpenseID] && !seen[r.ExpenseID] {
			seen[r.ExpenseID] = true
			ids = append(ids, r.ExpenseID)
		}
	}

	expenses, err := store.GetExpenses(ctx, ids)
	if err != nil {
		return ledger.SharedLedger{}, err
	}

	return ledger.ComputeSharedLedger(userID, rowsA, otherID, rowsB, ledger.ExpenseMap(expenses)), nil
}
