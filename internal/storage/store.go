// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/expensemate/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations the services depend on.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
//
// Methods that change more than one table run in a single transaction: either
// every write is visible afterwards or none is.
type Store interface {
	UserStore
	ConnectionStore
	InvitationStore
	ExpenseStore
	ExchangeRateStore
	AuditStore

	// Close releases any resources held by the store.
	Close() error
}

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// UpdateUser overwrites name, email, password hash and updated_at.
	UpdateUser(ctx context.Context, user *models.User) error

	// GetUser, GetUserByTokenIdentifier and GetUserByEmail return
	// ErrNotFound when no user matches.
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByTokenIdentifier(ctx context.Context, tokenIdentifier string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUsers returns users keyed by ID. Unknown IDs are omitted.
	GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// ConnectionStore persists connections.
type ConnectionStore interface {
	GetConnection(ctx context.Context, id string) (*models.Connection, error)

	// ListConnections returns every connection userID is a member of,
	// oldest first.
	ListConnections(ctx context.Context, userID string) ([]*models.Connection, error)

	// DeleteConnection removes the participation rows and expenses listed in
	// expenseIDs, then the connection itself.
	DeleteConnection(ctx context.Context, connectionID string, expenseIDs []string) error
}

// InvitationStore persists invitations.
type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitation(ctx context.Context, token string) (*models.Invitation, error)

	// AcceptInvitation loads the invitation, runs check against it and, if
	// check passes, marks it used and inserts a connection between the
	// inviter and inviteeUserID. Returns ErrNotFound for an unknown token and
	// check's error unchanged when it fails.
	AcceptInvitation(ctx context.Context, token, inviteeUserID string, acceptedAt time.Time, check func(*models.Invitation) error) (*models.Connection, error)

	// ExpireInvitations sets the expiration of every invitation created by
	// inviterUserID to at. Returns the number of rows changed.
	ExpireInvitations(ctx context.Context, inviterUserID string, at time.Time) (int64, error)

	// DeleteExpiredInvitations removes invitations that expired before now.
	DeleteExpiredInvitations(ctx context.Context, now time.Time) (int64, error)
}

// ExpenseStore persists expenses and their participation rows.
type ExpenseStore interface {
	// CreateExpense inserts the expense, its rows and the audit entry.
	CreateExpense(ctx context.Context, expense *models.Expense, rows []models.UserExpense, entry *models.AuditLog) error

	// UpdateExpense overwrites the expense and the amounts of its existing
	// rows. entry may be nil when nothing worth logging changed.
	UpdateExpense(ctx context.Context, expense *models.Expense, rows []models.UserExpense, entry *models.AuditLog) error

	// DeleteExpense removes the rows, then the expense, and records entry.
	DeleteExpense(ctx context.Context, expenseID string, entry *models.AuditLog) error

	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// GetExpenses returns expenses keyed by ID. Unknown IDs are omitted.
	GetExpenses(ctx context.Context, ids []string) (map[string]*models.Expense, error)

	// ListUserExpenses returns every participation row of userID in
	// insertion order.
	ListUserExpenses(ctx context.Context, userID string) ([]models.UserExpense, error)

	// ListExpenseRows returns the participation rows of one expense.
	ListExpenseRows(ctx context.Context, expenseID string) ([]models.UserExpense, error)
}

// ExchangeRateStore persists the append-only exchange rate table.
type ExchangeRateStore interface {
	AddExchangeRates(ctx context.Context, rates []models.ExchangeRate) error

	// LatestExchangeRate returns the newest rate for currency, or nil when
	// none is stored.
	LatestExchangeRate(ctx context.Context, currency string) (*models.ExchangeRate, error)
}

// AuditStore reads audit entries. Entries are written by the expense
// mutations they describe.
type AuditStore interface {
	// ListAuditLogsForExpense returns entries for expenseID, newest first.
	ListAuditLogsForExpense(ctx context.Context, expenseID string) ([]*models.AuditLog, error)

	// ListAuditLogsForRecipient returns entries fanned out to userID,
	// newest first.
	ListAuditLogsForRecipient(ctx context.Context, userID string) ([]*models.AuditLog, error)

	// ListAuditLogsForPair returns entries fanned out to both users,
	// newest first.
	ListAuditLogsForPair(ctx context.Context, userA, userB string) ([]*models.AuditLog, error)
}
