package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name shown to connections.
	Name string

	// Email is the user's email address. May be empty for identities that
	// do not share one.
	Email string

	// TokenIdentifier is the stable identity key issued by the auth provider
	// ("issuer|subject"). Unique.
	TokenIdentifier string

	// PasswordHash is the bcrypt hash for password accounts. Empty for users
	// that sign in through an external provider.
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(tokenIdentifier, name, email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:              uuid.New().String(),
		Name:            name,
		Email:           email,
		TokenIdentifier: tokenIdentifier,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// PersistStatus is the outcome of upserting a user from an identity.
type PersistStatus string

const (
	PersistCreated  PersistStatus = "created"
	PersistUpdated  PersistStatus = "updated"
	PersistNoChange PersistStatus = "no-change"
)
