package models

import (
	"errors"
	"time"
)

var (
	ErrInvitationExpired = errors.New("invitation has expired")
	ErrInvitationUsed    = errors.New("invitation has already been used")
	ErrSelfInvitation    = errors.New("you cannot accept your own invitation")
)

// Invitation is a single-use, time-limited token. Accepting it creates a
// Connection between the inviter and the accepting user.
type Invitation struct {
	Token         string
	InviterUserID string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	IsUsed        bool
}

// Expired reports whether the invitation is past its expiration at now.
func (inv *Invitation) Expired(now time.Time) bool {
	return inv.ExpiresAt.Before(now)
}

// CheckAcceptable validates that userID may accept the invitation at now.
// Checks run in a fixed order: expiry, then use, then self-invite.
func (inv *Invitation) CheckAcceptable(userID string, now time.Time) error {
	if inv.Expired(now) {
		return ErrInvitationExpired
	}
	if inv.IsUsed {
		return ErrInvitationUsed
	}
	if inv.InviterUserID == userID {
		return ErrSelfInvitation
	}
	return nil
}
