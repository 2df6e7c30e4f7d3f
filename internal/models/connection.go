package models

import "time"

// Connection is an accepted pairing between the user who created an
// invitation and the user who accepted it. Immutable once created.
type Connection struct {
	ID            string
	InviterUserID string
	InviteeUserID string
	AcceptedAt    time.Time
}

// HasMember reports whether userID is one of the two connected users.
func (c *Connection) HasMember(userID string) bool {
	return c.InviterUserID == userID || c.InviteeUserID == userID
}

// OtherUserID returns the member of the connection that is not userID.
// The result is only meaningful when HasMember(userID) is true.
func (c *Connection) OtherUserID(userID string) string {
	if c.InviterUserID == userID {
		return c.InviteeUserID
	}
	return c.InviterUserID
}
