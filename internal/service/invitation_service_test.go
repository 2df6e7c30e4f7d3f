package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/api"
)

func TestInvitationFlow(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	ctx := context.Background()

	link, err := alice.invitations.CreateInvitationLink(ctx, connect.NewRequest(&api.CreateInvitationLinkRequest{}))
	if err != nil {
		t.Fatalf("CreateInvitationLink failed: %v", err)
	}
	if len(link.Msg.Token) != 32 {
		t.Errorf("token: expected 32 hex chars, got %q", link.Msg.Token)
	}
	if link.Msg.InvitationLink != "http://app.test/invite/"+link.Msg.Token {
		t.Errorf("link: got %q", link.Msg.InvitationLink)
	}
	if d := time.Until(link.Msg.ExpiresAt); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("expiration: expected about 24h from now, got %v", d)
	}

	got, err := bob.invitations.GetInvitation(ctx, connect.NewRequest(&api.GetInvitationRequest{Token: link.Msg.Token}))
	if err != nil {
		t.Fatalf("GetInvitation failed: %v", err)
	}
	if got.Msg.InviterName != "Alice" {
		t.Errorf("inviter: expected 'Alice', got %q", got.Msg.InviterName)
	}

	_, err = alice.invitations.GetInvitation(ctx, connect.NewRequest(&api.GetInvitationRequest{Token: link.Msg.Token}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	accepted, err := bob.invitations.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{Token: link.Msg.Token}))
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	conn := accepted.Msg.Connection
	if conn.InviterUserID != alice.user.ID || conn.InviteeUserID != bob.user.ID {
		t.Errorf("connection members: got %s/%s", conn.InviterUserID, conn.InviteeUserID)
	}

	for _, c := range []*clients{alice, bob} {
		resp, err := c.connections.ListConnectedUsers(ctx, connect.NewRequest(&api.ListConnectedUsersRequest{}))
		if err != nil {
			t.Fatalf("ListConnectedUsers failed: %v", err)
		}
		if len(resp.Msg.Users) != 1 || resp.Msg.Users[0].ConnectionID != conn.ID {
			t.Errorf("connected users for %s: got %+v", c.user.Name, resp.Msg.Users)
		}
	}
}

func TestAcceptInvitationRejected(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	carol := env.signIn("carol", "Carol")
	ctx := context.Background()

	newLink := func() string {
		t.Helper()
		resp, err := alice.invitations.CreateInvitationLink(ctx, connect.NewRequest(&api.CreateInvitationLinkRequest{}))
		if err != nil {
			t.Fatalf("CreateInvitationLink failed: %v", err)
		}
		return resp.Msg.Token
	}
	connectionCount := func(c *clients) int {
		t.Helper()
		resp, err := c.connections.ListConnectedUsers(ctx, connect.NewRequest(&api.ListConnectedUsersRequest{}))
		if err != nil {
			t.Fatalf("ListConnectedUsers failed: %v", err)
		}
		return len(resp.Msg.Users)
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := bob.invitations.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{Token: "nope"}))
		assertCode(t, err, connect.CodeNotFound)
	})

	t.Run("self", func(t *testing.T) {
		_, err := alice.invitations.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{Token: newLink()}))
		assertCode(t, err, connect.CodeFailedPrecondition)
		if n := connectionCount(alice); n != 0 {
			t.Errorf("connections: expected 0, got %d", n)
		}
	})

	t.Run("used", func(t *testing.T) {
		token := newLink()
		if _, err := bob.invitations.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{Token: token})); err != nil {
			t.Fatalf("AcceptInvitation failed: %v", err)
		}
		_, err := carol.invitations.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{Token: token}))
		assertCode(t, err, connect.CodeFailedPrecondition)
		if n := connectionCount(carol); n != 0 {
			t.Errorf("connections: expected 0, got %d", n)
		}
	})

	t.Run("expired", func(t *testing.T) {
		token := newLink()
		env.invitations.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
		defer func() { env.invitations.now = time.Now }()

		_, err := carol.invitations.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{Token: token}))
		assertCode(t, err, connect.CodeFailedPrecondition)
		if !strings.Contains(err.Error(), "expired") {
			t.Errorf("expected expiry message, got %v", err)
		}
		if n := connectionCount(carol); n != 0 {
			t.Errorf("connections: expected 0, got %d", n)
		}
	})
}

func TestExpireAllAndSweep(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	ctx := context.Background()

	var tokens []string
	for range 2 {
		resp, err := alice.invitations.CreateInvitationLink(ctx, connect.NewRequest(&api.CreateInvitationLinkRequest{}))
		if err != nil {
			t.Fatalf("CreateInvitationLink failed: %v", err)
		}
		tokens = append(tokens, resp.Msg.Token)
	}
	bobLink, err := bob.invitations.CreateInvitationLink(ctx, connect.NewRequest(&api.CreateInvitationLinkRequest{}))
	if err != nil {
		t.Fatalf("CreateInvitationLink failed: %v", err)
	}

	expired, err := alice.invitations.ExpireAllInvitations(ctx, connect.NewRequest(&api.ExpireAllInvitationsRequest{}))
	if err != nil {
		t.Fatalf("ExpireAllInvitations failed: %v", err)
	}
	if expired.Msg.Expired != 2 {
		t.Errorf("expired: expected 2, got %d", expired.Msg.Expired)
	}

	_, err = bob.invitations.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{Token: tokens[0]}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	swept, err := env.invitations.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if swept != 2 {
		t.Errorf("swept: expected 2, got %d", swept)
	}

	_, err = bob.invitations.GetInvitation(ctx, connect.NewRequest(&api.GetInvitationRequest{Token: tokens[1]}))
	assertCode(t, err, connect.CodeNotFound)

	// Other users' invitations are untouched.
	if _, err := alice.invitations.GetInvitation(ctx, connect.NewRequest(&api.GetInvitationRequest{Token: bobLink.Msg.Token})); err != nil {
		t.Errorf("GetInvitation for bob's link failed: %v", err)
	}
}
