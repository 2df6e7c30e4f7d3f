package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

// DefaultInvitationTTL is how long a fresh invitation link stays valid.
const DefaultInvitationTTL = 24 * time.Hour

// InvitationService implements the InvitationService RPC interface.
type InvitationService struct {
	store   storage.Store
	baseURL string
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

var _ api.InvitationServiceHandler = (*InvitationService)(nil)

// NewInvitationService creates a new invitation service. Links are built on
// baseURL; a non-positive ttl uses DefaultInvitationTTL.
func NewInvitationService(store storage.Store, baseURL string, ttl time.Duration, logger *slog.Logger) *InvitationService {
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	return &InvitationService{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// InvitationPath is the front-end path for an invitation token.
func InvitationPath(token string) string {
	return "/invite/" + token
}

// CreateInvitationLink issues a single-use invitation for the caller.
func (s *InvitationService) CreateInvitationLink(ctx context.Context, req *connect.Request[api.CreateInvitationLinkRequest]) (*connect.Response[api.CreateInvitationLinkResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	token, err := newToken()
	if err != nil {
		s.logger.Error("Failed to generate invitation token", "error", err)
		return nil, toConnectError(err)
	}

	now := s.now().UTC()
	inv := &models.Invitation{
		Token:         token,
		InviterUserID: me.ID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		s.logger.Error("CreateInvitationLink failed", "user_id", me.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Invitation created", "user_id", me.ID, "expires_at", inv.ExpiresAt)
	return connect.NewResponse(&api.CreateInvitationLinkResponse{
		InvitationLink: s.baseURL + InvitationPath(token),
		Token:          token,
		ExpiresAt:      inv.ExpiresAt,
	}), nil
}

// GetInvitation returns an invitation and its inviter's name.
func (s *InvitationService) GetInvitation(ctx context.Context, req *connect.Request[api.GetInvitationRequest]) (*connect.Response[api.GetInvitationResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	inv, err := s.store.GetInvitation(ctx, req.Msg.Token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, toConnectError(ErrInvitationNotFound)
	}
	if err != nil {
		return nil, toConnectError(err)
	}
	if inv.InviterUserID == me.ID {
		return nil, toConnectError(ErrSelfInvitation)
	}

	inviter, err := s.store.GetUser(ctx, inv.InviterUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, toConnectError(ErrUserNotFound)
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetInvitationResponse{
		InviterName: inviter.Name,
		Invitation:  toAPIInvitation(inv),
	}), nil
}

// AcceptInvitation connects the caller with the inviter. The invitation is
// checked, marked used and the connection created in one transaction.
func (s *InvitationService) AcceptInvitation(ctx context.Context, req *connect.Request[api.AcceptInvitationRequest]) (*connect.Response[api.AcceptInvitationResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	now := s.now().UTC()
	conn, err := s.store.AcceptInvitation(ctx, req.Msg.Token, me.ID, now, func(inv *models.Invitation) error {
		return inv.CheckAcceptable(me.ID, now)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, toConnectError(ErrInvitationNotFound)
	}
	if err != nil {
		s.logger.Warn("AcceptInvitation failed", "user_id", me.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Invitation accepted", "connection_id", conn.ID, "inviter", conn.InviterUserID, "invitee", conn.InviteeUserID)
	return connect.NewResponse(&api.AcceptInvitationResponse{Connection: toAPIConnection(conn)}), nil
}

// ExpireAllInvitations expires every invitation the caller has created.
func (s *InvitationService) ExpireAllInvitations(ctx context.Context, req *connect.Request[api.ExpireAllInvitationsRequest]) (*connect.Response[api.ExpireAllInvitationsResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	n, err := s.store.ExpireInvitations(ctx, me.ID, time.Unix(0, 0).UTC())
	if err != nil {
		s.logger.Error("ExpireAllInvitations failed", "user_id", me.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Invitations expired", "user_id", me.ID, "count", n)
	return connect.NewResponse(&api.ExpireAllInvitationsResponse{Expired: n}), nil
}

// SweepExpired deletes every invitation that has expired.
func (s *InvitationService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredInvitations(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep invitations: %w", err)
	}
	return n, nil
}

// newToken returns 128 random bits, hex encoded.
func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
