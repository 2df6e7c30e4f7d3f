package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

// ActivityPublisher pushes committed audit entries to their recipients.
type ActivityPublisher interface {
	PublishActivity(userIDs []string, log api.AuditLog)
}

type noopPublisher struct{}

func (noopPublisher) PublishActivity([]string, api.AuditLog) {}

// ActivityService implements the ActivityService RPC interface.
type ActivityService struct {
	store  storage.Store
	logger *slog.Logger
}

var _ api.ActivityServiceHandler = (*ActivityService)(nil)

// NewActivityService creates a new activity service.
func NewActivityService(store storage.Store, logger *slog.Logger) *ActivityService {
	return &ActivityService{store: store, logger: logger}
}

// GetExpenseAuditLogs returns the history of one expense. It keeps working
// after the expense is deleted, for anyone the entries were fanned out to.
func (s *ActivityService) GetExpenseAuditLogs(ctx context.Context, req *connect.Request[api.GetExpenseAuditLogsRequest]) (*connect.Response[api.AuditLogsResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	logs, err := s.store.ListAuditLogsForExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		s.logger.Error("ListAuditLogsForExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}
	if len(logs) == 0 {
		return nil, toConnectError(ErrExpenseNotFound)
	}
	if !isRecipient(logs, me.ID) {
		return nil, toConnectError(ErrNotParticipant)
	}

	return s.respond(ctx, logs)
}

// GetMyActivityFeed returns every entry fanned out to the caller.
func (s *ActivityService) GetMyActivityFeed(ctx context.Context, req *connect.Request[api.GetMyActivityFeedRequest]) (*connect.Response[api.AuditLogsResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	logs, err := s.store.ListAuditLogsForRecipient(ctx, me.ID)
	if err != nil {
		s.logger.Error("ListAuditLogsForRecipient failed", "user_id", me.ID, "error", err)
		return nil, toConnectError(err)
	}
	return s.respond(ctx, logs)
}

// GetActivityForConnection returns entries fanned out to both members of a
// connection.
func (s *ActivityService) GetActivityForConnection(ctx context.Context, req *connect.Request[api.GetActivityForConnectionRequest]) (*connect.Response[api.AuditLogsResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	conn, err := memberConnection(ctx, s.store, req.Msg.ConnectionID, me.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	logs, err := s.store.ListAuditLogsForPair(ctx, conn.InviterUserID, conn.InviteeUserID)
	if err != nil {
		s.logger.Error("ListAuditLogsForPair failed", "connection_id", conn.ID, "error", err)
		return nil, toConnectError(err)
	}
	return s.respond(ctx, logs)
}

// GetActivityWithUser returns entries fanned out to both the caller and a
// user they are connected to.
func (s *ActivityService) GetActivityWithUser(ctx context.Context, req *connect.Request[api.GetActivityWithUserRequest]) (*connect.Response[api.AuditLogsResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	conns, err := s.store.ListConnections(ctx, me.ID)
	if err != nil {
		s.logger.Error("ListConnections failed", "user_id", me.ID, "error", err)
		return nil, toConnectError(err)
	}
	connected := false
	for _, c := range conns {
		if c.OtherUserID(me.ID) == req.Msg.UserID {
			connected = true
			break
		}
	}
	if !connected {
		return nil, toConnectError(ErrNotParticipant)
	}

	logs, err := s.store.ListAuditLogsForPair(ctx, me.ID, req.Msg.UserID)
	if err != nil {
		s.logger.Error("ListAuditLogsForPair failed", "user_id", me.ID, "other_user_id", req.Msg.UserID, "error", err)
		return nil, toConnectError(err)
	}
	return s.respond(ctx, logs)
}

func (s *ActivityService) respond(ctx context.Context, logs []*models.AuditLog) (*connect.Response[api.AuditLogsResponse], error) {
	var actorIDs []string
	seen := make(map[string]bool)
	for _, l := range logs {
		if !seen[l.ActorUserID] {
			seen[l.ActorUserID] = true
			actorIDs = append(actorIDs, l.ActorUserID)
		}
	}

	actors, err := s.store.GetUsers(ctx, actorIDs)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]api.AuditLog, len(logs))
	for i, l := range logs {
		name := ""
		if u, ok := actors[l.ActorUserID]; ok {
			name = u.Name
		}
		out[i] = toAPIAuditLog(l, name)
	}
	return connect.NewResponse(&api.AuditLogsResponse{Logs: out}), nil
}

func isRecipient(logs []*models.AuditLog, userID string) bool {
	for _, l := range logs {
		for _, r := range l.Recipients {
			if r == userID {
				return true
			}
		}
	}
	return false
}
