package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/storage"
)

// ConnectionService implements the ConnectionService RPC interface.
type ConnectionService struct {
	store  storage.Store
	logger *slog.Logger
}

var _ api.ConnectionServiceHandler = (*ConnectionService)(nil)

// NewConnectionService creates a new connection service.
func NewConnectionService(store storage.Store, logger *slog.Logger) *ConnectionService {
	return &ConnectionService{store: store, logger: logger}
}

// GetConnection returns a connection the caller belongs to.
func (s *ConnectionService) GetConnection(ctx context.Context, req *connect.Request[api.GetConnectionRequest]) (*connect.Response[api.GetConnectionResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	conn, err := memberConnection(ctx, s.store, req.Msg.ConnectionID, me.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetConnectionResponse{Connection: toAPIConnection(conn)}), nil
}

// ListConnectedUsers returns every user the caller is connected with and the
// caller's balance with each.
func (s *ConnectionService) ListConnectedUsers(ctx context.Context, req *connect.Request[api.ListConnectedUsersRequest]) (*connect.Response[api.ListConnectedUsersResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	conns, err := s.store.ListConnections(ctx, me.ID)
	if err != nil {
		s.logger.Error("ListConnections failed", "user_id", me.ID, "error", err)
		return nil, toConnectError(err)
	}

	otherIDs := make([]string, len(conns))
	for i, c := range conns {
		otherIDs[i] = c.OtherUserID(me.ID)
	}
	users, err := s.store.GetUsers(ctx, otherIDs)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]api.ConnectedUser, 0, len(conns))
	for _, c := range conns {
		other, ok := users[c.OtherUserID(me.ID)]
		if !ok {
			s.logger.Warn("Connected user missing", "connection_id", c.ID)
			continue
		}
		l, err := sharedLedger(ctx, s.store, c, me.ID)
		if err != nil {
			s.logger.Error("Ledger computation failed", "connection_id", c.ID, "error", err)
			return nil, toConnectError(err)
		}
		out = append(out, api.ConnectedUser{
			ConnectionID: c.ID,
			UserID:       other.ID,
			Name:         other.Name,
			TotalBalance: l.TotalBalance,
		})
	}

	return connect.NewResponse(&api.ListConnectedUsersResponse{Users: out}), nil
}

// GetSharedExpenses returns the ledger between the caller and the other
// member of a connection, newest first.
func (s *ConnectionService) GetSharedExpenses(ctx context.Context, req *connect.Request[api.GetSharedExpensesRequest]) (*connect.Response[api.GetSharedExpensesResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	conn, err := memberConnection(ctx, s.store, req.Msg.ConnectionID, me.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	otherID := conn.OtherUserID(me.ID)
	other, err := s.store.GetUser(ctx, otherID)
	if err != nil {
		return nil, toConnectError(err)
	}

	l, err := sharedLedger(ctx, s.store, conn, me.ID)
	if err != nil {
		s.logger.Error("Ledger computation failed", "connection_id", conn.ID, "error", err)
		return nil, toConnectError(err)
	}

	items := make([]api.SharedExpense, len(l.Items))
	for i, item := range l.Items {
		items[i] = api.SharedExpense{
			Expense:    toAPIExpense(item.Expense),
			AmountPaid: item.RowA.AmountPaid,
			AmountOwed: item.RowA.AmountOwed,
			Balance:    item.Balance,
		}
	}

	return connect.NewResponse(&api.GetSharedExpensesResponse{
		OtherUserID:   other.ID,
		OtherUserName: other.Name,
		TotalBalance:  l.TotalBalance,
		Expenses:      items,
	}), nil
}

// DeleteConnection removes a connection together with every expense the two
// users share.
func (s *ConnectionService) DeleteConnection(ctx context.Context, req *connect.Request[api.DeleteConnectionRequest]) (*connect.Response[api.DeleteConnectionResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	conn, err := memberConnection(ctx, s.store, req.Msg.ConnectionID, me.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	l, err := sharedLedger(ctx, s.store, conn, me.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	ids := l.ExpenseIDs()
	if err := s.store.DeleteConnection(ctx, conn.ID, ids); err != nil {
		s.logger.Error("DeleteConnection failed", "connection_id", conn.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Connection deleted", "connection_id", conn.ID, "expenses", len(ids))
	return connect.NewResponse(&api.DeleteConnectionResponse{DeletedExpenses: len(ids)}), nil
}
