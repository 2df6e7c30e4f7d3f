package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// Service names and their path prefixes.
const (
	UserServiceName       = "expensemate.v1.UserService"
	InvitationServiceName = "expensemate.v1.InvitationService"
	ConnectionServiceName = "expensemate.v1.ConnectionService"
	ExpenseServiceName    = "expensemate.v1.ExpenseService"
	ActivityServiceName   = "expensemate.v1.ActivityService"
	CurrencyServiceName   = "expensemate.v1.CurrencyService"
)

// Procedure names.
const (
	UserServiceRegisterProcedure       = "/" + UserServiceName + "/Register"
	UserServiceLoginProcedure          = "/" + UserServiceName + "/Login"
	UserServicePersistUserProcedure    = "/" + UserServiceName + "/PersistUser"
	UserServiceGetCurrentUserProcedure = "/" + UserServiceName + "/GetCurrentUser"

	InvitationServiceCreateInvitationLinkProcedure = "/" + InvitationServiceName + "/CreateInvitationLink"
	InvitationServiceGetInvitationProcedure        = "/" + InvitationServiceName + "/GetInvitation"
	InvitationServiceAcceptInvitationProcedure     = "/" + InvitationServiceName + "/AcceptInvitation"
	InvitationServiceExpireAllInvitationsProcedure = "/" + InvitationServiceName + "/ExpireAllInvitations"

	ConnectionServiceGetConnectionProcedure      = "/" + ConnectionServiceName + "/GetConnection"
	ConnectionServiceListConnectedUsersProcedure = "/" + ConnectionServiceName + "/ListConnectedUsers"
	ConnectionServiceGetSharedExpensesProcedure  = "/" + ConnectionServiceName + "/GetSharedExpenses"
	ConnectionServiceDeleteConnectionProcedure   = "/" + ConnectionServiceName + "/DeleteConnection"

	ExpenseServiceCreateExpenseProcedure = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceUpdateExpenseProcedure = "/" + ExpenseServiceName + "/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure = "/" + ExpenseServiceName + "/DeleteExpense"
	ExpenseServiceGetMyExpensesProcedure = "/" + ExpenseServiceName + "/GetMyExpenses"

	ActivityServiceGetExpenseAuditLogsProcedure      = "/" + ActivityServiceName + "/GetExpenseAuditLogs"
	ActivityServiceGetMyActivityFeedProcedure        = "/" + ActivityServiceName + "/GetMyActivityFeed"
	ActivityServiceGetActivityForConnectionProcedure = "/" + ActivityServiceName + "/GetActivityForConnection"
	ActivityServiceGetActivityWithUserProcedure      = "/" + ActivityServiceName + "/GetActivityWithUser"

	CurrencyServiceGetLatestExchangeRateProcedure  = "/" + CurrencyServiceName + "/GetLatestExchangeRate"
	CurrencyServiceGetSupportedCurrenciesProcedure = "/" + CurrencyServiceName + "/GetSupportedCurrencies"
)

// UserServiceHandler is implemented by the user service.
type UserServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error)
	PersistUser(context.Context, *connect.Request[PersistUserRequest]) (*connect.Response[PersistUserResponse], error)
	GetCurrentUser(context.Context, *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error)
}

// InvitationServiceHandler is implemented by the invitation service.
type InvitationServiceHandler interface {
	CreateInvitationLink(context.Context, *connect.Request[CreateInvitationLinkRequest]) (*connect.Response[CreateInvitationLinkResponse], error)
	GetInvitation(context.Context, *connect.Request[GetInvitationRequest]) (*connect.Response[GetInvitationResponse], error)
	AcceptInvitation(context.Context, *connect.Request[AcceptInvitationRequest]) (*connect.Response[AcceptInvitationResponse], error)
	ExpireAllInvitations(context.Context, *connect.Request[ExpireAllInvitationsRequest]) (*connect.Response[ExpireAllInvitationsResponse], error)
}

// ConnectionServiceHandler is implemented by the connection service.
type ConnectionServiceHandler interface {
	GetConnection(context.Context, *connect.Request[GetConnectionRequest]) (*connect.Response[GetConnectionResponse], error)
	ListConnectedUsers(context.Context, *connect.Request[ListConnectedUsersRequest]) (*connect.Response[ListConnectedUsersResponse], error)
	GetSharedExpenses(context.Context, *connect.Request[GetSharedExpensesRequest]) (*connect.Response[GetSharedExpensesResponse], error)
	DeleteConnection(context.Context, *connect.Request[DeleteConnectionRequest]) (*connect.Response[DeleteConnectionResponse], error)
}

// ExpenseServiceHandler is implemented by the expense service.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	GetMyExpenses(context.Context, *connect.Request[GetMyExpensesRequest]) (*connect.Response[GetMyExpensesResponse], error)
}

// ActivityServiceHandler is implemented by the activity service.
type ActivityServiceHandler interface {
	GetExpenseAuditLogs(context.Context, *connect.Request[GetExpenseAuditLogsRequest]) (*connect.Response[AuditLogsResponse], error)
	GetMyActivityFeed(context.Context, *connect.Request[GetMyActivityFeedRequest]) (*connect.Response[AuditLogsResponse], error)
	GetActivityForConnection(context.Context, *connect.Request[GetActivityForConnectionRequest]) (*connect.Response[AuditLogsResponse], error)
	GetActivityWithUser(context.Context, *connect.Request[GetActivityWithUserRequest]) (*connect.Response[AuditLogsResponse], error)
}

// CurrencyServiceHandler is implemented by the currency service.
type CurrencyServiceHandler interface {
	GetLatestExchangeRate(context.Context, *connect.Request[GetLatestExchangeRateRequest]) (*connect.Response[GetLatestExchangeRateResponse], error)
	GetSupportedCurrencies(context.Context, *connect.Request[GetSupportedCurrenciesRequest]) (*connect.Response[GetSupportedCurrenciesResponse], error)
}

// handlerOptions adds the codec and request validation. Validation runs
// inside the caller's interceptors, so authentication is checked first.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	out := append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	return append(out, connect.WithInterceptors(ValidateInterceptor()))
}

func unary[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// NewUserServiceHandler builds an HTTP handler for the user service. It
// returns the path prefix to mount it on.
func NewUserServiceHandler(svc UserServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	unary(mux, UserServiceRegisterProcedure, svc.Register, opts)
	unary(mux, UserServiceLoginProcedure, svc.Login, opts)
	unary(mux, UserServicePersistUserProcedure, svc.PersistUser, opts)
	unary(mux, UserServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts)
	return "/" + UserServiceName + "/", mux
}

// NewInvitationServiceHandler builds an HTTP handler for the invitation service.
func NewInvitationServiceHandler(svc InvitationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	unary(mux, InvitationServiceCreateInvitationLinkProcedure, svc.CreateInvitationLink, opts)
	unary(mux, InvitationServiceGetInvitationProcedure, svc.GetInvitation, opts)
	unary(mux, InvitationServiceAcceptInvitationProcedure, svc.AcceptInvitation, opts)
	unary(mux, InvitationServiceExpireAllInvitationsProcedure, svc.ExpireAllInvitations, opts)
	return "/" + InvitationServiceName + "/", mux
}

// NewConnectionServiceHandler builds an HTTP handler for the connection service.
func NewConnectionServiceHandler(svc ConnectionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	unary(mux, ConnectionServiceGetConnectionProcedure, svc.GetConnection, opts)
	unary(mux, ConnectionServiceListConnectedUsersProcedure, svc.ListConnectedUsers, opts)
	unary(mux, ConnectionServiceGetSharedExpensesProcedure, svc.GetSharedExpenses, opts)
	unary(mux, ConnectionServiceDeleteConnectionProcedure, svc.DeleteConnection, opts)
	return "/" + ConnectionServiceName + "/", mux
}

// NewExpenseServiceHandler builds an HTTP handler for the expense service.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	unary(mux, ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts)
	unary(mux, ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts)
	unary(mux, ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts)
	unary(mux, ExpenseServiceGetMyExpensesProcedure, svc.GetMyExpenses, opts)
	return "/" + ExpenseServiceName + "/", mux
}

// NewActivityServiceHandler builds an HTTP handler for the activity service.
func NewActivityServiceHandler(svc ActivityServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	unary(mux, ActivityServiceGetExpenseAuditLogsProcedure, svc.GetExpenseAuditLogs, opts)
	unary(mux, ActivityServiceGetMyActivityFeedProcedure, svc.GetMyActivityFeed, opts)
	unary(mux, ActivityServiceGetActivityForConnectionProcedure, svc.GetActivityForConnection, opts)
	unary(mux, ActivityServiceGetActivityWithUserProcedure, svc.GetActivityWithUser, opts)
	return "/" + ActivityServiceName + "/", mux
}

// NewCurrencyServiceHandler builds an HTTP handler for the currency service.
func NewCurrencyServiceHandler(svc CurrencyServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	unary(mux, CurrencyServiceGetLatestExchangeRateProcedure, svc.GetLatestExchangeRate, opts)
	unary(mux, CurrencyServiceGetSupportedCurrenciesProcedure, svc.GetSupportedCurrencies, opts)
	return "/" + CurrencyServiceName + "/", mux
}
