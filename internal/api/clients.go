package api

import (
	"context"

	"connectrpc.com/connect"
)

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}

// UserServiceClient is a typed client for the user service.
type UserServiceClient struct {
	register       *connect.Client[RegisterRequest, AuthResponse]
	login          *connect.Client[LoginRequest, AuthResponse]
	persistUser    *connect.Client[PersistUserRequest, PersistUserResponse]
	getCurrentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
}

// NewUserServiceClient creates a client for the service at baseURL.
func NewUserServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *UserServiceClient {
	opts = clientOptions(opts)
	return &UserServiceClient{
		register:       connect.NewClient[RegisterRequest, AuthResponse](httpClient, baseURL+UserServiceRegisterProcedure, opts...),
		login:          connect.NewClient[LoginRequest, AuthResponse](httpClient, baseURL+UserServiceLoginProcedure, opts...),
		persistUser:    connect.NewClient[PersistUserRequest, PersistUserResponse](httpClient, baseURL+UserServicePersistUserProcedure, opts...),
		getCurrentUser: connect.NewClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL+UserServiceGetCurrentUserProcedure, opts...),
	}
}

func (c *UserServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *UserServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *UserServiceClient) PersistUser(ctx context.Context, req *connect.Request[PersistUserRequest]) (*connect.Response[PersistUserResponse], error) {
	return c.persistUser.CallUnary(ctx, req)
}

func (c *UserServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

var _ UserServiceHandler = (*UserServiceClient)(nil)

// InvitationServiceClient is a typed client for the invitation service.
type InvitationServiceClient struct {
	createInvitationLink *connect.Client[CreateInvitationLinkRequest, CreateInvitationLinkResponse]
	getInvitation        *connect.Client[GetInvitationRequest, GetInvitationResponse]
	acceptInvitation     *connect.Client[AcceptInvitationRequest, AcceptInvitationResponse]
	expireAllInvitations *connect.Client[ExpireAllInvitationsRequest, ExpireAllInvitationsResponse]
}

// NewInvitationServiceClient creates a client for the service at baseURL.
func NewInvitationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *InvitationServiceClient {
	opts = clientOptions(opts)
	return &InvitationServiceClient{
		createInvitationLink: connect.NewClient[CreateInvitationLinkRequest, CreateInvitationLinkResponse](httpClient, baseURL+InvitationServiceCreateInvitationLinkProcedure, opts...),
		getInvitation:        connect.NewClient[GetInvitationRequest, GetInvitationResponse](httpClient, baseURL+InvitationServiceGetInvitationProcedure, opts...),
		acceptInvitation:     connect.NewClient[AcceptInvitationRequest, AcceptInvitationResponse](httpClient, baseURL+InvitationServiceAcceptInvitationProcedure, opts...),
		expireAllInvitations: connect.NewClient[ExpireAllInvitationsRequest, ExpireAllInvitationsResponse](httpClient, baseURL+InvitationServiceExpireAllInvitationsProcedure, opts...),
	}
}

func (c *InvitationServiceClient) CreateInvitationLink(ctx context.Context, req *connect.Request[CreateInvitationLinkRequest]) (*connect.Response[CreateInvitationLinkResponse], error) {
	return c.createInvitationLink.CallUnary(ctx, req)
}

func (c *InvitationServiceClient) GetInvitation(ctx context.Context, req *connect.Request[GetInvitationRequest]) (*connect.Response[GetInvitationResponse], error) {
	return c.getInvitation.CallUnary(ctx, req)
}

func (c *InvitationServiceClient) AcceptInvitation(ctx context.Context, req *connect.Request[AcceptInvitationRequest]) (*connect.Response[AcceptInvitationResponse], error) {
	return c.acceptInvitation.CallUnary(ctx, req)
}

func (c *InvitationServiceClient) ExpireAllInvitations(ctx context.Context, req *connect.Request[ExpireAllInvitationsRequest]) (*connect.Response[ExpireAllInvitationsResponse], error) {
	return c.expireAllInvitations.CallUnary(ctx, req)
}

var _ InvitationServiceHandler = (*InvitationServiceClient)(nil)

// ConnectionServiceClient is a typed client for the connection service.
type ConnectionServiceClient struct {
	getConnection      *connect.Client[GetConnectionRequest, GetConnectionResponse]
	listConnectedUsers *connect.Client[ListConnectedUsersRequest, ListConnectedUsersResponse]
	getSharedExpenses  *connect.Client[GetSharedExpensesRequest, GetSharedExpensesResponse]
	deleteConnection   *connect.Client[DeleteConnectionRequest, DeleteConnectionResponse]
}

// NewConnectionServiceClient creates a client for the service at baseURL.
func NewConnectionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ConnectionServiceClient {
	opts = clientOptions(opts)
	return &ConnectionServiceClient{
		getConnection:      connect.NewClient[GetConnectionRequest, GetConnectionResponse](httpClient, baseURL+ConnectionServiceGetConnectionProcedure, opts...),
		listConnectedUsers: connect.NewClient[ListConnectedUsersRequest, ListConnectedUsersResponse](httpClient, baseURL+ConnectionServiceListConnectedUsersProcedure, opts...),
		getSharedExpenses:  connect.NewClient[GetSharedExpensesRequest, GetSharedExpensesResponse](httpClient, baseURL+ConnectionServiceGetSharedExpensesProcedure, opts...),
		deleteConnection:   connect.NewClient[DeleteConnectionRequest, DeleteConnectionResponse](httpClient, baseURL+ConnectionServiceDeleteConnectionProcedure, opts...),
	}
}

func (c *ConnectionServiceClient) GetConnection(ctx context.Context, req *connect.Request[GetConnectionRequest]) (*connect.Response[GetConnectionResponse], error) {
	return c.getConnection.CallUnary(ctx, req)
}

func (c *ConnectionServiceClient) ListConnectedUsers(ctx context.Context, req *connect.Request[ListConnectedUsersRequest]) (*connect.Response[ListConnectedUsersResponse], error) {
	return c.listConnectedUsers.CallUnary(ctx, req)
}

func (c *ConnectionServiceClient) GetSharedExpenses(ctx context.Context, req *connect.Request[GetSharedExpensesRequest]) (*connect.Response[GetSharedExpensesResponse], error) {
	return c.getSharedExpenses.CallUnary(ctx, req)
}

func (c *ConnectionServiceClient) DeleteConnection(ctx context.Context, req *connect.Request[DeleteConnectionRequest]) (*connect.Response[DeleteConnectionResponse], error) {
	return c.deleteConnection.CallUnary(ctx, req)
}

var _ ConnectionServiceHandler = (*ConnectionServiceClient)(nil)

// ExpenseServiceClient is a typed client for the expense service.
type ExpenseServiceClient struct {
	createExpense *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	updateExpense *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	deleteExpense *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	getMyExpenses *connect.Client[GetMyExpensesRequest, GetMyExpensesResponse]
}

// NewExpenseServiceClient creates a client for the service at baseURL.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		createExpense: connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		updateExpense: connect.NewClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense: connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		getMyExpenses: connect.NewClient[GetMyExpensesRequest, GetMyExpensesResponse](httpClient, baseURL+ExpenseServiceGetMyExpensesProcedure, opts...),
	}
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetMyExpenses(ctx context.Context, req *connect.Request[GetMyExpensesRequest]) (*connect.Response[GetMyExpensesResponse], error) {
	return c.getMyExpenses.CallUnary(ctx, req)
}

var _ ExpenseServiceHandler = (*ExpenseServiceClient)(nil)

// ActivityServiceClient is a typed client for the activity service.
type ActivityServiceClient struct {
	getExpenseAuditLogs      *connect.Client[GetExpenseAuditLogsRequest, AuditLogsResponse]
	getMyActivityFeed        *connect.Client[GetMyActivityFeedRequest, AuditLogsResponse]
	getActivityForConnection *connect.Client[GetActivityForConnectionRequest, AuditLogsResponse]
	getActivityWithUser      *connect.Client[GetActivityWithUserRequest, AuditLogsResponse]
}

// NewActivityServiceClient creates a client for the service at baseURL.
func NewActivityServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ActivityServiceClient {
	opts = clientOptions(opts)
	return &ActivityServiceClient{
		getExpenseAuditLogs:      connect.NewClient[GetExpenseAuditLogsRequest, AuditLogsResponse](httpClient, baseURL+ActivityServiceGetExpenseAuditLogsProcedure, opts...),
		getMyActivityFeed:        connect.NewClient[GetMyActivityFeedRequest, AuditLogsResponse](httpClient, baseURL+ActivityServiceGetMyActivityFeedProcedure, opts...),
		getActivityForConnection: connect.NewClient[GetActivityForConnectionRequest, AuditLogsResponse](httpClient, baseURL+ActivityServiceGetActivityForConnectionProcedure, opts...),
		getActivityWithUser:      connect.NewClient[GetActivityWithUserRequest, AuditLogsResponse](httpClient, baseURL+ActivityServiceGetActivityWithUserProcedure, opts...),
	}
}

func (c *ActivityServiceClient) GetExpenseAuditLogs(ctx context.Context, req *connect.Request[GetExpenseAuditLogsRequest]) (*connect.Response[AuditLogsResponse], error) {
	return c.getExpenseAuditLogs.CallUnary(ctx, req)
}

func (c *ActivityServiceClient) GetMyActivityFeed(ctx context.Context, req *connect.Request[GetMyActivityFeedRequest]) (*connect.Response[AuditLogsResponse], error) {
	return c.getMyActivityFeed.CallUnary(ctx, req)
}

func (c *ActivityServiceClient) GetActivityForConnection(ctx context.Context, req *connect.Request[GetActivityForConnectionRequest]) (*connect.Response[AuditLogsResponse], error) {
	return c.getActivityForConnection.CallUnary(ctx, req)
}

func (c *ActivityServiceClient) GetActivityWithUser(ctx context.Context, req *connect.Request[GetActivityWithUserRequest]) (*connect.Response[AuditLogsResponse], error) {
	return c.getActivityWithUser.CallUnary(ctx, req)
}

var _ ActivityServiceHandler = (*ActivityServiceClient)(nil)

// CurrencyServiceClient is a typed client for the currency service.
type CurrencyServiceClient struct {
	getLatestExchangeRate  *connect.Client[GetLatestExchangeRateRequest, GetLatestExchangeRateResponse]
	getSupportedCurrencies *connect.Client[GetSupportedCurrenciesRequest, GetSupportedCurrenciesResponse]
}

// NewCurrencyServiceClient creates a client for the service at baseURL.
func NewCurrencyServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CurrencyServiceClient {
	opts = clientOptions(opts)
	return &CurrencyServiceClient{
		getLatestExchangeRate:  connect.NewClient[GetLatestExchangeRateRequest, GetLatestExchangeRateResponse](httpClient, baseURL+CurrencyServiceGetLatestExchangeRateProcedure, opts...),
		getSupportedCurrencies: connect.NewClient[GetSupportedCurrenciesRequest, GetSupportedCurrenciesResponse](httpClient, baseURL+CurrencyServiceGetSupportedCurrenciesProcedure, opts...),
	}
}

func (c *CurrencyServiceClient) GetLatestExchangeRate(ctx context.Context, req *connect.Request[GetLatestExchangeRateRequest]) (*connect.Response[GetLatestExchangeRateResponse], error) {
	return c.getLatestExchangeRate.CallUnary(ctx, req)
}

func (c *CurrencyServiceClient) GetSupportedCurrencies(ctx context.Context, req *connect.Request[GetSupportedCurrenciesRequest]) (*connect.Response[GetSupportedCurrenciesResponse], error) {
	return c.getSupportedCurrencies.CallUnary(ctx, req)
}

var _ CurrencyServiceHandler = (*CurrencyServiceClient)(nil)
