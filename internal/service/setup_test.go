package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/auth"
	"github.com/mmynk/expensemate/internal/currency"
	"github.com/mmynk/expensemate/internal/middleware"
	"github.com/mmynk/expensemate/internal/storage/sqlite"
)

const testIssuer = "https://issuer.test"

// recordingPublisher captures published activity.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	userIDs []string
	log     api.AuditLog
}

func (p *recordingPublisher) PublishActivity(userIDs []string, log api.AuditLog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userIDs: userIDs, log: log})
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// testEnv is a running server backed by a temp sqlite database.
type testEnv struct {
	t           *testing.T
	store       *sqlite.SQLiteStore
	url         string
	jwt         *auth.JWTManager
	invitations *InvitationService
	publisher   *recordingPublisher
}

// clients are typed clients authenticated as one user.
type clients struct {
	user        api.User
	users       *api.UserServiceClient
	invitations *api.InvitationServiceClient
	connections *api.ConnectionServiceClient
	expenses    *api.ExpenseServiceClient
	activity    *api.ActivityServiceClient
	currency    *api.CurrencyServiceClient
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", testIssuer, time.Hour)
	passwords := auth.NewPasswordAuthenticator(store, testIssuer)
	converter := currency.NewConverter(store)
	publisher := &recordingPublisher{}

	invitationSvc := NewInvitationService(store, "http://app.test", 24*time.Hour, logger)

	required := connect.WithInterceptors(middleware.RequireAuth(jwtManager))
	optional := connect.WithInterceptors(middleware.OptionalAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(api.NewUserServiceHandler(NewUserService(store, passwords, jwtManager, logger), optional))
	mux.Handle(api.NewInvitationServiceHandler(invitationSvc, required))
	mux.Handle(api.NewConnectionServiceHandler(NewConnectionService(store, logger), required))
	mux.Handle(api.NewExpenseServiceHandler(NewExpenseService(store, converter, publisher, logger), required))
	mux.Handle(api.NewActivityServiceHandler(NewActivityService(store, logger), required))
	mux.Handle(api.NewCurrencyServiceHandler(NewCurrencyService(converter, logger), required))

	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testEnv{
		t:           t,
		store:       store,
		url:         server.URL,
		jwt:         jwtManager,
		invitations: invitationSvc,
		publisher:   publisher,
	}
}

// withToken sets the bearer token on every outgoing request.
func withToken(token string) connect.ClientOption {
	return connect.WithInterceptors(connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}))
}

func (e *testEnv) clientsWithToken(token string) *clients {
	opt := withToken(token)
	return &clients{
		users:       api.NewUserServiceClient(http.DefaultClient, e.url, opt),
		invitations: api.NewInvitationServiceClient(http.DefaultClient, e.url, opt),
		connections: api.NewConnectionServiceClient(http.DefaultClient, e.url, opt),
		expenses:    api.NewExpenseServiceClient(http.DefaultClient, e.url, opt),
		activity:    api.NewActivityServiceClient(http.DefaultClient, e.url, opt),
		currency:    api.NewCurrencyServiceClient(http.DefaultClient, e.url, opt),
	}
}

// signIn issues a token for subject and persists the user.
func (e *testEnv) signIn(subject, name string) *clients {
	e.t.Helper()

	token, err := e.jwt.Generate(auth.Identity{Subject: subject, Name: name, Email: subject + "@example.com"})
	if err != nil {
		e.t.Fatalf("Generate failed: %v", err)
	}

	c := e.clientsWithToken(token)
	resp, err := c.users.PersistUser(context.Background(), connect.NewRequest(&api.PersistUserRequest{}))
	if err != nil {
		e.t.Fatalf("PersistUser failed: %v", err)
	}
	c.user = resp.Msg.User
	return c
}

// link connects a and b through an accepted invitation.
func (e *testEnv) link(a, b *clients) api.Connection {
	e.t.Helper()
	ctx := context.Background()

	link, err := a.invitations.CreateInvitationLink(ctx, connect.NewRequest(&api.CreateInvitationLinkRequest{}))
	if err != nil {
		e.t.Fatalf("CreateInvitationLink failed: %v", err)
	}
	resp, err := b.invitations.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{Token: link.Msg.Token}))
	if err != nil {
		e.t.Fatalf("AcceptInvitation failed: %v", err)
	}
	return resp.Msg.Connection
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("code: expected %v, got %v (%v)", want, got, err)
	}
}

func boolPtr(b bool) *bool        { return &b }
func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func timeOf(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
