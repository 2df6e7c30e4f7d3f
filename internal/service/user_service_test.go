package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/auth"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)
	anon := env.clientsWithToken("")
	ctx := context.Background()

	reg, err := anon.users.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Password:    "correct horse",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if reg.Msg.Token == "" {
		t.Fatal("expected token")
	}
	if reg.Msg.User.Email != "alice@example.com" {
		t.Errorf("email: expected lowercased, got %q", reg.Msg.User.Email)
	}

	login, err := anon.users.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct horse",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Msg.User.ID != reg.Msg.User.ID {
		t.Errorf("user: expected %s, got %s", reg.Msg.User.ID, login.Msg.User.ID)
	}

	me, err := env.clientsWithToken(login.Msg.Token).users.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.Name != "Alice" {
		t.Errorf("name: expected 'Alice', got %q", me.Msg.User.Name)
	}
}

func TestRegisterErrors(t *testing.T) {
	env := setupTestServer(t)
	anon := env.clientsWithToken("")
	ctx := context.Background()

	_, err := anon.users.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "short",
	}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = anon.users.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "not-an-email", DisplayName: "Bob", Password: "long enough",
	}))
	assertCode(t, err, connect.CodeInvalidArgument)

	if _, err := anon.users.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "long enough",
	})); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, err = anon.users.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "BOB@example.com", DisplayName: "Bobby", Password: "long enough",
	}))
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = anon.users.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email: "bob@example.com", Password: "wrong password",
	}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestPersistUserStatuses(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	token, err := env.jwt.Generate(auth.Identity{Subject: "u1", Name: "Dana", Email: "dana@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	c := env.clientsWithToken(token)

	first, err := c.users.PersistUser(ctx, connect.NewRequest(&api.PersistUserRequest{}))
	if err != nil {
		t.Fatalf("PersistUser failed: %v", err)
	}
	if first.Msg.Status != "created" {
		t.Errorf("status: expected 'created', got %q", first.Msg.Status)
	}

	second, err := c.users.PersistUser(ctx, connect.NewRequest(&api.PersistUserRequest{}))
	if err != nil {
		t.Fatalf("PersistUser failed: %v", err)
	}
	if second.Msg.Status != "no-change" {
		t.Errorf("status: expected 'no-change', got %q", second.Msg.Status)
	}

	renamed, err := env.jwt.Generate(auth.Identity{Subject: "u1", Name: "Dana S", Email: "dana@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	third, err := env.clientsWithToken(renamed).users.PersistUser(ctx, connect.NewRequest(&api.PersistUserRequest{}))
	if err != nil {
		t.Fatalf("PersistUser failed: %v", err)
	}
	if third.Msg.Status != "updated" {
		t.Errorf("status: expected 'updated', got %q", third.Msg.Status)
	}
	if third.Msg.User.ID != first.Msg.User.ID {
		t.Error("expected the same user to be updated")
	}
	if third.Msg.User.Name != "Dana S" {
		t.Errorf("name: expected 'Dana S', got %q", third.Msg.User.Name)
	}
}

func TestPersistUserDefaultsName(t *testing.T) {
	env := setupTestServer(t)

	token, err := env.jwt.Generate(auth.Identity{Subject: "nameless"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	resp, err := env.clientsWithToken(token).users.PersistUser(context.Background(), connect.NewRequest(&api.PersistUserRequest{}))
	if err != nil {
		t.Fatalf("PersistUser failed: %v", err)
	}
	if resp.Msg.User.Name != "Anonymous" {
		t.Errorf("name: expected 'Anonymous', got %q", resp.Msg.User.Name)
	}
}

func TestCurrentUserRequired(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	_, err := env.clientsWithToken("").users.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = env.clientsWithToken("garbage").connections.ListConnectedUsers(ctx, connect.NewRequest(&api.ListConnectedUsersRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	// A valid identity that was never persisted has no user row.
	token, err := env.jwt.Generate(auth.Identity{Subject: "ghost", Name: "Ghost"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	_, err = env.clientsWithToken(token).users.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	assertCode(t, err, connect.CodeNotFound)
}
