package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/auth"
	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

// PasswordAccounts is the first-party sign-in method.
type PasswordAccounts interface {
	auth.Authenticator
	IdentityFor(user *models.User) auth.Identity
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Generate(id auth.Identity) (string, error)
}

// UserService implements the UserService RPC interface.
type UserService struct {
	store    storage.UserStore
	accounts PasswordAccounts
	tokens   TokenIssuer
	logger   *slog.Logger
}

var _ api.UserServiceHandler = (*UserService)(nil)

// NewUserService creates a new user service.
func NewUserService(store storage.UserStore, accounts PasswordAccounts, tokens TokenIssuer, logger *slog.Logger) *UserService {
	return &UserService{
		store:    store,
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a password account and returns a signed token for it.
func (s *UserService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	user, err := s.accounts.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(err)
	}

	resp, err := s.authResponse(user)
	if err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID)
	return connect.NewResponse(resp), nil
}

// Login authenticates a password account and returns a signed token.
func (s *UserService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	user, err := s.accounts.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(auth.ErrInvalidCredentials)
	}

	resp, err := s.authResponse(user)
	if err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(resp), nil
}

func (s *UserService) authResponse(user *models.User) (*api.AuthResponse, error) {
	token, err := s.tokens.Generate(s.accounts.IdentityFor(user))
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}
	return &api.AuthResponse{Token: token, User: toAPIUser(user)}, nil
}

// PersistUser upserts the caller's identity into the users table.
func (s *UserService) PersistUser(ctx context.Context, req *connect.Request[api.PersistUserRequest]) (*connect.Response[api.PersistUserResponse], error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, toConnectError(ErrNotAuthenticated)
	}

	user, status, err := s.persist(ctx, id)
	if err != nil {
		s.logger.Error("PersistUser failed", "token_identifier", id.TokenIdentifier(), "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("PersistUser", "user_id", user.ID, "status", status)
	return connect.NewResponse(&api.PersistUserResponse{
		Status: string(status),
		User:   toAPIUser(user),
	}), nil
}

func (s *UserService) persist(ctx context.Context, id auth.Identity) (*models.User, models.PersistStatus, error) {
	name := id.Name
	if name == "" {
		name = "Anonymous"
	}

	user, err := s.store.GetUserByTokenIdentifier(ctx, id.TokenIdentifier())
	if errors.Is(err, storage.ErrNotFound) {
		user = models.NewUser(id.TokenIdentifier(), name, id.Email)
		if err := s.store.CreateUser(ctx, user); err != nil {
			return nil, "", err
		}
		return user, models.PersistCreated, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if user.Name == name && user.Email == id.Email {
		return user, models.PersistNoChange, nil
	}

	user.Name = name
	user.Email = id.Email
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, "", err
	}
	return user, models.PersistUpdated, nil
}

// GetCurrentUser returns the caller's user record.
func (s *UserService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetCurrentUserResponse{User: toAPIUser(user)}), nil
}
