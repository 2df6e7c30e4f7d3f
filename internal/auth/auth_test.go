package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/expensemate/internal/storage/sqlite"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "expensemate", time.Hour)

	token, err := m.Generate(Identity{Subject: "abc", Name: "Alice", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	id := claims.Identity()
	if id.TokenIdentifier() != "expensemate|abc" {
		t.Errorf("TokenIdentifier = %q, want %q", id.TokenIdentifier(), "expensemate|abc")
	}
	if id.Name != "Alice" || id.Email != "a@example.com" {
		t.Errorf("Unexpected identity: %+v", id)
	}
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("secret", "expensemate", time.Hour)

	other := NewJWTManager("other-secret", "expensemate", time.Hour)
	foreign, _ := other.Generate(Identity{Subject: "abc"})

	expired, _ := NewJWTManager("secret", "expensemate", -time.Minute).Generate(Identity{Subject: "abc"})

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "expensemate"},
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"no subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("Expected no identity in empty context")
	}

	ctx := WithIdentity(context.Background(), Identity{Issuer: "i", Subject: "s"})
	id, ok := IdentityFromContext(ctx)
	if !ok || id.TokenIdentifier() != "i|s" {
		t.Errorf("IdentityFromContext() = %+v, %v", id, ok)
	}
}

func TestPasswordAuthenticator(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	a := NewPasswordAuthenticator(store, "expensemate")
	ctx := context.Background()

	if _, err := a.Register(ctx, "alice@example.com", "Alice", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("Expected ErrWeakPassword, got %v", err)
	}

	user, err := a.Register(ctx, "Alice@Example.com", "Alice", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.TokenIdentifier != "expensemate|"+user.ID {
		t.Errorf("TokenIdentifier = %q", user.TokenIdentifier)
	}

	if _, err := a.Register(ctx, "alice@example.com", "Alice 2", "password123"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got %v", err)
	}

	got, err := a.Authenticate(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Authenticate returned %s, want %s", got.ID, user.ID)
	}

	if _, err := a.Authenticate(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}

	id := a.IdentityFor(user)
	if id.TokenIdentifier() != user.TokenIdentifier {
		t.Errorf("IdentityFor().TokenIdentifier() = %q, want %q", id.TokenIdentifier(), user.TokenIdentifier)
	}
}
