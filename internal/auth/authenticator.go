package auth

import (
	"context"

	"github.com/mmynk/expensemate/internal/models"
)

// Authenticator defines the interface for first-party sign-in methods.
// External identity providers bypass it: their tokens are validated by the
// JWTManager and the user is upserted from the identity.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	// The credential format depends on the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
