package auth

import "context"

// Identity is the authenticated caller as asserted by a signed token.
type Identity struct {
	Issuer  string
	Subject string
	Name    string
	Email   string
}

// TokenIdentifier is the stable key users are stored under.
func (id Identity) TokenIdentifier() string {
	return id.Issuer + "|" + id.Subject
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
