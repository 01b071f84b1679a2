// Package auth resolves presented credentials to canonical account
// identities. Credential verification strategies are interchangeable behind
// Authenticator; callers never see a concrete variant.
package auth

import (
	"context"
	"errors"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/users"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnsupportedCredential = errors.New("credential type not supported by this authenticator")
)

// Credential is a presented proof of identity.
type Credential interface {
	isCredential()
}

// PasswordCredential is the local username/password path.
type PasswordCredential struct {
	Username string
	Password string
}

func (PasswordCredential) isCredential() {}

// FederatedCredential carries the authorization code returned by an external
// identity provider's redirect.
type FederatedCredential struct {
	Provider string
	Code     string
}

func (FederatedCredential) isCredential() {}

// Authenticator verifies one kind of credential and yields the account it
// belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, cred Credential) (users.User, error)
}

type sessionCtxKey struct{}

// SessionKey locates the SessionContext in a request context.
var SessionKey = sessionCtxKey{}

// SessionContext is the authenticated identity attached to a request by the
// authentication middleware. Operations receive it explicitly; nothing is
// cached between requests.
type SessionContext struct {
	Token     string
	AccountID string
	Username  string
}

// WithSession attaches the session context for downstream handlers.
func WithSession(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, SessionKey, sc)
}

// SessionFromContext extracts the identity established by the middleware.
func SessionFromContext(ctx context.Context) (SessionContext, bool) {
	sc, ok := ctx.Value(SessionKey).(SessionContext)
	return sc, ok
}
