package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/users"
)

// accountSource is the slice of the user store the password path needs.
type accountSource interface {
	GetUserByUsername(ctx context.Context, username string) (users.User, error)
}

// PasswordAuthenticator verifies local username/password credentials against
// stored bcrypt hashes.
type PasswordAuthenticator struct {
	accounts accountSource
}

func NewPasswordAuthenticator(accounts accountSource) (*PasswordAuthenticator, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account source is nil")
	}
	return &PasswordAuthenticator{accounts: accounts}, nil
}

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, cred Credential) (users.User, error) {
	pc, ok := cred.(PasswordCredential)
	if !ok {
		return users.User{}, ErrUnsupportedCredential
	}

	u, err := a.accounts.GetUserByUsername(ctx, pc.Username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			// same failure as a bad password, no account enumeration
			return users.User{}, ErrInvalidCredentials
		}
		return users.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if !u.CheckPassword(pc.Password) {
		return users.User{}, ErrInvalidCredentials
	}
	return u, nil
}
