package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/users"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// federatedAccountSource is the slice of the user store the federated path
// needs: lookup by verified email, provision on first login.
type federatedAccountSource interface {
	GetUserByEmail(ctx context.Context, email string) (users.User, error)
	InsertFederatedUser(ctx context.Context, email, fullName string) (users.User, error)
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StateSecret  string
}

// GoogleAuthenticator exchanges an OAuth authorization code for a verified
// Google identity and maps it to a local account, provisioning one on first
// use.
type GoogleAuthenticator struct {
	accounts    federatedAccountSource
	oauth       *oauth2.Config
	stateSecret []byte
}

func NewGoogleAuthenticator(accounts federatedAccountSource, cfg GoogleConfig) (*GoogleAuthenticator, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account source is nil")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google oauth client credentials are not configured")
	}
	if cfg.StateSecret == "" {
		return nil, fmt.Errorf("oauth state secret is not configured")
	}

	return &GoogleAuthenticator{
		accounts: accounts,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		stateSecret: []byte(cfg.StateSecret),
	}, nil
}

// AuthURL builds the Google consent redirect with a signed, short-lived state
// token binding the callback to this flow.
func (a *GoogleAuthenticator) AuthURL() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "storefront-oauth",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.stateSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign oauth state: %w", err)
	}
	return a.oauth.AuthCodeURL(state), nil
}

// VerifyState rejects callbacks whose state token was not minted by AuthURL
// or has expired.
func (a *GoogleAuthenticator) VerifyState(state string) error {
	_, err := jwt.Parse(state, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.stateSecret, nil
	}, jwt.WithIssuer("storefront-oauth"), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: bad oauth state: %s", ErrInvalidCredentials, err)
	}
	return nil
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (a *GoogleAuthenticator) Authenticate(ctx context.Context, cred Credential) (users.User, error) {
	fc, ok := cred.(FederatedCredential)
	if !ok || fc.Provider != "google" {
		return users.User{}, ErrUnsupportedCredential
	}

	token, err := a.oauth.Exchange(ctx, fc.Code)
	if err != nil {
		return users.User{}, fmt.Errorf("%w: code exchange failed: %s", ErrInvalidCredentials, err)
	}

	info, err := a.fetchUserInfo(ctx, token)
	if err != nil {
		return users.User{}, err
	}
	if !info.VerifiedEmail || info.Email == "" {
		return users.User{}, fmt.Errorf("%w: google account email is not verified", ErrInvalidCredentials)
	}

	u, err := a.accounts.GetUserByEmail(ctx, info.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, users.ErrUserNotFound) {
		return users.User{}, fmt.Errorf("failed to look up federated user: %w", err)
	}

	// first federated login provisions the account
	return a.accounts.InsertFederatedUser(ctx, info.Email, info.Name)
}

func (a *GoogleAuthenticator) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := a.oauth.Client(ctx, token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return googleUserInfo{}, fmt.Errorf("failed to fetch google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, fmt.Errorf("failed to decode google userinfo: %w", err)
	}
	return info, nil
}
