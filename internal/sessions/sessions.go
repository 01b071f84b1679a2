// Package sessions holds the server-side session records backing the opaque
// client token. A session exists from login until logout or TTL expiry; its
// window slides forward on every validated request and on explicit extension.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// Session binds an opaque token to an authenticated account.
type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// kv is the slice of the session backend the store needs. Redis satisfies it
// in production; tests use an in-memory clock-driven fake.
type kv interface {
	get(ctx context.Context, key string) ([]byte, error)
	setEx(ctx context.Context, key string, value []byte, ttl time.Duration) error
	expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	del(ctx context.Context, key string) error
}

type Store struct {
	kv  kv
	ttl time.Duration
}

func newStore(kv kv, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

// Create mints a fresh opaque token and persists the session with the full
// TTL window.
func (s *Store) Create(ctx context.Context, accountID, username string) (Session, error) {
	session := Session{
		Token:     uuid.NewString(),
		AccountID: accountID,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return Session{}, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.kv.setEx(ctx, sessionKey(session.Token), data, s.ttl); err != nil {
		return Session{}, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// Get returns the live session for a token and slides its expiry window
// forward. An unknown or expired token yields ErrSessionNotFound.
func (s *Store) Get(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionNotFound
	}

	data, err := s.kv.get(ctx, sessionKey(token))
	if err != nil {
		return Session{}, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// sliding window: each validated request pushes expiry out
	if _, err := s.kv.expire(ctx, sessionKey(token), s.ttl); err != nil {
		return Session{}, fmt.Errorf("failed to refresh session ttl: %w", err)
	}
	return session, nil
}

// Extend resets the expiry window without re-authentication.
func (s *Store) Extend(ctx context.Context, token string) error {
	ok, err := s.kv.expire(ctx, sessionKey(token), s.ttl)
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Destroy removes the session record server-side; the client token is dead
// afterwards regardless of what the client still holds.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if err := s.kv.del(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

func sessionKey(token string) string {
	return "session:" + token
}
