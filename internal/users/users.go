package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrDuplicate    = errors.New("username or email already taken")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     nu.Username,
		PasswordHash: hash,
		FullName:     nu.FullName,
		DateOfBirth:  nu.DateOfBirth,
		Address:      nu.Address,
		Email:        strings.ToLower(nu.Email),
	}

	query := `
		INSERT INTO users (id, username, password_hash, full_name, date_of_birth, address, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::date, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = c.db.QueryRowContext(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.FullName, u.DateOfBirth, u.Address, u.Email,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrDuplicate
		}
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return u, nil
}

// InsertFederatedUser provisions an account for a federated identity that has
// no local credentials. The username is derived from the email and suffixed
// on collision.
func (c *Conf) InsertFederatedUser(ctx context.Context, email, fullName string) (User, error) {
	email = strings.ToLower(email)
	base := strings.SplitN(email, "@", 2)[0]

	for attempt := 0; attempt < 3; attempt++ {
		username := base
		if attempt > 0 {
			username = fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
		}

		u := User{
			ID:       uuid.NewString(),
			Username: username,
			FullName: fullName,
			Email:    email,
		}
		query := `
			INSERT INTO users (id, username, password_hash, full_name, email, created_at, updated_at)
			VALUES ($1, $2, NULL, $3, $4, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		err := c.db.QueryRowContext(ctx, query, u.ID, u.Username, u.FullName, u.Email).
			Scan(&u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return User{}, fmt.Errorf("failed to insert federated user: %w", err)
		}
		return u, nil
	}
	return User{}, fmt.Errorf("failed to provision federated user for %s: %w", email, ErrDuplicate)
}

func (c *Conf) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return c.getUser(ctx, "username = $1", username)
}

func (c *Conf) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return c.getUser(ctx, "email = $1", strings.ToLower(email))
}

func (c *Conf) GetUserByID(ctx context.Context, id string) (User, error) {
	return c.getUser(ctx, "id = $1", id)
}

func (c *Conf) getUser(ctx context.Context, where string, arg any) (User, error) {
	query := `
		SELECT id, username, COALESCE(password_hash, ''), full_name,
		       COALESCE(to_char(date_of_birth, 'YYYY-MM-DD'), ''), COALESCE(address, ''),
		       email, created_at, updated_at
		FROM users
		WHERE ` + where

	var u User
	err := c.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FullName,
		&u.DateOfBirth, &u.Address, &u.Email, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// UpdateUserByID is scoped by id; ownership is checked by the caller's guard
// and re-enforced here by the WHERE clause.
func (c *Conf) UpdateUserByID(ctx context.Context, id string, upd UpdateUser) (User, error) {
	query := `
		UPDATE users
		SET full_name     = COALESCE($2, full_name),
		    date_of_birth = COALESCE($3::date, date_of_birth),
		    address       = COALESCE($4, address),
		    email         = COALESCE($5, email),
		    updated_at    = NOW()
		WHERE id = $1
		RETURNING id
	`
	var email *string
	if upd.Email != nil {
		lowered := strings.ToLower(*upd.Email)
		email = &lowered
	}

	var updatedID string
	err := c.db.QueryRowContext(ctx, query, id, upd.FullName, upd.DateOfBirth, upd.Address, email).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return User{}, ErrDuplicate
		}
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}

	return c.GetUserByID(ctx, id)
}

// CheckPassword compares a candidate password against the stored hash.
// Federated-only accounts have no hash and always fail the password path.
func (u User) CheckPassword(password string) bool {
	if len(u.PasswordHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
