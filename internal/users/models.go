package users

import "time"

// User is the account record. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	FullName     string    `json:"full_name"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	Address      string    `json:"address,omitempty"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser is the registration payload.
type NewUser struct {
	Username    string `json:"username" validate:"required,min=3,max=30"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"full_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address     string `json:"address"`
	Email       string `json:"email" validate:"required,email"`
}

// UpdateUser carries the owner-editable account fields.
type UpdateUser struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=1"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address"`
	Email       *string `json:"email" validate:"omitempty,email"`
}
