package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	dErrors "spendtrail/pkg/domain-errors"
)

// User is a registered account. PasswordHash is a bcrypt hash and never leaves
// the auth domain.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the caller-facing view of a user.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileOf strips credentials from a user record.
func ProfileOf(u *User) Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

const minPasswordLength = 6

// RegisterRequest carries the fields for account creation.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	if len(r.Password) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	return nil
}

// LoginRequest carries the credentials for a login attempt.
type LoginRequest struct {
	Email    string
	Password string
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

// ChangePasswordRequest carries a password rotation for the authenticated user.
type ChangePasswordRequest struct {
	CurrentPassword string
	NewPassword     string
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "current password is required")
	}
	if len(r.NewPassword) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "new password must be at least 6 characters")
	}
	return nil
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      Profile
}
