package accounts

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidInput indicates a missing username or password.
	ErrInvalidInput = errors.New("accounts: invalid input")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("accounts: username already exists")
	// ErrInvalidCredentials indicates an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("accounts: invalid credentials")
	// ErrNotFound indicates no user matched.
	ErrNotFound = errors.New("accounts: user not found")
)

// Role names stored with a user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. PasswordHash is a bcrypt hash.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
