package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	accounts "smartpark-iot/internal/accounts/domain"
	"smartpark-iot/internal/auth"
	"smartpark-iot/internal/observability/metrics"
)

// Session is the result of a successful login.
type Session struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

// Service handles signup and login.
type Service struct {
	repo     accounts.Repository
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewService constructs a service.
func NewService(repo accounts.Repository, secret []byte, tokenTTL time.Duration) (*Service, error) {
	if repo == nil {
		return nil, errors.New("accounts service: nil repo")
	}
	if len(secret) == 0 {
		return nil, errors.New("accounts service: empty secret")
	}
	return &Service{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Signup registers a regular user.
func (s *Service) Signup(ctx context.Context, username, password string) (*accounts.User, error) {
	user, err := s.CreateUser(ctx, username, password, accounts.RoleUser)
	metrics.IncAuth("signup", err)
	return user, err
}

// CreateUser registers a user with the given role.
func (s *Service) CreateUser(ctx context.Context, username, password, role string) (*accounts.User, error) {
	username = accounts.NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, accounts.ErrInvalidInput
	}
	if _, ok := auth.NormalizeRole(role); !ok {
		return nil, fmt.Errorf("%w: role %q", accounts.ErrInvalidInput, role)
	}
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, accounts.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, accounts.ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", accounts.ErrInvalidInput, err)
		}
		return nil, err
	}
	user := accounts.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	session, err := s.login(ctx, username, password)
	metrics.IncAuth("login", err)
	return session, err
}

func (s *Service) login(ctx context.Context, username, password string) (*Session, error) {
	username = accounts.NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, accounts.ErrInvalidInput
	}
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, accounts.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, accounts.ErrInvalidCredentials
		}
		return nil, err
	}
	role, ok := auth.NormalizeRole(user.Role)
	if !ok {
		role = auth.RoleUser
	}
	token, err := auth.IssueJWT(s.secret, user.ID, user.Username, role, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{ID: user.ID, Username: user.Username, Role: string(role), Token: token}, nil
}
