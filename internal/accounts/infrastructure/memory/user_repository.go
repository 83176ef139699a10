package memory

import (
	"context"
	"sync"

	accounts "smartpark-iot/internal/accounts/domain"
)

// UserRepository is an in-memory user store.
type UserRepository struct {
	mu         sync.RWMutex
	byUsername map[string]accounts.User
}

// NewUserRepository constructs an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{byUsername: make(map[string]accounts.User)}
}

// Create stores user. Usernames are unique.
func (r *UserRepository) Create(_ context.Context, user accounts.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[user.Username]; exists {
		return accounts.ErrUsernameTaken
	}
	r.byUsername[user.Username] = user
	return nil
}

// FindByUsername returns the user or ErrNotFound.
func (r *UserRepository) FindByUsername(_ context.Context, username string) (*accounts.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byUsername[username]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	return &user, nil
}
