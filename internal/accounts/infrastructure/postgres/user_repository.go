package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	accounts "smartpark-iot/internal/accounts/domain"
)

const (
	defaultUsersTable  = "users"
	uniqueViolationSQL = "23505"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserRepository is a Postgres implementation for users.
type UserRepository struct {
	db    DBTX
	table string
}

// NewUserRepository constructs a repository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db, table: defaultUsersTable}
}

// Create inserts a user.
func (r *UserRepository) Create(ctx context.Context, user accounts.User) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, username, password, role, created_at)
VALUES ($1, $2, $3, $4, $5)`, r.table)
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationSQL {
			return accounts.ErrUsernameTaken
		}
		return fmt.Errorf("user repo: create: %w", err)
	}
	return nil
}

// FindByUsername loads a user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*accounts.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, username, password, role, created_at
FROM %s
WHERE username = $1
LIMIT 1`, r.table)

	var user accounts.User
	if err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accounts.ErrNotFound
		}
		return nil, fmt.Errorf("user repo: find: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
