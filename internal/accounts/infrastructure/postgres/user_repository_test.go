package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	accounts "smartpark-iot/internal/accounts/domain"
)

func TestUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	user := accounts.User{ID: "u-1", Username: "alice", PasswordHash: "hash", Role: "user", CreatedAt: at}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, username, password, role, created_at)")).
		WithArgs("u-1", "alice", "hash", "user", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	if err := repo.Create(context.Background(), user); !errors.Is(err, accounts.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserRepository_FindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta("SELECT id, username, password, role, created_at")

	mock.ExpectQuery(query).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "role", "created_at"}).
			AddRow("u-1", "alice", "hash", "admin", at))
	user, err := repo.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.ID != "u-1" || user.PasswordHash != "hash" || user.Role != "admin" {
		t.Fatalf("unexpected user %+v", user)
	}

	mock.ExpectQuery(query).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "role", "created_at"}))
	if _, err := repo.FindByUsername(context.Background(), "ghost"); !errors.Is(err, accounts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
