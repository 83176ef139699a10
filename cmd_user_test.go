package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	accountsapp "smartpark-iot/internal/accounts/application"
	accounts "smartpark-iot/internal/accounts/domain"
	"smartpark-iot/internal/accounts/infrastructure/memory"
	"smartpark-iot/internal/auth"
)

func scriptedPrompt(username string, passwords ...string) userPrompt {
	return userPrompt{
		in:  bufio.NewReader(strings.NewReader(username)),
		out: io.Discard,
		password: func() ([]byte, error) {
			if len(passwords) == 0 {
				return nil, io.EOF
			}
			next := passwords[0]
			passwords = passwords[1:]
			return []byte(next), nil
		},
	}
}

func newUserService(t *testing.T) (*accountsapp.Service, *memory.UserRepository) {
	t.Helper()
	repo := memory.NewUserRepository()
	service, err := accountsapp.NewService(repo, []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return service, repo
}

func TestCreateUser_Roles(t *testing.T) {
	service, repo := newUserService(t)
	ctx := context.Background()

	admin, err := createUser(ctx, service, scriptedPrompt("root\n", "s3cret", "s3cret"), true)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if admin.Username != "root" || admin.Role != accounts.RoleAdmin {
		t.Fatalf("unexpected admin %+v", admin)
	}
	stored, err := repo.FindByUsername(ctx, "root")
	if err != nil || auth.CheckPassword(stored.PasswordHash, "s3cret") != nil {
		t.Fatalf("admin password not stored as hash: %v", err)
	}

	// A final line without a newline is still a username.
	user, err := createUser(ctx, service, scriptedPrompt("  driver", "pw", "pw"), false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Username != "driver" || user.Role != accounts.RoleUser {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestCreateUser_Errors(t *testing.T) {
	service, repo := newUserService(t)
	ctx := context.Background()
	if _, err := createUser(ctx, service, scriptedPrompt("taken\n", "pw", "pw"), false); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cases := []struct {
		name   string
		prompt userPrompt
	}{
		{"empty username", scriptedPrompt("\n", "pw", "pw")},
		{"no input", scriptedPrompt("")},
		{"empty password", scriptedPrompt("alice\n", "", "")},
		{"mismatch", scriptedPrompt("alice\n", "pw", "other")},
		{"confirmation unreadable", scriptedPrompt("alice\n", "pw")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := createUser(ctx, service, tc.prompt, true); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := repo.FindByUsername(ctx, "alice"); !errors.Is(err, accounts.ErrNotFound) {
		t.Fatalf("failed prompts must not create a user, got %v", err)
	}

	_, err := createUser(ctx, service, scriptedPrompt("taken\n", "pw2", "pw2"), true)
	if !errors.Is(err, accounts.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}
