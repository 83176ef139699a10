package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	accountsapp "smartpark-iot/internal/accounts/application"
	accounts "smartpark-iot/internal/accounts/domain"
	accountspostgres "smartpark-iot/internal/accounts/infrastructure/postgres"
	"smartpark-iot/internal/platform/postgres"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
	Long:  `Commands for managing SmartPark accounts.`,
}

var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	Long:  `Create a new user in the configured database. Use --admin for an operator account.`,
	RunE:  runCreateUser,
}

var createUserAdmin bool

func init() {
	createUserCmd.Flags().BoolVar(&createUserAdmin, "admin", false, "grant the admin role")
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(createUserCmd)
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	ctx := cmd.Context()
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	service, err := accountsapp.NewService(accountspostgres.NewUserRepository(db), []byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}

	user, err := createUser(ctx, service, terminalPrompt(), createUserAdmin)
	if err != nil {
		return err
	}

	fmt.Println("User created successfully!")
	fmt.Printf("ID: %s\n", user.ID)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Role: %s\n", user.Role)
	fmt.Printf("Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// userPrompt reads the new account's details. password must not echo.
type userPrompt struct {
	in       *bufio.Reader
	out      io.Writer
	password func() ([]byte, error)
}

func terminalPrompt() userPrompt {
	return userPrompt{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		password: func() ([]byte, error) {
			return term.ReadPassword(int(syscall.Stdin))
		},
	}
}

func createUser(ctx context.Context, service *accountsapp.Service, prompt userPrompt, admin bool) (*accounts.User, error) {
	fmt.Fprint(prompt.out, "Enter username: ")
	username, err := prompt.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && username != "") {
		return nil, fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username cannot be empty")
	}

	fmt.Fprint(prompt.out, "Enter password: ")
	passwordBytes, err := prompt.password()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(prompt.out)
	password := string(passwordBytes)
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	fmt.Fprint(prompt.out, "Confirm password: ")
	confirmBytes, err := prompt.password()
	if err != nil {
		return nil, fmt.Errorf("failed to read password confirmation: %w", err)
	}
	fmt.Fprintln(prompt.out)
	if password != string(confirmBytes) {
		return nil, errors.New("passwords do not match")
	}

	role := accounts.RoleUser
	if admin {
		role = accounts.RoleAdmin
	}
	user, err := service.CreateUser(ctx, username, password, role)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
