package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/refkeeper/internal/client/api"
	"github.com/iudanet/refkeeper/internal/client/storage"
	"github.com/iudanet/refkeeper/internal/validation"
	pkgapi "github.com/iudanet/refkeeper/pkg/api"
)

type registerOptions struct {
	firstName string
	lastName  string
	username  string
}

func (c *Cli) registerCommand() *cobra.Command {
	var opts registerOptions

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRegister(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&opts.lastName, "last-name", "", "Last name")
	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "Username")

	return cmd
}

func (c *Cli) runRegister(ctx context.Context, opts registerOptions) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	firstName, err := c.valueOrPrompt(opts.firstName, "First name: ")
	if err != nil {
		return err
	}
	lastName, err := c.valueOrPrompt(opts.lastName, "Last name: ")
	if err != nil {
		return err
	}
	username, err := c.valueOrPrompt(opts.username, "Username: ")
	if err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Repeat password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	resp, err := c.apiClient.Signup(ctx, pkgapi.SignupRequest{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", resp.UserID)
	c.io.Printf("Run '%s login' to start a session.\n", appName)

	return nil
}

func (c *Cli) loginCommand() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLogin(cmd.Context(), username)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")

	return cmd
}

func (c *Cli) runLogin(ctx context.Context, username string) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	username, err := c.valueOrPrompt(username, "Username: ")
	if err != nil {
		return err
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	resp, token, err := c.apiClient.Login(ctx, pkgapi.LoginRequest{
		Username: strings.TrimSpace(username),
		Password: password,
	})
	if err != nil {
		return err
	}

	authData := &storage.AuthData{
		Username:  resp.Username,
		UserID:    resp.UserID,
		Token:     token,
		ExpiresAt: resp.ExpiresAt.Unix(),
	}
	if err := c.authStore.SaveAuth(ctx, authData); err != nil {
		return fmt.Errorf("failed to save auth data: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", resp.Username)
	c.io.Printf("Session expires: %s\n", resp.ExpiresAt.Local().Format(time.RFC3339))

	return nil
}

func (c *Cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLogout(cmd.Context())
		},
	}
}

func (c *Cli) runLogout(ctx context.Context) error {
	_, err := c.requireSession(ctx)
	if errors.Is(err, ErrNotLoggedIn) {
		// истекшую сессию все равно удаляем локально
		if delErr := c.authStore.DeleteAuth(ctx); delErr != nil && !errors.Is(delErr, storage.ErrAuthNotFound) {
			return fmt.Errorf("failed to delete auth data: %w", delErr)
		}
		c.io.Println("Not logged in.")
		return nil
	}
	if err != nil {
		return err
	}

	// Сервер не отзывает токен, поэтому ошибка сервера не мешает локальному выходу
	if err := c.apiClient.Logout(ctx); err != nil && !errors.Is(err, api.ErrNotAuthenticated) {
		c.io.Printf("Warning: server logout failed: %v\n", err)
	}

	if err := c.authStore.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete auth data: %w", err)
	}

	c.io.Println("✓ Logged out.")
	return nil
}

func (c *Cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(cmd.Context())
		},
	}
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	authData, err := c.authStore.GetAuth(ctx)
	if errors.Is(err, storage.ErrAuthNotFound) {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Printf("Run '%s login' to authenticate.\n", appName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	now := c.now()
	expiresAt := time.Unix(authData.ExpiresAt, 0)

	if authData.Expired(now) {
		c.io.Println("Status: Session expired")
		c.io.Printf("Username: %s\n", authData.Username)
		c.io.Printf("Run '%s login' to authenticate again.\n", appName)
		return nil
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username: %s\n", authData.Username)
	c.io.Printf("Session expires: %s\n", expiresAt.Format(time.RFC3339))
	c.io.Printf("Time remaining: %s\n", expiresAt.Sub(now).Round(time.Second))

	return nil
}

func (c *Cli) profileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show current user as seen by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProfile(cmd.Context())
		},
	}
}

func (c *Cli) runProfile(ctx context.Context) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	profile, err := c.apiClient.Profile(ctx)
	if err != nil {
		return serverError(err)
	}

	c.io.Printf("ID:       %s\n", profile.ID)
	c.io.Printf("Username: %s\n", profile.Username)

	return nil
}
