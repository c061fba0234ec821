package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
)

// ErrAdminPasswordRequired is returned when the administrator has to be created but has no password.
var ErrAdminPasswordRequired = errors.New("admin password is required to create the admin user")

// SeedAdmin creates the configured administrator if it does not exist yet.
// With local auth enabled a missing administrator requires a configured password.
// Without local auth the account is created on its first OIDC login.
func SeedAdmin(ctx context.Context, cfg *config.Config, db database.DB) error {
	if cfg == nil || cfg.Admin == nil || cfg.Admin.Username == "" {
		return fmt.Errorf("admin username is required")
	}

	_, err := db.GetUserByUsername(ctx, cfg.Admin.Username)
	if err == nil {
		log.Debug("admin user already exists", "username", cfg.Admin.Username)
		return nil
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	if cfg.Admin.Password == "" {
		if cfg.LocalAuthEnabled() {
			return ErrAdminPasswordRequired
		}
		log.Warn("admin user does not exist yet, it is created on the first oidc login", "username", cfg.Admin.Username)
		return nil
	}

	hash, err := HashPassword(cfg.Admin.Password)
	if err != nil {
		return err
	}

	name := cfg.Admin.Name
	if name == "" {
		name = cfg.Admin.Username
	}
	email := cfg.Admin.Email
	if email == "" {
		email = cfg.Admin.Username + "@localhost"
	}

	if err := db.CreateUser(ctx, &database.User{
		Name:         name,
		Email:        email,
		Username:     cfg.Admin.Username,
		PasswordHash: hash,
	}); err != nil && !errors.Is(err, database.ErrDuplicateUsername) {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Info("created admin user", "username", cfg.Admin.Username)
	return nil
}
