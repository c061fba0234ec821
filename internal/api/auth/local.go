package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"golang.org/x/crypto/bcrypt"
)

// ErrMissingFields is returned when a registration lacks a required field.
var ErrMissingFields = errors.New("all fields are required")

// dummyHash is compared against for unknown users so both failure paths cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("khaki-dummy-password"), bcrypt.DefaultCost)

// LocalProvider authenticates users against the password hashes in the database.
type LocalProvider struct {
	db  database.DB
	cfg *config.Config
}

// NewLocalProvider creates a username/password provider.
func NewLocalProvider(cfg *config.Config, db database.DB) *LocalProvider {
	return &LocalProvider{db: db, cfg: cfg}
}

// RegisterRequest holds the sign-up form.
type RegisterRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (r *RegisterRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Register creates a new user. A taken username yields database.ErrDuplicateUsername.
// The administrator username is always taken, it belongs to the seeded account.
func (p *LocalProvider) Register(ctx context.Context, req RegisterRequest) (*database.User, error) {
	req.normalize()
	if req.Name == "" || req.Email == "" || req.Username == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if p.cfg.IsAdmin(req.Username) {
		return nil, database.ErrDuplicateUsername
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &database.User{
		Name:         req.Name,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := p.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Info("registered user", "username", user.Username, "id", user.ID)
	return user, nil
}

// Authenticate checks the credentials of a user.
// Unknown users and wrong passwords both yield ErrAuthenticationFailed.
func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*database.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrAuthenticationFailed
	}

	user, err := p.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	// users created through OIDC have no local password
	if user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrAuthenticationFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthenticationFailed
	}
	return user, nil
}

// IsAdmin reports whether the user is the configured administrator.
func (p *LocalProvider) IsAdmin(user *database.User) bool {
	return user != nil && p.cfg.IsAdmin(user.Username)
}
