package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/gravatar"
)

// ErrAuthenticationFailed is returned for an unknown user or a wrong password.
var ErrAuthenticationFailed = errors.New("authentication failed")

// AuthProvider defines the interface for authentication providers.
type AuthProvider interface {
	// Login handles the login process for the provider
	Login(c *gin.Context)

	// Callback handles the authentication callback (if applicable)
	Callback(c *gin.Context)

	// RequireAuth returns middleware that requires authentication
	RequireAuth() gin.HandlerFunc

	// RequireAdmin returns middleware that requires admin privileges
	RequireAdmin() gin.HandlerFunc

	// GetAuthConfig returns the authentication configuration for templates
	GetAuthConfig() *config.AuthConfig
}

var _ AuthProvider = (*MultiProvider)(nil)

// MultiProvider wraps the local and the OIDC provider.
type MultiProvider struct {
	localProvider *LocalProvider
	oidcProvider  *OIDCProvider
	cfg           *config.Config
	avatars       *gravatar.Resolver
}

// NewProvider creates a multi-provider that supports local and OIDC authentication.
func NewProvider(ctx context.Context, cfg *config.Config, db database.DB, avatars *gravatar.Resolver) (*MultiProvider, error) {
	if cfg == nil || cfg.Auth == nil {
		return nil, fmt.Errorf("auth config is required")
	}

	mp := &MultiProvider{cfg: cfg, avatars: avatars}

	if cfg.LocalAuthEnabled() {
		mp.localProvider = NewLocalProvider(cfg, db)
	}

	if cfg.OIDCEnabled() {
		oidcProvider, err := NewOIDCProvider(ctx, cfg, db)
		if err != nil {
			return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
		}
		mp.oidcProvider = oidcProvider
	}

	// At least one provider must be enabled
	if mp.localProvider == nil && mp.oidcProvider == nil {
		return nil, fmt.Errorf("no authentication provider is enabled")
	}

	return mp, nil
}

// Login handles the username/password form or starts the OIDC flow.
func (mp *MultiProvider) Login(c *gin.Context) {
	if c.Request.Method == http.MethodPost && mp.localProvider != nil {
		mp.localProvider.login(mp, c)
		return
	}

	if mp.oidcProvider != nil {
		mp.oidcProvider.Login(c)
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "No authentication method available"})
}

// Callback handles OAuth callbacks (OIDC only).
func (mp *MultiProvider) Callback(c *gin.Context) {
	if mp.oidcProvider != nil {
		mp.oidcProvider.Callback(c)
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "OAuth callback not supported"})
}

// Register handles the sign-up form.
func (mp *MultiProvider) Register(c *gin.Context) {
	if mp.localProvider == nil || !mp.cfg.RegistrationEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "registration is disabled"})
		return
	}
	mp.localProvider.register(mp, c)
}

// Logout clears the session.
func (mp *MultiProvider) Logout(c *gin.Context) {
	if err := clearSession(c); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// RequireAuth returns middleware that works with both providers.
func (mp *MultiProvider) RequireAuth() gin.HandlerFunc {
	return requireAuth(mp.avatars)
}

// RequireAdmin returns middleware that checks for admin privileges.
func (mp *MultiProvider) RequireAdmin() gin.HandlerFunc {
	return requireAdmin()
}

// GetAuthConfig returns the authentication configuration for templates.
func (mp *MultiProvider) GetAuthConfig() *config.AuthConfig {
	return mp.cfg.Auth
}

// Local returns the username/password provider, nil if disabled.
func (mp *MultiProvider) Local() *LocalProvider {
	return mp.localProvider
}

// Helper methods for the MultiProvider.
func (mp *MultiProvider) HasLocal() bool {
	return mp.localProvider != nil
}

func (mp *MultiProvider) HasOIDC() bool {
	return mp.oidcProvider != nil
}

func (mp *MultiProvider) RegistrationEnabled() bool {
	return mp.localProvider != nil && mp.cfg.RegistrationEnabled()
}

// OIDCName returns the display name of the OIDC provider.
func (mp *MultiProvider) OIDCName() string {
	if mp.cfg.Auth.OIDC == nil {
		return ""
	}
	return mp.cfg.Auth.OIDC.Name
}
