package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"golang.org/x/oauth2"
)

// ErrLocalAccount is returned when an OIDC login resolves to an account that signs in with a password.
var ErrLocalAccount = errors.New("username belongs to a local account")

// OIDCProvider logs users in through an OpenID Connect provider.
// Users are matched by their preferred username and created on first login.
// Accounts with a local password are never taken over.
type OIDCProvider struct {
	db       database.DB
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
	cfg      *config.Config
}

// NewOIDCProvider discovers the issuer and creates the oauth2 configuration.
func NewOIDCProvider(ctx context.Context, cfg *config.Config, db database.DB) (*OIDCProvider, error) {
	oidcCfg := cfg.Auth.OIDC
	p := OIDCProvider{
		db:  db,
		cfg: cfg,
	}
	var err error
	p.provider, err = oidc.NewProvider(ctx, oidcCfg.Issuer)
	if err != nil {
		return nil, err
	}

	p.config = &oauth2.Config{
		ClientID:     oidcCfg.ClientID,
		ClientSecret: oidcCfg.ClientSecret,
		RedirectURL:  oidcCfg.RedirectURL,
		Endpoint:     p.provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	p.verifier = p.provider.Verifier(&oidc.Config{ClientID: oidcCfg.ClientID})
	return &p, nil
}

func (p *OIDCProvider) usePKCE() bool {
	return p.cfg.Auth.OIDC != nil && p.cfg.Auth.OIDC.UsePKCE
}

func (p *OIDCProvider) Login(c *gin.Context) {
	state := uuid.New().String()

	session := sessions.Default(c)
	session.Set(sessionOAuthState, state)

	var opts []oauth2.AuthCodeOption
	if p.usePKCE() {
		verifier := oauth2.GenerateVerifier()
		session.Set(sessionOAuthPKCE, verifier)
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}

	if err := session.Save(); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}

	c.Redirect(http.StatusFound, p.config.AuthCodeURL(state, opts...))
}

func (p *OIDCProvider) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	state := getSessionString(session, sessionOAuthState)
	if state == "" || c.Query("state") != state {
		c.AbortWithError(http.StatusBadRequest, errors.New("invalid oauth state")) //nolint:errcheck
		return
	}
	session.Delete(sessionOAuthState)

	var opts []oauth2.AuthCodeOption
	if p.usePKCE() {
		opts = append(opts, oauth2.VerifierOption(getSessionString(session, sessionOAuthPKCE)))
		session.Delete(sessionOAuthPKCE)
	}

	oauth2Token, err := p.config.Exchange(ctx, c.Query("code"), opts...)
	if err != nil {
		c.AbortWithError(http.StatusUnauthorized, err) //nolint:errcheck
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		c.AbortWithError(http.StatusInternalServerError, errors.New("missing id token")) //nolint:errcheck
		return
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		c.AbortWithError(http.StatusUnauthorized, err) //nolint:errcheck
		return
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}

	user, err := p.getOrCreateUser(ctx, claims)
	if errors.Is(err, ErrLocalAccount) {
		log.Warn("refused oidc login for local account", "username", claims.Username(), "sub", claims.Sub)
		c.AbortWithError(http.StatusForbidden, err) //nolint:errcheck
		return
	}
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}

	if err := startSession(c, user, p.cfg.IsAdmin(user.Username)); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// Claims are the ID token claims khaki reads.
type Claims struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Sub               string `json:"sub"`
}

// Username returns the username a claim set maps to.
func (c Claims) Username() string {
	if c.PreferredUsername != "" {
		return c.PreferredUsername
	}
	return c.Email
}

func (p *OIDCProvider) getOrCreateUser(ctx context.Context, claims Claims) (*database.User, error) {
	username := claims.Username()
	if username == "" {
		return nil, fmt.Errorf("id token of %q carries no username", claims.Sub)
	}
	// with local auth the administrator is the seeded password account
	if p.cfg.IsAdmin(username) && p.cfg.LocalAuthEnabled() {
		return nil, ErrLocalAccount
	}

	user, err := p.db.GetUserByUsername(ctx, username)
	if err == nil {
		if user.PasswordHash != "" {
			return nil, ErrLocalAccount
		}
		return user, nil
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return nil, err
	}

	name := claims.Name
	if name == "" {
		name = username
	}
	user = &database.User{
		Name:     name,
		Email:    claims.Email,
		Username: username,
	}
	if err := p.db.CreateUser(ctx, user); err != nil {
		// a concurrent login created the user first
		if errors.Is(err, database.ErrDuplicateUsername) {
			user, err = p.db.GetUserByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if user.PasswordHash != "" {
				return nil, ErrLocalAccount
			}
			return user, nil
		}
		return nil, err
	}
	log.Info("created user from oidc login", "username", username)
	return user, nil
}
