package auth

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/khaki/internal/api/models"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/gravatar"
)

// Session keys.
const (
	sessionUserID       = "user_id"
	sessionUserEmail    = "user_email"
	sessionUserName     = "user_name"
	sessionUserUsername = "user_username"
	sessionUserIsAdmin  = "user_is_admin"
	sessionOAuthState   = "oauth_state"
	sessionOAuthPKCE    = "oauth_pkce_verifier"
)

// startSession stores the identity of a freshly authenticated user.
// The admin flag is resolved once here and never re-derived later.
func startSession(c *gin.Context, user *database.User, isAdmin bool) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserID, user.ID)
	session.Set(sessionUserEmail, user.Email) // required for gravatar
	session.Set(sessionUserName, user.Name)
	session.Set(sessionUserUsername, user.Username)
	session.Set(sessionUserIsAdmin, isAdmin)
	return session.Save()
}

func clearSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

// CurrentUser returns the user stored in the session, nil if not logged in.
func CurrentUser(c *gin.Context) *models.User {
	session := sessions.Default(c)
	id, ok := session.Get(sessionUserID).(uint)
	if !ok || id == 0 {
		return nil
	}
	return &models.User{
		ID:       id,
		Email:    getSessionString(session, sessionUserEmail),
		Name:     getSessionString(session, sessionUserName),
		Username: getSessionString(session, sessionUserUsername),
		IsAdmin:  getSessionBool(session, sessionUserIsAdmin),
	}
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

func requireAuth(avatars *gravatar.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		user.GravatarURL = avatars.Avatar(user.Name, user.Email).URL

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := c.MustGet("user").(*models.User)
		if !ok || !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Helper functions to safely get session values.
func getSessionString(session sessions.Session, key string) string {
	if val := session.Get(key); val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getSessionBool(session sessions.Session, key string) bool {
	if val := session.Get(key); val != nil {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}
