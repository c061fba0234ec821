package auth

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/khaki/internal/database"
)

// Template names rendered by the auth handlers.
const (
	LoginTemplate    = "login.html"
	RegisterTemplate = "register.html"
)

// PageData is the template data of the login and register pages.
type PageData struct {
	Title        string
	Error        string
	Form         RegisterRequest
	HasLocal     bool
	HasOIDC      bool
	OIDCName     string
	Registration bool
}

func (mp *MultiProvider) pageData(title, errMsg string, form RegisterRequest) PageData {
	form.Password = ""
	return PageData{
		Title:        title,
		Error:        errMsg,
		Form:         form,
		HasLocal:     mp.HasLocal(),
		HasOIDC:      mp.HasOIDC(),
		OIDCName:     mp.OIDCName(),
		Registration: mp.RegistrationEnabled(),
	}
}

// LoginPage renders the login form, or redirects if the user is already logged in.
func (mp *MultiProvider) LoginPage(c *gin.Context) {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, LoginTemplate, mp.pageData("Login", "", RegisterRequest{}))
}

// RegisterPage renders the sign-up form.
func (mp *MultiProvider) RegisterPage(c *gin.Context) {
	if !mp.RegistrationEnabled() {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.HTML(http.StatusOK, RegisterTemplate, mp.pageData("Register", "", RegisterRequest{}))
}

// login handles the username/password form.
func (p *LocalProvider) login(mp *MultiProvider, c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := p.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		status := http.StatusUnauthorized
		msg := "Invalid username or password"
		if !errors.Is(err, ErrAuthenticationFailed) {
			log.Error("failed to authenticate user", "error", err)
			status = http.StatusInternalServerError
			msg = "Login failed, please try again"
		}
		c.HTML(status, LoginTemplate, mp.pageData("Login", msg, RegisterRequest{Username: username}))
		return
	}

	if err := startSession(c, user, p.IsAdmin(user)); err != nil {
		log.Error("failed to save session", "error", err)
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}

	log.Debug("user logged in", "username", user.Username)
	c.Redirect(http.StatusFound, "/")
}

// register handles the sign-up form and logs the new user in.
func (p *LocalProvider) register(mp *MultiProvider, c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, RegisterTemplate, mp.pageData("Register", "Invalid form", req))
		return
	}

	user, err := p.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, ErrMissingFields):
		c.HTML(http.StatusBadRequest, RegisterTemplate, mp.pageData("Register", "All fields are required", req))
		return
	case errors.Is(err, database.ErrDuplicateUsername):
		c.HTML(http.StatusConflict, RegisterTemplate, mp.pageData("Register", "That username is already taken", req))
		return
	case err != nil:
		log.Error("failed to register user", "error", err)
		c.HTML(http.StatusInternalServerError, RegisterTemplate, mp.pageData("Register", "Registration failed, please try again", req))
		return
	}

	if err := startSession(c, user, p.IsAdmin(user)); err != nil {
		log.Error("failed to save session", "error", err)
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}
	c.Redirect(http.StatusFound, "/")
}
