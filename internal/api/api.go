package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jon4hz/khaki/internal/api/auth"
	"github.com/jon4hz/khaki/internal/api/handler"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/engine"
	"github.com/jon4hz/khaki/web"
)

const (
	sessionName     = "khaki_session"
	requestIDHeader = "X-Request-ID"
)

type Server struct {
	cfg          *config.Config
	ginEngine    *gin.Engine
	engine       *engine.Engine
	authProvider *auth.MultiProvider
	server       *http.Server
}

// New creates the http server and registers every route.
func New(ctx context.Context, cfg *config.Config, db database.DB, e *engine.Engine, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	authProvider, err := auth.NewProvider(ctx, cfg, db, e.Avatars())
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:          cfg,
		ginEngine:    gin.New(),
		authProvider: authProvider,
		engine:       e,
	}

	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.ginEngine.SetHTMLTemplate(tmpl)

	s.ginEngine.Use(gin.Recovery())
	s.ginEngine.Use(requestLogger())
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
	s.setupSession()

	static, err := web.Static()
	if err != nil {
		return fmt.Errorf("failed to load static files: %w", err)
	}
	s.ginEngine.StaticFS("/static", http.FS(static))

	s.setupRoutes()
	s.setupAdminRoutes()
	return nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(sessionName, store))
}

func (s *Server) setupRoutes() {
	h := handler.New(s.engine)

	s.ginEngine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.ginEngine.GET("/login", s.authProvider.LoginPage)
	s.ginEngine.POST("/login", s.authProvider.Login)
	s.ginEngine.GET("/register", s.authProvider.RegisterPage)
	s.ginEngine.POST("/register", s.authProvider.Register)
	s.ginEngine.GET("/logout", s.authProvider.Logout)
	s.ginEngine.GET("/oauth/login", s.authProvider.Login)
	s.ginEngine.GET("/oauth/callback", s.authProvider.Callback)

	protected := s.ginEngine.Group("/")
	protected.Use(s.authProvider.RequireAuth())

	protected.GET("/", h.Home)
	protected.GET("/calendar/:id", h.Calendar)
	protected.POST("/calendar/:id", h.SaveCalendar)

	// API routes
	api := protected.Group("/api")
	api.GET("/me", h.Me)
	api.GET("/calendar/:id", h.GetCalendar)
	api.POST("/calendar/:id", h.PostCalendar)
}

func (s *Server) setupAdminRoutes() {
	h := handler.New(s.engine)

	adminGroup := s.ginEngine.Group("/admin")
	adminGroup.Use(s.authProvider.RequireAuth(), s.authProvider.RequireAdmin())
	adminGroup.GET("/users", h.AdminUsers)
	adminGroup.GET("/summary", h.AdminSummary)

	adminAPI := s.ginEngine.Group("/api/admin")
	adminAPI.Use(s.authProvider.RequireAuth(), s.authProvider.RequireAdmin())
	adminAPI.GET("/stats", h.AdminStats)
	adminAPI.GET("/jobs", h.AdminJobs)
	adminAPI.POST("/jobs/:id/run", h.AdminRunJob)
}

// Handler returns the http handler of the server.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves http until Shutdown is called.
func (s *Server) Run() error {
	s.server = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("Starting server", "listen", s.cfg.Listen)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// requestLogger tags every request with an id and logs it once it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", requestID,
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case len(c.Errors) > 0:
			log.Warn("request", append(fields, "error", c.Errors.String())...)
		default:
			log.Debug("request", fields...)
		}
	}
}
