package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the khaki server.
type Config struct {
	// Listen is the address the server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the base URL of the server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign session cookies.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SecureCookies marks the session cookie as https only.
	SecureCookies bool `yaml:"secure_cookies" mapstructure:"secure_cookies"`
	// Admin describes the single administrator account.
	Admin *AdminConfig `yaml:"admin" mapstructure:"admin"`
	// Registration controls self sign-up.
	Registration *RegistrationConfig `yaml:"registration" mapstructure:"registration"`
	// Auth holds the authentication configuration.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache holds the cache engine configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
	// Email holds the SMTP configuration for notification mails.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// Reminders holds the configuration of the weekly reminder job.
	Reminders *RemindersConfig `yaml:"reminders" mapstructure:"reminders"`
}

// AdminConfig describes the administrator.
// The admin status is a property of the username and is resolved at login.
type AdminConfig struct {
	// Username of the administrator.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is used to create the administrator on first start. Leave empty to skip seeding.
	Password string `yaml:"password" mapstructure:"password"`
	// Name is the display name of the seeded administrator.
	Name string `yaml:"name" mapstructure:"name"`
	// Email of the seeded administrator.
	Email string `yaml:"email" mapstructure:"email"`
}

// RegistrationConfig controls whether new users can sign up themselves.
type RegistrationConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// AuthConfig holds the authentication configuration.
type AuthConfig struct {
	// Local holds the username/password authentication configuration.
	Local *LocalAuthConfig `yaml:"local" mapstructure:"local"`
	// OIDC holds the OpenID Connect configuration.
	OIDC *OIDCConfig `yaml:"oidc" mapstructure:"oidc"`
}

// LocalAuthConfig holds the username/password authentication configuration.
type LocalAuthConfig struct {
	// Enabled indicates whether username/password authentication is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// OIDCConfig holds the OpenID Connect configuration.
type OIDCConfig struct {
	// Enabled indicates whether OIDC authentication is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Name is the display name for the OIDC provider.
	Name string `yaml:"name" mapstructure:"name"`
	// Issuer is the OIDC issuer URL.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// ClientID is the OIDC client ID.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	// ClientSecret is the OIDC client secret.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// RedirectURL is the redirect URL for the oidc flow.
	RedirectURL string `yaml:"redirect_url" mapstructure:"redirect_url"`
	// UsePKCE enables PKCE (Proof Key for Code Exchange) for the OAuth 2.0 flow.
	UsePKCE bool `yaml:"use_pkce" mapstructure:"use_pkce"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig holds the cache engine configuration.
type CacheConfig struct {
	// Type is the type of cache engine to use.
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the redis server, used if Type is redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar profile pictures are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Options: 404, mp, identicon, monsterid, wavatar, retro, robohash, blank
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for the Gravatar image.
	// Options: g, pg, r, x
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// EmailConfig holds the SMTP configuration.
type EmailConfig struct {
	// Enabled indicates whether email notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the email address from which notifications are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which notifications are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// UseTLS enables STARTTLS.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL enables implicit TLS.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify skips TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	// DryRun only logs the mails instead of sending them.
	DryRun bool `yaml:"dry_run" mapstructure:"dry_run"`
}

// RemindersConfig configures the reminder mail for users without hours in the previous week.
type RemindersConfig struct {
	// Enabled indicates whether the reminder job is scheduled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Schedule is a cron expression (minute hour dom month dow).
	Schedule string `yaml:"schedule" mapstructure:"schedule"`
}

// Load loads the configuration from the given path.
// If path is empty, the default locations are searched.
// Environment variables with the KHAKI_ prefix override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	bindNestedEnv(v)

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("KHAKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.khaki")
		v.AddConfigPath("/etc/khaki")
	}

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, everything can be set through the environment
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3003")
	v.SetDefault("server_url", "http://localhost:3003")
	v.SetDefault("session_max_age", 172800) // 48 hours
	v.SetDefault("session_key", "")
	v.SetDefault("secure_cookies", false)

	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.name", "Administrator")
	v.SetDefault("admin.email", "")

	v.SetDefault("registration.enabled", true)

	v.SetDefault("auth.local.enabled", true)
	v.SetDefault("auth.oidc.enabled", false)
	v.SetDefault("auth.oidc.name", "OIDC")
	v.SetDefault("auth.oidc.issuer", "")
	v.SetDefault("auth.oidc.client_id", "")
	v.SetDefault("auth.oidc.client_secret", "")
	v.SetDefault("auth.oidc.redirect_url", "")
	v.SetDefault("auth.oidc.use_pkce", false)

	v.SetDefault("database.path", "./data/khaki.db")

	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 40)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.from_name", "khaki")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.insecure_skip_verify", false)
	v.SetDefault("email.dry_run", false)

	v.SetDefault("reminders.enabled", false)
	v.SetDefault("reminders.schedule", "0 9 * * 1") // Mondays at 9
}

// bindNestedEnv binds keys without a default, viper would not pick them up from the environment otherwise.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("admin.username", "KHAKI_ADMIN_USERNAME")
	v.MustBindEnv("admin.password", "KHAKI_ADMIN_PASSWORD")
	v.MustBindEnv("auth.oidc.client_secret", "KHAKI_AUTH_OIDC_CLIENT_SECRET")
	v.MustBindEnv("email.password", "KHAKI_EMAIL_PASSWORD")
}

func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing khaki config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.Admin == nil || c.Admin.Username == "" {
		return fmt.Errorf("admin username is required")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Auth == nil {
		return fmt.Errorf("missing auth config")
	}

	authEnabled := false
	if c.Auth.Local != nil && c.Auth.Local.Enabled {
		authEnabled = true
	}

	if c.Auth.OIDC != nil && c.Auth.OIDC.Enabled {
		authEnabled = true
		if c.Auth.OIDC.Issuer == "" {
			return fmt.Errorf("OIDC issuer is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC client ID is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientSecret == "" {
			return fmt.Errorf("OIDC client secret is required when OIDC is enabled")
		}
		if c.Auth.OIDC.RedirectURL == "" {
			return fmt.Errorf("OIDC redirect URL is required when OIDC is enabled")
		}
	}

	if !authEnabled {
		return fmt.Errorf("at least one authentication method must be enabled")
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
		}
	}

	if c.Registration == nil {
		c.Registration = &RegistrationConfig{}
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required when email is enabled")
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("from email is required when email is enabled")
		}
	}

	if c.Reminders != nil && c.Reminders.Enabled {
		if !c.EmailEnabled() {
			return fmt.Errorf("reminders require email to be enabled")
		}
		if c.Reminders.Schedule == "" {
			return fmt.Errorf("reminder schedule is required when reminders are enabled")
		}
	}

	return nil
}

// sanitizeConfig cleans up the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.Admin != nil {
		c.Admin.Username = strings.TrimSpace(c.Admin.Username)
		c.Admin.Email = strings.TrimSpace(c.Admin.Email)
	}

	if c.Auth != nil && c.Auth.OIDC != nil {
		c.Auth.OIDC.Issuer = urlSanitize(c.Auth.OIDC.Issuer)
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// IsAdmin reports whether username is the configured administrator.
func (c *Config) IsAdmin(username string) bool {
	if c == nil || c.Admin == nil || c.Admin.Username == "" {
		return false
	}
	return username == c.Admin.Username
}

// RegistrationEnabled reports whether self sign-up is allowed.
func (c *Config) RegistrationEnabled() bool {
	return c != nil && c.Registration != nil && c.Registration.Enabled && c.LocalAuthEnabled()
}

// LocalAuthEnabled reports whether username/password login is enabled.
func (c *Config) LocalAuthEnabled() bool {
	return c != nil && c.Auth != nil && c.Auth.Local != nil && c.Auth.Local.Enabled
}

// OIDCEnabled reports whether OIDC login is enabled.
func (c *Config) OIDCEnabled() bool {
	return c != nil && c.Auth != nil && c.Auth.OIDC != nil && c.Auth.OIDC.Enabled
}

// EmailEnabled reports whether notification mails are sent.
func (c *Config) EmailEnabled() bool {
	return c != nil && c.Email != nil && c.Email.Enabled
}

// RemindersEnabled reports whether the reminder job is scheduled.
func (c *Config) RemindersEnabled() bool {
	return c != nil && c.Reminders != nil && c.Reminders.Enabled && c.EmailEnabled()
}
