package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SNACKBOX_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (SNACKBOX_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL      string `default:"redis://localhost:6379/0" usage:"Redis connection URL for session storage" flag:"redis-url"`
	AssetDir      string `default:"./assets" usage:"Directory for uploaded product images" flag:"asset-dir"`
	PublicBaseURL string `default:"/assets" usage:"Base URL prepended to stored image keys" flag:"public-base-url"`
	Admin         AdminConfig
	Session       SessionConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// AdminConfig holds the single admin credential. The password is stored as a
// bcrypt hash; use the admin-password tool to generate one.
type AdminConfig struct {
	Email        string `usage:"Admin login email" flag:"admin-email"`
	PasswordHash string `usage:"bcrypt hash of the admin password" flag:"admin-password-hash"`
}

// SessionConfig controls session token signing and lifetime.
type SessionConfig struct {
	Secret     string        `usage:"HMAC secret for session tokens (SNACKBOX_SESSION_SECRET)" flag:"session-secret"`
	TTL        time.Duration `default:"12h" usage:"Session lifetime"`
	CookieName string        `default:"snackbox_session" usage:"Session cookie name" flag:"cookie-name"`
	Secure     bool          `default:"false" usage:"Set the Secure flag on the session cookie" flag:"cookie-secure"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers. Credentials
// default to on because the session rides a cookie.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SNACKBOX",
		Files:     []string{"config.yaml", "/etc/snackbox/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch {
	case cfg.DatabaseURL == "":
		return nil, errors.New("database URL is required: set SNACKBOX_DATABASE_URL or DATABASE_URL")
	case cfg.Admin.Email == "":
		return nil, errors.New("admin email is required: set SNACKBOX_ADMIN_EMAIL")
	case cfg.Admin.PasswordHash == "":
		return nil, errors.New("admin password hash is required: set SNACKBOX_ADMIN_PASSWORD_HASH")
	case cfg.Session.Secret == "":
		return nil, errors.New("session secret is required: set SNACKBOX_SESSION_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's SNACKBOX_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" && c.RedisURL == "redis://localhost:6379/0" {
		c.RedisURL = v
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
