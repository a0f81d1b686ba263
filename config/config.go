// ABOUTME: Application configuration loaded from .env and environment variables
// ABOUTME: Provides defaults for database path, timezone, OAuth and sync settings
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppName is used for XDG data directories.
const AppName = "portal"

// Config holds all runtime settings.
type Config struct {
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL        string        `env:"PORTAL_REDIRECT_URL"     envDefault:"http://localhost:8080/oauth/callback"`
	DBPath             string        `env:"PORTAL_DB_PATH"`
	TokenPath          string        `env:"PORTAL_TOKEN_PATH"`
	TimeZone           string        `env:"PORTAL_TIMEZONE"         envDefault:"UTC"`
	CalendarID         string        `env:"PORTAL_CALENDAR_ID"      envDefault:"primary"`
	SyncConcurrency    int           `env:"PORTAL_SYNC_CONCURRENCY" envDefault:"8"`
	RevokeTimeout      time.Duration `env:"PORTAL_REVOKE_TIMEOUT"   envDefault:"5s"`
	WebPort            int           `env:"PORTAL_WEB_PORT"         envDefault:"8081"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = DefaultTokenPath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that env parsing cannot.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid PORTAL_TIMEZONE %q: %w", c.TimeZone, err)
	}
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("PORTAL_SYNC_CONCURRENCY must be at least 1, got %d", c.SyncConcurrency)
	}
	if c.CalendarID == "" {
		return fmt.Errorf("PORTAL_CALENDAR_ID cannot be empty")
	}
	if c.RedirectURL != "" {
		u, err := url.Parse(c.RedirectURL)
		if err != nil {
			return fmt.Errorf("invalid PORTAL_REDIRECT_URL %q: %w", c.RedirectURL, err)
		}
		if u.Scheme != "http" || u.Host == "" {
			return fmt.Errorf("PORTAL_REDIRECT_URL must be an http URL with a host, got %q", c.RedirectURL)
		}
	}
	return nil
}

// RequireOAuth reports whether Google client credentials are present.
func (c *Config) RequireOAuth() error {
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
		return fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")
	}
	return nil
}

// Location returns the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultDBPath returns the XDG-compliant database location.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, AppName, "portal.db")
}

// DefaultTokenPath returns the XDG-compliant location for the Google token.
func DefaultTokenPath() string {
	return filepath.Join(xdg.DataHome, AppName, "google-credentials.json")
}
