// Package config loads the dashboard configuration from the environment.
//
// Everything the server needs is read once at startup into a Config struct and
// then passed explicitly to the components that use it. Nothing in a request path
// calls os.Getenv.
//
// A .env file in the working directory is loaded first if present (godotenv).
// Variables already set in the real environment win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Discord  DiscordConfig
	Bot      BotConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// DatabaseConfig holds the SQLite location.
type DatabaseConfig struct {
	Path string
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	// URL is the public origin of the dashboard, used to build the OAuth
	// callback and post-login redirects.
	URL string
}

// DiscordConfig holds the OAuth application credentials.
type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// AdminIDs are Discord user ids that may manage every guild.
	AdminIDs []string
}

// BotConfig points at the external bot service.
type BotConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Enabled reports whether remote calls should be attempted at all.
func (b BotConfig) Enabled() bool {
	return b.BaseURL != "" && b.Token != ""
}

// Enabled reports whether Discord login can be offered.
func (d DiscordConfig) Enabled() bool {
	return d.ClientID != "" && d.ClientSecret != ""
}

// Level maps LOG_LEVEL to a slog level. Unknown values fall back to info.
func (s ServerConfig) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Production reports whether cookies should be marked Secure.
func (s ServerConfig) Production() bool {
	return s.Env == "production" || s.Env == "staging"
}

const (
	DefaultPort       = 8080
	DefaultDBPath     = "data/dashboard.db"
	DefaultSessionTTL = 7 * 24 * time.Hour
	DefaultBotTimeout = 5 * time.Second
)

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	// A missing .env is normal in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (*Config, error) {
	port, err := getIntEnv("PORT", DefaultPort)
	if err != nil {
		return nil, err
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("config: PORT must be between 1 and 65535, got %d", port)
	}
	ttl, err := getDurationEnv("SESSION_TTL", DefaultSessionTTL)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("config: SESSION_TTL must be positive, got %s", ttl)
	}
	timeout, err := getDurationEnv("BOT_API_TIMEOUT", DefaultBotTimeout)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("config: BOT_API_TIMEOUT must be positive, got %s", timeout)
	}

	sessionURL := strings.TrimRight(getEnv("SESSION_URL", fmt.Sprintf("http://localhost:%d", port)), "/")

	cfg := &Config{
		Server: ServerConfig{
			Port:           port,
			Env:            getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: getSliceEnv("ALLOWED_ORIGINS", []string{sessionURL}),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", DefaultDBPath),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
			TTL:    ttl,
			URL:    sessionURL,
		},
		Discord: DiscordConfig{
			ClientID:     getEnv("DISCORD_CLIENT_ID", ""),
			ClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("DISCORD_REDIRECT_URL", sessionURL+"/api/auth/discord/callback"),
			AdminIDs:     getSliceEnv("DASHBOARD_ADMIN_IDS", nil),
		},
		Bot: BotConfig{
			BaseURL: strings.TrimRight(getEnv("BOT_API_URL", ""), "/"),
			Token:   getEnv("BOT_API_TOKEN", ""),
			Timeout: timeout,
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getIntEnv(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, v, err)
	}
	return n, nil
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, v, err)
	}
	return d, nil
}

func getSliceEnv(key string, fallback []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
