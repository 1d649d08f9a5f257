// internal/config/config.go
//
// Environment configuration for the wordduel server.
// Responsibilities:
//   - Reading every setting from the process environment (.env is loaded by
//     main via godotenv before Load runs).
//   - Defaults matching local development.
//   - Validation of values the server cannot start without.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Port     string
	LogLevel string
	AppEnv   string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string

	DailySalt string
	WordsFile string

	MatchConfirmTimeout   time.Duration
	PresenceTTL           time.Duration
	PresenceSweepInterval time.Duration
	RequestTimeout        time.Duration
}

// devSecret is accepted outside production only.
const devSecret = "dev_secret_change_me"

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	c := &Config{
		Port:     getEnv("PORT", "5175"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		AppEnv:   getEnv("APP_ENV", "development"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "sqlite3")),
		DBPath:      getEnv("DB_PATH", "./data/app.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:      getEnv("JWT_SECRET", devSecret),
		JWTExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "wordle_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),

		DailySalt: getEnv("DAILY_SALT", "local_dev_salt"),
		WordsFile: os.Getenv("WORDS_FILE"),

		MatchConfirmTimeout:   getEnvDuration("MATCH_CONFIRM_TIMEOUT", 10*time.Second),
		PresenceTTL:           getEnvDuration("PRESENCE_TTL", 45*time.Second),
		PresenceSweepInterval: getEnvDuration("PRESENCE_SWEEP_INTERVAL", 15*time.Second),
		RequestTimeout:        getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Production reports whether APP_ENV is "production".
func (c *Config) Production() bool { return c.AppEnv == "production" }

// Validate checks values Load cannot default its way out of.
func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "sqlite3", "sqlite":
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case "postgres", "postgresql":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver))
	}
	if c.Production() && (c.JWTSecret == "" || c.JWTSecret == devSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.JWTExpiresDays <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_DAYS must be positive"))
	}
	if c.PresenceTTL <= c.PresenceSweepInterval {
		errs = append(errs, errors.New("PRESENCE_TTL must exceed PRESENCE_SWEEP_INTERVAL"))
	}
	for name, d := range map[string]time.Duration{
		"MATCH_CONFIRM_TIMEOUT":   c.MatchConfirmTimeout,
		"PRESENCE_SWEEP_INTERVAL": c.PresenceSweepInterval,
		"REQUEST_TIMEOUT":         c.RequestTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses k as an int; unparsable values fall back to def.
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
