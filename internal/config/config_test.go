package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "DB_DRIVER", "DB_PATH", "JWT_SECRET", "JWT_EXPIRES_DAYS",
		"MATCH_CONFIRM_TIMEOUT", "PRESENCE_TTL", "PRESENCE_SWEEP_INTERVAL", "REQUEST_TIMEOUT"} {
		t.Setenv(k, "")
	}
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != "5175" || c.DBDriver != "sqlite3" || c.DBPath != "./data/app.db" || c.CookieName != "wordle_token" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.JWTExpiresDays != 14 || c.MatchConfirmTimeout != 10*time.Second || c.PresenceTTL != 45*time.Second {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.Production() {
		t.Error("default env should not be production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/wordduel")
	t.Setenv("MATCH_CONFIRM_TIMEOUT", "3")
	t.Setenv("PRESENCE_TTL", "1m")
	t.Setenv("JWT_EXPIRES_DAYS", "oops")

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != "8080" || c.DBDriver != "postgres" {
		t.Errorf("got %+v", c)
	}
	if c.MatchConfirmTimeout != 3*time.Second || c.PresenceTTL != time.Minute {
		t.Errorf("durations: %v %v", c.MatchConfirmTimeout, c.PresenceTTL)
	}
	if c.JWTExpiresDays != 14 {
		t.Errorf("unparsable int should fall back, got %d", c.JWTExpiresDays)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DBDriver:              "sqlite3",
			DBPath:                "x.db",
			JWTSecret:             devSecret,
			JWTExpiresDays:        14,
			MatchConfirmTimeout:   time.Second,
			PresenceTTL:           45 * time.Second,
			PresenceSweepInterval: 15 * time.Second,
			RequestTimeout:        time.Second,
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"postgres without url", func(c *Config) { c.DBDriver = "postgres" }, "DATABASE_URL"},
		{"dev secret in production", func(c *Config) { c.AppEnv = "production" }, "JWT_SECRET"},
		{"ttl below sweep", func(c *Config) { c.PresenceTTL = time.Second }, "PRESENCE_TTL"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
