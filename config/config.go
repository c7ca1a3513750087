// Package config loads the environment-driven settings for the gatehouse
// server.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/mkarlsen/gatehouse/auth"
)

// Config carries every tunable of the auth core. All values have working
// defaults; only the pepper genuinely wants operator attention.
type Config struct {
	// Pepper is an optional server-held secret mixed into password
	// hashes. Rotating it invalidates every existing hash.
	Pepper string
	// PBKDF2Iterations is the target work factor for new hashes.
	PBKDF2Iterations int

	SessionMinutes  int
	RememberMinutes int
	SameSiteStrict  bool

	SessionCookieName string
	CSRFCookieName    string

	LoginMaxAttempts   int
	LoginWindowSeconds int

	// DatabaseDSN selects the PostgreSQL credential store when set;
	// otherwise the server falls back to a local BBolt file.
	DatabaseDSN string
}

// Load reads configuration from the environment, applying defaults for
// anything unset. A missing pepper is tolerated but logged, since it
// weakens hash resilience against a leaked credential store.
func Load() Config {
	cfg := Config{
		Pepper:             os.Getenv("GATEHOUSE_PEPPER"),
		PBKDF2Iterations:   getenvInt("GATEHOUSE_PBKDF2_ITERATIONS", auth.DefaultIterations),
		SessionMinutes:     getenvInt("GATEHOUSE_SESSION_MINUTES", 120),
		RememberMinutes:    getenvInt("GATEHOUSE_REMEMBER_MINUTES", 60*24*30),
		SameSiteStrict:     getenvBool("GATEHOUSE_SESSION_SAMESITE_STRICT", true),
		SessionCookieName:  getenv("GATEHOUSE_SESSION_COOKIE", "gatehouse_session"),
		CSRFCookieName:     getenv("GATEHOUSE_CSRF_COOKIE", "gatehouse_csrf"),
		LoginMaxAttempts:   getenvInt("GATEHOUSE_LOGIN_MAX_ATTEMPTS", 5),
		LoginWindowSeconds: getenvInt("GATEHOUSE_LOGIN_WINDOW_SECONDS", 300),
		DatabaseDSN:        os.Getenv("GATEHOUSE_DATABASE_DSN"),
	}
	if cfg.Pepper == "" {
		slog.Warn("no GATEHOUSE_PEPPER configured; set a strong secret for improved password hash resilience")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", v)
		return fallback
	}
	return b
}
