package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkarlsen/gatehouse/auth"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, auth.DefaultIterations, cfg.PBKDF2Iterations)
	assert.Equal(t, 120, cfg.SessionMinutes)
	assert.Equal(t, 60*24*30, cfg.RememberMinutes)
	assert.True(t, cfg.SameSiteStrict)
	assert.Equal(t, "gatehouse_session", cfg.SessionCookieName)
	assert.Equal(t, "gatehouse_csrf", cfg.CSRFCookieName)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 300, cfg.LoginWindowSeconds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GATEHOUSE_PEPPER", "secret")
	t.Setenv("GATEHOUSE_PBKDF2_ITERATIONS", "200000")
	t.Setenv("GATEHOUSE_SESSION_MINUTES", "30")
	t.Setenv("GATEHOUSE_SESSION_SAMESITE_STRICT", "false")
	t.Setenv("GATEHOUSE_SESSION_COOKIE", "my_session")
	t.Setenv("GATEHOUSE_LOGIN_MAX_ATTEMPTS", "3")

	cfg := Load()
	assert.Equal(t, "secret", cfg.Pepper)
	assert.Equal(t, 200000, cfg.PBKDF2Iterations)
	assert.Equal(t, 30, cfg.SessionMinutes)
	assert.False(t, cfg.SameSiteStrict)
	assert.Equal(t, "my_session", cfg.SessionCookieName)
	assert.Equal(t, 3, cfg.LoginMaxAttempts)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("GATEHOUSE_PBKDF2_ITERATIONS", "lots")
	t.Setenv("GATEHOUSE_SESSION_SAMESITE_STRICT", "definitely")

	cfg := Load()
	assert.Equal(t, auth.DefaultIterations, cfg.PBKDF2Iterations)
	assert.True(t, cfg.SameSiteStrict)
}
