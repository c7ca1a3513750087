// Package api exposes the authentication endpoints and the session gate
// middleware that decides, for every inbound request, whether it may
// proceed.
package api

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkarlsen/gatehouse/auth"
	"github.com/mkarlsen/gatehouse/session"
)

// CookieSettings control how the session and CSRF cookies are issued.
type CookieSettings struct {
	// SessionName is the HttpOnly session cookie. CSRFName is readable
	// by client script so it can be echoed back as a request header.
	SessionName    string
	CSRFName       string
	SameSiteStrict bool
}

// DefaultCookieSettings are used unless WithCookieSettings overrides them.
func DefaultCookieSettings() CookieSettings {
	return CookieSettings{
		SessionName:    "gatehouse_session",
		CSRFName:       "gatehouse_csrf",
		SameSiteStrict: true,
	}
}

// API holds the dependencies shared by the auth endpoints and the gate.
type API struct {
	passwords *auth.Service
	sessions  *session.Store
	limiter   *loginRateLimiter
	cookies   CookieSettings
	audit     *auditLogger

	// setupPath and loginPath are where HTML clients are sent by the
	// gate in setup mode and on missing sessions respectively.
	setupPath string
	loginPath string
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events. If not set, a
// default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithCookieSettings overrides the cookie names and SameSite policy.
func WithCookieSettings(cs CookieSettings) Option {
	return func(a *API) {
		a.cookies = cs
	}
}

// WithRateLimit overrides the login throttle: maxAttempts failures within
// window block further attempts from that client.
func WithRateLimit(maxAttempts int, window time.Duration) Option {
	return func(a *API) {
		a.limiter = newLoginRateLimiter(maxAttempts, window, a.limiter.now)
	}
}

// WithNow overrides the rate limiter clock, for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(a *API) {
		a.limiter.now = now
	}
}

// WithGatePaths overrides where HTML clients are redirected for
// first-time setup and login.
func WithGatePaths(setupPath, loginPath string) Option {
	return func(a *API) {
		a.setupPath = setupPath
		a.loginPath = loginPath
	}
}

// New creates a new API instance.
func New(passwords *auth.Service, sessions *session.Store, opts ...Option) *API {
	a := &API{
		passwords: passwords,
		sessions:  sessions,
		limiter:   newLoginRateLimiter(defaultMaxAttempts, defaultWindow, time.Now),
		cookies:   DefaultCookieSettings(),
		setupPath: "/setup",
		loginPath: "/login",
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	a.limiter.startSweeper()
	return a
}

// Close stops the rate limiter's background sweeper. Idempotent.
func (a *API) Close() {
	a.limiter.stop()
}

// Router returns a chi.Router with the auth routes mounted. These routes
// are exempted by the gate, so they must do their own cookie checks.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", a.Status)
	r.Post("/set-password", a.SetPassword)
	r.Post("/login", a.Login)
	r.Post("/logout", a.Logout)
	r.Post("/change-password", a.ChangePassword)
	r.Post("/refresh", a.Refresh)

	return r
}
