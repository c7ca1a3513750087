package api

import (
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/mkarlsen/gatehouse/auth"
)

const minPasswordLength = 8

// Status reports whether a password has been configured and whether the
// caller holds a live session. Exempt from the gate, so it checks the
// cookie itself.
func (a *API) Status(w http.ResponseWriter, r *http.Request) {
	hasPassword, err := a.passwords.HasPassword(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := StatusResponse{HasPassword: hasPassword}
	if cookie, err := r.Cookie(a.cookies.SessionName); err == nil && a.sessions.Validate(cookie.Value) {
		resp.Authenticated = true
		if expiry, ok := a.sessions.Expiry(cookie.Value); ok {
			resp.ExpiresAt = &expiry
		}
		if csrf, ok := a.sessions.CSRFToken(cookie.Value); ok {
			resp.CSRF = csrf
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetPassword configures the administrative password for the first time.
// Once a credential exists this endpoint refuses; use ChangePassword.
func (a *API) SetPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SetPasswordRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}

	hasPassword, err := a.passwords.HasPassword(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if hasPassword {
		writeError(w, http.StatusConflict, "password already set")
		return
	}
	if !passwordAcceptable(req.Password) {
		writeError(w, http.StatusBadRequest, "password too weak")
		return
	}
	if err := a.passwords.SetPassword(r.Context(), req.Password); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set password")
		return
	}

	a.audit.log(AuditPasswordSet, r)
	w.WriteHeader(http.StatusNoContent)
}

// Login verifies the password and issues a session. Failures are
// deliberately uniform: the caller learns nothing beyond "invalid
// credentials", and every failure counts against the rate limiter.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	client := extractClientIP(r)
	if a.limiter.isLimited(client) {
		a.audit.log(AuditLoginRateLimited, r)
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	req, ok := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}

	hasPassword, err := a.passwords.HasPassword(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !hasPassword {
		writeError(w, http.StatusConflict, "password not configured")
		return
	}

	valid := false
	if req.Password != "" {
		valid, err = a.passwords.Verify(r.Context(), req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	if !valid {
		a.limiter.recordFailure(client)
		a.audit.logFailure(AuditLoginFailure, r, "invalid credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	a.limiter.recordSuccess(client)

	token, csrf, err := a.sessions.Create(req.Remember)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	expiry, _ := a.sessions.Expiry(token)
	a.writeSessionCookies(w, r, token, csrf, expiry)

	a.audit.log(AuditLoginSuccess, r, slog.Bool("remember", req.Remember))
	writeJSON(w, http.StatusOK, SessionResponse{ExpiresAt: expiry, CSRF: csrf})
}

// Logout invalidates the session and clears both cookies. Safe to call
// without a session.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(a.cookies.SessionName); err == nil {
		a.sessions.Invalidate(cookie.Value)
	}
	a.clearSessionCookies(w, r)
	a.audit.log(AuditLogout, r)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword replaces the password after re-verifying the current
// one. Requires a live session; the auth routes are gate-exempt.
func (a *API) ChangePassword(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(a.cookies.SessionName)
	if err != nil || !a.sessions.Validate(cookie.Value) {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, ok := decodeJSON[ChangePasswordRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}

	valid, err := a.passwords.Verify(r.Context(), req.CurrentPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !passwordAcceptable(req.NewPassword) {
		writeError(w, http.StatusBadRequest, "password too weak")
		return
	}
	if err := a.passwords.SetPassword(r.Context(), req.NewPassword); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}

	a.audit.log(AuditPasswordChanged, r)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh slides the session expiry forward and rewrites both cookies.
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(a.cookies.SessionName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	expiry, csrf, ok := a.sessions.Refresh(cookie.Value)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	a.writeSessionCookies(w, r, cookie.Value, csrf, expiry)

	a.audit.log(AuditSessionRefreshed, r)
	writeJSON(w, http.StatusOK, SessionResponse{ExpiresAt: expiry, CSRF: csrf})
}

func passwordAcceptable(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}
	return auth.EvaluateStrength(password).Acceptable()
}
