package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// csrfHeaderName is the request header unsafe verbs must carry, matching
// the session's CSRF token.
const csrfHeaderName = "X-CSRF-Token"

// exemptPrefixes bypass the gate entirely. The auth endpoints must stay
// reachable or nobody could ever log in.
var exemptPrefixes = []string{"/health", "/api/health", "/auth"}

// staticPrefixes are asset paths allowed through in setup mode so the
// set-password page can render.
var staticPrefixes = []string{"/css/", "/js/", "/images/", "/lib/", "/favicon"}

// Gate is the request-admission middleware. Every request is evaluated
// fresh: exemption, setup mode, session cookie, then a CSRF header check
// on mutating verbs.
func (a *API) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		for _, prefix := range exemptPrefixes {
			if strings.HasPrefix(path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		hasPassword, err := a.passwords.HasPassword(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !hasPassword {
			if path == a.setupPath || isStaticAsset(path) {
				next.ServeHTTP(w, r)
				return
			}
			if wantsHTML(r) {
				http.Redirect(w, r, a.setupPath, http.StatusSeeOther)
				return
			}
			writeError(w, http.StatusServiceUnavailable, "password not configured")
			return
		}

		cookie, err := r.Cookie(a.cookies.SessionName)
		if err != nil || !a.sessions.Validate(cookie.Value) {
			// HTML clients get a login redirect unless they are
			// already on the login page, which would loop.
			if wantsHTML(r) && path != a.loginPath {
				http.Redirect(w, r, a.loginPath, http.StatusSeeOther)
				return
			}
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		if isUnsafeMethod(r.Method) {
			stored, ok := a.sessions.CSRFToken(cookie.Value)
			header := r.Header.Get(csrfHeaderName)
			if !ok || header == "" ||
				subtle.ConstantTimeCompare([]byte(header), []byte(stored)) != 1 {
				writeError(w, http.StatusForbidden, "invalid CSRF token")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func isStaticAsset(path string) bool {
	for _, prefix := range staticPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// wantsHTML reports whether the client is a browser navigating pages
// rather than an API consumer.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
