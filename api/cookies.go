package api

import (
	"net/http"
	"strings"
	"time"
)

func (cs CookieSettings) sameSite() http.SameSite {
	if cs.SameSiteStrict {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// writeSessionCookies sets the session cookie and its paired CSRF cookie.
// The CSRF cookie is intentionally NOT HttpOnly so that the browser-side
// client can read it and echo it back as a request header on mutating
// requests.
func (a *API) writeSessionCookies(w http.ResponseWriter, r *http.Request, token, csrf string, expiresAt time.Time) {
	secure := requestIsSecure(r)
	sameSite := a.cookies.sameSite()
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookies.SessionName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  expiresAt,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookies.CSRFName,
		Value:    csrf,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  expiresAt,
	})
}

// clearSessionCookies removes both cookies on logout.
func (a *API) clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	secure := requestIsSecure(r)
	sameSite := a.cookies.sameSite()
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookies.SessionName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookies.CSRFName,
		Value:    "",
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
