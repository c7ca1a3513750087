package api

import "time"

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse reports the authentication state of the caller.
type StatusResponse struct {
	HasPassword   bool       `json:"has_password"`
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CSRF          string     `json:"csrf,omitempty"`
}

// SetPasswordRequest configures the administrative password for the
// first time.
type SetPasswordRequest struct {
	Password string `json:"password"`
}

// LoginRequest is a login attempt. Remember requests the extended
// session TTL.
type LoginRequest struct {
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// ChangePasswordRequest replaces the password after re-verification.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SessionResponse describes the live session after login or refresh.
type SessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	CSRF      string    `json:"csrf"`
}
