// Package storage provides the persistence abstraction for the single
// administrative credential record.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no credential record has been stored yet.
// First run is an expected state, not a failure.
var ErrNotFound = errors.New("credential not found")

// Credential is the administrative credential record. At most one exists
// system-wide; it is created on first set-password and only ever replaced
// afterwards (password change or hash upgrade), never deleted.
type Credential struct {
	PasswordHash []byte    `json:"password_hash"`
	Salt         []byte    `json:"salt"`
	Iterations   int       `json:"iterations"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository defines durable storage for the singleton credential record.
type Repository interface {
	// Has reports whether a credential record exists.
	Has(ctx context.Context) (bool, error)
	// Get returns the credential record, or ErrNotFound if none exists.
	Get(ctx context.Context) (*Credential, error)
	// Set upserts the credential record atomically: insert if absent,
	// otherwise replace hash material and UpdatedAt while preserving
	// CreatedAt.
	Set(ctx context.Context, hash, salt []byte, iterations int, now time.Time) error
}
