// Package memory provides a thread-safe in-memory implementation of
// storage.Repository. Suitable for testing and ephemeral single-process use.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mkarlsen/gatehouse/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
type Repository struct {
	mu   sync.RWMutex
	cred *storage.Credential
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{}
}

func cloneCredential(c *storage.Credential) *storage.Credential {
	if c == nil {
		return nil
	}
	return &storage.Credential{
		PasswordHash: append([]byte(nil), c.PasswordHash...),
		Salt:         append([]byte(nil), c.Salt...),
		Iterations:   c.Iterations,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r *Repository) Has(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cred != nil, nil
}

func (r *Repository) Get(ctx context.Context) (*storage.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cred == nil {
		return nil, storage.ErrNotFound
	}
	return cloneCredential(r.cred), nil
}

func (r *Repository) Set(ctx context.Context, hash, salt []byte, iterations int, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	createdAt := now
	if r.cred != nil {
		createdAt = r.cred.CreatedAt
	}
	r.cred = &storage.Credential{
		PasswordHash: append([]byte(nil), hash...),
		Salt:         append([]byte(nil), salt...),
		Iterations:   iterations,
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}
	return nil
}
