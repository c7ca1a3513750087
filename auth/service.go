package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkarlsen/gatehouse/storage"
)

// Service orchestrates credential storage and verification on top of a
// Hasher and a storage.Repository.
type Service struct {
	repo   storage.Repository
	hasher *Hasher
	logger *slog.Logger
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger used for hash lifecycle events.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithNow overrides the clock, for deterministic tests.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a password Service.
func NewService(repo storage.Repository, hasher *Hasher, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		hasher: hasher,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasPassword reports whether an administrative credential exists.
func (s *Service) HasPassword(ctx context.Context) (bool, error) {
	return s.repo.Has(ctx)
}

// SetPassword hashes password at the configured work factor and upserts
// the credential record. Callers decide whether replacement is allowed;
// the service itself always writes.
func (s *Service) SetPassword(ctx context.Context, password string) error {
	iterations, salt, hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.repo.Set(ctx, hash, salt, iterations, s.now().UTC()); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	s.logger.Info("password set", "iterations", iterations)
	return nil
}

// Verify checks password against the stored credential. A missing record
// or a mismatch yields (false, nil); only storage failures are errors.
//
// On success, if the configured target iteration count exceeds the
// stored one, the password is transparently re-hashed and persisted at
// the new work factor. The upgrade is best-effort: a failed write is
// logged but never turns a valid login into a failed one.
func (s *Service) Verify(ctx context.Context, password string) (bool, error) {
	cred, err := s.repo.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading credential: %w", err)
	}
	if !s.hasher.Verify(password, cred.Salt, cred.Iterations, cred.PasswordHash) {
		return false, nil
	}
	if s.hasher.Iterations() > cred.Iterations {
		s.upgradeHash(ctx, password, cred.Iterations)
	}
	return true, nil
}

func (s *Service) upgradeHash(ctx context.Context, password string, oldIterations int) {
	iterations, salt, hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("hash upgrade failed", "error", err)
		return
	}
	if err := s.repo.Set(ctx, hash, salt, iterations, s.now().UTC()); err != nil {
		s.logger.Error("hash upgrade failed", "error", err,
			"old_iterations", oldIterations, "new_iterations", iterations)
		return
	}
	s.logger.Info("upgraded password hash iterations",
		"old_iterations", oldIterations, "new_iterations", iterations)
}
