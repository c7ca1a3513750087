// Package session provides the in-memory session table for the admin
// gate: opaque tokens, per-session CSRF secrets, sliding expiry, and
// background sweeping of abandoned entries.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mkarlsen/gatehouse/internal/util"
)

const (
	// tokenBytes is the entropy of the session token (256 bits).
	tokenBytes = 32
	// csrfBytes is the independent entropy of the CSRF token (128 bits).
	csrfBytes = 16
)

// entry is the immutable per-session record. Mutation is replace, not
// field update, so map operations are the only synchronization needed.
type entry struct {
	expiresAt time.Time
	csrf      string
}

// Store is a thread-safe in-memory session table. Sessions are lost on
// restart; durable or distributed storage is deliberately out of scope.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]entry

	ttl         time.Duration
	rememberTTL time.Duration
	now         func() time.Time
	logger      *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the clock, for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the structured logger for sweep and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a session table with the given standard and
// "remember me" TTLs and starts the background sweeper, which runs once
// per standard TTL. Call Close to stop it.
func NewStore(ttl, rememberTTL time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[string]entry),
		ttl:         ttl,
		rememberTTL: rememberTTL,
		now:         time.Now,
		logger:      slog.Default(),
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.sweepLoop()
	return s
}

// Close stops the background sweeper. Idempotent.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// TTL returns the standard session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create generates a new session with independent high-entropy session
// and CSRF tokens. An extended session uses the remember-me TTL.
func (s *Store) Create(extended bool) (token, csrf string, err error) {
	token, err = util.RandomToken(tokenBytes)
	if err != nil {
		return "", "", err
	}
	csrf, err = util.RandomHex(csrfBytes)
	if err != nil {
		return "", "", err
	}
	ttl := s.ttl
	if extended {
		ttl = s.rememberTTL
	}
	expires := s.now().Add(ttl)

	s.mu.Lock()
	s.sessions[token] = entry{expiresAt: expires, csrf: csrf}
	s.mu.Unlock()

	s.logger.Debug("session created", "extended", extended, "expires_at", expires)
	return token, csrf, nil
}

// Validate reports whether token names a live session. An expired entry
// found here is deleted as a side effect.
func (s *Store) Validate(token string) bool {
	s.mu.RLock()
	e, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if e.expiresAt.After(s.now()) {
		return true
	}
	s.remove(token)
	return false
}

// Expiry returns the session's expiry time, without side effects.
func (s *Store) Expiry(token string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[token]
	if !ok {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// CSRFToken returns the session's CSRF token, without side effects.
func (s *Store) CSRFToken(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[token]
	if !ok {
		return "", false
	}
	return e.csrf, true
}

// Refresh slides a live session's expiry to now plus the standard TTL and
// returns its unchanged CSRF token. Refresh is a liveness signal, not a
// new remember-me grant, so extended sessions also get the standard TTL.
// An expired entry is deleted and reported as not ok.
func (s *Store) Refresh(token string) (newExpiry time.Time, csrf string, ok bool) {
	now := s.now()

	s.mu.Lock()
	e, found := s.sessions[token]
	if !found {
		s.mu.Unlock()
		return time.Time{}, "", false
	}
	if !e.expiresAt.After(now) {
		delete(s.sessions, token)
		s.mu.Unlock()
		return time.Time{}, "", false
	}
	newExpiry = now.Add(s.ttl)
	s.sessions[token] = entry{expiresAt: newExpiry, csrf: e.csrf}
	s.mu.Unlock()
	return newExpiry, e.csrf, true
}

// Invalidate removes the session. Removing an unknown token is not an
// error.
func (s *Store) Invalidate(token string) {
	s.remove(token)
}

func (s *Store) remove(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

// sweepExpired removes every expired entry, independent of the lazy
// cleanup done by Validate and Refresh.
func (s *Store) sweepExpired() {
	now := s.now()
	removed := 0

	s.mu.Lock()
	for token, e := range s.sessions {
		if !e.expiresAt.After(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("swept expired sessions", "count", removed)
	}
}
