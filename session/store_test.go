package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a mutable clock for driving TTL logic deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	s := NewStore(2*time.Hour, 30*24*time.Hour, WithNow(clock.Now))
	t.Cleanup(s.Close)
	return s
}

func TestStore_CreateAndValidate(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	token, csrf, err := s.Create(false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, csrf)
	assert.NotEqual(t, token, csrf)

	assert.True(t, s.Validate(token))

	expiry, ok := s.Expiry(token)
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(2*time.Hour), expiry)

	got, ok := s.CSRFToken(token)
	require.True(t, ok)
	assert.Equal(t, csrf, got)
}

func TestStore_TokensAreUnique(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	t1, c1, err := s.Create(false)
	require.NoError(t, err)
	t2, c2, err := s.Create(false)
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
	assert.NotEqual(t, c1, c2)
}

func TestStore_ExtendedTTL(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	token, _, err := s.Create(true)
	require.NoError(t, err)

	expiry, ok := s.Expiry(token)
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(30*24*time.Hour), expiry)
}

func TestStore_ValidateExpiredDeletesEntry(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	token, _, err := s.Create(false)
	require.NoError(t, err)

	clock.Advance(2*time.Hour + time.Second)
	assert.False(t, s.Validate(token))

	// Lazy cleanup removed the entry entirely.
	_, ok := s.Expiry(token)
	assert.False(t, ok)
}

func TestStore_ValidateUnknownToken(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)
	assert.False(t, s.Validate("no-such-token"))
}

func TestStore_RefreshExtendsWithStandardTTL(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	token, csrf, err := s.Create(true)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	newExpiry, gotCSRF, ok := s.Refresh(token)
	require.True(t, ok)
	assert.Equal(t, csrf, gotCSRF, "refresh preserves the CSRF token")
	assert.Equal(t, clock.Now().Add(2*time.Hour), newExpiry,
		"refresh always applies the standard TTL, even to extended sessions")
}

func TestStore_RefreshNeverDecreasesExpiry(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	token, _, err := s.Create(false)
	require.NoError(t, err)

	before, ok := s.Expiry(token)
	require.True(t, ok)

	clock.Advance(30 * time.Minute)
	newExpiry, _, ok := s.Refresh(token)
	require.True(t, ok)
	assert.False(t, newExpiry.Before(before), "refresh must never move expiry backwards")
}

func TestStore_RefreshExpiredOrAbsent(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	_, _, ok := s.Refresh("absent")
	assert.False(t, ok)

	token, _, err := s.Create(false)
	require.NoError(t, err)
	clock.Advance(3 * time.Hour)

	_, _, ok = s.Refresh(token)
	assert.False(t, ok)

	// The expired entry is gone afterwards.
	_, found := s.Expiry(token)
	assert.False(t, found)
}

func TestStore_InvalidateIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	token, _, err := s.Create(false)
	require.NoError(t, err)

	s.Invalidate(token)
	assert.False(t, s.Validate(token))

	// Invalidating again must not panic or error.
	s.Invalidate(token)
	s.Invalidate("never-existed")
}

func TestStore_SweepRemovesOnlyExpired(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	expired, _, err := s.Create(false)
	require.NoError(t, err)
	live, _, err := s.Create(true)
	require.NoError(t, err)

	clock.Advance(2*time.Hour + time.Minute)
	s.sweepExpired()

	_, ok := s.Expiry(expired)
	assert.False(t, ok, "expired session should be swept")
	_, ok = s.Expiry(live)
	assert.True(t, ok, "live session should be untouched")
}

func TestStore_ConcurrentOperations(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, clock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				token, _, err := s.Create(j%2 == 0)
				if err != nil {
					t.Error(err)
					return
				}
				s.Validate(token)
				s.Refresh(token)
				s.CSRFToken(token)
				if j%3 == 0 {
					s.Invalidate(token)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			s.sweepExpired()
		}
	}()
	wg.Wait()
}

func TestShouldRefresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 2 * time.Hour

	tests := []struct {
		name      string
		remaining time.Duration
		want      bool
	}{
		{"plenty left", 90 * time.Minute, false},
		{"just above threshold", 31 * time.Minute, false},
		{"at threshold", 30 * time.Minute, true},
		{"nearly gone", time.Minute, true},
		{"already expired", -time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldRefresh(now, now.Add(tt.remaining), ttl)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.False(t, ShouldRefresh(now, now.Add(time.Hour), 0), "non-positive TTL never refreshes")
}
