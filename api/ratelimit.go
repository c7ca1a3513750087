package api

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 5 * time.Minute
)

// loginRateLimiter tracks failed login attempts per client within a fixed
// window. A successful login clears the client's slate immediately.
type loginRateLimiter struct {
	mu          sync.Mutex
	state       map[string]*windowEntry
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

type windowEntry struct {
	attempts    int
	windowStart time.Time
}

func newLoginRateLimiter(maxAttempts int, window time.Duration, now func() time.Time) *loginRateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &loginRateLimiter{
		state:       make(map[string]*windowEntry),
		maxAttempts: maxAttempts,
		window:      window,
		now:         now,
		stopCh:      make(chan struct{}),
	}
}

// startSweeper launches the background sweep goroutine, running once per
// window. Call stop to end it.
func (l *loginRateLimiter) startSweeper() {
	go func() {
		ticker := time.NewTicker(l.window)
		defer ticker.Stop()
		for {
			select {
			case <-l.stopCh:
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()
}

// stop ends the background sweeper. Idempotent.
func (l *loginRateLimiter) stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// isLimited reports whether the client has exhausted its attempts in the
// current window. A stale window is discarded on sight.
func (l *loginRateLimiter) isLimited(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.state[client]
	if !ok {
		return false
	}
	if l.now().Sub(entry.windowStart) >= l.window {
		delete(l.state, client)
		return false
	}
	return entry.attempts >= l.maxAttempts
}

func (l *loginRateLimiter) recordFailure(client string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.state[client]
	if !ok || now.Sub(entry.windowStart) >= l.window {
		l.state[client] = &windowEntry{attempts: 1, windowStart: now}
		return
	}
	entry.attempts++
}

func (l *loginRateLimiter) recordSuccess(client string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.state, client)
}

// sweep drops entries whose window has elapsed, bounding memory for
// clients that never return. Lazy expiry in isLimited keeps correctness
// independent of it.
func (l *loginRateLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for client, entry := range l.state {
		if now.Sub(entry.windowStart) >= l.window {
			delete(l.state, client)
		}
	}
}

// extractClientIP returns the connection's remote address without the
// port. Proxy headers are deliberately ignored; they are trivially
// spoofed without a trusted-proxy configuration.
func extractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
