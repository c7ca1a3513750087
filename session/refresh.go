package session

import "time"

// refreshThreshold is the portion of the original TTL below which a
// client should proactively refresh.
const refreshThreshold = 0.25

// ShouldRefresh reports whether a session's remaining lifetime has
// dropped to a quarter or less of its original TTL. Clients use this to
// decide when to call the refresh endpoint instead of refreshing on
// every request. An already-expired session never warrants a refresh.
func ShouldRefresh(now, expiresAt time.Time, originalTTL time.Duration) bool {
	if originalTTL <= 0 {
		return false
	}
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return false
	}
	return float64(remaining) <= float64(originalTTL)*refreshThreshold
}
