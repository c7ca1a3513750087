// Package auth provides credential hashing and the password service for
// the single administrative identity.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mkarlsen/gatehouse/internal/util"
)

const (
	// DefaultIterations is the PBKDF2 work factor applied to new hashes
	// unless configured otherwise.
	DefaultIterations = 150_000
	// minSafeIterations is the floor below which a warning is logged.
	minSafeIterations = 50_000

	saltSize = 32
	keySize  = 32
)

// Hasher derives and verifies salted PBKDF2-SHA256 password hashes. An
// optional pepper, a server-held secret never stored alongside the
// record, is appended to the password before derivation, so rotating it
// invalidates every existing hash.
type Hasher struct {
	iterations int
	pepper     string
}

// NewHasher creates a Hasher with the given target iteration count and
// optional pepper. A non-positive iteration count falls back to
// DefaultIterations.
func NewHasher(iterations int, pepper string, logger *slog.Logger) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if iterations < minSafeIterations {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("PBKDF2 iteration count is low; consider raising it",
			"iterations", iterations, "recommended", DefaultIterations)
	}
	return &Hasher{iterations: iterations, pepper: pepper}
}

// Iterations returns the configured target iteration count.
func (h *Hasher) Iterations() int {
	return h.iterations
}

// Hash derives a fresh hash of password with a new random salt at the
// configured iteration count.
func (h *Hasher) Hash(password string) (iterations int, salt, hash []byte, err error) {
	salt, err = util.RandomBytes(saltSize)
	if err != nil {
		return 0, nil, nil, err
	}
	hash = h.derive(password, salt, h.iterations, keySize)
	return h.iterations, salt, hash, nil
}

// Verify reports whether password matches expectedHash under the stored
// salt and iteration count. The comparison is constant time. A wrong
// password is never an error; malformed inputs (empty salt or hash,
// non-positive iterations) simply fail verification.
func (h *Hasher) Verify(password string, salt []byte, iterations int, expectedHash []byte) bool {
	if len(salt) == 0 || len(expectedHash) == 0 || iterations <= 0 {
		return false
	}
	actual := h.derive(password, salt, iterations, len(expectedHash))
	return subtle.ConstantTimeCompare(actual, expectedHash) == 1
}

func (h *Hasher) derive(password string, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key([]byte(password+h.pepper), salt, iterations, keyLen, sha256.New)
}
