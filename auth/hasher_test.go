package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testIterations keeps derivation fast in tests; production defaults are
// exercised through configuration, not here.
const testIterations = 1000

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher(testIterations, "", nil)

	iterations, salt, hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, testIterations, iterations)
	assert.Len(t, salt, 32)
	assert.Len(t, hash, 32)

	assert.True(t, h.Verify("correct horse battery staple", salt, iterations, hash))
	assert.False(t, h.Verify("correct horse battery stapl", salt, iterations, hash))
	assert.False(t, h.Verify("", salt, iterations, hash))
}

func TestHasher_PepperChangesHash(t *testing.T) {
	plain := NewHasher(testIterations, "", nil)
	peppered := NewHasher(testIterations, "server-secret", nil)

	_, salt, hash, err := peppered.Hash("hunter2hunter2")
	require.NoError(t, err)

	assert.True(t, peppered.Verify("hunter2hunter2", salt, testIterations, hash))
	assert.False(t, plain.Verify("hunter2hunter2", salt, testIterations, hash),
		"hash must not verify without the pepper")

	rotated := NewHasher(testIterations, "other-secret", nil)
	assert.False(t, rotated.Verify("hunter2hunter2", salt, testIterations, hash),
		"rotating the pepper invalidates existing hashes")
}

func TestHasher_SaltUniqueness(t *testing.T) {
	h := NewHasher(testIterations, "", nil)

	_, salt1, hash1, err := h.Hash("same password")
	require.NoError(t, err)
	_, salt2, hash2, err := h.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestHasher_MalformedInputs(t *testing.T) {
	h := NewHasher(testIterations, "", nil)
	_, salt, hash, err := h.Hash("some password")
	require.NoError(t, err)

	assert.False(t, h.Verify("some password", nil, testIterations, hash))
	assert.False(t, h.Verify("some password", salt, testIterations, nil))
	assert.False(t, h.Verify("some password", salt, 0, hash))
	assert.False(t, h.Verify("some password", salt, -1, hash))
}

func TestHasher_TamperedSalt(t *testing.T) {
	h := NewHasher(testIterations, "", nil)
	_, salt, hash, err := h.Hash("some password")
	require.NoError(t, err)

	salt[0] ^= 0xFF
	assert.False(t, h.Verify("some password", salt, testIterations, hash))
}

func TestNewHasher_DefaultsOnNonPositive(t *testing.T) {
	h := NewHasher(0, "", nil)
	assert.Equal(t, DefaultIterations, h.Iterations())
}
