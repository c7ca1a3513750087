package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/gatehouse/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("GATEHOUSE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GATEHOUSE_TEST_POSTGRES_DSN not set; skipping PostgreSQL tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "could not connect to postgres")
	require.NoError(t, EnsureSchema(ctx, pool), "could not ensure schema")

	// Clean table for test isolation.
	pool.Exec(ctx, "DELETE FROM auth_credential") //nolint:errcheck

	t.Cleanup(func() {
		pool.Exec(ctx, "DELETE FROM auth_credential") //nolint:errcheck
		pool.Close()
	})
	return NewRepository(pool)
}

func TestPostgresStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty state", func(t *testing.T) {
		has, err := s.Has(ctx)
		require.NoError(t, err)
		assert.False(t, has)

		_, err = s.Get(ctx)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, []byte("hash-1"), []byte("salt-1"), 150_000, now))

		has, err := s.Has(ctx)
		require.NoError(t, err)
		assert.True(t, has)

		cred, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("hash-1"), cred.PasswordHash)
		assert.Equal(t, []byte("salt-1"), cred.Salt)
		assert.Equal(t, 150_000, cred.Iterations)
		assert.True(t, cred.CreatedAt.Equal(now))
		assert.True(t, cred.UpdatedAt.Equal(now))
	})

	t.Run("upsert preserves CreatedAt", func(t *testing.T) {
		later := now.Add(time.Hour)
		require.NoError(t, s.Set(ctx, []byte("hash-2"), []byte("salt-2"), 200_000, later))

		cred, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("hash-2"), cred.PasswordHash)
		assert.Equal(t, 200_000, cred.Iterations)
		assert.True(t, cred.CreatedAt.Equal(now), "CreatedAt must survive replacement")
		assert.True(t, cred.UpdatedAt.Equal(later))
	})
}
