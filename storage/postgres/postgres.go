// Package postgres implements storage.Repository backed by PostgreSQL.
//
// The credential lives in a single-row table constrained to id = 1, which
// makes the "insert if absent, else update" contract a plain upsert. Hash
// material is stored as native BYTEA columns.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkarlsen/gatehouse/storage"
)

//go:embed schema.sql
var schemaSQL string

// Store implements storage.Repository backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given pgx connection pool.
func NewRepository(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewRepositoryFromDSN creates a connection pool from a DSN string, ensures
// the schema exists, and returns a new Repository.
func NewRepositoryFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewRepository(pool), nil
}

// EnsureSchema creates the credential table if it does not exist. It is
// safe to call on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Has(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM auth_credential WHERE id = 1)`).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) Get(ctx context.Context) (*storage.Credential, error) {
	var cred storage.Credential
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash, salt, iterations, created_at, updated_at
		 FROM auth_credential WHERE id = 1`).Scan(
		&cred.PasswordHash, &cred.Salt, &cred.Iterations, &cred.CreatedAt, &cred.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *Store) Set(ctx context.Context, hash, salt []byte, iterations int, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO auth_credential (id, password_hash, salt, iterations, created_at, updated_at)
		 VALUES (1, $1, $2, $3, $4, $4)
		 ON CONFLICT (id)
		 DO UPDATE SET password_hash = $1, salt = $2, iterations = $3, updated_at = $4`,
		hash, salt, iterations, now)
	return err
}
