// Package bbolt provides a BBolt-backed credential repository.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mkarlsen/gatehouse/storage"
)

var (
	authBucket    = []byte("auth")
	credentialKey = []byte("credential")
)

// Store implements storage.Repository backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewRepositoryFromFile opens a BBolt database at the given path and
// returns a new Repository.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Has(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(authBucket)
		if b == nil {
			return nil
		}
		found = b.Get(credentialKey) != nil
		return nil
	})
	return found, err
}

func (s *Store) Get(ctx context.Context) (*storage.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var cred storage.Credential
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(authBucket)
		if b == nil {
			return storage.ErrNotFound
		}
		data := b.Get(credentialKey)
		if data == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(data, &cred)
	})
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Set upserts the credential record inside a single write transaction, so
// the replacement is all-or-nothing. CreatedAt is carried over from an
// existing record.
func (s *Store) Set(ctx context.Context, hash, salt []byte, iterations int, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(authBucket)
		if err != nil {
			return err
		}
		createdAt := now
		if existing := b.Get(credentialKey); existing != nil {
			var prev storage.Credential
			if err := json.Unmarshal(existing, &prev); err == nil {
				createdAt = prev.CreatedAt
			}
		}
		data, err := json.Marshal(storage.Credential{
			PasswordHash: hash,
			Salt:         salt,
			Iterations:   iterations,
			CreatedAt:    createdAt,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		return b.Put(credentialKey, data)
	})
}
