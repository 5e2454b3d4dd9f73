// Package bbolt persists the device-local last-known-identity reference.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/moimlab/moim/internal/membership/storage"
	"github.com/moimlab/moim/internal/session"
)

const (
	sessionBucket   = "session"
	lastIdentityKey = "last_identity"
)

// Store provides a BoltDB-backed session reference store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutIdentity persists the last known identity reference.
func (s *Store) PutIdentity(ctx context.Context, identity session.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(identity.UserID) == "" {
		return fmt.Errorf("identity user id is required")
	}

	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return bucket.Put([]byte(lastIdentityKey), payload)
	})
}

// GetIdentity fetches the last known identity reference.
func (s *Store) GetIdentity(ctx context.Context) (session.Identity, error) {
	if err := ctx.Err(); err != nil {
		return session.Identity{}, err
	}
	if s == nil || s.db == nil {
		return session.Identity{}, fmt.Errorf("storage is not configured")
	}

	var identity session.Identity
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		payload := bucket.Get([]byte(lastIdentityKey))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &identity); err != nil {
			return fmt.Errorf("unmarshal identity: %w", err)
		}
		return nil
	})
	if err != nil {
		return session.Identity{}, err
	}

	return identity, nil
}

// DeleteIdentity removes the last known identity reference. Deleting a
// missing reference is a no-op.
func (s *Store) DeleteIdentity(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return bucket.Delete([]byte(lastIdentityKey))
	})
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		if err != nil {
			return fmt.Errorf("create session bucket: %w", err)
		}
		return nil
	})
}
