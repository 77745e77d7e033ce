// Package bolt provides a bbolt-backed SnapshotStore: embedded,
// durable, no external service.
package bolt

import (
	"context"
	"fmt"

	"github.com/aretw0/tendril/pkg/domain"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("snapshots")

// Store implements ports.SnapshotStore using a bbolt database file.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists the snapshot in the snapshots bucket.
func (s *Store) Save(ctx context.Context, key string, snapshot []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), snapshot)
	})
}

// Load retrieves the snapshot.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var snapshot []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(bucketName).Get([]byte(key))
		if val == nil {
			return domain.ErrSnapshotNotFound
		}
		// Valid only for the transaction; copy out.
		snapshot = make([]byte, len(val))
		copy(snapshot, val)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}

// List returns the stored keys.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
