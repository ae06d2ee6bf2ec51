// Package state implements the State Store: a single-file embedded
// key-value store holding UTF-8 string values under UTF-8 string keys.
// It is the only place progress, configuration overrides, and
// readiness flags are persisted between runs.
package state

import (
	"fmt"
	"sort"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/aharper/filesearch/internal/apperrors"
)

var bucketName = []byte("anything")

// Store is the bbolt-backed State Store. All operations are safe for
// concurrent use: bbolt serializes writers internally and readers see a
// consistent snapshot.
type Store struct {
	db *bolt.DB

	mu     sync.RWMutex
	closed bool
}

// Open opens (creating if absent) the State Store file at path and
// ensures the "anything" bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Get returns the value for key, and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		v := b.Get([]byte(key))
		if v != nil {
			found = true
			value = string(v)
		}
		return nil
	})
	if err != nil {
		return "", false, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}
	return value, found, nil
}

// Set writes a single key/value pair.
func (s *Store) Set(key, value string) error {
	return s.BatchSet(map[string]string{key: value})
}

// BatchSet writes all entries in a single transaction, so a crash mid-batch
// leaves either all or none of the entries applied.
func (s *Store) BatchSet(entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for k, v := range entries {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}
	return nil
}

// ListAll returns every key/value pair currently stored, as a map; the
// map carries no ordering, so callers sort the keys where order matters.
func (s *Store) ListAll() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, err)
	}
	return out, nil
}

// Keys returns all keys currently stored, sorted lexically.
func (s *Store) Keys() ([]string, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetOrDefault returns the stored value for key, or def if the key is
// absent.
func (s *Store) GetOrDefault(key, def string) (string, error) {
	v, found, err := s.Get(key)
	if err != nil {
		return "", err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// Path returns a human-readable identifier for the underlying file, used
// in log messages and error details.
func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) String() string {
	return fmt.Sprintf("state.Store(%s)", s.Path())
}
