// Package store persists the mapping records added at run time so they are
// loaded again on the next start.
package store

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/soar/padinput/backend/internal/mapping"
)

var bucketMappings = []byte("mappings")

// Store keeps mapping records keyed by GUID.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the store file.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMappings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{db: db}, nil
}

// Put stores the record for a configuration, replacing an older record for
// the same GUID.
func (s *Store) Put(cfg *mapping.Configuration, record string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMappings).Put([]byte(cfg.GUID.String()), []byte(record))
	})
}

// ErrNotFound is returned by Get for GUIDs without a stored record.
var ErrNotFound = errors.New("store: not found")

func (s *Store) Get(guid mapping.GUID) (string, error) {
	var rec string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMappings).Get([]byte(guid.String()))
		if v == nil {
			return ErrNotFound
		}
		rec = string(v)
		return nil
	})
	return rec, err
}

// Delete removes the record for a GUID. Deleting a missing record is not an
// error.
func (s *Store) Delete(guid mapping.GUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMappings).Delete([]byte(guid.String()))
	})
}

// All returns every stored record in GUID order.
func (s *Store) All() ([]string, error) {
	var recs []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMappings).ForEach(func(_, v []byte) error {
			recs = append(recs, string(v))
			return nil
		})
	})
	return recs, err
}

// Load adds every stored record to db. Records the database refuses are
// skipped and counted in the returned error.
func (s *Store) Load(db *mapping.Database) (int, error) {
	recs, err := s.All()
	if err != nil {
		return 0, err
	}
	var n int
	var errs []error
	for _, rec := range recs {
		if _, err := db.Add(rec); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

func (s *Store) Close() error {
	return s.db.Close()
}
