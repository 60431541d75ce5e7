// file: internal/database/pebble_store.go
// version: 2.0.0
// guid: ad4535eb-398b-434f-b510-d51081a93d84

package database

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
	"github.com/jdfalk/cliqbook/internal/apperrors"
)

// PebbleStore implements Store using PebbleDB (LSM key-value store).
//
// Key Schema: one key per collection (see KeyUsers and friends), value is the
// JSON-encoded collection. Writes are synced so a crash never loses an
// acknowledged mutation.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (or creates) a PebbleDB store in the directory path.
func NewPebbleStore(path string) (*PebbleStore, error) {
	if path == "" {
		return nil, fmt.Errorf("pebble store needs a directory path")
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// NewInMemoryPebbleStore opens a PebbleDB backed by an in-memory filesystem.
func NewInMemoryPebbleStore() (*PebbleStore, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (p *PebbleStore) Get(key string) ([]byte, bool, error) {
	value, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Storage("get", key, err)
	}
	defer closer.Close()

	// value is only valid until closer.Close
	return append([]byte(nil), value...), true, nil
}

func (p *PebbleStore) Set(key string, value []byte) error {
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return apperrors.Storage("set", key, err)
	}
	return nil
}

func (p *PebbleStore) Remove(key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return apperrors.Storage("remove", key, err)
	}
	return nil
}

func (p *PebbleStore) Keys() ([]string, error) {
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return nil, apperrors.Storage("iterate", "*", err)
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, apperrors.Storage("iterate", "*", err)
	}
	return keys, nil
}

// Close closes the database
func (p *PebbleStore) Close() error {
	return p.db.Close()
}
