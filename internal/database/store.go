// file: internal/database/store.go
// version: 3.0.0
// guid: d1855ee9-0569-4c31-a91f-d3397ff78843

package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jdfalk/cliqbook/internal/apperrors"
)

// Persisted keys. Every collection is stored whole, JSON-encoded, under one key.
const (
	KeyUsers      = "cliqbook_users"
	KeyBooks      = "cliqbook_books"
	KeySession    = "cliqbook_user"
	KeyActivities = "cliqbook_activities"
	KeySettings   = "cliqbook_settings"
)

// AllKeys lists the keys owned by the application, in backup order.
var AllKeys = []string{KeyUsers, KeyBooks, KeySession, KeyActivities, KeySettings}

// Store is the persistent key-value adapter.
//
// Get reports found=false (and a nil error) for an absent key. Backend
// failures are returned as errors wrapping apperrors.ErrStorageUnavailable.
type Store interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
	Remove(key string) error
	Keys() ([]string, error)
	Close() error
}

// Options selects and configures a Store backend.
type Options struct {
	Type          string // "pebble" (default), "sqlite", "redis" or "memory"
	Path          string
	EnableSQLite  bool // Must be true to use SQLite (safety flag)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ErrUnsupportedType is returned by Open for an unknown backend name.
var ErrUnsupportedType = errors.New("unsupported database type")

// Open creates the store described by opts.
func Open(opts Options) (Store, error) {
	switch opts.Type {
	case "pebble", "":
		store, err := NewPebbleStore(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
		return store, nil
	case "sqlite", "sqlite3":
		if !opts.EnableSQLite {
			return nil, fmt.Errorf("SQLite3 is not enabled. To use SQLite3, you must explicitly enable it with --enable-sqlite3-i-know-the-risks or set 'enable_sqlite3_i_know_the_risks: true' in your config file. PebbleDB is the recommended database")
		}
		store, err := NewSQLiteStore(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return store, nil
	case "redis":
		store, err := NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis store: %w", err)
		}
		return store, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: pebble, sqlite, redis, memory)", ErrUnsupportedType, opts.Type)
	}
}

// GetJSON decodes the value stored under key into dest.
func GetJSON(s Store, key string, dest any) (bool, error) {
	data, found, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return true, apperrors.Storage("decode", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, data)
}

// Has reports whether key is present.
func Has(s Store, key string) (bool, error) {
	_, found, err := s.Get(key)
	return found, err
}
