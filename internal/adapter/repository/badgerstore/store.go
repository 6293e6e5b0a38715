// Package badgerstore persists playback sessions in an embedded Badger database.
package badgerstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	historyPrefix     = "history:"
	preferencesPrefix = "prefs:"
)

// Store wraps a Badger database shared by the repositories in this package.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) the database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	return open(opts, logger)
}

// OpenInMemory opens a database that lives only for the life of the process.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.Debug("session database opened", slog.String("dir", opts.Dir), slog.Bool("in_memory", opts.InMemory))

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// get decodes the JSON value at key into dest. found is false when the key is absent.
func (s *Store) get(key string, dest any) (found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// set stores value at key as JSON.
func (s *Store) set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// dropPrefix removes every key starting with prefix.
func (s *Store) dropPrefix(prefix string) error {
	return s.db.DropPrefix([]byte(prefix))
}
