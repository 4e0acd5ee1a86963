// Package badgerstore implements store.KV on an embedded Badger database.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/readtrack/internal/store"
)

// KV wraps a Badger database instance.
type KV struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ store.KV = (*KV)(nil)

// Open opens (or creates) a Badger database in the directory at path.
func Open(path string, logger *slog.Logger) (*KV, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	return open(opts, logger, path)
}

// OpenReadOnly opens an existing database without taking the write lock.
func OpenReadOnly(path string, logger *slog.Logger) (*KV, error) {
	return open(badger.DefaultOptions(path).WithReadOnly(true), logger, path)
}

// OpenInMemory opens a Badger database that never touches disk.
func OpenInMemory(logger *slog.Logger) (*KV, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger, ":memory:")
}

func open(opts badger.Options, logger *slog.Logger, path string) (*KV, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.Info("Badger database opened successfully", "path", path)
	return &KV{db: db, logger: logger}, nil
}

// Get retrieves a value by key.
func (k *KV) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// SetAll writes every entry in a single transaction.
func (k *KV) SetAll(_ context.Context, entries ...store.Entry) error {
	err := k.db.Update(func(txn *badger.Txn) error {
		for _, e := range entries {
			if err := txn.Set([]byte(e.Key), e.Value); err != nil {
				return fmt.Errorf("set %s: %w", e.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Keys lists every key without fetching values.
func (k *KV) Keys(_ context.Context) ([]string, error) {
	var keys []string
	err := k.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// Close gracefully closes the database connection.
func (k *KV) Close() error {
	k.logger.Info("Closing database connection")
	return k.db.Close()
}
