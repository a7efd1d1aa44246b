// Package local is the on-device key-value store. Each owner's drafts and
// crafting timers live under a single key as a JSON array, so every write
// rewrites the whole collection.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dom/wedge-builds/internal/domain"
	"go.uber.org/zap"
)

const (
	draftsPrefix        = "local_builds/"
	notificationsPrefix = "crafting_notifications/"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens the store at path. An empty path keeps everything in memory.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil      // Disable Badger's internal logging
	opts.SyncWrites = true // Drafts are user data; sync on every write
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.Info("local store opened", zap.String("path", path), zap.Bool("in_memory", path == ""))
	return &Store{db: db, logger: logger}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing local store")
	return s.db.Close()
}

// Drafts returns the draft repository backed by this store.
func (s *Store) Drafts() *draftRepository {
	return &draftRepository{store: s}
}

// Notifications returns the crafting timer repository backed by this store.
func (s *Store) Notifications() *notificationRepository {
	return &notificationRepository{store: s}
}

// readSlot decodes the array under key into dest. A missing key leaves
// dest untouched.
func readSlot(txn *badger.Txn, key string, dest any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

func writeSlot(txn *badger.Txn, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return persistenceErr(op, err)
	}
	return passThrough(op, s.db.View(fn))
}

// update runs fn in a read-write transaction. Domain errors returned by fn
// abort the transaction and are returned unchanged.
func (s *Store) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return persistenceErr(op, err)
	}
	return passThrough(op, s.db.Update(fn))
}

func passThrough(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrFormat) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	return persistenceErr(op, err)
}

func persistenceErr(op string, err error) error {
	retryable := errors.Is(err, badger.ErrConflict) || errors.Is(err, context.DeadlineExceeded)
	return &domain.PersistenceError{Op: op, Retryable: retryable, Err: err}
}
