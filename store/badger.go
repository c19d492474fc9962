package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerOptions configures a BadgerAdapter.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger's warnings and errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// BadgerAdapter stores values in an embedded BadgerDB database.
type BadgerAdapter struct {
	db *badger.DB
}

// NewBadgerAdapter opens (or creates) a BadgerDB database.
func NewBadgerAdapter(opts BadgerOptions) (*BadgerAdapter, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: BadgerOptions.Dir is required for on-disk mode")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{log: logger.With("component", "badger")})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger: %w", err)
	}
	return &BadgerAdapter{db: db}, nil
}

// Get retrieves a value by key.
func (b *BadgerAdapter) Get(_ context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores a value by key.
func (b *BadgerAdapter) Set(_ context.Context, key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes a key.
func (b *BadgerAdapter) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Keys returns the keys with the given prefix. Badger iterates in
// lexicographic key order.
func (b *BadgerAdapter) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	p := []byte(prefix)
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = p
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// Close closes the database.
func (b *BadgerAdapter) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's logging to slog, dropping info and debug noise.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...any)   { l.log.Error(fmt.Sprintf(f, v...)) }
func (l badgerLogger) Warningf(f string, v ...any) { l.log.Warn(fmt.Sprintf(f, v...)) }
func (badgerLogger) Infof(string, ...any)          {}
func (badgerLogger) Debugf(string, ...any)         {}

var _ Adapter = (*BadgerAdapter)(nil)
