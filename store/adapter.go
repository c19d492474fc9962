// Package store provides the key-value persistence backends that durable
// artifact storage is built on.
//
// Backends implement [Adapter]:
//   - [MemoryAdapter]: process memory, for tests and throwaway servers
//   - [BadgerAdapter]: an embedded BadgerDB database on local disk
//   - [S3Adapter]: objects in an S3 (or S3-compatible) bucket
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrKeyNotFound indicates the requested key does not exist.
var ErrKeyNotFound = errors.New("store: key not found")

// Adapter defines the interface for persistence backends.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Get retrieves a value by key. Returns nil, false, nil if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value by key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. No error if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Keys returns every key starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// SerializationError wraps encoding failures with the key involved.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("store: serialization error for key %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
