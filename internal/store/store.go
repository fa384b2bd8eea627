// Package store provides the key-value persistence contract the repository
// layer is built on, with an in-memory implementation for tests and a
// SQLite-backed implementation for real use.
package store

import (
	"context"
	"errors"
)

// Store is the minimal contract required by the repositories. Values are
// opaque JSON blobs; the repository layer owns their shape.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// ErrNotFound indicates the requested key has no stored value.
var ErrNotFound = errors.New("store: key not found")
