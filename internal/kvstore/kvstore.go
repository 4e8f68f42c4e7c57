// Package kvstore provides the key-value abstraction consumed by the sibling
// CRUD, export, and migration endpoints. The generation core never calls it.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates the key has no stored value.
var ErrNotFound = errors.New("key not found")

// Store is a minimal key-value interface with prefix listing.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
