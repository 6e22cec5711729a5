// Package draft provides the key-value store behind form drafts and the
// preview hand-off. Values are opaque bytes; callers own the encoding.
package draft

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("draft not found")

// Store is a minimal get/set/remove key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// StorageError wraps a backend failure with the operation and key.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("draft store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Scoped prefixes every key with owner so several users can share one backend.
func Scoped(store Store, owner string) Store {
	return &scopedStore{store: store, prefix: owner + ":"}
}

type scopedStore struct {
	store  Store
	prefix string
}

func (s *scopedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.store.Get(ctx, s.prefix+key)
}

func (s *scopedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.store.Set(ctx, s.prefix+key, value)
}

func (s *scopedStore) Remove(ctx context.Context, key string) error {
	return s.store.Remove(ctx, s.prefix+key)
}
