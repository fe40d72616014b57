package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KVStore.Get when no value exists for a key.
var ErrNotFound = errors.New("key not found")

// KVStore is the persistence port favorites are saved through. A value is
// an opaque serialized record; implementations must make a successful Set
// visible to every later Get of the same key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CatalogRepository loads the artwork catalog.
type CatalogRepository interface {
	Load(ctx context.Context) (*CatalogData, error)
}
