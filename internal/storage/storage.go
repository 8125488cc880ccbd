// Package storage provides the two storage capabilities the subsystem is
// built on: a durable key-value store that survives restarts (SQLite-backed)
// and an ephemeral store whose contents live only as long as the process.
//
// Session descriptors and CSRF tokens belong in the ephemeral store only;
// everything meant to outlive the process goes through the durable store.
package storage

import "context"

// Store is a flat key-value namespace. Get returns (nil, nil) when the key
// is absent; callers distinguish "missing" from "empty" by the nil slice.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
