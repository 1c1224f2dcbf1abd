// Package db persists small pieces of local state as JSON values in a
// key-value table.
package db

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Store is a key-value store for local state. Values are JSON encoded.
type Store interface {
	Get(ctx context.Context, key string, v any) error
	Put(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	// Update runs fn in a transaction; Put and Delete calls made with the
	// ctx passed to fn join it.
	Update(ctx context.Context, fn func(ctx context.Context) error) error
}

var ErrNotFound = errors.New("not found")

// Open returns a Store for a path or sqlite:// DSN. ":memory:" and
// "mem://" give a store that lives only as long as the process.
func Open(ctx context.Context, dsn string) (Store, io.Closer, error) {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "mem://") {
		m := newMemStore()
		return m, m, nil
	}
	return openSQLite(ctx, dsn)
}
