package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KV.Get when the key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// Entry is one key/value pair written by KV.SetAll.
type Entry struct {
	Key   string
	Value []byte
}

// KV is the local key-value persistence port.
// Implementations must apply SetAll atomically: either every entry is
// written or none is.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetAll(ctx context.Context, entries ...Entry) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}
