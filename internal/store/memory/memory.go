// Package memory provides an in-process store.KV for tests and ephemeral sessions.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/listenupapp/readtrack/internal/store"
)

// KV keeps values in a map. It is safe for concurrent use.
type KV struct {
	mu      sync.RWMutex
	data    map[string][]byte
	failErr error
	writes  int
}

var _ store.KV = (*KV)(nil)

// New returns an empty KV.
func New() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored at key.
func (m *KV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

// SetAll writes every entry, or none if a failure has been injected.
func (m *KV) SetAll(_ context.Context, entries ...store.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return m.failErr
	}
	for _, e := range entries {
		m.data[e.Key] = slices.Clone(e.Value)
	}
	m.writes++
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *KV) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op.
func (m *KV) Close() error { return nil }

// Put stores a raw value, bypassing injected failures. Used to seed legacy data.
func (m *KV) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
}

// FailWrites makes every subsequent SetAll return err. Pass nil to recover.
func (m *KV) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Writes reports how many SetAll calls succeeded.
func (m *KV) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
