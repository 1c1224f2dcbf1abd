package db

import (
	"context"
	"encoding/json"
	"sync"
)

type memStore struct {
	mu   sync.RWMutex
	vals map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{vals: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, key string, v any) error {
	m.mu.RLock()
	b, ok := m.vals[key]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(b, v)
}

func (m *memStore) Put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = b
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, key)
	return nil
}

// Update is not transactional: a failing fn keeps the writes it made.
func (m *memStore) Update(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) Close() error { return nil }
