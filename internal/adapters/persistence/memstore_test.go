package persistence_test

import (
	"context"
	"errors"
	"sync"

	"github.com/example/getracker/internal/ports/secondary"
)

// ============================================================================
// In-memory KeyValueStore
// ============================================================================

// memStore is an in-memory KeyValueStore with an optional quota and
// injectable read failure.
type memStore struct {
	mu        sync.Mutex
	namespace secondary.Namespace
	data      map[string][]byte
	quota     int
	failGet   bool
	sets      int
}

func newMemStore(ns secondary.Namespace, quota int) *memStore {
	return &memStore{namespace: ns, data: map[string][]byte{}, quota: quota}
}

func (m *memStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("read failed")
	}
	out := map[string][]byte{}
	if len(keys) == 0 {
		for k, v := range m.data {
			out[k] = v
		}
		return out, nil
	}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memStore) Set(ctx context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quota > 0 {
		total := 0
		for k, v := range m.data {
			if _, overwritten := entries[k]; !overwritten {
				total += len(k) + len(v)
			}
		}
		for k, v := range entries {
			total += len(k) + len(v)
		}
		if total > m.quota {
			return &secondary.QuotaExceededError{Namespace: m.namespace, Quota: m.quota, Required: total}
		}
	}
	for k, v := range entries {
		m.data[k] = v
	}
	m.sets++
	return nil
}

func (m *memStore) Remove(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) BytesInUse(ctx context.Context, keys ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	if len(keys) == 0 {
		for k, v := range m.data {
			total += len(k) + len(v)
		}
		return total, nil
	}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			total += len(k) + len(v)
		}
	}
	return total, nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *memStore) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}
