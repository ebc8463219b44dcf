// Package storage is the durable key-value surface the landing page writes to.
// Values are scoped by namespace, one namespace per visitor, so a key such as
// the subscription record holds at most one value per visitor.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: not found")

// KV is the key-value persistence surface.
type KV interface {
	Put(ctx context.Context, namespace, key string, value []byte) error
	Get(ctx context.Context, namespace, key string) ([]byte, error)
}

func validate(namespace, key string) error {
	if strings.TrimSpace(namespace) == "" {
		return errors.New("storage: namespace required")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("storage: key required")
	}
	return nil
}

// MemoryStore keeps values in process memory. Used in development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, namespace, key string, value []byte) error {
	if err := validate(namespace, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[memoryKey(namespace, key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, namespace, key string) ([]byte, error) {
	if err := validate(namespace, key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[memoryKey(namespace, key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, key)
	}
	return append([]byte(nil), v...), nil
}

func memoryKey(namespace, key string) string {
	return namespace + "\x00" + key
}
