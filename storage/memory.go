package storage

import (
	"context"
	"sync"
)

// Memory holds values in a map for the lifetime of the process
type Memory struct {
	items map[string][]byte
	mutex sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

// Get retrieves a copy of the value stored under key
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	value, exists := m.items[key]
	if !exists {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set replaces the value stored under key
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}
