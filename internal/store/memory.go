package store

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryKV is an in-memory KV implementation. It backs tests and mirrors
// SQLiteKV semantics, including round-tripping values through JSON.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]json.RawMessage)}
}

func (m *MemoryKV) Get(key string, out any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode entry %q: %w", key, err)
	}
	return true, nil
}

func (m *MemoryKV) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode entry %q: %w", key, err)
	}
	m.mu.Lock()
	m.entries[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Close() error {
	return nil
}
