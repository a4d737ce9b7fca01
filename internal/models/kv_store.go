package models

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
)

const (
	KVTableName = "kv_store"
	KVDbName    = "unibook"
	KVColName   = "kv_store"
)

var ErrKeyNotFound = errors.New("key not found")

// KVStore is a flat key to JSON-record mapping. There are no transactions
// and no secondary indexes: every query is a prefix scan followed by
// in-memory filtering.
type KVStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
}

// MemoryKVStore keeps records in process memory. Used for development and
// tests; contents are lost on restart.
type MemoryKVStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{data: make(map[string]json.RawMessage)}
}

func (m *MemoryKVStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return cloneRaw(v), nil
}

func (m *MemoryKVStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return errors.New("value is not valid JSON")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = cloneRaw(value)
	return nil
}

func (m *MemoryKVStore) GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	values := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		values = append(values, cloneRaw(m.data[k]))
	}
	return values, nil
}

func cloneRaw(v json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out
}
