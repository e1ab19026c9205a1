// Package prefs stores one mapping preference per entity type.
//
// Entries are kept in their encoded form and decoded on every read, so a
// store behaves the same whether it lives in memory, in SQLite or in
// Postgres: a malformed entry reads as missing, and a write replaces the
// whole entry.
package prefs

import (
	"context"
	"sync"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// Memory is an in-process store, used by tests and by servers configured
// without durable preferences.
type Memory struct {
	mu      sync.RWMutex
	entries map[core.EntityType][]byte
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[core.EntityType][]byte)}
}

var _ core.PreferenceStore = (*Memory)(nil)

func (m *Memory) LoadMapping(_ context.Context, et core.EntityType) (core.MappingPreference, bool, error) {
	m.mu.RLock()
	data := m.entries[et]
	m.mu.RUnlock()
	p, ok := core.DecodeMappingPreference(data)
	return p, ok, nil
}

func (m *Memory) LoadMappings(_ context.Context) (map[core.EntityType]core.MappingPreference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[core.EntityType]core.MappingPreference, len(m.entries))
	for et, data := range m.entries {
		if p, ok := core.DecodeMappingPreference(data); ok {
			out[et] = p
		}
	}
	return out, nil
}

func (m *Memory) SaveMapping(_ context.Context, et core.EntityType, p core.MappingPreference) error {
	data, err := core.EncodeMappingPreference(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[et] = data
	m.mu.Unlock()
	return nil
}

// SaveRaw stores an encoded entry as is. Used to load exported
// preferences and to exercise malformed entries.
func (m *Memory) SaveRaw(et core.EntityType, data []byte) {
	m.mu.Lock()
	m.entries[et] = append([]byte(nil), data...)
	m.mu.Unlock()
}
