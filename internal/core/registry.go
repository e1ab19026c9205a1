package core

import (
	"fmt"
	"sync"
)

var (
	registry   = make(map[EntityType]*EntityDefinition)
	registryMu sync.RWMutex
)

// Register adds an entity definition to the registry.
// Panics if the entity type is already registered or the definition is
// incomplete.
func Register(def *EntityDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Type]; exists {
		panic(fmt.Sprintf("entity already registered: %s", def.Type))
	}
	if def.Build == nil {
		panic(fmt.Sprintf("entity %s has no Build func", def.Type))
	}
	for _, name := range def.Layout {
		if name == "" {
			continue
		}
		if _, ok := def.Field(name); !ok {
			panic(fmt.Sprintf("entity %s: layout names unknown field %q", def.Type, name))
		}
	}

	registry[def.Type] = def
}

// Get returns an entity definition by type.
// Returns false if not found.
func Get(et EntityType) (*EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[et]
	return def, ok
}

// All returns all registered definitions in sniffing order.
func All() []*EntityDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*EntityDefinition, 0, len(registry))
	for _, et := range EntityTypes {
		if def, ok := registry[et]; ok {
			result = append(result, def)
		}
	}
	return result
}

// EntityCount returns the number of registered entities.
func EntityCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered entities.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[EntityType]*EntityDefinition)
}
