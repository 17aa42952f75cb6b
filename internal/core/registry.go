package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]EntityDefinition)
	registryMu sync.RWMutex
)

// Register adds an entity definition to the registry.
// Panics if an entity with the same name is already registered or the
// definition has no transform.
func Register(def EntityDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := strings.ToLower(def.Info.Name)
	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("entity already registered: %s", def.Info.Name))
	}
	if def.Transform == nil {
		panic(fmt.Sprintf("entity %s has no transform", def.Info.Name))
	}

	// Silver columns default to the bronze columns
	if len(def.Info.Columns) == 0 {
		def.Info.Columns = append([]string(nil), def.Info.SourceColumns...)
	}

	registry[key] = def
}

// Get returns an entity definition by name.
func Get(name string) (EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[strings.ToLower(name)]
	return def, ok
}

// MustGet returns an entity definition or an error wrapping ErrUnknownEntity.
func MustGet(name string) (EntityDefinition, error) {
	def, ok := Get(name)
	if !ok {
		return EntityDefinition{}, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return def, nil
}

// All returns all registered definitions in pipeline order.
// Ties on Order fall back to name for a stable result.
func All() []EntityDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Order != result[j].Info.Order {
			return result[i].Info.Order < result[j].Info.Order
		}
		return result[i].Info.Name < result[j].Info.Name
	})

	return result
}

// Systems returns the unique source systems, sorted.
func Systems() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.System] = true
	}

	systems := make([]string, 0, len(seen))
	for s := range seen {
		systems = append(systems, s)
	}
	sort.Strings(systems)
	return systems
}

// Count returns the number of registered entities.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered entities.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]EntityDefinition)
}
