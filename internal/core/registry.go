package core

import (
	"fmt"
	"sort"
	"sync"
)

// Default timestamp columns for updatable tables.
const (
	DefaultCreatedColumn Column = "create_date"
	DefaultUpdatedColumn Column = "update_date"
)

// TableDefinition describes a table the builders may address.
type TableDefinition struct {
	Name    Table
	Columns []Column // Allowlist of addressable columns

	// CreatedColumn is never included in an UPDATE's SET list.
	CreatedColumn Column
	// UpdatedColumn alone in a SET list makes the update a no-op.
	UpdatedColumn Column
}

// HasColumn reports whether col is in the table's allowlist.
func (d TableDefinition) HasColumn(col Column) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

var (
	registry   = make(map[Table]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if a table with the same name is already registered.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Name == "" {
		panic("table name is required")
	}
	if _, exists := registry[def.Name]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Name))
	}

	if def.CreatedColumn == "" {
		def.CreatedColumn = DefaultCreatedColumn
	}
	if def.UpdatedColumn == "" {
		def.UpdatedColumn = DefaultUpdatedColumn
	}
	def.Columns = append([]Column(nil), def.Columns...)

	registry[def.Name] = def
}

// Get returns a table definition by name.
// Returns false if not found.
func Get(name Table) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// All returns all registered table definitions sorted by name.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[Table]TableDefinition)
}
