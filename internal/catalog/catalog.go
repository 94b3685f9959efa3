// Package catalog keeps the named parser types the service can run.
//
// Go-defined parser types register themselves from init(); ruleset files
// are loaded at startup and may be replaced while the process runs.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/csvrules/internal/rules"
)

// Source records where an entry was defined.
type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceRuleset Source = "ruleset"
)

// Entry describes one runnable parser type.
type Entry struct {
	Name        string // Unique key: "contacts"
	Group       string // Data source family: "CRM", "Generic"
	Label       string // Display name: "Contact export"
	Description string
	Source      Source
	Type        *rules.Type
}

var (
	entries   = make(map[string]Entry)
	entriesMu sync.RWMutex
)

// Register adds an entry to the catalog.
// Panics if an entry with the same name is already registered.
func Register(e Entry) {
	entriesMu.Lock()
	defer entriesMu.Unlock()

	if _, exists := entries[e.Name]; exists {
		panic(fmt.Sprintf("parser already registered: %s", e.Name))
	}
	entries[e.Name] = normalize(e)
}

// Replace swaps every entry from source for the given set in one step.
// Entries from other sources are kept; a name already held by another
// source is an error and nothing changes.
func Replace(source Source, set []Entry) error {
	entriesMu.Lock()
	defer entriesMu.Unlock()

	seen := make(map[string]bool, len(set))
	for _, e := range set {
		if seen[e.Name] {
			return fmt.Errorf("duplicate parser %q", e.Name)
		}
		seen[e.Name] = true
		if cur, ok := entries[e.Name]; ok && cur.Source != source {
			return fmt.Errorf("parser %q already registered by %s", e.Name, cur.Source)
		}
	}

	for name, e := range entries {
		if e.Source == source {
			delete(entries, name)
		}
	}
	for _, e := range set {
		e.Source = source
		entries[e.Name] = normalize(e)
	}
	return nil
}

func normalize(e Entry) Entry {
	if e.Label == "" {
		e.Label = e.Name
	}
	if e.Source == "" {
		e.Source = SourceBuiltin
	}
	return e
}

// Get returns an entry by name.
// Returns false if not found.
func Get(name string) (Entry, bool) {
	entriesMu.RLock()
	defer entriesMu.RUnlock()

	e, ok := entries[name]
	return e, ok
}

// All returns all entries sorted by group then name.
func All() []Entry {
	entriesMu.RLock()
	defer entriesMu.RUnlock()

	result := make([]Entry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Name < result[j].Name
	})

	return result
}

// ByGroup returns the entries of one group sorted by name.
func ByGroup(group string) []Entry {
	entriesMu.RLock()
	defer entriesMu.RUnlock()

	var result []Entry
	for _, e := range entries {
		if e.Group == group {
			result = append(result, e)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Groups returns all group names, sorted.
func Groups() []string {
	entriesMu.RLock()
	defer entriesMu.RUnlock()

	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Count returns the number of registered entries.
func Count() int {
	entriesMu.RLock()
	defer entriesMu.RUnlock()
	return len(entries)
}

// Clear removes all entries.
// Primarily useful for testing.
func Clear() {
	entriesMu.Lock()
	defer entriesMu.Unlock()
	entries = make(map[string]Entry)
}
