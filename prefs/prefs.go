// Package prefs persists the expanded/collapsed default of each group,
// keyed by group title.
//
// Defaults are registered once; values set by the user take precedence and
// survive later default registration.
package prefs

import (
	"sort"
	"sync"

	"github.com/st-keller/inspection/group"
)

// Store persists group expansion preferences.
type Store interface {
	// Expanded returns the stored preference for title.
	Expanded(title string) (bool, bool)
	// SetExpanded stores a user preference.
	SetExpanded(title string, expanded bool) error
	// RegisterDefaults stores values for titles that have none yet.
	RegisterDefaults(defaults map[string]bool) error
	// All returns every stored preference.
	All() (map[string]bool, error)
	Close() error
}

// DefaultExpansion returns the defaults of the built-in groups.
func DefaultExpansion() map[string]bool {
	defaults := make(map[string]bool)
	for _, k := range group.Builtins() {
		defaults[k.Title()] = k.DefaultExpanded()
	}
	return defaults
}

// Titles returns the keys of m sorted.
func Titles(m map[string]bool) []string {
	titles := make([]string, 0, len(m))
	for t := range m {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// MemoryStore keeps preferences in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	defaults map[string]bool
	values   map[string]bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		defaults: make(map[string]bool),
		values:   make(map[string]bool),
	}
}

func (m *MemoryStore) Expanded(title string) (bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[title]; ok {
		return v, true
	}
	v, ok := m.defaults[title]
	return v, ok
}

func (m *MemoryStore) SetExpanded(title string, expanded bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[title] = expanded
	return nil
}

func (m *MemoryStore) RegisterDefaults(defaults map[string]bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t, v := range defaults {
		if _, ok := m.defaults[t]; !ok {
			m.defaults[t] = v
		}
	}
	return nil
}

func (m *MemoryStore) All() (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.defaults)+len(m.values))
	for t, v := range m.defaults {
		out[t] = v
	}
	for t, v := range m.values {
		out[t] = v
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
