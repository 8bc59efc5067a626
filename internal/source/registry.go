package source

import (
	"fmt"

	"github.com/matsen/papermerge/internal/paper"
)

// Entry describes one registered provider.
type Entry struct {
	Key          paper.Key
	Name         string
	URL          string
	CanFetch     bool
	CanSearch    bool
	Deselectable bool
	Provider     Provider
}

// Registry is an ordered, immutable list of providers.
type Registry struct {
	entries []Entry
	byKey   map[paper.Key]int
}

// NewRegistry builds a registry. Keys must be unique and every entry needs
// a provider.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byKey:   make(map[paper.Key]int, len(entries)),
	}
	for _, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("registry entry %q has no key", e.Name)
		}
		if e.Provider == nil {
			return nil, fmt.Errorf("registry entry %s has no provider", e.Key)
		}
		if _, dup := r.byKey[e.Key]; dup {
			return nil, fmt.Errorf("duplicate registry key %s", e.Key)
		}
		r.byKey[e.Key] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Lookup returns the entry registered under key.
func (r *Registry) Lookup(key paper.Key) (Entry, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns all entries in registry order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Keys returns all keys in registry order.
func (r *Registry) Keys() []paper.Key {
	keys := make([]paper.Key, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Key
	}
	return keys
}

// Searchable returns the keys of providers that can search.
func (r *Registry) Searchable() []paper.Key {
	var keys []paper.Key
	for _, e := range r.entries {
		if e.CanSearch {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Fetchable returns the keys of providers that can fetch.
func (r *Registry) Fetchable() []paper.Key {
	var keys []paper.Key
	for _, e := range r.entries {
		if e.CanFetch {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Required returns the keys of providers that cannot be deselected.
func (r *Registry) Required() []paper.Key {
	var keys []paper.Key
	for _, e := range r.entries {
		if !e.Deselectable {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Graph returns the first provider able to walk the citation graph.
func (r *Registry) Graph() (GraphProvider, paper.Key, bool) {
	for _, e := range r.entries {
		if g, ok := e.Provider.(GraphProvider); ok {
			return g, e.Key, true
		}
	}
	return nil, "", false
}
