// Package server exposes loaded sensor collections over a REST API.
package server

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/airwatchio/airwatch/pkg/monitor"
)

// Collection is one named dataset held by the registry, with the time its
// last successful refresh completed.
type Collection struct {
	Name        string
	Monitor     *monitor.Monitor
	LastUpdated time.Time
}

// Registry is the shared, concurrency-safe view of the currently loaded
// collections. Refresh loops replace entries; handlers read them. Because
// Monitor values are immutable, readers can use a stored Monitor without
// holding the lock.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]Collection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{collections: make(map[string]Collection)}
}

// Put stores or replaces a collection.
func (r *Registry) Put(name string, m *monitor.Monitor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections[name] = Collection{Name: name, Monitor: m, LastUpdated: time.Now().UTC()}
}

// Get returns the named collection.
func (r *Registry) Get(name string) (Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	if !ok {
		return Collection{}, fmt.Errorf("server: no collection named %q", name)
	}
	return c, nil
}

// Names returns the collection names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
