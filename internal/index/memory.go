package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/portal/internal/domain"
)

// MemoryIndex holds the routes portal manages, keyed by route id.
// It is the primary view; the redis ledger only persists it across restarts.
type MemoryIndex struct {
	mu       sync.RWMutex
	routes   map[string]*domain.Route // ID -> Route
	lastSync time.Time                // last bulk Replace
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		routes: make(map[string]*domain.Route),
	}
}

// Replace swaps the whole content of the index
func (idx *MemoryIndex) Replace(routes []*domain.Route) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.routes = make(map[string]*domain.Route, len(routes))
	for _, r := range routes {
		idx.routes[r.ID] = r
	}
	idx.lastSync = time.Now()
}

// Put adds or overwrites a single route
func (idx *MemoryIndex) Put(route *domain.Route) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.routes[route.ID] = route
}

// Get returns the route stored under id
func (idx *MemoryIndex) Get(id string) (*domain.Route, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	r, ok := idx.routes[id]
	return r, ok
}

// All returns every route, ordered by port
func (idx *MemoryIndex) All() []*domain.Route {
	idx.mu.RLock()
	routes := make([]*domain.Route, 0, len(idx.routes))
	for _, r := range idx.routes {
		routes = append(routes, r)
	}
	idx.mu.RUnlock()

	sort.Slice(routes, func(i, j int) bool { return routes[i].Port < routes[j].Port })
	return routes
}

// BySource returns the routes registered by source, ordered by port
func (idx *MemoryIndex) BySource(source string) []*domain.Route {
	all := idx.All()
	out := all[:0]
	for _, r := range all {
		if r.Source == source {
			out = append(out, r)
		}
	}
	return out
}

// Delete removes a route; unknown ids are ignored
func (idx *MemoryIndex) Delete(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.routes, id)
}

func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.routes)
}

// LastSync returns when Replace last ran (zero if never)
func (idx *MemoryIndex) LastSync() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastSync
}
