package datasource

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fvbommel/sortorder"
)

// Registry owns the id to source table for one toolbox process. It is an
// explicit value held by whatever manages source lifecycles; constructing a
// Source does not touch any ambient global state.
type Registry struct {
	mx      sync.RWMutex
	sources map[string]*Source
	seq     map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]*Source),
		seq:     make(map[string]int),
	}
}

// Add registers a source. A source without an id gets one derived from its
// backend kind and a per-kind sequence count, e.g. "directory-0". Adding a
// duplicate id fails.
func (r *Registry) Add(s *Source) error {
	r.mx.Lock()
	defer r.mx.Unlock()

	id := s.ID()
	if id == "" {
		kind := s.Kind()
		id = fmt.Sprintf("%s-%d", kind, r.seq[kind])
		r.seq[kind]++
		s.setID(id)
	}
	if _, exists := r.sources[id]; exists {
		return fmt.Errorf("datasource id already registered: %s", id)
	}
	r.sources[id] = s
	return nil
}

// Get looks up a source by id.
func (r *Registry) Get(id string) (*Source, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()
	s, ok := r.sources[id]
	return s, ok
}

// Remove drops a source from the registry. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mx.Lock()
	defer r.mx.Unlock()
	delete(r.sources, id)
}

// IDs returns all registered ids in natural sort order.
func (r *Registry) IDs() []string {
	r.mx.RLock()
	defer r.mx.RUnlock()
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return sortorder.NaturalLess(ids[i], ids[j])
	})
	return ids
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return len(r.sources)
}
