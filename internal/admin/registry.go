// Package admin tracks the management surfaces derived for entity types so
// the admin API can list, filter and search them without hand configuration.
package admin

import (
	"sort"
	"sync"
)

// Surface describes the derived management view of one entity type.
type Surface struct {
	FormType    string   `json:"form_type"`    // Namespaced entity identifier.
	DisplayName string   `json:"display_name"` // Human-readable name.
	Table       string   `json:"table"`        // Backing table.
	ListDisplay []string `json:"list_display"` // Columns shown in list views.
	ListFilter  []string `json:"list_filter"`  // Columns offered as filters.
	Search      []string `json:"search"`       // Columns matched by text search.
	Ordering    []string `json:"ordering"`     // Default ordering columns.
}

// Registry holds the registered surfaces. Registration replaces any previous
// surface for the same form type, so re-materializing a model is safe.
type Registry struct {
	mu       sync.RWMutex
	surfaces map[string]Surface
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{surfaces: make(map[string]Surface)}
}

// Register adds or replaces the surface for its form type.
func (r *Registry) Register(surface Surface) {
	r.mu.Lock()
	r.surfaces[surface.FormType] = surface
	r.mu.Unlock()
}

// Unregister removes the surface for formType if present.
func (r *Registry) Unregister(formType string) {
	r.mu.Lock()
	delete(r.surfaces, formType)
	r.mu.Unlock()
}

// Get returns the surface registered for formType.
func (r *Registry) Get(formType string) (Surface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	surface, ok := r.surfaces[formType]
	return surface, ok
}

// List returns all registered surfaces ordered by form type.
func (r *Registry) List() []Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	surfaces := make([]Surface, 0, len(r.surfaces))
	for _, surface := range r.surfaces {
		surfaces = append(surfaces, surface)
	}
	sort.Slice(surfaces, func(i, j int) bool { return surfaces[i].FormType < surfaces[j].FormType })
	return surfaces
}
