// Package metadata manages field, section and model definitions and validates
// every definition change before it is persisted.
package metadata

import (
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm/schema"
)

// NativeAttribute describes one column-backed attribute of a registered
// native entity type.
type NativeAttribute struct {
	Name           string // Column name (snake case).
	GoName         string // Struct field name.
	IsRelationship bool   // True for relation fields and their foreign keys.
	NotNull        bool   // Whether the column rejects NULL.
}

// Registry maps form types to native entity prototypes and exposes their
// introspected attributes. Dynamic models are not registered here; their
// shape lives entirely in metadata.
type Registry struct {
	mu         sync.RWMutex
	attributes map[string][]NativeAttribute
	cache      sync.Map
	namer      schema.Namer
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		attributes: make(map[string][]NativeAttribute),
		namer:      schema.NamingStrategy{},
	}
}

// Register introspects prototype and binds its attributes to formType.
// Prototypes are plain model structs; parsing happens once at registration.
func (r *Registry) Register(formType string, prototype any) error {
	parsed, err := schema.Parse(prototype, &r.cache, r.namer)
	if err != nil {
		return fmt.Errorf("metadata: parse prototype for %s: %w", formType, err)
	}

	relationColumns := make(map[string]bool)
	for _, rel := range parsed.Relationships.Relations {
		for _, ref := range rel.References {
			if ref.ForeignKey != nil && ref.ForeignKey.Schema == parsed {
				relationColumns[ref.ForeignKey.DBName] = true
			}
		}
	}

	attrs := make([]NativeAttribute, 0, len(parsed.Fields))
	for _, field := range parsed.Fields {
		if field.DBName == "" {
			continue // Relation struct fields without their own column.
		}
		attrs = append(attrs, NativeAttribute{
			Name:           field.DBName,
			GoName:         field.Name,
			IsRelationship: relationColumns[field.DBName],
			NotNull:        field.NotNull,
		})
	}

	r.mu.Lock()
	r.attributes[formType] = attrs
	r.mu.Unlock()
	return nil
}

// NativeAttributes returns the introspected attributes of a registered form type.
func (r *Registry) NativeAttributes(formType string) ([]NativeAttribute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attrs, ok := r.attributes[formType]
	return attrs, ok
}

// NativeAttribute looks up one attribute of a registered form type by column name.
func (r *Registry) NativeAttribute(formType, name string) (NativeAttribute, bool) {
	attrs, ok := r.NativeAttributes(formType)
	if !ok {
		return NativeAttribute{}, false
	}
	for _, attr := range attrs {
		if attr.Name == name {
			return attr, true
		}
	}
	return NativeAttribute{}, false
}

// HasFormType reports whether a native entity type is registered under formType.
func (r *Registry) HasFormType(formType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.attributes[formType]
	return ok
}

// FormTypes returns registered native form types in stable order.
func (r *Registry) FormTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.attributes))
	for formType := range r.attributes {
		types = append(types, formType)
	}
	sort.Strings(types)
	return types
}
