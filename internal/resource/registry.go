// Package resource holds the resource registry, the resource descriptors
// that populate it and the coordinator that imports them.
package resource

import (
	"fmt"
	"sync"

	"github.com/dshills/apphost/internal/di"
)

// RegistryKey is the container key of the application's registry.
var RegistryKey = di.KeyOf[*Registry]()

// Kind is a resource table.
type Kind string

// Resource kinds.
const (
	KindElement        Kind = "element"
	KindAttribute      Kind = "attribute"
	KindValueConverter Kind = "valueConverter"
)

// Registry is the table of known resources. Descriptors populate it through
// their Register method. It is safe for concurrent reads; writes happen
// during startup, one descriptor at a time.
type Registry struct {
	mu         sync.RWMutex
	elements   map[string]ElementType
	attributes map[string]Attribute
	converters map[string]ValueConverter
	order      map[Kind][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		elements:   make(map[string]ElementType),
		attributes: make(map[string]Attribute),
		converters: make(map[string]ValueConverter),
		order:      make(map[Kind][]string),
	}
}

// RegisterElement adds a custom element. Names are unique per kind.
func (r *Registry) RegisterElement(name string, t ElementType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.elements[name]; ok {
		return &DuplicateError{Kind: KindElement, Name: name}
	}
	r.elements[name] = t
	r.order[KindElement] = append(r.order[KindElement], name)
	return nil
}

// RegisterAttribute adds a custom attribute behavior.
func (r *Registry) RegisterAttribute(name string, a Attribute) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.attributes[name]; ok {
		return &DuplicateError{Kind: KindAttribute, Name: name}
	}
	r.attributes[name] = a
	r.order[KindAttribute] = append(r.order[KindAttribute], name)
	return nil
}

// RegisterValueConverter adds a value converter.
func (r *Registry) RegisterValueConverter(name string, c ValueConverter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.converters[name]; ok {
		return &DuplicateError{Kind: KindValueConverter, Name: name}
	}
	r.converters[name] = c
	r.order[KindValueConverter] = append(r.order[KindValueConverter], name)
	return nil
}

// Element looks up a custom element.
func (r *Registry) Element(name string) (ElementType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.elements[name]
	return t, ok
}

// Attribute looks up a custom attribute.
func (r *Registry) Attribute(name string) (Attribute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attributes[name]
	return a, ok
}

// ValueConverter looks up a value converter.
func (r *Registry) ValueConverter(name string) (ValueConverter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[name]
	return c, ok
}

// Names returns the names registered under kind, in registration order.
func (r *Registry) Names(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order[kind]...)
}

// Len returns the total number of registered resources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.elements) + len(r.attributes) + len(r.converters)
}

// DuplicateError is returned when a name is registered twice.
type DuplicateError struct {
	Kind Kind
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already registered", e.Kind, e.Name)
}

// Is makes errors.Is(err, ErrDuplicate) match any DuplicateError.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}
