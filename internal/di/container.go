// Package di provides the small injection container the composition root
// registers its collaborators in.
//
// It is intentionally not a resolver: there is no constructor reflection and
// no auto-registration. A key maps either to a ready instance or to a
// singleton factory that runs at most once.
package di

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrNoHandler is returned by Get when nothing is registered under a key.
	ErrNoHandler = errors.New("no handler registered")

	// ErrCircularDependency is returned when a singleton factory resolves
	// its own key, directly or through other factories.
	ErrCircularDependency = errors.New("circular dependency")
)

// Key identifies a registration. Any comparable value works; KeyOf derives
// a key from a Go type.
type Key any

// KeyOf returns the key for type T. For interface types this is the
// interface type itself, so KeyOf[io.Reader]() != KeyOf[*os.File]().
func KeyOf[T any]() Key {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// KeyName returns a printable name for a key.
func KeyName(key Key) string {
	if t, ok := key.(reflect.Type); ok {
		return t.String()
	}
	return fmt.Sprintf("%v", key)
}

// Factory builds a singleton. It receives the container so it can resolve
// its own dependencies.
type Factory func(c Container) (any, error)

// Container is the capability set the composition root consumes.
type Container interface {
	// RegisterInstance binds key to a pre-built value. Later calls win.
	RegisterInstance(key Key, instance any)

	// RegisterSingleton binds key to a factory invoked on first Get.
	// Later calls win.
	RegisterSingleton(key Key, factory Factory)

	// Get resolves key.
	Get(key Key) (any, error)

	// HasHandler reports whether key is registered.
	HasHandler(key Key) bool
}

// handler is one registration.
type handler struct {
	once     sync.Once
	factory  Factory
	instance any
	err      error
}

func (h *handler) resolve(c Container) (any, error) {
	h.once.Do(func() {
		if h.factory == nil {
			return
		}
		h.instance, h.err = h.factory(c)
	})
	return h.instance, h.err
}

// MapContainer is the default Container. It is safe for concurrent use.
type MapContainer struct {
	mu       sync.RWMutex
	handlers map[Key]*handler
	parent   Container
}

// Option configures a MapContainer.
type Option func(*MapContainer)

// WithParent makes unresolved keys fall through to parent.
func WithParent(parent Container) Option {
	return func(c *MapContainer) {
		c.parent = parent
	}
}

// New creates an empty container.
func New(opts ...Option) *MapContainer {
	c := &MapContainer{
		handlers: make(map[Key]*handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterInstance binds key to instance.
func (c *MapContainer) RegisterInstance(key Key, instance any) {
	h := &handler{instance: instance}
	h.once.Do(func() {})

	c.mu.Lock()
	c.handlers[key] = h
	c.mu.Unlock()
}

// RegisterSingleton binds key to factory.
func (c *MapContainer) RegisterSingleton(key Key, factory Factory) {
	c.mu.Lock()
	c.handlers[key] = &handler{factory: factory}
	c.mu.Unlock()
}

// Get resolves key. A singleton factory error is cached like its value:
// the factory never runs twice.
func (c *MapContainer) Get(key Key) (any, error) {
	return c.get(key, nil)
}

// get resolves key on behalf of the factories in path, which are still
// running.
func (c *MapContainer) get(key Key, path []Key) (any, error) {
	for _, k := range path {
		if k == key {
			return nil, &ResolveError{Key: key, Err: fmt.Errorf("%w: %s", ErrCircularDependency, pathName(append(path, key)))}
		}
	}

	c.mu.RLock()
	h, ok := c.handlers[key]
	c.mu.RUnlock()

	if !ok {
		switch p := c.parent.(type) {
		case nil:
			return nil, fmt.Errorf("%w: %s", ErrNoHandler, KeyName(key))
		case *MapContainer:
			return p.get(key, path)
		default:
			return p.Get(key)
		}
	}

	v, err := h.resolve(&scope{MapContainer: c, path: append(slices.Clip(path), key)})
	if err != nil {
		return nil, &ResolveError{Key: key, Err: err}
	}
	return v, nil
}

// scope is the Container a singleton factory receives. Lookups through it
// carry the keys being built, so a cycle fails instead of waiting on itself.
type scope struct {
	*MapContainer
	path []Key
}

func (s *scope) Get(key Key) (any, error) {
	return s.MapContainer.get(key, s.path)
}

func pathName(path []Key) string {
	names := make([]string, len(path))
	for i, k := range path {
		names[i] = KeyName(k)
	}
	return strings.Join(names, " -> ")
}

// HasHandler reports whether key is registered here or in the parent.
func (c *MapContainer) HasHandler(key Key) bool {
	c.mu.RLock()
	_, ok := c.handlers[key]
	c.mu.RUnlock()

	if !ok && c.parent != nil {
		return c.parent.HasHandler(key)
	}
	return ok
}

// Len returns the number of registrations held directly by c.
func (c *MapContainer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}

// ResolveError wraps a singleton factory failure.
type ResolveError struct {
	Key Key
	Err error
}

func (e *ResolveError) Error() string {
	return "resolve " + KeyName(e.Key) + ": " + e.Err.Error()
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Get resolves key from c and asserts the result to T.
func Get[T any](c Container, key Key) (T, error) {
	var zero T
	v, err := c.Get(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %s: got %T, want %s", KeyName(key), v, reflect.TypeOf((*T)(nil)).Elem())
	}
	return t, nil
}

// MustGet is Get that panics. Use it only where a missing registration is a
// programming error.
func MustGet[T any](c Container, key Key) T {
	v, err := Get[T](c, key)
	if err != nil {
		panic(err)
	}
	return v
}
