// Package loader resolves module identifiers to loaded modules.
//
// A module is whatever value the identifier exports: a Go value registered
// with Static, or the table a Lua chunk returns (see package loader/lua).
// Plugins and resources are both loaded through a Loader.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/apphost/internal/di"
)

// ErrModuleNotFound is returned when no module exists for an identifier.
var ErrModuleNotFound = errors.New("module not found")

// Key is the container key the composition root registers its loader under.
var Key = di.KeyOf[Loader]()

// Module is the exported value of a loaded module.
type Module any

// Loader loads modules by identifier. Implementations must be safe for
// concurrent use: the plugin loader and the resource importer submit all
// loads at once.
type Loader interface {
	LoadModule(ctx context.Context, id string) (Module, error)
}

// Func adapts a function to the Loader interface.
type Func func(ctx context.Context, id string) (Module, error)

// LoadModule calls f.
func (f Func) LoadModule(ctx context.Context, id string) (Module, error) {
	return f(ctx, id)
}

// Static serves modules compiled into the binary.
type Static struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewStatic creates a Static loader seeded with modules.
func NewStatic(modules map[string]Module) *Static {
	s := &Static{modules: make(map[string]Module, len(modules))}
	for id, m := range modules {
		s.modules[id] = m
	}
	return s
}

// Define registers (or replaces) the module for id.
func (s *Static) Define(id string, m Module) *Static {
	s.mu.Lock()
	s.modules[id] = m
	s.mu.Unlock()
	return s
}

// LoadModule returns the module registered for id.
func (s *Static) LoadModule(ctx context.Context, id string) (Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	m, ok := s.modules[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	return m, nil
}

// Submit implements Submitter. Static loads never block, so the result is
// ready when Submit returns.
func (s *Static) Submit(ctx context.Context, id string) <-chan Result {
	return Resolved(s.LoadModule(ctx, id))
}

// IDs returns the registered identifiers, sorted.
func (s *Static) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.modules))
	for id := range s.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Chain tries each loader in order. A loader answering ErrModuleNotFound
// passes to the next one; any other error stops the chain.
type Chain []Loader

// LoadModule implements Loader.
func (c Chain) LoadModule(ctx context.Context, id string) (Module, error) {
	for _, l := range c {
		m, err := l.LoadModule(ctx, id)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrModuleNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
}

// Submit implements Submitter. Loaders that answer at once are tried in
// place; the chain continues on a goroutine from the first loader still
// pending.
func (c Chain) Submit(ctx context.Context, id string) <-chan Result {
	for i, l := range c {
		pending := Submit(ctx, l, id)
		select {
		case r := <-pending:
			if r.Err != nil && errors.Is(r.Err, ErrModuleNotFound) {
				continue
			}
			return Resolved(r.Module, r.Err)
		default:
		}

		rest := c[i+1:]
		out := make(chan Result, 1)
		go func() {
			r := <-pending
			if r.Err != nil && errors.Is(r.Err, ErrModuleNotFound) && len(rest) > 0 {
				r.Module, r.Err = rest.LoadModule(ctx, id)
			}
			out <- r
		}()
		return out
	}
	return Resolved(nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id))
}
