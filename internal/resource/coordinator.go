package resource

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/apphost/internal/di"
	"github.com/dshills/apphost/internal/loader"
	"github.com/dshills/apphost/internal/logging"
)

// CoordinatorKey is the container key of the resource coordinator.
var CoordinatorKey = di.KeyOf[Coordinator]()

// Coordinator imports resources and resolves element types.
type Coordinator interface {
	// ImportResources loads every id and returns the descriptors in the
	// order of ids, whatever order the loads complete in.
	ImportResources(ctx context.Context, ids []string) ([]Descriptor, error)

	// LoadElement resolves a root specifier to an element type.
	LoadElement(ctx context.Context, root string) (ElementType, error)
}

// Importer is the default Coordinator. It loads resources through a
// loader.Loader.
type Importer struct {
	loader   loader.Loader
	registry *Registry
	logger   *zap.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets the importer's logger.
func WithLogger(l *zap.Logger) ImporterOption {
	return func(i *Importer) {
		i.logger = l
	}
}

// NewImporter creates an Importer. registry may be nil; LoadElement then
// always goes to the loader.
func NewImporter(l loader.Loader, registry *Registry, opts ...ImporterOption) *Importer {
	i := &Importer{loader: l, registry: registry}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.Named(i.logger, "resource")
	return i
}

// CoordinatorFactory builds an Importer from the container's loader and
// registry.
func CoordinatorFactory(opts ...ImporterOption) di.Factory {
	return func(c di.Container) (any, error) {
		l, err := di.Get[loader.Loader](c, loader.Key)
		if err != nil {
			return nil, err
		}
		r, err := di.Get[*Registry](c, RegistryKey)
		if err != nil {
			return nil, err
		}
		return NewImporter(l, r, opts...), nil
	}
}

// ImportResources loads all ids concurrently. Loads reach the loader in the
// order of ids. The first failure is returned once every load has finished;
// there is no cancellation.
func (i *Importer) ImportResources(ctx context.Context, ids []string) ([]Descriptor, error) {
	descriptors := make([]Descriptor, len(ids))

	var g errgroup.Group
	for idx, id := range ids {
		i.logger.Debug("importing resource", zap.String("id", id))
		pending := loader.Submit(ctx, i.loader, id)
		g.Go(func() error {
			r := <-pending
			if r.Err != nil {
				return &ImportError{ID: id, Err: r.Err}
			}
			d, err := FromModule(ctx, id, r.Module)
			if err != nil {
				return &ImportError{ID: id, Err: err}
			}
			descriptors[idx] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return descriptors, nil
}

// LoadElement returns the registered element named root, or loads root as
// a module and requires it to be an element.
func (i *Importer) LoadElement(ctx context.Context, root string) (ElementType, error) {
	if i.registry != nil {
		if t, ok := i.registry.Element(root); ok {
			return t, nil
		}
	}

	m, err := i.loader.LoadModule(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("load element %s: %w", root, err)
	}
	if t, ok := m.(ElementType); ok {
		return t, nil
	}

	d, err := FromModule(ctx, root, m)
	if err != nil {
		return nil, fmt.Errorf("load element %s: %w", root, err)
	}
	if t, ok := d.(ElementType); ok {
		return t, nil
	}
	return nil, fmt.Errorf("load element %s: %w", root, ErrNotElement)
}

// IsImportError reports whether err came from a failed import.
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}
