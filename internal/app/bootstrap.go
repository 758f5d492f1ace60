package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/apphost/internal/binding"
	"github.com/dshills/apphost/internal/di"
	"github.com/dshills/apphost/internal/loader"
	"github.com/dshills/apphost/internal/plugin"
	"github.com/dshills/apphost/internal/resource"
)

// Start boots the application: it installs every plugin, then imports every
// resource, then registers the resources in declaration order. Each stage
// starts only after the previous one has completed.
//
// Start runs once. Later calls return the application with a nil error and
// do nothing. A failed Start is not retried by a later call either.
func (a *Application) Start(ctx context.Context) (*Application, error) {
	if !a.started.CompareAndSwap(false, true) {
		return a, nil
	}

	began := time.Now()
	a.logger.Info("starting")
	a.publish(TopicStarting, a)

	if !a.container.HasHandler(binding.LanguageKey) {
		a.logger.Error("no binding language registered; views cannot be created until one is")
	}

	b := &bootstrapper{app: a, plugins: a.Plugins(), resources: a.Resources()}
	if err := b.run(ctx); err != nil {
		a.logger.Error("start failed", zap.Error(err))
		return nil, err
	}

	a.logger.Info("started",
		zap.Int("plugins", len(b.plugins)),
		zap.Int("resources", len(b.resources)),
		zap.Duration("elapsed", time.Since(began)),
	)
	a.publish(TopicStarted, a)
	return a, nil
}

// bootstrapper runs the startup stages over a snapshot of the declarations.
type bootstrapper struct {
	app       *Application
	plugins   []plugin.Descriptor
	resources []string
}

func (b *bootstrapper) run(ctx context.Context) error {
	if err := b.installPlugins(ctx); err != nil {
		return &StartError{Phase: PhasePlugins, Err: err}
	}

	descriptors, err := b.importResources(ctx)
	if err != nil {
		return &StartError{Phase: PhaseImport, Err: err}
	}

	if err := b.registerResources(descriptors); err != nil {
		return &StartError{Phase: PhaseRegister, Err: err}
	}
	return nil
}

func (b *bootstrapper) installPlugins(ctx context.Context) error {
	l, err := di.Get[loader.Loader](b.app.container, loader.Key)
	if err != nil {
		return err
	}

	report, err := plugin.Load(ctx, l, b.plugins, plugin.WithLogger(b.app.logger))
	if err != nil {
		return err
	}
	b.app.publish(TopicPluginsInstalled, report)
	return nil
}

func (b *bootstrapper) importResources(ctx context.Context) ([]resource.Descriptor, error) {
	if !b.app.container.HasHandler(resource.CoordinatorKey) {
		return nil, ErrNoCoordinator
	}
	coordinator, err := di.Get[resource.Coordinator](b.app.container, resource.CoordinatorKey)
	if err != nil {
		return nil, err
	}

	descriptors, err := coordinator.ImportResources(ctx, b.resources)
	if err != nil {
		return nil, err
	}
	if len(descriptors) != len(b.resources) {
		return nil, fmt.Errorf("coordinator returned %d descriptors for %d resources", len(descriptors), len(b.resources))
	}
	return descriptors, nil
}

// registerResources registers on the calling goroutine, in declaration
// order. A failure stops registration; earlier entries stay registered.
func (b *bootstrapper) registerResources(descriptors []resource.Descriptor) error {
	registry, err := di.Get[*resource.Registry](b.app.container, resource.RegistryKey)
	if err != nil {
		return err
	}

	for i, d := range descriptors {
		if err := d.Register(registry); err != nil {
			return &resource.RegisterError{Index: i, ID: b.resources[i], Err: err}
		}
	}
	b.app.logger.Debug("registered resources", zap.Strings("ids", b.resources))
	b.app.publish(TopicResourcesRegistered, b.resources)
	return nil
}
