// Package app is the composition root. An Application owns the container,
// collects plugin and resource declarations through its fluent With*
// methods, boots them with Start and attaches a root component with
// SetRoot.
//
//	a := app.New(app.WithLoader(l)).
//	    WithDefaultBindingLanguage().
//	    WithPlugin("analytics", map[string]any{"id": "UA-1"}).
//	    WithResources("widgets/nav-bar", "widgets/user-card")
//	if _, err := a.Start(ctx); err != nil {
//	    return err
//	}
//	_, err := a.SetRoot(ctx, "pages/home", app.HostTarget{})
package app

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/apphost/internal/binding"
	"github.com/dshills/apphost/internal/di"
	"github.com/dshills/apphost/internal/events"
	"github.com/dshills/apphost/internal/loader"
	"github.com/dshills/apphost/internal/logging"
	"github.com/dshills/apphost/internal/plugin"
	"github.com/dshills/apphost/internal/resource"
	"github.com/dshills/apphost/internal/view"
)

// Key is the container key of the Application itself.
var Key = di.KeyOf[*Application]()

// Application is the composition root. Configuration methods are meant to
// be called from one goroutine before Start.
type Application struct {
	*events.Aggregator

	id        string
	container di.Container
	loader    loader.Loader
	registry  *resource.Registry
	document  *view.Document
	hosts     *HostRegistry
	logger    *zap.Logger

	mu        sync.Mutex
	plugins   []plugin.Descriptor
	resources []string

	started atomic.Bool

	rootMu sync.Mutex
	host   *Host
}

// Option configures New.
type Option func(*Application)

// WithLoader sets the module loader. The default serves nothing.
func WithLoader(l loader.Loader) Option {
	return func(a *Application) {
		a.loader = l
	}
}

// WithContainer sets the container the application registers into.
func WithContainer(c di.Container) Option {
	return func(a *Application) {
		a.container = c
	}
}

// WithDocument sets the host page. The default is an empty page.
func WithDocument(d *view.Document) Option {
	return func(a *Application) {
		a.document = d
	}
}

// WithHostRegistry shares a host registry between applications.
func WithHostRegistry(r *HostRegistry) Option {
	return func(a *Application) {
		a.hosts = r
	}
}

// WithLogger sets the application logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Application) {
		a.logger = l
	}
}

// New creates an Application and registers its collaborators in the
// container: the application, the loader, the resource registry, the event
// aggregator, the host registry and a default resource coordinator.
func New(opts ...Option) *Application {
	a := &Application{id: uuid.NewString()}
	for _, opt := range opts {
		opt(a)
	}

	a.logger = logging.Named(a.logger, "apphost").With(zap.String("app", a.id))
	if a.container == nil {
		a.container = di.New()
	}
	if a.loader == nil {
		a.loader = loader.NewStatic(nil)
	}
	if a.document == nil {
		a.document = view.NewDocument()
	}
	if a.hosts == nil {
		a.hosts = NewHostRegistry()
	}
	a.registry = resource.NewRegistry()
	a.Aggregator = events.New(events.WithLogger(a.logger))

	a.container.RegisterInstance(Key, a)
	a.container.RegisterInstance(loader.Key, a.loader)
	a.container.RegisterInstance(resource.RegistryKey, a.registry)
	a.container.RegisterInstance(events.AggregatorKey, a.Aggregator)
	a.container.RegisterInstance(events.ChannelKey, a)
	a.container.RegisterInstance(HostRegistryKey, a.hosts)
	a.container.RegisterSingleton(resource.CoordinatorKey, resource.CoordinatorFactory(resource.WithLogger(a.logger)))

	return a
}

// ID returns the application's unique id.
func (a *Application) ID() string { return a.id }

// Container returns the application container.
func (a *Application) Container() di.Container { return a.container }

// Registry returns the resource registry created by New.
func (a *Application) Registry() *resource.Registry { return a.registry }

// Document returns the host page.
func (a *Application) Document() *view.Document { return a.document }

// Hosts returns the host registry.
func (a *Application) Hosts() *HostRegistry { return a.hosts }

// Logger returns the application logger.
func (a *Application) Logger() *zap.Logger { return a.logger }

// IsStarted reports whether Start has been called.
func (a *Application) IsStarted() bool { return a.started.Load() }

// WithInstance registers instance under key. A later registration of the
// same key wins.
func (a *Application) WithInstance(key di.Key, instance any) *Application {
	a.container.RegisterInstance(key, instance)
	return a
}

// WithSingleton registers a lazily built singleton under key.
func (a *Application) WithSingleton(key di.Key, factory di.Factory) *Application {
	a.container.RegisterSingleton(key, factory)
	return a
}

// WithBindingLanguage registers the binding language factory.
func (a *Application) WithBindingLanguage(factory di.Factory) *Application {
	return a.WithSingleton(binding.LanguageKey, factory)
}

// WithDefaultBindingLanguage registers the html/template binding language,
// with the registry's value converters available as "convert".
func (a *Application) WithDefaultBindingLanguage() *Application {
	return a.WithBindingLanguage(binding.Factory(resource.Funcs(a.registry)))
}

// WithPlugin declares a plugin. A nil config is installed as an empty map.
func (a *Application) WithPlugin(moduleID string, config map[string]any) *Application {
	a.mu.Lock()
	a.plugins = append(a.plugins, plugin.Descriptor{ModuleID: moduleID, Config: config})
	a.mu.Unlock()
	return a
}

// WithResources declares resources. Declaration order is registration
// order.
func (a *Application) WithResources(ids ...string) *Application {
	a.mu.Lock()
	a.resources = append(a.resources, ids...)
	a.mu.Unlock()
	return a
}

// Plugins returns the declared plugins.
func (a *Application) Plugins() []plugin.Descriptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]plugin.Descriptor(nil), a.plugins...)
}

// Resources returns the declared resource ids.
func (a *Application) Resources() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.resources...)
}
