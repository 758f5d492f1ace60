package plugin

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/apphost/internal/loader"
	"github.com/dshills/apphost/internal/logging"
)

// Option configures Load.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger for plugin progress.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Status is one plugin's entry in a Report.
type Status struct {
	ModuleID string
	Kind     Kind
	State    State
	Err      error
}

// Report tracks every plugin of a Load call, in descriptor order.
type Report struct {
	mu       sync.RWMutex
	statuses []Status
}

func newReport(descriptors []Descriptor) *Report {
	r := &Report{statuses: make([]Status, len(descriptors))}
	for i, d := range descriptors {
		r.statuses[i] = Status{ModuleID: d.ModuleID, State: StatePending}
	}
	return r
}

// Statuses returns a snapshot of every plugin's status.
func (r *Report) Statuses() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Status(nil), r.statuses...)
}

// State returns the state of the i-th plugin.
func (r *Report) State(i int) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statuses[i].State
}

// Installed returns the module ids whose install hook returned, in
// descriptor order.
func (r *Report) Installed() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, s := range r.statuses {
		if s.State == StateInstalled {
			ids = append(ids, s.ModuleID)
		}
	}
	return ids
}

func (r *Report) set(i int, state State, err error) {
	r.mu.Lock()
	r.statuses[i].State = state
	r.statuses[i].Err = err
	r.mu.Unlock()
}

func (r *Report) setKind(i int, k Kind) {
	r.mu.Lock()
	r.statuses[i].Kind = k
	r.mu.Unlock()
}

// Load loads every descriptor concurrently and installs the installable
// ones. Loads reach l in descriptor order; they complete in any order. Load
// returns once all plugins are done; the error is the first failure, as an
// *Error. A failure does not cancel the other plugins.
func Load(ctx context.Context, l loader.Loader, descriptors []Descriptor, opts ...Option) (*Report, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.Named(o.logger, "plugin")

	report := newReport(descriptors)

	var g errgroup.Group
	for i, d := range descriptors {
		logger.Debug("loading plugin", zap.String("module", d.ModuleID))
		report.set(i, StateLoading, nil)

		var pending <-chan loader.Result
		if d.ModuleID != "" {
			pending = loader.Submit(ctx, l, d.ModuleID)
		}

		g.Go(func() error {
			err := run(ctx, d, pending, i, report, logger)
			if err != nil {
				report.set(i, StateFailed, err)
			}
			return err
		})
	}

	return report, g.Wait()
}

// LoadAll is Load without the report.
func LoadAll(ctx context.Context, l loader.Loader, descriptors []Descriptor, opts ...Option) error {
	_, err := Load(ctx, l, descriptors, opts...)
	return err
}

func run(ctx context.Context, d Descriptor, pending <-chan loader.Result, i int, report *Report, logger *zap.Logger) error {
	if pending == nil {
		return &Error{ModuleID: d.ModuleID, Phase: PhaseLoad, Err: ErrEmptyModuleID}
	}

	r := <-pending
	if r.Err != nil {
		return &Error{ModuleID: d.ModuleID, Phase: PhaseLoad, Err: r.Err}
	}

	kind, installer, err := Classify(r.Module)
	if err != nil {
		return &Error{ModuleID: d.ModuleID, Phase: PhaseLoad, Err: err}
	}
	report.setKind(i, kind)
	if kind == KindLoadOnly {
		report.set(i, StateLoaded, nil)
		logger.Debug("loaded plugin", zap.String("module", d.ModuleID))
		return nil
	}

	cfg := d.Config
	if cfg == nil {
		cfg = map[string]any{}
	}

	report.set(i, StateInstalling, nil)
	if err := installer.Install(ctx, cfg); err != nil {
		return &Error{ModuleID: d.ModuleID, Phase: PhaseInstall, Err: err}
	}
	report.set(i, StateInstalled, nil)
	logger.Debug("installed plugin", zap.String("module", d.ModuleID))
	return nil
}
