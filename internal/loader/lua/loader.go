package lua

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/apphost/internal/loader"
	"github.com/dshills/apphost/internal/logging"
)

// ErrInvalidID is returned for identifiers that would escape the search paths.
var ErrInvalidID = errors.New("invalid module id")

// Loader loads Lua modules from a list of search paths. Modules are cached
// by identifier: loading the same id twice returns the same *Module.
type Loader struct {
	paths   []string
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	modules map[string]*Module
	group   singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithPaths sets the search paths, checked in order.
func WithPaths(paths ...string) Option {
	return func(l *Loader) {
		l.paths = paths
	}
}

// WithLogger sets the logger used for loader diagnostics and the host.log table.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithTimeout sets the execution timeout of each module chunk and call.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// NewLoader creates a Lua module loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		timeout: DefaultExecutionTimeout,
		modules: make(map[string]*Module),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.Named(l.logger, "lua")
	return l
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// Resolve maps id to a file: <path>/<id>.lua, then <path>/<id>/init.lua,
// for each search path in order.
func (l *Loader) Resolve(id string) (string, error) {
	rel := filepath.FromSlash(strings.TrimSuffix(id, ".lua"))
	if id == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	for _, base := range l.paths {
		for _, candidate := range []string{
			filepath.Join(base, rel+".lua"),
			filepath.Join(base, rel, "init.lua"),
		} {
			if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", loader.ErrModuleNotFound, id)
}

// LoadModule implements loader.Loader. The result is a *Module.
func (l *Loader) LoadModule(ctx context.Context, id string) (loader.Module, error) {
	r := <-l.Submit(ctx, id)
	return r.Module, r.Err
}

// Submit implements loader.Submitter. The id is resolved before Submit
// returns; the chunk then runs on its own goroutine. Concurrent submissions
// of one id share a single load.
func (l *Loader) Submit(ctx context.Context, id string) <-chan loader.Result {
	l.mu.RLock()
	m, ok := l.modules[id]
	l.mu.RUnlock()
	if ok {
		return loader.Resolved(m, nil)
	}

	path, err := l.Resolve(id)
	if err != nil {
		return loader.Resolved(nil, err)
	}

	pending := l.group.DoChan(id, func() (any, error) {
		l.mu.RLock()
		m, ok := l.modules[id]
		l.mu.RUnlock()
		if ok {
			return m, nil
		}

		m, err := l.load(ctx, id, path)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.modules[id] = m
		l.mu.Unlock()
		return m, nil
	})

	out := make(chan loader.Result, 1)
	go func() {
		r := <-pending
		if r.Err != nil {
			out <- loader.Result{Err: r.Err}
			return
		}
		out <- loader.Result{Module: r.Val.(*Module)}
	}()
	return out
}

func (l *Loader) load(ctx context.Context, id, path string) (*Module, error) {
	state := NewState(WithExecutionTimeout(l.timeout))
	if err := l.installHost(state, id); err != nil {
		state.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	results, err := state.DoFile(ctx, path)
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var table *lua.LTable
	if len(results) > 0 {
		table, _ = results[0].(*lua.LTable)
	}
	if table == nil {
		state.Close()
		return nil, fmt.Errorf("load %s: %w", path, ErrNotTable)
	}

	l.logger.Debug("loaded lua module", zap.String("id", id), zap.String("path", path))
	return &Module{id: id, path: path, state: state, table: table}, nil
}

// installHost exposes the host table to module code.
func (l *Loader) installHost(state *State, id string) error {
	logger := l.logger.With(zap.String("module", id))
	logFn := func(emit func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			emit(L.CheckString(1))
			return 0
		}
	}

	return state.Inspect(func(L *lua.LState) {
		host := L.NewTable()
		host.RawSetString("log", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"debug": logFn(logger.Debug),
			"info":  logFn(logger.Info),
			"warn":  logFn(logger.Warn),
			"error": logFn(logger.Error),
		}))
		host.RawSetString("module", lua.LString(id))
		L.SetGlobal("host", host)
	})
}

// Close releases every cached module.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for id, m := range l.modules {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
		delete(l.modules, id)
	}
	return errors.Join(errs...)
}
